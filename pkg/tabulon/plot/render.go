package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"math/rand"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// colormapRamps maps colormap names onto a start and end colour; series
// colours interpolate between them.
var colormapRamps = map[string][2]drawing.Color{
	"viridis":  {{R: 0x44, G: 0x01, B: 0x54, A: 0xff}, {R: 0xfd, G: 0xe7, B: 0x25, A: 0xff}},
	"plasma":   {{R: 0x0d, G: 0x08, B: 0x87, A: 0xff}, {R: 0xf0, G: 0xf9, B: 0x21, A: 0xff}},
	"inferno":  {{R: 0x00, G: 0x00, B: 0x04, A: 0xff}, {R: 0xfc, G: 0xff, B: 0xa4, A: 0xff}},
	"magma":    {{R: 0x00, G: 0x00, B: 0x04, A: 0xff}, {R: 0xfc, G: 0xfd, B: 0xbf, A: 0xff}},
	"Spectral": {{R: 0x9e, G: 0x01, B: 0x42, A: 0xff}, {R: 0x5e, G: 0x4f, B: 0xa2, A: 0xff}},
	"coolwarm": {{R: 0x3b, G: 0x4c, B: 0xc0, A: 0xff}, {R: 0xb4, G: 0x04, B: 0x26, A: 0xff}},
	"Blues":    {{R: 0xf7, G: 0xfb, B: 0xff, A: 0xff}, {R: 0x08, G: 0x30, B: 0x6b, A: 0xff}},
	"Greens":   {{R: 0xf7, G: 0xfc, B: 0xf5, A: 0xff}, {R: 0x00, G: 0x44, B: 0x1b, A: 0xff}},
	"Reds":     {{R: 0xff, G: 0xf5, B: 0xf0, A: 0xff}, {R: 0x67, G: 0x00, B: 0x0d, A: 0xff}},
	"Greys":    {{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, {R: 0x00, G: 0x00, B: 0x00, A: 0xff}},
}

// rampColor interpolates position t in [0,1] along a colormap ramp.
func rampColor(name string, t float64, bw bool) drawing.Color {
	if bw {
		name = "Greys"
	}
	ramp, ok := colormapRamps[name]
	if !ok {
		ramp = colormapRamps["viridis"]
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + t*(float64(b)-float64(a)))
	}
	return drawing.Color{
		R: lerp(ramp[0].R, ramp[1].R),
		G: lerp(ramp[0].G, ramp[1].G),
		B: lerp(ramp[0].B, ramp[1].B),
		A: 0xff,
	}
}

// seriesColors spreads n colours over the configured colormap.
func seriesColors(cfg *Config, n int) []drawing.Color {
	alpha := uint8(cfg.Float("alpha") * 255)
	out := make([]drawing.Color, n)
	for i := range out {
		t := 0.15
		if n > 1 {
			t = 0.15 + 0.7*float64(i)/float64(n-1)
		}
		c := rampColor(cfg.String("colormap"), t, cfg.Bool("bw"))
		c.A = alpha
		out[i] = c
	}
	return out
}

// columnFloats extracts a numeric column with NAs dropped in place and
// the matching x positions.
func columnFloats(c *frame.Column, xs []float64) (cx, cy []float64) {
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			cx = append(cx, xs[i])
			cy = append(cy, v)
		}
	}
	return cx, cy
}

// xValues derives the shared x axis: the promoted index when use_index
// is set and the index is numeric or datetime, row ordinals otherwise.
func xValues(f *frame.Frame, cfg *Config) []float64 {
	n := f.NumRows()
	xs := make([]float64, n)
	idx := f.Index()
	if cfg.Bool("use_index") && idx != nil {
		switch idx.DType() {
		case frame.Int, frame.Float:
			for i := 0; i < n; i++ {
				if v, ok := idx.Float(i); ok {
					xs[i] = v
				}
			}
			return xs
		case frame.Time:
			for i := 0; i < n; i++ {
				if t, ok := idx.Time(i); ok {
					xs[i] = float64(t.Unix())
				}
			}
			return xs
		}
	}
	for i := 0; i < n; i++ {
		xs[i] = float64(i)
	}
	return xs
}

// rowLabels produces one display label per row: the index when
// promoted, else the first non-numeric column, else the row number.
func rowLabels(f *frame.Frame) []string {
	n := f.NumRows()
	out := make([]string, n)
	if idx := f.Index(); idx != nil {
		for i := 0; i < n; i++ {
			out[i] = idx.String(i)
		}
		return out
	}
	for ci := 0; ci < f.NumCols(); ci++ {
		c := f.Column(ci)
		if c.DType() == frame.String || c.DType() == frame.Categorical {
			for i := 0; i < n; i++ {
				out[i] = c.String(i)
			}
			return out
		}
	}
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf("%d", i)
	}
	return out
}

// valueFormatter builds the axis tick formatter from the axes options.
func valueFormatter(cfg *Config) chart.ValueFormatter {
	precision := cfg.Int("precision")
	switch cfg.String("formatter") {
	case "date":
		layout := cfg.String("date_format")
		if layout == "" {
			layout = "2006-01-02"
		}
		return func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return fmt.Sprintf("%v", v)
			}
			return time.Unix(int64(f), 0).UTC().Format(layout)
		}
	case "percent":
		return func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return fmt.Sprintf("%v", v)
			}
			return fmt.Sprintf("%.*f%%", precision, f*100)
		}
	case "sci-notation":
		return func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return fmt.Sprintf("%v", v)
			}
			return fmt.Sprintf("%.*e", precision, f)
		}
	case "eng":
		return func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return fmt.Sprintf("%v", v)
			}
			return chart.FloatValueFormatterWithFormat(f, "%.3g")
		}
	}
	if sym := cfg.String("currency"); sym != "" {
		return func(v interface{}) string {
			f, ok := v.(float64)
			if !ok {
				return fmt.Sprintf("%v", v)
			}
			return fmt.Sprintf("%s%.*f", sym, precision, f)
		}
	}
	return chart.FloatValueFormatter
}

// baseChart applies the label, axis and grid options shared by every
// chart.Chart based renderer.
func (e *Engine) baseChart(cfg *Config) chart.Chart {
	gridStyle := chart.Style{Hidden: true}
	if cfg.Bool("grid") {
		gridStyle = chart.Style{StrokeColor: chart.ColorAlternateGray, StrokeWidth: 1}
	}
	xa := chart.XAxis{
		Name:           cfg.String("xlabel"),
		GridMajorStyle: gridStyle,
		ValueFormatter: valueFormatter(cfg),
	}
	if !cfg.Bool("showxlabels") {
		xa.Style = chart.Style{Hidden: true}
	}
	if rot := cfg.Int("rotx"); rot != 0 {
		xa.TickStyle = chart.Style{TextRotationDegrees: float64(rot)}
	}
	ya := chart.YAxis{
		Name:           cfg.String("ylabel"),
		GridMajorStyle: gridStyle,
		ValueFormatter: valueFormatter(cfg),
	}
	if !cfg.Bool("showylabels") {
		ya.Style = chart.Style{Hidden: true}
	}
	if cfg.Bool("logy") {
		ya.Range = &chart.LogarithmicRange{}
	}
	if lo, hi, ok := axisRange(cfg, "ymin", "ymax"); ok {
		ya.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	}
	if lo, hi, ok := axisRange(cfg, "xmin", "xmax"); ok {
		xa.Range = &chart.ContinuousRange{Min: lo, Max: hi}
	}
	return chart.Chart{
		Title:      cfg.String("title"),
		Width:      e.Width,
		Height:     e.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xa,
		YAxis:      ya,
	}
}

func axisRange(cfg *Config, minKey, maxKey string) (float64, float64, bool) {
	lo, okLo := frame.ParseNumber(cfg.String(minKey), frame.CoerceOptions{})
	hi, okHi := frame.ParseNumber(cfg.String(maxKey), frame.CoerceOptions{})
	return lo, hi, okLo && okHi
}

func renderChart(ch chart.Chart, legend bool) ([]byte, error) {
	if legend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderLine draws line, area and density plots: one series per
// numeric column.
func (e *Engine) renderLine(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	colors := seriesColors(cfg, len(cols))
	xs := xValues(f, cfg)
	fill := cfg.Kind() == "area"

	ch := e.baseChart(cfg)
	for i, c := range cols {
		sx, sy := columnFloats(c, xs)
		if cfg.Kind() == "density" {
			sx, sy = densityCurve(sy, 128)
		}
		style := chart.Style{
			StrokeColor:     colors[i],
			StrokeWidth:     cfg.Float("linewidth"),
			StrokeDashArray: dashArray(cfg.String("linestyle")),
		}
		if fill {
			style.FillColor = colors[i].WithAlpha(90)
		}
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    c.Name,
			XValues: sx,
			YValues: sy,
			Style:   style,
		})
	}
	return renderChart(ch, cfg.Bool("legend"))
}

func dashArray(linestyle string) []float64 {
	switch linestyle {
	case "--":
		return []float64{6, 4}
	case "-.":
		return []float64{6, 3, 2, 3}
	case ":":
		return []float64{2, 3}
	}
	return nil
}

// densityCurve estimates a gaussian kernel density over vals, sampled
// on a regular grid.
func densityCurve(vals []float64, points int) ([]float64, []float64) {
	if len(vals) == 0 {
		return nil, nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	sd := stdDev(vals)
	if sd == 0 {
		sd = 1
	}
	// Silverman's rule of thumb
	h := 1.06 * sd * math.Pow(float64(len(vals)), -0.2)
	xs := make([]float64, points)
	ys := make([]float64, points)
	step := (hi - lo) / float64(points-1)
	for i := range xs {
		x := lo + step*float64(i)
		xs[i] = x
		var d float64
		for _, v := range vals {
			z := (x - v) / h
			d += math.Exp(-0.5 * z * z)
		}
		ys[i] = d / (float64(len(vals)) * h * math.Sqrt(2*math.Pi))
	}
	return xs, ys
}

func stdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var m float64
	for _, v := range vals {
		m += v
	}
	m /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// renderBar draws bar and barh plots from the first numeric column,
// labelled by the row labels. barh keeps the same geometry with the
// value axis horizontal in the labels.
func (e *Engine) renderBar(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	labels := rowLabels(f)
	colors := seriesColors(cfg, f.NumRows())

	var bars []chart.Value
	c := cols[0]
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		bars = append(bars, chart.Value{
			Value: v,
			Label: labels[i],
			Style: chart.Style{FillColor: colors[i%len(colors)], StrokeWidth: cfg.Float("linewidth")},
		})
	}
	ch := chart.BarChart{
		Title:      cfg.String("title"),
		Width:      e.Width,
		Height:     e.Height,
		BarWidth:   barWidth(e.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	if cfg.Kind() == "barh" {
		return rotateImage(buf.Bytes())
	}
	return buf.Bytes(), nil
}

func barWidth(total, n int) int {
	if n == 0 {
		return 20
	}
	w := total / (2 * n)
	if w < 2 {
		w = 2
	}
	if w > 60 {
		w = 60
	}
	return w
}

// rotateImage turns a rendered chart 90 degrees for horizontal bars.
func rotateImage(data []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// renderHistogram bins the first numeric column.
func (e *Engine) renderHistogram(f *frame.Frame, cfg *Config) ([]byte, error) {
	c := numericColumns(f)[0]
	var vals []float64
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("no numeric data for a histogram")
	}
	bins := cfg.Int("bins")
	if bins < 1 {
		bins = 10
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		hi = lo + 1
	}
	counts := make([]float64, bins)
	step := (hi - lo) / float64(bins)
	for _, v := range vals {
		b := int((v - lo) / step)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}

	colors := seriesColors(cfg, bins)
	bars := make([]chart.Value, bins)
	for i := range counts {
		bars[i] = chart.Value{
			Value: counts[i],
			Label: fmt.Sprintf("%.3g", lo+step*(float64(i)+0.5)),
			Style: chart.Style{FillColor: colors[i], StrokeWidth: cfg.Float("linewidth")},
		}
	}
	ch := chart.BarChart{
		Title:      cfg.String("title"),
		Width:      e.Width,
		Height:     e.Height,
		BarWidth:   barWidth(e.Width, bins),
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderScatter draws the first numeric column against the second.
// clrcol splits the points into one coloured series per level; the
// colour column itself is excluded from the plotted pair.
func (e *Engine) renderScatter(f *frame.Frame, cfg *Config) ([]byte, error) {
	clrName := cfg.String("clrcol")
	cols := numericColumns(f)
	var xcol, ycol *frame.Column
	for _, c := range cols {
		if c.Name == clrName {
			continue
		}
		if xcol == nil {
			xcol = c
		} else if ycol == nil {
			ycol = c
			break
		}
	}
	if xcol == nil || ycol == nil {
		return nil, fmt.Errorf("scatter needs two numeric columns")
	}

	dotStyle := func(col drawing.Color) chart.Style {
		return chart.Style{
			StrokeWidth: 0,
			DotWidth:    float64(cfg.Int("ms")),
			DotColor:    col,
		}
	}

	ch := e.baseChart(cfg)
	if clrCol, ok := f.ColumnByName(clrName); ok && clrName != "" {
		levelRows := map[string][]int{}
		var order []string
		for i := 0; i < clrCol.Len(); i++ {
			lv := clrCol.String(i)
			if _, seen := levelRows[lv]; !seen {
				order = append(order, lv)
			}
			levelRows[lv] = append(levelRows[lv], i)
		}
		colors := seriesColors(cfg, len(order))
		for li, lv := range order {
			var sx, sy []float64
			for _, r := range levelRows[lv] {
				vx, okx := xcol.Float(r)
				vy, oky := ycol.Float(r)
				if okx && oky {
					sx = append(sx, vx)
					sy = append(sy, vy)
				}
			}
			ch.Series = append(ch.Series, chart.ContinuousSeries{
				Name:    lv,
				XValues: sx,
				YValues: sy,
				Style:   dotStyle(colors[li]),
			})
		}
		return renderChart(ch, cfg.Bool("legend"))
	}

	var sx, sy []float64
	for i := 0; i < xcol.Len(); i++ {
		vx, okx := xcol.Float(i)
		vy, oky := ycol.Float(i)
		if okx && oky {
			sx = append(sx, vx)
			sy = append(sy, vy)
		}
	}
	ch.Series = append(ch.Series, chart.ContinuousSeries{
		Name:    ycol.Name,
		XValues: sx,
		YValues: sy,
		Style:   dotStyle(seriesColors(cfg, 1)[0]),
	})
	return renderChart(ch, cfg.Bool("legend"))
}

// renderPie draws the first numeric column as slices, labelled from
// the row labels unless a legend is requested.
func (e *Engine) renderPie(f *frame.Frame, cfg *Config) ([]byte, error) {
	c := numericColumns(f)[0]
	labels := rowLabels(f)
	colors := seriesColors(cfg, c.Len())

	var values []chart.Value
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok || v <= 0 {
			continue
		}
		label := labels[i]
		if cfg.Bool("legend") {
			label = ""
		}
		values = append(values, chart.Value{
			Value: v,
			Label: label,
			Style: chart.Style{FillColor: colors[i]},
		})
	}
	ch := chart.PieChart{
		Title:  cfg.String("title"),
		Width:  e.Width,
		Height: e.Height,
		Values: values,
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fiveNumber is the summary a box renderer draws per column.
type fiveNumber struct {
	name                   string
	min, q1, med, q3, max  float64
}

func summarize(cols []*frame.Column) []fiveNumber {
	var out []fiveNumber
	for _, c := range cols {
		var vals []float64
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		lo, hi := vals[0], vals[0]
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		out = append(out, fiveNumber{
			name: c.Name,
			min:  lo,
			q1:   quantileOf(vals, 0.25),
			med:  quantileOf(vals, 0.5),
			q3:   quantileOf(vals, 0.75),
			max:  hi,
		})
	}
	return out
}

func quantileOf(vals []float64, q float64) float64 {
	s := append([]float64(nil), vals...)
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	if lo+1 >= len(s) {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo]*(1-frac) + s[lo+1]*frac
}

// renderBox hand-draws box (and violin) summaries per numeric column:
// black outlines, colormap-filled boxes.
func (e *Engine) renderBox(f *frame.Frame, cfg *Config) ([]byte, error) {
	summaries := summarize(numericColumns(f))
	if len(summaries) == 0 {
		return nil, fmt.Errorf("no numeric data for a box plot")
	}
	r, err := chart.PNG(e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	fillBackground(r, e.Width, e.Height)

	lo, hi := summaries[0].min, summaries[0].max
	for _, s := range summaries {
		lo = math.Min(lo, s.min)
		hi = math.Max(hi, s.max)
	}
	if lo == hi {
		hi = lo + 1
	}
	margin := 40
	plotH := e.Height - 2*margin
	toY := func(v float64) int {
		return e.Height - margin - int(float64(plotH)*(v-lo)/(hi-lo))
	}
	slot := (e.Width - 2*margin) / len(summaries)
	boxW := slot / 2
	colors := seriesColors(cfg, len(summaries))
	outline := drawing.Color{A: 0xff}
	lw := cfg.Float("linewidth")
	if lw <= 0 {
		lw = 1
	}

	for i, s := range summaries {
		cx := margin + slot*i + slot/2
		left, right := cx-boxW/2, cx+boxW/2

		// whiskers
		r.SetStrokeColor(outline)
		r.SetStrokeWidth(lw)
		r.MoveTo(cx, toY(s.min))
		r.LineTo(cx, toY(s.q1))
		r.Stroke()
		r.MoveTo(cx, toY(s.q3))
		r.LineTo(cx, toY(s.max))
		r.Stroke()

		// box
		r.SetFillColor(colors[i])
		r.SetStrokeColor(outline)
		r.SetStrokeWidth(lw)
		r.MoveTo(left, toY(s.q1))
		r.LineTo(right, toY(s.q1))
		r.LineTo(right, toY(s.q3))
		r.LineTo(left, toY(s.q3))
		r.Close()
		r.FillStroke()

		// median line
		r.SetStrokeColor(outline)
		r.MoveTo(left, toY(s.med))
		r.LineTo(right, toY(s.med))
		r.Stroke()

		drawLabel(r, s.name, cx, e.Height-margin/2)
	}
	drawTitle(r, cfg.String("title"), e.Width)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderDot draws one jittered point column per numeric column, the
// box outlines hidden.
func (e *Engine) renderDot(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	colors := seriesColors(cfg, len(cols))
	rng := rand.New(rand.NewSource(1))

	ch := e.baseChart(cfg)
	for i, c := range cols {
		var sx, sy []float64
		for j := 0; j < c.Len(); j++ {
			if v, ok := c.Float(j); ok {
				sx = append(sx, float64(i)+0.3*(rng.Float64()-0.5))
				sy = append(sy, v)
			}
		}
		ch.Series = append(ch.Series, chart.ContinuousSeries{
			Name:    c.Name,
			XValues: sx,
			YValues: sy,
			Style: chart.Style{
				StrokeWidth: 0,
				DotWidth:    float64(cfg.Int("ms")),
				DotColor:    colors[i],
			},
		})
	}
	return renderChart(ch, cfg.Bool("legend"))
}

// renderHeatmap paints one cell per (row, numeric column) coloured by
// value. A zero linewidth suppresses the cell borders.
func (e *Engine) renderHeatmap(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	rows := f.NumRows()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range cols {
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	if lo > hi {
		return nil, fmt.Errorf("no numeric data for a heatmap")
	}
	if lo == hi {
		hi = lo + 1
	}
	logScale := cfg.String("cscale") == "log" && lo > 0

	r, err := chart.PNG(e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	fillBackground(r, e.Width, e.Height)

	margin := 30
	cellW := float64(e.Width-2*margin) / float64(len(cols))
	cellH := float64(e.Height-2*margin) / float64(rows)
	lw := cfg.Float("linewidth")

	for ci, c := range cols {
		for ri := 0; ri < rows; ri++ {
			v, ok := c.Float(ri)
			if !ok {
				continue
			}
			t := (v - lo) / (hi - lo)
			if logScale {
				t = (math.Log(v) - math.Log(lo)) / (math.Log(hi) - math.Log(lo))
			}
			x0 := margin + int(cellW*float64(ci))
			y0 := margin + int(cellH*float64(ri))
			x1 := margin + int(cellW*float64(ci+1))
			y1 := margin + int(cellH*float64(ri+1))

			r.SetFillColor(rampColor(cfg.String("colormap"), t, cfg.Bool("bw")))
			r.MoveTo(x0, y0)
			r.LineTo(x1, y0)
			r.LineTo(x1, y1)
			r.LineTo(x0, y1)
			r.Close()
			if lw > 0 {
				r.SetStrokeColor(drawing.Color{A: 0xff})
				r.SetStrokeWidth(lw)
				r.FillStroke()
			} else {
				r.Fill()
			}
		}
	}
	drawTitle(r, cfg.String("title"), e.Width)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderScatterMatrix composites the pairwise scatter grid, histograms
// on the diagonal.
func (e *Engine) renderScatterMatrix(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	n := len(cols)
	cellW, cellH := e.Width/n, e.Height/n
	sub := &Engine{Width: cellW, Height: cellH, log: e.log}
	canvas := image.NewRGBA(image.Rect(0, 0, cellW*n, cellH*n))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	cellCfg := cfg.Copy()
	_ = cellCfg.Set("legend", false)
	_ = cellCfg.Set("title", "")
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			var buf []byte
			var err error
			if row == col {
				part, ferr := frame.New(cols[row].Copy())
				if ferr != nil {
					return nil, ferr
				}
				histCfg := cellCfg.Copy()
				_ = histCfg.Set("kind", "histogram")
				buf, err = sub.renderHistogram(part, histCfg)
			} else {
				part, ferr := frame.New(cols[col].Copy(), cols[row].Copy())
				if ferr != nil {
					return nil, ferr
				}
				scatterCfg := cellCfg.Copy()
				_ = scatterCfg.Set("kind", "scatter")
				buf, err = sub.renderScatter(part, scatterCfg)
			}
			if err != nil {
				return nil, err
			}
			cell, err := png.Decode(bytes.NewReader(buf))
			if err != nil {
				return nil, err
			}
			x, y := col*cellW, row*cellH
			draw.Draw(canvas, image.Rect(x, y, x+cellW, y+cellH), cell, image.Point{}, draw.Over)
		}
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// renderRadviz anchors each numeric column on a unit circle and places
// every row at the normalised weighted position of its values.
func (e *Engine) renderRadviz(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	if len(cols) < 2 {
		return nil, fmt.Errorf("radviz needs at least two numeric columns")
	}

	// column ranges for normalisation
	los := make([]float64, len(cols))
	his := make([]float64, len(cols))
	for i, c := range cols {
		lo, hi := math.Inf(1), math.Inf(-1)
		for r := 0; r < c.Len(); r++ {
			if v, ok := c.Float(r); ok {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if lo > hi || lo == hi {
			lo, hi = 0, 1
		}
		los[i], his[i] = lo, hi
	}

	cx, cy := e.Width/2, e.Height/2
	radius := float64(minInt(e.Width, e.Height))/2 - 50

	r, err := chart.PNG(e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	fillBackground(r, e.Width, e.Height)

	// anchor circle
	r.SetStrokeColor(chart.ColorAlternateGray)
	r.SetStrokeWidth(1)
	r.Circle(radius, cx, cy)
	r.Stroke()

	anchors := make([][2]float64, len(cols))
	for i := range cols {
		theta := 2 * math.Pi * float64(i) / float64(len(cols))
		anchors[i] = [2]float64{math.Cos(theta), math.Sin(theta)}
		ax := cx + int(radius*anchors[i][0])
		ay := cy - int(radius*anchors[i][1])
		r.SetFillColor(drawing.Color{A: 0xff})
		r.Circle(3, ax, ay)
		r.Fill()
		drawLabel(r, cols[i].Name, ax, ay-8)
	}

	dotColor := seriesColors(cfg, 1)[0]
	dot := float64(cfg.Int("ms")) / 2
	if dot < 1 {
		dot = 2
	}
	for row := 0; row < f.NumRows(); row++ {
		var wx, wy, wsum float64
		valid := true
		for i, c := range cols {
			v, ok := c.Float(row)
			if !ok {
				valid = false
				break
			}
			w := (v - los[i]) / (his[i] - los[i])
			wx += w * anchors[i][0]
			wy += w * anchors[i][1]
			wsum += w
		}
		if !valid || wsum == 0 {
			continue
		}
		px := cx + int(radius*wx/wsum)
		py := cy - int(radius*wy/wsum)
		r.SetFillColor(dotColor)
		r.Circle(dot, px, py)
		r.Fill()
	}
	drawTitle(r, cfg.String("title"), e.Width)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderVenn treats the first two or three columns as sets of their
// distinct values and draws the overlap counts.
func (e *Engine) renderVenn(f *frame.Frame, cfg *Config) ([]byte, error) {
	nsets := f.NumCols()
	if nsets > 3 {
		nsets = 3
	}
	sets := make([]map[string]bool, nsets)
	for i := 0; i < nsets; i++ {
		c := f.Column(i)
		sets[i] = map[string]bool{}
		for r := 0; r < c.Len(); r++ {
			if !c.IsNA(r) {
				sets[i][c.String(r)] = true
			}
		}
	}

	r, err := chart.PNG(e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	fillBackground(r, e.Width, e.Height)

	radius := float64(minInt(e.Width, e.Height)) / 4
	cx, cy := e.Width/2, e.Height/2
	offset := int(radius * 0.6)
	centers := [][2]int{{cx - offset, cy}, {cx + offset, cy}}
	if nsets == 3 {
		centers = [][2]int{
			{cx - offset, cy + offset/2},
			{cx + offset, cy + offset/2},
			{cx, cy - offset},
		}
	}

	colors := seriesColors(cfg, nsets)
	for i := 0; i < nsets; i++ {
		fill := colors[i]
		fill.A = uint8(cfg.Float("alpha") * 120)
		r.SetFillColor(fill)
		r.SetStrokeColor(drawing.Color{A: 0xff})
		r.SetStrokeWidth(1)
		r.Circle(radius, centers[i][0], centers[i][1])
		r.FillStroke()
		drawLabel(r, f.Column(i).Name, centers[i][0], centers[i][1]-int(radius)-8)
		drawLabel(r, fmt.Sprintf("%d", len(sets[i])), centers[i][0], centers[i][1])
	}

	inter := 0
	for v := range sets[0] {
		in := true
		for i := 1; i < nsets; i++ {
			if !sets[i][v] {
				in = false
				break
			}
		}
		if in {
			inter++
		}
	}
	drawLabel(r, fmt.Sprintf("%d", inter), cx, cy)
	drawTitle(r, cfg.String("title"), e.Width)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderTwinAxes draws the first remaining column on the primary y
// axis and every further column on the secondary axis. When use_index
// is unset the first column supplies the x values.
func (e *Engine) renderTwinAxes(f *frame.Frame, cfg *Config) ([]byte, error) {
	cols := numericColumns(f)
	if len(cols) < 2 {
		return nil, fmt.Errorf("twin axes need at least two numeric columns")
	}

	var xs []float64
	if cfg.Bool("use_index") {
		xs = xValues(f, cfg)
	} else {
		xs = make([]float64, f.NumRows())
		for i := range xs {
			if v, ok := cols[0].Float(i); ok {
				xs[i] = v
			}
		}
		cols = cols[1:]
	}
	if len(cols) < 2 {
		return nil, fmt.Errorf("twin axes need at least two numeric columns")
	}

	colors := seriesColors(cfg, len(cols))
	ch := e.baseChart(cfg)
	ch.YAxisSecondary = chart.YAxis{ValueFormatter: valueFormatter(cfg)}
	for i, c := range cols {
		sx, sy := columnFloats(c, xs)
		series := chart.ContinuousSeries{
			Name:    c.Name,
			XValues: sx,
			YValues: sy,
			Style: chart.Style{
				StrokeColor: colors[i],
				StrokeWidth: cfg.Float("linewidth"),
			},
		}
		if i > 0 {
			series.YAxis = chart.YAxisSecondary
		}
		ch.Series = append(ch.Series, series)
	}
	return renderChart(ch, true)
}

// warningImage paints the warning text into an otherwise empty axes
// area.
func (e *Engine) warningImage(msg string) ([]byte, error) {
	r, err := chart.PNG(e.Width, e.Height)
	if err != nil {
		return nil, err
	}
	fillBackground(r, e.Width, e.Height)
	r.SetStrokeColor(chart.ColorAlternateGray)
	r.SetStrokeWidth(1)
	r.MoveTo(20, 20)
	r.LineTo(e.Width-20, 20)
	r.LineTo(e.Width-20, e.Height-20)
	r.LineTo(20, e.Height-20)
	r.Close()
	r.Stroke()
	drawLabel(r, msg, e.Width/2, e.Height/2)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillBackground(r chart.Renderer, w, h int) {
	r.SetFillColor(drawing.Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	r.MoveTo(0, 0)
	r.LineTo(w, 0)
	r.LineTo(w, h)
	r.LineTo(0, h)
	r.Close()
	r.Fill()
}

func drawLabel(r chart.Renderer, text string, cx, y int) {
	if text == "" {
		return
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return
	}
	r.SetFont(font)
	r.SetFontSize(10)
	r.SetFontColor(drawing.Color{A: 0xff})
	box := r.MeasureText(text)
	r.Text(text, cx-box.Width()/2, y)
}

func drawTitle(r chart.Renderer, title string, width int) {
	if title == "" {
		return
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return
	}
	r.SetFont(font)
	r.SetFontSize(14)
	r.SetFontColor(drawing.Color{A: 0xff})
	box := r.MeasureText(title)
	r.Text(title, width/2-box.Width()/2, 18)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package plot

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

const (
	maxBarRows     = 300
	maxHeatmapRows = 1000
	maxPointLabels = 1500
)

// Engine renders sub-frames into figures. It never mutates the frame
// it is handed.
type Engine struct {
	Width  int
	Height int

	log *logrus.Entry
}

// NewEngine sizes the engine from the user's settings.
func NewEngine(settings tabulon.Settings) *Engine {
	w, h := 640, 480
	if settings.DPI > 0 {
		w = settings.DPI * 8
		h = settings.DPI * 6
	}
	return &Engine{Width: w, Height: h, log: logrus.WithField("component", "plot")}
}

type renderer func(*Engine, *frame.Frame, *Config) ([]byte, error)

var renderers = map[string]renderer{
	"line":           (*Engine).renderLine,
	"area":           (*Engine).renderLine,
	"density":        (*Engine).renderLine,
	"bar":            (*Engine).renderBar,
	"barh":           (*Engine).renderBar,
	"histogram":      (*Engine).renderHistogram,
	"scatter":        (*Engine).renderScatter,
	"hexbin":         (*Engine).renderScatter,
	"pie":            (*Engine).renderPie,
	"boxplot":        (*Engine).renderBox,
	"violinplot":     (*Engine).renderBox,
	"dotplot":        (*Engine).renderDot,
	"heatmap":        (*Engine).renderHeatmap,
	"imshow":         (*Engine).renderHeatmap,
	"contour":        (*Engine).renderHeatmap,
	"scatter_matrix": (*Engine).renderScatterMatrix,
	"radviz":         (*Engine).renderRadviz,
	"venn":           (*Engine).renderVenn,
}

// Render dispatches on the configured kind and returns the figure. A
// refused pre-check yields a warning figure, not an error; an unknown
// kind is a typed failure.
func (e *Engine) Render(f *frame.Frame, cfg *Config) (*Figure, error) {
	kind := cfg.Kind()
	render, ok := renderers[kind]
	if !ok {
		return nil, tabulon.Errorf("plot.render", tabulon.ErrUserInput, "unknown plot kind %q", kind)
	}

	kwds := map[string]interface{}{}
	for _, group := range cfg.AllKwds() {
		for name, v := range group {
			kwds[name] = v
		}
	}
	fig := &Figure{
		Kind:   kind,
		Width:  e.Width,
		Height: e.Height,
		Kwds:   FilterKwds(kind, kwds),
	}

	if warning := e.precheck(f, kind); warning != "" {
		e.log.WithField("kind", kind).Warn(warning)
		img, err := e.warningImage(warning)
		if err != nil {
			return nil, err
		}
		fig.Warning = warning
		fig.PNG = img
		return fig, nil
	}

	layout := cfg.String("axes_layout")
	by := cfg.String("by")
	var (
		img []byte
		err error
	)
	switch {
	case layout == "twin-axes":
		if kind != "line" {
			return e.warn(fig, fmt.Sprintf("twin axes only apply to line plots, not %s", kind))
		}
		img, err = e.renderTwinAxes(f, cfg)
	case layout == "multiple" && by != "":
		img, err = e.renderGrouped(f, cfg, render)
	case layout == "single" && by != "":
		switch kind {
		case "line", "bar", "barh", "scatter":
			img, err = render(e, f, cfg)
		default:
			return e.warn(fig, fmt.Sprintf("grouping on a single axis is not defined for %s", kind))
		}
	default:
		img, err = render(e, f, cfg)
	}
	if err != nil {
		return nil, tabulon.WrapErr("plot.render", tabulon.ErrComputation, err)
	}
	fig.PNG = img
	return fig, nil
}

func (e *Engine) warn(fig *Figure, msg string) (*Figure, error) {
	e.log.WithField("kind", fig.Kind).Warn(msg)
	img, err := e.warningImage(msg)
	if err != nil {
		return nil, err
	}
	fig.Warning = msg
	fig.PNG = img
	return fig, nil
}

// precheck applies the size and shape limits; a non-empty return is
// the warning painted instead of the plot.
func (e *Engine) precheck(f *frame.Frame, kind string) string {
	if f == nil || f.NumRows() == 0 || f.NumCols() == 0 {
		return "nothing to plot"
	}
	if kind != "venn" && len(numericColumns(f)) == 0 {
		return "no numeric data to plot"
	}
	switch kind {
	case "bar", "barh":
		if f.NumRows() > maxBarRows {
			return fmt.Sprintf("too many rows for a bar plot (%d > %d)", f.NumRows(), maxBarRows)
		}
	case "heatmap":
		if f.NumRows() > maxHeatmapRows {
			return fmt.Sprintf("too many rows for a heatmap (%d > %d)", f.NumRows(), maxHeatmapRows)
		}
	}
	switch kind {
	case "scatter", "scatter_matrix", "hexbin", "heatmap":
		if len(numericColumns(f)) < 2 {
			return fmt.Sprintf("%s needs at least two numeric columns", kind)
		}
	case "venn":
		if f.NumCols() < 2 {
			return "venn needs two or three columns"
		}
	}
	return ""
}

// renderGrouped partitions the frame by the group columns, renders one
// subplot per group and composites them onto a grid.
func (e *Engine) renderGrouped(f *frame.Frame, cfg *Config, render renderer) ([]byte, error) {
	groups, order, err := partition(f, cfg.String("by"), cfg.String("by2"))
	if err != nil {
		return nil, err
	}
	rows, cols := gridShape(len(order), cfg.Int("rows"), cfg.Int("cols"))

	cellW, cellH := e.Width/cols, e.Height/rows
	sub := &Engine{Width: cellW, Height: cellH, log: e.log}
	canvas := image.NewRGBA(image.Rect(0, 0, cellW*cols, cellH*rows))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	subCfg := cfg.Copy()
	// per-subplot legends are suppressed; the shared legend is drawn
	// once at figure level by the first subplot
	_ = subCfg.Set("legend", false)
	for i, key := range order {
		part := groups[key]
		titled := subCfg.Copy()
		_ = titled.Set("title", key)
		buf, err := render(sub, part, titled)
		if err != nil {
			return nil, err
		}
		cell, err := png.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		x, y := (i%cols)*cellW, (i/cols)*cellH
		draw.Draw(canvas, image.Rect(x, y, x+cellW, y+cellH), cell, image.Point{}, draw.Over)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// partition splits a frame on one or two key columns, first-seen order.
func partition(f *frame.Frame, by, by2 string) (map[string]*frame.Frame, []string, error) {
	keyCol, ok := f.ColumnByName(by)
	if !ok {
		return nil, nil, fmt.Errorf("no column %q", by)
	}
	var key2 *frame.Column
	if by2 != "" {
		c, ok := f.ColumnByName(by2)
		if !ok {
			return nil, nil, fmt.Errorf("no column %q", by2)
		}
		key2 = c
	}

	rows := map[string][]int{}
	var order []string
	for i := 0; i < f.NumRows(); i++ {
		k := keyCol.String(i)
		if key2 != nil {
			k += " / " + key2.String(i)
		}
		if _, seen := rows[k]; !seen {
			order = append(order, k)
		}
		rows[k] = append(rows[k], i)
	}

	drop := []string{by}
	if by2 != "" {
		drop = append(drop, by2)
	}
	groups := make(map[string]*frame.Frame, len(order))
	for k, idx := range rows {
		part := f.Take(idx)
		var remove []int
		for _, name := range drop {
			if pos := part.ColumnIndex(name); pos >= 0 {
				remove = append(remove, pos)
			}
		}
		part.RemoveColumns(remove...)
		groups[k] = part
	}
	return groups, order, nil
}

// gridShape derives subplot grid dimensions from the group count
// unless the config overrides them.
func gridShape(n, rows, cols int) (int, int) {
	if n < 1 {
		n = 1
	}
	switch {
	case rows > 0 && cols > 0:
		return rows, cols
	case cols > 0:
		return (n + cols - 1) / cols, cols
	case rows > 0:
		return rows, (n + rows - 1) / rows
	}
	c := int(math.Ceil(math.Sqrt(float64(n))))
	r := (n + c - 1) / c
	return r, c
}

// numericColumns lists the columns a renderer can coerce to floats.
func numericColumns(f *frame.Frame) []*frame.Column {
	var out []*frame.Column
	for i := 0; i < f.NumCols(); i++ {
		c := f.Column(i)
		switch c.DType() {
		case frame.Int, frame.Float, frame.Bool:
			out = append(out, c)
		}
	}
	return out
}

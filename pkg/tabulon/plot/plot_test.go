package plot

import (
	"errors"
	"testing"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

func testEngine() *Engine {
	return NewEngine(tabulon.DefaultSettings())
}

func numericFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	f, err := frame.New(
		frame.NewFloatColumn("x", vals, nil),
		frame.NewFloatColumn("y", vals, nil),
	)
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func TestWhitelistDropsUnlistedOptions(t *testing.T) {
	kwds := map[string]interface{}{
		"linewidth": 4.0,
		"colormap":  "Spectral",
		"legend":    true,
	}
	got := FilterKwds("pie", kwds)
	if _, ok := got["linewidth"]; ok {
		t.Error("pie forwarded linewidth")
	}
	if got["colormap"] != "Spectral" {
		t.Errorf("colormap = %v, want Spectral", got["colormap"])
	}
	if got["legend"] != true {
		t.Error("legend was dropped")
	}
}

func TestRenderFiltersFigureKwds(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Set("kind", "pie"); err != nil {
		t.Fatalf("set kind: %v", err)
	}
	if err := cfg.Set("linewidth", 4.0); err != nil {
		t.Fatalf("set linewidth: %v", err)
	}
	if err := cfg.Set("colormap", "Spectral"); err != nil {
		t.Fatalf("set colormap: %v", err)
	}
	fig, err := testEngine().Render(numericFrame(t, 5), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, ok := fig.Kwds["linewidth"]; ok {
		t.Error("figure kwds carry linewidth for a pie")
	}
	if fig.Kwds["colormap"] != "Spectral" {
		t.Errorf("figure colormap = %v", fig.Kwds["colormap"])
	}
}

func TestConfigRejectsUnknownOption(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Set("no-such-option", 1)
	if !errors.Is(err, tabulon.ErrUserInput) {
		t.Fatalf("err = %v, want user input error", err)
	}
}

func TestConfigRejectsInadmissibleValue(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Set("kind", "starfield"); err == nil {
		t.Error("unknown kind accepted")
	}
	if err := cfg.Set("alpha", 1.5); err == nil {
		t.Error("alpha out of range accepted")
	}
	if err := cfg.Set("alpha", 0.5); err != nil {
		t.Errorf("alpha 0.5 refused: %v", err)
	}
}

func TestConfigUpdateResetsVanishedColumns(t *testing.T) {
	cfg := NewConfig()
	cfg.Update(numericFrame(t, 3))
	if err := cfg.Set("by", "x"); err != nil {
		t.Fatalf("set by: %v", err)
	}
	other, err := frame.New(frame.NewFloatColumn("z", []float64{1}, nil))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Update(other)
	if got := cfg.String("by"); got != "" {
		t.Errorf("by = %q after column vanished, want empty", got)
	}
	choices := cfg.ColumnChoices()
	if choices[0] != "" || choices[1] != "z" {
		t.Errorf("choices = %v", choices)
	}
}

func TestSetKwdsIgnoresUnknownKeys(t *testing.T) {
	cfg := NewConfig()
	cfg.SetKwds(map[string]interface{}{
		"title":            "hello",
		"option-from-2031": 42,
	})
	if got := cfg.String("title"); got != "hello" {
		t.Errorf("title = %q", got)
	}
}

func TestBarTooManyRowsWarns(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Set("kind", "bar"); err != nil {
		t.Fatal(err)
	}
	fig, err := testEngine().Render(numericFrame(t, 301), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !fig.Warned() {
		t.Error("301-row bar plot rendered without a warning")
	}
}

func TestHeatmapTooManyRowsWarns(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Set("kind", "heatmap"); err != nil {
		t.Fatal(err)
	}
	fig, err := testEngine().Render(numericFrame(t, 1001), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !fig.Warned() {
		t.Error("1001-row heatmap rendered without a warning")
	}
}

func TestNoNumericDataWarns(t *testing.T) {
	f, err := frame.New(frame.NewStringColumn("s", []string{"a", "b"}, nil))
	if err != nil {
		t.Fatal(err)
	}
	cfg := NewConfig()
	fig, rerr := testEngine().Render(f, cfg)
	if rerr != nil {
		t.Fatalf("render: %v", rerr)
	}
	if !fig.Warned() {
		t.Error("text-only frame rendered without a warning")
	}
}

func TestEmptyFrameWarns(t *testing.T) {
	cfg := NewConfig()
	fig, err := testEngine().Render(frame.Empty(), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !fig.Warned() {
		t.Error("empty frame rendered without a warning")
	}
}

func TestSingleColumnScatterWarns(t *testing.T) {
	f, err := frame.New(frame.NewFloatColumn("x", []float64{1, 2, 3}, nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"scatter", "scatter_matrix", "hexbin", "heatmap"} {
		cfg := NewConfig()
		if err := cfg.Set("kind", kind); err != nil {
			t.Fatal(err)
		}
		fig, rerr := testEngine().Render(f, cfg)
		if rerr != nil {
			t.Fatalf("%s: %v", kind, rerr)
		}
		if !fig.Warned() {
			t.Errorf("%s with one column rendered without a warning", kind)
		}
	}
}

func TestUnknownKindFails(t *testing.T) {
	cfg := NewConfig()
	cfg.values["kind"] = "starfield"
	_, err := testEngine().Render(numericFrame(t, 3), cfg)
	if !errors.Is(err, tabulon.ErrUserInput) {
		t.Fatalf("err = %v, want user input error", err)
	}
}

func TestTwinAxesNonLineWarns(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.Set("kind", "bar"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("axes_layout", "twin-axes"); err != nil {
		t.Fatal(err)
	}
	fig, err := testEngine().Render(numericFrame(t, 5), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !fig.Warned() {
		t.Error("twin-axes bar rendered without a warning")
	}
}

func TestGridShape(t *testing.T) {
	cases := []struct {
		n, rows, cols         int
		wantRows, wantCols    int
	}{
		{4, 0, 0, 2, 2},
		{5, 0, 0, 2, 3},
		{6, 2, 0, 2, 3},
		{6, 0, 2, 3, 2},
		{6, 3, 2, 3, 2},
	}
	for _, c := range cases {
		r, cl := gridShape(c.n, c.rows, c.cols)
		if r != c.wantRows || cl != c.wantCols {
			t.Errorf("gridShape(%d,%d,%d) = (%d,%d), want (%d,%d)",
				c.n, c.rows, c.cols, r, cl, c.wantRows, c.wantCols)
		}
	}
}

func TestLineRenderProducesPNG(t *testing.T) {
	cfg := NewConfig()
	fig, err := testEngine().Render(numericFrame(t, 20), cfg)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if fig.Warned() {
		t.Fatalf("unexpected warning %q", fig.Warning)
	}
	if len(fig.PNG) == 0 {
		t.Error("empty image")
	}
}

func TestGroupedLayoutRenders(t *testing.T) {
	f, err := frame.New(
		frame.NewStringColumn("g", []string{"a", "a", "b", "b"}, nil),
		frame.NewFloatColumn("x", []float64{1, 2, 3, 4}, nil),
		frame.NewFloatColumn("y", []float64{2, 4, 6, 8}, nil),
	)
	if err != nil {
		t.Fatal(err)
	}
	cfg := NewConfig()
	cfg.Update(f)
	if err := cfg.Set("axes_layout", "multiple"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("by", "g"); err != nil {
		t.Fatal(err)
	}
	fig, rerr := testEngine().Render(f, cfg)
	if rerr != nil {
		t.Fatalf("render: %v", rerr)
	}
	if fig.Warned() {
		t.Fatalf("unexpected warning %q", fig.Warning)
	}
	if len(fig.PNG) == 0 {
		t.Error("empty image")
	}
}

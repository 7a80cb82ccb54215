package transform

import (
	"fmt"
	"math"
	"sort"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// WindowOptions configures the windowed transform (rolling, expanding
// or shift) over the target columns.
type WindowOptions struct {
	// Columns are the target columns.
	Columns []string
	// Operation is "rolling", "expanding" or "shift".
	Operation string
	// Function is the window statistic: sum, mean, std, max, min, sem,
	// var or quantile.
	Function string
	// Window is the rolling window length.
	Window int
	// Periods is the shift distance (may be negative).
	Periods int
	// Quantile is the quantile in [0,1] for Function=="quantile".
	Quantile float64
	// Center aligns the rolling window on the current row.
	Center bool
	// Inplace overwrites the target columns instead of adding new ones.
	Inplace bool
}

var windowFuncs = map[string]func(vals []float64) float64{
	"sum":  sum,
	"mean": mean,
	"std":  std,
	"max":  maxOf,
	"min":  minOf,
	"var": func(vals []float64) float64 {
		s := std(vals)
		return s * s
	},
	"sem": func(vals []float64) float64 {
		if len(vals) < 2 {
			return math.NaN()
		}
		return std(vals) / math.Sqrt(float64(len(vals)))
	},
}

// Window computes a windowed statistic per target column, producing a
// new suffixed column or overwriting in place.
func Window(f *frame.Frame, opts WindowOptions) (*frame.Frame, error) {
	out := f.Copy()
	for _, name := range opts.Columns {
		c, ok := out.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		var result frame.Column
		var err error
		switch opts.Operation {
		case "shift":
			result = shiftColumn(c, opts.Periods)
		case "rolling", "expanding":
			result, err = windowColumn(c, opts)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown window operation %q", opts.Operation)
		}
		if opts.Inplace {
			result.Name = name
			*c = result
		} else {
			result.Name = fmt.Sprintf("%s_%s", name, opts.Operation)
			out.AddColumn(result)
		}
	}
	return out, nil
}

func shiftColumn(c *frame.Column, periods int) frame.Column {
	n := c.Len()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i - periods
	}
	return c.Take(rows)
}

func windowColumn(c *frame.Column, opts WindowOptions) (frame.Column, error) {
	var fn func([]float64) float64
	if opts.Function == "quantile" {
		q := opts.Quantile
		fn = func(vals []float64) float64 { return quantile(vals, q) }
	} else if f, ok := windowFuncs[opts.Function]; ok {
		fn = f
	} else {
		return frame.Column{}, fmt.Errorf("unknown window function %q", opts.Function)
	}

	w := opts.Window
	if opts.Operation == "rolling" && w < 1 {
		return frame.Column{}, fmt.Errorf("rolling window must be positive")
	}

	n := c.Len()
	vals := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		lo, hi := 0, i+1
		if opts.Operation == "rolling" {
			if opts.Center {
				lo = i - w/2
				hi = lo + w
			} else {
				lo = i - w + 1
			}
			if lo < 0 || hi > n {
				continue
			}
		}
		var window []float64
		for k := lo; k < hi; k++ {
			if v, ok := c.Float(k); ok {
				window = append(window, v)
			}
		}
		if opts.Operation == "rolling" && len(window) < w {
			continue
		}
		if len(window) == 0 {
			continue
		}
		v := fn(window)
		if !math.IsNaN(v) {
			vals[i] = v
			valid[i] = true
		}
	}
	return frame.NewFloatColumn(c.Name, vals, valid), nil
}

// quantile interpolates linearly between order statistics, matching the
// usual definition over sorted values.
func quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	if q <= 0 {
		return s[0]
	}
	if q >= 1 {
		return s[len(s)-1]
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(s) {
		return s[lo]
	}
	return s[lo]*(1-frac) + s[lo+1]*frac
}

func windowEntry() Transform {
	return Transform{
		Name: "transform",
		Params: []ParamSpec{
			{Name: "columns", Kind: KindColumns},
			{Name: "operation", Kind: KindChoice, Choices: []string{"rolling", "expanding", "shift"}, Default: "rolling"},
			{Name: "function", Kind: KindChoice, Choices: []string{"sum", "mean", "std", "max", "min", "sem", "var", "quantile"}, Default: "mean"},
			{Name: "window", Kind: KindInt, Default: 3},
			{Name: "periods", Kind: KindInt, Default: 1},
			{Name: "quantile", Kind: KindFloat, Default: 0.5},
			{Name: "center", Kind: KindBool, Default: false},
			{Name: "inplace", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Window(f, WindowOptions{
				Columns:   p.Strings("columns"),
				Operation: p.String("operation", "rolling"),
				Function:  p.String("function", "mean"),
				Window:    p.Int("window", 3),
				Periods:   p.Int("periods", 1),
				Quantile:  p.Float("quantile", 0.5),
				Center:    p.Bool("center", false),
				Inplace:   p.Bool("inplace", false),
			})
		},
	}
}

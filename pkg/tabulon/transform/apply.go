package transform

import (
	"fmt"
	"math"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// ApplyOptions configures apply-column-function.
type ApplyOptions struct {
	// Columns are the target columns, in selection order.
	Columns []string
	// Function names the operation; see scalarFuncs, unaryFuncs and
	// reduceFuncs plus the "diff" special case.
	Function string
	// Arg is the scalar operand for scalar arithmetic functions.
	Arg float64
	// GroupBy computes per-group results broadcast over the group's
	// rows; single target column only.
	GroupBy string
	// Inplace overwrites the target columns instead of adding new ones.
	Inplace bool
	// NewName names the result column; empty derives "<col>_<func>".
	NewName string
}

// scalar arithmetic: value op arg.
var scalarFuncs = map[string]func(v, arg float64) float64{
	"divide":   func(v, a float64) float64 { return v / a },
	"multiply": func(v, a float64) float64 { return v * a },
	"mod":      math.Mod,
	"add":      func(v, a float64) float64 { return v + a },
	"power":    math.Pow,
	"round": func(v, a float64) float64 {
		scale := math.Pow10(int(a))
		return math.Round(v*scale) / scale
	},
}

// elementwise unary math.
var unaryFuncs = map[string]func(v float64) float64{
	"floor":    math.Floor,
	"ceil":     math.Ceil,
	"trunc":    math.Trunc,
	"log":      math.Log,
	"exp":      math.Exp,
	"log10":    math.Log10,
	"log2":     math.Log2,
	"negative": func(v float64) float64 { return -v },
	"sign": func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	},
	"sin":     math.Sin,
	"cos":     math.Cos,
	"tan":     math.Tan,
	"degrees": func(v float64) float64 { return v * 180 / math.Pi },
	"radians": func(v float64) float64 { return v * math.Pi / 180 },
}

// reductions over a value set.
var reduceFuncs = map[string]func(vals []float64) float64{
	"sum":  sum,
	"mean": mean,
	"std":  std,
	"max":  maxOf,
	"min":  minOf,
}

// ApplyFunction runs a named function over the target columns. Scalar
// and unary functions map elementwise per column; reductions over
// multiple columns apply row-wise producing one column; reductions over
// a single column (optionally grouped) broadcast the aggregate.
func ApplyFunction(f *frame.Frame, opts ApplyOptions) (*frame.Frame, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("no target columns")
	}
	out := f.Copy()

	if _, ok := reduceFuncs[opts.Function]; ok && len(opts.Columns) > 1 {
		return applyRowWise(out, opts)
	}

	switch {
	case opts.Function == "diff":
		return applyDiff(out, opts)
	case scalarFuncs[opts.Function] != nil:
		return applyElementwise(out, opts, func(v float64) float64 { return scalarFuncs[opts.Function](v, opts.Arg) })
	case unaryFuncs[opts.Function] != nil:
		return applyElementwise(out, opts, unaryFuncs[opts.Function])
	case reduceFuncs[opts.Function] != nil:
		return applyGrouped(out, opts)
	}
	return nil, fmt.Errorf("unknown function %q", opts.Function)
}

func applyElementwise(f *frame.Frame, opts ApplyOptions, fn func(float64) float64) (*frame.Frame, error) {
	for _, name := range opts.Columns {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		n := c.Len()
		vals := make([]float64, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if v, ok := c.Float(i); ok {
				vals[i] = fn(v)
				valid[i] = true
			}
		}
		installResult(f, c, opts, frame.NewFloatColumn(resultName(name, opts), vals, valid))
	}
	return f, nil
}

func applyRowWise(f *frame.Frame, opts ApplyOptions) (*frame.Frame, error) {
	fn := reduceFuncs[opts.Function]
	cols := make([]*frame.Column, 0, len(opts.Columns))
	for _, name := range opts.Columns {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		cols = append(cols, c)
	}
	n := f.NumRows()
	vals := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		var row []float64
		for _, c := range cols {
			if v, ok := c.Float(i); ok {
				row = append(row, v)
			}
		}
		if len(row) > 0 {
			vals[i] = fn(row)
			valid[i] = true
		}
	}
	name := opts.NewName
	if name == "" {
		name = opts.Function
	}
	f.AddColumn(frame.NewFloatColumn(name, vals, valid))
	return f, nil
}

func applyGrouped(f *frame.Frame, opts ApplyOptions) (*frame.Frame, error) {
	fn := reduceFuncs[opts.Function]
	name := opts.Columns[0]
	c, ok := f.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	n := c.Len()
	vals := make([]float64, n)
	valid := make([]bool, n)

	for _, rows := range groupRows(f, opts.GroupBy) {
		var group []float64
		for _, i := range rows {
			if v, ok := c.Float(i); ok {
				group = append(group, v)
			}
		}
		if len(group) == 0 {
			continue
		}
		agg := fn(group)
		for _, i := range rows {
			vals[i] = agg
			valid[i] = true
		}
	}
	installResult(f, c, opts, frame.NewFloatColumn(resultName(name, opts), vals, valid))
	return f, nil
}

func applyDiff(f *frame.Frame, opts ApplyOptions) (*frame.Frame, error) {
	for _, name := range opts.Columns {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		n := c.Len()
		vals := make([]float64, n)
		valid := make([]bool, n)
		for _, rows := range groupRows(f, opts.GroupBy) {
			for k := 1; k < len(rows); k++ {
				cur, ok1 := c.Float(rows[k])
				prev, ok2 := c.Float(rows[k-1])
				if ok1 && ok2 {
					vals[rows[k]] = cur - prev
					valid[rows[k]] = true
				}
			}
		}
		installResult(f, c, opts, frame.NewFloatColumn(resultName(name, opts), vals, valid))
	}
	return f, nil
}

// groupRows partitions row positions by the values of the group column;
// an empty group name yields one group of all rows. Group iteration
// preserves first-seen order.
func groupRows(f *frame.Frame, groupBy string) [][]int {
	n := f.NumRows()
	if groupBy == "" {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return [][]int{rows}
	}
	g, ok := f.ColumnByName(groupBy)
	if !ok {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return [][]int{rows}
	}
	byKey := make(map[string][]int)
	var order []string
	for i := 0; i < n; i++ {
		k := g.String(i)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], i)
	}
	out := make([][]int, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}

func resultName(col string, opts ApplyOptions) string {
	if opts.Inplace {
		return col
	}
	if opts.NewName != "" {
		return opts.NewName
	}
	return col + "_" + opts.Function
}

func installResult(f *frame.Frame, target *frame.Column, opts ApplyOptions, result frame.Column) {
	if opts.Inplace {
		*target = result
		return
	}
	f.AddColumn(result)
}

func sum(vals []float64) float64 {
	var t float64
	for _, v := range vals {
		t += v
	}
	return t
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return sum(vals) / float64(len(vals))
}

func std(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return math.NaN()
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(n-1))
}

func maxOf(vals []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := math.Inf(1)
	for _, v := range vals {
		if v < m {
			m = v
		}
	}
	return m
}

func applyFunctionEntry() Transform {
	return Transform{
		Name: "apply-column-function",
		Params: []ParamSpec{
			{Name: "columns", Kind: KindColumns},
			{Name: "function", Kind: KindChoice, Choices: []string{
				"divide", "multiply", "mod", "add", "round", "floor", "ceil", "trunc",
				"power", "log", "exp", "log10", "log2", "negative", "sign", "diff",
				"sin", "cos", "tan", "degrees", "radians", "mean", "std", "max", "min", "sum",
			}, Default: "round"},
			{Name: "arg", Kind: KindFloat, Default: 1.0},
			{Name: "groupby", Kind: KindString, Default: ""},
			{Name: "inplace", Kind: KindBool, Default: false},
			{Name: "newname", Kind: KindString, Default: ""},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ApplyFunction(f, ApplyOptions{
				Columns:  p.Strings("columns"),
				Function: p.String("function", "round"),
				Arg:      p.Float("arg", 1),
				GroupBy:  p.String("groupby", ""),
				Inplace:  p.Bool("inplace", false),
				NewName:  p.String("newname", ""),
			})
		},
	}
}

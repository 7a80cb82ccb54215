package transform

import (
	"fmt"
	"strconv"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// Transpose swaps rows and columns. Column names become the first
// column of the result and row labels become column names. Values are
// rendered as strings because a transposed row rarely keeps one dtype.
func Transpose(f *frame.Frame) (*frame.Frame, error) {
	names := f.Names()
	nameValid := make([]bool, len(names))
	for i := range nameValid {
		nameValid[i] = true
	}
	out := frame.Empty()
	if err := out.AddColumn(frame.NewStringColumn("index", names, nameValid)); err != nil {
		return nil, err
	}
	for r := 0; r < f.NumRows(); r++ {
		vals := make([]string, f.NumCols())
		valid := make([]bool, f.NumCols())
		for c := 0; c < f.NumCols(); c++ {
			col := f.Column(c)
			if !col.IsNA(r) {
				vals[c] = col.String(r)
				valid[c] = true
			}
		}
		name := f.IndexLabel(r)
		if name == "" {
			name = strconv.Itoa(r)
		}
		if err := out.AddColumn(frame.NewStringColumn(name, vals, valid)); err != nil {
			return nil, err
		}
	}
	out.DedupNames()
	return out, nil
}

// PivotOptions configures pivot.
type PivotOptions struct {
	Index   []string
	Columns string
	Values  []string
	AggFunc string
}

// Pivot spreads the values of one column across new columns keyed by
// another. One output row per distinct index key, one output column per
// distinct value of the columns column (the leaf level when several
// value columns are pivoted at once).
func Pivot(f *frame.Frame, opts PivotOptions) (*frame.Frame, error) {
	colCol, ok := f.ColumnByName(opts.Columns)
	if !ok {
		return nil, fmt.Errorf("no column %q", opts.Columns)
	}
	if len(opts.Index) == 0 {
		return nil, fmt.Errorf("pivot needs at least one index column")
	}
	for _, name := range opts.Index {
		if _, ok := f.ColumnByName(name); !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
	}

	keys := rowKeys(f, opts.Index)
	var keyOrder []string
	keyRows := map[string][]int{}
	for i, k := range keys {
		if _, seen := keyRows[k]; !seen {
			keyOrder = append(keyOrder, k)
		}
		keyRows[k] = append(keyRows[k], i)
	}

	var colOrder []string
	colSeen := map[string]bool{}
	for i := 0; i < colCol.Len(); i++ {
		v := colCol.String(i)
		if !colSeen[v] {
			colSeen[v] = true
			colOrder = append(colOrder, v)
		}
	}

	firstRows := make([]int, len(keyOrder))
	for i, k := range keyOrder {
		firstRows[i] = keyRows[k][0]
	}
	out := frame.Empty()
	for _, name := range opts.Index {
		c, _ := f.ColumnByName(name)
		if err := out.AddColumn(c.Take(firstRows)); err != nil {
			return nil, err
		}
	}

	for _, valName := range opts.Values {
		valCol, ok := f.ColumnByName(valName)
		if !ok {
			return nil, fmt.Errorf("no column %q", valName)
		}
		for _, colVal := range colOrder {
			agg := make([]float64, len(keyOrder))
			valid := make([]bool, len(keyOrder))
			for ki, k := range keyOrder {
				var vals []float64
				for _, r := range keyRows[k] {
					if colCol.String(r) != colVal {
						continue
					}
					if v, ok := valCol.Float(r); ok {
						vals = append(vals, v)
					}
				}
				if len(vals) == 0 {
					continue
				}
				valid[ki] = true
				v, err := reduce(opts.AggFunc, vals)
				if err != nil {
					return nil, err
				}
				agg[ki] = v
			}
			if err := out.AddColumn(frame.NewFloatColumn(colVal, agg, valid)); err != nil {
				return nil, err
			}
		}
	}
	out.DedupNames()
	return out, nil
}

// AggregateOptions configures aggregate.
type AggregateOptions struct {
	GroupBy []string
	Columns []string
	// Funcs holds one function per column, or a single function applied
	// to every column.
	Funcs []string
}

// Aggregate groups rows by the group-by columns and reduces each
// aggregation column, one result column per (column, function) pair.
func Aggregate(f *frame.Frame, opts AggregateOptions) (*frame.Frame, error) {
	if len(opts.GroupBy) == 0 {
		return nil, fmt.Errorf("aggregate needs at least one group-by column")
	}
	funcs := opts.Funcs
	if len(funcs) == 1 && len(opts.Columns) > 1 {
		single := funcs[0]
		funcs = make([]string, len(opts.Columns))
		for i := range funcs {
			funcs[i] = single
		}
	}
	if len(funcs) != len(opts.Columns) {
		return nil, fmt.Errorf("got %d functions for %d columns", len(funcs), len(opts.Columns))
	}

	keys := rowKeys(f, opts.GroupBy)
	var keyOrder []string
	keyRows := map[string][]int{}
	for i, k := range keys {
		if _, seen := keyRows[k]; !seen {
			keyOrder = append(keyOrder, k)
		}
		keyRows[k] = append(keyRows[k], i)
	}
	firstRows := make([]int, len(keyOrder))
	for i, k := range keyOrder {
		firstRows[i] = keyRows[k][0]
	}

	out := frame.Empty()
	for _, name := range opts.GroupBy {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		if err := out.AddColumn(c.Take(firstRows)); err != nil {
			return nil, err
		}
	}
	for ci, name := range opts.Columns {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		agg := make([]float64, len(keyOrder))
		valid := make([]bool, len(keyOrder))
		for ki, k := range keyOrder {
			var vals []float64
			for _, r := range keyRows[k] {
				if v, ok := c.Float(r); ok {
					vals = append(vals, v)
				}
			}
			if len(vals) == 0 {
				continue
			}
			v, err := reduce(funcs[ci], vals)
			if err != nil {
				return nil, err
			}
			agg[ki] = v
			valid[ki] = true
		}
		resName := name
		if len(opts.Columns) > 1 || len(funcs) > 1 {
			resName = name + "_" + funcs[ci]
		}
		if err := out.AddColumn(frame.NewFloatColumn(resName, agg, valid)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func reduce(fn string, vals []float64) (float64, error) {
	switch fn {
	case "sum":
		return sum(vals), nil
	case "mean":
		return mean(vals), nil
	case "count":
		return float64(len(vals)), nil
	case "max":
		return maxOf(vals), nil
	case "min":
		return minOf(vals), nil
	case "std":
		return std(vals), nil
	}
	return 0, fmt.Errorf("unknown aggregation %q", fn)
}

// MeltOptions configures melt.
type MeltOptions struct {
	IDVars    []string
	ValueVars []string
	VarName   string
}

// Melt unpivots value columns into long form: the id columns repeat
// once per value column, with a variable-name column and a value
// column alongside.
func Melt(f *frame.Frame, opts MeltOptions) (*frame.Frame, error) {
	if len(opts.ValueVars) == 0 {
		idSet := columnSet(opts.IDVars)
		for _, name := range f.Names() {
			if !idSet[name] {
				opts.ValueVars = append(opts.ValueVars, name)
			}
		}
	}
	varName := opts.VarName
	if varName == "" {
		varName = "variable"
	}
	n := f.NumRows()
	total := n * len(opts.ValueVars)

	repeat := make([]int, 0, total)
	for range opts.ValueVars {
		for i := 0; i < n; i++ {
			repeat = append(repeat, i)
		}
	}

	out := frame.Empty()
	for _, name := range opts.IDVars {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		if err := out.AddColumn(c.Take(repeat)); err != nil {
			return nil, err
		}
	}

	vars := make([]string, 0, total)
	for _, name := range opts.ValueVars {
		for i := 0; i < n; i++ {
			vars = append(vars, name)
		}
	}
	varValid := make([]bool, total)
	for i := range varValid {
		varValid[i] = true
	}
	if err := out.AddColumn(frame.NewStringColumn(varName, vars, varValid)); err != nil {
		return nil, err
	}

	numeric := true
	for _, name := range opts.ValueVars {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		switch c.DType() {
		case frame.Int, frame.Float, frame.Bool:
		default:
			numeric = false
		}
	}
	if numeric {
		vals := make([]float64, 0, total)
		valid := make([]bool, 0, total)
		for _, name := range opts.ValueVars {
			c, _ := f.ColumnByName(name)
			for i := 0; i < n; i++ {
				v, ok := c.Float(i)
				vals = append(vals, v)
				valid = append(valid, ok)
			}
		}
		if err := out.AddColumn(frame.NewFloatColumn("value", vals, valid)); err != nil {
			return nil, err
		}
	} else {
		vals := make([]string, 0, total)
		valid := make([]bool, 0, total)
		for _, name := range opts.ValueVars {
			c, _ := f.ColumnByName(name)
			for i := 0; i < n; i++ {
				vals = append(vals, c.String(i))
				valid = append(valid, !c.IsNA(i))
			}
		}
		if err := out.AddColumn(frame.NewStringColumn("value", vals, valid)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func transposeEntry() Transform {
	return Transform{
		Name:   "transpose",
		Params: nil,
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Transpose(f)
		},
	}
}

func pivotEntry() Transform {
	return Transform{
		Name: "pivot",
		Params: []ParamSpec{
			{Name: "index", Kind: KindColumns},
			{Name: "columns", Kind: KindString, Default: ""},
			{Name: "values", Kind: KindColumns},
			{Name: "aggfunc", Kind: KindChoice, Choices: []string{
				"sum", "mean", "count", "max", "min", "std",
			}, Default: "mean"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Pivot(f, PivotOptions{
				Index:   p.Strings("index"),
				Columns: p.String("columns", ""),
				Values:  p.Strings("values"),
				AggFunc: p.String("aggfunc", "mean"),
			})
		},
	}
}

func aggregateEntry() Transform {
	return Transform{
		Name: "aggregate",
		Params: []ParamSpec{
			{Name: "groupby", Kind: KindColumns},
			{Name: "columns", Kind: KindColumns},
			{Name: "funcs", Kind: KindColumns},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Aggregate(f, AggregateOptions{
				GroupBy: p.Strings("groupby"),
				Columns: p.Strings("columns"),
				Funcs:   p.Strings("funcs"),
			})
		},
	}
}

func meltEntry() Transform {
	return Transform{
		Name: "melt",
		Params: []ParamSpec{
			{Name: "id-vars", Kind: KindColumns},
			{Name: "value-vars", Kind: KindColumns},
			{Name: "var-name", Kind: KindString, Default: "variable"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Melt(f, MeltOptions{
				IDVars:    p.Strings("id-vars"),
				ValueVars: p.Strings("value-vars"),
				VarName:   p.String("var-name", "variable"),
			})
		},
	}
}

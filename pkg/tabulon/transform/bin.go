package transform

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// BinOptions configures bin.
type BinOptions struct {
	Column string
	// Bins is the number of equal-width bins when Edges is empty.
	Bins int
	// Edges lists explicit bin boundaries, ascending.
	Edges []float64
	// Labels names the bins; generated from the edges when empty.
	Labels []string
	// Inplace replaces the source column instead of adding one.
	Inplace bool
}

// Bin cuts a numeric column into labelled categories. Values outside
// every bin, and missing values, stay missing.
func Bin(f *frame.Frame, opts BinOptions) (*frame.Frame, error) {
	out := f.Copy()
	c, ok := out.ColumnByName(opts.Column)
	if !ok {
		return nil, fmt.Errorf("no column %q", opts.Column)
	}

	edges := opts.Edges
	if len(edges) == 0 {
		if opts.Bins < 1 {
			return nil, fmt.Errorf("bin count must be positive")
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
		if lo > hi {
			return nil, fmt.Errorf("column %q has no numeric values", opts.Column)
		}
		if lo == hi {
			// widen a degenerate range the way pandas cut does
			lo -= 0.001
			hi += 0.001
		}
		step := (hi - lo) / float64(opts.Bins)
		for i := 0; i <= opts.Bins; i++ {
			edges = append(edges, lo+step*float64(i))
		}
	}
	if len(edges) < 2 {
		return nil, fmt.Errorf("need at least two bin edges")
	}

	labels := opts.Labels
	if len(labels) == 0 {
		for i := 0; i+1 < len(edges); i++ {
			labels = append(labels, "("+formatEdge(edges[i])+", "+formatEdge(edges[i+1])+"]")
		}
	}
	if len(labels) != len(edges)-1 {
		return nil, fmt.Errorf("got %d labels for %d bins", len(labels), len(edges)-1)
	}

	n := c.Len()
	vals := make([]string, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		for b := 0; b+1 < len(edges); b++ {
			lo, hi := edges[b], edges[b+1]
			// first bin is closed on the left
			if (v > lo || (b == 0 && v == lo)) && v <= hi {
				vals[i] = labels[b]
				valid[i] = true
				break
			}
		}
	}

	name := opts.Column + "_bin"
	if opts.Inplace {
		name = opts.Column
	}
	col := frame.NewCategoricalColumn(name, vals, labels, valid)
	if opts.Inplace {
		*c = col
		return out, nil
	}
	if err := out.AddColumn(col); err != nil {
		return nil, err
	}
	return out, nil
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func binEntry() Transform {
	return Transform{
		Name: "bin",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "bins", Kind: KindInt, Default: 10},
			{Name: "labels", Kind: KindColumns},
			{Name: "inplace", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Bin(f, BinOptions{
				Column:  p.String("column", ""),
				Bins:    p.Int("bins", 10),
				Labels:  p.Strings("labels"),
				Inplace: p.Bool("inplace", false),
			})
		},
	}
}

package transform

import (
	"math"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// FillMethod selects how missing values are filled.
type FillMethod string

const (
	// FillNone leaves missing values alone.
	FillNone FillMethod = "none"
	// FillScalar writes the fill symbol into every missing cell.
	FillScalar FillMethod = "scalar"
	// FillForward propagates the last valid value forward.
	FillForward FillMethod = "ffill"
	// FillBackward propagates the next valid value backward.
	FillBackward FillMethod = "bfill"
	// FillInterpolate linearly interpolates numeric gaps.
	FillInterpolate FillMethod = "interpolate"
)

// CleanOptions configures the clean transform. Steps run in a fixed
// order: replace, symbol fill, drop columns, drop rows, method fill,
// dedup rows, dedup columns, round.
type CleanOptions struct {
	// ReplaceValue and ReplaceWith substitute one cell value for another
	// across the frame. Empty ReplaceValue disables the step.
	ReplaceValue string
	ReplaceWith  string
	// FillSymbol is the scalar written by FillScalar.
	FillSymbol string
	// Method selects the missing-value fill strategy.
	Method FillMethod
	// DropColumns removes columns with missing values per DropColHow.
	DropColumns bool
	DropColHow  string // "any" or "all"
	// DropRows removes rows with missing values per DropRowHow.
	DropRows   bool
	DropRowHow string // "any" or "all"
	// DedupRows drops duplicate rows, keeping the first.
	DedupRows bool
	// DedupCols drops columns whose contents duplicate an earlier one.
	DedupCols bool
	// RoundDecimals rounds float columns; negative disables.
	RoundDecimals int
}

// DefaultCleanOptions returns the stock clean configuration.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{Method: FillNone, DropColHow: "all", DropRowHow: "all", RoundDecimals: -1}
}

// Clean applies the cleaning pipeline and returns a new frame.
func Clean(f *frame.Frame, opts CleanOptions) (*frame.Frame, error) {
	out := f.Copy()

	if opts.ReplaceValue != "" {
		replaceEverywhere(out, opts.ReplaceValue, opts.ReplaceWith)
	}
	if opts.Method == FillScalar || (opts.FillSymbol != "" && opts.Method == FillNone) {
		fillScalar(out, opts.FillSymbol)
	}
	if opts.DropColumns {
		dropMissingColumns(out, opts.DropColHow)
	}
	if opts.DropRows {
		out = dropMissingRows(out, opts.DropRowHow)
	}
	switch opts.Method {
	case FillForward:
		fillDirectional(out, true)
	case FillBackward:
		fillDirectional(out, false)
	case FillInterpolate:
		interpolate(out)
	}
	if opts.DedupRows {
		out = dropDuplicateRows(out, nil, "first")
	}
	if opts.DedupCols {
		dropDuplicateColumns(out)
	}
	if opts.RoundDecimals >= 0 {
		roundFloats(out, opts.RoundDecimals)
	}
	return out, nil
}

func cleanEntry() Transform {
	return Transform{
		Name: "clean",
		Params: []ParamSpec{
			{Name: "replace", Kind: KindString, Default: ""},
			{Name: "with", Kind: KindString, Default: ""},
			{Name: "symbol", Kind: KindString, Default: ""},
			{Name: "method", Kind: KindChoice, Choices: []string{"none", "scalar", "ffill", "bfill", "interpolate"}, Default: "none"},
			{Name: "dropcols", Kind: KindBool, Default: false},
			{Name: "dropcolhow", Kind: KindChoice, Choices: []string{"any", "all"}, Default: "all"},
			{Name: "droprows", Kind: KindBool, Default: false},
			{Name: "droprowhow", Kind: KindChoice, Choices: []string{"any", "all"}, Default: "all"},
			{Name: "deduprows", Kind: KindBool, Default: false},
			{Name: "dedupcols", Kind: KindBool, Default: false},
			{Name: "round", Kind: KindInt, Default: -1},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Clean(f, CleanOptions{
				ReplaceValue:  p.String("replace", ""),
				ReplaceWith:   p.String("with", ""),
				FillSymbol:    p.String("symbol", ""),
				Method:        FillMethod(p.String("method", "none")),
				DropColumns:   p.Bool("dropcols", false),
				DropColHow:    p.String("dropcolhow", "all"),
				DropRows:      p.Bool("droprows", false),
				DropRowHow:    p.String("droprowhow", "all"),
				DedupRows:     p.Bool("deduprows", false),
				DedupCols:     p.Bool("dedupcols", false),
				RoundDecimals: p.Int("round", -1),
			})
		},
	}
}

func replaceEverywhere(f *frame.Frame, from, to string) {
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		for i := 0; i < c.Len(); i++ {
			if !c.IsNA(i) && c.String(i) == from {
				if to == "" {
					c.SetNA(i)
				} else {
					c.Set(i, to)
				}
			}
		}
	}
}

// fillScalar fills missing cells and empty string cells with the symbol.
func fillScalar(f *frame.Frame, symbol string) {
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		for i := 0; i < c.Len(); i++ {
			if c.IsNA(i) || (c.DType() == frame.String && c.String(i) == "") {
				setParsed(c, i, symbol)
			}
		}
	}
}

// setParsed writes a string symbol into a cell, converting to the
// column dtype where it parses.
func setParsed(c *frame.Column, i int, symbol string) {
	switch c.DType() {
	case frame.Int, frame.Float:
		if v, ok := frame.ParseNumber(symbol, frame.CoerceOptions{}); ok {
			c.Set(i, v)
			return
		}
		c.SetNA(i)
	case frame.Time:
		if t, ok := frame.ParseTime(symbol, ""); ok {
			c.Set(i, t)
			return
		}
		c.SetNA(i)
	default:
		c.Set(i, symbol)
	}
}

func dropMissingColumns(f *frame.Frame, how string) {
	var drop []int
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		missing := 0
		for i := 0; i < c.Len(); i++ {
			if c.IsNA(i) {
				missing++
			}
		}
		if (how == "any" && missing > 0) || (how != "any" && missing == c.Len() && c.Len() > 0) {
			drop = append(drop, j)
		}
	}
	f.RemoveColumns(drop...)
}

func dropMissingRows(f *frame.Frame, how string) *frame.Frame {
	n := f.NumRows()
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		missing := 0
		for j := 0; j < f.NumCols(); j++ {
			if f.Column(j).IsNA(i) {
				missing++
			}
		}
		if how == "any" {
			mask[i] = missing == 0
		} else {
			mask[i] = missing < f.NumCols() || f.NumCols() == 0
		}
	}
	return f.Filter(mask)
}

func fillDirectional(f *frame.Frame, forward bool) {
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		n := c.Len()
		if forward {
			last := -1
			for i := 0; i < n; i++ {
				if !c.IsNA(i) {
					last = i
				} else if last >= 0 {
					c.Set(i, c.Value(last))
				}
			}
		} else {
			next := -1
			for i := n - 1; i >= 0; i-- {
				if !c.IsNA(i) {
					next = i
				} else if next >= 0 {
					c.Set(i, c.Value(next))
				}
			}
		}
	}
}

// interpolate fills numeric gaps linearly between the surrounding valid
// values. Leading and trailing gaps stay missing.
func interpolate(f *frame.Frame) {
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		if c.DType() != frame.Float && c.DType() != frame.Int {
			continue
		}
		n := c.Len()
		prev := -1
		for i := 0; i < n; i++ {
			if !c.IsNA(i) {
				if prev >= 0 && i-prev > 1 {
					lo, _ := c.Float(prev)
					hi, _ := c.Float(i)
					step := (hi - lo) / float64(i-prev)
					for k := prev + 1; k < i; k++ {
						c.Set(k, lo+step*float64(k-prev))
					}
				}
				prev = i
			}
		}
	}
}

func dropDuplicateRows(f *frame.Frame, subset []string, keep string) *frame.Frame {
	keys := rowKeys(f, subset)
	seenFirst := make(map[string]int)
	lastIdx := make(map[string]int)
	for i, k := range keys {
		if _, ok := seenFirst[k]; !ok {
			seenFirst[k] = i
		}
		lastIdx[k] = i
	}
	mask := make([]bool, len(keys))
	for i, k := range keys {
		if keep == "last" {
			mask[i] = lastIdx[k] == i
		} else {
			mask[i] = seenFirst[k] == i
		}
	}
	return f.Filter(mask)
}

func dropDuplicateColumns(f *frame.Frame) {
	var drop []int
	for j := 0; j < f.NumCols(); j++ {
		for k := 0; k < j; k++ {
			a, b := f.Column(j).Copy(), f.Column(k).Copy()
			a.Name, b.Name = "", ""
			if a.Equal(&b) {
				drop = append(drop, j)
				break
			}
		}
	}
	f.RemoveColumns(drop...)
}

func roundFloats(f *frame.Frame, decimals int) {
	scale := math.Pow10(decimals)
	for j := 0; j < f.NumCols(); j++ {
		c := f.Column(j)
		if c.DType() != frame.Float {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				c.Set(i, math.Round(v*scale)/scale)
			}
		}
	}
}

// rowKeys renders each row (restricted to subset when non-empty) as a
// composite string key for duplicate detection.
func rowKeys(f *frame.Frame, subset []string) []string {
	cols := make([]*frame.Column, 0, f.NumCols())
	if len(subset) > 0 {
		for _, name := range subset {
			if c, ok := f.ColumnByName(name); ok {
				cols = append(cols, c)
			}
		}
	} else {
		for j := 0; j < f.NumCols(); j++ {
			cols = append(cols, f.Column(j))
		}
	}
	keys := make([]string, f.NumRows())
	for i := range keys {
		k := ""
		for _, c := range cols {
			if c.IsNA(i) {
				k += "\x00NA"
			} else {
				k += "\x00" + c.String(i)
			}
		}
		keys[i] = k
	}
	return keys
}

package transform

import (
	"fmt"
	"strings"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// StringOptions configures apply-string.
type StringOptions struct {
	// Column is the target column.
	Column string
	// Function is one of split, strip, lstrip, lower, upper, title,
	// swapcase, len, slice, replace, concat.
	Function string
	// Sep is the separator for split and concat.
	Sep string
	// Start and End bound slice.
	Start, End int
	// Pattern and Repl drive replace.
	Pattern, Repl string
	// Other names the second column for concat.
	Other string
	// Inplace overwrites the target column instead of adding new ones.
	Inplace bool
}

// ApplyString runs a string function over a column. Split produces one
// suffixed column per part; every other function produces one column.
func ApplyString(f *frame.Frame, opts StringOptions) (*frame.Frame, error) {
	out := f.Copy()
	c, ok := out.ColumnByName(opts.Column)
	if !ok {
		return nil, fmt.Errorf("no column %q", opts.Column)
	}
	n := c.Len()

	if opts.Function == "split" {
		sep := opts.Sep
		if sep == "" {
			sep = " "
		}
		parts := make([][]string, n)
		width := 0
		for i := 0; i < n; i++ {
			if !c.IsNA(i) {
				parts[i] = strings.Split(c.String(i), sep)
				if len(parts[i]) > width {
					width = len(parts[i])
				}
			}
		}
		pos := out.ColumnIndex(opts.Column)
		for k := 0; k < width; k++ {
			vals := make([]string, n)
			valid := make([]bool, n)
			for i := 0; i < n; i++ {
				if k < len(parts[i]) {
					vals[i] = parts[i][k]
					valid[i] = true
				}
			}
			col := frame.NewStringColumn(fmt.Sprintf("%s_%d", opts.Column, k), vals, valid)
			if err := out.InsertColumn(pos+1+k, col); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	if opts.Function == "len" {
		vals := make([]int64, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if !c.IsNA(i) {
				vals[i] = int64(len([]rune(c.String(i))))
				valid[i] = true
			}
		}
		return installStringResult(out, c, opts, frame.NewIntColumn(stringResultName(opts), vals, valid))
	}

	var other *frame.Column
	if opts.Function == "concat" {
		oc, ok := out.ColumnByName(opts.Other)
		if !ok {
			return nil, fmt.Errorf("no column %q", opts.Other)
		}
		other = oc
	}

	vals := make([]string, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if c.IsNA(i) {
			continue
		}
		s := c.String(i)
		switch opts.Function {
		case "strip":
			s = strings.TrimSpace(s)
		case "lstrip":
			s = strings.TrimLeft(s, " \t\n")
		case "lower":
			s = strings.ToLower(s)
		case "upper":
			s = strings.ToUpper(s)
		case "title":
			s = titleCase(s)
		case "swapcase":
			s = swapCase(s)
		case "slice":
			s = sliceString(s, opts.Start, opts.End)
		case "replace":
			s = strings.ReplaceAll(s, opts.Pattern, opts.Repl)
		case "concat":
			s = s + opts.Sep + other.String(i)
		default:
			return nil, fmt.Errorf("unknown string function %q", opts.Function)
		}
		vals[i] = s
		valid[i] = true
	}
	return installStringResult(out, c, opts, frame.NewStringColumn(stringResultName(opts), vals, valid))
}

func installStringResult(f *frame.Frame, target *frame.Column, opts StringOptions, result frame.Column) (*frame.Frame, error) {
	if opts.Inplace {
		result.Name = opts.Column
		*target = result
		return f, nil
	}
	if err := f.AddColumn(result); err != nil {
		return nil, err
	}
	return f, nil
}

func stringResultName(opts StringOptions) string {
	if opts.Inplace {
		return opts.Column
	}
	return opts.Column + "_" + opts.Function
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}

func sliceString(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

func applyStringEntry() Transform {
	return Transform{
		Name: "apply-string",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "function", Kind: KindChoice, Choices: []string{
				"split", "strip", "lstrip", "lower", "upper", "title", "swapcase",
				"len", "slice", "replace", "concat",
			}, Default: "lower"},
			{Name: "sep", Kind: KindString, Default: ""},
			{Name: "start", Kind: KindInt, Default: 0},
			{Name: "end", Kind: KindInt, Default: 0},
			{Name: "pattern", Kind: KindString, Default: ""},
			{Name: "repl", Kind: KindString, Default: ""},
			{Name: "other", Kind: KindString, Default: ""},
			{Name: "inplace", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ApplyString(f, StringOptions{
				Column:   p.String("column", ""),
				Function: p.String("function", "lower"),
				Sep:      p.String("sep", ""),
				Start:    p.Int("start", 0),
				End:      p.Int("end", 0),
				Pattern:  p.String("pattern", ""),
				Repl:     p.String("repl", ""),
				Other:    p.String("other", ""),
				Inplace:  p.Bool("inplace", false),
			})
		},
	}
}

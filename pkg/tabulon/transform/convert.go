package transform

import (
	"fmt"
	"strings"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// NumericOptions configures the convert-numeric transform.
type NumericOptions struct {
	// Target is "int" or "float".
	Target string
	// StripCurrency removes currency symbols and thousands separators.
	StripCurrency bool
	// StripText removes any remaining non-numeric characters.
	StripText bool
	// FillEmpty writes zero into cells that end up empty.
	FillEmpty bool
	// Columns restricts conversion to the named columns; empty converts
	// every column.
	Columns []string
}

// ConvertNumeric coerces columns to a numeric dtype with errors=coerce
// semantics: unparseable cells become missing (or zero with FillEmpty).
func ConvertNumeric(f *frame.Frame, opts NumericOptions) (*frame.Frame, error) {
	if opts.Target != "int" && opts.Target != "float" {
		return nil, fmt.Errorf("unknown numeric target %q", opts.Target)
	}
	co := frame.CoerceOptions{
		StripCurrency: opts.StripCurrency,
		StripText:     opts.StripText,
		FillEmpty:     opts.FillEmpty,
	}
	out := f.Copy()
	targets := columnPositions(out, opts.Columns)
	for j := 0; j < out.NumCols(); j++ {
		c := out.Column(j)
		if !targets[j] {
			continue
		}
		if opts.Target == "int" {
			*c = frame.ToInt(c, co)
		} else {
			*c = frame.ToFloat(c, co)
		}
	}
	return out, nil
}

// TypeOptions maps column names to target dtypes for convert-types.
type TypeOptions struct {
	Types map[string]frame.DType
}

// ConvertTypes casts each named column to its target dtype.
func ConvertTypes(f *frame.Frame, opts TypeOptions) (*frame.Frame, error) {
	out := f.Copy()
	for name, target := range opts.Types {
		c, ok := out.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("no column %q", name)
		}
		*c = frame.Cast(c, target)
	}
	return out, nil
}

// ColumnNameOptions configures convert-column-names. Steps apply in
// order: replace, prefix, case, truncate.
type ColumnNameOptions struct {
	Replace  string
	With     string
	Prefix   string
	Truncate int    // 0 disables
	Case     string // "", "lower", "upper", "title"
}

// ConvertColumnNames rewrites every column name.
func ConvertColumnNames(f *frame.Frame, opts ColumnNameOptions) (*frame.Frame, error) {
	out := f.Copy()
	for j := 0; j < out.NumCols(); j++ {
		name := out.Column(j).Name
		if opts.Replace != "" {
			name = strings.ReplaceAll(name, opts.Replace, opts.With)
		}
		if opts.Prefix != "" {
			name = opts.Prefix + name
		}
		switch opts.Case {
		case "lower":
			name = strings.ToLower(name)
		case "upper":
			name = strings.ToUpper(name)
		case "title":
			name = titleCase(name)
		}
		if opts.Truncate > 0 && len(name) > opts.Truncate {
			name = name[:opts.Truncate]
		}
		out.Column(j).Name = name
	}
	return out, nil
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// columnSet builds a name set.
func columnSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// columnPositions resolves a name list to a set of column positions; an
// empty list selects every column.
func columnPositions(f *frame.Frame, names []string) map[int]bool {
	set := make(map[int]bool)
	if len(names) == 0 {
		for j := 0; j < f.NumCols(); j++ {
			set[j] = true
		}
		return set
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	for j := 0; j < f.NumCols(); j++ {
		if want[f.Column(j).Name] {
			set[j] = true
		}
	}
	return set
}

func convertNumericEntry() Transform {
	return Transform{
		Name: "convert-numeric",
		Params: []ParamSpec{
			{Name: "target", Kind: KindChoice, Choices: []string{"int", "float"}, Default: "float"},
			{Name: "currency", Kind: KindBool, Default: false},
			{Name: "striptext", Kind: KindBool, Default: false},
			{Name: "fillempty", Kind: KindBool, Default: false},
			{Name: "columns", Kind: KindColumns},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ConvertNumeric(f, NumericOptions{
				Target:        p.String("target", "float"),
				StripCurrency: p.Bool("currency", false),
				StripText:     p.Bool("striptext", false),
				FillEmpty:     p.Bool("fillempty", false),
				Columns:       p.Strings("columns"),
			})
		},
	}
}

func convertTypesEntry() Transform {
	return Transform{
		Name: "convert-types",
		Params: []ParamSpec{
			{Name: "column", Kind: KindColumns},
			{Name: "dtype", Kind: KindChoice, Choices: []string{"int64", "float64", "bool", "string", "datetime", "category"}, Default: "string"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			target := dtypeFromName(p.String("dtype", "string"))
			types := make(map[string]frame.DType)
			for _, name := range p.Strings("column") {
				types[name] = target
			}
			return ConvertTypes(f, TypeOptions{Types: types})
		},
	}
}

func dtypeFromName(name string) frame.DType {
	switch name {
	case "int64", "int":
		return frame.Int
	case "float64", "float":
		return frame.Float
	case "bool":
		return frame.Bool
	case "datetime":
		return frame.Time
	case "category":
		return frame.Categorical
	default:
		return frame.String
	}
}

func convertColumnNamesEntry() Transform {
	return Transform{
		Name: "convert-column-names",
		Params: []ParamSpec{
			{Name: "replace", Kind: KindString, Default: ""},
			{Name: "with", Kind: KindString, Default: ""},
			{Name: "prefix", Kind: KindString, Default: ""},
			{Name: "truncate", Kind: KindInt, Default: 0},
			{Name: "case", Kind: KindChoice, Choices: []string{"", "lower", "upper", "title"}, Default: ""},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ConvertColumnNames(f, ColumnNameOptions{
				Replace:  p.String("replace", ""),
				With:     p.String("with", ""),
				Prefix:   p.String("prefix", ""),
				Truncate: p.Int("truncate", 0),
				Case:     p.String("case", ""),
			})
		},
	}
}

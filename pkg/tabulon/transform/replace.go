package transform

import (
	"fmt"
	"regexp"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// FindOptions configures find-replace.
type FindOptions struct {
	Query         string
	Replacement   string
	CaseSensitive bool
}

// Highlight returns a same-shape mask marking the cells whose rendered
// text matches the query, for the grid to paint.
func Highlight(f *frame.Frame, opts FindOptions) ([][]bool, error) {
	re, err := queryRegexp(opts)
	if err != nil {
		return nil, err
	}
	mask := make([][]bool, f.NumRows())
	for r := range mask {
		mask[r] = make([]bool, f.NumCols())
		for c := 0; c < f.NumCols(); c++ {
			col := f.Column(c)
			if !col.IsNA(r) && re.MatchString(col.String(r)) {
				mask[r][c] = true
			}
		}
	}
	return mask, nil
}

// Replace substitutes the query across every string cell of the frame.
// Non-string columns are left alone so a replace cannot silently change
// dtypes.
func Replace(f *frame.Frame, opts FindOptions) (*frame.Frame, error) {
	re, err := queryRegexp(opts)
	if err != nil {
		return nil, err
	}
	out := f.Copy()
	for ci := 0; ci < out.NumCols(); ci++ {
		c := out.Column(ci)
		if c.DType() != frame.String && c.DType() != frame.Categorical {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsNA(i) {
				continue
			}
			s := c.String(i)
			if !re.MatchString(s) {
				continue
			}
			if err := c.Set(i, re.ReplaceAllString(s, opts.Replacement)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func queryRegexp(opts FindOptions) (*regexp.Regexp, error) {
	pat := opts.Query
	if !opts.CaseSensitive {
		pat = "(?i)" + pat
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("bad search pattern %q: %w", opts.Query, err)
	}
	return re, nil
}

func findReplaceEntry() Transform {
	return Transform{
		Name: "find-replace",
		Params: []ParamSpec{
			{Name: "query", Kind: KindString, Default: ""},
			{Name: "replacement", Kind: KindString, Default: ""},
			{Name: "case-sensitive", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Replace(f, FindOptions{
				Query:         p.String("query", ""),
				Replacement:   p.String("replacement", ""),
				CaseSensitive: p.Bool("case-sensitive", false),
			})
		},
	}
}

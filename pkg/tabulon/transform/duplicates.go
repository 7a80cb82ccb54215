package transform

import (
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// DuplicateOptions configures duplicate-row analysis.
type DuplicateOptions struct {
	// Subset restricts the comparison to the named columns; empty means
	// every column.
	Subset []string
	// Keep selects which occurrence survives a drop: "first" or "last".
	Keep string
	// Inplace drops duplicates from the frame; otherwise the result is
	// the derived sub-frame of duplicated rows.
	Inplace bool
}

// FindDuplicates drops duplicate rows in place or derives the sub-frame
// of rows that duplicate an earlier (or later) one.
func FindDuplicates(f *frame.Frame, opts DuplicateOptions) (*frame.Frame, error) {
	if opts.Keep == "" {
		opts.Keep = "first"
	}
	if opts.Inplace {
		return dropDuplicateRows(f.Copy(), opts.Subset, opts.Keep), nil
	}
	keys := rowKeys(f, opts.Subset)
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		counts[k]++
	}
	mask := make([]bool, len(keys))
	for i, k := range keys {
		mask[i] = counts[k] > 1
	}
	return f.Filter(mask), nil
}

func duplicatesEntry() Transform {
	return Transform{
		Name: "find-duplicates",
		Params: []ParamSpec{
			{Name: "subset", Kind: KindColumns},
			{Name: "keep", Kind: KindChoice, Choices: []string{"first", "last"}, Default: "first"},
			{Name: "inplace", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return FindDuplicates(f, DuplicateOptions{
				Subset:  p.Strings("subset"),
				Keep:    p.String("keep", "first"),
				Inplace: p.Bool("inplace", false),
			})
		},
	}
}

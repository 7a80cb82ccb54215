package transform

import (
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// ColumnOptions configures manage-columns.
type ColumnOptions struct {
	// Delete lists the columns to drop.
	Delete []string
	// Sort orders the columns by name.
	Sort bool
	// Dedupe renames duplicate column names with numeric suffixes.
	Dedupe bool
}

// ManageColumns deletes, sorts and deduplicates column names. Every
// name survives as a string, so numeric headers read in from a file
// come out as text.
func ManageColumns(f *frame.Frame, opts ColumnOptions) (*frame.Frame, error) {
	out := f.Copy()
	if len(opts.Delete) > 0 {
		drop := columnSet(opts.Delete)
		var idx []int
		for i, name := range out.Names() {
			if drop[name] {
				idx = append(idx, i)
			}
		}
		out.RemoveColumns(idx...)
	}
	if opts.Sort {
		out.SortColumns()
	}
	if opts.Dedupe {
		out.DedupNames()
	}
	return out, nil
}

func manageColumnsEntry() Transform {
	return Transform{
		Name: "manage-columns",
		Params: []ParamSpec{
			{Name: "delete", Kind: KindColumns},
			{Name: "sort", Kind: KindBool, Default: false},
			{Name: "dedupe", Kind: KindBool, Default: false},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ManageColumns(f, ColumnOptions{
				Delete: p.Strings("delete"),
				Sort:   p.Bool("sort", false),
				Dedupe: p.Bool("dedupe", false),
			})
		},
	}
}

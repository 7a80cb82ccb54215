// Package view converts grid selections into derived frames for
// plotting. A selection is interpreted against the displayed column
// ordering, which may differ from storage order.
package view

import (
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// Selection is a pair of row and column position sets over a frame, in
// the order the user picked them.
type Selection struct {
	rowIdx []int
	colIdx []int
}

// NewSelection builds a selection from raw grid indices. Duplicates are
// dropped, first occurrence wins, order is preserved.
func NewSelection(rows, cols []int) Selection {
	return Selection{rowIdx: uniq(rows), colIdx: uniq(cols)}
}

// Rows returns the unique row positions in selection order.
func (s Selection) Rows() []int { return s.rowIdx }

// Columns returns the unique column positions in selection order.
func (s Selection) Columns() []int { return s.colIdx }

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool { return len(s.rowIdx) == 0 || len(s.colIdx) == 0 }

// SubFrame selects rows by columns from f in selection order and
// best-effort coerces each column to numeric. A column whose values all
// fail to coerce is preserved as-is. An empty selection yields an empty
// frame.
func (s Selection) SubFrame(f *frame.Frame) *frame.Frame {
	if s.IsEmpty() {
		return frame.Empty()
	}
	picked := f.SelectAt(s.colIdx...).Take(s.rowIdx)
	for i := 0; i < picked.NumCols(); i++ {
		*picked.Column(i) = frame.CoerceNumeric(picked.Column(i))
	}
	return picked
}

func uniq(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

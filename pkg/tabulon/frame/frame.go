package frame

import (
	"fmt"
	"sort"
	"strings"
)

// Frame is an ordered sequence of same-length columns plus an optional
// promoted index column. A nil index means the default integer range.
// Duplicate column names are permitted in storage; DedupNames renames
// collisions when uniqueness is required.
type Frame struct {
	cols  []Column
	index *Column
}

// New builds a frame from columns. All columns must share a length.
func New(cols ...Column) (*Frame, error) {
	if len(cols) > 0 {
		n := cols[0].Len()
		for _, c := range cols[1:] {
			if c.Len() != n {
				return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
			}
		}
	}
	return &Frame{cols: cols}, nil
}

// Empty returns a frame with no rows and no columns.
func Empty() *Frame { return &Frame{} }

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		if f.index != nil {
			return f.index.Len()
		}
		return 0
	}
	return f.cols[0].Len()
}

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the column at position i.
func (f *Frame) Column(i int) *Column { return &f.cols[i] }

// ColumnByName returns the first column with the given name.
func (f *Frame) ColumnByName(name string) (*Column, bool) {
	for i := range f.cols {
		if f.cols[i].Name == name {
			return &f.cols[i], true
		}
	}
	return nil, false
}

// ColumnIndex returns the position of the first column with the given
// name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i := range f.cols {
		if f.cols[i].Name == name {
			return i
		}
	}
	return -1
}

// Index returns the promoted index column, nil for the default range.
func (f *Frame) Index() *Column { return f.index }

// SetIndex promotes the named column to the row index, removing it from
// the column list.
func (f *Frame) SetIndex(name string) error {
	i := f.ColumnIndex(name)
	if i < 0 {
		return fmt.Errorf("no column %q", name)
	}
	col := f.cols[i]
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	f.index = &col
	return nil
}

// ResetIndex demotes the index back into the column list at position 0.
func (f *Frame) ResetIndex() {
	if f.index == nil {
		return
	}
	f.cols = append([]Column{*f.index}, f.cols...)
	f.index = nil
}

// IndexLabel renders the index label for row i.
func (f *Frame) IndexLabel(i int) string {
	if f.index == nil {
		return fmt.Sprintf("%d", i)
	}
	return f.index.String(i)
}

// AddColumn appends a column. Length must match unless the frame is empty.
func (f *Frame) AddColumn(c Column) error {
	if len(f.cols) > 0 && c.Len() != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.NumRows())
	}
	f.cols = append(f.cols, c)
	return nil
}

// InsertColumn places a column at position i, shifting later columns right.
func (f *Frame) InsertColumn(i int, c Column) error {
	if len(f.cols) > 0 && c.Len() != f.NumRows() {
		return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.NumRows())
	}
	if i < 0 || i > len(f.cols) {
		i = len(f.cols)
	}
	f.cols = append(f.cols, Column{})
	copy(f.cols[i+1:], f.cols[i:])
	f.cols[i] = c
	return nil
}

// SetColumn replaces the first column with a matching name, or appends.
func (f *Frame) SetColumn(c Column) error {
	if i := f.ColumnIndex(c.Name); i >= 0 {
		if c.Len() != f.NumRows() {
			return fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), f.NumRows())
		}
		f.cols[i] = c
		return nil
	}
	return f.AddColumn(c)
}

// RemoveColumns drops the columns at the given positions.
func (f *Frame) RemoveColumns(idx ...int) {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	kept := f.cols[:0]
	for i := range f.cols {
		if !drop[i] {
			kept = append(kept, f.cols[i])
		}
	}
	f.cols = kept
}

// Select returns a new frame with the named columns, in request order.
// Unknown names are skipped.
func (f *Frame) Select(names ...string) *Frame {
	var cols []Column
	for _, name := range names {
		if c, ok := f.ColumnByName(name); ok {
			cols = append(cols, c.Copy())
		}
	}
	out := &Frame{cols: cols}
	if f.index != nil {
		ix := f.index.Copy()
		out.index = &ix
	}
	return out
}

// SelectAt returns a new frame with the columns at the given positions,
// in request order. Positions out of range are skipped.
func (f *Frame) SelectAt(idx ...int) *Frame {
	var cols []Column
	for _, i := range idx {
		if i >= 0 && i < len(f.cols) {
			cols = append(cols, f.cols[i].Copy())
		}
	}
	out := &Frame{cols: cols}
	if f.index != nil {
		ix := f.index.Copy()
		out.index = &ix
	}
	return out
}

// Take returns a new frame with rows picked at the given positions, in
// order. The index follows the rows.
func (f *Frame) Take(rows []int) *Frame {
	cols := make([]Column, len(f.cols))
	for i := range f.cols {
		cols[i] = f.cols[i].Take(rows)
	}
	out := &Frame{cols: cols}
	if f.index != nil {
		ix := f.index.Take(rows)
		out.index = &ix
	}
	return out
}

// Filter returns a new frame with the rows where mask is true.
func (f *Frame) Filter(mask []bool) *Frame {
	var rows []int
	for i, keep := range mask {
		if keep {
			rows = append(rows, i)
		}
	}
	return f.Take(rows)
}

// Copy returns a deep copy of the frame.
func (f *Frame) Copy() *Frame {
	cols := make([]Column, len(f.cols))
	for i := range f.cols {
		cols[i] = f.cols[i].Copy()
	}
	out := &Frame{cols: cols}
	if f.index != nil {
		ix := f.index.Copy()
		out.index = &ix
	}
	return out
}

// Equal reports deep equality of two frames, index included.
func (f *Frame) Equal(o *Frame) bool {
	if f.NumCols() != o.NumCols() || f.NumRows() != o.NumRows() {
		return false
	}
	for i := range f.cols {
		if !f.cols[i].Equal(&o.cols[i]) {
			return false
		}
	}
	if (f.index == nil) != (o.index == nil) {
		return false
	}
	if f.index != nil && !f.index.Equal(o.index) {
		return false
	}
	return true
}

// DedupNames renames duplicate column names left to right as name_1,
// name_2, and so on. The first occurrence keeps the bare name.
func (f *Frame) DedupNames() {
	seen := make(map[string]int)
	for i := range f.cols {
		name := f.cols[i].Name
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			f.cols[i].Name = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 1
		}
	}
}

// SortByColumn reorders rows by the named column. Missing values sort
// last regardless of direction.
func (f *Frame) SortByColumn(name string, ascending bool) error {
	c, ok := f.ColumnByName(name)
	if !ok {
		return fmt.Errorf("no column %q", name)
	}
	rows := make([]int, f.NumRows())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		i, j := rows[a], rows[b]
		if c.IsNA(i) {
			return false
		}
		if c.IsNA(j) {
			return true
		}
		var less bool
		switch c.DType() {
		case Int, Float, Bool:
			x, _ := c.Float(i)
			y, _ := c.Float(j)
			less = x < y
		case Time:
			x, _ := c.Time(i)
			y, _ := c.Time(j)
			less = x.Before(y)
		default:
			less = c.strs[i] < c.strs[j]
		}
		if !ascending {
			return !less
		}
		return less
	})
	*f = *f.Take(rows)
	return nil
}

// SortColumns reorders the columns alphabetically by name.
func (f *Frame) SortColumns() {
	sort.SliceStable(f.cols, func(i, j int) bool {
		return strings.ToLower(f.cols[i].Name) < strings.ToLower(f.cols[j].Name)
	})
}

// ReorderColumns arranges columns to match the given name order; names
// not listed keep their relative order after the listed ones.
func (f *Frame) ReorderColumns(order []string) {
	used := make([]bool, len(f.cols))
	var cols []Column
	for _, name := range order {
		for i := range f.cols {
			if !used[i] && f.cols[i].Name == name {
				cols = append(cols, f.cols[i])
				used[i] = true
				break
			}
		}
	}
	for i := range f.cols {
		if !used[i] {
			cols = append(cols, f.cols[i])
		}
	}
	f.cols = cols
}

// MemoryBytes estimates the deep in-memory size of the frame.
func (f *Frame) MemoryBytes() int64 {
	var n int64
	for i := range f.cols {
		n += f.cols[i].memoryBytes()
	}
	if f.index != nil {
		n += f.index.memoryBytes()
	}
	return n
}

// RowValues returns the untyped values of row i in column order.
func (f *Frame) RowValues(i int) []interface{} {
	out := make([]interface{}, len(f.cols))
	for j := range f.cols {
		out[j] = f.cols[j].Value(i)
	}
	return out
}

// Package frame implements the labelled two-dimensional table at the core
// of tabulon: ordered typed columns, first-class missing values, a
// promotable row index and a custody store with single-step undo.
package frame

import (
	"fmt"
	"math"
	"time"
)

// DType identifies the element type of a column.
type DType string

const (
	// Int is a 64-bit integer column.
	Int DType = "int64"
	// Float is a 64-bit floating point column.
	Float DType = "float64"
	// Bool is a boolean column.
	Bool DType = "bool"
	// String is a text/object column.
	String DType = "string"
	// Time is a datetime column.
	Time DType = "datetime"
	// Categorical is a string column with an enumerated level set.
	Categorical DType = "category"
)

// Column is a named, typed, same-length vector with a validity mask.
// Exactly one of the value slices is populated, selected by dtype.
// Categorical columns share the string storage plus a level list.
type Column struct {
	Name string

	dtype  DType
	ints   []int64
	floats []float64
	bools  []bool
	strs   []string
	times  []time.Time
	levels []string
	valid  []bool
}

// NewIntColumn builds an integer column. A nil valid mask means all valid.
func NewIntColumn(name string, vals []int64, valid []bool) Column {
	return Column{Name: name, dtype: Int, ints: vals, valid: fillValid(valid, len(vals))}
}

// NewFloatColumn builds a float column. NaN values are treated as missing.
func NewFloatColumn(name string, vals []float64, valid []bool) Column {
	c := Column{Name: name, dtype: Float, floats: vals, valid: fillValid(valid, len(vals))}
	for i, v := range vals {
		if math.IsNaN(v) {
			c.valid[i] = false
		}
	}
	return c
}

// NewBoolColumn builds a boolean column.
func NewBoolColumn(name string, vals []bool, valid []bool) Column {
	return Column{Name: name, dtype: Bool, bools: vals, valid: fillValid(valid, len(vals))}
}

// NewStringColumn builds a string column.
func NewStringColumn(name string, vals []string, valid []bool) Column {
	return Column{Name: name, dtype: String, strs: vals, valid: fillValid(valid, len(vals))}
}

// NewTimeColumn builds a datetime column.
func NewTimeColumn(name string, vals []time.Time, valid []bool) Column {
	return Column{Name: name, dtype: Time, times: vals, valid: fillValid(valid, len(vals))}
}

// NewCategoricalColumn builds a categorical column over the given levels.
// Levels are inferred from the values when nil.
func NewCategoricalColumn(name string, vals []string, levels []string, valid []bool) Column {
	if levels == nil {
		seen := make(map[string]bool)
		for _, v := range vals {
			if !seen[v] {
				seen[v] = true
				levels = append(levels, v)
			}
		}
	}
	return Column{Name: name, dtype: Categorical, strs: vals, levels: levels, valid: fillValid(valid, len(vals))}
}

func fillValid(valid []bool, n int) []bool {
	if valid != nil {
		return valid
	}
	v := make([]bool, n)
	for i := range v {
		v[i] = true
	}
	return v
}

// DType returns the column element type.
func (c *Column) DType() DType { return c.dtype }

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.valid) }

// Levels returns the level set of a categorical column, nil otherwise.
func (c *Column) Levels() []string { return c.levels }

// IsNA reports whether the value at i is missing.
func (c *Column) IsNA(i int) bool {
	if !c.valid[i] {
		return true
	}
	if c.dtype == Float {
		return math.IsNaN(c.floats[i])
	}
	return false
}

// Value returns the element at i as an untyped value, nil when missing.
func (c *Column) Value(i int) interface{} {
	if c.IsNA(i) {
		return nil
	}
	switch c.dtype {
	case Int:
		return c.ints[i]
	case Float:
		return c.floats[i]
	case Bool:
		return c.bools[i]
	case Time:
		return c.times[i]
	default:
		return c.strs[i]
	}
}

// Int returns the integer at i; ok is false when missing or non-integer.
func (c *Column) Int(i int) (int64, bool) {
	if c.dtype != Int || c.IsNA(i) {
		return 0, false
	}
	return c.ints[i], true
}

// Float returns the element at i as a float. Integer and boolean columns
// widen; missing and non-numeric values return NaN with ok=false.
func (c *Column) Float(i int) (float64, bool) {
	if c.IsNA(i) {
		return math.NaN(), false
	}
	switch c.dtype {
	case Float:
		return c.floats[i], true
	case Int:
		return float64(c.ints[i]), true
	case Bool:
		if c.bools[i] {
			return 1, true
		}
		return 0, true
	default:
		return math.NaN(), false
	}
}

// Time returns the datetime at i; ok is false when missing or not a
// datetime column.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.dtype != Time || c.IsNA(i) {
		return time.Time{}, false
	}
	return c.times[i], true
}

// String returns a display rendering of the element at i. Missing values
// render as the empty string.
func (c *Column) String(i int) string {
	if c.IsNA(i) {
		return ""
	}
	switch c.dtype {
	case Int:
		return fmt.Sprintf("%d", c.ints[i])
	case Float:
		return formatFloat(c.floats[i])
	case Bool:
		return fmt.Sprintf("%t", c.bools[i])
	case Time:
		return c.times[i].Format("2006-01-02 15:04:05")
	default:
		return c.strs[i]
	}
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%g", v)
}

// Set writes an untyped value at i, converting to the column dtype where
// possible. nil marks the value missing. Incompatible values are an error.
func (c *Column) Set(i int, v interface{}) error {
	if v == nil {
		c.valid[i] = false
		return nil
	}
	switch c.dtype {
	case Int:
		switch x := v.(type) {
		case int64:
			c.ints[i] = x
		case int:
			c.ints[i] = int64(x)
		case float64:
			c.ints[i] = int64(x)
		default:
			return fmt.Errorf("column %q: cannot set %T into %s", c.Name, v, c.dtype)
		}
	case Float:
		switch x := v.(type) {
		case float64:
			c.floats[i] = x
		case int64:
			c.floats[i] = float64(x)
		case int:
			c.floats[i] = float64(x)
		default:
			return fmt.Errorf("column %q: cannot set %T into %s", c.Name, v, c.dtype)
		}
	case Bool:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %q: cannot set %T into %s", c.Name, v, c.dtype)
		}
		c.bools[i] = x
	case Time:
		x, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %q: cannot set %T into %s", c.Name, v, c.dtype)
		}
		c.times[i] = x
	default:
		c.strs[i] = fmt.Sprintf("%v", v)
	}
	c.valid[i] = true
	return nil
}

// SetNA marks the value at i missing.
func (c *Column) SetNA(i int) { c.valid[i] = false }

// Copy returns a deep copy of the column.
func (c *Column) Copy() Column {
	out := Column{Name: c.Name, dtype: c.dtype}
	out.valid = append([]bool(nil), c.valid...)
	out.ints = append([]int64(nil), c.ints...)
	out.floats = append([]float64(nil), c.floats...)
	out.bools = append([]bool(nil), c.bools...)
	out.strs = append([]string(nil), c.strs...)
	out.times = append([]time.Time(nil), c.times...)
	out.levels = append([]string(nil), c.levels...)
	return out
}

// Take returns a new column with rows picked at the given positions, in
// order. Positions out of range yield missing values.
func (c *Column) Take(rows []int) Column {
	out := emptyLike(c, len(rows))
	for j, i := range rows {
		if i < 0 || i >= c.Len() || c.IsNA(i) {
			out.valid[j] = false
			continue
		}
		switch c.dtype {
		case Int:
			out.ints[j] = c.ints[i]
		case Float:
			out.floats[j] = c.floats[i]
		case Bool:
			out.bools[j] = c.bools[i]
		case Time:
			out.times[j] = c.times[i]
		default:
			out.strs[j] = c.strs[i]
		}
	}
	return out
}

// emptyLike allocates a column of the same dtype and name with n rows,
// all valid until written.
func emptyLike(c *Column, n int) Column {
	out := Column{Name: c.Name, dtype: c.dtype, valid: fillValid(nil, n)}
	switch c.dtype {
	case Int:
		out.ints = make([]int64, n)
	case Float:
		out.floats = make([]float64, n)
	case Bool:
		out.bools = make([]bool, n)
	case Time:
		out.times = make([]time.Time, n)
	default:
		out.strs = make([]string, n)
		out.levels = append([]string(nil), c.levels...)
	}
	return out
}

// Equal reports deep equality with another column. Float comparison is
// exact; NaN equals NaN through the validity mask.
func (c *Column) Equal(o *Column) bool {
	if c.Name != o.Name || c.dtype != o.dtype || c.Len() != o.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.IsNA(i) != o.IsNA(i) {
			return false
		}
		if c.IsNA(i) {
			continue
		}
		switch c.dtype {
		case Int:
			if c.ints[i] != o.ints[i] {
				return false
			}
		case Float:
			if c.floats[i] != o.floats[i] {
				return false
			}
		case Bool:
			if c.bools[i] != o.bools[i] {
				return false
			}
		case Time:
			if !c.times[i].Equal(o.times[i]) {
				return false
			}
		default:
			if c.strs[i] != o.strs[i] {
				return false
			}
		}
	}
	return true
}

// memoryBytes estimates the deep in-memory size of the column.
func (c *Column) memoryBytes() int64 {
	var n int64
	n += int64(len(c.ints)) * 8
	n += int64(len(c.floats)) * 8
	n += int64(len(c.bools))
	n += int64(len(c.times)) * 24
	n += int64(len(c.valid))
	for _, s := range c.strs {
		n += int64(len(s)) + 16
	}
	for _, s := range c.levels {
		n += int64(len(s)) + 16
	}
	return n
}

package frame

import (
	"encoding/json"
	"fmt"
	"time"
)

// columnDoc is the serialised form of a Column. Times travel as
// RFC3339Nano strings so the document stays readable and stable.
type columnDoc struct {
	Name   string    `json:"name"`
	DType  DType     `json:"dtype"`
	Ints   []int64   `json:"ints,omitempty"`
	Floats []float64 `json:"floats,omitempty"`
	Bools  []bool    `json:"bools,omitempty"`
	Strs   []string  `json:"strs,omitempty"`
	Times  []string  `json:"times,omitempty"`
	Levels []string  `json:"levels,omitempty"`
	Valid  []bool    `json:"valid"`
}

type frameDoc struct {
	Columns []columnDoc `json:"columns"`
	Index   *columnDoc  `json:"index,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Column) MarshalJSON() ([]byte, error) {
	doc := columnDoc{Name: c.Name, DType: c.dtype, Valid: c.valid}
	switch c.dtype {
	case Int:
		doc.Ints = c.ints
	case Float:
		// NaN is not representable in JSON; zero out masked slots.
		floats := make([]float64, len(c.floats))
		for i, v := range c.floats {
			if c.valid[i] {
				floats[i] = v
			}
		}
		doc.Floats = floats
		doc.Valid = make([]bool, len(c.valid))
		copy(doc.Valid, c.valid)
		for i := range doc.Valid {
			if c.IsNA(i) {
				doc.Valid[i] = false
			}
		}
	case Bool:
		doc.Bools = c.bools
	case Time:
		doc.Times = make([]string, len(c.times))
		for i, t := range c.times {
			if c.valid[i] {
				doc.Times[i] = t.Format(time.RFC3339Nano)
			}
		}
	default:
		doc.Strs = c.strs
		doc.Levels = c.levels
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Column) UnmarshalJSON(data []byte) error {
	var doc columnDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	col, err := doc.toColumn()
	if err != nil {
		return err
	}
	*c = col
	return nil
}

func (doc columnDoc) toColumn() (Column, error) {
	c := Column{Name: doc.Name, dtype: doc.DType, valid: doc.Valid}
	switch doc.DType {
	case Int:
		c.ints = doc.Ints
	case Float:
		c.floats = doc.Floats
	case Bool:
		c.bools = doc.Bools
	case Time:
		c.times = make([]time.Time, len(doc.Times))
		for i, s := range doc.Times {
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return Column{}, fmt.Errorf("column %q row %d: %w", doc.Name, i, err)
			}
			c.times[i] = t
		}
	case String, Categorical:
		c.strs = doc.Strs
		c.levels = doc.Levels
	default:
		return Column{}, fmt.Errorf("column %q: unknown dtype %q", doc.Name, doc.DType)
	}
	if c.valid == nil {
		// A document without a valid key means all-present; the length
		// comes from the value slice since the mask is what Len reads.
		c.valid = fillValid(nil, doc.valueLen())
	}
	return c, nil
}

func (doc columnDoc) valueLen() int {
	switch doc.DType {
	case Int:
		return len(doc.Ints)
	case Float:
		return len(doc.Floats)
	case Bool:
		return len(doc.Bools)
	case Time:
		return len(doc.Times)
	default:
		return len(doc.Strs)
	}
}

// MarshalJSON implements json.Marshaler.
func (f *Frame) MarshalJSON() ([]byte, error) {
	doc := frameDoc{Columns: make([]columnDoc, 0, len(f.cols))}
	for i := range f.cols {
		b, err := json.Marshal(f.cols[i])
		if err != nil {
			return nil, err
		}
		var cd columnDoc
		if err := json.Unmarshal(b, &cd); err != nil {
			return nil, err
		}
		doc.Columns = append(doc.Columns, cd)
	}
	if f.index != nil {
		b, err := json.Marshal(*f.index)
		if err != nil {
			return nil, err
		}
		var cd columnDoc
		if err := json.Unmarshal(b, &cd); err != nil {
			return nil, err
		}
		doc.Index = &cd
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var doc frameDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	cols := make([]Column, 0, len(doc.Columns))
	for _, cd := range doc.Columns {
		c, err := cd.toColumn()
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	f.cols = cols
	f.index = nil
	if doc.Index != nil {
		ix, err := doc.Index.toColumn()
		if err != nil {
			return err
		}
		f.index = &ix
	}
	return nil
}

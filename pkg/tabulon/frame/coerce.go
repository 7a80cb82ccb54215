package frame

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CoerceOptions controls string-to-number coercion.
type CoerceOptions struct {
	// StripCurrency removes currency symbols and thousands separators
	// before parsing.
	StripCurrency bool
	// StripText removes every character that is not a digit, sign, dot
	// or exponent marker before parsing.
	StripText bool
	// FillEmpty treats empty strings as zero instead of missing.
	FillEmpty bool
}

var (
	currencyRe = regexp.MustCompile(`[$€£¥₹,]`)
	nonNumRe   = regexp.MustCompile(`[^0-9eE+\-.]`)
)

// ParseNumber coerces one string to a float. ok is false when the value
// does not parse.
func ParseNumber(s string, opts CoerceOptions) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		if opts.FillEmpty {
			return 0, true
		}
		return 0, false
	}
	if opts.StripCurrency {
		s = currencyRe.ReplaceAllString(s, "")
	}
	if opts.StripText {
		s = nonNumRe.ReplaceAllString(s, "")
	}
	if s == "" {
		if opts.FillEmpty {
			return 0, true
		}
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ToFloat coerces a column to float. Unparseable values become missing
// (errors=coerce semantics). Numeric columns convert losslessly.
func ToFloat(c *Column, opts CoerceOptions) Column {
	n := c.Len()
	vals := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if c.IsNA(i) {
			if opts.FillEmpty {
				valid[i] = true
			}
			continue
		}
		switch c.DType() {
		case Int, Float, Bool:
			v, _ := c.Float(i)
			vals[i] = v
			valid[i] = true
		case Time:
			t, _ := c.Time(i)
			vals[i] = float64(t.Unix())
			valid[i] = true
		default:
			if v, ok := ParseNumber(c.strs[i], opts); ok {
				vals[i] = v
				valid[i] = true
			}
		}
	}
	return NewFloatColumn(c.Name, vals, valid)
}

// ToInt coerces a column to integers through float parsing, truncating.
func ToInt(c *Column, opts CoerceOptions) Column {
	fc := ToFloat(c, opts)
	n := fc.Len()
	vals := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if v, ok := fc.Float(i); ok {
			vals[i] = int64(v)
			valid[i] = true
		}
	}
	return NewIntColumn(c.Name, vals, valid)
}

// CoerceNumeric returns a best-effort numeric version of the column for
// plotting: the float coercion when at least one value parses, otherwise
// the column untouched.
func CoerceNumeric(c *Column) Column {
	if c.DType() == Int || c.DType() == Float || c.DType() == Bool {
		return c.Copy()
	}
	fc := ToFloat(c, CoerceOptions{StripCurrency: true})
	for i := 0; i < fc.Len(); i++ {
		if !fc.IsNA(i) {
			return fc
		}
	}
	return c.Copy()
}

// timeLayouts are tried in order when inferring datetime formats.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"15:04:05",
}

// ParseTime parses one datetime string. An empty layout infers the
// format from a fixed layout list.
func ParseTime(s, layout string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if layout != "" {
		t, err := time.Parse(layout, s)
		return t, err == nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToTime coerces a column to datetimes. When coerce is true, unparseable
// values become missing; otherwise the first failure aborts and ok is
// false (errors=ignore semantics).
func ToTime(c *Column, layout string, coerce bool) (Column, bool) {
	n := c.Len()
	vals := make([]time.Time, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if c.IsNA(i) {
			continue
		}
		if c.DType() == Time {
			vals[i], _ = c.Time(i)
			valid[i] = true
			continue
		}
		t, ok := ParseTime(c.String(i), layout)
		if !ok {
			if coerce {
				continue
			}
			return Column{}, false
		}
		vals[i] = t
		valid[i] = true
	}
	return NewTimeColumn(c.Name, vals, valid), true
}

// Cast converts a column to the target dtype with errors=coerce
// semantics throughout.
func Cast(c *Column, target DType) Column {
	switch target {
	case Int:
		return ToInt(c, CoerceOptions{})
	case Float:
		return ToFloat(c, CoerceOptions{})
	case Bool:
		n := c.Len()
		vals := make([]bool, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if c.IsNA(i) {
				continue
			}
			switch c.DType() {
			case Bool:
				vals[i] = c.bools[i]
				valid[i] = true
			case Int, Float:
				v, _ := c.Float(i)
				vals[i] = v != 0
				valid[i] = true
			default:
				if b, err := strconv.ParseBool(strings.ToLower(c.strs[i])); err == nil {
					vals[i] = b
					valid[i] = true
				}
			}
		}
		return NewBoolColumn(c.Name, vals, valid)
	case Time:
		out, _ := ToTime(c, "", true)
		return out
	case Categorical:
		n := c.Len()
		vals := make([]string, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if c.IsNA(i) {
				continue
			}
			vals[i] = c.String(i)
			valid[i] = true
		}
		return NewCategoricalColumn(c.Name, vals, nil, valid)
	default:
		n := c.Len()
		vals := make([]string, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if c.IsNA(i) {
				continue
			}
			vals[i] = c.String(i)
			valid[i] = true
		}
		return NewStringColumn(c.Name, vals, valid)
	}
}

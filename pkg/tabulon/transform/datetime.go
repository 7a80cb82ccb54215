package transform

import (
	"fmt"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// DateOptions configures convert-dates.
type DateOptions struct {
	// Column is the target column.
	Column string
	// Format is a Go time layout; empty infers per value.
	Format string
	// Errors is "coerce" (unparseable becomes missing) or "ignore"
	// (any failure leaves the column untouched).
	Errors string
	// Extract lists datetime properties to pull into new columns; when
	// empty the column itself is overwritten with the parsed datetimes.
	Extract []string
}

// dateProperties enumerates the extractable datetime parts.
var dateProperties = []string{
	"day", "dayofweek", "month", "hour", "minute", "second", "microsecond",
	"year", "dayofyear", "weekofyear", "quarter", "days_in_month", "is_leap_year",
}

// ConvertDates coerces a column to datetimes and optionally extracts
// named properties, one new column per property, inserted after the
// source column.
func ConvertDates(f *frame.Frame, opts DateOptions) (*frame.Frame, error) {
	out := f.Copy()
	c, ok := out.ColumnByName(opts.Column)
	if !ok {
		return nil, fmt.Errorf("no column %q", opts.Column)
	}
	coerce := opts.Errors != "ignore"
	tc, ok := frame.ToTime(c, opts.Format, coerce)
	if !ok {
		// errors=ignore with at least one failure: leave as-is.
		return out, nil
	}

	if len(opts.Extract) == 0 {
		*c = tc
		return out, nil
	}

	pos := out.ColumnIndex(opts.Column)
	for k, prop := range opts.Extract {
		pc, err := extractProperty(&tc, prop)
		if err != nil {
			return nil, err
		}
		if err := out.InsertColumn(pos+1+k, pc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func extractProperty(c *frame.Column, prop string) (frame.Column, error) {
	n := c.Len()
	name := c.Name + "_" + prop

	if prop == "is_leap_year" {
		vals := make([]bool, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			if t, ok := c.Time(i); ok {
				y := t.Year()
				vals[i] = y%4 == 0 && (y%100 != 0 || y%400 == 0)
				valid[i] = true
			}
		}
		return frame.NewBoolColumn(name, vals, valid), nil
	}

	vals := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		t, ok := c.Time(i)
		if !ok {
			continue
		}
		var v int64
		switch prop {
		case "day":
			v = int64(t.Day())
		case "dayofweek":
			// Monday=0 per the usual tabular convention.
			v = int64((int(t.Weekday()) + 6) % 7)
		case "month":
			v = int64(t.Month())
		case "hour":
			v = int64(t.Hour())
		case "minute":
			v = int64(t.Minute())
		case "second":
			v = int64(t.Second())
		case "microsecond":
			v = int64(t.Nanosecond() / 1000)
		case "year":
			v = int64(t.Year())
		case "dayofyear":
			v = int64(t.YearDay())
		case "weekofyear":
			_, wk := t.ISOWeek()
			v = int64(wk)
		case "quarter":
			v = int64((int(t.Month())-1)/3 + 1)
		case "days_in_month":
			// Day zero of the next month is the last day of this one.
			v = int64(time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day())
		default:
			return frame.Column{}, fmt.Errorf("unknown datetime property %q", prop)
		}
		vals[i] = v
		valid[i] = true
	}
	return frame.NewIntColumn(name, vals, valid), nil
}

func convertDatesEntry() Transform {
	return Transform{
		Name: "convert-dates",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "format", Kind: KindString, Default: ""},
			{Name: "errors", Kind: KindChoice, Choices: []string{"coerce", "ignore"}, Default: "coerce"},
			{Name: "extract", Kind: KindChoice, Choices: dateProperties},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return ConvertDates(f, DateOptions{
				Column:  p.String("column", ""),
				Format:  p.String("format", ""),
				Errors:  p.String("errors", "coerce"),
				Extract: p.Strings("extract"),
			})
		},
	}
}

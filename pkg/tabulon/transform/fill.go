package transform

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// FillDataOptions configures fill-data: a scalar, a random draw or a
// linear range written into the target column at frame length.
type FillDataOptions struct {
	// Column is the target column name; created when absent.
	Column string
	// Mode is "value", "random" or "range".
	Mode string
	// Value is the scalar for Mode=="value".
	Value string
	// Dist selects the random distribution: normal, gamma, uniform,
	// random-int or logistic.
	Dist string
	// Low and High parameterise uniform/random-int draws and are the
	// range bounds for Mode=="range".
	Low, High float64
	// Mean and Std parameterise the normal distribution.
	Mean, Std float64
	// Shape and Scale parameterise the gamma distribution; Scale also
	// serves as the logistic spread.
	Shape, Scale float64
	// Seed fixes the random stream so fills are reproducible.
	Seed int64
}

// FillData writes a frame-length sequence into the target column.
func FillData(f *frame.Frame, opts FillDataOptions) (*frame.Frame, error) {
	n := f.NumRows()
	out := f.Copy()
	var col frame.Column
	switch opts.Mode {
	case "value":
		vals := make([]string, n)
		for i := range vals {
			vals[i] = opts.Value
		}
		col = frame.NewStringColumn(opts.Column, vals, nil)
		if num := frame.CoerceNumeric(&col); num.DType() == frame.Float {
			col = num
		}
	case "random":
		vals, err := randomDraw(opts, n)
		if err != nil {
			return nil, err
		}
		col = frame.NewFloatColumn(opts.Column, vals, nil)
	case "range":
		vals := make([]float64, n)
		step := 0.0
		if n > 1 {
			step = (opts.High - opts.Low) / float64(n-1)
		}
		for i := range vals {
			vals[i] = opts.Low + step*float64(i)
		}
		col = frame.NewFloatColumn(opts.Column, vals, nil)
	default:
		return nil, fmt.Errorf("unknown fill mode %q", opts.Mode)
	}
	if err := installColumn(out, col); err != nil {
		return nil, err
	}
	return out, nil
}

func randomDraw(opts FillDataOptions, n int) ([]float64, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	vals := make([]float64, n)
	switch opts.Dist {
	case "normal":
		for i := range vals {
			vals[i] = rng.NormFloat64()*opts.Std + opts.Mean
		}
	case "uniform":
		for i := range vals {
			vals[i] = opts.Low + rng.Float64()*(opts.High-opts.Low)
		}
	case "random-int":
		span := int64(opts.High - opts.Low)
		if span <= 0 {
			span = 1
		}
		for i := range vals {
			vals[i] = opts.Low + float64(rng.Int63n(span))
		}
	case "gamma":
		for i := range vals {
			vals[i] = gammaDraw(rng, opts.Shape, opts.Scale)
		}
	case "logistic":
		for i := range vals {
			u := rng.Float64()
			for u == 0 || u == 1 {
				u = rng.Float64()
			}
			vals[i] = opts.Mean + opts.Scale*math.Log(u/(1-u))
		}
	default:
		return nil, fmt.Errorf("unknown distribution %q", opts.Dist)
	}
	return vals, nil
}

// gammaDraw samples a gamma variate by the Marsaglia-Tsang squeeze.
func gammaDraw(rng *rand.Rand, shape, scale float64) float64 {
	if shape <= 0 {
		shape = 1
	}
	if scale <= 0 {
		scale = 1
	}
	if shape < 1 {
		u := rng.Float64()
		return gammaDraw(rng, shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// FillDatesOptions configures fill-dates.
type FillDatesOptions struct {
	// Column is the target column name.
	Column string
	// Start is the first timestamp.
	Start time.Time
	// Freq is a pandas-style offset alias (D, H, min, S, M, W, Q, A);
	// empty derives the step from End over the frame length.
	Freq string
	// End closes the range when Freq is empty.
	End time.Time
}

// FillDates writes a frame-length datetime sequence.
func FillDates(f *frame.Frame, opts FillDatesOptions) (*frame.Frame, error) {
	n := f.NumRows()
	out := f.Copy()
	vals := make([]time.Time, n)
	if opts.Freq != "" {
		step, err := freqDuration(opts.Freq)
		if err != nil {
			return nil, err
		}
		cur := opts.Start
		for i := range vals {
			vals[i] = cur
			cur = cur.Add(step)
		}
	} else {
		span := opts.End.Sub(opts.Start)
		var step time.Duration
		if n > 1 {
			step = span / time.Duration(n-1)
		}
		for i := range vals {
			vals[i] = opts.Start.Add(step * time.Duration(i))
		}
	}
	if err := installColumn(out, frame.NewTimeColumn(opts.Column, vals, nil)); err != nil {
		return nil, err
	}
	return out, nil
}

// freqDuration maps an offset alias onto a fixed duration. Calendar
// frequencies use mean lengths, matching resample bucketing.
func freqDuration(freq string) (time.Duration, error) {
	switch freq {
	case "S":
		return time.Second, nil
	case "L":
		return time.Millisecond, nil
	case "U":
		return time.Microsecond, nil
	case "min", "T":
		return time.Minute, nil
	case "H":
		return time.Hour, nil
	case "D":
		return 24 * time.Hour, nil
	case "W":
		return 7 * 24 * time.Hour, nil
	case "M":
		return 30 * 24 * time.Hour, nil
	case "Q":
		return 91 * 24 * time.Hour, nil
	case "A", "AS", "Y":
		return 365 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown frequency %q", freq)
}

// FillStringsOptions configures fill-strings.
type FillStringsOptions struct {
	// Column is the target column name.
	Column string
	// Length is the generated string length.
	Length int
	// Charset is "lower", "upper" or "printable".
	Charset string
	// Seed fixes the random stream.
	Seed int64
}

// FillStrings writes random fixed-length strings.
func FillStrings(f *frame.Frame, opts FillStringsOptions) (*frame.Frame, error) {
	const (
		lower = "abcdefghijklmnopqrstuvwxyz"
		upper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	)
	var charset string
	switch opts.Charset {
	case "lower", "":
		charset = lower
	case "upper":
		charset = upper
	case "printable":
		charset = lower + upper + "0123456789 !#$%&()*+,-./"
	default:
		return nil, fmt.Errorf("unknown charset %q", opts.Charset)
	}
	if opts.Length <= 0 {
		opts.Length = 8
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	n := f.NumRows()
	out := f.Copy()
	vals := make([]string, n)
	buf := make([]byte, opts.Length)
	for i := range vals {
		for k := range buf {
			buf[k] = charset[rng.Intn(len(charset))]
		}
		vals[i] = string(buf)
	}
	if err := installColumn(out, frame.NewStringColumn(opts.Column, vals, nil)); err != nil {
		return nil, err
	}
	return out, nil
}

// installColumn replaces a same-named column or appends.
func installColumn(f *frame.Frame, c frame.Column) error {
	return f.SetColumn(c)
}

func fillDataEntry() Transform {
	return Transform{
		Name: "fill-data",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "mode", Kind: KindChoice, Choices: []string{"value", "random", "range"}, Default: "value"},
			{Name: "value", Kind: KindString, Default: ""},
			{Name: "dist", Kind: KindChoice, Choices: []string{"normal", "gamma", "uniform", "random-int", "logistic"}, Default: "normal"},
			{Name: "low", Kind: KindFloat, Default: 0.0},
			{Name: "high", Kind: KindFloat, Default: 1.0},
			{Name: "mean", Kind: KindFloat, Default: 0.0},
			{Name: "std", Kind: KindFloat, Default: 1.0},
			{Name: "shape", Kind: KindFloat, Default: 1.0},
			{Name: "scale", Kind: KindFloat, Default: 1.0},
			{Name: "seed", Kind: KindInt, Default: 0},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return FillData(f, FillDataOptions{
				Column: p.String("column", "fill"),
				Mode:   p.String("mode", "value"),
				Value:  p.String("value", ""),
				Dist:   p.String("dist", "normal"),
				Low:    p.Float("low", 0),
				High:   p.Float("high", 1),
				Mean:   p.Float("mean", 0),
				Std:    p.Float("std", 1),
				Shape:  p.Float("shape", 1),
				Scale:  p.Float("scale", 1),
				Seed:   int64(p.Int("seed", 0)),
			})
		},
	}
}

func fillDatesEntry() Transform {
	return Transform{
		Name: "fill-dates",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "start", Kind: KindString, Default: ""},
			{Name: "end", Kind: KindString, Default: ""},
			{Name: "freq", Kind: KindChoice, Choices: []string{"", "S", "min", "H", "D", "W", "M", "Q", "A"}, Default: "D"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			start, ok := frame.ParseTime(p.String("start", ""), "")
			if !ok {
				return nil, fmt.Errorf("invalid start date %q", p.String("start", ""))
			}
			opts := FillDatesOptions{
				Column: p.String("column", "date"),
				Start:  start,
				Freq:   p.String("freq", "D"),
			}
			if end, ok := frame.ParseTime(p.String("end", ""), ""); ok {
				opts.End = end
				if p.String("freq", "") == "" {
					opts.Freq = ""
				}
			}
			return FillDates(f, opts)
		},
	}
}

func fillStringsEntry() Transform {
	return Transform{
		Name: "fill-strings",
		Params: []ParamSpec{
			{Name: "column", Kind: KindString, Default: ""},
			{Name: "length", Kind: KindInt, Default: 8},
			{Name: "charset", Kind: KindChoice, Choices: []string{"lower", "upper", "printable"}, Default: "lower"},
			{Name: "seed", Kind: KindInt, Default: 0},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return FillStrings(f, FillStringsOptions{
				Column:  p.String("column", "string"),
				Length:  p.Int("length", 8),
				Charset: p.String("charset", "lower"),
				Seed:    int64(p.Int("seed", 0)),
			})
		},
	}
}

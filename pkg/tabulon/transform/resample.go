package transform

import (
	"fmt"
	"sort"
	"time"

	"github.com/tabulon-io/tabulon/pkg/tabulon"
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

// ResampleOptions configures resample.
type ResampleOptions struct {
	// Freq is a frequency alias such as D, W, M, Q, A, H, min, S, L, U.
	Freq string
	// Agg is one of mean, sum, count, max, min, std, first, last.
	Agg string
}

// Resample buckets rows of a datetime-indexed frame into calendar
// periods and aggregates each bucket. The result is a fresh frame
// indexed by bucket start.
func Resample(f *frame.Frame, opts ResampleOptions) (*frame.Frame, error) {
	idx := f.Index()
	if idx == nil || idx.DType() != frame.Time {
		return nil, tabulon.Errorf("resample", tabulon.ErrDataMismatch, "resample requires a datetime index")
	}

	buckets := map[time.Time][]int{}
	for i := 0; i < idx.Len(); i++ {
		t, ok := idx.Time(i)
		if !ok {
			continue
		}
		start, err := periodStart(t, opts.Freq)
		if err != nil {
			return nil, err
		}
		buckets[start] = append(buckets[start], i)
	}
	starts := make([]time.Time, 0, len(buckets))
	for t := range buckets {
		starts = append(starts, t)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	indexName := idx.Name
	if indexName == "" {
		indexName = "index"
	}
	valid := make([]bool, len(starts))
	for i := range valid {
		valid[i] = true
	}
	out := frame.Empty()
	if err := out.AddColumn(frame.NewTimeColumn(indexName, starts, valid)); err != nil {
		return nil, err
	}

	switch opts.Agg {
	case "first", "last":
		rows := make([]int, len(starts))
		for k, t := range buckets {
			pos := sort.Search(len(starts), func(i int) bool { return !starts[i].Before(k) })
			if opts.Agg == "first" {
				rows[pos] = t[0]
			} else {
				rows[pos] = t[len(t)-1]
			}
		}
		for i := 0; i < f.NumCols(); i++ {
			if err := out.AddColumn(f.Column(i).Take(rows)); err != nil {
				return nil, err
			}
		}
	case "count":
		for i := 0; i < f.NumCols(); i++ {
			c := f.Column(i)
			counts := make([]int64, len(starts))
			for j, start := range starts {
				for _, r := range buckets[start] {
					if !c.IsNA(r) {
						counts[j]++
					}
				}
			}
			col := frame.NewIntColumn(c.Name, counts, valid)
			if err := out.AddColumn(col); err != nil {
				return nil, err
			}
		}
	case "mean", "sum", "max", "min", "std":
		for i := 0; i < f.NumCols(); i++ {
			c := f.Column(i)
			switch c.DType() {
			case frame.Int, frame.Float, frame.Bool:
			default:
				continue
			}
			agg := make([]float64, len(starts))
			aggValid := make([]bool, len(starts))
			for j, start := range starts {
				var vals []float64
				for _, r := range buckets[start] {
					if v, ok := c.Float(r); ok {
						vals = append(vals, v)
					}
				}
				if len(vals) == 0 {
					continue
				}
				aggValid[j] = true
				switch opts.Agg {
				case "mean":
					agg[j] = mean(vals)
				case "sum":
					agg[j] = sum(vals)
				case "max":
					agg[j] = maxOf(vals)
				case "min":
					agg[j] = minOf(vals)
				case "std":
					agg[j] = std(vals)
				}
			}
			if err := out.AddColumn(frame.NewFloatColumn(c.Name, agg, aggValid)); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown aggregation %q", opts.Agg)
	}

	if err := out.SetIndex(indexName); err != nil {
		return nil, err
	}
	return out, nil
}

// periodStart maps a timestamp onto the start of its period.
func periodStart(t time.Time, freq string) (time.Time, error) {
	switch freq {
	case "A", "AS", "Y":
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location()), nil
	case "Q":
		q := (int(t.Month()) - 1) / 3
		return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, t.Location()), nil
	case "M":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()), nil
	case "W":
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		// weeks start on Monday
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), nil
	case "D":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	}
	d, err := freqDuration(freq)
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(d), nil
}

func resampleEntry() Transform {
	return Transform{
		Name: "resample",
		Params: []ParamSpec{
			{Name: "freq", Kind: KindChoice, Choices: []string{
				"A", "Q", "M", "W", "D", "H", "min", "S", "L", "U",
			}, Default: "D"},
			{Name: "agg", Kind: KindChoice, Choices: []string{
				"mean", "sum", "count", "max", "min", "std", "first", "last",
			}, Default: "mean"},
		},
		Apply: func(f *frame.Frame, p Params) (*frame.Frame, error) {
			return Resample(f, ResampleOptions{
				Freq: p.String("freq", "D"),
				Agg:  p.String("agg", "mean"),
			})
		},
	}
}

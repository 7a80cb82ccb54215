package transform

import (
	"github.com/tabulon-io/tabulon/pkg/tabulon/frame"
)

var describeStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe summarises every numeric column with the usual eight
// statistics, one row per statistic.
func Describe(f *frame.Frame) (*frame.Frame, error) {
	valid := make([]bool, len(describeStats))
	for i := range valid {
		valid[i] = true
	}
	out := frame.Empty()
	if err := out.AddColumn(frame.NewStringColumn("stat", describeStats, valid)); err != nil {
		return nil, err
	}
	for ci := 0; ci < f.NumCols(); ci++ {
		c := f.Column(ci)
		switch c.DType() {
		case frame.Int, frame.Float, frame.Bool:
		default:
			continue
		}
		var vals []float64
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Float(i); ok {
				vals = append(vals, v)
			}
		}
		stats := make([]float64, len(describeStats))
		statsValid := make([]bool, len(describeStats))
		stats[0] = float64(len(vals))
		statsValid[0] = true
		if len(vals) > 0 {
			stats[1] = mean(vals)
			stats[2] = std(vals)
			stats[3] = minOf(vals)
			stats[4] = quantile(vals, 0.25)
			stats[5] = quantile(vals, 0.5)
			stats[6] = quantile(vals, 0.75)
			stats[7] = maxOf(vals)
			for i := 1; i < len(statsValid); i++ {
				statsValid[i] = true
			}
		}
		if err := out.AddColumn(frame.NewFloatColumn(c.Name, stats, statsValid)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

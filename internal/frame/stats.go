package frame

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/syntheticlab/dataforge/pkg/models"
)

// Round6 rounds to 6 decimal digits, the precision used by every statistic
// and drift value in profiles and reports.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Round2 rounds to 2 decimal digits.
func Round2(v float64) float64 {
	return math.Round(v*1e2) / 1e2
}

// MissingRatio returns null_count / row_count rounded to 6 digits, and 0.0
// for an empty column.
func (c *Column) MissingRatio() float64 {
	n := c.Len()
	if n == 0 {
		return 0.0
	}
	return Round6(float64(c.NullCount()) / float64(n))
}

// Cardinality returns the number of distinct non-null values.
func (c *Column) Cardinality() int {
	switch c.Kind {
	case KindInt64:
		seen := make(map[int64]struct{})
		for i, v := range c.Ints {
			if c.Valid[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case KindFloat64:
		seen := make(map[float64]struct{})
		for i, v := range c.Floats {
			if c.Valid[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	case KindBool:
		seen := make(map[bool]struct{})
		for i, v := range c.Bools {
			if c.Valid[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	default:
		seen := make(map[string]struct{})
		for i, v := range c.Strings {
			if c.Valid[i] {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
}

// NumericValues returns the non-null values of a numeric column as float64.
func (c *Column) NumericValues() []float64 {
	switch c.Kind {
	case KindInt64:
		out := make([]float64, 0, len(c.Ints))
		for i, v := range c.Ints {
			if c.Valid[i] {
				out = append(out, float64(v))
			}
		}
		return out
	case KindFloat64:
		out := make([]float64, 0, len(c.Floats))
		for i, v := range c.Floats {
			if c.Valid[i] {
				out = append(out, v)
			}
		}
		return out
	default:
		return nil
	}
}

// Stats computes mean, sample standard deviation, min and max over the
// non-null values of a numeric column, each rounded to 6 digits. All fields
// are null for non-numeric columns or when every value is null. Std is null
// for a single observation (sample std is undefined there).
func (c *Column) Stats() models.ColumnStats {
	if !c.IsNumeric() {
		return models.ColumnStats{}
	}
	values := c.NumericValues()
	if len(values) == 0 {
		return models.ColumnStats{}
	}

	mean := Round6(stat.Mean(values, nil))
	min := Round6(floats.Min(values))
	max := Round6(floats.Max(values))
	stats := models.ColumnStats{Mean: &mean, Min: &min, Max: &max}
	if len(values) > 1 {
		std := Round6(stat.StdDev(values, nil))
		stats.Std = &std
	}
	return stats
}

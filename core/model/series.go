package model

import (
	"fmt"
	"math"
)

// TimeSeries is an ordered sequence of annual observations. Years are
// strictly increasing with no duplicates. A TimeSeries is owned by the
// component that produced it and must not be mutated once returned;
// consumers take copies via Clone or the slice accessors.
type TimeSeries struct {
	years  []int
	values []float64
}

// NewTimeSeries builds a TimeSeries from parallel year/value slices.
// It copies both slices and rejects unsorted or duplicate years.
func NewTimeSeries(years []int, values []float64) (TimeSeries, error) {
	if len(years) != len(values) {
		return TimeSeries{}, fmt.Errorf("years and values length mismatch: %d vs %d", len(years), len(values))
	}
	for i := 1; i < len(years); i++ {
		if years[i] <= years[i-1] {
			return TimeSeries{}, fmt.Errorf("years must be strictly increasing: %d followed by %d", years[i-1], years[i])
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TimeSeries{}, fmt.Errorf("non-finite value at year %d", years[i])
		}
	}
	ts := TimeSeries{years: make([]int, len(years)), values: make([]float64, len(values))}
	copy(ts.years, years)
	copy(ts.values, values)
	return ts, nil
}

// MustTimeSeries is NewTimeSeries that panics on invalid input. Intended
// for literals in tests and fixtures.
func MustTimeSeries(years []int, values []float64) TimeSeries {
	ts, err := NewTimeSeries(years, values)
	if err != nil {
		panic(err)
	}
	return ts
}

// Len returns the number of observations.
func (ts TimeSeries) Len() int { return len(ts.years) }

// IsEmpty reports whether the series has no observations.
func (ts TimeSeries) IsEmpty() bool { return len(ts.years) == 0 }

// Years returns a copy of the year axis.
func (ts TimeSeries) Years() []int {
	out := make([]int, len(ts.years))
	copy(out, ts.years)
	return out
}

// Values returns a copy of the value axis.
func (ts TimeSeries) Values() []float64 {
	out := make([]float64, len(ts.values))
	copy(out, ts.values)
	return out
}

// At returns the value for the given year and whether it is present.
func (ts TimeSeries) At(year int) (float64, bool) {
	for i, y := range ts.years {
		if y == year {
			return ts.values[i], true
		}
		if y > year {
			break
		}
	}
	return 0, false
}

// Index returns the observation at position i.
func (ts TimeSeries) Index(i int) (int, float64) { return ts.years[i], ts.values[i] }

// FirstYear returns the earliest year. The series must be non-empty.
func (ts TimeSeries) FirstYear() int { return ts.years[0] }

// LastYear returns the latest year. The series must be non-empty.
func (ts TimeSeries) LastYear() int { return ts.years[len(ts.years)-1] }

// LastValue returns the most recent value. The series must be non-empty.
func (ts TimeSeries) LastValue() float64 { return ts.values[len(ts.values)-1] }

// Clone returns an independent copy of the series.
func (ts TimeSeries) Clone() TimeSeries {
	out := TimeSeries{years: make([]int, len(ts.years)), values: make([]float64, len(ts.values))}
	copy(out.years, ts.years)
	copy(out.values, ts.values)
	return out
}

// Through returns the prefix of the series up to and including year.
func (ts TimeSeries) Through(year int) TimeSeries {
	n := 0
	for n < len(ts.years) && ts.years[n] <= year {
		n++
	}
	return TimeSeries{years: ts.years[:n:n], values: ts.values[:n:n]}
}

// MaxValue returns the largest value and its year. The series must be
// non-empty.
func (ts TimeSeries) MaxValue() (int, float64) {
	year, max := ts.years[0], ts.values[0]
	for i := 1; i < len(ts.values); i++ {
		if ts.values[i] > max {
			year, max = ts.years[i], ts.values[i]
		}
	}
	return year, max
}

// AlignYears returns the years present in both series, in order.
func AlignYears(a, b TimeSeries) []int {
	var out []int
	i, j := 0, 0
	for i < len(a.years) && j < len(b.years) {
		switch {
		case a.years[i] == b.years[j]:
			out = append(out, a.years[i])
			i++
			j++
		case a.years[i] < b.years[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// YearRange returns the inclusive sequence [from, to]. An empty slice is
// returned when from > to.
func YearRange(from, to int) []int {
	if from > to {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

// CostCurve is a unit-normalized cost TimeSeries tagged with the
// technology and region it describes.
type CostCurve struct {
	Technology string
	Region     string
	Unit       string
	Series     TimeSeries
}

// AdoptionCurve is a market-share TimeSeries with values in [0,1].
type AdoptionCurve struct {
	Technology string
	Series     TimeSeries
}

// Validate checks that every share lies in [0,1].
func (c AdoptionCurve) Validate() error {
	for i, v := range c.Series.values {
		if v < 0 || v > 1 {
			return fmt.Errorf("share %g at year %d outside [0,1]", v, c.Series.years[i])
		}
	}
	return nil
}

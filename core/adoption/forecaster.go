package adoption

import (
	"fmt"

	"github.com/enervision/transition/core/model"
)

// Forecast evaluates the fitted logistic over the given years. Shares
// are clamped to [0,1] and forced monotone non-decreasing: the logistic
// form is naturally monotone, but parameter edge cases are clamped
// defensively.
func Forecast(technology string, p Params, years []int) model.AdoptionCurve {
	values := make([]float64, len(years))
	running := 0.0
	for i, y := range years {
		v := Logistic(p, float64(y))
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		if v < running {
			v = running
		}
		running = v
		values[i] = v
	}
	series, _ := model.NewTimeSeries(years, values)
	return model.AdoptionCurve{Technology: technology, Series: series}
}

// ToDemand converts a share curve into absolute demand against the
// market total. Both slices are parallel to the curve's years; demand is
// clamped to [0, market_total].
func ToDemand(curve model.AdoptionCurve, marketTotal []float64) ([]float64, error) {
	shares := curve.Series.Values()
	if len(shares) != len(marketTotal) {
		return nil, fmt.Errorf("adoption: share and market length mismatch: %d vs %d", len(shares), len(marketTotal))
	}
	demand := make([]float64, len(shares))
	for i, s := range shares {
		d := s * marketTotal[i]
		if d < 0 {
			d = 0
		}
		if d > marketTotal[i] {
			d = marketTotal[i]
		}
		demand[i] = d
	}
	return demand, nil
}

// maxTrendPoints bounds the recent-slope window for history extension.
const maxTrendPoints = 5

// ExtendHistory extends a share series to throughYear with a linear
// trend fitted on the last up-to-5 observations, so the logistic fit
// anchors on the observed near-term trend instead of a raw jump.
// Extended values stay in [0,1].
func ExtendHistory(history model.TimeSeries, throughYear int) model.TimeSeries {
	if history.IsEmpty() || throughYear <= history.LastYear() {
		return history
	}
	years := history.Years()
	values := history.Values()

	start := len(years) - maxTrendPoints
	if start < 0 {
		start = 0
	}
	slope := 0.0
	if len(years)-start >= 2 {
		first, last := start, len(years)-1
		slope = (values[last] - values[first]) / float64(years[last]-years[first])
	}

	lastYear := history.LastYear()
	lastValue := history.LastValue()
	for y := lastYear + 1; y <= throughYear; y++ {
		v := lastValue + slope*float64(y-lastYear)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		years = append(years, y)
		values = append(values, v)
	}
	out, _ := model.NewTimeSeries(years, values)
	return out
}

package costcurve

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// theilSen fits slope and intercept as the median of pairwise slopes and
// the median of the per-point intercepts. Robust to outliers, unlike
// ordinary least squares.
func theilSen(xs, ys []float64) (slope, intercept float64) {
	slopes := make([]float64, 0, len(xs)*(len(xs)-1)/2)
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			if xs[j] == xs[i] {
				continue
			}
			slopes = append(slopes, (ys[j]-ys[i])/(xs[j]-xs[i]))
		}
	}
	if len(slopes) == 0 {
		return 0, median(ys)
	}
	slope = median(slopes)
	residuals := make([]float64, len(xs))
	for i := range xs {
		residuals[i] = ys[i] - slope*xs[i]
	}
	return slope, median(residuals)
}

// olsSlope returns the least-squares slope of ys against xs.
func olsSlope(xs, ys []float64) float64 {
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// rollingMedian3 smooths interior points with a centered 3-wide median,
// suppressing single-year noise without discarding trend. Endpoints pass
// through unchanged.
func rollingMedian3(vs []float64) []float64 {
	out := make([]float64, len(vs))
	copy(out, vs)
	for i := 1; i < len(vs)-1; i++ {
		out[i] = median(vs[i-1 : i+2])
	}
	return out
}

// Package adoption fits and projects S-curve technology adoption.
package adoption

import (
	"math"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/logger"
)

// Params are the fitted logistic parameters for
// share(t) = Ceiling / (1 + exp(-Steepness*(t - Inflection))).
type Params struct {
	Ceiling    float64 `json:"ceiling"`
	Steepness  float64 `json:"steepness"`
	Inflection float64 `json:"inflection"`
}

// Logistic evaluates the adoption share at the given year.
func Logistic(p Params, year float64) float64 {
	return p.Ceiling / (1 + math.Exp(-p.Steepness*(year-p.Inflection)))
}

// FitResult reports the fitted parameters and how they were obtained.
type FitResult struct {
	Params     Params  `json:"params"`
	Converged  bool    `json:"converged"`
	Heuristic  bool    `json:"heuristic"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"`
}

const (
	// minUsableShare filters the pre-adoption flat region out of the fit.
	minUsableShare = 0.01

	defaultSteepness = 0.4

	steepnessLo = 0.05
	steepnessHi = 1.5

	fitSeed     = 42
	fitMaxEvals = 1000
)

// Fitter estimates logistic parameters from historical share data.
type Fitter struct {
	ceiling float64
	log     logger.Logger
}

// NewFitter returns a Fitter for the given adoption ceiling. A nil
// logger is replaced by a no-op one.
func NewFitter(ceiling float64, log logger.Logger) *Fitter {
	if ceiling <= 0 || ceiling > 1 {
		ceiling = 0.9
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Fitter{ceiling: ceiling, log: log}
}

// Fit recovers steepness and inflection year from historical (year,
// share) observations. Shares below minUsableShare are dropped; with
// fewer than 3 usable points, or on optimizer failure, heuristic
// defaults are returned instead of an error.
func (f *Fitter) Fit(history model.TimeSeries, tip model.TippingPoint) FitResult {
	years := history.Years()
	shares := history.Values()

	var xs, ys []float64
	for i := range years {
		if shares[i] >= minUsableShare {
			xs = append(xs, float64(years[i]))
			ys = append(ys, shares[i])
		}
	}
	if len(xs) < 3 {
		f.log.Debugf("adoption fit: %d usable points, using heuristic defaults", len(xs))
		return f.heuristic(history, tip)
	}

	lo, hi := f.bounds(xs, tip)
	objective := func(p []float64) float64 {
		k, t0 := p[0], p[1]
		var sse float64
		for i := range xs {
			diff := ys[i] - Logistic(Params{Ceiling: f.ceiling, Steepness: k, Inflection: t0}, xs[i])
			sse += diff * diff
		}
		return sse
	}

	best, residual, iters, err := minimizeBounded(objective, lo, hi, fitSeed, fitMaxEvals)
	if err != nil || !isFinite(best) {
		f.log.Warnf("adoption fit did not converge (%v), using heuristic defaults", err)
		res := f.heuristic(history, tip)
		res.Iterations = iters
		return res
	}
	return FitResult{
		Params:     Params{Ceiling: f.ceiling, Steepness: best[0], Inflection: best[1]},
		Converged:  true,
		Iterations: iters,
		Residual:   residual,
	}
}

// bounds boxes the search: steepness in [0.05, 1.5], inflection within
// tipping_point -5/+10 years when known, otherwise anchored on the
// observed year range.
func (f *Fitter) bounds(xs []float64, tip model.TippingPoint) (lo, hi []float64) {
	var t0Lo, t0Hi float64
	if tip.Found {
		t0Lo = float64(tip.Year) - 5
		t0Hi = float64(tip.Year) + 10
	} else {
		t0Lo = xs[0] - 5
		t0Hi = xs[len(xs)-1] + 10
	}
	return []float64{steepnessLo, t0Lo}, []float64{steepnessHi, t0Hi}
}

func (f *Fitter) heuristic(history model.TimeSeries, tip model.TippingPoint) FitResult {
	inflection := 0.0
	switch {
	case tip.Found:
		inflection = float64(tip.Year)
	case !history.IsEmpty():
		year, _ := history.MaxValue()
		inflection = float64(year)
	}
	return FitResult{
		Params:    Params{Ceiling: f.ceiling, Steepness: defaultSteepness, Inflection: inflection},
		Heuristic: true,
	}
}

func isFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

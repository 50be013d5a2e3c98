package costcurve

import (
	"fmt"
	"math"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/logger"
)

// Method selects the extrapolation algorithm.
type Method string

const (
	// MethodLinear extrapolates with a Theil-Sen robust linear fit.
	MethodLinear Method = "linear"
	// MethodLogCAGR fits a line in log-value space and projects the
	// implied compound annual growth rate.
	MethodLogCAGR Method = "logcagr"
)

// Config holds extrapolation parameters.
type Config struct {
	Method Method `json:"method"`
	// MaxCAGR caps the implied compound annual growth rate. For the
	// linear method the slope is rescaled from the fit's endpoints;
	// for the log method the rate itself is capped. Sign preserved.
	MaxCAGR float64 `json:"max_cagr"`
	// FloorRatio keeps log-CAGR forecasts above this fraction of the
	// last known value.
	FloorRatio float64 `json:"floor_ratio"`
	// MaxAnnualDecline caps the year-over-year fractional drop of
	// log-CAGR forecasts.
	MaxAnnualDecline float64 `json:"max_annual_decline"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Method == "" {
		c.Method = MethodLogCAGR
	}
	if c.MaxCAGR == 0 {
		c.MaxCAGR = 0.3
	}
	if c.FloorRatio == 0 {
		c.FloorRatio = 0.2
	}
	if c.MaxAnnualDecline == 0 {
		c.MaxAnnualDecline = 0.3
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Method != MethodLinear && c.Method != MethodLogCAGR {
		return fmt.Errorf("unknown cost method %s", c.Method)
	}
	if c.MaxCAGR <= 0 {
		return fmt.Errorf("max_cagr must be positive")
	}
	if c.FloorRatio < 0 || c.FloorRatio >= 1 {
		return fmt.Errorf("floor_ratio must be in [0,1)")
	}
	if c.MaxAnnualDecline <= 0 || c.MaxAnnualDecline >= 1 {
		return fmt.Errorf("max_annual_decline must be in (0,1)")
	}
	return nil
}

// Forecaster extends historical cost curves to a target year.
type Forecaster struct {
	cfg Config
	log logger.Logger
}

// New returns a Forecaster. A nil logger is replaced by a no-op one.
func New(cfg Config, log logger.Logger) *Forecaster {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Forecaster{cfg: cfg, log: log}
}

// Forecast returns a curve covering the historical years plus every year
// through endYear. Historical values are kept verbatim; a 3-year rolling
// median is applied only to the data used for fitting.
func (f *Forecaster) Forecast(curve model.CostCurve, endYear int) (model.CostCurve, error) {
	series, err := f.ForecastSeries(curve.Series, endYear)
	if err != nil {
		return model.CostCurve{}, fmt.Errorf("cost curve %s/%s: %w", curve.Technology, curve.Region, err)
	}
	out := curve
	out.Series = series
	return out, nil
}

// ForecastSeries is Forecast for a bare series. It also serves demand
// extrapolation, e.g. extending a market total to the horizon.
func (f *Forecaster) ForecastSeries(hist model.TimeSeries, endYear int) (model.TimeSeries, error) {
	if hist.IsEmpty() {
		return model.TimeSeries{}, fmt.Errorf("no historical data")
	}
	if endYear <= hist.LastYear() {
		return hist.Through(endYear), nil
	}

	years := hist.Years()
	values := hist.Values()
	horizon := model.YearRange(hist.LastYear()+1, endYear)

	var forecast []float64
	switch {
	case hist.Len() < 2:
		forecast = flatContinuation(hist.LastValue(), len(horizon))
	case f.cfg.Method == MethodLogCAGR && allPositive(values):
		forecast = f.logCAGR(years, rollingMedian3(values), hist.LastValue(), len(horizon))
	default:
		if f.cfg.Method == MethodLogCAGR {
			f.log.Warnf("series has non-positive values, falling back to linear fit")
		}
		forecast = f.linear(years, rollingMedian3(values), hist.LastYear(), hist.LastValue(), len(horizon))
	}

	return model.NewTimeSeries(append(years, horizon...), append(values, forecast...))
}

func flatContinuation(last float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = last
	}
	return out
}

// linear projects a Theil-Sen fit forward from the last known value. The
// implied endpoint CAGR is capped at MaxCAGR by rescaling the slope.
func (f *Forecaster) linear(years []int, smoothed []float64, lastYear int, lastValue float64, n int) []float64 {
	xs := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y - years[0])
	}
	slope, _ := theilSen(xs, smoothed)

	if lastValue > 0 && n > 0 {
		projected := lastValue + slope*float64(n)
		if projected > 0 {
			implied := math.Pow(projected/lastValue, 1/float64(n)) - 1
			if math.Abs(implied) > f.cfg.MaxCAGR {
				capped := math.Copysign(f.cfg.MaxCAGR, implied)
				target := lastValue * math.Pow(1+capped, float64(n))
				slope = (target - lastValue) / float64(n)
			}
		}
	}

	out := make([]float64, n)
	for i := range out {
		v := lastValue + slope*float64(i+1)
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}

// logCAGR fits log(value) against year with least squares, projects
// forward in log space, then applies the decline cap and floor ratio.
func (f *Forecaster) logCAGR(years []int, smoothed []float64, lastValue float64, n int) []float64 {
	xs := make([]float64, len(years))
	logs := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y - years[0])
		v := smoothed[i]
		if v <= 0 {
			// smoothing cannot introduce non-positives, but guard anyway
			v = lastValue
		}
		logs[i] = math.Log(v)
	}
	rate := olsSlope(xs, logs)
	// cap the implied growth rate, sign preserved
	if maxRate := math.Log1p(f.cfg.MaxCAGR); math.Abs(rate) > maxRate {
		rate = math.Copysign(maxRate, rate)
	}

	floor := f.cfg.FloorRatio * lastValue
	out := make([]float64, n)
	prev := lastValue
	for i := range out {
		v := lastValue * math.Exp(rate*float64(i+1))
		if min := prev * (1 - f.cfg.MaxAnnualDecline); v < min {
			v = min
		}
		if v < floor {
			v = floor
		}
		out[i] = v
		prev = v
	}
	return out
}

func allPositive(vs []float64) bool {
	for _, v := range vs {
		if v <= 0 {
			return false
		}
	}
	return true
}

// Package engine orchestrates one technology-transition forecast run:
// cost extrapolation, tipping-point detection, S-curve adoption,
// chimera decline, residual decomposition, stock-flow accounting and
// validation, in an explicit dependency order.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/enervision/transition/core/adoption"
	"github.com/enervision/transition/core/chimera"
	"github.com/enervision/transition/core/costcurve"
	coremetrics "github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/core/repository"
	"github.com/enervision/transition/core/residual"
	"github.com/enervision/transition/core/stockflow"
	"github.com/enervision/transition/core/tipping"
	"github.com/enervision/transition/core/validate"
	"github.com/enervision/transition/infra/logger"
)

// maxShareExtensionYears bounds the pre-fit linear extension of share
// history toward the tipping point.
const maxShareExtensionYears = 5

// Repository is the data facade one run reads from. Implementations are
// scoped to the run; the engine performs no I/O itself.
type Repository interface {
	repository.SeriesRepository
	repository.TaxonomyRepository
}

// Engine runs forecasts. It is stateless across runs: every run owns
// its own inputs and outputs.
type Engine struct {
	repo Repository
	sink coremetrics.Sink
	log  logger.Logger
}

// New creates an Engine. Nil sink or logger default to no-ops.
func New(repo Repository, sink coremetrics.Sink, log logger.Logger) *Engine {
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{repo: repo, sink: sink, log: log}
}

// run carries the working state of one forecast.
type run struct {
	cfg         Config
	years       []int
	marketHist  model.TimeSeries
	marketTotal []float64
	tax         taxonomy
	tips        map[string]model.TippingPoint
	challengers map[string][]float64
	chimeras    map[string][]float64
	// fallbacks records every substitution taken for missing or
	// rejected data; they surface as report warnings so no fallback is
	// ever silent.
	fallbacks []string
}

// Forecast executes one run and returns the forecast with its
// validation report. The forecast is returned even when validation
// fails; callers decide whether that is fatal.
func (e *Engine) Forecast(cfg Config) (model.MarketForecast, *model.ValidationReport, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return model.MarketForecast{}, nil, fmt.Errorf("forecast config: %w", err)
	}
	start := time.Now()
	runID := uuid.NewString()

	r := &run{
		cfg:         cfg,
		tips:        make(map[string]model.TippingPoint),
		challengers: make(map[string][]float64),
		chimeras:    make(map[string][]float64),
	}

	techs, err := e.repo.Technologies(cfg.Market, cfg.Region)
	if err != nil {
		return model.MarketForecast{}, nil, fmt.Errorf("taxonomy %s/%s: %w", cfg.Market, cfg.Region, err)
	}
	r.tax, err = buildTaxonomy(techs)
	if err != nil {
		return model.MarketForecast{}, nil, fmt.Errorf("taxonomy %s/%s: %w", cfg.Market, cfg.Region, err)
	}
	ordered, err := r.tax.order()
	if err != nil {
		return model.MarketForecast{}, nil, fmt.Errorf("taxonomy %s/%s: %w", cfg.Market, cfg.Region, err)
	}

	if err := e.forecastMarketTotal(r); err != nil {
		// the market total is essential: no fallback can stand in
		return model.MarketForecast{}, nil, err
	}

	for _, tech := range ordered {
		switch tech.Role {
		case model.RoleDisruptor:
			e.forecastDisruptor(r, tech)
		case model.RoleChimera:
			e.forecastChimera(r, tech)
		}
	}

	mf, err := residual.Decompose(residual.Input{
		Market:      cfg.Market,
		Region:      cfg.Region,
		Years:       r.years,
		MarketTotal: r.marketTotal,
		Incumbent:   r.tax.incumbent.Name,
		Challengers: r.challengers,
		Chimeras:    r.chimeras,
	})
	if err != nil {
		return model.MarketForecast{}, nil, fmt.Errorf("decompose %s/%s: %w", cfg.Market, cfg.Region, err)
	}
	mf.TippingPoints = r.tips

	e.accountStocks(r, &mf, ordered)

	report := validate.New(cfg.Validation).Validate(mf)
	for _, f := range r.fallbacks {
		report.AddWarning("%s", f)
	}

	ev := coremetrics.ForecastRunEvent{
		RunID:        runID,
		Market:       cfg.Market,
		Region:       cfg.Region,
		Technologies: len(mf.Demand),
		Passed:       report.Passed,
		Errors:       len(report.Errors),
		Warnings:     len(report.Warnings),
		Duration:     time.Since(start),
		Time:         start,
	}
	if err := e.sink.RecordForecastRun(ev); err != nil {
		e.log.Warnf("metrics: record run: %v", err)
	}
	if err := e.sink.RecordForecast(runID, mf); err != nil {
		e.log.Warnf("metrics: record forecast: %v", err)
	}
	e.log.Infof("forecast %s/%s run %s: %d technologies over %d-%d, passed=%v",
		cfg.Market, cfg.Region, runID, len(mf.Demand), r.years[0], r.years[len(r.years)-1], report.Passed)

	return mf, report, nil
}

// forecastMarketTotal extends the market demand series to the horizon
// with the growth-capped log-CAGR method and fixes the forecast years.
func (e *Engine) forecastMarketTotal(r *run) error {
	hist, err := e.repo.DemandSeries(r.tax.market.Name, r.cfg.Region)
	if err != nil {
		return fmt.Errorf("market total %s/%s: %w", r.tax.market.Name, r.cfg.Region, err)
	}
	if hist.IsEmpty() {
		return fmt.Errorf("market total %s/%s: empty series", r.tax.market.Name, r.cfg.Region)
	}
	if r.cfg.EndYear <= hist.LastYear() {
		return fmt.Errorf("market total %s/%s: end_year %d not beyond history ending %d",
			r.tax.market.Name, r.cfg.Region, r.cfg.EndYear, hist.LastYear())
	}

	f := costcurve.New(costcurve.Config{Method: costcurve.MethodLogCAGR, MaxCAGR: r.cfg.MaxMarketCAGR}, e.log)
	extended, err := f.ForecastSeries(hist, r.cfg.EndYear)
	if err != nil {
		return fmt.Errorf("market total %s/%s: %w", r.tax.market.Name, r.cfg.Region, err)
	}

	r.marketHist = hist
	r.years = model.YearRange(hist.LastYear()+1, r.cfg.EndYear)
	r.marketTotal = make([]float64, len(r.years))
	for i, y := range r.years {
		v, _ := extended.At(y)
		r.marketTotal[i] = v
	}
	return nil
}

// forecastDisruptor runs cost extrapolation, tipping detection, the
// logistic fit and the share forecast for one challenger.
func (e *Engine) forecastDisruptor(r *run, tech model.Technology) {
	tip := e.detectTipping(r, tech)
	r.tips[tech.Name] = tip

	demandHist, err := e.repo.DemandSeries(tech.Name, r.cfg.Region)
	if errors.Is(err, repository.ErrDataNotFound) || (err == nil && demandHist.IsEmpty()) {
		r.fallback("challenger %s has no demand history, contributing zero", tech.Name)
		r.challengers[tech.Name] = make([]float64, len(r.years))
		return
	}
	if err != nil {
		r.fallback("challenger %s demand rejected (%v), contributing zero", tech.Name, err)
		r.challengers[tech.Name] = make([]float64, len(r.years))
		return
	}

	shareHist := shareOf(demandHist, r.marketHist)
	if tip.Found && tip.Year > shareHist.LastYear() {
		through := tip.Year
		if max := shareHist.LastYear() + maxShareExtensionYears; through > max {
			through = max
		}
		shareHist = adoption.ExtendHistory(shareHist, through)
	}

	fit := adoption.NewFitter(r.cfg.LogisticCeiling, e.log).Fit(shareHist, tip)
	if fit.Heuristic {
		r.fallback("challenger %s adoption fit used heuristic defaults", tech.Name)
	}
	curve := adoption.Forecast(tech.Name, fit.Params, r.years)
	demand, err := adoption.ToDemand(curve, r.marketTotal)
	if err != nil {
		r.fallback("challenger %s demand conversion failed (%v), contributing zero", tech.Name, err)
		demand = make([]float64, len(r.years))
	}
	r.challengers[tech.Name] = demand
}

// detectTipping extends both cost curves and scans for a sustained
// crossover. Missing cost data degrades to "no tipping point" with the
// fallback recorded.
func (e *Engine) detectTipping(r *run, tech model.Technology) model.TippingPoint {
	notFound := model.TippingPoint{PersistenceYears: r.cfg.TippingPersistenceYears}

	incumbentCost, err := e.repo.CostSeries(costRef(r.tax.incumbent), r.cfg.Region)
	if err != nil {
		r.fallback("incumbent %s has no cost series, tipping not evaluated for %s", r.tax.incumbent.Name, tech.Name)
		return notFound
	}
	challengerCost, err := e.repo.CostSeries(costRef(tech), r.cfg.Region)
	if err != nil {
		r.fallback("challenger %s has no cost series, tipping not evaluated", tech.Name)
		return notFound
	}

	f := costcurve.New(r.cfg.Cost, e.log)
	incumbentCurve, err := f.Forecast(model.CostCurve{Technology: r.tax.incumbent.Name, Region: r.cfg.Region, Series: incumbentCost}, r.cfg.EndYear)
	if err != nil {
		r.fallback("incumbent %s cost extrapolation failed (%v), tipping not evaluated for %s", r.tax.incumbent.Name, err, tech.Name)
		return notFound
	}
	challengerCurve, err := f.Forecast(model.CostCurve{Technology: tech.Name, Region: r.cfg.Region, Series: challengerCost}, r.cfg.EndYear)
	if err != nil {
		r.fallback("challenger %s cost extrapolation failed (%v), tipping not evaluated", tech.Name, err)
		return notFound
	}

	tip, err := tipping.NewDetector(r.cfg.TippingPersistenceYears).Detect(challengerCurve, incumbentCurve)
	if err != nil {
		r.fallback("tipping detection failed for %s (%v)", tech.Name, err)
		return notFound
	}
	return tip
}

// forecastChimera projects one transitional technology.
func (e *Engine) forecastChimera(r *run, tech model.Technology) {
	demandHist, err := e.repo.DemandSeries(tech.Name, r.cfg.Region)
	if errors.Is(err, repository.ErrDataNotFound) || (err == nil && demandHist.IsEmpty()) {
		r.fallback("chimera %s has no demand history, contributing zero", tech.Name)
		r.chimeras[tech.Name] = make([]float64, len(r.years))
		return
	}
	if err != nil {
		r.fallback("chimera %s demand rejected (%v), contributing zero", tech.Name, err)
		r.chimeras[tech.Name] = make([]float64, len(r.years))
		return
	}

	shareHist := shareOf(demandHist, r.marketHist)
	demand, meta, err := chimera.New(r.cfg.Chimera, e.log).Forecast(tech.Name, shareHist, r.years, r.marketTotal)
	if err != nil {
		r.fallback("chimera %s forecast failed (%v), contributing zero", tech.Name, err)
		demand = make([]float64, len(r.years))
	}
	if meta.HasSignificantPresence {
		e.log.Debugw("chimera peak", map[string]any{
			"technology": tech.Name,
			"peak_year":  meta.PeakYear,
			"peak_share": meta.PeakShare,
		})
	}
	r.chimeras[tech.Name] = demand
}

// accountStocks runs the stock-flow recurrence per technology with a
// lifetime, seeding the initial fleet from installed-base history when
// available, and derives replacement demand guarded by the sanity floor.
func (e *Engine) accountStocks(r *run, mf *model.MarketForecast, ordered []model.Technology) {
	for _, tech := range ordered {
		if tech.Role == model.RoleMarket || tech.LifetimeYears <= 0 {
			continue
		}

		initial := 0.0
		hist, err := e.repo.InstalledBaseSeries(tech.Name, r.cfg.Region)
		if err != nil {
			r.fallback("installed base for %s rejected (%v), seeding from zero", tech.Name, err)
		} else if !hist.IsEmpty() {
			if v, ok := hist.At(r.years[0] - 1); ok {
				initial = v
			} else {
				initial = hist.LastValue()
			}
		}

		acct := stockflow.Accountant{LifetimeYears: tech.LifetimeYears, InitialFleet: initial}
		base, err := acct.Account(tech.Name, r.years, mf.Demand[tech.Name])
		if err != nil {
			r.fallback("stock-flow accounting failed for %s (%v)", tech.Name, err)
			continue
		}
		if mf.InstalledBase == nil {
			mf.InstalledBase = make(map[string]model.InstalledBase)
		}
		mf.InstalledBase[tech.Name] = base

		if tech.ContentCoefficient <= 0 {
			continue
		}
		replacement := acct.ReplacementDemand(base, tech.ContentCoefficient)
		if mf.Replacement == nil {
			mf.Replacement = make(map[string][]float64)
		}
		mf.Replacement[tech.Name] = replacement

		last := len(r.years) - 1
		direct := mf.Demand[tech.Name][last]
		if direct > 0 && replacement[last] < r.cfg.ReplacementSanityFloor*direct {
			r.fallback("replacement demand for %s is %.3g at the horizon, below %.0f%% of direct demand %.3g; check fleet and content inputs",
				tech.Name, replacement[last], r.cfg.ReplacementSanityFloor*100, direct)
		}
	}
}

func (r *run) fallback(format string, args ...any) {
	r.fallbacks = append(r.fallbacks, fmt.Sprintf(format, args...))
}

func costRef(t model.Technology) string {
	if t.CostRef != "" {
		return t.CostRef
	}
	return t.Name
}

// shareOf converts a demand history into a share-of-market history over
// the years both series cover, clamped to [0,1].
func shareOf(demand, market model.TimeSeries) model.TimeSeries {
	years := model.AlignYears(demand, market)
	values := make([]float64, len(years))
	for i, y := range years {
		d, _ := demand.At(y)
		m, _ := market.At(y)
		if m > 0 {
			s := d / m
			if s < 0 {
				s = 0
			}
			if s > 1 {
				s = 1
			}
			values[i] = s
		}
	}
	ts, _ := model.NewTimeSeries(years, values)
	return ts
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/core/model"
)

// PromSink records forecast runs in Prometheus metrics.
type PromSink struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	findings *prometheus.CounterVec
	demand   *prometheus.GaugeVec
}

// NewPromSink registers forecast metrics on the default Prometheus
// registerer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_runs_total",
		Help: "Total number of forecast runs",
	}, []string{"market", "region", "passed"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_run_duration_seconds",
		Help:    "Wall-clock duration of a forecast run",
		Buckets: prometheus.DefBuckets,
	}, []string{"market", "region"})
	findings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_validation_findings_total",
		Help: "Validation errors and warnings reported per run",
	}, []string{"market", "region", "severity"})
	demand := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "forecast_horizon_demand",
		Help: "Forecast demand at the horizon year per technology",
	}, []string{"market", "region", "technology"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(findings); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			findings = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(demand); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			demand = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{runs: runs, duration: duration, findings: findings, demand: demand}, nil
}

// RecordForecastRun increments the run counters and duration histogram.
func (s *PromSink) RecordForecastRun(ev coremetrics.ForecastRunEvent) error {
	s.runs.WithLabelValues(ev.Market, ev.Region, strconv.FormatBool(ev.Passed)).Inc()
	s.duration.WithLabelValues(ev.Market, ev.Region).Observe(ev.Duration.Seconds())
	s.findings.WithLabelValues(ev.Market, ev.Region, "error").Add(float64(ev.Errors))
	s.findings.WithLabelValues(ev.Market, ev.Region, "warning").Add(float64(ev.Warnings))
	return nil
}

// RecordForecast exposes each technology's horizon-year demand.
func (s *PromSink) RecordForecast(_ string, mf model.MarketForecast) error {
	if len(mf.Years) == 0 {
		return nil
	}
	last := len(mf.Years) - 1
	for name, demand := range mf.Demand {
		s.demand.WithLabelValues(mf.Market, mf.Region, name).Set(demand[last])
	}
	return nil
}

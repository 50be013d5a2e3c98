// Package metrics defines the observability contract for forecast runs.
package metrics

import (
	"time"

	"github.com/enervision/transition/core/model"
)

// ForecastRunEvent summarizes one completed forecast run.
type ForecastRunEvent struct {
	RunID        string
	Market       string
	Region       string
	Technologies int
	Passed       bool
	Errors       int
	Warnings     int
	Duration     time.Duration
	Time         time.Time
}

// Sink records forecast observability events.
type Sink interface {
	// RecordForecastRun records the outcome of a run.
	RecordForecastRun(ev ForecastRunEvent) error
	// RecordForecast records the per-technology demand series of a run.
	RecordForecast(runID string, mf model.MarketForecast) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordForecastRun(ForecastRunEvent) error          { return nil }
func (NopSink) RecordForecast(string, model.MarketForecast) error { return nil }

// MultiSink fans events out to several sinks, returning the first error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordForecastRun(ev ForecastRunEvent) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordForecastRun(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiSink) RecordForecast(runID string, mf model.MarketForecast) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordForecast(runID, mf); err != nil && first == nil {
			first = err
		}
	}
	return first
}

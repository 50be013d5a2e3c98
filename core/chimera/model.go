// Package chimera models transitional technologies that rise while a
// disruption is incomplete, peak, then decline as it matures.
package chimera

import (
	"fmt"
	"math"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/logger"
)

// Config holds decline-model parameters.
type Config struct {
	// HalfLifeYears controls the post-peak exponential decay.
	HalfLifeYears float64 `json:"half_life_years"`
	// PeakWindow is the rolling detection window in years.
	PeakWindow int `json:"peak_window"`
	// MinSignificantShare is the share below which the technology is
	// treated as having no significant presence.
	MinSignificantShare float64 `json:"min_significant_share"`
	// TargetShare floors the decayed tail. Usually zero.
	TargetShare float64 `json:"target_share"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.HalfLifeYears == 0 {
		c.HalfLifeYears = 6
	}
	if c.PeakWindow == 0 {
		c.PeakWindow = 5
	}
	if c.MinSignificantShare == 0 {
		c.MinSignificantShare = 0.01
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.HalfLifeYears <= 0 {
		return fmt.Errorf("half_life_years must be positive")
	}
	if c.PeakWindow < 1 {
		return fmt.Errorf("peak_window must be at least 1")
	}
	if c.MinSignificantShare < 0 || c.MinSignificantShare > 1 {
		return fmt.Errorf("min_significant_share must be in [0,1]")
	}
	if c.TargetShare < 0 || c.TargetShare > 1 {
		return fmt.Errorf("target_share must be in [0,1]")
	}
	return nil
}

// Meta describes the detected peak for one technology.
type Meta struct {
	HasSignificantPresence bool    `json:"has_significant_presence"`
	PeakYear               int     `json:"peak_year"`
	PeakShare              float64 `json:"peak_share"`
}

// Model produces rise-then-decline forecasts.
type Model struct {
	cfg Config
	log logger.Logger
}

// New returns a Model. A nil logger is replaced by a no-op one.
func New(cfg Config, log logger.Logger) *Model {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Model{cfg: cfg, log: log}
}

// Forecast projects the technology's demand over the forecast years.
// history is the historical share-of-market series; marketTotal is
// parallel to years. With no significant peak the forecast is flat
// near-zero, not a fitted decay curve.
func (m *Model) Forecast(technology string, history model.TimeSeries, years []int, marketTotal []float64) ([]float64, Meta, error) {
	if len(years) != len(marketTotal) {
		return nil, Meta{}, fmt.Errorf("chimera %s: years and market length mismatch: %d vs %d", technology, len(years), len(marketTotal))
	}

	peakYear, peakShare, found := m.detectPeak(history)
	if !found {
		m.log.Debugf("chimera %s: no share above %g, flat near-zero forecast", technology, m.cfg.MinSignificantShare)
		return make([]float64, len(years)), Meta{}, nil
	}
	meta := Meta{HasSignificantPresence: true, PeakYear: peakYear, PeakShare: peakShare}

	lastShare := 0.0
	if !history.IsEmpty() {
		lastShare = history.LastValue()
	}

	demand := make([]float64, len(years))
	for i, y := range years {
		var share float64
		switch {
		case y < peakYear:
			// linear ramp from the last observed share toward the peak
			span := float64(peakYear - history.LastYear())
			if span <= 0 {
				share = peakShare
			} else {
				share = lastShare + (peakShare-lastShare)*float64(y-history.LastYear())/span
			}
		case y == peakYear:
			share = peakShare
		default:
			share = peakShare * math.Exp2(-float64(y-peakYear)/m.cfg.HalfLifeYears)
			if share < m.cfg.TargetShare {
				share = m.cfg.TargetShare
			}
		}
		if share < 0 {
			share = 0
		}
		d := share * marketTotal[i]
		if d < 0 {
			d = 0
		}
		if d > marketTotal[i] {
			d = marketTotal[i]
		}
		demand[i] = d
	}
	return demand, meta, nil
}

// detectPeak scans the history inside a rolling window for a local
// maximum exceeding the significance threshold.
func (m *Model) detectPeak(history model.TimeSeries) (int, float64, bool) {
	if history.IsEmpty() {
		return 0, 0, false
	}
	years := history.Years()
	values := history.Values()

	bestYear, bestShare := 0, 0.0
	for i := range values {
		lo := i - m.cfg.PeakWindow/2
		hi := i + m.cfg.PeakWindow/2
		if lo < 0 {
			lo = 0
		}
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		localMax := true
		for j := lo; j <= hi; j++ {
			if values[j] > values[i] {
				localMax = false
				break
			}
		}
		if localMax && values[i] > bestShare {
			bestYear, bestShare = years[i], values[i]
		}
	}
	if bestShare < m.cfg.MinSignificantShare {
		return 0, 0, false
	}
	return bestYear, bestShare, true
}

package engine

import (
	"fmt"
	"time"

	"github.com/enervision/transition/core/chimera"
	"github.com/enervision/transition/core/costcurve"
	"github.com/enervision/transition/core/validate"
)

// Config describes one forecast run.
type Config struct {
	// Market names the taxonomy entry whose demand series is the
	// market total.
	Market string `json:"market"`
	Region string `json:"region"`
	// EndYear is the forecast horizon (inclusive).
	EndYear int `json:"end_year"`

	// LogisticCeiling bounds challenger adoption share.
	LogisticCeiling float64 `json:"logistic_ceiling"`
	// MaxMarketCAGR caps the market-total extrapolation growth rate.
	MaxMarketCAGR float64 `json:"max_market_cagr"`
	// TippingPersistenceYears is the crossover confirmation window.
	TippingPersistenceYears int `json:"tipping_persistence_years"`
	// ReplacementSanityFloor flags bottom-up replacement demand below
	// this fraction of a technology's direct demand at the horizon.
	ReplacementSanityFloor float64 `json:"replacement_sanity_floor"`

	Cost       costcurve.Config `json:"cost"`
	Chimera    chimera.Config   `json:"chimera"`
	Validation validate.Config  `json:"validation"`
}

// SetDefaults applies the documented defaults.
func (c *Config) SetDefaults() {
	if c.EndYear == 0 {
		c.EndYear = time.Now().Year() + 20
	}
	if c.LogisticCeiling == 0 {
		c.LogisticCeiling = 0.9
	}
	if c.MaxMarketCAGR == 0 {
		c.MaxMarketCAGR = 0.05
	}
	if c.TippingPersistenceYears == 0 {
		c.TippingPersistenceYears = 3
	}
	if c.ReplacementSanityFloor == 0 {
		c.ReplacementSanityFloor = 0.05
	}
	c.Cost.SetDefaults()
	c.Chimera.SetDefaults()
	c.Validation.SetDefaults()
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Market == "" {
		return fmt.Errorf("market is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.LogisticCeiling <= 0 || c.LogisticCeiling > 1 {
		return fmt.Errorf("logistic_ceiling must be in (0,1]")
	}
	if c.MaxMarketCAGR <= 0 {
		return fmt.Errorf("max_market_cagr must be positive")
	}
	if c.TippingPersistenceYears < 1 {
		return fmt.Errorf("tipping_persistence_years must be at least 1")
	}
	if err := c.Cost.Validate(); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	if err := c.Chimera.Validate(); err != nil {
		return fmt.Errorf("chimera: %w", err)
	}
	return nil
}

package model

import "fmt"

// MarketForecast bundles the per-technology outcome of one forecast run.
// All slices are parallel to Years. The sum of per-technology demand
// equals MarketTotal for every year by construction (the incumbent is a
// residual), not by post-hoc adjustment.
type MarketForecast struct {
	Market        string                   `json:"market"`
	Region        string                   `json:"region"`
	Years         []int                    `json:"years"`
	MarketTotal   []float64                `json:"market_total"`
	Demand        map[string][]float64     `json:"per_technology_demand"`
	Share         map[string][]float64     `json:"per_technology_share"`
	Roles         map[string]Role          `json:"roles"`
	Replacement   map[string][]float64     `json:"replacement_demand,omitempty"`
	InstalledBase map[string]InstalledBase `json:"installed_base,omitempty"`
	TippingPoints map[string]TippingPoint  `json:"tipping_points,omitempty"`
}

// Technologies returns the technology names with a demand series, in no
// particular order.
func (f MarketForecast) Technologies() []string {
	out := make([]string, 0, len(f.Demand))
	for name := range f.Demand {
		out = append(out, name)
	}
	return out
}

// TippingPoint is the first year a challenger's cost sustainably
// undercuts the incumbent's. Found is false when no year within the
// horizon satisfies the persistence window.
type TippingPoint struct {
	Year             int  `json:"year"`
	Found            bool `json:"found"`
	PersistenceYears int  `json:"persistence_years"`
}

// InstalledBase tracks a technology's stock level per forecast year.
// It is seeded at the first forecast year and updated once per year by
// the stock-flow recurrence; it is never mutated elsewhere.
type InstalledBase struct {
	Technology  string    `json:"technology"`
	Fleet       []float64 `json:"fleet"`
	Additions   []float64 `json:"additions"`
	Retirements []float64 `json:"retirements"`
}

// ValidationReport collects the outcome of every consistency check for
// one forecast run. It is created once per run and read-only afterward.
type ValidationReport struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidationReport returns a passing empty report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{Passed: true}
}

// AddError records a failed check and marks the report as failed.
func (r *ValidationReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Passed = false
}

// AddWarning records a non-fatal finding.
func (r *ValidationReport) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Package stockflow evolves installed-base (fleet) levels from annual
// additions and age-based retirements.
package stockflow

import (
	"fmt"

	"github.com/enervision/transition/core/model"
)

// Accountant applies the stock-flow recurrence for one technology.
type Accountant struct {
	// LifetimeYears drives the single-exponential retirement
	// approximation: a constant 1/lifetime fraction of the stock
	// retires each year.
	LifetimeYears float64
	// InitialFleet seeds the stock at the first year. Zero unless
	// seeded from historical data.
	InitialFleet float64
}

// Account produces the installed-base series for the given annual
// additions. fleet[0] = initial + additions[0]; afterwards
// fleet[t] = fleet[t-1] + additions[t] - fleet[t-1]/lifetime, clamped at
// zero. The recurrence is pure, so identical inputs give bit-identical
// output.
func (a Accountant) Account(technology string, years []int, additions []float64) (model.InstalledBase, error) {
	if a.LifetimeYears <= 0 {
		return model.InstalledBase{}, fmt.Errorf("stockflow %s: lifetime must be positive", technology)
	}
	if len(years) != len(additions) {
		return model.InstalledBase{}, fmt.Errorf("stockflow %s: years and additions length mismatch: %d vs %d", technology, len(years), len(additions))
	}

	fleet := make([]float64, len(additions))
	retirements := make([]float64, len(additions))
	for t := range additions {
		if t == 0 {
			fleet[0] = a.InitialFleet + additions[0]
		} else {
			retirements[t] = fleet[t-1] / a.LifetimeYears
			fleet[t] = fleet[t-1] + additions[t] - retirements[t]
		}
		if fleet[t] < 0 {
			fleet[t] = 0
		}
	}
	return model.InstalledBase{
		Technology:  technology,
		Fleet:       fleet,
		Additions:   append([]float64(nil), additions...),
		Retirements: retirements,
	}, nil
}

// ReplacementDemand reuses the retirement recurrence to compute
// equipment replacement demand:
// replacement[t] = fleet[t-1]/lifetime x contentCoefficient.
func (a Accountant) ReplacementDemand(base model.InstalledBase, contentCoefficient float64) []float64 {
	out := make([]float64, len(base.Fleet))
	for t := 1; t < len(base.Fleet); t++ {
		out[t] = base.Fleet[t-1] / a.LifetimeYears * contentCoefficient
	}
	return out
}

// Package validate checks forecast outputs against the engine's
// consistency invariants.
package validate

import (
	"math"
	"sort"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/core/residual"
)

// Config holds the validator tolerances.
type Config struct {
	// SumTolerance is the relative tolerance on sum-to-total.
	SumTolerance float64 `json:"sum_tolerance"`
	// JumpThreshold flags year-over-year relative changes above it.
	JumpThreshold float64 `json:"jump_threshold"`
	// MassBalanceTolerance bounds the relative stock-flow error.
	MassBalanceTolerance float64 `json:"mass_balance_tolerance"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.SumTolerance == 0 {
		c.SumTolerance = 0.02
	}
	if c.JumpThreshold == 0 {
		c.JumpThreshold = 1.0
	}
	if c.MassBalanceTolerance == 0 {
		c.MassBalanceTolerance = 0.001
	}
}

// Validator runs every consistency check independently; no failing check
// blocks the others.
type Validator struct {
	cfg Config
}

// New returns a Validator.
func New(cfg Config) Validator {
	cfg.SetDefaults()
	return Validator{cfg: cfg}
}

// Validate checks the forecast and returns the report. The forecast is
// still usable when the report fails; callers decide whether a failed
// validation is fatal.
func (v Validator) Validate(mf model.MarketForecast) *model.ValidationReport {
	report := model.NewValidationReport()
	v.checkNonNegative(mf, report)
	v.checkMonotoneShares(mf, report)
	v.checkSumToTotal(mf, report)
	v.checkJumps(mf, report)
	v.checkMassBalance(mf, report)
	return report
}

func sortedNames(m map[string][]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v Validator) checkNonNegative(mf model.MarketForecast, report *model.ValidationReport) {
	for _, name := range sortedNames(mf.Demand) {
		for i, d := range mf.Demand[name] {
			if d < 0 {
				report.AddError("negative demand %g for %s in %d", d, name, mf.Years[i])
			}
		}
	}
	for name, base := range mf.InstalledBase {
		for i, f := range base.Fleet {
			if f < 0 {
				report.AddError("negative fleet %g for %s at index %d", f, name, i)
			}
		}
	}
}

// checkMonotoneShares requires disruptor adoption shares to never
// decrease. Chimeras rise then decline, so their decreases are
// expected and only reported as warnings. Incumbents are exempt.
func (v Validator) checkMonotoneShares(mf model.MarketForecast, report *model.ValidationReport) {
	for _, name := range sortedNames(mf.Share) {
		role := mf.Roles[name]
		if role != model.RoleDisruptor && role != model.RoleChimera {
			continue
		}
		shares := mf.Share[name]
		for i := 1; i < len(shares); i++ {
			if shares[i] < shares[i-1]-1e-12 {
				if role == model.RoleChimera {
					report.AddWarning("chimera %s share declines from %g to %g in %d", name, shares[i-1], shares[i], mf.Years[i])
					break
				}
				report.AddError("disruptor %s share decreases from %g to %g in %d", name, shares[i-1], shares[i], mf.Years[i])
				break
			}
		}
	}
}

// checkSumToTotal verifies the invariant the decomposition guarantees by
// construction; it should never actually fail.
func (v Validator) checkSumToTotal(mf model.MarketForecast, report *model.ValidationReport) {
	for i, total := range mf.MarketTotal {
		sum := residual.SumDemand(mf.Demand, i)
		if total == 0 {
			if sum != 0 {
				report.AddError("technologies sum to %g with zero market total in %d", sum, mf.Years[i])
			}
			continue
		}
		if math.Abs(sum-total)/math.Abs(total) > v.cfg.SumTolerance {
			report.AddError("sum-to-total violated in %d: sum %g vs total %g", mf.Years[i], sum, total)
		}
	}
}

func (v Validator) checkJumps(mf model.MarketForecast, report *model.ValidationReport) {
	for _, name := range sortedNames(mf.Demand) {
		demand := mf.Demand[name]
		for i := 1; i < len(demand); i++ {
			prev := demand[i-1]
			if prev <= 0 {
				continue
			}
			if math.Abs(demand[i]-prev)/prev > v.cfg.JumpThreshold {
				report.AddWarning("%s demand jumps %.0f%% in %d", name, math.Abs(demand[i]-prev)/prev*100, mf.Years[i])
			}
		}
	}
}

func (v Validator) checkMassBalance(mf model.MarketForecast, report *model.ValidationReport) {
	for name, base := range mf.InstalledBase {
		for t := 1; t < len(base.Fleet); t++ {
			if base.Fleet[t] <= 0 {
				continue
			}
			expected := base.Fleet[t-1] + base.Additions[t] - base.Retirements[t]
			if expected < 0 {
				expected = 0
			}
			if math.Abs(base.Fleet[t]-expected)/base.Fleet[t] > v.cfg.MassBalanceTolerance {
				report.AddError("mass balance violated for %s at index %d: fleet %g vs expected %g", name, t, base.Fleet[t], expected)
			}
		}
	}
}

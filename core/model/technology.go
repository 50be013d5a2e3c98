package model

import "fmt"

// Role tags a technology's part in a market transition. Roles form a
// closed set; forecast strategies are dispatched by role lookup.
type Role string

const (
	// RoleMarket marks the entity whose demand series is the market total.
	RoleMarket Role = "market"
	// RoleIncumbent marks the displaced technology, forecast as a residual.
	RoleIncumbent Role = "incumbent"
	// RoleDisruptor marks a challenger following an S-curve.
	RoleDisruptor Role = "disruptor"
	// RoleChimera marks a transitional technology that rises then declines.
	RoleChimera Role = "chimera"
)

// ParseRole validates a role tag from source data.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMarket, RoleIncumbent, RoleDisruptor, RoleChimera:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown technology role %q", s)
}

// Technology describes one node of a market's technology taxonomy.
type Technology struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	// CostRef names the cost series used for tipping-point detection.
	// Empty for the market entity.
	CostRef string `json:"cost_ref"`
	// LifetimeYears drives stock-flow retirement. Zero disables
	// installed-base accounting for this technology.
	LifetimeYears float64 `json:"lifetime_years"`
	// ContentCoefficient converts retiring stock into replacement
	// demand (e.g. battery packs per retired vehicle).
	ContentCoefficient float64 `json:"content_coefficient"`
}

// Validate checks the taxonomy entry is usable.
func (t Technology) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("technology name is required")
	}
	if _, err := ParseRole(string(t.Role)); err != nil {
		return err
	}
	if t.LifetimeYears < 0 {
		return fmt.Errorf("technology %s: lifetime must be non-negative", t.Name)
	}
	return nil
}

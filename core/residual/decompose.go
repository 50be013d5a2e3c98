// Package residual computes the incumbent's demand as the remainder of
// the market after all challenger and chimera technologies.
package residual

import (
	"fmt"
	"sort"

	"github.com/enervision/transition/core/model"
)

// SumDemand adds every technology's demand at index i in sorted
// technology order, the same order Decompose uses to build the market
// total. Callers verifying the sum-to-total invariant must use it to get
// bit-identical results.
func SumDemand(demand map[string][]float64, i int) float64 {
	names := make([]string, 0, len(demand))
	for name := range demand {
		names = append(names, name)
	}
	sort.Strings(names)
	sum := 0.0
	for _, name := range names {
		sum += demand[name][i]
	}
	return sum
}

// Input carries the independently forecast pieces of one market.
// All demand slices are parallel to Years.
type Input struct {
	Market string
	Region string
	Years  []int
	// MarketTotal is the independently extrapolated market demand. It
	// is treated as an estimate, not ground truth: the output total is
	// redefined as the sum of technology demands.
	MarketTotal []float64
	Incumbent   string
	Challengers map[string][]float64
	Chimeras    map[string][]float64
}

// Decompose builds a self-consistent MarketForecast. The incumbent's
// demand is the extrapolated total minus every other technology, clamped
// at zero, and the market total is then redefined as the sum of all
// technology demands so the sum-to-total invariant holds exactly by
// construction rather than by a reconciliation pass.
func Decompose(in Input) (model.MarketForecast, error) {
	n := len(in.Years)
	if len(in.MarketTotal) != n {
		return model.MarketForecast{}, fmt.Errorf("residual: market total has %d values for %d years", len(in.MarketTotal), n)
	}
	if in.Incumbent == "" {
		return model.MarketForecast{}, fmt.Errorf("residual: incumbent technology is required")
	}
	for name, d := range in.Challengers {
		if len(d) != n {
			return model.MarketForecast{}, fmt.Errorf("residual: challenger %s has %d values for %d years", name, len(d), n)
		}
	}
	for name, d := range in.Chimeras {
		if len(d) != n {
			return model.MarketForecast{}, fmt.Errorf("residual: chimera %s has %d values for %d years", name, len(d), n)
		}
	}

	demand := make(map[string][]float64, len(in.Challengers)+len(in.Chimeras)+1)
	roles := make(map[string]model.Role, len(in.Challengers)+len(in.Chimeras)+1)
	for name, d := range in.Challengers {
		demand[name] = append([]float64(nil), d...)
		roles[name] = model.RoleDisruptor
	}
	for name, d := range in.Chimeras {
		if _, ok := demand[name]; ok {
			return model.MarketForecast{}, fmt.Errorf("residual: technology %s is both challenger and chimera", name)
		}
		demand[name] = append([]float64(nil), d...)
		roles[name] = model.RoleChimera
	}
	if _, ok := demand[in.Incumbent]; ok {
		return model.MarketForecast{}, fmt.Errorf("residual: incumbent %s also forecast as challenger", in.Incumbent)
	}

	// Summation order is fixed (sorted names) so the sum-to-total
	// invariant holds bit-exactly for any consumer using SumDemand.
	others := make([]string, 0, len(demand))
	for name := range demand {
		others = append(others, name)
	}
	sort.Strings(others)

	incumbent := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for _, name := range others {
			sum += demand[name][i]
		}
		rem := in.MarketTotal[i] - sum
		if rem < 0 {
			rem = 0
		}
		incumbent[i] = rem
	}
	demand[in.Incumbent] = incumbent
	roles[in.Incumbent] = model.RoleIncumbent

	total := make([]float64, n)
	for i := 0; i < n; i++ {
		total[i] = SumDemand(demand, i)
	}

	share := make(map[string][]float64, len(demand))
	for name, d := range demand {
		s := make([]float64, n)
		for i := range d {
			if total[i] > 0 {
				s[i] = d[i] / total[i]
			}
		}
		share[name] = s
	}

	return model.MarketForecast{
		Market:      in.Market,
		Region:      in.Region,
		Years:       append([]int(nil), in.Years...),
		MarketTotal: total,
		Demand:      demand,
		Share:       share,
		Roles:       roles,
	}, nil
}

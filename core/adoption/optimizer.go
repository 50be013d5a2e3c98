package adoption

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
)

// ErrInfeasibleFit is returned when the bounded search cannot produce a
// finite objective value anywhere in the box.
var ErrInfeasibleFit = errors.New("adoption: no feasible fit inside bounds")

const (
	dePopulation = 24
	deWeight     = 0.8
	deCrossover  = 0.9
)

// minimizeBounded minimizes obj over the box [lo, hi] with a seeded
// differential-evolution stage followed by a Nelder-Mead polish. The
// total objective evaluation budget is capped at maxEvals and results
// are deterministic for a fixed seed.
func minimizeBounded(obj func([]float64) float64, lo, hi []float64, seed int64, maxEvals int) ([]float64, float64, int, error) {
	dim := len(lo)
	rng := rand.New(rand.NewSource(seed))
	evals := 0

	clamped := func(x []float64) float64 {
		evals++
		for i := range x {
			if x[i] < lo[i] || x[i] > hi[i] {
				return math.Inf(1)
			}
		}
		return obj(x)
	}

	pop := make([][]float64, dePopulation)
	cost := make([]float64, dePopulation)
	for i := range pop {
		pop[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			pop[i][d] = lo[d] + rng.Float64()*(hi[d]-lo[d])
		}
		cost[i] = clamped(pop[i])
	}

	trial := make([]float64, dim)
	for evals < maxEvals*3/4 {
		for i := range pop {
			a, b, c := distinctIndexes(rng, i)
			pick := rng.Intn(dim)
			for d := 0; d < dim; d++ {
				if d == pick || rng.Float64() < deCrossover {
					v := pop[a][d] + deWeight*(pop[b][d]-pop[c][d])
					if v < lo[d] {
						v = lo[d]
					}
					if v > hi[d] {
						v = hi[d]
					}
					trial[d] = v
				} else {
					trial[d] = pop[i][d]
				}
			}
			if c := clamped(trial); c < cost[i] {
				copy(pop[i], trial)
				cost[i] = c
			}
			if evals >= maxEvals*3/4 {
				break
			}
		}
	}

	best := 0
	for i := 1; i < dePopulation; i++ {
		if cost[i] < cost[best] {
			best = i
		}
	}
	bestX := append([]float64(nil), pop[best]...)
	bestF := cost[best]
	if math.IsInf(bestF, 1) {
		return nil, 0, evals, ErrInfeasibleFit
	}

	// Local polish. Out-of-bounds trial points see +Inf, which keeps the
	// simplex inside the box.
	problem := optimize.Problem{Func: clamped}
	settings := &optimize.Settings{FuncEvaluations: maxEvals - evals}
	if res, err := optimize.Minimize(problem, bestX, settings, &optimize.NelderMead{}); err == nil && res.F < bestF {
		bestX = res.X
		bestF = res.F
	}
	return bestX, bestF, evals, nil
}

func distinctIndexes(rng *rand.Rand, exclude int) (int, int, int) {
	pick := func(taken ...int) int {
		for {
			n := rng.Intn(dePopulation)
			ok := n != exclude
			for _, t := range taken {
				if n == t {
					ok = false
				}
			}
			if ok {
				return n
			}
		}
	}
	a := pick()
	b := pick(a)
	c := pick(a, b)
	return a, b, c
}

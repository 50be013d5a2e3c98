package adoption

import (
	"math"
	"testing"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/logger"
)

// synthetic data generated exactly from L=0.9, k=0.4, t0=2028
func syntheticHistory(t *testing.T) model.TimeSeries {
	t.Helper()
	truth := Params{Ceiling: 0.9, Steepness: 0.4, Inflection: 2028}
	years := model.YearRange(2015, 2032)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = Logistic(truth, float64(y))
	}
	return model.MustTimeSeries(years, values)
}

func TestFit_RoundTrip(t *testing.T) {
	f := NewFitter(0.9, logger.NopLogger{})
	res := f.Fit(syntheticHistory(t), model.TippingPoint{Year: 2026, Found: true})
	if !res.Converged || res.Heuristic {
		t.Fatalf("expected converged fit, got %+v", res)
	}
	if math.Abs(res.Params.Steepness-0.4) > 0.05 {
		t.Fatalf("steepness = %g, want 0.4 +/- 0.05", res.Params.Steepness)
	}
	if math.Abs(res.Params.Inflection-2028) > 1 {
		t.Fatalf("inflection = %g, want 2028 +/- 1", res.Params.Inflection)
	}
}

func TestFit_Deterministic(t *testing.T) {
	f := NewFitter(0.9, nil)
	hist := syntheticHistory(t)
	tip := model.TippingPoint{Year: 2026, Found: true}
	a := f.Fit(hist, tip)
	b := f.Fit(hist, tip)
	if a.Params != b.Params || a.Residual != b.Residual {
		t.Fatalf("fit not deterministic: %+v vs %+v", a, b)
	}
}

func TestFit_HeuristicWithSparseData(t *testing.T) {
	f := NewFitter(0.9, nil)
	// only two points above the usable-share filter
	hist := model.MustTimeSeries([]int{2018, 2019, 2020, 2021}, []float64{0.001, 0.005, 0.02, 0.05})
	res := f.Fit(hist, model.TippingPoint{Year: 2025, Found: true})
	if !res.Heuristic {
		t.Fatalf("expected heuristic fallback, got %+v", res)
	}
	if res.Params.Steepness != 0.4 || res.Params.Inflection != 2025 {
		t.Fatalf("heuristic defaults = %+v, want k=0.4 t0=2025", res.Params)
	}
}

func TestFit_HeuristicWithoutTippingPoint(t *testing.T) {
	f := NewFitter(0.9, nil)
	hist := model.MustTimeSeries([]int{2018, 2019, 2020}, []float64{0.001, 0.03, 0.002})
	res := f.Fit(hist, model.TippingPoint{})
	if !res.Heuristic {
		t.Fatalf("expected heuristic fallback, got %+v", res)
	}
	if res.Params.Inflection != 2019 {
		t.Fatalf("inflection = %g, want year of max observed share 2019", res.Params.Inflection)
	}
}

func TestFit_FiltersPreAdoptionRegion(t *testing.T) {
	// a long flat pre-adoption tail must not drag the inflection early
	truth := Params{Ceiling: 0.9, Steepness: 0.4, Inflection: 2028}
	years := model.YearRange(2000, 2032)
	values := make([]float64, len(years))
	for i, y := range years {
		values[i] = Logistic(truth, float64(y))
	}
	f := NewFitter(0.9, nil)
	res := f.Fit(model.MustTimeSeries(years, values), model.TippingPoint{Year: 2026, Found: true})
	if !res.Converged {
		t.Fatalf("expected converged fit, got %+v", res)
	}
	if math.Abs(res.Params.Inflection-2028) > 1.5 {
		t.Fatalf("inflection = %g dragged by pre-adoption region", res.Params.Inflection)
	}
}

func TestMinimizeBounded_RespectsBox(t *testing.T) {
	obj := func(x []float64) float64 {
		// unconstrained optimum at (10, 10), outside the box
		return (x[0]-10)*(x[0]-10) + (x[1]-10)*(x[1]-10)
	}
	best, _, _, err := minimizeBounded(obj, []float64{0, 0}, []float64{1, 1}, 7, 500)
	if err != nil {
		t.Fatalf("minimize: %v", err)
	}
	for i, v := range best {
		if v < 0 || v > 1 {
			t.Fatalf("dimension %d escaped bounds: %g", i, v)
		}
	}
	if best[0] < 0.99 || best[1] < 0.99 {
		t.Fatalf("expected solution at the box corner, got %v", best)
	}
}

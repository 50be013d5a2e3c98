package engine

import (
	"math"
	"strings"
	"testing"

	coremetrics "github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/core/repository"
	"github.com/enervision/transition/core/residual"
)

type captureSink struct {
	runs      []coremetrics.ForecastRunEvent
	forecasts []model.MarketForecast
}

func (s *captureSink) RecordForecastRun(ev coremetrics.ForecastRunEvent) error {
	s.runs = append(s.runs, ev)
	return nil
}

func (s *captureSink) RecordForecast(runID string, mf model.MarketForecast) error {
	s.forecasts = append(s.forecasts, mf)
	return nil
}

func yearsFrom(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// fixtureRepo builds a road-transport market with a growing market
// total, a BEV challenger whose cost undercuts ICE from 2021, and a
// hybrid that peaks in 2020 and declines.
func fixtureRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	years := yearsFrom(2015, 10)

	repo.AddTaxonomy("road_transport", "eu", []model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent, LifetimeYears: 15},
		{Name: "bev", Role: model.RoleDisruptor, LifetimeYears: 15, ContentCoefficient: 0.5},
		{Name: "hybrid", Role: model.RoleChimera, LifetimeYears: 15},
	})

	market := make([]float64, len(years))
	for i := range market {
		market[i] = 100 + 2*float64(i)
	}
	repo.AddDemandSeries("road_transport", "eu", model.MustTimeSeries(years, market))

	iceCost := make([]float64, len(years))
	bevCost := make([]float64, len(years))
	for i := range years {
		iceCost[i] = 100
		bevCost[i] = 150 - 10*float64(i) // crosses 100 in 2021
	}
	repo.AddCostSeries("ice", "eu", model.MustTimeSeries(years, iceCost))
	repo.AddCostSeries("bev", "eu", model.MustTimeSeries(years, bevCost))

	repo.AddDemandSeries("bev", "eu", model.MustTimeSeries(years,
		[]float64{0.2, 0.4, 0.8, 1.4, 2.2, 3.2, 4.4, 5.8, 7.0, 8.5}))
	repo.AddDemandSeries("hybrid", "eu", model.MustTimeSeries(years,
		[]float64{1, 2, 3, 4, 5, 5.5, 5, 4.5, 4, 3.5}))

	repo.AddInstalledBaseSeries("bev", "eu", model.MustTimeSeries(
		yearsFrom(2020, 5), []float64{10, 18, 26, 36, 50}))

	return repo
}

func fixtureConfig() Config {
	return Config{Market: "road_transport", Region: "eu", EndYear: 2035}
}

func TestForecast_EndToEnd(t *testing.T) {
	sink := &captureSink{}
	eng := New(fixtureRepo(t), sink, nil)

	mf, report, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if report == nil {
		t.Fatal("expected a validation report")
	}

	wantYears := yearsFrom(2025, 11)
	if len(mf.Years) != len(wantYears) {
		t.Fatalf("expected %d forecast years, got %d", len(wantYears), len(mf.Years))
	}
	for i, y := range wantYears {
		if mf.Years[i] != y {
			t.Fatalf("years[%d] = %d, want %d", i, mf.Years[i], y)
		}
	}

	for _, name := range []string{"ice", "bev", "hybrid"} {
		if _, ok := mf.Demand[name]; !ok {
			t.Fatalf("missing demand series for %s", name)
		}
	}
	if _, ok := mf.Demand["road_transport"]; ok {
		t.Fatal("market entity must not appear as a demand series")
	}

	for i := range mf.Years {
		sum := residual.SumDemand(mf.Demand, i)
		if sum != mf.MarketTotal[i] {
			t.Fatalf("sum-to-total violated in %d: %g vs %g", mf.Years[i], sum, mf.MarketTotal[i])
		}
	}

	tip, ok := mf.TippingPoints["bev"]
	if !ok || !tip.Found {
		t.Fatalf("expected a bev tipping point, got %+v", tip)
	}
	if tip.Year != 2021 {
		t.Fatalf("bev tipping year = %d, want 2021", tip.Year)
	}

	bev := mf.Share["bev"]
	for i := 1; i < len(bev); i++ {
		if bev[i] < bev[i-1]-1e-12 {
			t.Fatalf("bev share decreases at %d: %g -> %g", mf.Years[i], bev[i-1], bev[i])
		}
	}
	if bev[len(bev)-1] <= bev[0] {
		t.Fatalf("bev share did not grow: %g -> %g", bev[0], bev[len(bev)-1])
	}

	hybrid := mf.Share["hybrid"]
	if hybrid[len(hybrid)-1] >= hybrid[0] {
		t.Fatalf("hybrid share did not decline: %g -> %g", hybrid[0], hybrid[len(hybrid)-1])
	}

	if !report.Passed {
		t.Fatalf("validation failed: %v", report.Errors)
	}
}

func TestForecast_InstalledBaseAndReplacement(t *testing.T) {
	eng := New(fixtureRepo(t), nil, nil)
	mf, _, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	base, ok := mf.InstalledBase["bev"]
	if !ok {
		t.Fatal("missing bev installed base")
	}
	// seeded from the 2024 stock of 50 plus the first year's additions
	want := 50 + mf.Demand["bev"][0]
	if math.Abs(base.Fleet[0]-want) > 1e-9 {
		t.Fatalf("initial fleet = %g, want %g", base.Fleet[0], want)
	}
	for t2 := 1; t2 < len(base.Fleet); t2++ {
		expected := base.Fleet[t2-1] + base.Additions[t2] - base.Retirements[t2]
		if expected < 0 {
			expected = 0
		}
		if math.Abs(base.Fleet[t2]-expected) > 1e-9 {
			t.Fatalf("mass balance broken at index %d", t2)
		}
	}

	repl, ok := mf.Replacement["bev"]
	if !ok {
		t.Fatal("missing bev replacement demand")
	}
	if repl[0] != 0 {
		t.Fatalf("replacement[0] = %g, want 0", repl[0])
	}
	wantRepl := base.Fleet[0] / 15 * 0.5
	if math.Abs(repl[1]-wantRepl) > 1e-9 {
		t.Fatalf("replacement[1] = %g, want %g", repl[1], wantRepl)
	}

	if _, ok := mf.Replacement["hybrid"]; ok {
		t.Fatal("hybrid has no content coefficient, replacement must be absent")
	}
}

func TestForecast_Deterministic(t *testing.T) {
	eng := New(fixtureRepo(t), nil, nil)
	first, _, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	second, _, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	for name, d := range first.Demand {
		for i := range d {
			if second.Demand[name][i] != d[i] {
				t.Fatalf("non-deterministic demand for %s at index %d: %g vs %g",
					name, i, d[i], second.Demand[name][i])
			}
		}
	}
}

func TestForecast_RecordsMetrics(t *testing.T) {
	sink := &captureSink{}
	eng := New(fixtureRepo(t), sink, nil)
	mf, report, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if len(sink.runs) != 1 {
		t.Fatalf("expected 1 run event, got %d", len(sink.runs))
	}
	ev := sink.runs[0]
	if ev.RunID == "" {
		t.Fatal("run event has no run id")
	}
	if ev.Market != "road_transport" || ev.Region != "eu" {
		t.Fatalf("run event market/region = %s/%s", ev.Market, ev.Region)
	}
	if ev.Technologies != len(mf.Demand) {
		t.Fatalf("run event technologies = %d, want %d", ev.Technologies, len(mf.Demand))
	}
	if ev.Passed != report.Passed {
		t.Fatalf("run event passed = %v, report passed = %v", ev.Passed, report.Passed)
	}
	if len(sink.forecasts) != 1 {
		t.Fatalf("expected 1 forecast record, got %d", len(sink.forecasts))
	}
}

func TestForecast_MissingChallengerDemand(t *testing.T) {
	repo := repository.NewMemoryRepository()
	years := yearsFrom(2015, 10)
	repo.AddTaxonomy("road_transport", "eu", []model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent},
		{Name: "bev", Role: model.RoleDisruptor},
	})
	market := make([]float64, len(years))
	for i := range market {
		market[i] = 100
	}
	repo.AddDemandSeries("road_transport", "eu", model.MustTimeSeries(years, market))

	eng := New(repo, nil, nil)
	mf, report, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	for _, d := range mf.Demand["bev"] {
		if d != 0 {
			t.Fatalf("bev must contribute zero without demand history, got %g", d)
		}
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "bev") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning naming bev, got %v", report.Warnings)
	}
}

func TestForecast_MissingCostDegradesToNoTipping(t *testing.T) {
	repo := repository.NewMemoryRepository()
	years := yearsFrom(2015, 10)
	repo.AddTaxonomy("road_transport", "eu", []model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent},
		{Name: "bev", Role: model.RoleDisruptor},
	})
	market := make([]float64, len(years))
	bev := make([]float64, len(years))
	for i := range market {
		market[i] = 100
		bev[i] = 1 + float64(i)
	}
	repo.AddDemandSeries("road_transport", "eu", model.MustTimeSeries(years, market))
	repo.AddDemandSeries("bev", "eu", model.MustTimeSeries(years, bev))

	eng := New(repo, nil, nil)
	mf, report, err := eng.Forecast(fixtureConfig())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if tip := mf.TippingPoints["bev"]; tip.Found {
		t.Fatalf("expected no tipping point without cost data, got %+v", tip)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a fallback warning for the missing cost series")
	}
}

func TestForecast_MissingMarketDemandFails(t *testing.T) {
	repo := repository.NewMemoryRepository()
	repo.AddTaxonomy("road_transport", "eu", []model.Technology{
		{Name: "road_transport", Role: model.RoleMarket},
		{Name: "ice", Role: model.RoleIncumbent},
	})
	eng := New(repo, nil, nil)
	if _, _, err := eng.Forecast(fixtureConfig()); err == nil {
		t.Fatal("expected error without a market demand series")
	}
}

func TestForecast_EndYearWithinHistoryFails(t *testing.T) {
	cfg := fixtureConfig()
	cfg.EndYear = 2020
	eng := New(fixtureRepo(t), nil, nil)
	if _, _, err := eng.Forecast(cfg); err == nil {
		t.Fatal("expected error for an end year inside history")
	}
}

func TestForecast_InvalidConfig(t *testing.T) {
	eng := New(fixtureRepo(t), nil, nil)
	if _, _, err := eng.Forecast(Config{Region: "eu"}); err == nil {
		t.Fatal("expected error for a config without a market")
	}
}

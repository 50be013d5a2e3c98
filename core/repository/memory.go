package repository

import (
	"fmt"

	"github.com/enervision/transition/core/model"
)

// MemoryRepository is a run-scoped, in-memory SeriesRepository and
// TaxonomyRepository. Each forecast run receives its own instance, so
// nothing is shared or goes stale across runs.
type MemoryRepository struct {
	costs    map[string]model.TimeSeries
	demands  map[string]model.TimeSeries
	stocks   map[string]model.TimeSeries
	taxonomy map[string][]model.Technology
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		costs:    make(map[string]model.TimeSeries),
		demands:  make(map[string]model.TimeSeries),
		stocks:   make(map[string]model.TimeSeries),
		taxonomy: make(map[string][]model.Technology),
	}
}

func key(name, region string) string { return name + "@" + region }

// AddCostSeries registers a cost history.
func (r *MemoryRepository) AddCostSeries(technology, region string, ts model.TimeSeries) {
	r.costs[key(technology, region)] = ts
}

// AddDemandSeries registers a demand history.
func (r *MemoryRepository) AddDemandSeries(entity, region string, ts model.TimeSeries) {
	r.demands[key(entity, region)] = ts
}

// AddInstalledBaseSeries registers a stock history.
func (r *MemoryRepository) AddInstalledBaseSeries(technology, region string, ts model.TimeSeries) {
	r.stocks[key(technology, region)] = ts
}

// AddTaxonomy registers the technology set of a market.
func (r *MemoryRepository) AddTaxonomy(market, region string, techs []model.Technology) {
	r.taxonomy[key(market, region)] = techs
}

// CostSeries implements SeriesRepository.
func (r *MemoryRepository) CostSeries(technology, region string) (model.TimeSeries, error) {
	ts, ok := r.costs[key(technology, region)]
	if !ok {
		return model.TimeSeries{}, fmt.Errorf("cost %s/%s: %w", technology, region, ErrDataNotFound)
	}
	return ts.Clone(), nil
}

// DemandSeries implements SeriesRepository.
func (r *MemoryRepository) DemandSeries(entity, region string) (model.TimeSeries, error) {
	ts, ok := r.demands[key(entity, region)]
	if !ok {
		return model.TimeSeries{}, fmt.Errorf("demand %s/%s: %w", entity, region, ErrDataNotFound)
	}
	return ts.Clone(), nil
}

// InstalledBaseSeries implements SeriesRepository. A missing series is
// an empty result, not an error.
func (r *MemoryRepository) InstalledBaseSeries(technology, region string) (model.TimeSeries, error) {
	ts, ok := r.stocks[key(technology, region)]
	if !ok {
		return model.TimeSeries{}, nil
	}
	return ts.Clone(), nil
}

// Technologies implements TaxonomyRepository.
func (r *MemoryRepository) Technologies(market, region string) ([]model.Technology, error) {
	techs, ok := r.taxonomy[key(market, region)]
	if !ok {
		return nil, fmt.Errorf("taxonomy %s/%s: %w", market, region, ErrDataNotFound)
	}
	out := make([]model.Technology, len(techs))
	copy(out, techs)
	return out, nil
}

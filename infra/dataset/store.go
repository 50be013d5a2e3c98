// Package dataset loads market taxonomies and historical series from
// JSON dataset files into a run-scoped repository.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/core/repository"
	"github.com/enervision/transition/infra/logger"
)

// GlobalRegion is consulted when a series is absent for the requested
// region. The fallback is logged, never silent at debug level zero.
const GlobalRegion = "global"

// Config locates the dataset.
type Config struct {
	// Path is the JSON dataset file.
	Path string `json:"path"`
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("dataset path is required")
	}
	return nil
}

// fileFormat is the on-disk dataset layout.
type fileFormat struct {
	Markets []marketEntry `json:"markets"`
	Series  []seriesEntry `json:"series"`
}

type marketEntry struct {
	Market       string            `json:"market"`
	Region       string            `json:"region"`
	Technologies []technologyEntry `json:"technologies"`
}

type technologyEntry struct {
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	CostRef            string  `json:"cost_ref"`
	LifetimeYears      float64 `json:"lifetime_years"`
	ContentCoefficient float64 `json:"content_coefficient"`
}

type seriesEntry struct {
	Kind   string    `json:"kind"`
	Entity string    `json:"entity"`
	Region string    `json:"region"`
	Unit   string    `json:"unit"`
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

const (
	kindCost          = "cost"
	kindDemand        = "demand"
	kindInstalledBase = "installed_base"
)

// Store is a file-backed SeriesRepository and TaxonomyRepository with a
// global-region fallback. All data is loaded and validated up front;
// lookups never touch the filesystem.
type Store struct {
	repo *repository.MemoryRepository
	log  logger.Logger
}

// Load reads and validates a dataset file. Series with out-of-range
// values are rejected with a *repository.ValidationError, never
// repaired or clamped.
func Load(cfg Config, log logger.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}

	raw, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", cfg.Path, err)
	}
	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", cfg.Path, err)
	}

	repo := repository.NewMemoryRepository()
	for _, m := range f.Markets {
		techs, err := parseTechnologies(m)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", cfg.Path, err)
		}
		repo.AddTaxonomy(m.Market, m.Region, techs)
	}

	seen := make(map[string]bool, len(f.Series))
	for _, s := range f.Series {
		id := s.Kind + "/" + s.Entity + "/" + s.Region
		if seen[id] {
			return nil, fmt.Errorf("dataset %s: duplicate series %s", cfg.Path, id)
		}
		seen[id] = true

		ts, err := parseSeries(s)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", cfg.Path, err)
		}
		switch s.Kind {
		case kindCost:
			repo.AddCostSeries(s.Entity, s.Region, ts)
		case kindDemand:
			repo.AddDemandSeries(s.Entity, s.Region, ts)
		case kindInstalledBase:
			repo.AddInstalledBaseSeries(s.Entity, s.Region, ts)
		default:
			return nil, fmt.Errorf("dataset %s: series %s: unknown kind %q", cfg.Path, id, s.Kind)
		}
	}

	log.Infof("dataset %s: %d markets, %d series", cfg.Path, len(f.Markets), len(f.Series))
	return &Store{repo: repo, log: log}, nil
}

func parseTechnologies(m marketEntry) ([]model.Technology, error) {
	if m.Market == "" || m.Region == "" {
		return nil, fmt.Errorf("market entry needs market and region")
	}
	techs := make([]model.Technology, 0, len(m.Technologies))
	for _, e := range m.Technologies {
		role, err := model.ParseRole(e.Role)
		if err != nil {
			return nil, fmt.Errorf("market %s/%s: %w", m.Market, m.Region, err)
		}
		tech := model.Technology{
			Name:               e.Name,
			Role:               role,
			CostRef:            e.CostRef,
			LifetimeYears:      e.LifetimeYears,
			ContentCoefficient: e.ContentCoefficient,
		}
		if err := tech.Validate(); err != nil {
			return nil, fmt.Errorf("market %s/%s: %w", m.Market, m.Region, err)
		}
		techs = append(techs, tech)
	}
	return techs, nil
}

// parseSeries enforces physical bounds per kind: costs must be
// positive, demand and stock non-negative. NewTimeSeries rejects NaN,
// infinities and unordered years.
func parseSeries(s seriesEntry) (model.TimeSeries, error) {
	id := s.Kind + "/" + s.Entity + "/" + s.Region
	if s.Entity == "" || s.Region == "" {
		return model.TimeSeries{}, &repository.ValidationError{Series: id, Reason: "entity and region are required"}
	}
	for i, v := range s.Values {
		switch s.Kind {
		case kindCost:
			if v <= 0 {
				return model.TimeSeries{}, &repository.ValidationError{
					Series: id,
					Reason: fmt.Sprintf("non-positive cost %g at index %d", v, i),
				}
			}
		default:
			if v < 0 {
				return model.TimeSeries{}, &repository.ValidationError{
					Series: id,
					Reason: fmt.Sprintf("negative value %g at index %d", v, i),
				}
			}
		}
	}
	ts, err := model.NewTimeSeries(s.Years, s.Values)
	if err != nil {
		return model.TimeSeries{}, &repository.ValidationError{Series: id, Reason: err.Error()}
	}
	return ts, nil
}

// CostSeries implements repository.SeriesRepository.
func (s *Store) CostSeries(technology, region string) (model.TimeSeries, error) {
	ts, err := s.repo.CostSeries(technology, region)
	if errors.Is(err, repository.ErrDataNotFound) && region != GlobalRegion {
		if global, gerr := s.repo.CostSeries(technology, GlobalRegion); gerr == nil {
			s.log.Debugf("cost %s/%s: falling back to global series", technology, region)
			return global, nil
		}
	}
	return ts, err
}

// DemandSeries implements repository.SeriesRepository.
func (s *Store) DemandSeries(entity, region string) (model.TimeSeries, error) {
	ts, err := s.repo.DemandSeries(entity, region)
	if errors.Is(err, repository.ErrDataNotFound) && region != GlobalRegion {
		if global, gerr := s.repo.DemandSeries(entity, GlobalRegion); gerr == nil {
			s.log.Debugf("demand %s/%s: falling back to global series", entity, region)
			return global, nil
		}
	}
	return ts, err
}

// InstalledBaseSeries implements repository.SeriesRepository. A missing
// series degrades to the global region and then to an empty series.
func (s *Store) InstalledBaseSeries(technology, region string) (model.TimeSeries, error) {
	ts, err := s.repo.InstalledBaseSeries(technology, region)
	if err == nil && ts.IsEmpty() && region != GlobalRegion {
		return s.repo.InstalledBaseSeries(technology, GlobalRegion)
	}
	return ts, err
}

// Technologies implements repository.TaxonomyRepository.
func (s *Store) Technologies(market, region string) ([]model.Technology, error) {
	techs, err := s.repo.Technologies(market, region)
	if errors.Is(err, repository.ErrDataNotFound) && region != GlobalRegion {
		if global, gerr := s.repo.Technologies(market, GlobalRegion); gerr == nil {
			s.log.Debugf("taxonomy %s/%s: falling back to global taxonomy", market, region)
			return global, nil
		}
	}
	return techs, err
}

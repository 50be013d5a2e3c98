// Package app wires configuration, the dataset store, metrics sinks and
// the forecast engine into a runnable service.
package app

import (
	"fmt"

	"github.com/enervision/transition/config"
	"github.com/enervision/transition/core/engine"
	coremetrics "github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/core/model"
	"github.com/enervision/transition/infra/dataset"
	"github.com/enervision/transition/infra/logger"

	// built-in metrics sinks register themselves
	_ "github.com/enervision/transition/infra/metrics"
)

// Service runs forecasts against a loaded dataset.
type Service struct {
	Engine *engine.Engine
	cfg    *config.Config
	log    logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := dataset.Load(cfg.Dataset, logger.New("dataset"))
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	eng := engine.New(store, sink, logg)
	return &Service{Engine: eng, cfg: cfg, log: logg}, nil
}

// Forecast runs the configured forecast.
func (s *Service) Forecast() (model.MarketForecast, *model.ValidationReport, error) {
	return s.Engine.Forecast(s.cfg.Forecast)
}

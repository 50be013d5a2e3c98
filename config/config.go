// Package config loads the service configuration from JSON or YAML
// files with environment-variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/enervision/transition/core/engine"
	"github.com/enervision/transition/core/metrics"
	"github.com/enervision/transition/infra/dataset"
)

// Config is the full service configuration.
type Config struct {
	Forecast engine.Config  `json:"forecast"`
	Dataset  dataset.Config `json:"dataset"`
	Metrics  metrics.Config `json:"metrics"`
}

// Load reads the configuration file at path. Keys can be overridden
// with T_-prefixed environment variables, "__" standing in for ".":
// T_FORECAST__REGION overrides forecast.region.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("T_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "t_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Forecast.SetDefaults()
	if err := cfg.Forecast.Validate(); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	if err := cfg.Dataset.Validate(); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return &cfg, nil
}

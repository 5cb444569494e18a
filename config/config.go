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

	"github.com/kilianp07/healthpredictor/backend"
	"github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/kilianp07/healthpredictor/infra/mqtt"
	"github.com/kilianp07/healthpredictor/infra/predictor"
)

type Config struct {
	Server    ServerConfig     `json:"server"`
	Predictor predictor.Config `json:"predictor"`
	Mock      backend.Config   `json:"mock"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Logging   LoggingConfig    `json:"logging"`
}

// Load reads the configuration file at path and applies K_ environment
// overrides. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
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
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Predictor.SetDefaults()
	c.Mock.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"server", c.Server.Validate},
		{"predictor", c.Predictor.Validate},
		{"mock", c.Mock.Validate},
		{"metrics", c.validateMetrics},
		{"mqtt", c.MQTT.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}

func (c Config) validateMetrics() error {
	known := make(map[string]bool)
	for _, n := range metrics.SinkTypes() {
		known[n] = true
	}
	for _, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink type is required")
		}
		// Sinks register from infra/metrics; skip the check when none are linked.
		if len(known) > 0 && !known[s.Type] {
			return fmt.Errorf("unknown sink type %q", s.Type)
		}
	}
	return nil
}

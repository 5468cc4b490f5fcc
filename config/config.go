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

	"github.com/medifleet/medifleet/core/auction"
	"github.com/medifleet/medifleet/core/metrics"
	"github.com/medifleet/medifleet/core/movement"
	"github.com/medifleet/medifleet/core/poll"
	"github.com/medifleet/medifleet/infra/mqtt"
)

type Config struct {
	Fleet    FleetConfig     `json:"fleet"`
	Auction  auction.Config  `json:"auction"`
	Movement movement.Config `json:"movement"`
	Poll     poll.Config     `json:"poll"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Metrics  metrics.Config  `json:"metrics"`
	Logging  LoggingConfig   `json:"logging"`
	Activity ActivityConfig  `json:"activity"`
}

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
	if err := k.Load(env.Provider("MF_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "mf_")
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

// Default returns a configuration with every section at its nominal
// value, suitable for running against the in-memory authority.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies sane defaults to every section.
func (c *Config) SetDefaults() {
	c.Fleet.SetDefaults()
	c.Auction.SetDefaults()
	c.Movement.SetDefaults()
	c.Poll.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
	c.Activity.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Fleet.Validate(); err != nil {
		return fmt.Errorf("fleet: %w", err)
	}
	if err := c.Auction.Validate(); err != nil {
		return fmt.Errorf("auction: %w", err)
	}
	if err := c.Movement.Validate(); err != nil {
		return fmt.Errorf("movement: %w", err)
	}
	if err := c.Poll.Validate(); err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Activity.Validate(); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	return nil
}

package config

import "fmt"

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is the minimum severity: "debug", "info", "warn" or "error".
	Level string `json:"level"`
	// Pretty switches to the human-readable console writer.
	Pretty bool `json:"pretty"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

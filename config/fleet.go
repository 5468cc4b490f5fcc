package config

import "fmt"

// FleetConfig selects the task authority backend. The coordinator can
// run fully in-process against the memory store or against the
// facility coordination service over HTTP.
type FleetConfig struct {
	// Mode selects the backend: "memory" or "http".
	Mode string `json:"mode"`
	// BaseURL is the coordination service root, e.g. "http://localhost:8000".
	BaseURL string `json:"base_url"`
	// TimeoutMS bounds each request to the coordination service.
	TimeoutMS int `json:"timeout_ms"`
	// Seed feeds the distance fallback generator. Zero seeds from the clock.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the in-process backend.
func (c *FleetConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "memory"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 5000
	}
}

// Validate checks the backend selection.
func (c FleetConfig) Validate() error {
	if c.Mode != "memory" && c.Mode != "http" {
		return fmt.Errorf("unknown fleet mode %s", c.Mode)
	}
	if c.Mode == "http" && c.BaseURL == "" {
		return fmt.Errorf("base_url is required in http mode")
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}
	return nil
}

package simulator

import "fmt"

// Config tunes the simulated authority.
type Config struct {
	// Addr is the listen address of the HTTP API.
	Addr string `json:"addr"`
	// BiddingDelayMS is how long a fresh task stays pending before the
	// authority opens bidding on it.
	BiddingDelayMS int `json:"bidding_delay_ms"`
	// AssignDelayMS is how long bidding stays open before the authority
	// commits an assignment.
	AssignDelayMS int `json:"assign_delay_ms"`
	// AllowedOrigins feeds the CORS middleware for browser dashboards.
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies the nominal simulator timings.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.BiddingDelayMS == 0 {
		c.BiddingDelayMS = 2000
	}
	if c.AssignDelayMS == 0 {
		c.AssignDelayMS = 3000
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000"}
	}
}

// Validate rejects nonsensical timings.
func (c Config) Validate() error {
	if c.BiddingDelayMS < 0 || c.AssignDelayMS < 0 {
		return fmt.Errorf("simulator delays must not be negative")
	}
	return nil
}

package config

import "fmt"

// ActivityConfig tunes the operator activity log.
type ActivityConfig struct {
	// Capacity bounds the in-memory log to the most recent N entries.
	// Zero keeps the log unbounded.
	Capacity int `json:"capacity"`
}

// SetDefaults keeps the log unbounded unless configured otherwise.
func (c *ActivityConfig) SetDefaults() {}

// Validate rejects a negative capacity.
func (c ActivityConfig) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative")
	}
	return nil
}

package movement

import (
	"fmt"
	"time"
)

// Config holds the timing parameters of the movement simulation and the
// coordinated demo orchestration.
type Config struct {
	TransitDurationMS int `json:"transit_duration_ms"`
	DemoStaggerMS     int `json:"demo_stagger_ms"`
	AssignWaitMS      int `json:"assign_wait_ms"`
	AssignPollMS      int `json:"assign_poll_ms"`
}

// SetDefaults fills in the nominal timings.
func (c *Config) SetDefaults() {
	if c.TransitDurationMS == 0 {
		c.TransitDurationMS = 3000
	}
	if c.DemoStaggerMS == 0 {
		c.DemoStaggerMS = 500
	}
	if c.AssignWaitMS == 0 {
		c.AssignWaitMS = 3000
	}
	if c.AssignPollMS == 0 {
		c.AssignPollMS = 250
	}
}

// Validate rejects nonsensical timings.
func (c Config) Validate() error {
	if c.TransitDurationMS < 0 || c.DemoStaggerMS < 0 || c.AssignWaitMS < 0 {
		return fmt.Errorf("movement durations must not be negative")
	}
	if c.AssignPollMS <= 0 {
		return fmt.Errorf("assign_poll_ms must be positive")
	}
	return nil
}

func (c Config) transitDuration() time.Duration {
	return time.Duration(c.TransitDurationMS) * time.Millisecond
}
func (c Config) demoStagger() time.Duration { return time.Duration(c.DemoStaggerMS) * time.Millisecond }
func (c Config) assignWait() time.Duration  { return time.Duration(c.AssignWaitMS) * time.Millisecond }
func (c Config) assignPoll() time.Duration  { return time.Duration(c.AssignPollMS) * time.Millisecond }

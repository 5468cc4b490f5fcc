package auction

import (
	"fmt"
	"time"
)

// Config holds the pacing parameters of an auction instance. The ramp
// is presentation pacing only: the winner is fully determined before
// the first step fires.
type Config struct {
	RampDurationMS int `json:"ramp_duration_ms"`
	RampSteps      int `json:"ramp_steps"`
	SettleDelayMS  int `json:"settle_delay_ms"`
	GracePeriodMS  int `json:"grace_period_ms"`
}

// SetDefaults fills in the nominal pacing values.
func (c *Config) SetDefaults() {
	if c.RampDurationMS == 0 {
		c.RampDurationMS = 2000
	}
	if c.RampSteps == 0 {
		c.RampSteps = 50
	}
	if c.SettleDelayMS == 0 {
		c.SettleDelayMS = 500
	}
	if c.GracePeriodMS == 0 {
		c.GracePeriodMS = 3000
	}
}

// Validate rejects nonsensical pacing.
func (c Config) Validate() error {
	if c.RampDurationMS < 0 || c.SettleDelayMS < 0 || c.GracePeriodMS < 0 {
		return fmt.Errorf("auction durations must not be negative")
	}
	if c.RampSteps <= 0 {
		return fmt.Errorf("ramp_steps must be positive")
	}
	return nil
}

func (c Config) rampDuration() time.Duration {
	return time.Duration(c.RampDurationMS) * time.Millisecond
}
func (c Config) settleDelay() time.Duration { return time.Duration(c.SettleDelayMS) * time.Millisecond }
func (c Config) gracePeriod() time.Duration { return time.Duration(c.GracePeriodMS) * time.Millisecond }

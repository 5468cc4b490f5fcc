package poll

import (
	"fmt"
	"time"
)

// Config holds the three polling cadences. Each loop serves a distinct
// purpose and owns its own timer; all are cancelled through the context
// of the view that started them.
type Config struct {
	TaskWatchMS int `json:"task_watch_ms"`
	DashboardMS int `json:"dashboard_ms"`
	RosterMS    int `json:"roster_ms"`
}

// SetDefaults fills in the nominal cadences.
func (c *Config) SetDefaults() {
	if c.TaskWatchMS == 0 {
		c.TaskWatchMS = 500
	}
	if c.DashboardMS == 0 {
		c.DashboardMS = 3000
	}
	if c.RosterMS == 0 {
		c.RosterMS = 5000
	}
}

// Validate rejects non-positive cadences.
func (c Config) Validate() error {
	if c.TaskWatchMS <= 0 || c.DashboardMS <= 0 || c.RosterMS <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}

func (c Config) taskWatch() time.Duration { return time.Duration(c.TaskWatchMS) * time.Millisecond }
func (c Config) dashboard() time.Duration { return time.Duration(c.DashboardMS) * time.Millisecond }
func (c Config) roster() time.Duration    { return time.Duration(c.RosterMS) * time.Millisecond }

package model

import "fmt"

// RobotStatus describes a robot's availability.
type RobotStatus string

const (
	RobotIdle     RobotStatus = "idle"
	RobotBusy     RobotStatus = "busy"
	RobotCharging RobotStatus = "charging"
)

// Valid reports whether the status is one of the known robot states.
func (s RobotStatus) Valid() bool {
	switch s {
	case RobotIdle, RobotBusy, RobotCharging:
		return true
	}
	return false
}

// Robot is a fleet unit. Records persist across tasks and are mutated
// only by the remote authority or by the movement coordinator's
// completion step.
type Robot struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Status              RobotStatus `json:"status"`
	Location            Location    `json:"location"`
	Battery             int         `json:"battery"` // percent, 0-100
	TasksCompletedToday int         `json:"tasks_completed_today"`
	TotalTasks          int         `json:"total_tasks"`
	AvgCompletionTime   float64     `json:"avg_completion_time"` // minutes
}

// Validate checks that the robot fields are structurally sound.
func (r Robot) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("robot id must not be empty")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown robot status %q", r.Status)
	}
	if r.Battery < 0 || r.Battery > 100 {
		return fmt.Errorf("robot %s battery %d out of range", r.ID, r.Battery)
	}
	return nil
}

// Eligible reports whether the robot may participate in an auction.
// Charging robots sit out until they are back in service.
func (r Robot) Eligible() bool {
	return r.Status == RobotIdle || r.Status == RobotBusy
}

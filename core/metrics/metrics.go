// Package metrics defines the observability sink interfaces for
// coordination events. Concrete sinks live under infra/metrics.
package metrics

import (
	"time"

	"github.com/medifleet/medifleet/core/model"
)

// AuctionEvent captures the outcome of one auction instance.
type AuctionEvent struct {
	TaskID      string
	Destination model.Location
	WinnerID    string
	Winner      string
	Score       int
	Bidders     int
	Failed      bool
	Time        time.Time
}

// TaskEvent is a task lifecycle observation.
type TaskEvent struct {
	TaskID      string
	Destination model.Location
	Priority    model.Priority
	Status      model.TaskStatus
	Time        time.Time
}

// MovementEvent captures one settled transit, successful or not.
// Latency is the task's life from creation to completion and is only
// set on success.
type MovementEvent struct {
	RobotID  string
	Robot    string
	From     model.Location
	To       model.Location
	TaskID   string
	Duration time.Duration
	Latency  time.Duration
	Success  bool
	Time     time.Time
}

// Sink records coordination events for observability purposes.
type Sink interface {
	RecordAuction(AuctionEvent) error
	RecordTask(TaskEvent) error
	RecordMovement(MovementEvent) error
}

// FleetSizeRecorder is implemented by sinks that track the roster size.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// InFlightRecorder is implemented by sinks that track concurrent
// transits.
type InFlightRecorder interface {
	RecordInFlight(count int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordAuction(AuctionEvent) error   { return nil }
func (NopSink) RecordTask(TaskEvent) error         { return nil }
func (NopSink) RecordMovement(MovementEvent) error { return nil }
func (NopSink) RecordFleetSize(int) error          { return nil }
func (NopSink) RecordInFlight(int) error           { return nil }

// Package events defines the coordination events emitted on the event
// bus. Presentation collaborators subscribe to follow auction progress
// and fleet movement; metrics collectors subscribe to record them.
package events

import (
	"time"

	"github.com/medifleet/medifleet/core/model"
)

// TaskCreated is published when a new delivery task has been accepted
// by the fleet authority.
type TaskCreated struct {
	Task model.Task
}

// BiddingStarted is published when a task is first observed in the
// bidding state.
type BiddingStarted struct {
	TaskID      string
	Destination model.Location
}

// BidProgress carries one step of the auction score ramp. Scores are
// interpolated presentation values; the final step carries each
// robot's true score.
type BidProgress struct {
	TaskID string
	Step   int
	Steps  int
	Scores map[string]int // robot ID -> interpolated score
}

// AuctionWon is published exactly once per auction instance, after the
// ramp and settle delay have elapsed.
type AuctionWon struct {
	TaskID      string
	Destination model.Location
	RobotID     string
	Robot       string
	Score       int
	Distance    float64
	Bidders     int
}

// AuctionFailed is published when an auction instance ends without a
// winner. A failed auction publishes no AuctionWon and no further
// events for the task.
type AuctionFailed struct {
	TaskID      string
	Destination model.Location
	Bidders     int
	Reason      string
}

// AuctionClosed signals that the auction's event channel is done; no
// further events follow for this task's auction instance.
type AuctionClosed struct {
	TaskID string
}

// MovementStarted is published when a robot departs on a simulated
// transit.
type MovementStarted struct {
	Record model.MovementRecord
}

// MovementCompleted is published when a robot arrives and all state
// commits have succeeded. Duration covers the transit itself; Latency
// covers the task's whole life from creation to completion.
type MovementCompleted struct {
	Record   model.MovementRecord
	TaskID   string
	Duration time.Duration
	Latency  time.Duration
}

// MovementFailed is published when a state commit during or after a
// transit is rejected. The affected task or robot may be inconsistent
// until the next reconciliation poll.
type MovementFailed struct {
	Record model.MovementRecord
	TaskID string
	Err    error
}

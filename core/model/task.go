package model

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of a delivery task. Transitions are
// strictly forward: pending -> bidding -> assigned -> moving -> completed.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskBidding   TaskStatus = "bidding"
	TaskAssigned  TaskStatus = "assigned"
	TaskMoving    TaskStatus = "moving"
	TaskCompleted TaskStatus = "completed"
)

var taskStatusOrder = map[TaskStatus]int{
	TaskPending:   0,
	TaskBidding:   1,
	TaskAssigned:  2,
	TaskMoving:    3,
	TaskCompleted: 4,
}

// Valid reports whether the status is one of the known lifecycle states.
func (s TaskStatus) Valid() bool {
	_, ok := taskStatusOrder[s]
	return ok
}

// Order returns the position of the status in the lifecycle sequence.
// Unknown statuses sort before pending.
func (s TaskStatus) Order() int {
	if o, ok := taskStatusOrder[s]; ok {
		return o
	}
	return -1
}

// CanTransition reports whether moving from s to next respects the
// forward-only lifecycle. Skipping intermediate states is allowed only
// for remote-driven transitions the core merely observes, so movement
// commits use the strict single-step form via NextAfter.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	return next.Valid() && next.Order() > s.Order()
}

// Priority classifies how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of delivery work owned by the remote fleet authority.
// The coordination core holds read snapshots and issues optimistic
// state-transition requests; it never owns the record.
type Task struct {
	ID          string     `json:"id"`
	Destination Location   `json:"destination"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	RobotID     string     `json:"robot_id,omitempty"`
	RobotName   string     `json:"robot_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Validate checks that the task fields are structurally sound.
func (t Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown task status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("unknown task priority %q", t.Priority)
	}
	if t.Status.Order() >= TaskAssigned.Order() && t.RobotID == "" {
		return fmt.Errorf("task %s is %s but has no assigned robot", t.ID, t.Status)
	}
	return nil
}

// Terminal reports whether the task has reached the end of its lifecycle.
func (t Task) Terminal() bool { return t.Status == TaskCompleted }

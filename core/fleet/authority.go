// Package fleet defines the boundary to the remote fleet authority,
// the system of record for task and robot persistence. The
// coordination core holds read snapshots and issues optimistic writes;
// it never assumes exclusive ownership of a record.
package fleet

import (
	"context"
	"time"

	"github.com/medifleet/medifleet/core/model"
)

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Status      *model.TaskStatus
	RobotID     *string
	RobotName   *string
	AssignedAt  *time.Time
	CompletedAt *time.Time
}

// RobotPatch is a partial robot update. Nil fields are left untouched.
type RobotPatch struct {
	Status              *model.RobotStatus
	Location            *model.Location
	Battery             *int
	TasksCompletedToday *int
	TotalTasks          *int
}

// Authority is the request/response interface to the remote system of
// record. Every call is fallible and eventually consistent: remote
// driven changes surface only through polling.
type Authority interface {
	CreateTask(ctx context.Context, dest model.Location, prio model.Priority) (model.Task, error)
	Task(ctx context.Context, id string) (model.Task, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	Robots(ctx context.Context) ([]model.Robot, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) error
	UpdateRobot(ctx context.Context, id string, patch RobotPatch) error

	// TransitionTask commits a status change conditionally: the update
	// is applied only if the task is still in the expected state, so a
	// concurrent external writer cannot be silently overwritten.
	TransitionTask(ctx context.Context, id string, expect, next model.TaskStatus, patch TaskPatch) error
}

// StatusPatch is a convenience helper building a status-only TaskPatch.
func StatusPatch(s model.TaskStatus) TaskPatch {
	return TaskPatch{Status: &s}
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T { return &v }

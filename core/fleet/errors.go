package fleet

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable indicates a request to the fleet authority
// failed or timed out. Local state is left unchanged; callers may retry
// on their next poll cycle.
var ErrRemoteUnavailable = errors.New("fleet authority unavailable")

// ErrNotFound indicates the authority has no record with the given id.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a conditional transition was rejected because
// the record was no longer in the expected state.
var ErrConflict = errors.New("state conflict")

// ErrNoEligibleBidders indicates an auction was run with zero idle or
// busy robots. The auction instance is dead; it is never defaulted to
// an arbitrary winner.
var ErrNoEligibleBidders = errors.New("no eligible bidders")

// MovementCommitError wraps a failed state commit during or after a
// simulated transit. The in-flight guard and movement record have been
// released, but the task or robot may be inconsistent until the next
// reconciliation poll.
type MovementCommitError struct {
	RobotID string
	TaskID  string
	Step    string // which commit step failed
	Err     error
}

func (e *MovementCommitError) Error() string {
	return fmt.Sprintf("movement commit %s failed for robot %s task %s: %v", e.Step, e.RobotID, e.TaskID, e.Err)
}

func (e *MovementCommitError) Unwrap() error { return e.Err }

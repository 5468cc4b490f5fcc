// Package movement drives the timed simulation of robot transits and
// commits the resulting state changes to the fleet authority. The
// simulation is a stand-in for physical transit, not a motion
// controller: one fixed-duration wait per leg.
package movement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/medifleet/medifleet/core/activity"
	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/logger"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// Coordinator simulates transits. Any number of robots may be in flight
// concurrently, but at most one simulation runs per robot at a time.
type Coordinator struct {
	cfg      Config
	auth     fleet.Authority
	bus      eventbus.EventBus
	activity *activity.Log
	log      logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]model.MovementRecord // keyed by robot ID
}

// NewCoordinator wires a movement coordinator.
func NewCoordinator(cfg Config, auth fleet.Authority, bus eventbus.EventBus, act *activity.Log, log logger.Logger) *Coordinator {
	cfg.SetDefaults()
	return &Coordinator{
		cfg:      cfg,
		auth:     auth,
		bus:      bus,
		activity: act,
		log:      log,
		now:      time.Now,
		inflight: make(map[string]model.MovementRecord),
	}
}

// ActiveMovements returns a snapshot of the transits currently in
// flight, one record per robot.
func (c *Coordinator) ActiveMovements() []model.MovementRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.MovementRecord, 0, len(c.inflight))
	for _, rec := range c.inflight {
		out = append(out, rec)
	}
	return out
}

// InFlight reports whether the robot has a transit in progress.
func (c *Coordinator) InFlight(robotID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[robotID]
	return ok
}

// claim registers the in-flight record for the robot. It returns false
// if the robot already has a transit in progress.
func (c *Coordinator) claim(rec model.MovementRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[rec.RobotID]; ok {
		return false
	}
	c.inflight[rec.RobotID] = rec
	return true
}

// release removes the in-flight record. It always runs, success or
// failure, so a robot can never be stuck in flight indefinitely.
func (c *Coordinator) release(robotID string) {
	c.mu.Lock()
	delete(c.inflight, robotID)
	c.mu.Unlock()
}

// Simulate runs one robot's transit to its task's destination and
// commits the completion state. A second call for the same robot while
// the first is in flight is a no-op. Cancelling ctx mid-transit aborts
// the simulation cleanly: the guard and record are released and
// ctx.Err() is returned without committing arrival state.
func (c *Coordinator) Simulate(ctx context.Context, robot model.Robot, task model.Task) error {
	rec := model.MovementRecord{
		RobotID:   robot.ID,
		RobotName: robot.Name,
		TaskID:    task.ID,
		From:      robot.Location,
		To:        task.Destination,
		Active:    true,
	}
	if !c.claim(rec) {
		c.log.Debugf("robot %s already in flight, ignoring duplicate simulate", robot.ID)
		return nil
	}
	defer c.release(robot.ID)

	if task.Status != model.TaskMoving {
		if err := c.auth.TransitionTask(ctx, task.ID, model.TaskAssigned, model.TaskMoving, fleet.StatusPatch(model.TaskMoving)); err != nil {
			return c.fail(rec, task.ID, "mark-moving", err)
		}
	}
	c.activity.Append(fmt.Sprintf("%s departing %s for %s", robot.Name, robot.Location, task.Destination))
	c.bus.Publish(events.MovementStarted{Record: rec})
	c.log.Infof("robot %s moving %s -> %s for task %s", robot.Name, robot.Location, task.Destination, task.ID)

	start := c.now()
	if err := wait(ctx, c.cfg.transitDuration()); err != nil {
		c.log.Warnf("transit of robot %s cancelled: %v", robot.ID, err)
		return err
	}

	if err := c.commitArrival(ctx, robot, task); err != nil {
		return c.fail(rec, task.ID, "commit-arrival", err)
	}

	c.activity.Append(fmt.Sprintf("%s arrived at %s", robot.Name, task.Destination))
	c.activity.Append(fmt.Sprintf("Task to %s completed by %s", task.Destination, robot.Name))
	done := c.now()
	c.bus.Publish(events.MovementCompleted{
		Record:   rec,
		TaskID:   task.ID,
		Duration: done.Sub(start),
		Latency:  done.Sub(task.CreatedAt),
	})
	c.log.Infof("robot %s completed task %s at %s", robot.Name, task.ID, task.Destination)
	return nil
}

// commitArrival applies the terminal effects of a transit: the robot is
// relocated and freed, then the task is closed with its completion
// timestamp.
func (c *Coordinator) commitArrival(ctx context.Context, robot model.Robot, task model.Task) error {
	if err := c.auth.UpdateRobot(ctx, robot.ID, fleet.RobotPatch{
		Location:            fleet.Ptr(task.Destination),
		Status:              fleet.Ptr(model.RobotIdle),
		TasksCompletedToday: fleet.Ptr(robot.TasksCompletedToday + 1),
		TotalTasks:          fleet.Ptr(robot.TotalTasks + 1),
	}); err != nil {
		return err
	}
	completed := c.now()
	return c.auth.TransitionTask(ctx, task.ID, model.TaskMoving, model.TaskCompleted, fleet.TaskPatch{
		Status:      fleet.Ptr(model.TaskCompleted),
		CompletedAt: &completed,
	})
}

// fail surfaces a commit failure. The deferred release has the record
// removed either way; here we only report.
func (c *Coordinator) fail(rec model.MovementRecord, taskID, step string, err error) error {
	cerr := &fleet.MovementCommitError{RobotID: rec.RobotID, TaskID: taskID, Step: step, Err: err}
	c.activity.Append(fmt.Sprintf("Movement of %s failed: %s", rec.RobotName, step))
	c.bus.Publish(events.MovementFailed{Record: rec, TaskID: taskID, Err: cerr})
	c.log.Errorf("%v", cerr)
	return cerr
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

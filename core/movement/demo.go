package movement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/model"
)

// TaskSpec describes one task the coordinated demo creates.
type TaskSpec struct {
	Destination model.Location
	Priority    model.Priority
}

// DefaultDemoTasks is the canonical three-transit demo scenario.
func DefaultDemoTasks() []TaskSpec {
	return []TaskSpec{
		{Destination: model.LocICU, Priority: model.PriorityHigh},
		{Destination: model.LocRoom101, Priority: model.PriorityMedium},
		{Destination: model.LocEmergency, Priority: model.PriorityUrgent},
	}
}

// RunDemo orchestrates the multi-robot demonstration: it creates the
// given tasks with a fixed stagger, waits for the authority to assign
// each of them (polling to confirm rather than sleeping a fixed grace),
// then launches one simulated transit per assigned robot concurrently.
// It returns once every simulation has settled; per-robot failures are
// collected and joined, never allowed to abort a sibling transit.
func (c *Coordinator) RunDemo(ctx context.Context, specs []TaskSpec) error {
	if len(specs) == 0 {
		specs = DefaultDemoTasks()
	}
	created := make([]string, 0, len(specs))
	for i, spec := range specs {
		if i > 0 {
			if err := wait(ctx, c.cfg.demoStagger()); err != nil {
				return err
			}
		}
		task, err := c.auth.CreateTask(ctx, spec.Destination, spec.Priority)
		if err != nil {
			return fmt.Errorf("create demo task for %s: %w", spec.Destination, err)
		}
		created = append(created, task.ID)
		c.activity.Append(fmt.Sprintf("Task created: deliver to %s (%s priority)", spec.Destination, spec.Priority))
		c.bus.Publish(events.TaskCreated{Task: task})
	}

	if err := c.awaitAssignments(ctx, created); err != nil {
		return err
	}

	tasks, err := c.auth.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("refresh tasks: %w", err)
	}
	robots, err := c.auth.Robots(ctx)
	if err != nil {
		return fmt.Errorf("refresh robots: %w", err)
	}
	byID := make(map[string]model.Robot, len(robots))
	for _, r := range robots {
		byID[r.ID] = r
	}

	var wg sync.WaitGroup
	errs := make([]error, len(created))
	for i, id := range created {
		task, ok := findTask(tasks, id)
		if !ok {
			errs[i] = fmt.Errorf("demo task %s disappeared", id)
			continue
		}
		if task.Status != model.TaskAssigned && task.Status != model.TaskMoving {
			c.log.Warnf("demo task %s still %s, skipping transit", id, task.Status)
			continue
		}
		robot, ok := byID[task.RobotID]
		if !ok {
			errs[i] = fmt.Errorf("demo task %s assigned to unknown robot %s", id, task.RobotID)
			continue
		}
		wg.Add(1)
		go func(i int, robot model.Robot, task model.Task) {
			defer wg.Done()
			errs[i] = c.Simulate(ctx, robot, task)
		}(i, robot, task)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// awaitAssignments polls the created tasks until each one has reached
// the assigned state or the configured wait elapses. Tasks that never
// get assigned are tolerated here; RunDemo skips them after the final
// re-read.
func (c *Coordinator) awaitAssignments(ctx context.Context, ids []string) error {
	pending := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		pending[id] = struct{}{}
	}
	deadline := c.now().Add(c.cfg.assignWait())
	ticker := time.NewTicker(c.cfg.assignPoll())
	defer ticker.Stop()
	for len(pending) > 0 && c.now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		for id := range pending {
			task, err := c.auth.Task(ctx, id)
			if err != nil {
				c.log.Warnf("assignment poll for %s: %v", id, err)
				continue
			}
			if task.Status.Order() >= model.TaskAssigned.Order() {
				delete(pending, id)
			}
		}
	}
	if len(pending) > 0 {
		c.log.Warnf("%d demo tasks not assigned before deadline", len(pending))
	}
	return nil
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

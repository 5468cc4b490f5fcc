package movement

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/infra/memory"
)

// driveAssignments stands in for the remote authority's bidding policy:
// it advances every fresh task to bidding and assigns it to a distinct
// idle robot, the way the backend commits auction outcomes.
func driveAssignments(ctx context.Context, store fleet.Authority) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	taken := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tasks, err := store.Tasks(ctx)
		if err != nil {
			continue
		}
		robots, err := store.Robots(ctx)
		if err != nil {
			continue
		}
		for _, task := range tasks {
			switch task.Status {
			case model.TaskPending:
				_ = store.TransitionTask(ctx, task.ID, model.TaskPending, model.TaskBidding, fleet.TaskPatch{})
			case model.TaskBidding:
				for _, r := range robots {
					if taken[r.ID] {
						continue
					}
					now := time.Now()
					err := store.TransitionTask(ctx, task.ID, model.TaskBidding, model.TaskAssigned, fleet.TaskPatch{
						RobotID:    fleet.Ptr(r.ID),
						RobotName:  fleet.Ptr(r.Name),
						AssignedAt: &now,
					})
					if err == nil {
						taken[r.ID] = true
						_ = store.UpdateRobot(ctx, r.ID, fleet.RobotPatch{Status: fleet.Ptr(model.RobotBusy)})
					}
					break
				}
			}
		}
	}
}

func TestRunDemoCompletesAllTasksConcurrently(t *testing.T) {
	f := newFixture(t)
	f.store.SeedRobots(
		model.Robot{ID: "r1", Name: "MediBot-A1", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 95},
		model.Robot{ID: "r2", Name: "MediBot-B2", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 85},
		model.Robot{ID: "r3", Name: "MediBot-C3", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 100},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go driveAssignments(ctx, f.store)

	if err := f.coord.RunDemo(ctx, DefaultDemoTasks()); err != nil {
		t.Fatalf("demo: %v", err)
	}

	tasks, _ := f.store.Tasks(context.Background())
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	robotsSeen := map[string]bool{}
	for _, task := range tasks {
		if task.Status != model.TaskCompleted {
			t.Errorf("task to %s finished as %s", task.Destination, task.Status)
		}
		if task.CompletedAt == nil || !task.CompletedAt.After(task.CreatedAt) {
			t.Errorf("task to %s has bad completion timestamp", task.Destination)
		}
		if robotsSeen[task.RobotID] {
			t.Errorf("robot %s assigned to two demo tasks", task.RobotID)
		}
		robotsSeen[task.RobotID] = true
	}

	// Each transit leaves a matching start/arrival pair in the log,
	// same-robot events in causal order.
	for _, name := range []string{"MediBot-A1", "MediBot-B2", "MediBot-C3"} {
		depart, arrive := -1, -1
		for i, e := range f.act.Snapshot() {
			if strings.Contains(e.Message, name) && strings.Contains(e.Message, "departing") {
				depart = i
			}
			if strings.Contains(e.Message, name) && strings.Contains(e.Message, "arrived") {
				arrive = i
			}
		}
		if depart < 0 || arrive < 0 || depart >= arrive {
			t.Errorf("%s: departure/arrival pair broken (depart=%d arrive=%d)", name, depart, arrive)
		}
	}
}

func TestRunDemoIsolatesPerRobotFailures(t *testing.T) {
	f := newFixture(t)
	f.store.SeedRobots(
		model.Robot{ID: "r1", Name: "MediBot-A1", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 95},
		model.Robot{ID: "r2", Name: "MediBot-B2", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 85},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go driveAssignments(ctx, f.store)

	// Both robots depart; every completion commit fails, but each
	// failure is surfaced individually and neither transit aborts the
	// other.
	f.store.FailOp(memory.OpUpdateRobot, fleet.ErrRemoteUnavailable)
	err := f.coord.RunDemo(ctx, []TaskSpec{
		{Destination: model.LocICU, Priority: model.PriorityHigh},
		{Destination: model.LocRoom101, Priority: model.PriorityMedium},
	})
	if err == nil {
		t.Fatal("expected joined commit errors")
	}
	if f.coord.InFlight("r1") || f.coord.InFlight("r2") {
		t.Error("guards must be released after failures")
	}
	tasks, _ := f.store.Tasks(context.Background())
	for _, task := range tasks {
		if task.Status != model.TaskMoving {
			t.Errorf("task to %s = %s, want moving (commit failed after departure)", task.Destination, task.Status)
		}
	}
}

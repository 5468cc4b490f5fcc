// Package poll keeps local views eventually consistent with the fleet
// authority. There are no push notifications: remote-driven transitions
// surface only through these loops.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/logger"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// Reconciler owns the polling loops.
type Reconciler struct {
	cfg  Config
	auth fleet.Authority
	bus  eventbus.EventBus
	log  logger.Logger

	mu     sync.RWMutex
	tasks  []model.Task
	robots []model.Robot
}

// NewReconciler wires a reconciler.
func NewReconciler(cfg Config, auth fleet.Authority, bus eventbus.EventBus, log logger.Logger) *Reconciler {
	cfg.SetDefaults()
	return &Reconciler{cfg: cfg, auth: auth, bus: bus, log: log}
}

// WatchTask polls a single freshly created task until it is observed in
// the bidding state, then publishes BiddingStarted and stops for good.
// The watcher never resumes for that task; the auction presentation
// takes over. Poll errors are logged and retried on the next tick.
func (r *Reconciler) WatchTask(ctx context.Context, taskID string) (model.Task, error) {
	ticker := time.NewTicker(r.cfg.taskWatch())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return model.Task{}, ctx.Err()
		case <-ticker.C:
		}
		task, err := r.auth.Task(ctx, taskID)
		if err != nil {
			r.log.Warnf("task watch %s: %v", taskID, err)
			continue
		}
		if task.Status.Order() >= model.TaskBidding.Order() {
			r.bus.Publish(events.BiddingStarted{TaskID: task.ID, Destination: task.Destination})
			return task, nil
		}
	}
}

// RunDashboardSync replaces the local task and robot snapshots
// wholesale at the dashboard cadence until ctx is cancelled.
func (r *Reconciler) RunDashboardSync(ctx context.Context) {
	r.syncDashboard(ctx)
	ticker := time.NewTicker(r.cfg.dashboard())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.syncDashboard(ctx)
		}
	}
}

// RunRosterSync refreshes the robot snapshot at the slower roster
// cadence until ctx is cancelled.
func (r *Reconciler) RunRosterSync(ctx context.Context) {
	r.syncRoster(ctx)
	ticker := time.NewTicker(r.cfg.roster())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.syncRoster(ctx)
		}
	}
}

func (r *Reconciler) syncDashboard(ctx context.Context) {
	tasks, err := r.auth.Tasks(ctx)
	if err != nil {
		r.log.Warnf("dashboard sync tasks: %v", err)
		return
	}
	robots, err := r.auth.Robots(ctx)
	if err != nil {
		r.log.Warnf("dashboard sync robots: %v", err)
		return
	}
	r.mu.Lock()
	r.tasks = tasks
	r.robots = robots
	r.mu.Unlock()
}

func (r *Reconciler) syncRoster(ctx context.Context) {
	robots, err := r.auth.Robots(ctx)
	if err != nil {
		r.log.Warnf("roster sync: %v", err)
		return
	}
	r.mu.Lock()
	r.robots = robots
	r.mu.Unlock()
}

// Snapshot returns the last successfully synced task and robot views.
func (r *Reconciler) Snapshot() ([]model.Task, []model.Robot) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tasks := make([]model.Task, len(r.tasks))
	copy(tasks, r.tasks)
	robots := make([]model.Robot, len(r.robots))
	copy(robots, r.robots)
	return tasks, robots
}

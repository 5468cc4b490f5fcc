// Package memory provides an in-process implementation of the fleet
// authority, used by tests and as the storage core of the authority
// simulator.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/model"
)

// Operation names accepted by FailOp.
const (
	OpCreateTask  = "create_task"
	OpGetTask     = "get_task"
	OpListTasks   = "list_tasks"
	OpGetRobot    = "get_robot"
	OpListRobots  = "list_robots"
	OpUpdateTask  = "update_task"
	OpUpdateRobot = "update_robot"
	OpTransition  = "transition_task"
)

// Store is a thread-safe in-memory system of record for tasks and
// robots.
type Store struct {
	mu     sync.Mutex
	tasks  map[string]model.Task
	robots map[string]model.Robot
	order  []string // robot insertion order
	fail   map[string]error
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tasks:  make(map[string]model.Task),
		robots: make(map[string]model.Robot),
		fail:   make(map[string]error),
		now:    time.Now,
	}
}

// SeedRobots registers robots, replacing any with the same ID.
func (s *Store) SeedRobots(robots ...model.Robot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range robots {
		if _, ok := s.robots[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.robots[r.ID] = r
	}
}

// DefaultRoster returns the standard three-robot fleet parked at the
// entrance.
func DefaultRoster() []model.Robot {
	return []model.Robot{
		{ID: uuid.NewString(), Name: "MediBot-A1", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 95, TotalTasks: 156, AvgCompletionTime: 4.5},
		{ID: uuid.NewString(), Name: "MediBot-B2", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 85, TotalTasks: 203, AvgCompletionTime: 5.2},
		{ID: uuid.NewString(), Name: "MediBot-C3", Status: model.RobotIdle, Location: model.LocEntrance, Battery: 100, TotalTasks: 189, AvgCompletionTime: 3.8},
	}
}

// FailOp makes the named operation return err until cleared with a nil
// err. Used by tests to exercise commit-failure paths.
func (s *Store) FailOp(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// SetClock overrides the timestamp source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) failure(op string) error {
	if err, ok := s.fail[op]; ok {
		return fmt.Errorf("%w: %w", fleet.ErrRemoteUnavailable, err)
	}
	return nil
}

// CreateTask registers a new pending task.
func (s *Store) CreateTask(_ context.Context, dest model.Location, prio model.Priority) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpCreateTask); err != nil {
		return model.Task{}, err
	}
	if !model.ValidDestination(dest) {
		return model.Task{}, fmt.Errorf("invalid destination %q", dest)
	}
	if !prio.Valid() {
		return model.Task{}, fmt.Errorf("invalid priority %q", prio)
	}
	t := model.Task{
		ID:          uuid.NewString(),
		Destination: dest,
		Priority:    prio,
		Status:      model.TaskPending,
		CreatedAt:   s.now(),
	}
	s.tasks[t.ID] = t
	return t, nil
}

// Task returns the task with the given id.
func (s *Store) Task(_ context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpGetTask); err != nil {
		return model.Task{}, err
	}
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %s: %w", id, fleet.ErrNotFound)
	}
	return t, nil
}

// Tasks returns all tasks, newest first.
func (s *Store) Tasks(_ context.Context) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpListTasks); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Robots returns the roster in insertion order.
func (s *Store) Robots(_ context.Context) ([]model.Robot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpListRobots); err != nil {
		return nil, err
	}
	out := make([]model.Robot, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.robots[id])
	}
	return out, nil
}

// Robot returns the robot with the given id.
func (s *Store) Robot(_ context.Context, id string) (model.Robot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpGetRobot); err != nil {
		return model.Robot{}, err
	}
	r, ok := s.robots[id]
	if !ok {
		return model.Robot{}, fmt.Errorf("robot %s: %w", id, fleet.ErrNotFound)
	}
	return r, nil
}

// UpdateTask applies a partial update.
func (s *Store) UpdateTask(_ context.Context, id string, patch fleet.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpUpdateTask); err != nil {
		return err
	}
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, fleet.ErrNotFound)
	}
	applyTaskPatch(&t, patch)
	s.tasks[id] = t
	return nil
}

// UpdateRobot applies a partial update.
func (s *Store) UpdateRobot(_ context.Context, id string, patch fleet.RobotPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpUpdateRobot); err != nil {
		return err
	}
	r, ok := s.robots[id]
	if !ok {
		return fmt.Errorf("robot %s: %w", id, fleet.ErrNotFound)
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.Location != nil {
		r.Location = *patch.Location
	}
	if patch.Battery != nil {
		r.Battery = *patch.Battery
	}
	if patch.TasksCompletedToday != nil {
		r.TasksCompletedToday = *patch.TasksCompletedToday
	}
	if patch.TotalTasks != nil {
		r.TotalTasks = *patch.TotalTasks
	}
	s.robots[id] = r
	return nil
}

// TransitionTask commits a status change only if the task is still in
// the expected state.
func (s *Store) TransitionTask(_ context.Context, id string, expect, next model.TaskStatus, patch fleet.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpTransition); err != nil {
		return err
	}
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, fleet.ErrNotFound)
	}
	if t.Status != expect {
		return fmt.Errorf("task %s is %s, expected %s: %w", id, t.Status, expect, fleet.ErrConflict)
	}
	if !expect.CanTransition(next) {
		return fmt.Errorf("task %s cannot go %s -> %s: %w", id, expect, next, fleet.ErrConflict)
	}
	t.Status = next
	applyTaskPatch(&t, patch)
	t.Status = next // patch must not override the transition target
	s.tasks[id] = t
	return nil
}

func applyTaskPatch(t *model.Task, patch fleet.TaskPatch) {
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.RobotID != nil {
		t.RobotID = *patch.RobotID
	}
	if patch.RobotName != nil {
		t.RobotName = *patch.RobotName
	}
	if patch.AssignedAt != nil {
		t.AssignedAt = patch.AssignedAt
	}
	if patch.CompletedAt != nil {
		t.CompletedAt = patch.CompletedAt
	}
}

var _ fleet.Authority = (*Store)(nil)

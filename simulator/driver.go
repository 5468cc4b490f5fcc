package simulator

import (
	"context"
	"time"

	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/model"
)

// driveLifecycle enacts the authority's own task policy: open bidding
// after a short delay, then assign the idle robot with the highest
// battery. The coordinator's auction runs against this policy's
// timeline, it never replaces it.
func (s *Server) driveLifecycle(taskID string) {
	if !s.sleep(s.biddingDelay()) {
		return
	}
	ctx := context.Background()
	err := s.store.TransitionTask(ctx, taskID, model.TaskPending, model.TaskBidding, fleet.StatusPatch(model.TaskBidding))
	if err != nil {
		// An external writer advanced the task first. Its lifecycle is
		// no longer ours to drive.
		s.log.Debugf("task %s: bidding transition skipped: %v", taskID, err)
		return
	}

	if !s.sleep(s.assignDelay()) {
		return
	}
	robot, ok := s.pickRobot(ctx)
	if !ok {
		s.log.Warnf("task %s: no idle robot to assign", taskID)
		return
	}
	now := time.Now().UTC()
	err = s.store.TransitionTask(ctx, taskID, model.TaskBidding, model.TaskAssigned, fleet.TaskPatch{
		Status:     fleet.Ptr(model.TaskAssigned),
		RobotID:    fleet.Ptr(robot.ID),
		RobotName:  fleet.Ptr(robot.Name),
		AssignedAt: fleet.Ptr(now),
	})
	if err != nil {
		s.log.Debugf("task %s: assignment skipped: %v", taskID, err)
		return
	}
	err = s.store.UpdateRobot(ctx, robot.ID, fleet.RobotPatch{Status: fleet.Ptr(model.RobotBusy)})
	if err != nil {
		s.log.Errorf("robot %s: busy mark failed: %v", robot.ID, err)
	}
	s.log.Infof("task %s assigned to %s", taskID, robot.Name)
}

// pickRobot selects the idle robot with the highest battery.
func (s *Server) pickRobot(ctx context.Context) (model.Robot, bool) {
	robots, err := s.store.Robots(ctx)
	if err != nil {
		return model.Robot{}, false
	}
	var best model.Robot
	found := false
	for _, r := range robots {
		if r.Status != model.RobotIdle {
			continue
		}
		if !found || r.Battery > best.Battery {
			best = r
			found = true
		}
	}
	return best, found
}

// sleep waits for d or until the server shuts down. It reports whether
// the full delay elapsed.
func (s *Server) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Server) biddingDelay() time.Duration {
	return time.Duration(s.cfg.BiddingDelayMS) * time.Millisecond
}

func (s *Server) assignDelay() time.Duration {
	return time.Duration(s.cfg.AssignDelayMS) * time.Millisecond
}

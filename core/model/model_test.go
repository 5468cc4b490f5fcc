package model

import (
	"testing"
	"time"
)

func TestTaskStatusOrderIsForwardOnly(t *testing.T) {
	seq := []TaskStatus{TaskPending, TaskBidding, TaskAssigned, TaskMoving, TaskCompleted}
	for i := 1; i < len(seq); i++ {
		if seq[i].Order() <= seq[i-1].Order() {
			t.Fatalf("%s must order after %s", seq[i], seq[i-1])
		}
		if !seq[i-1].CanTransition(seq[i]) {
			t.Errorf("transition %s -> %s should be allowed", seq[i-1], seq[i])
		}
		if seq[i].CanTransition(seq[i-1]) {
			t.Errorf("transition %s -> %s must be rejected", seq[i], seq[i-1])
		}
	}
	if TaskCompleted.CanTransition(TaskCompleted) {
		t.Error("completed is terminal")
	}
	if TaskStatus("shipped").Valid() {
		t.Error("unknown status must not validate")
	}
}

func TestTaskValidate(t *testing.T) {
	task := Task{ID: "t1", Destination: LocICU, Priority: PriorityHigh, Status: TaskPending, CreatedAt: time.Now()}
	if err := task.Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}
	task.Status = TaskAssigned
	if err := task.Validate(); err == nil {
		t.Error("assigned task without robot must be invalid")
	}
	task.RobotID = "r1"
	if err := task.Validate(); err != nil {
		t.Errorf("assigned task with robot rejected: %v", err)
	}
	task.Priority = "asap"
	if err := task.Validate(); err == nil {
		t.Error("unknown priority must be invalid")
	}
}

func TestRobotEligibility(t *testing.T) {
	cases := []struct {
		status RobotStatus
		want   bool
	}{
		{RobotIdle, true},
		{RobotBusy, true},
		{RobotCharging, false},
	}
	for _, c := range cases {
		r := Robot{ID: "r1", Status: c.status, Location: LocEntrance, Battery: 80}
		if got := r.Eligible(); got != c.want {
			t.Errorf("status %s: eligible = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestRobotValidateBatteryRange(t *testing.T) {
	r := Robot{ID: "r1", Status: RobotIdle, Battery: 101}
	if err := r.Validate(); err == nil {
		t.Error("battery above 100 must be invalid")
	}
	r.Battery = -1
	if err := r.Validate(); err == nil {
		t.Error("negative battery must be invalid")
	}
}

func TestValidDestination(t *testing.T) {
	if ValidDestination(LocEntrance) {
		t.Error("entrance is parking, not a destination")
	}
	for _, d := range Destinations() {
		if !ValidDestination(d) {
			t.Errorf("%s should be a valid destination", d)
		}
	}
}

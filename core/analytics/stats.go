// Package analytics derives fleet statistics from authority snapshots.
// Everything works on plain task and robot slices so it serves both the
// coordination service and the simulator's reporting endpoints.
package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/medifleet/medifleet/core/model"
)

// Stats summarizes fleet throughput.
type Stats struct {
	TotalTasks        int     `json:"total_tasks"`
	ActiveRobots      int     `json:"active_robots"`
	AvgCompletionTime float64 `json:"avg_completion_time"` // minutes
	StdCompletionTime float64 `json:"std_completion_time"` // minutes
	SystemUptime      float64 `json:"system_uptime"`       // percent
}

// DestinationCount is one row of the destination popularity report.
type DestinationCount struct {
	Destination model.Location `json:"destination"`
	Count       int            `json:"count"`
}

// PriorityCount is one row of the priority distribution report.
type PriorityCount struct {
	Priority model.Priority `json:"priority"`
	Count    int            `json:"count"`
}

// RobotPerformance is one row of the per-robot report.
type RobotPerformance struct {
	Name           string  `json:"name"`
	TasksCompleted int     `json:"tasks_completed"`
	AvgTime        float64 `json:"avg_time"` // minutes
}

// reportedUptime is a fixed figure until real liveness tracking exists.
const reportedUptime = 99.8

// Compute summarizes the given snapshots. Completion time statistics
// cover completed tasks that carry both timestamps.
func Compute(tasks []model.Task, robots []model.Robot) Stats {
	active := 0
	for _, r := range robots {
		if r.Eligible() {
			active++
		}
	}

	var minutes []float64
	for _, t := range tasks {
		if t.Status != model.TaskCompleted || t.CompletedAt == nil {
			continue
		}
		minutes = append(minutes, t.CompletedAt.Sub(t.CreatedAt).Minutes())
	}

	s := Stats{
		TotalTasks:   len(tasks),
		ActiveRobots: active,
		SystemUptime: reportedUptime,
	}
	if len(minutes) > 0 {
		s.AvgCompletionTime = round1(stat.Mean(minutes, nil))
	}
	if len(minutes) > 1 {
		s.StdCompletionTime = round1(stat.StdDev(minutes, nil))
	}
	return s
}

// DestinationPopularity counts tasks per destination, most popular first.
// Ties break alphabetically so the ordering is stable.
func DestinationPopularity(tasks []model.Task) []DestinationCount {
	counts := map[model.Location]int{}
	for _, t := range tasks {
		counts[t.Destination]++
	}
	out := make([]DestinationCount, 0, len(counts))
	for dest, n := range counts {
		out = append(out, DestinationCount{Destination: dest, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Destination < out[j].Destination
	})
	return out
}

// PriorityDistribution counts tasks per priority level in severity order.
func PriorityDistribution(tasks []model.Task) []PriorityCount {
	counts := map[model.Priority]int{}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	order := []model.Priority{model.PriorityUrgent, model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	out := make([]PriorityCount, 0, len(counts))
	for _, p := range order {
		if n, ok := counts[p]; ok {
			out = append(out, PriorityCount{Priority: p, Count: n})
		}
	}
	return out
}

// Performance reports lifetime throughput per robot, roster order.
func Performance(robots []model.Robot) []RobotPerformance {
	out := make([]RobotPerformance, 0, len(robots))
	for _, r := range robots {
		out = append(out, RobotPerformance{
			Name:           r.Name,
			TasksCompleted: r.TotalTasks,
			AvgTime:        r.AvgCompletionTime,
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

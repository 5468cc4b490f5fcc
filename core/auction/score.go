package auction

import (
	"math"

	"github.com/medifleet/medifleet/core/model"
)

// MaxScore is awarded when the robot is already at the destination
// (self-distance 0). The score formula would otherwise divide by zero.
const MaxScore = math.MaxInt32

// Bid is an ephemeral auction entry for one robot. Bids exist only for
// the duration of a single auction instance and are never persisted.
type Bid struct {
	Robot    model.Robot
	Distance float64
	Score    int
}

// Score computes the bid score for a robot at the given distance from
// the destination. Higher is better: closer robots with fuller
// batteries win.
//
//	score = round((1000 / distance) * (battery / 100))
func Score(battery int, distance float64) int {
	if distance == 0 {
		return MaxScore
	}
	return int(math.Round(1000 / distance * float64(battery) / 100))
}

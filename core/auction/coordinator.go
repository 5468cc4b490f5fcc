// Package auction runs the competitive bidding process that assigns a
// delivery task to a robot. The decision itself is instantaneous and
// deterministic; the coordinator stretches it over an observable score
// ramp for presentation.
package auction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/medifleet/medifleet/core/activity"
	"github.com/medifleet/medifleet/core/distance"
	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/core/fleet"
	"github.com/medifleet/medifleet/core/logger"
	"github.com/medifleet/medifleet/core/model"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// Result is the outcome of a completed auction instance.
type Result struct {
	Winner Bid
	Bids   []Bid
}

// Coordinator runs auctions. One instance may run any number of
// auctions sequentially or concurrently; all state is per-call.
type Coordinator struct {
	cfg      Config
	est      *distance.Estimator
	bus      eventbus.EventBus
	activity *activity.Log
	log      logger.Logger
}

// NewCoordinator wires an auction coordinator.
func NewCoordinator(cfg Config, est *distance.Estimator, bus eventbus.EventBus, act *activity.Log, log logger.Logger) *Coordinator {
	cfg.SetDefaults()
	return &Coordinator{cfg: cfg, est: est, bus: bus, activity: act, log: log}
}

// ComputeBids scores every eligible robot for the destination. The
// returned slice preserves roster order, which is also the tie-break
// order: the first robot with the top score wins.
func (c *Coordinator) ComputeBids(dest model.Location, robots []model.Robot) []Bid {
	var bids []Bid
	for _, r := range robots {
		if !r.Eligible() {
			continue
		}
		d := c.est.Distance(r.Location, dest)
		bids = append(bids, Bid{Robot: r, Distance: d, Score: Score(r.Battery, d)})
	}
	return bids
}

// pickWinner returns the bid with the strictly highest score. Ties go
// to the earlier entry.
func pickWinner(bids []Bid) Bid {
	win := bids[0]
	for _, b := range bids[1:] {
		if b.Score > win.Score {
			win = b
		}
	}
	return win
}

// Run executes one auction instance for a task in the bidding state.
// It blocks through the score ramp, the settle delay and the closing
// grace period, publishing progress on the event bus as it goes. If ctx
// is cancelled before the winner is published, all timers stop and no
// winner event is emitted. Re-running the same task starts a fresh
// instance with freshly computed bids.
func (c *Coordinator) Run(ctx context.Context, task model.Task, robots []model.Robot) (Result, error) {
	bids := c.ComputeBids(task.Destination, robots)
	if len(bids) == 0 {
		c.log.Warnf("auction for task %s: no eligible bidders", task.ID)
		c.activity.Append(fmt.Sprintf("Auction for %s failed: no eligible robots", task.Destination))
		c.bus.Publish(events.AuctionFailed{
			TaskID:      task.ID,
			Destination: task.Destination,
			Bidders:     0,
			Reason:      "no eligible bidders",
		})
		return Result{}, fleet.ErrNoEligibleBidders
	}
	winner := pickWinner(bids)

	c.activity.Append(fmt.Sprintf("Bidding started for task to %s (%d robots competing)", task.Destination, len(bids)))
	c.bus.Publish(events.BiddingStarted{TaskID: task.ID, Destination: task.Destination})
	c.log.Debugw("auction opened", map[string]any{
		"task":    task.ID,
		"dest":    string(task.Destination),
		"bidders": len(bids),
	})

	if err := c.ramp(ctx, task.ID, bids); err != nil {
		return Result{}, err
	}
	if err := sleepCtx(ctx, c.cfg.settleDelay()); err != nil {
		return Result{}, err
	}

	// The auction closes here: the winner is published and no entrant
	// may be added or removed from this instance anymore.
	c.bus.Publish(events.AuctionWon{
		TaskID:      task.ID,
		Destination: task.Destination,
		RobotID:     winner.Robot.ID,
		Robot:       winner.Robot.Name,
		Score:       winner.Score,
		Distance:    winner.Distance,
		Bidders:     len(bids),
	})
	c.activity.Append(fmt.Sprintf("%s won the auction for %s (score %d)", winner.Robot.Name, task.Destination, winner.Score))
	c.log.Infof("auction for task %s won by %s with score %d", task.ID, winner.Robot.Name, winner.Score)

	if err := sleepCtx(ctx, c.cfg.gracePeriod()); err != nil {
		c.bus.Publish(events.AuctionClosed{TaskID: task.ID})
		return Result{Winner: winner, Bids: bids}, nil
	}
	c.bus.Publish(events.AuctionClosed{TaskID: task.ID})
	return Result{Winner: winner, Bids: bids}, nil
}

// ramp publishes the interpolated score steps. Interpolation is linear
// from 0 to each robot's final score.
func (c *Coordinator) ramp(ctx context.Context, taskID string, bids []Bid) error {
	steps := c.cfg.RampSteps
	stepDur := c.cfg.rampDuration() / time.Duration(steps)
	ticker := time.NewTicker(maxDuration(stepDur, time.Millisecond))
	defer ticker.Stop()
	for step := 1; step <= steps; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		progress := float64(step) / float64(steps)
		scores := make(map[string]int, len(bids))
		for _, b := range bids {
			scores[b.Robot.ID] = interpolate(b.Score, progress)
		}
		c.bus.Publish(events.BidProgress{TaskID: taskID, Step: step, Steps: steps, Scores: scores})
	}
	return nil
}

// interpolate scales a final score by ramp progress, avoiding overflow
// for the MaxScore self-distance case.
func interpolate(score int, progress float64) int {
	if progress >= 1 {
		return score
	}
	return int(math.Round(float64(score) * progress))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

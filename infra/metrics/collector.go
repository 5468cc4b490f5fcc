package metrics

import (
	"context"
	"time"

	"github.com/medifleet/medifleet/core/events"
	coremetrics "github.com/medifleet/medifleet/core/metrics"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics
// for coordination events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.Sink, ev eventbus.Event) {
	now := time.Now()
	switch e := ev.(type) {
	case events.TaskCreated:
		_ = sink.RecordTask(coremetrics.TaskEvent{
			TaskID:      e.Task.ID,
			Destination: e.Task.Destination,
			Priority:    e.Task.Priority,
			Status:      e.Task.Status,
			Time:        now,
		})
	case events.AuctionWon:
		_ = sink.RecordAuction(coremetrics.AuctionEvent{
			TaskID:      e.TaskID,
			Destination: e.Destination,
			WinnerID:    e.RobotID,
			Winner:      e.Robot,
			Score:       e.Score,
			Bidders:     e.Bidders,
			Time:        now,
		})
	case events.AuctionFailed:
		_ = sink.RecordAuction(coremetrics.AuctionEvent{
			TaskID:      e.TaskID,
			Destination: e.Destination,
			Bidders:     e.Bidders,
			Failed:      true,
			Time:        now,
		})
	case events.MovementCompleted:
		_ = sink.RecordMovement(coremetrics.MovementEvent{
			RobotID:  e.Record.RobotID,
			Robot:    e.Record.RobotName,
			From:     e.Record.From,
			To:       e.Record.To,
			TaskID:   e.TaskID,
			Duration: e.Duration,
			Latency:  e.Latency,
			Success:  true,
			Time:     now,
		})
	case events.MovementFailed:
		_ = sink.RecordMovement(coremetrics.MovementEvent{
			RobotID: e.Record.RobotID,
			Robot:   e.Record.RobotName,
			From:    e.Record.From,
			To:      e.Record.To,
			TaskID:  e.TaskID,
			Success: false,
			Time:    now,
		})
	}
}

package mqtt

import (
	"context"

	"github.com/medifleet/medifleet/core/events"
	"github.com/medifleet/medifleet/infra/logger"
	"github.com/medifleet/medifleet/internal/eventbus"
)

// StartEventBridge forwards coordination events from the bus to the
// MQTT topics until ctx is cancelled. Publish failures are logged and
// dropped; the broker is an observer, not a dependency.
func StartEventBridge(ctx context.Context, bus eventbus.EventBus, pub Publisher, log logger.Logger) {
	if bus == nil || pub == nil {
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
				forward(pub, log, ev)
			}
		}
	}()
}

func forward(pub Publisher, log logger.Logger, ev eventbus.Event) {
	var err error
	switch e := ev.(type) {
	case events.TaskCreated:
		err = pub.PublishTaskNew(e.Task)
	case events.AuctionWon:
		err = pub.PublishTaskAssigned(e.TaskID, e.RobotID, e.Destination, e.Distance)
	case events.MovementCompleted:
		err = pub.PublishTaskComplete(e.TaskID, e.Record.RobotID, e.Record.To)
	}
	if err != nil {
		log.Warnf("mqtt bridge: %v", err)
	}
}

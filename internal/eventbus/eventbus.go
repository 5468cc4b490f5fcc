// Package eventbus carries coordination events between the auction and
// movement coordinators and their observers (presentation views, the
// MQTT bridge, metrics collectors).
//
// Delivery is best effort. The busiest producer is the auction score
// ramp, which emits one BidProgress per step in quick succession; a
// subscriber that cannot keep up loses ramp frames, never a stall of
// the coordinator publishing them. Observers that need the terminal
// events (AuctionWon, AuctionFailed, MovementCompleted) must drain
// their channel promptly so those are not among the dropped.
package eventbus

import "sync"

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// subBuffer is the per-subscriber channel depth. It holds a full
// auction score ramp plus the surrounding lifecycle events, so an
// observer that falls behind mid-ramp still receives the outcome.
const subBuffer = 64

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates a new Bus.
func New() *Bus { return &Bus{} }

// Publish sends the event to all subscribers. A subscriber with a full
// buffer is skipped rather than blocking the publishing coordinator.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and clears the list.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}

// Watch narrows the bus to a single event type, sparing observers that
// only care about one lifecycle event from filtering the ramp traffic
// themselves. The returned stop function ends the subscription; the
// typed channel closes once the underlying one drains.
func Watch[T Event](b EventBus) (<-chan T, func()) {
	src := b.Subscribe()
	out := make(chan T, subBuffer)
	go func() {
		defer close(out)
		for ev := range src {
			if v, ok := ev.(T); ok {
				select {
				case out <- v:
				default:
				}
			}
		}
	}()
	return out, func() { b.Unsubscribe(src) }
}

package eventbus

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()
	defer b.Close()
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Publish("arrival")

	for i, sub := range []<-chan Event{s1, s2} {
		select {
		case e := <-sub:
			if e != "arrival" {
				t.Fatalf("subscriber %d got %v", i, e)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New()
	defer b.Close()
	_ = b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subBuffer*4; i++ {
			b.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBufferHoldsFullScoreRamp(t *testing.T) {
	b := New()
	defer b.Close()
	sub := b.Subscribe()

	// A burst the size of a whole 50-step auction ramp plus its
	// lifecycle events must survive without the subscriber draining.
	const burst = 53
	for i := 0; i < burst; i++ {
		b.Publish(i)
	}
	for i := 0; i < burst; i++ {
		select {
		case e := <-sub:
			if e != i {
				t.Fatalf("event %d = %v", i, e)
			}
		default:
			t.Fatalf("event %d was dropped", i)
		}
	}
}

type rampFrame struct{ step int }

type rampOutcome struct{ winner string }

func TestWatchFiltersToOneEventType(t *testing.T) {
	b := New()
	defer b.Close()
	outcomes, stop := Watch[rampOutcome](b)
	defer stop()

	b.Publish(rampFrame{step: 1})
	b.Publish(rampOutcome{winner: "MediBot-A1"})
	b.Publish(rampFrame{step: 2})

	select {
	case got := <-outcomes:
		if got.winner != "MediBot-A1" {
			t.Fatalf("outcome = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("typed subscriber never saw the outcome")
	}
	select {
	case got := <-outcomes:
		t.Fatalf("unexpected extra event %+v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWatchStopClosesTypedChannel(t *testing.T) {
	b := New()
	defer b.Close()
	outcomes, stop := Watch[rampOutcome](b)
	stop()
	select {
	case _, ok := <-outcomes:
		if ok {
			t.Fatal("expected closed channel after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("typed channel never closed")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	b.Close()
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	b.Close()
	b.Publish("late")
	if _, ok := <-sub; ok {
		t.Fatal("no events expected after close")
	}
}

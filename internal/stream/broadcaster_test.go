package stream

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/crisis-globe/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBroadcaster_SubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount())
	}

	b.Unsubscribe(id)
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed")
		}
	default:
		t.Error("channel should be closed and readable")
	}
}

func TestBroadcaster_Broadcast(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	snap := &models.Snapshot{
		Generation: 3,
		Source:     "primary",
		Crises:     []models.Crisis{{ID: "c1", SeverityScore: 8}},
	}

	b.Broadcast(snap)

	select {
	case received := <-ch:
		if received.Generation != 3 {
			t.Errorf("expected generation 3, got %d", received.Generation)
		}
		if len(received.Crises) != 1 || received.Crises[0].ID != "c1" {
			t.Errorf("unexpected crises: %+v", received.Crises)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast")
	}
}

func TestBroadcaster_ConcurrentSubscribeBroadcast(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, ch := b.Subscribe()
			// Drain channel to prevent blocking
			go func() {
				for range ch {
				}
			}()
			time.Sleep(5 * time.Millisecond)
			b.Unsubscribe(id)
		}()
	}

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Broadcast(&models.Snapshot{Generation: uint64(n)})
		}(i)
	}

	wg.Wait()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", b.SubscriberCount())
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()

	var channels []chan *models.Snapshot
	for i := 0; i < 5; i++ {
		_, ch := b.Subscribe()
		channels = append(channels, ch)
	}

	b.Close()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", b.SubscriberCount())
	}

	for i, ch := range channels {
		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("channel %d should be closed", i)
			}
		default:
			t.Errorf("channel %d should be closed and readable", i)
		}
	}
}

func TestBroadcaster_SubscribeAfterClose(t *testing.T) {
	b := NewBroadcaster()
	b.Close()

	id, ch := b.Subscribe()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after Close")
	}
	// Must not panic on a channel that was never registered.
	b.Unsubscribe(id)
}

func TestBroadcaster_SlowSubscriber(t *testing.T) {
	b := NewBroadcaster()

	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	for i := 0; i < subscriberBuffer+1; i++ {
		b.Broadcast(&models.Snapshot{Generation: uint64(i)})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			goto done
		}
	}
done:

	if count != subscriberBuffer {
		t.Errorf("expected %d buffered snapshots, got %d", subscriberBuffer, count)
	}
}

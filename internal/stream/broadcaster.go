package stream

import (
	"sync"
	"sync/atomic"

	"github.com/mr1hm/crisis-globe/internal/models"
)

const subscriberBuffer = 16

// Broadcaster fans applied snapshots out to every subscriber. A subscriber
// whose buffer is full misses that snapshot; the next one supersedes it
// anyway.
type Broadcaster struct {
	subscribers map[uint64]chan *models.Snapshot
	nextID      atomic.Uint64
	mu          sync.RWMutex
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[uint64]chan *models.Snapshot),
	}
}

// Subscribe registers a new subscriber. After Close it returns an already
// closed channel.
func (b *Broadcaster) Subscribe() (uint64, chan *models.Snapshot) {
	id := b.nextID.Add(1)
	ch := make(chan *models.Snapshot, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id uint64) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) Broadcast(s *models.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- s:
		default:
			// Skip slow subscribers
		}
	}
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels, causing streams to exit gracefully
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}

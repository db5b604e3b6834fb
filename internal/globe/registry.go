package globe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/crisis-globe/internal/models"
)

var ErrRegistryClosed = errors.New("session registry closed")

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// Registry tracks live sessions by id and closes the ones nobody has
// touched for longer than the TTL.
type Registry struct {
	clock  clockwork.Clock
	ttl    time.Duration
	source SnapshotSource

	mu       sync.Mutex
	sessions map[string]*registryEntry
	closed   bool
}

func NewRegistry(clock clockwork.Clock, ttl time.Duration, source SnapshotSource) *Registry {
	return &Registry{
		clock:    clock,
		ttl:      ttl,
		source:   source,
		sessions: make(map[string]*registryEntry),
	}
}

// Create starts a new session seeded with crises. It fails with
// ErrRegistryClosed once CloseAll has run.
func (r *Registry) Create(opts Options, crises []models.Crisis) (*Session, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRegistryClosed
	}

	s := NewSession(uuid.NewString(), opts, crises, r.clock, r.source)
	s.Start(context.Background())

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Close()
		return nil, ErrRegistryClosed
	}
	r.sessions[s.ID()] = &registryEntry{session: s, lastUsed: r.clock.Now()}
	r.mu.Unlock()

	slog.Info("globe session created", "session_id", s.ID(), "crises", len(crises))
	return s, nil
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.clock.Now()
	return e.session, true
}

func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.session.Close()
	return true
}

// CloseAll closes every session and refuses new ones from then on.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	entries := r.sessions
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run reaps idle sessions until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := r.clock.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.reap()
		}
	}
}

func (r *Registry) reap() {
	now := r.clock.Now()

	r.mu.Lock()
	var idle []*Session
	for id, e := range r.sessions {
		if now.Sub(e.lastUsed) > r.ttl {
			idle = append(idle, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
		slog.Info("globe session expired", "session_id", s.ID())
	}
}

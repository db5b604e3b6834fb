package globe

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/crisis-globe/internal/models"
)

const (
	DefaultRadius        = 100.0
	DefaultFrameInterval = 16 * time.Millisecond
)

var ErrUnknownPointerKind = errors.New("unknown pointer event kind")

// SnapshotSource delivers freshly loaded crisis lists to live sessions.
type SnapshotSource interface {
	Subscribe() (uint64, chan *models.Snapshot)
	Unsubscribe(id uint64)
}

type PointerKind string

const (
	PointerDown  PointerKind = "down"
	PointerMove  PointerKind = "move"
	PointerUp    PointerKind = "up"
	PointerLeave PointerKind = "leave"
	TouchStart   PointerKind = "touchstart"
	TouchMove    PointerKind = "touchmove"
	TouchEnd     PointerKind = "touchend"
)

type Options struct {
	Radius        float64
	FrameInterval time.Duration
	Scale         models.SeverityScale
	Controller    ControllerConfig
}

func DefaultOptions() Options {
	return Options{
		Radius:        DefaultRadius,
		FrameInterval: DefaultFrameInterval,
		Scale:         models.DefaultSeverityScale(),
		Controller:    DefaultControllerConfig(),
	}
}

// Frame is everything a renderer needs for one draw.
type Frame struct {
	Seq               uint64        `json:"seq"`
	State             string        `json:"state"`
	Rotation          RotationState `json:"rotation"`
	Markers           []MarkerView  `json:"markers"`
	SelectedID        string        `json:"selected_id,omitempty"`
	PulseScale        float64       `json:"pulse_scale"`
	EmissiveIntensity float64       `json:"emissive_intensity"`
}

type PointerResult struct {
	Handled    bool   `json:"handled"`
	State      string `json:"state"`
	SelectedID string `json:"selected_id,omitempty"`
	Selected   bool   `json:"selected"` // true when this event changed the selection
}

// Session is one viewer's globe: model, controller and frame loop. It is
// created with NewSession, started once, and torn down with Close, which
// stops the frame ticker and the snapshot subscription before returning.
type Session struct {
	id     string
	clock  clockwork.Clock
	opts   Options
	source SnapshotSource

	mu         sync.Mutex
	model      *Model
	ctrl       *Controller
	seq        uint64
	started    time.Time
	generation uint64 // of the last applied snapshot

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	subID     uint64
	subActive bool
	closeOnce sync.Once
}

func NewSession(id string, opts Options, crises []models.Crisis, clock clockwork.Clock, source SnapshotSource) *Session {
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}

	s := &Session{
		id:      id,
		clock:   clock,
		opts:    opts,
		source:  source,
		model:   NewModel(opts.Radius, opts.Scale),
		started: clock.Now(),
	}
	s.model.SetCrises(crises)
	s.ctrl = NewController(opts.Controller, s.model.Markers, s.selectFromPointer)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start launches the frame loop and, if a snapshot source was given, the
// subscription that keeps the crisis list current.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.runFrames(ctx)

	if s.source != nil {
		id, ch := s.source.Subscribe()
		s.subID, s.subActive = id, true
		s.wg.Add(1)
		go s.runSnapshots(ctx, ch)
	}
}

// Close stops the session. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		if s.subActive {
			s.source.Unsubscribe(s.subID)
		}
		slog.Debug("globe session closed", "session_id", s.id)
	})
}

func (s *Session) runFrames(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Step()
		}
	}
}

func (s *Session) runSnapshots(ctx context.Context, ch chan *models.Snapshot) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if s.ApplySnapshot(snap) {
				slog.Debug("globe session refreshed", "session_id", s.id, "generation", snap.Generation, "count", len(snap.Crises))
			}
		}
	}
}

// Step advances the session by one frame.
func (s *Session) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Tick()
	s.seq++
}

func (s *Session) SetCrises(crises []models.Crisis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.SetCrises(crises)
}

// ApplySnapshot replaces the crisis list unless the session already holds a
// newer generation.
func (s *Session) ApplySnapshot(snap *models.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Generation < s.generation {
		return false
	}
	s.generation = snap.Generation
	s.model.SetCrises(snap.Crises)
	return true
}

// Frame snapshots the current render state.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers := make([]MarkerView, len(s.model.Markers()))
	copy(markers, s.model.Markers())

	phase := math.Sin(s.clock.Since(s.started).Seconds() * 2)
	return Frame{
		Seq:               s.seq,
		State:             s.ctrl.State().String(),
		Rotation:          s.ctrl.Rotation(),
		Markers:           markers,
		SelectedID:        s.model.SelectedID(),
		PulseScale:        1 + phase*0.2,
		EmissiveIntensity: 0.5 + phase*0.3,
	}
}

// Pointer feeds one input event through the controller.
func (s *Session) Pointer(kind PointerKind, ev PointerEvent) (PointerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.model.SelectedID()
	var handled bool
	switch kind {
	case PointerDown:
		handled = s.ctrl.PointerDown(ev)
	case PointerMove:
		handled = s.ctrl.PointerMove(ev)
	case PointerUp:
		s.ctrl.PointerUp(ev)
		handled = true
	case PointerLeave:
		s.ctrl.PointerLeave()
		handled = true
	case TouchStart:
		handled = s.ctrl.TouchStart(ev)
	case TouchMove:
		handled = s.ctrl.TouchMove(ev)
	case TouchEnd:
		s.ctrl.TouchEnd()
		handled = true
	default:
		return PointerResult{}, ErrUnknownPointerKind
	}

	after := s.model.SelectedID()
	return PointerResult{
		Handled:    handled,
		State:      s.ctrl.State().String(),
		SelectedID: after,
		Selected:   after != before,
	}, nil
}

// Select selects a crisis from outside the globe, e.g. the list panel.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Select(id)
}

func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.Deselect()
}

// Selected returns a copy of the selected crisis.
func (s *Session) Selected() (models.Crisis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.model.Selected()
	if c == nil {
		return models.Crisis{}, false
	}
	return *c, true
}

func (s *Session) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.SetViewport(v)
}

// selectFromPointer runs with s.mu held.
func (s *Session) selectFromPointer(c *models.Crisis) {
	if c == nil {
		return
	}
	s.model.Select(c.ID)
}

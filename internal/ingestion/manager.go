package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/crisis-globe/internal/config"
	"github.com/mr1hm/crisis-globe/internal/metrics"
	"github.com/mr1hm/crisis-globe/internal/models"
	"github.com/mr1hm/crisis-globe/internal/repository"
	"github.com/mr1hm/crisis-globe/internal/worker"
)

// ErrSuperseded is returned by Refresh when a later refresh started before
// this one finished.
var ErrSuperseded = errors.New("refresh superseded by a newer load")

var ErrNotStarted = errors.New("ingestion manager not started")

type Loader interface {
	Load(ctx context.Context) Result
}

type Broadcaster interface {
	Broadcast(snap *models.Snapshot)
}

type Manager struct {
	cfg         *config.Config
	loader      Loader
	repo        repository.CrisisRepository
	broadcaster Broadcaster
	clock       clockwork.Clock
	metrics     *metrics.Metrics

	generation atomic.Uint64 // last started
	submitted  atomic.Uint64 // last handed to the pool
	pool       *worker.WorkerPool[*models.Snapshot]
	wg         sync.WaitGroup
}

func NewManager(cfg *config.Config, loader Loader, repo repository.CrisisRepository, broadcaster Broadcaster, clock clockwork.Clock, m *metrics.Metrics) *Manager {
	return &Manager{
		cfg:         cfg,
		loader:      loader,
		repo:        repo,
		broadcaster: broadcaster,
		clock:       clock,
		metrics:     m,
	}
}

// Start launches the snapshot workers and the refresh poller. Generations
// continue from the newest stored snapshot so a restart never goes
// backwards.
func (m *Manager) Start(ctx context.Context) {
	if latest, err := m.repo.LatestSnapshot(ctx); err == nil {
		m.generation.Store(latest.Generation)
		m.submitted.Store(latest.Generation)
		slog.Info("resuming from stored snapshot", "generation", latest.Generation, "count", len(latest.Crises))
	} else if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("error reading stored snapshot", "error", err)
	}

	m.pool = worker.NewWorkerPool("snapshots", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, m.persist)
	m.pool.Start(ctx)

	m.wg.Add(1)
	go m.runPoller(ctx)
}

func (m *Manager) persist(ctx context.Context, snap *models.Snapshot) error {
	applied, err := m.repo.ReplaceSnapshot(ctx, snap)
	if err != nil {
		slog.Error("error storing snapshot", "generation", snap.Generation, "error", err)
		return err
	}
	if !applied {
		m.metrics.SnapshotDiscarded("stale")
		slog.Info("skipped stale snapshot", "generation", snap.Generation)
		return nil
	}

	m.metrics.SnapshotApplied(len(snap.Crises))
	if m.broadcaster != nil {
		m.broadcaster.Broadcast(snap)
	}

	slog.Info("applied snapshot", "generation", snap.Generation, "source", snap.Source, "count", len(snap.Crises))
	return nil
}

func (m *Manager) runPoller(ctx context.Context) {
	defer m.wg.Done()
	interval := m.cfg.Sources.RefreshInterval
	slog.Info("starting poller", "interval", interval)

	m.refresh(ctx)
	if interval <= 0 {
		return
	}

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-ticker.Chan():
			m.refresh(ctx)
		}
	}
}

func (m *Manager) refresh(ctx context.Context) {
	if _, err := m.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		slog.Error("refresh failed", "error", err)
	}
}

// Refresh runs one load cycle and queues the result for persistence. If a
// load started after this one has already been queued, this result is
// dropped and ErrSuperseded returned. A load that fails or is cancelled
// never supersedes anything; the repository generation guard orders the
// rest.
func (m *Manager) Refresh(ctx context.Context) (*models.Snapshot, error) {
	if m.pool == nil {
		return nil, ErrNotStarted
	}
	gen := m.generation.Add(1)
	res := m.loader.Load(ctx)

	if m.submitted.Load() > gen {
		m.metrics.SnapshotDiscarded("superseded")
		slog.Debug("discarding superseded load", "generation", gen, "source", res.Source)
		return nil, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		Generation: gen,
		Source:     res.Source,
		LoadedAt:   m.clock.Now(),
		Crises:     res.Crises,
	}
	if err := m.pool.Submit(ctx, snap); err != nil {
		return nil, err
	}
	m.markSubmitted(gen)
	return snap, nil
}

func (m *Manager) markSubmitted(gen uint64) {
	for {
		cur := m.submitted.Load()
		if cur >= gen || m.submitted.CompareAndSwap(cur, gen) {
			return
		}
	}
}

func (m *Manager) Stop() {
	m.wg.Wait()
	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("ingestion manager stopped")
}

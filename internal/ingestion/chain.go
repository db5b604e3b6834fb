package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/crisis-globe/internal/config"
	"github.com/mr1hm/crisis-globe/internal/metrics"
	"github.com/mr1hm/crisis-globe/internal/models"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailure Outcome = "failure"
)

// Attempt records what one stage returned during a load.
type Attempt struct {
	Source   string        `json:"source"`
	Outcome  Outcome       `json:"outcome"`
	Count    int           `json:"count"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

type Result struct {
	Source   string          `json:"source"`
	Crises   []models.Crisis `json:"crises"`
	Attempts []Attempt       `json:"attempts"`
}

// Chain tries its sources in order, once each, and keeps the first
// non-empty list. Nothing is cached between loads.
type Chain struct {
	sources []Source
	clock   clockwork.Clock
	metrics *metrics.Metrics
}

func NewChain(clock clockwork.Clock, m *metrics.Metrics, sources ...Source) *Chain {
	return &Chain{
		sources: sources,
		clock:   clock,
		metrics: m,
	}
}

// NewChainFromConfig builds primary -> static -> builtin. An empty primary
// URL drops that stage; a static URL takes precedence over the static path.
func NewChainFromConfig(cfg config.SourcesConfig, clock clockwork.Clock, m *metrics.Metrics) *Chain {
	var primary Source
	if cfg.PrimaryURL != "" {
		primary = NewHTTPSource("primary", cfg.PrimaryURL, cfg.FetchTimeout)
	}

	var static Source = NewFileSource("static", cfg.StaticPath)
	if cfg.StaticURL != "" {
		static = NewHTTPSource("static", cfg.StaticURL, cfg.FetchTimeout)
	}

	return NewChain(clock, m, primary, static, BuiltinSource{})
}

// Load never returns an empty list: when every stage fails or comes back
// empty the builtin record is used.
func (c *Chain) Load(ctx context.Context) Result {
	var attempts []Attempt

	for _, src := range c.sources {
		if src == nil {
			continue
		}

		crises, attempt := c.try(ctx, src)
		attempts = append(attempts, attempt)
		if attempt.Outcome == OutcomeSuccess {
			return Result{Source: src.Name(), Crises: crises, Attempts: attempts}
		}
	}

	slog.Warn("all crisis sources failed, using builtin record", "attempts", len(attempts))
	return Result{
		Source:   BuiltinSource{}.Name(),
		Crises:   []models.Crisis{FallbackCrisis()},
		Attempts: attempts,
	}
}

func (c *Chain) try(ctx context.Context, src Source) ([]models.Crisis, Attempt) {
	start := c.clock.Now()
	crises, err := src.Fetch(ctx)
	attempt := Attempt{Source: src.Name(), Duration: c.clock.Since(start)}

	switch {
	case err != nil:
		attempt.Outcome = OutcomeFailure
		attempt.Error = err.Error()
		slog.Warn("crisis source failed", "source", src.Name(), "error", err)
	case len(crises) == 0:
		attempt.Outcome = OutcomeEmpty
		slog.Warn("crisis source returned no records", "source", src.Name())
	default:
		crises = dedupe(crises)
		attempt.Outcome = OutcomeSuccess
		attempt.Count = len(crises)
		slog.Debug("crisis source loaded", "source", src.Name(), "count", len(crises))
	}

	c.metrics.ObserveFetch(attempt.Source, string(attempt.Outcome), attempt.Duration)
	return crises, attempt
}

// dedupe keeps the first record for each id.
func dedupe(crises []models.Crisis) []models.Crisis {
	seen := make(map[string]struct{}, len(crises))
	out := make([]models.Crisis, 0, len(crises))
	for _, c := range crises {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	if dropped := len(crises) - len(out); dropped > 0 {
		slog.Warn("dropped duplicate crisis ids", "count", dropped)
	}
	return out
}

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/crisis-globe/internal/config"
	"github.com/mr1hm/crisis-globe/internal/metrics"
	"github.com/mr1hm/crisis-globe/internal/models"
)

const twoCrises = `{
	"crises": [
		{"crisis_id": "sd_1", "type": "conflict", "severity_score": 9.1,
		 "location": {"country": "Sudan", "city": "Khartoum", "lat": 15.5, "lng": 32.5},
		 "impact": {"deaths": 15000, "displaced": 8000000}, "status": "ongoing"},
		{"crisis_id": "ht_1", "type": "earthquake", "severity_score": 6.2,
		 "location": {"country": "Haiti", "city": "Jérémie", "lat": 18.6, "lng": -74.1},
		 "status": "resolved", "last_updated": "2026-01-10T08:00:00Z"}
	]
}`

// countingServer serves body with status and counts requests.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type stubSource struct {
	name   string
	crises []models.Crisis
	err    error
	calls  atomic.Int64
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]models.Crisis, error) {
	s.calls.Add(1)
	return s.crises, s.err
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, twoCrises)

	crises, err := NewHTTPSource("primary", srv.URL, 0).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, crises, 2)

	assert.Equal(t, "sd_1", crises[0].ID)
	assert.Equal(t, int64(8000000), crises[0].Impact.Displaced)
	assert.Equal(t, models.CrisisStatusResolved, crises[1].Status)
	assert.True(t, crises[1].LastUpdated.Known())
}

func TestHTTPSource_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"crises": []}`},
		{"not found", http.StatusNotFound, "nope"},
		{"bad json", http.StatusOK, `{"crises": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := countingServer(t, tt.status, tt.body)
			_, err := NewHTTPSource("primary", srv.URL, 0).Fetch(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crises.json")
	require.NoError(t, os.WriteFile(path, []byte(twoCrises), 0o644))

	crises, err := NewFileSource("static", path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, crises, 2)

	_, err = NewFileSource("static", filepath.Join(dir, "missing.json")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestChain_PrimarySuccessSkipsRest(t *testing.T) {
	primary, primaryHits := countingServer(t, http.StatusOK, twoCrises)
	static, staticHits := countingServer(t, http.StatusOK, twoCrises)

	chain := NewChain(clockwork.NewRealClock(), nil,
		NewHTTPSource("primary", primary.URL, 0),
		NewHTTPSource("static", static.URL, 0),
		BuiltinSource{},
	)

	res := chain.Load(context.Background())

	assert.Equal(t, "primary", res.Source)
	assert.Len(t, res.Crises, 2)
	assert.Equal(t, int64(1), primaryHits.Load())
	assert.Equal(t, int64(0), staticHits.Load())
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, OutcomeSuccess, res.Attempts[0].Outcome)
}

func TestChain_FallsBackToStatic(t *testing.T) {
	primary, primaryHits := countingServer(t, http.StatusBadGateway, "")
	static, _ := countingServer(t, http.StatusOK, twoCrises)

	chain := NewChain(clockwork.NewRealClock(), nil,
		NewHTTPSource("primary", primary.URL, 0),
		NewHTTPSource("static", static.URL, 0),
		BuiltinSource{},
	)

	res := chain.Load(context.Background())

	assert.Equal(t, "static", res.Source)
	assert.Len(t, res.Crises, 2)
	assert.Equal(t, int64(1), primaryHits.Load(), "each stage is attempted at most once")
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, OutcomeFailure, res.Attempts[0].Outcome)
	assert.NotEmpty(t, res.Attempts[0].Error)
}

func TestChain_EmptyEverywhereYieldsFallbackRecord(t *testing.T) {
	primary, _ := countingServer(t, http.StatusOK, `{"crises": []}`)
	static, _ := countingServer(t, http.StatusOK, `{"crises": []}`)

	chain := NewChain(clockwork.NewRealClock(), nil,
		NewHTTPSource("primary", primary.URL, 0),
		NewHTTPSource("static", static.URL, 0),
		BuiltinSource{},
	)

	res := chain.Load(context.Background())

	require.Len(t, res.Crises, 1)
	assert.Equal(t, "fallback_1", res.Crises[0].ID)
	assert.Equal(t, "builtin", res.Source)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, OutcomeEmpty, res.Attempts[0].Outcome)
	assert.Equal(t, OutcomeEmpty, res.Attempts[1].Outcome)
	assert.Equal(t, OutcomeSuccess, res.Attempts[2].Outcome)
}

func TestChain_AllFailWithoutBuiltinStage(t *testing.T) {
	failing := &stubSource{name: "primary", err: errors.New("connection refused")}
	empty := &stubSource{name: "static"}

	res := NewChain(clockwork.NewRealClock(), nil, failing, nil, empty).Load(context.Background())

	require.Len(t, res.Crises, 1)
	assert.Equal(t, "fallback_1", res.Crises[0].ID)
	assert.Equal(t, "builtin", res.Source)
	assert.Len(t, res.Attempts, 2)
}

func TestChain_NoCachingBetweenLoads(t *testing.T) {
	failing := &stubSource{name: "primary", err: errors.New("timeout")}
	chain := NewChain(clockwork.NewRealClock(), nil, failing, BuiltinSource{})

	chain.Load(context.Background())
	chain.Load(context.Background())

	assert.Equal(t, int64(2), failing.calls.Load())
}

func TestChain_DedupesKeepingFirst(t *testing.T) {
	src := &stubSource{name: "primary", crises: []models.Crisis{
		{ID: "a", Type: "flood"},
		{ID: "b", Type: "drought"},
		{ID: "a", Type: "wildfire"},
	}}

	res := NewChain(clockwork.NewRealClock(), nil, src).Load(context.Background())

	require.Len(t, res.Crises, 2)
	assert.Equal(t, "flood", res.Crises[0].Type)
	assert.Equal(t, 2, res.Attempts[0].Count)
}

func TestChain_RecordsMetrics(t *testing.T) {
	m := metrics.NewForTesting()
	failing := &stubSource{name: "primary", err: errors.New("down")}

	NewChain(clockwork.NewRealClock(), m, failing, BuiltinSource{}).Load(context.Background())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("primary", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("builtin", "success")))
}

func TestFallbackCrisis_IsFreshCopy(t *testing.T) {
	a := FallbackCrisis()
	a.Campaigns[0].OrgName = "changed"
	*a.Location.Lat = 0

	b := FallbackCrisis()
	assert.Equal(t, "UNICEF", b.Campaigns[0].OrgName)
	assert.Equal(t, 31.4, *b.Location.Lat)

	coords, ok := b.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 34.5, coords.Longitude)
}

func TestNewChainFromConfig(t *testing.T) {
	primary, primaryHits := countingServer(t, http.StatusServiceUnavailable, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "mock_actionable_crises.json")
	require.NoError(t, os.WriteFile(path, []byte(twoCrises), 0o644))

	chain := NewChainFromConfig(config.SourcesConfig{
		PrimaryURL: primary.URL,
		StaticPath: path,
	}, clockwork.NewRealClock(), nil)

	res := chain.Load(context.Background())
	assert.Equal(t, "static", res.Source)
	assert.Len(t, res.Crises, 2)
	assert.Equal(t, int64(1), primaryHits.Load())

	static, _ := countingServer(t, http.StatusOK, `{"crises": [{"crisis_id": "remote"}]}`)
	res = NewChainFromConfig(config.SourcesConfig{
		StaticPath: path,
		StaticURL:  static.URL,
	}, clockwork.NewRealClock(), nil).Load(context.Background())

	assert.Equal(t, "static", res.Source)
	require.Len(t, res.Crises, 1)
	assert.Equal(t, "remote", res.Crises[0].ID)
	assert.Len(t, res.Attempts, 1, "primary stage is dropped without a URL")
}

package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mr1hm/crisis-globe/internal/models"
)

const defaultFetchTimeout = 15 * time.Second

// Source is one stage of the fallback chain.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Crisis, error)
}

type crisesDocument struct {
	Crises []models.Crisis `json:"crises"`
}

func decodeCrises(r io.Reader) ([]models.Crisis, error) {
	var doc crisesDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding crises document: %w", err)
	}
	return doc.Crises, nil
}

// HTTPSource GETs a document shaped {"crises": [...]}. Any status other than
// 200 is a failure.
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPSource(name, url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Crisis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return decodeCrises(resp.Body)
}

// FileSource reads the static crises document from disk.
type FileSource struct {
	name string
	path string
}

func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

func (s *FileSource) Name() string { return s.name }

func (s *FileSource) Fetch(ctx context.Context) ([]models.Crisis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", s.path, err)
	}
	defer f.Close()

	return decodeCrises(f)
}

// BuiltinSource always yields the single hardcoded record, so a load can
// never come back empty.
type BuiltinSource struct{}

func (BuiltinSource) Name() string { return "builtin" }

func (BuiltinSource) Fetch(ctx context.Context) ([]models.Crisis, error) {
	return []models.Crisis{FallbackCrisis()}, nil
}

// FallbackCrisis returns a fresh copy of the builtin record.
func FallbackCrisis() models.Crisis {
	return models.Crisis{
		ID:   "fallback_1",
		Type: "humanitarian_crisis",
		Location: models.Location{
			Country: "Palestine",
			City:    "Gaza",
			Lat:     models.Float64(31.4),
			Lng:     models.Float64(34.5),
		},
		SeverityScore: 9.5,
		Impact: models.Impact{
			Deaths:        35000,
			Injured:       78000,
			Displaced:     1900000,
			AffectedTotal: 2300000,
		},
		Status:      models.CrisisStatusOngoing,
		Description: "Humanitarian crisis with critical needs. Load mock data from public/data/crises for full list.",
		Campaigns: []models.AidCampaign{
			{
				OrgName:     "UNICEF",
				FocusArea:   "Emergency relief",
				CampaignURL: "https://www.unicef.org",
				Verified:    true,
			},
		},
	}
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/crisis-globe/internal/format"
	"github.com/mr1hm/crisis-globe/internal/globe"
	"github.com/mr1hm/crisis-globe/internal/ingestion"
	"github.com/mr1hm/crisis-globe/internal/metrics"
	"github.com/mr1hm/crisis-globe/internal/models"
	"github.com/mr1hm/crisis-globe/internal/repository"
)

const maxListLimit = 500

// Refresher triggers an out-of-band load of the crisis list.
type Refresher interface {
	Refresh(ctx context.Context) (*models.Snapshot, error)
}

type Options struct {
	Globe     globe.Options
	Clock     clockwork.Clock
	Metrics   *metrics.Metrics
	Refresher Refresher // nil disables POST /api/refresh
}

type Handler struct {
	repo      repository.CrisisRepository
	sessions  *globe.Registry
	snapshots globe.SnapshotSource
	opts      Options
}

func NewHandler(repo repository.CrisisRepository, sessions *globe.Registry, snapshots globe.SnapshotSource, opts Options) *Handler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Handler{
		repo:      repo,
		sessions:  sessions,
		snapshots: snapshots,
		opts:      opts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/crises", h.listCrises)
	api.GET("/crises.geojson", h.crisesGeoJSON)
	api.GET("/crises/:id", h.getCrisis)
	api.GET("/summary", h.summary)
	api.GET("/markers", h.markers)
	api.GET("/stream", h.stream)
	if h.opts.Refresher != nil {
		api.POST("/refresh", h.refresh)
	}

	if h.sessions != nil {
		s := api.Group("/sessions")
		s.POST("", h.createSession)
		s.DELETE("/:id", h.deleteSession)
		s.GET("/:id/frame", h.frame)
		s.POST("/:id/pointer", h.pointer)
		s.PUT("/:id/viewport", h.setViewport)
		s.GET("/:id/selection", h.getSelection)
		s.PUT("/:id/selection", h.selectCrisis)
		s.DELETE("/:id/selection", h.deselect)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listCrises(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crises, err := h.repo.ListCrises(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch crises",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(crises),
		"crises": crises,
	})
}

func (h *Handler) crisesGeoJSON(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	crises, err := h.repo.ListCrises(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch crises",
		})
		return
	}

	fc := toGeoJSON(crises, h.opts.Globe.Scale)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getCrisis(c *gin.Context) {
	crisis, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "crisis not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch crisis"})
		return
	}

	c.JSON(http.StatusOK, h.detail(crisis))
}

type severityView struct {
	Score float64              `json:"score"`
	Level models.SeverityLevel `json:"level"`
	Label string               `json:"label"`
	Color string               `json:"color"`
}

type impactView struct {
	Deaths        string `json:"deaths"`
	Injured       string `json:"injured"`
	Displaced     string `json:"displaced"`
	AffectedTotal string `json:"affected_total"`
}

type crisisDetail struct {
	Crisis         *models.Crisis `json:"crisis"`
	Place          string         `json:"place"`
	Severity       severityView   `json:"severity"`
	Impact         impactView     `json:"impact"`
	AffectedExact  string         `json:"affected_exact"`
	LastUpdatedAgo string         `json:"last_updated_ago,omitempty"`
	VerifiedAgo    string         `json:"verified_ago,omitempty"`
}

func (h *Handler) severity(score float64) severityView {
	level := h.opts.Globe.Scale.Level(score)
	return severityView{
		Score: score,
		Level: level,
		Label: level.Label(),
		Color: level.Color(),
	}
}

func (h *Handler) detail(c *models.Crisis) crisisDetail {
	d := crisisDetail{
		Crisis:   c,
		Place:    c.Place(),
		Severity: h.severity(c.SeverityScore),
		Impact: impactView{
			Deaths:        format.Count(c.Impact.Deaths),
			Injured:       format.Count(c.Impact.Injured),
			Displaced:     format.Count(c.Impact.Displaced),
			AffectedTotal: format.Count(c.Impact.AffectedTotal),
		},
		AffectedExact: format.Exact(c.Impact.AffectedTotal),
	}

	now := h.opts.Clock.Now()
	if c.LastUpdated.Known() {
		d.LastUpdatedAgo = format.TimeAgo(c.LastUpdated.Time, now)
	}
	if c.TimestampVerified.Known() {
		d.VerifiedAgo = format.TimeAgo(c.TimestampVerified.Time, now)
	}
	return d
}

func (h *Handler) summary(c *gin.Context) {
	ctx := c.Request.Context()
	crises, err := h.repo.ListCrises(ctx, repository.Filter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch crises"})
		return
	}

	byLevel := make(map[models.SeverityLevel]int, len(models.SeverityLevels))
	for _, l := range models.SeverityLevels {
		byLevel[l] = 0
	}
	var affected int64
	ongoing, campaigns := 0, 0
	for i := range crises {
		byLevel[h.opts.Globe.Scale.Level(crises[i].SeverityScore)]++
		affected += crises[i].Impact.AffectedTotal
		if crises[i].Status == models.CrisisStatusOngoing {
			ongoing++
		}
		for _, camp := range crises[i].Campaigns {
			if camp.Verified {
				campaigns++
			}
		}
	}

	resp := gin.H{
		"total_crises":           len(crises),
		"ongoing":                ongoing,
		"total_affected":         affected,
		"total_affected_display": format.Count(affected),
		"verified_campaigns":     campaigns,
		"by_level":               byLevel,
	}

	snap, err := h.repo.LatestSnapshot(ctx)
	switch {
	case err == nil:
		resp["source"] = snap.Source
		resp["generation"] = snap.Generation
		resp["loaded_at"] = snap.LoadedAt
	case !errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// markers derives markers from the current snapshot without a session.
func (h *Handler) markers(c *gin.Context) {
	radius := h.opts.Globe.Radius
	if r := c.Query("radius"); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be a positive number"})
			return
		}
		radius = v
	}

	crises, ok := h.currentCrises(c)
	if !ok {
		return
	}

	markers := globe.DeriveMarkers(crises, c.Query("selected"), radius, h.opts.Globe.Scale)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(markers),
		"radius":  radius,
		"markers": markers,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	snap, err := h.opts.Refresher.Refresh(c.Request.Context())
	if errors.Is(err, ingestion.ErrSuperseded) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"generation": snap.Generation,
		"source":     snap.Source,
		"count":      len(snap.Crises),
	})
}

// currentCrises returns the latest snapshot's crises in load order. It
// writes the error response itself and reports false on failure.
func (h *Handler) currentCrises(c *gin.Context) ([]models.Crisis, bool) {
	snap, err := h.repo.LatestSnapshot(c.Request.Context())
	if errors.Is(err, repository.ErrNotFound) {
		return []models.Crisis{}, true
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read snapshot"})
		return nil, false
	}
	return snap.Crises, true
}

func parseFilter(c *gin.Context) (repository.Filter, error) {
	var filter repository.Filter

	if t := c.Query("type"); t != "" {
		filter.Type = &t
	}
	if s := c.Query("status"); s != "" {
		status := models.CrisisStatus(strings.ToLower(s))
		if status != models.CrisisStatusOngoing && status != models.CrisisStatusResolved {
			return filter, errors.New("status must be ongoing or resolved")
		}
		filter.Status = &status
	}
	if m := c.Query("min_severity"); m != "" {
		sev, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return filter, errors.New("min_severity must be a number")
		}
		filter.MinSeverity = &sev
	}
	if country := c.Query("country"); country != "" {
		filter.Country = &country
	}
	switch sort := repository.SortOrder(c.DefaultQuery("sort", string(repository.SortBySeverity))); sort {
	case repository.SortBySeverity, repository.SortByRecent:
		filter.Sort = sort
	default:
		return filter, errors.New("sort must be severity or recent")
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxListLimit {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off > 0 {
			filter.Offset = off
		}
	}

	return filter, nil
}

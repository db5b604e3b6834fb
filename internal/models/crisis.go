package models

type CrisisStatus string

const (
	CrisisStatusOngoing  CrisisStatus = "ongoing"
	CrisisStatusResolved CrisisStatus = "resolved"
)

type Crisis struct {
	ID                string        `json:"crisis_id"`
	Type              string        `json:"type"` // e.g. "humanitarian_crisis", "earthquake"
	Location          Location      `json:"location"`
	SeverityScore     float64       `json:"severity_score"` // roughly 0-10
	Impact            Impact        `json:"impact"`
	Status            CrisisStatus  `json:"status"`
	Description       string        `json:"description"`
	VerifiedSources   []string      `json:"verified_sources,omitempty"`
	Campaigns         []AidCampaign `json:"ngo_campaigns,omitempty"`
	TimestampVerified *Timestamp    `json:"timestamp_verified,omitempty"`
	LastUpdated       *Timestamp    `json:"last_updated,omitempty"`
}

type Location struct {
	Country string   `json:"country"`
	City    string   `json:"city"`
	Lat     *float64 `json:"lat"` // nil when the source omitted it
	Lng     *float64 `json:"lng"`
}

type Impact struct {
	Deaths        int64 `json:"deaths"`
	Injured       int64 `json:"injured"`
	Displaced     int64 `json:"displaced"`
	AffectedTotal int64 `json:"affected_total"`
}

type AidCampaign struct {
	OrgName     string   `json:"org_name"`
	FocusArea   string   `json:"focus_area"`
	CampaignURL string   `json:"campaign_url"`
	Verified    bool     `json:"verified"`
	Raised      *float64 `json:"raised,omitempty"`
	Goal        *float64 `json:"goal,omitempty"` // nil when the campaign has no target
}

type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Coordinates reports the crisis position and whether it is usable: both
// fields present, finite and inside [-90,90] x [-180,180].
func (c *Crisis) Coordinates() (Coordinates, bool) {
	if c.Location.Lat == nil || c.Location.Lng == nil {
		return Coordinates{}, false
	}
	lat, lng := *c.Location.Lat, *c.Location.Lng
	if !(lat >= -90 && lat <= 90) || !(lng >= -180 && lng <= 180) {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lng}, true
}

// Place returns "City, Country", dropping whichever half is empty.
func (c *Crisis) Place() string {
	switch {
	case c.Location.City != "" && c.Location.Country != "":
		return c.Location.City + ", " + c.Location.Country
	case c.Location.City != "":
		return c.Location.City
	default:
		return c.Location.Country
	}
}

// Float64 returns a pointer to v, for building optional fields.
func Float64(v float64) *float64 {
	return &v
}

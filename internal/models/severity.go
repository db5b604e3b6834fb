package models

type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

var severityLabels = map[SeverityLevel]string{
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

var severityColors = map[SeverityLevel]string{
	SeverityLow:      "#22C55E",
	SeverityMedium:   "#EAB308",
	SeverityHigh:     "#F97316",
	SeverityCritical: "#EF4444",
}

// SeverityLevels lists every level from least to most severe.
var SeverityLevels = []SeverityLevel{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (l SeverityLevel) Label() string {
	if s, ok := severityLabels[l]; ok {
		return s
	}
	return severityLabels[SeverityMedium]
}

func (l SeverityLevel) Color() string {
	if c, ok := severityColors[l]; ok {
		return c
	}
	return severityColors[SeverityMedium]
}

// SeverityScale holds the lower bounds (inclusive) of each band above "low".
type SeverityScale struct {
	Critical float64 `toml:"critical" json:"critical"`
	High     float64 `toml:"high" json:"high"`
	Medium   float64 `toml:"medium" json:"medium"`
}

func DefaultSeverityScale() SeverityScale {
	return SeverityScale{Critical: 9, High: 7, Medium: 5}
}

func (s SeverityScale) Level(score float64) SeverityLevel {
	switch {
	case score >= s.Critical:
		return SeverityCritical
	case score >= s.High:
		return SeverityHigh
	case score >= s.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Valid reports whether the thresholds are strictly increasing.
func (s SeverityScale) Valid() bool {
	return s.Medium < s.High && s.High < s.Critical
}

package api

import (
	"github.com/mr1hm/crisis-globe/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON emits one Point feature per crisis with usable coordinates.
func toGeoJSON(crises []models.Crisis, scale models.SeverityScale) FeatureCollection {
	features := make([]Feature, 0, len(crises))

	for i := range crises {
		c := &crises[i]
		coords, ok := c.Coordinates()
		if !ok {
			continue
		}

		level := scale.Level(c.SeverityScore)
		f := Feature{
			Type: "Feature",
			ID:   c.ID,
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{coords.Longitude, coords.Latitude},
			},
			Properties: map[string]any{
				"crisis_id":      c.ID,
				"type":           c.Type,
				"place":          c.Place(),
				"severity_score": c.SeverityScore,
				"severity_level": level,
				"color":          level.Color(),
				"status":         c.Status,
				"affected_total": c.Impact.AffectedTotal,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

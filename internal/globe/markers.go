package globe

import "github.com/mr1hm/crisis-globe/internal/models"

const (
	// MarkerOffset lifts markers slightly above the globe surface.
	MarkerOffset = 1.01
	// MarkerRadius is the hit (and draw) radius of a single marker.
	MarkerRadius = 2.0
)

// MarkerView is the render-ready form of one crisis. It is rebuilt, never
// edited, whenever the crisis list or the selection changes.
type MarkerView struct {
	ID       string               `json:"id"`
	Crisis   *models.Crisis       `json:"-"`
	Position Vec3                 `json:"position"` // globe-local frame
	Selected bool                 `json:"selected"`
	Level    models.SeverityLevel `json:"level"`
	Color    string               `json:"color"`
}

// DeriveMarkers builds one MarkerView per crisis with usable coordinates,
// in input order. Crises without coordinates are skipped. At most the one
// marker whose id equals selectedID is flagged as selected; an unknown id
// selects nothing.
func DeriveMarkers(crises []models.Crisis, selectedID string, radius float64, scale models.SeverityScale) []MarkerView {
	markers := make([]MarkerView, 0, len(crises))
	selectedSeen := false

	for i := range crises {
		c := &crises[i]
		coords, ok := c.Coordinates()
		if !ok {
			continue
		}

		selected := !selectedSeen && selectedID != "" && c.ID == selectedID
		if selected {
			selectedSeen = true
		}

		level := scale.Level(c.SeverityScore)
		markers = append(markers, MarkerView{
			ID:       c.ID,
			Crisis:   c,
			Position: Project(coords.Latitude, coords.Longitude, radius*MarkerOffset),
			Selected: selected,
			Level:    level,
			Color:    level.Color(),
		})
	}

	return markers
}

package globe

import "github.com/mr1hm/crisis-globe/internal/models"

// Model owns the crisis list, the selection and the markers derived from
// both. Every mutation rebuilds the marker list so stale markers never
// outlive their crisis.
type Model struct {
	crises     []models.Crisis
	selectedID string
	radius     float64
	scale      models.SeverityScale
	markers    []MarkerView
}

func NewModel(radius float64, scale models.SeverityScale) *Model {
	return &Model{radius: radius, scale: scale}
}

// SetCrises replaces the crisis list. The selection survives only if its id
// is still present.
func (m *Model) SetCrises(crises []models.Crisis) {
	m.crises = crises
	if m.selectedID != "" && m.indexOf(m.selectedID) < 0 {
		m.selectedID = ""
	}
	m.rebuild()
}

// Select makes id the selection. An id not in the list leaves the current
// selection untouched and reports false.
func (m *Model) Select(id string) bool {
	if m.indexOf(id) < 0 {
		return false
	}
	m.selectedID = id
	m.rebuild()
	return true
}

func (m *Model) Deselect() {
	m.selectedID = ""
	m.rebuild()
}

// Selected returns the selected crisis, or nil.
func (m *Model) Selected() *models.Crisis {
	if m.selectedID == "" {
		return nil
	}
	return m.Crisis(m.selectedID)
}

func (m *Model) SelectedID() string {
	return m.selectedID
}

func (m *Model) Crisis(id string) *models.Crisis {
	if i := m.indexOf(id); i >= 0 {
		return &m.crises[i]
	}
	return nil
}

func (m *Model) Crises() []models.Crisis {
	return m.crises
}

// Markers returns the current marker list. Callers must not modify it.
func (m *Model) Markers() []MarkerView {
	return m.markers
}

func (m *Model) Radius() float64 {
	return m.radius
}

func (m *Model) rebuild() {
	m.markers = DeriveMarkers(m.crises, m.selectedID, m.radius, m.scale)
}

func (m *Model) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range m.crises {
		if m.crises[i].ID == id {
			return i
		}
	}
	return -1
}

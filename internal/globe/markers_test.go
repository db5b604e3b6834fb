package globe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/crisis-globe/internal/models"
)

func crisisAt(id string, lat, lng, severity float64) models.Crisis {
	return models.Crisis{
		ID:            id,
		Type:          "test",
		Location:      models.Location{Lat: models.Float64(lat), Lng: models.Float64(lng)},
		SeverityScore: severity,
		Status:        models.CrisisStatusOngoing,
	}
}

func TestDeriveMarkers_TwoCrisesOneSelected(t *testing.T) {
	crises := []models.Crisis{
		crisisAt("a", 0, 0, 9.5),
		crisisAt("b", 45, 90, 3),
	}

	markers := DeriveMarkers(crises, "a", 100, models.DefaultSeverityScale())
	require.Len(t, markers, 2)

	assert.Equal(t, "a", markers[0].ID)
	assert.True(t, markers[0].Selected)
	assert.Equal(t, models.SeverityCritical, markers[0].Level)
	assert.Equal(t, "#EF4444", markers[0].Color)

	assert.Equal(t, "b", markers[1].ID)
	assert.False(t, markers[1].Selected)
	assert.Equal(t, models.SeverityLow, markers[1].Level)

	for _, m := range markers {
		assert.InDelta(t, 100*MarkerOffset, m.Position.Len(), 1e-9)
	}
}

func TestDeriveMarkers_Deterministic(t *testing.T) {
	crises := []models.Crisis{
		crisisAt("x", -12, 130, 7),
		crisisAt("y", 60, -20, 5.5),
		crisisAt("z", 10, 179.9, 9),
	}
	scale := models.DefaultSeverityScale()

	first := DeriveMarkers(crises, "y", 100, scale)
	second := DeriveMarkers(crises, "y", 100, scale)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"x", "y", "z"}, markerIDs(first))
}

func TestDeriveMarkers_UnknownSelectionSelectsNothing(t *testing.T) {
	crises := []models.Crisis{crisisAt("a", 0, 0, 1), crisisAt("b", 1, 1, 1)}

	for _, m := range DeriveMarkers(crises, "gone", 100, models.DefaultSeverityScale()) {
		assert.False(t, m.Selected, m.ID)
	}
}

func TestDeriveMarkers_SkipsMalformedRecords(t *testing.T) {
	noLng := crisisAt("no-lng", 10, 0, 5)
	noLng.Location.Lng = nil
	outOfRange := crisisAt("bad-lat", 91, 0, 5)

	crises := []models.Crisis{crisisAt("ok", 0, 0, 5), noLng, outOfRange}
	markers := DeriveMarkers(crises, "no-lng", 100, models.DefaultSeverityScale())

	require.Len(t, markers, 1)
	assert.Equal(t, "ok", markers[0].ID)
	assert.False(t, markers[0].Selected)
}

func TestDeriveMarkers_Empty(t *testing.T) {
	assert.Empty(t, DeriveMarkers(nil, "a", 100, models.DefaultSeverityScale()))
}

func TestModel_SelectionSurvivesRefreshOnlyIfPresent(t *testing.T) {
	m := NewModel(100, models.DefaultSeverityScale())
	m.SetCrises([]models.Crisis{crisisAt("a", 0, 0, 9), crisisAt("b", 10, 10, 4)})

	require.True(t, m.Select("b"))
	assert.Equal(t, "b", m.SelectedID())

	m.SetCrises([]models.Crisis{crisisAt("b", 10, 10, 4), crisisAt("c", 5, 5, 2)})
	assert.Equal(t, "b", m.SelectedID())
	assert.Equal(t, []string{"b"}, selectedIDs(m.Markers()))

	m.SetCrises([]models.Crisis{crisisAt("c", 5, 5, 2)})
	assert.Empty(t, m.SelectedID())
	assert.Nil(t, m.Selected())
	assert.Empty(t, selectedIDs(m.Markers()))
}

func TestModel_SelectUnknownKeepsSelection(t *testing.T) {
	m := NewModel(100, models.DefaultSeverityScale())
	m.SetCrises([]models.Crisis{crisisAt("a", 0, 0, 9)})
	m.Select("a")

	assert.False(t, m.Select("missing"))
	assert.Equal(t, "a", m.SelectedID())
	assert.Equal(t, []string{"a"}, selectedIDs(m.Markers()))
}

func TestModel_DeselectRebuildsMarkers(t *testing.T) {
	m := NewModel(100, models.DefaultSeverityScale())
	m.SetCrises([]models.Crisis{crisisAt("a", 0, 0, 9)})
	m.Select("a")
	require.Equal(t, []string{"a"}, selectedIDs(m.Markers()))

	m.Deselect()
	assert.Empty(t, selectedIDs(m.Markers()))
}

func markerIDs(ms []MarkerView) []string {
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}

func selectedIDs(ms []MarkerView) []string {
	var ids []string
	for _, m := range ms {
		if m.Selected {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

package mapview

import (
	"encoding/json"
	"testing"
	"time"

	"mytown-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "#10b981", StatusColor(models.Resolved))
	assert.Equal(t, "#f59e0b", StatusColor("In progress"))
	assert.Equal(t, "#ef4444", StatusColor(models.Urgent))
	assert.Equal(t, "#6b7280", StatusColor(models.Pending))
	assert.Equal(t, "#6b7280", StatusColor("unknown"))
}

func TestPriorityStyling(t *testing.T) {
	assert.Equal(t, "!", PriorityIcon(models.High))
	assert.Equal(t, "⚠", PriorityIcon(models.Medium))
	assert.Equal(t, "•", PriorityIcon(models.Low))
	assert.Equal(t, "#ef4444", PriorityColor(models.High))
	assert.Equal(t, "#10b981", PriorityColor(models.Low))
}

func TestMarkers_SkipsIssuesWithoutCoordinates(t *testing.T) {
	issues := []models.Issue{
		{
			ID:        "CIV-2024-001234",
			Title:     "Large pothole",
			Status:    models.InProgress,
			Priority:  models.High,
			Latitude:  ptr(16.3067),
			Longitude: ptr(80.4365),
			CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{ID: "CIV-2024-001236", Status: models.Pending},
	}

	fc := Markers(issues)
	assert.Equal(t, 1, fc.Mapped)
	assert.Equal(t, 2, fc.Total)
	assert.Equal(t, "1 of 2 issues mapped", fc.Summary)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, [2]float64{80.4365, 16.3067}, f.Geometry.Coordinates)
	assert.Equal(t, "#f59e0b", f.Properties.StatusColor)
	assert.Equal(t, "!", f.Properties.Icon)
	assert.Equal(t, "2024-01-15", f.Properties.Date)
	assert.Equal(t, "/api/issues/CIV-2024-001234", f.Properties.DetailsPath)
}

func TestMarkers_GeoJSONShape(t *testing.T) {
	data, err := json.Marshal(Markers(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[],"mapped":0,"total":0,"summary":"0 of 0 issues mapped"}`, string(data))
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig("  ")
	assert.ErrorIs(t, err, ErrMissingToken)

	cfg, err := NewConfig("pk.test")
	require.NoError(t, err)
	assert.Equal(t, "pk.test", cfg.AccessToken)
	assert.Equal(t, DefaultCenter, cfg.Center)
	assert.Equal(t, float64(DefaultZoom), cfg.Zoom)
}

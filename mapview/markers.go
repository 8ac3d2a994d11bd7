// Package mapview turns issues into map markers for the client-side map SDK.
package mapview

import (
	"errors"
	"fmt"
	"strings"

	"mytown-issues/models"
)

var ErrMissingToken = errors.New("map access token is not configured")

const (
	colorGreen = "#10b981"
	colorAmber = "#f59e0b"
	colorGray  = "#6b7280"
	colorRed   = "#ef4444"
)

// StatusColor is the marker fill for a status.
func StatusColor(status models.IssueStatus) string {
	switch {
	case status.Is(models.Resolved):
		return colorGreen
	case status.Is(models.InProgress):
		return colorAmber
	case status.Is(models.Urgent):
		return colorRed
	default:
		return colorGray
	}
}

// PriorityColor is the marker accent for a priority.
func PriorityColor(priority models.Priority) string {
	switch strings.ToLower(string(priority)) {
	case "high":
		return colorRed
	case "medium":
		return colorAmber
	case "low":
		return colorGreen
	default:
		return colorGray
	}
}

// PriorityIcon is the glyph drawn inside a marker.
func PriorityIcon(priority models.Priority) string {
	switch strings.ToLower(string(priority)) {
	case "high":
		return "!"
	case "medium":
		return "⚠"
	default:
		return "•"
	}
}

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type MarkerProperties struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Location      string `json:"location"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	Date          string `json:"date"`
	StatusColor   string `json:"statusColor"`
	PriorityColor string `json:"priorityColor"`
	Icon          string `json:"icon"`
	DetailsPath   string `json:"detailsPath"`
}

type Feature struct {
	Type       string           `json:"type"`
	Geometry   Geometry         `json:"geometry"`
	Properties MarkerProperties `json:"properties"`
}

// FeatureCollection is a GeoJSON document of issue markers.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Mapped   int       `json:"mapped"`
	Total    int       `json:"total"`
	Summary  string    `json:"summary"`
}

// Markers places every issue that has coordinates. Issues without them are
// counted in Total but produce no feature.
func Markers(issues []models.Issue) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(issues)),
		Total:    len(issues),
	}
	for _, issue := range issues {
		if !issue.HasCoordinates() {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{*issue.Longitude, *issue.Latitude},
			},
			Properties: MarkerProperties{
				ID:            issue.ID,
				Title:         issue.Title,
				Category:      string(issue.Category),
				Location:      issue.Location,
				Status:        string(issue.Status),
				Priority:      string(issue.Priority),
				Date:          issue.CreatedAt.Format("2006-01-02"),
				StatusColor:   StatusColor(issue.Status),
				PriorityColor: PriorityColor(issue.Priority),
				Icon:          PriorityIcon(issue.Priority),
				DetailsPath:   "/api/issues/" + issue.ID,
			},
		})
	}
	fc.Mapped = len(fc.Features)
	fc.Summary = fmt.Sprintf("%d of %d issues mapped", fc.Mapped, fc.Total)
	return fc
}

// Guntur city center, the default map view.
var DefaultCenter = [2]float64{80.4365, 16.3067}

const (
	DefaultZoom  = 12
	DefaultStyle = "mapbox://styles/mapbox/streets-v12"
)

// Config is what the client needs to initialise its map.
type Config struct {
	AccessToken string     `json:"accessToken"`
	Style       string     `json:"style"`
	Center      [2]float64 `json:"center"`
	Zoom        float64    `json:"zoom"`
}

// NewConfig builds the map settings around the configured access token.
func NewConfig(token string) (Config, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Config{}, ErrMissingToken
	}
	return Config{
		AccessToken: token,
		Style:       DefaultStyle,
		Center:      DefaultCenter,
		Zoom:        DefaultZoom,
	}, nil
}

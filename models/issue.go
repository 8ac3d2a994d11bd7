package models

import (
	"fmt"
	"strings"
	"time"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole        IssueCategory = "Pothole"
	Streetlight    IssueCategory = "Streetlight"
	TrafficSignal  IssueCategory = "Traffic Signal"
	Graffiti       IssueCategory = "Graffiti"
	TrashLitter    IssueCategory = "Trash/Litter"
	WaterIssue     IssueCategory = "Water Issue"
	SidewalkDamage IssueCategory = "Sidewalk Damage"
	TreeVegetation IssueCategory = "Tree/Vegetation"
	NoiseComplaint IssueCategory = "Noise Complaint"
	Other          IssueCategory = "Other"
)

// Categories lists the categories offered on the report form, in display order.
var Categories = []IssueCategory{
	Pothole, Streetlight, TrafficSignal, Graffiti, TrashLitter,
	WaterIssue, SidewalkDamage, TreeVegetation, NoiseComplaint, Other,
}

// Departments that issues get assigned to.
var Departments = []string{"Public Works", "Sanitation", "Electrical Dept", "Maintenance"}

// ParseCategory resolves a category label case-insensitively to its canonical form.
func ParseCategory(s string) (IssueCategory, error) {
	n := normalizeLabel(s)
	for _, c := range Categories {
		if normalizeLabel(string(c)) == n {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Issue represents a civic issue reported by a citizen
type Issue struct {
	ID              string        `bson:"_id" json:"id" yaml:"id"`
	Title           string        `bson:"title" json:"title" yaml:"title"`
	Description     string        `bson:"description" json:"description" yaml:"description"`
	Category        IssueCategory `bson:"category" json:"category" yaml:"category"`
	Location        string        `bson:"location" json:"location" yaml:"location"`
	Status          IssueStatus   `bson:"status" json:"status" yaml:"status"`
	Priority        Priority      `bson:"priority" json:"priority" yaml:"priority"`
	AssignedTo      *string       `bson:"assignedTo,omitempty" json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	ImageURL        *string       `bson:"imageUrl,omitempty" json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ReporterContact *string       `bson:"reporterContact,omitempty" json:"reporterContact,omitempty" yaml:"reporterContact,omitempty"`
	CreatedBy       string        `bson:"createdBy,omitempty" json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	Latitude        *float64      `bson:"latitude,omitempty" json:"lat,omitempty" yaml:"lat,omitempty"`
	Longitude       *float64      `bson:"longitude,omitempty" json:"lng,omitempty" yaml:"lng,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"date" yaml:"-"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt" yaml:"-"`
}

// HasCoordinates reports whether the issue can be placed on a map.
func (i Issue) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// Clone returns a deep copy so callers never share pointer fields with the store.
func (i Issue) Clone() Issue {
	c := i
	c.AssignedTo = cloneString(i.AssignedTo)
	c.ImageURL = cloneString(i.ImageURL)
	c.ReporterContact = cloneString(i.ReporterContact)
	c.Latitude = cloneFloat(i.Latitude)
	c.Longitude = cloneFloat(i.Longitude)
	return c
}

// FormatIssueID renders the public issue identifier, e.g. CIV-2024-001234.
func FormatIssueID(year int, seq int64) string {
	return fmt.Sprintf("CIV-%d-%06d", year, seq)
}

// normalizeLabel folds case and separators so "In-Progress", "in_progress" and
// "In Progress" compare equal.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

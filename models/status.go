package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidCategory = errors.New("invalid category")
)

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "Pending"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
	Urgent     IssueStatus = "Urgent"
)

// Statuses lists every lifecycle stage.
var Statuses = []IssueStatus{Pending, InProgress, Resolved, Urgent}

// ParseStatus resolves a status label to its canonical value. Case and the
// "-"/"_" separators are ignored.
func ParseStatus(s string) (IssueStatus, error) {
	n := normalizeLabel(s)
	for _, st := range Statuses {
		if normalizeLabel(string(st)) == n {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Is reports whether s denotes the same lifecycle stage as other.
func (s IssueStatus) Is(other IssueStatus) bool {
	return normalizeLabel(string(s)) == normalizeLabel(string(other))
}

// Canonical returns the enumerated spelling of s, or s itself when unknown.
func (s IssueStatus) Canonical() IssueStatus {
	if c, err := ParseStatus(string(s)); err == nil {
		return c
	}
	return s
}

// Open reports whether the issue still needs work.
func (s IssueStatus) Open() bool {
	return !s.Is(Resolved)
}

// DisplayCase turns a status value as sent by a client ("in-progress") into the
// stored display form ("In progress"): separators become spaces and the first
// letter is upper-cased. The rest of the string is left as given.
func DisplayCase(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Priority enum
type Priority string

const (
	Low    Priority = "Low"
	Medium Priority = "Medium"
	High   Priority = "High"
)

// Priorities lists every urgency class.
var Priorities = []Priority{Low, Medium, High}

// ParsePriority resolves a priority label case-insensitively. An empty label
// yields Medium, the report form default.
func ParsePriority(s string) (Priority, error) {
	if strings.TrimSpace(s) == "" {
		return Medium, nil
	}
	n := normalizeLabel(s)
	for _, p := range Priorities {
		if normalizeLabel(string(p)) == n {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

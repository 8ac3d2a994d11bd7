package models

import "strings"

// IssueFilter selects issues by field. Empty or "all" values are inactive;
// active values match case-insensitively and are ANDed together.
type IssueFilter struct {
	Status   string `form:"status" json:"status,omitempty"`
	Category string `form:"category" json:"category,omitempty"`
	Priority string `form:"priority" json:"priority,omitempty"`
	Search   string `form:"search" json:"search,omitempty"`
}

// Matches reports whether issue satisfies every active predicate.
func (f IssueFilter) Matches(issue Issue) bool {
	if active(f.Status) && normalizeLabel(string(issue.Status)) != normalizeLabel(f.Status) {
		return false
	}
	if active(f.Category) && normalizeLabel(string(issue.Category)) != normalizeLabel(f.Category) {
		return false
	}
	if active(f.Priority) && normalizeLabel(string(issue.Priority)) != normalizeLabel(f.Priority) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(issue.Title), q) &&
			!strings.Contains(strings.ToLower(issue.Description), q) {
			return false
		}
	}
	return true
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, "all")
}

// Sort orders for IssueQuery.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// IssueQuery is a filtered, sorted and paginated listing request.
type IssueQuery struct {
	IssueFilter
	Sort  string `form:"sort"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

// Normalize clamps paging values and defaults the sort order.
func (q IssueQuery) Normalize() IssueQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > MaxPageLimit {
		q.Limit = DefaultPageLimit
	}
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	return q
}

// Offset is the number of matching issues skipped before the page starts.
func (q IssueQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// IssuePage is one page of an IssueQuery result.
type IssuePage struct {
	Issues      []Issue `json:"issues"`
	TotalIssues int64   `json:"totalIssues"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

// NewIssuePage computes the page counters for total matching issues.
func NewIssuePage(issues []Issue, total int64, q IssueQuery) IssuePage {
	if issues == nil {
		issues = []Issue{}
	}
	return IssuePage{
		Issues:      issues,
		TotalIssues: total,
		TotalPages:  int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		CurrentPage: q.Page,
	}
}

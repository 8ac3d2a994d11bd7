// Package store owns the issue and user records shared by every consumer of the
// service. The in-memory implementation is authoritative for a single process;
// the Mongo implementation persists the same operations.
package store

import (
	"context"
	"errors"

	"mytown-issues/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateID     = errors.New("duplicate issue id")
	ErrEmailTaken      = errors.New("user with this email already exists")
	ErrEmptyDepartment = errors.New("department must not be empty")
)

// IssueStore is the ordered collection of issues. Newly added issues come
// first in iteration order.
type IssueStore interface {
	// Add prepends issue, assigning an id when it has none.
	Add(ctx context.Context, issue models.Issue) (models.Issue, error)
	Get(ctx context.Context, id string) (models.Issue, error)
	// UpdateStatus rewrites only the status of the issue with the given id.
	// found is false, and nothing changes, when no issue matches.
	UpdateStatus(ctx context.Context, id, status string) (issue models.Issue, found bool, err error)
	Assign(ctx context.Context, id, department string) (issue models.Issue, found bool, err error)
	// Filter returns the issues matching f, in store order.
	Filter(ctx context.Context, f models.IssueFilter) ([]models.Issue, error)
	Query(ctx context.Context, q models.IssueQuery) (models.IssuePage, error)
	All(ctx context.Context) ([]models.Issue, error)
	Len(ctx context.Context) (int, error)
}

// UserStore holds registered accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

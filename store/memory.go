package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"mytown-issues/models"
)

// Option configures a store.
type Option func(*storeOptions)

type storeOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now for timestamps and id years.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Memory is an IssueStore backed by a slice. Index 0 is the most recently
// added issue. All reads return copies.
type Memory struct {
	mu     sync.RWMutex
	issues []models.Issue
	ids    map[string]struct{}
	seq    int64
	now    func() time.Time
}

var _ IssueStore = (*Memory)(nil)

func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		ids: make(map[string]struct{}),
		now: o.now,
	}
}

func (m *Memory) Add(ctx context.Context, issue models.Issue) (models.Issue, error) {
	if err := ctx.Err(); err != nil {
		return models.Issue{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if issue.ID == "" {
		issue.ID = m.nextID(now)
	} else {
		if _, exists := m.ids[issue.ID]; exists {
			return models.Issue{}, fmt.Errorf("%w: %s", ErrDuplicateID, issue.ID)
		}
		if seq, ok := parseSeq(issue.ID); ok && seq > m.seq {
			m.seq = seq
		}
	}
	fillDefaults(&issue, now)

	m.issues = append([]models.Issue{issue.Clone()}, m.issues...)
	m.ids[issue.ID] = struct{}{}
	return issue.Clone(), nil
}

func (m *Memory) nextID(now time.Time) string {
	for {
		m.seq++
		id := models.FormatIssueID(now.Year(), m.seq)
		if _, taken := m.ids[id]; !taken {
			return id
		}
	}
}

func (m *Memory) Get(ctx context.Context, id string) (models.Issue, error) {
	if err := ctx.Err(); err != nil {
		return models.Issue{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexOf(id); i >= 0 {
		return m.issues[i].Clone(), nil
	}
	return models.Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
}

func (m *Memory) UpdateStatus(ctx context.Context, id, status string) (models.Issue, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Issue{}, false, err
	}
	if _, err := models.ParseStatus(status); err != nil {
		return models.Issue{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return models.Issue{}, false, nil
	}
	m.issues[i].Status = models.IssueStatus(models.DisplayCase(status))
	m.issues[i].UpdatedAt = m.now()
	return m.issues[i].Clone(), true, nil
}

func (m *Memory) Assign(ctx context.Context, id, department string) (models.Issue, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Issue{}, false, err
	}
	department = strings.TrimSpace(department)
	if department == "" {
		return models.Issue{}, false, ErrEmptyDepartment
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return models.Issue{}, false, nil
	}
	m.issues[i].AssignedTo = &department
	m.issues[i].UpdatedAt = m.now()
	return m.issues[i].Clone(), true, nil
}

func (m *Memory) Filter(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		if f.Matches(issue) {
			out = append(out, issue.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Query(ctx context.Context, q models.IssueQuery) (models.IssuePage, error) {
	q = q.Normalize()
	matched, err := m.Filter(ctx, q.IssueFilter)
	if err != nil {
		return models.IssuePage{}, err
	}

	sort.SliceStable(matched, func(a, b int) bool {
		if q.Sort == models.SortOldest {
			return matched[a].CreatedAt.Before(matched[b].CreatedAt)
		}
		return matched[a].CreatedAt.After(matched[b].CreatedAt)
	})

	total := int64(len(matched))
	start := q.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return models.NewIssuePage(matched[start:end], total, q), nil
}

func (m *Memory) All(ctx context.Context) ([]models.Issue, error) {
	return m.Filter(ctx, models.IssueFilter{})
}

func (m *Memory) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.issues), nil
}

func (m *Memory) indexOf(id string) int {
	if _, ok := m.ids[id]; !ok {
		return -1
	}
	for i := range m.issues {
		if m.issues[i].ID == id {
			return i
		}
	}
	return -1
}

func fillDefaults(issue *models.Issue, now time.Time) {
	if issue.Status == "" {
		issue.Status = models.Pending
	}
	if issue.Priority == "" {
		issue.Priority = models.Medium
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	if issue.UpdatedAt.IsZero() {
		issue.UpdatedAt = issue.CreatedAt
	}
}

// parseSeq extracts the numeric suffix of an id shaped like CIV-2024-001234.
func parseSeq(id string) (int64, bool) {
	i := strings.LastIndexByte(id, '-')
	if i < 0 || !strings.HasPrefix(id, "CIV-") {
		return 0, false
	}
	n, err := strconv.ParseInt(id[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

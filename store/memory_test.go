package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mytown-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

// --------------------- Setup ---------------------
func newSeededMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(WithClock(func() time.Time { return fixedNow }))
	issues, err := DefaultSeed()
	require.NoError(t, err)
	_, err = Seed(context.Background(), m, issues)
	require.NoError(t, err)
	return m
}

func ids(issues []models.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.ID
	}
	return out
}

// --------------------- Add ---------------------
func TestMemoryAdd_PrependsAndGrows(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)
	before, _ := m.Len(ctx)

	created, err := m.Add(ctx, models.Issue{
		Title:    "Water leak",
		Category: models.WaterIssue,
		Location: "Oak Avenue",
	})
	require.NoError(t, err)

	after, _ := m.Len(ctx)
	assert.Equal(t, before+1, after)

	all, _ := m.All(ctx)
	assert.Equal(t, created.ID, all[0].ID)
	assert.Equal(t, "CIV-2024-001238", created.ID)
	assert.Equal(t, models.Pending, created.Status)
	assert.Equal(t, models.Medium, created.Priority)
	assert.Equal(t, fixedNow, created.CreatedAt)
}

func TestMemoryAdd_DuplicateID(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	_, err := m.Add(ctx, models.Issue{ID: "CIV-2024-001234", Title: "dup"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	n, _ := m.Len(ctx)
	assert.Equal(t, 4, n)
}

func TestMemoryAdd_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	lat, lng := 16.3, 80.4
	created, err := m.Add(ctx, models.Issue{Title: "x", Latitude: &lat, Longitude: &lng})
	require.NoError(t, err)

	*created.Latitude = 0
	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 16.3, *got.Latitude)
}

func TestMemoryAdd_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Add(ctx, models.Issue{Title: fmt.Sprintf("issue %d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, _ := m.All(ctx)
	assert.Len(t, all, 50)
	seen := map[string]bool{}
	for _, issue := range all {
		assert.False(t, seen[issue.ID], issue.ID)
		seen[issue.ID] = true
	}
}

func TestMemoryAdd_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().Add(ctx, models.Issue{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

// --------------------- UpdateStatus ---------------------
func TestMemoryUpdateStatus_OnlyStatusChanges(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)
	before, _ := m.All(ctx)

	updated, found, err := m.UpdateStatus(ctx, "CIV-2024-001236", "in-progress")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.IssueStatus("In progress"), updated.Status)

	after, _ := m.All(ctx)
	require.Equal(t, ids(before), ids(after))
	for i := range before {
		want := before[i]
		// updatedAt is stamped on every mutation; nothing else may move.
		if want.ID == "CIV-2024-001236" {
			assert.NotEqual(t, fixedNow, want.UpdatedAt)
			want.Status = "In progress"
			want.UpdatedAt = fixedNow
		}
		assert.Equal(t, want, after[i])
	}
}

func TestMemoryUpdateStatus_UnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)
	before, _ := m.All(ctx)

	_, found, err := m.UpdateStatus(ctx, "CIV-0000-000000", "resolved")
	require.NoError(t, err)
	assert.False(t, found)

	after, _ := m.All(ctx)
	assert.Equal(t, before, after)
}

func TestMemoryUpdateStatus_InvalidStatus(t *testing.T) {
	m := newSeededMemory(t)
	_, _, err := m.UpdateStatus(context.Background(), "CIV-2024-001234", "closed")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
}

// --------------------- Assign ---------------------
func TestMemoryAssign(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	issue, found, err := m.Assign(ctx, "CIV-2024-001236", " Sanitation ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Sanitation", *issue.AssignedTo)

	_, _, err = m.Assign(ctx, "CIV-2024-001236", "  ")
	assert.ErrorIs(t, err, ErrEmptyDepartment)

	_, found, err = m.Assign(ctx, "missing", "Sanitation")
	require.NoError(t, err)
	assert.False(t, found)
}

// --------------------- Get ---------------------
func TestMemoryGet_NotFound(t *testing.T) {
	_, err := newSeededMemory(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --------------------- Filter ---------------------
func TestMemoryFilter_SeedOrderAndAll(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	all, err := m.Filter(ctx, models.IssueFilter{Status: "all", Category: "all", Priority: "all"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"CIV-2024-001234", "CIV-2024-001235", "CIV-2024-001236", "CIV-2024-001237",
	}, ids(all))
}

func TestMemoryFilter_SubsetInOrder(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)
	all, _ := m.All(ctx)

	filters := []models.IssueFilter{
		{Priority: "high"},
		{Status: "in progress"},
		{Status: "resolved", Priority: "high"},
		{Category: "graffiti"},
		{Search: "street"},
	}
	for _, f := range filters {
		got, err := m.Filter(ctx, f)
		require.NoError(t, err)

		// every result matches, and results keep store order
		pos := 0
		for _, issue := range got {
			assert.True(t, f.Matches(issue))
			for pos < len(all) && all[pos].ID != issue.ID {
				pos++
			}
			assert.Less(t, pos, len(all), "result %s out of order", issue.ID)
		}
	}
}

func TestMemoryFilter_Examples(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	high, _ := m.Filter(ctx, models.IssueFilter{Priority: "HIGH"})
	assert.Equal(t, []string{"CIV-2024-001234", "CIV-2024-001237"}, ids(high))

	none, _ := m.Filter(ctx, models.IssueFilter{Status: "resolved", Priority: "high"})
	assert.Empty(t, none)
}

func TestMemoryFilter_SeesDisplayCasedStatus(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)
	_, _, err := m.UpdateStatus(ctx, "CIV-2024-001236", "in-progress")
	require.NoError(t, err)

	got, _ := m.Filter(ctx, models.IssueFilter{Status: "In Progress"})
	assert.Equal(t, []string{"CIV-2024-001234", "CIV-2024-001236"}, ids(got))
}

// --------------------- Query ---------------------
func TestMemoryQuery_Paging(t *testing.T) {
	ctx := context.Background()
	m := newSeededMemory(t)

	page, err := m.Query(ctx, models.IssueQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalIssues)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, page.Issues, 1)
	assert.Equal(t, "CIV-2024-001236", page.Issues[0].ID)

	page, err = m.Query(ctx, models.IssueQuery{Sort: models.SortOldest, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "CIV-2024-001236", page.Issues[0].ID)

	page, err = m.Query(ctx, models.IssueQuery{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Issues)
}

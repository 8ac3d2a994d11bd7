package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"mytown-issues/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	issues, err := DefaultSeed()
	require.NoError(t, err)
	require.Len(t, issues, 4)

	first := issues[0]
	assert.Equal(t, "CIV-2024-001234", first.ID)
	assert.Equal(t, models.InProgress, first.Status)
	assert.Equal(t, models.High, first.Priority)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.CreatedAt)
	require.NotNil(t, first.AssignedTo)
	assert.Equal(t, "Public Works", *first.AssignedTo)
	assert.True(t, first.HasCoordinates())

	assert.False(t, issues[2].HasCoordinates())
}

func TestLoadSeed_CanonicalisesLabels(t *testing.T) {
	doc := `
issues:
  - id: CIV-2030-000001
    title: Tree down
    category: tree/vegetation
    status: in-progress
    priority: LOW
    location: Elm St
    description: Blocking the road
    date: 2030-05-01
`
	issues, err := LoadSeed(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.TreeVegetation, issues[0].Category)
	assert.Equal(t, models.InProgress, issues[0].Status)
	assert.Equal(t, models.Low, issues[0].Priority)
}

func TestLoadSeed_Errors(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("issues:\n  - category: Volcano\n"))
	assert.ErrorIs(t, err, models.ErrInvalidCategory)

	_, err = LoadSeed(strings.NewReader("issues:\n  - category: Other\n    date: yesterday\n"))
	assert.Error(t, err)

	issues, err := LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("/nonexistent/seed.yaml")
	assert.Error(t, err)
}

func TestSeed_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	issues, err := DefaultSeed()
	require.NoError(t, err)

	added, err := Seed(ctx, m, issues)
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = Seed(ctx, m, issues)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	n, _ := m.Len(ctx)
	assert.Equal(t, 4, n)
}

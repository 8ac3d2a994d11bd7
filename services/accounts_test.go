package services

import (
	"context"
	"testing"

	"mytown-issues/models"
	"mytown-issues/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryUsers()

	created, err := EnsureAdmin(ctx, users, "admin@mytown.gov", "changeme")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := users.FindByEmail(ctx, "admin@mytown.gov")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.ComparePassword("changeme"))

	created, err = EnsureAdmin(ctx, users, "admin@mytown.gov", "other")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureAdmin_Unconfigured(t *testing.T) {
	created, err := EnsureAdmin(context.Background(), store.NewMemoryUsers(), "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"mytown-issues/models"
	"mytown-issues/store"
)

// EnsureAdmin creates the administrator account unless a user with that email
// already exists. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, users store.UserStore, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	_, err := users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	admin := &models.User{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	}
	if err := admin.HashPassword(); err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

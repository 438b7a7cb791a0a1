package services

import (
	"testing"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserUpdate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, "admin@example.com")
	ada := env.user(t, "ada@example.com")

	role := "admin"
	u, err := env.svc.Users.Update(admin.ID, ada.ID, &UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	bad := "judge"
	_, err = env.svc.Users.Update(admin.ID, ada.ID, &UpdateUserRequest{Role: &bad})
	assert.True(t, IsValidationError(err))

	off := false
	_, err = env.svc.Users.Update(admin.ID, admin.ID, &UpdateUserRequest{IsActive: &off})
	assert.True(t, IsValidationError(err), "admins cannot lock themselves out")

	u, err = env.svc.Users.Update(admin.ID, ada.ID, &UpdateUserRequest{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = env.svc.Users.Update(admin.ID, 9999, &UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserListAndPromote(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ada@example.com")
	env.user(t, "bob@example.com")

	res, err := env.svc.Users.List(&UserListRequest{Search: "ADA"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	u, err := env.svc.Users.SetRoleByEmail("Bob@Example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	res, err = env.svc.Users.List(&UserListRequest{Role: "admin"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	_, err = env.svc.Users.SetRoleByEmail("nobody@example.com", models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

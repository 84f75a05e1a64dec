package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	auth, err := env.userSvc.Register(ctx, &domain.RegisterRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", auth.User.Name)
	assert.NotEmpty(t, auth.AccessToken)
	assert.NotEmpty(t, auth.RefreshToken)

	login, err := env.userSvc.Login(ctx, &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "Alice", "alice@example.com")

	_, err := env.userSvc.Register(ctx, &domain.RegisterRequest{
		FirstName: "Other",
		Email:     "alice@example.com",
		Password:  "secret123",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "Alice", "alice@example.com")

	_, err := env.userSvc.Login(ctx, &domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.userSvc.Login(ctx, &domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	auth, err := env.userSvc.Register(ctx, &domain.RegisterRequest{
		FirstName: "Alice",
		Email:     "alice@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)

	refreshed, err := env.userSvc.RefreshToken(ctx, &domain.RefreshTokenRequest{
		RefreshToken: auth.RefreshToken,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.User.ID, refreshed.User.ID)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not accepted as a refresh token.
	_, err = env.userSvc.RefreshToken(ctx, &domain.RefreshTokenRequest{
		RefreshToken: auth.AccessToken,
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "Alice", "alice@example.com")

	name := "Alice Cooper"
	bio := "On tour"
	updated, err := env.userSvc.UpdateProfile(ctx, user.ID, &domain.UpdateUserRequest{
		Name: &name,
		Bio:  &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)
	assert.Equal(t, "On tour", updated.Bio)

	profile, err := env.userSvc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", profile.Name)

	_, err = env.userSvc.UpdateProfile(ctx, "missing", &domain.UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchUsersExcludesSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com")
	env.register(t, "Alicia", "alicia@example.com")
	env.register(t, "Bob", "bob@example.com")

	results, err := env.userSvc.SearchUsers(ctx, alice.ID, "ali")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Alicia", results[0].Name)

	all, err := env.userSvc.SearchUsers(ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

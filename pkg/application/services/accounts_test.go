package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/domain/repositories"
	fixtures "github.com/vsinha/printcenter/pkg/infrastructure/testing"
)

func TestAccounts_LoginAndAuthenticate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.Accounts.Login(ctx, "  REQUESTER@example.edu ", fixtures.FixturePassword)
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)
	assert.Equal(t, h.f.Requester.ID, res.User.ID)

	me, err := h.Accounts.Authenticate(ctx, res.Tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, h.f.Requester.Email, me.Email)

	_, err = h.Accounts.Authenticate(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAccounts_LoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.edu", fixtures.FixturePassword},
		{"wrong password", "requester@example.edu", "not-the-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Accounts.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	require.NoError(t, h.Accounts.Deactivate(ctx, h.f.Admin, h.f.Outsider.ID))
	_, err := h.Accounts.Login(ctx, h.f.Outsider.Email, fixtures.FixturePassword)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAccounts_RefreshRotates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.Accounts.Login(ctx, h.f.Requester.Email, fixtures.FixturePassword)
	require.NoError(t, err)

	rotated, err := h.Accounts.Refresh(ctx, res.Tokens.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, res.Tokens.Refresh, rotated.Tokens.Refresh)

	_, err = h.Accounts.Refresh(ctx, res.Tokens.Refresh)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAccounts_Bootstrap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.Accounts.Bootstrap(ctx, dto.UserInput{
		Email:     "new.user@example.edu",
		FullName:  "New User",
		Password:  "long-enough",
		OrgUnitID: h.f.College.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleConsumer, u.Role)
	assert.Empty(t, u.PasswordHash)

	prefs, err := h.Notifications.GetPreferences(ctx, u)
	require.NoError(t, err)
	assert.True(t, prefs.OrderUpdates)
	assert.False(t, prefs.InventoryAlerts)

	_, err = h.Accounts.Bootstrap(ctx, dto.UserInput{Email: "NEW.USER@example.edu", Password: "long-enough"})
	assert.ErrorIs(t, err, repositories.ErrConflict)

	_, err = h.Accounts.Bootstrap(ctx, dto.UserInput{Email: "short@example.edu", Password: "short"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.Accounts.Bootstrap(ctx, dto.UserInput{Email: "lost@example.edu", Password: "long-enough", OrgUnitID: "missing"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAccounts_CreateUserRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	_, err := h.Accounts.CreateUser(context.Background(), h.f.Requester, dto.UserInput{Email: "x@example.edu", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAccounts_CreateUserSuperuserFlag(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	root := &entities.User{ID: "root", Role: entities.RoleAdmin, IsSuperuser: true, IsActive: true}

	tests := []struct {
		name      string
		actor     *entities.User
		superuser bool
		wantErr   error
	}{
		{"admin creates a regular user", h.f.Admin, false, nil},
		{"admin cannot grant superuser", h.f.Admin, true, ErrForbidden},
		{"print manager cannot grant superuser", h.f.PrintManager, true, ErrForbidden},
		{"superuser grants superuser", root, true, nil},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := h.Accounts.CreateUser(ctx, tt.actor, dto.UserInput{
				Email:       fmt.Sprintf("new%d@example.edu", i),
				FullName:    "New User",
				Role:        entities.RoleConsumer,
				Password:    "long-enough",
				IsSuperuser: tt.superuser,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.superuser, user.IsSuperuser)
		})
	}
}

func TestAccounts_ChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.Accounts.ChangePassword(ctx, h.f.Requester, "wrong-password", "another-password")
	assert.Error(t, err)

	require.NoError(t, h.Accounts.ChangePassword(ctx, h.f.Requester, fixtures.FixturePassword, "another-password"))
	_, err = h.Accounts.Login(ctx, h.f.Requester.Email, "another-password")
	assert.NoError(t, err)
}

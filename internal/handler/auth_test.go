package handler

import (
	"context"
	"testing"

	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"valid strong password", "MyP@ssw0rd", true},
		{"minimum valid length", "Abcd123!", true},
		{"too short", "Ab1!", false},
		{"missing uppercase", "myp@ssw0rd", false},
		{"missing lowercase", "MYP@SSW0RD", false},
		{"missing digit", "MyPassword!", false},
		{"missing special character", "MyPassword123", false},
		{"over 72 bytes", "Aa1!" + string(make([]byte, 70)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isStrongPassword(tt.password))
		})
	}
}

func TestRegisterUser_FirstUserIsAdmin(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	first := ok(t, mediator.Send[domain.User](ctx, hs.d, RegisterUserCommand{Email: "Root@Example.com", Password: "Str0ng!pass"}))
	assert.Equal(t, "root@example.com", first.Email)
	assert.True(t, first.Verified)
	require.NotNil(t, first.RoleID)
	assert.Empty(t, first.PasswordHash, "the hash is never read back")

	second := ok(t, mediator.Send[domain.User](ctx, hs.d, RegisterUserCommand{Email: "user@example.com", Password: "Str0ng!pass"}))
	assert.Nil(t, second.RoleID)
	assert.False(t, second.Verified)

	dup := mediator.Send[domain.User](ctx, hs.d, RegisterUserCommand{Email: "USER@example.com", Password: "Str0ng!pass"})
	failed(t, dup, result.KindConflict, ErrEmailTaken.Code)

	assert.Equal(t, 2, hs.metrics.RegistrationCalls)

	roles := ok(t, hs.scope(t).roles.GetByID(ctx, *first.RoleID))
	require.Len(t, roles, 1)
	assert.Equal(t, domain.DefaultAdminRole, roles[0].Name)
}

func TestLogin(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	ok(t, mediator.Send[domain.User](ctx, hs.d, RegisterUserCommand{Email: "root@example.com", Password: "Str0ng!pass"}))
	ok(t, mediator.Send[domain.User](ctx, hs.d, RegisterUserCommand{Email: "new@example.com", Password: "Str0ng!pass"}))

	t.Run("success", func(t *testing.T) {
		res := ok(t, mediator.Send[LoginResult](ctx, hs.d, LoginCommand{Email: "ROOT@example.com", Password: "Str0ng!pass"}))
		assert.Equal(t, "root@example.com", res.User.Email)

		claims, err := hs.h.Tokens.Parse(res.Token.AccessToken)
		require.NoError(t, err)
		id, _ := claims.UserID()
		assert.Equal(t, res.User.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		r := mediator.Send[LoginResult](ctx, hs.d, LoginCommand{Email: "root@example.com", Password: "nope"})
		failed(t, r, result.KindUnauthorized, ErrInvalidCredentials.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		r := mediator.Send[LoginResult](ctx, hs.d, LoginCommand{Email: "ghost@example.com", Password: "Str0ng!pass"})
		failed(t, r, result.KindUnauthorized, ErrInvalidCredentials.Code)
	})

	t.Run("unverified when required", func(t *testing.T) {
		hs.h.RequireVerification = true
		defer func() { hs.h.RequireVerification = false }()

		r := mediator.Send[LoginResult](ctx, hs.d, LoginCommand{Email: "new@example.com", Password: "Str0ng!pass"})
		failed(t, r, result.KindUnauthorized, ErrEmailNotVerified.Code)
	})

	assert.Equal(t, 1, hs.metrics.LoginAttempts["success"])
	assert.Equal(t, 2, hs.metrics.LoginAttempts["failure"])
	assert.Equal(t, 1, hs.metrics.LoginAttempts["unverified"])
}

func TestLogin_UnknownEmailHashesAtConfiguredCost(t *testing.T) {
	hs := newHarness(t)
	hs.h.BcryptCost = bcrypt.MinCost + 2

	r := mediator.Send[LoginResult](context.Background(), hs.d, LoginCommand{Email: "ghost@example.com", Password: "Str0ng!pass"})
	failed(t, r, result.KindUnauthorized, ErrInvalidCredentials.Code)

	cost, err := bcrypt.Cost(hs.h.dummy)
	require.NoError(t, err)
	assert.Equal(t, hs.h.BcryptCost, cost)
}

func TestChangePassword(t *testing.T) {
	hs := newHarness(t)
	u := hs.user(t, "me@example.com", nil)
	ctx := as(u.ID)

	wrong := mediator.Send[bool](ctx, hs.d, ChangePasswordCommand{UserID: u.ID, CurrentPassword: "bad", NewPassword: "N3w!password"})
	failed(t, wrong, result.KindValidation, ErrWrongPassword.Code)

	reuse := mediator.Send[bool](ctx, hs.d, ChangePasswordCommand{UserID: u.ID, CurrentPassword: "Secr3t!pass", NewPassword: "Secr3t!pass"})
	failed(t, reuse, result.KindValidation, ErrPasswordReuse.Code)

	other := mediator.Send[bool](as(u.ID+1), hs.d, ChangePasswordCommand{UserID: u.ID, CurrentPassword: "Secr3t!pass", NewPassword: "N3w!password"})
	failed(t, other, result.KindUnauthorized, result.ErrInvalidPermission.Code)

	assert.True(t, ok(t, mediator.Send[bool](ctx, hs.d, ChangePasswordCommand{UserID: u.ID, CurrentPassword: "Secr3t!pass", NewPassword: "N3w!password"})))

	ok(t, mediator.Send[LoginResult](context.Background(), hs.d, LoginCommand{Email: "me@example.com", Password: "N3w!password"}))
	old := mediator.Send[LoginResult](context.Background(), hs.d, LoginCommand{Email: "me@example.com", Password: "Secr3t!pass"})
	failed(t, old, result.KindUnauthorized, ErrInvalidCredentials.Code)
}

func TestGetCurrentUserAndPermissions(t *testing.T) {
	hs := newHarness(t)
	report := hs.seedCatalogue(t)
	root := hs.user(t, "root@example.com", &report.AdminRoleID)
	plain := hs.user(t, "plain@example.com", nil)

	me := ok(t, mediator.Send[domain.User](as(plain.ID), hs.d, GetCurrentUserQuery{}))
	assert.Equal(t, "plain@example.com", me.Email)

	anon := mediator.Send[domain.User](context.Background(), hs.d, GetCurrentUserQuery{})
	failed(t, anon, result.KindUnauthorized, result.ErrUnauthenticated.Code)

	own := ok(t, mediator.Send[[]domain.PermissionName](as(plain.ID, domain.PermissionUsersRead), hs.d, GetEffectivePermissionsQuery{}))
	assert.Equal(t, []domain.PermissionName{domain.PermissionUsersRead}, own)

	denied := mediator.Send[[]domain.PermissionName](as(plain.ID), hs.d, GetEffectivePermissionsQuery{UserID: root.ID})
	failed(t, denied, result.KindUnauthorized, result.ErrInvalidPermission.Code)

	rootPerms := ok(t, mediator.Send[[]domain.PermissionName](as(plain.ID, domain.PermissionUsersRead), hs.d, GetEffectivePermissionsQuery{UserID: root.ID}))
	assert.Equal(t, domain.AllPermissions(), rootPerms)
}

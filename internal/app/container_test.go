package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(storage config.StorageConfig) *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{Port: "8080"},
		Environment: "development",
		Storage:     storage,
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret-key-min-32-chars-long-1234567890",
			AccessTokenDuration: time.Minute,
			Issuer:              "test",
			BcryptCost:          4,
			AdminRole:           "admin",
		},
		Audit: config.AuditConfig{Enabled: true, Sink: "log"},
	}
}

func newContainer(t *testing.T, storage config.StorageConfig) (*app.Container, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := app.NewContainer(testConfig(storage), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, reg
}

// registerAndLogin runs the first-user flow through the dispatcher and
// returns a context authenticated the way the HTTP boundary does it.
func registerAndLogin(t *testing.T, c *app.Container) context.Context {
	t.Helper()
	ctx := context.Background()

	reg := mediator.Send[domain.User](ctx, c.Dispatcher, handler.RegisterUserCommand{
		Email: "root@example.com", Password: "Secr3t!pass",
	})
	require.True(t, reg.IsOk(), "register: %v", reg.Errors())

	login := mediator.Send[handler.LoginResult](ctx, c.Dispatcher, handler.LoginCommand{
		Email: "root@example.com", Password: "Secr3t!pass",
	})
	require.True(t, login.IsOk(), "login: %v", login.Errors())
	res, _ := login.Value()

	claims, err := c.Tokens.Parse(res.Token.AccessToken)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)

	principal := c.Resolver.Resolve(ctx, userID)
	require.True(t, principal.IsOk())
	p, _ := principal.Value()
	return authz.WithPrincipal(ctx, p)
}

func TestNewContainer_Memory(t *testing.T) {
	c, reg := newContainer(t, config.StorageConfig{Type: "memory"})

	assert.Equal(t, "memory", c.StorageType())
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Dispatcher.Check(handler.Catalog()...))

	ctx := registerAndLogin(t, c)
	perms := mediator.Send[[]domain.PermissionName](ctx, c.Dispatcher, handler.GetEffectivePermissionsQuery{})
	require.True(t, perms.IsOk())
	got, _ := perms.Value()
	assert.ElementsMatch(t, domain.AllPermissions(), got, "the first user is an administrator")

	count, err := testutil.GatherAndCount(reg, "dispatch_requests_total", "storage_calls_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestNewContainer_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "lyrida.db")
	c, _ := newContainer(t, config.StorageConfig{Type: "sqlite", DSN: dsn, RequestTimeout: time.Second})

	assert.Equal(t, "sqlite", c.StorageType())
	require.NoError(t, c.Ping(context.Background()))

	seeded := handler.Seed(context.Background(), c.UoW, "admin")
	require.True(t, seeded.IsOk(), "seed: %v", seeded.Errors())

	ctx := registerAndLogin(t, c)
	uid, _ := authz.PrincipalFrom(ctx)

	page := mediator.Send[domain.Page](ctx, c.Dispatcher, handler.CreatePageCommand{
		UserID: uid.UserID, Title: "Home", Path: "/",
	})
	require.True(t, page.IsOk(), "create page: %v", page.Errors())

	pages := mediator.Send[[]domain.Page](ctx, c.Dispatcher, handler.GetPagesQuery{UserID: uid.UserID})
	require.True(t, pages.IsOk())
	listed, _ := pages.Value()
	assert.Len(t, listed, 1)

	again := mediator.Send[domain.User](context.Background(), c.Dispatcher, handler.RegisterUserCommand{
		Email: "root@example.com", Password: "Secr3t!pass",
	})
	require.True(t, again.IsErr())
	assert.Equal(t, result.KindConflict, again.FirstError().Kind)
}

func TestNewContainer_RejectsWeakKey(t *testing.T) {
	cfg := testConfig(config.StorageConfig{Type: "memory"})
	cfg.Auth.JWTSecret = "short"

	_, err := app.NewContainer(cfg, prometheus.NewRegistry())
	assert.ErrorIs(t, err, authz.ErrWeakKey)
}

func TestNewContainer_UnknownStorage(t *testing.T) {
	_, err := app.NewContainer(testConfig(config.StorageConfig{Type: "mysql", DSN: "x"}), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestNewContainer_FromDefaultConfig(t *testing.T) {
	tests := []struct {
		name    string
		storage string
	}{
		{"default sqlite", ""},
		{"memory", "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			wd, err := os.Getwd()
			require.NoError(t, err)
			require.NoError(t, os.Chdir(dir))
			t.Cleanup(func() { _ = os.Chdir(wd) })
			if tt.storage != "" {
				t.Setenv("APP_STORAGE_TYPE", tt.storage)
			}

			cfg, err := config.LoadConfig()
			require.NoError(t, err)

			c, err := app.NewContainer(cfg, prometheus.NewRegistry())
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close() })
			assert.NoError(t, c.Ping(context.Background()))
		})
	}
}

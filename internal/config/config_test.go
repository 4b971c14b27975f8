package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"Production environment", "production", true},
		{"Development environment", "development", false},
		{"Empty environment", "", false},
		{"Other environment", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.env}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	assert.True(t, (&Config{Environment: "development"}).IsDevelopment())
	assert.False(t, (&Config{Environment: "production"}).IsDevelopment())
	assert.False(t, (&Config{}).IsDevelopment())
}

// valid returns a configuration every test case starts from.
func valid() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Storage: StorageConfig{Type: "sqlite", DSN: "lyrida.db"},
		Auth: AuthConfig{
			JWTSecret:           "development-secret-key-32-chars-long",
			AccessTokenDuration: 15 * time.Minute,
			BcryptCost:          12,
		},
		RateLimiter: RateLimiterConfig{Enabled: true, RPS: 10, Burst: 20},
		Audit:       AuditConfig{Enabled: true, Sink: "log"},
		Environment: "development",
	}
}

func TestConfig_Validate(t *testing.T) {
	longSecret := "very-long-production-secret-key-32-chars-minimum"

	tests := []struct {
		name          string
		mutate        func(*Config)
		errorContains string
	}{
		{name: "Valid development config", mutate: func(*Config) {}},
		{
			name: "Valid production config",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = longSecret
			},
		},
		{name: "Memory storage in development", mutate: func(c *Config) { c.Storage = StorageConfig{Type: "memory"} }},
		{name: "Audit disabled ignores sink", mutate: func(c *Config) { c.Audit = AuditConfig{Sink: "kafka"} }},
		{name: "Missing server port", mutate: func(c *Config) { c.Server.Port = "" }, errorContains: "port"},
		{name: "Unknown storage type", mutate: func(c *Config) { c.Storage.Type = "mysql" }, errorContains: "storage.type"},
		{name: "Negative storage timeout", mutate: func(c *Config) { c.Storage.RequestTimeout = -time.Second }, errorContains: "request_timeout"},
		{
			name: "Production without DSN",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = longSecret
				c.Storage.DSN = ""
			},
			errorContains: "storage.dsn",
		},
		{
			name: "Production on memory storage",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = longSecret
				c.Storage.Type = "memory"
			},
			errorContains: "memory",
		},
		{name: "Missing JWT secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, errorContains: "jwt_secret"},
		{
			name: "Production with weak JWT secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = "short"
			},
			errorContains: "32 chars",
		},
		{name: "Development with weak JWT secret", mutate: func(c *Config) { c.Auth.JWTSecret = "your-super-secret-key" }, errorContains: "32 chars"},
		{
			name: "Production with default JWT secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.Auth.JWTSecret = defaultJWTSecret
			},
			errorContains: "default value",
		},
		{name: "Zero access token duration", mutate: func(c *Config) { c.Auth.AccessTokenDuration = 0 }, errorContains: "access_token_duration"},
		{name: "Bcrypt cost out of range", mutate: func(c *Config) { c.Auth.BcryptCost = 40 }, errorContains: "bcrypt_cost"},
		{name: "Rate limiter enabled with zero RPS", mutate: func(c *Config) { c.RateLimiter.RPS = 0 }, errorContains: "rps"},
		{name: "Rate limiter enabled with zero burst", mutate: func(c *Config) { c.RateLimiter.Burst = 0 }, errorContains: "burst"},
		{name: "Unknown audit sink", mutate: func(c *Config) { c.Audit.Sink = "kafka" }, errorContains: "audit.sink"},
		{name: "Redis audit without address", mutate: func(c *Config) { c.Audit.Sink = "redis" }, errorContains: "redis_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestAuditConfig_UsesRedis(t *testing.T) {
	assert.True(t, AuditConfig{Enabled: true, Sink: "Redis"}.UsesRedis())
	assert.False(t, AuditConfig{Enabled: false, Sink: "redis"}.UsesRedis())
	assert.False(t, AuditConfig{Enabled: true, Sink: "log"}.UsesRedis())
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, 5*time.Second, cfg.Storage.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, "admin", cfg.Auth.AdminRole)
	assert.Equal(t, "log", cfg.Audit.Sink)
	assert.Equal(t, int64(10000), cfg.Audit.MaxEntries)
}

func TestLoadConfig_WithEnvironmentVariables(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_SERVER_PORT", "9000")
	t.Setenv("APP_ENVIRONMENT", "test")
	t.Setenv("APP_STORAGE_TYPE", "memory")
	t.Setenv("JWT_SECRET", "from-the-environment")
	t.Setenv("APP_AUDIT_SINK", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "test", cfg.Environment)
	assert.True(t, cfg.Storage.IsMemory())
	assert.Equal(t, "from-the-environment", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Audit.UsesRedis())
	assert.Equal(t, "localhost:6379", cfg.Audit.RedisAddr)
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
server:
  port: "7070"
storage:
  type: postgres
  dsn: postgres://localhost/lyrida
  request_timeout: 2s
auth:
  issuer: files
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, 2*time.Second, cfg.Storage.RequestTimeout)
	assert.Equal(t, "files", cfg.Auth.Issuer)
}

func TestLoadConfig_InvalidRejected(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("APP_STORAGE_TYPE", "oracle")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "storage.type")
}

// chdir moves the test into dir, where no config.yaml is found by default.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

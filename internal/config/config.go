// Package config provides application configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with built-in validation for production and development environments.
// The storage medium is chosen here (SQLite, PostgreSQL or the in-memory
// store), together with authentication, rate limiting, audit and logging.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// defaultJWTSecret is long enough for local runs; production refuses it.
const defaultJWTSecret = "development-only-jwt-secret-change-me"

// minJWTSecretLength matches the key size the token issuer accepts.
const minJWTSecretLength = 32

// Config holds all application configuration / Contient toute la configuration de l'application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Environment string            `mapstructure:"environment"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Backup      BackupConfig      `mapstructure:"backup"`
	Auth        AuthConfig        `mapstructure:"auth"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// ServerConfig holds server configuration / Configuration serveur
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig selects and tunes the storage medium / Configuration du stockage
type StorageConfig struct {
	Type           string        `mapstructure:"type"`            // "sqlite", "postgres" or "memory"
	DSN            string        `mapstructure:"dsn"`             // Data Source Name for connecting to the database
	MigrationsPath string        `mapstructure:"migrations_path"` // Empty uses the embedded migrations
	MaxOpenConns   int           `mapstructure:"max_open_conns"`  // Maximum number of open connections (default: 25)
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`  // Maximum number of idle connections (default: 5)
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Bound on every storage call
}

// IsMemory reports whether the in-memory medium is selected.
func (s StorageConfig) IsMemory() bool {
	return strings.EqualFold(s.Type, "memory")
}

// BackupConfig holds database backup configuration / Configuration des sauvegardes de la base de données
type BackupConfig struct {
	Enabled       bool          `mapstructure:"enabled"`        // Enable automatic backups / Active les sauvegardes automatiques
	Interval      time.Duration `mapstructure:"interval"`       // Backup interval (default: 24h) / Intervalle de sauvegarde
	Path          string        `mapstructure:"path"`           // Directory to store backups / Répertoire de stockage
	RetentionDays int           `mapstructure:"retention_days"` // Number of days to keep backups / Nombre de jours de rétention
}

// AuthConfig holds token and account configuration / Configuration des jetons et des comptes
type AuthConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
	Issuer              string        `mapstructure:"issuer"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"`
	AdminRole           string        `mapstructure:"admin_role"`
	RequireVerification bool          `mapstructure:"require_verification"`
}

// RateLimiterConfig holds rate limiter configuration / Configuration limiteur de débit
type RateLimiterConfig struct {
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	Enabled bool    `mapstructure:"enabled"`
	// TrustedProxies may set X-Forwarded-For / Proxies autorisés à définir X-Forwarded-For
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// AuditConfig holds the audit trail configuration / Configuration de l'audit
type AuditConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Sink          string `mapstructure:"sink"` // "log" or "redis"
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
	MaxEntries    int64  `mapstructure:"max_entries"`
}

// UsesRedis reports whether audit entries go to Redis.
func (a AuditConfig) UsesRedis() bool {
	return a.Enabled && strings.EqualFold(a.Sink, "redis")
}

// LoggingConfig holds logging configuration / Configuration logging
type LoggingConfig struct {
	Level         string            `mapstructure:"level"`
	Format        string            `mapstructure:"format"`
	LokiEnabled   bool              `mapstructure:"loki_enabled"`
	LokiURL       string            `mapstructure:"loki_url"`
	LokiLabels    map[string]string `mapstructure:"loki_labels"`
	LokiBatchSize int               `mapstructure:"loki_batch_size"`
}

// IsProduction checks if environment is production / Vérifie si l'environnement est production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment checks if environment is development / Vérifie si l'environnement est development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from YAML and env vars / Charge la config depuis YAML et variables d'env
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Default values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("environment", "development")
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.dsn", "lyrida.db?_pragma=journal_mode(WAL)")
	v.SetDefault("storage.migrations_path", "")
	v.SetDefault("storage.max_open_conns", 25)
	v.SetDefault("storage.max_idle_conns", 5)
	v.SetDefault("storage.request_timeout", "5s")
	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.access_token_duration", "15m")
	v.SetDefault("auth.issuer", "lyrida")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.admin_role", "admin")
	v.SetDefault("auth.require_verification", false)

	// Rate limiter defaults - More permissive in dev
	v.SetDefault("rate_limiter.rps", 10)
	v.SetDefault("rate_limiter.burst", 20)
	v.SetDefault("rate_limiter.enabled", true)
	v.SetDefault("rate_limiter.trusted_proxies", []string{})

	// Audit defaults
	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.sink", "log")
	v.SetDefault("audit.redis_addr", "")
	v.SetDefault("audit.redis_db", 0)
	v.SetDefault("audit.redis_key", "lyrida:audit")
	v.SetDefault("audit.max_entries", 10000)

	// Backup defaults
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.path", "./backups")
	v.SetDefault("backup.retention_days", 7)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.loki_enabled", false)
	v.SetDefault("logging.loki_url", "http://localhost:3100")
	v.SetDefault("logging.loki_labels", map[string]string{
		"app":         "lyrida",
		"environment": "development",
	})
	v.SetDefault("logging.loki_batch_size", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific environment variables
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("storage.dsn", "DATABASE_DSN")
	v.BindEnv("audit.redis_addr", "REDIS_ADDR")
	v.BindEnv("audit.redis_password", "REDIS_PASSWORD")

	var cfg Config
	err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, err
	}

	// Validation
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates configuration / Valide la configuration
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateServer,
		c.validateStorage,
		c.validateAuth,
		c.validateRateLimiter,
		c.validateAudit,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}

// validateStorage validates storage configuration
func (c *Config) validateStorage() error {
	validTypes := []string{"sqlite", "postgres", "postgresql", "memory", ""}
	storageType := strings.ToLower(c.Storage.Type)

	if !slices.Contains(validTypes, storageType) {
		return errors.New("storage.type must be one of: sqlite, postgres, memory")
	}

	if c.Storage.RequestTimeout < 0 {
		return errors.New("storage.request_timeout cannot be negative")
	}

	// Production-specific storage validation
	if c.IsProduction() {
		if c.Storage.IsMemory() {
			return errors.New("storage.type memory is not allowed in production")
		}
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required in production")
		}
	}

	return nil
}

// validateAuth validates authentication and JWT configuration
func (c *Config) validateAuth() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}

	if len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be ≥%d chars", minJWTSecretLength)
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == defaultJWTSecret {
			return errors.New("auth.jwt_secret cannot use default value in production - set JWT_SECRET environment variable")
		}
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("auth.access_token_duration must be positive")
	}

	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}

	return nil
}

// validateRateLimiter validates rate limiter configuration
func (c *Config) validateRateLimiter() error {
	if !c.RateLimiter.Enabled {
		return nil
	}

	if c.RateLimiter.RPS <= 0 {
		return errors.New("rate_limiter.rps must be positive when enabled")
	}

	if c.RateLimiter.Burst <= 0 {
		return errors.New("rate_limiter.burst must be positive when enabled")
	}

	return nil
}

// validateAudit validates audit configuration
func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}

	sink := strings.ToLower(c.Audit.Sink)
	if sink != "log" && sink != "redis" {
		return errors.New("audit.sink must be one of: log, redis")
	}

	if sink == "redis" && c.Audit.RedisAddr == "" {
		return errors.New("audit.redis_addr is required when audit.sink is redis")
	}

	if c.Audit.MaxEntries < 0 {
		return errors.New("audit.max_entries cannot be negative")
	}

	return nil
}

// Package app wires the service: storage medium, unit of work, authorization
// gate, dispatcher with its behaviors and the handler catalogue.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/metrics"
	"github.com/BinaryAlley/Lyrida-sub002/internal/pipeline"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/schema"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/sqlstore"
	"github.com/BinaryAlley/Lyrida-sub002/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
)

// Container holds application dependencies / Contient les dépendances de l'application
type Container struct {
	Config     *config.Config
	Metrics    *metrics.Metrics
	Storage    storage.Client
	UoW        *repository.UnitOfWork
	Gate       *authz.Gate
	Resolver   *authz.Resolver
	Tokens     *authz.TokenIssuer
	Dispatcher *mediator.Dispatcher
	Handlers   *handler.Handlers

	sql       *sqlstore.Store // nil on the in-memory medium
	auditSink audit.Sink
	closers   []io.Closer
	ctxCancel context.CancelFunc
}

// NewContainer initializes application container / Initialise le conteneur de l'application.
// A nil registerer uses the Prometheus default one.
func NewContainer(cfg *config.Config, reg prometheus.Registerer) (*Container, error) {
	c := &Container{Config: cfg}

	// Initialize metrics first (no dependencies)
	c.Metrics = metrics.NewMetrics(reg)

	ctx := context.Background()
	if err := c.initStorage(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("storage init: %w", err)
	}

	if err := c.initAuth(); err != nil {
		c.Close()
		return nil, fmt.Errorf("auth init: %w", err)
	}

	c.initAudit()
	c.initDispatcher()

	// Every request type must have a handler before serving
	if err := c.Dispatcher.Check(handler.Catalog()...); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Storage.IsMemory() {
		// Nothing survives a restart: seed the catalogue every time
		if r := handler.Seed(ctx, c.UoW, cfg.Auth.AdminRole); r.IsErr() {
			c.Close()
			return nil, fmt.Errorf("seed: %v", r.Errors())
		}
	}

	bg, cancel := context.WithCancel(context.Background())
	c.ctxCancel = cancel
	if cfg.Backup.Enabled && c.sql != nil {
		c.startBackupRoutine(bg)
	}

	c.updateDatabaseMetrics()
	return c, nil
}

// initStorage opens the storage medium / Ouvre le support de stockage
func (c *Container) initStorage(ctx context.Context) error {
	var client storage.Client
	if c.Config.Storage.IsMemory() {
		client = schema.NewMemory()
		slog.Warn("using in-memory storage: data is lost on restart")
	} else {
		store, err := OpenSQL(ctx, c.Config.Storage)
		if err != nil {
			return err
		}
		c.sql = store
		c.closers = append(c.closers, store)

		if err := sqlstore.Migrate(ctx, store, c.Config.Storage.MigrationsPath); err != nil {
			return err
		}
		client = store
	}

	c.Storage = storage.Observe(client, storage.Options{
		Timeout:  c.Config.Storage.RequestTimeout,
		Recorder: c.Metrics,
	})
	c.UoW = repository.NewUnitOfWork(c.Storage, nil)
	return nil
}

// OpenSQL connects to the configured SQL engine.
func OpenSQL(ctx context.Context, conf config.StorageConfig) (*sqlstore.Store, error) {
	dbType := sqlstore.DatabaseType(strings.ToLower(conf.Type))
	switch dbType {
	case "":
		dbType = sqlstore.SQLite
	case "postgresql":
		dbType = sqlstore.PostgreSQL
	}
	return sqlstore.Open(ctx, sqlstore.Config{
		Type:         dbType,
		DSN:          conf.DSN,
		MaxOpenConns: conf.MaxOpenConns,
		MaxIdleConns: conf.MaxIdleConns,
	})
}

func (c *Container) initAuth() error {
	tokens, err := authz.NewTokenIssuer(c.Config.Auth.JWTSecret, c.Config.Auth.Issuer, c.Config.Auth.AccessTokenDuration)
	if err != nil {
		return err
	}
	c.Tokens = tokens
	c.Gate = authz.NewGate(c.Config.Auth.AdminRole, c.Metrics)
	c.Resolver = authz.NewResolver(c.UoW)
	return nil
}

// initAudit picks the audit sink; nil when auditing is disabled.
func (c *Container) initAudit() {
	conf := c.Config.Audit
	switch {
	case !conf.Enabled:
		return
	case conf.UsesRedis():
		client := audit.NewRedisClient(audit.RedisConfig{
			Addr:     conf.RedisAddr,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
		})
		c.closers = append(c.closers, client)
		c.auditSink = audit.NewRedisSink(client, conf.RedisKey, conf.MaxEntries)
	default:
		c.auditSink = audit.NewLogSink(nil)
	}
	slog.Info("audit enabled", "sink", c.auditSink.Name())
}

// initDispatcher registers the behaviors, outermost first, then the handlers.
func (c *Container) initDispatcher() {
	validators := validation.NewRegistry()
	behaviors := []mediator.Behavior{
		validation.Behavior(validators),
		pipeline.Logging(nil),
		pipeline.Metrics(c.Metrics),
	}
	if c.auditSink != nil {
		behaviors = append(behaviors, pipeline.Audit(c.auditSink, c.Metrics))
	}

	c.Dispatcher = mediator.New(behaviors...)
	c.Handlers = handler.Register(c.Dispatcher, validators, handler.Deps{
		UoW:                 c.UoW,
		Gate:                c.Gate,
		Tokens:              c.Tokens,
		BcryptCost:          c.Config.Auth.BcryptCost,
		RequireVerification: c.Config.Auth.RequireVerification,
		Metrics:             c.Metrics,
		AuditTrail:          c.auditTrail(),
	})
}

// auditTrail returns the sink when it keeps entries.
func (c *Container) auditTrail() audit.Reader {
	if r, ok := c.auditSink.(audit.Reader); ok {
		return r
	}
	return nil
}

// Ping reports whether the storage medium answers / Vérifie que le stockage répond
func (c *Container) Ping(ctx context.Context) error {
	if c.sql == nil {
		return nil
	}
	return c.sql.Ping(ctx)
}

// StorageType names the medium in use.
func (c *Container) StorageType() string {
	if c.sql == nil {
		return "memory"
	}
	return c.sql.Type().String()
}

// updateDatabaseMetrics updates database metrics / Met à jour les métriques de la BD
func (c *Container) updateDatabaseMetrics() {
	if c.sql == nil {
		return
	}
	c.Metrics.UpdateDatabaseConnections(c.sql.DB().Stats().OpenConnections)
}

// startBackupRoutine starts automatic backup routine / Démarre la routine de backup automatique
func (c *Container) startBackupRoutine(ctx context.Context) {
	conf := c.Config.Backup
	go func() {
		c.Metrics.SetBackgroundTaskStatus("database_backup", true)
		ticker := time.NewTicker(conf.Interval)
		defer ticker.Stop()

		slog.Info("automatic database backup enabled",
			"interval", conf.Interval, "retention_days", conf.RetentionDays)

		for {
			select {
			case <-ticker.C:
				c.runBackup(ctx, time.Now())
			case <-ctx.Done():
				c.Metrics.SetBackgroundTaskStatus("database_backup", false)
				slog.Info("backup goroutine stopped")
				return
			}
		}
	}()
}

// runBackup creates one backup then prunes the expired ones.
func (c *Container) runBackup(ctx context.Context, now time.Time) {
	conf := c.Config.Backup
	if _, err := c.sql.Backup(ctx, c.Config.Storage.DSN, conf.Path); err != nil {
		slog.Error("backup failed", "error", err)
	}
	retention := time.Duration(conf.RetentionDays) * 24 * time.Hour
	if _, err := sqlstore.PruneBackups(conf.Path, retention, now); err != nil {
		slog.Error("backup cleanup failed", "error", err)
	}
	c.updateDatabaseMetrics()
}

// Close performs graceful shutdown / Effectue un arrêt gracieux
func (c *Container) Close() error {
	if c.ctxCancel != nil {
		c.ctxCancel()
	}
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// Package sqlstore is the SQL storage medium. It turns storage calls into
// statements for SQLite or PostgreSQL and reports engine errors as the
// medium's error text.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds database connection config / Contient la config de connexion BD
type Config struct {
	Type         DatabaseType
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store is a storage.Client backed by database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects, configures the pool and pings the database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Type == "" {
		cfg.Type = SQLite
	}
	d, err := dialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.DriverName(), d.PrepareDSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Type, err)
	}

	setConnectionPool(db, cfg)
	d.Configure(ctx, db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Type, err)
	}

	slog.Info("database connected", "type", cfg.Type)
	return &Store{db: db, dialect: d}, nil
}

// New wraps an already opened database.
func New(db *sql.DB, dt DatabaseType) (*Store, error) {
	d, err := dialectFor(dt)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: d}, nil
}

func setConnectionPool(db *sql.DB, cfg Config) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
}

// DB exposes the pool for migrations, health checks and stats.
func (s *Store) DB() *sql.DB { return s.db }

// Type returns the engine type / Retourne le type de moteur
func (s *Store) Type() DatabaseType { return s.dialect.Type() }

// Ping checks the connection / Vérifie la connexion
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

// Call implements storage.Client.
func (s *Store) Call(ctx context.Context, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	return execute(ctx, s.db, s.dialect, container, op, p)
}

// BeginTx implements storage.Transactional.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &transaction{tx: tx, dialect: s.dialect}, nil
}

type transaction struct {
	mu      sync.Mutex
	tx      *sql.Tx
	dialect dialect
	done    bool
}

func (t *transaction) Call(ctx context.Context, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil, storage.ErrTxDone
	}
	return execute(ctx, t.tx, t.dialect, container, op, p)
}

func (t *transaction) Commit() error {
	return t.finish((*sql.Tx).Commit)
}

func (t *transaction) Rollback() error {
	return t.finish((*sql.Tx).Rollback)
}

func (t *transaction) finish(fn func(*sql.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return storage.ErrTxDone
	}
	t.done = true
	return fn(t.tx)
}

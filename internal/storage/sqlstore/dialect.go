package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
)

// DatabaseType represents supported database types / Types de base de données supportés
type DatabaseType string

const (
	SQLite     DatabaseType = "sqlite"
	PostgreSQL DatabaseType = "postgres"
)

// String returns string representation
func (dt DatabaseType) String() string {
	return string(dt)
}

// IsValid checks if database type is supported
func (dt DatabaseType) IsValid() bool {
	_, ok := dialects[dt]
	return ok
}

// dialect hides what differs between the SQL engines.
type dialect interface {
	Type() DatabaseType
	DriverName() string
	Placeholder(n int) string
	// PrepareDSN adds the per-connection settings the engine needs.
	PrepareDSN(dsn string) string
	Configure(ctx context.Context, db *sql.DB)
	// Rejected reports whether err comes from the engine itself (constraint,
	// missing relation...) rather than from the connection.
	Rejected(err error) bool
}

// dialects maps database types to their dialect (no switch).
var dialects = map[DatabaseType]func() dialect{
	SQLite:     func() dialect { return sqliteDialect{} },
	PostgreSQL: func() dialect { return postgresDialect{} },
}

func dialectFor(dt DatabaseType) (dialect, error) {
	factory, ok := dialects[dt]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %q", dt)
	}
	return factory(), nil
}

type sqliteDialect struct{}

func (sqliteDialect) Type() DatabaseType { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

// PrepareDSN turns on foreign keys and the busy timeout for every pooled
// connection, PRAGMAs only reach one of them. Transactions take the write
// lock at BEGIN so concurrent scopes wait on the busy timeout instead of
// failing when a read lock is upgraded. Settings already in the DSN win.
func (sqliteDialect) PrepareDSN(dsn string) string {
	for _, p := range []struct{ present, param string }{
		{"_pragma=foreign_keys", "_pragma=foreign_keys(1)"},
		{"_pragma=busy_timeout", "_pragma=busy_timeout(5000)"},
		{"_txlock=", "_txlock=immediate"},
	} {
		if strings.Contains(dsn, p.present) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.param
	}
	return dsn
}

func (sqliteDialect) Configure(ctx context.Context, db *sql.DB) {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA trusted_schema=OFF;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			slog.WarnContext(ctx, "failed to execute pragma", "pragma", pragma, "error", err)
		}
	}
}

func (sqliteDialect) Rejected(err error) bool {
	var liteErr *sqlite.Error
	return errors.As(err, &liteErr)
}

type postgresDialect struct{}

func (postgresDialect) Type() DatabaseType { return PostgreSQL }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (postgresDialect) PrepareDSN(dsn string) string { return dsn }

func (postgresDialect) Configure(ctx context.Context, db *sql.DB) {
	if _, err := db.ExecContext(ctx, "SET TIME ZONE 'UTC'"); err != nil {
		slog.WarnContext(ctx, "failed to set PostgreSQL timezone", "error", err)
	}
}

func (postgresDialect) Rejected(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr)
}

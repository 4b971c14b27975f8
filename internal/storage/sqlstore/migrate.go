package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file-based migrations
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var embedded embed.FS

// DriverConfig holds driver metadata / Contient les métadonnées du driver
type DriverConfig[T any] struct {
	Name       string
	CreateFunc func(*sql.DB, T) (database.Driver, error)
	Config     T
}

// MigrationDriver creates a migration driver for one engine.
type MigrationDriver[T any] struct {
	config DriverConfig[T]
}

// CreateDriver creates database driver / Crée le driver de base de données
func (d *MigrationDriver[T]) CreateDriver(db *sql.DB) (database.Driver, error) {
	return d.config.CreateFunc(db, d.config.Config)
}

// DriverName returns driver name / Retourne le nom du driver
func (d *MigrationDriver[T]) DriverName() string {
	return d.config.Name
}

// MigrationDriverFactory creates migration drivers / Crée les drivers de migration
type MigrationDriverFactory interface {
	CreateDriver(db *sql.DB) (database.Driver, error)
	DriverName() string
}

// migrationDrivers maps database types to migration drivers (no switch).
var migrationDrivers = map[DatabaseType]MigrationDriverFactory{
	SQLite: &MigrationDriver[*sqlite.Config]{config: DriverConfig[*sqlite.Config]{
		Name: "sqlite",
		CreateFunc: func(db *sql.DB, cfg *sqlite.Config) (database.Driver, error) {
			return sqlite.WithInstance(db, cfg)
		},
		Config: &sqlite.Config{},
	}},
	PostgreSQL: &MigrationDriver[*postgres.Config]{config: DriverConfig[*postgres.Config]{
		Name: "postgres",
		CreateFunc: func(db *sql.DB, cfg *postgres.Config) (database.Driver, error) {
			return postgres.WithInstance(db, cfg)
		},
		Config: &postgres.Config{},
	}},
}

// Migrate applies every pending migration. An empty path uses the migrations
// embedded in the binary; otherwise files are read from path.
func Migrate(ctx context.Context, s *Store, path string) error {
	factory, ok := migrationDrivers[s.Type()]
	if !ok {
		return fmt.Errorf("unsupported database type for migrations: %s", s.Type())
	}

	driver, err := factory.CreateDriver(s.db)
	if err != nil {
		return fmt.Errorf("could not create %s migration driver: %w", s.Type(), err)
	}

	var m *migrate.Migrate
	if path == "" {
		src, err := iofs.New(embedded, "migrations/"+s.Type().String())
		if err != nil {
			return fmt.Errorf("could not open embedded migrations: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, factory.DriverName(), driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+path, factory.DriverName(), driver)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	}

	slog.InfoContext(ctx, "applying database migrations", "type", s.Type())
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.InfoContext(ctx, "database migrations applied")
	return nil
}

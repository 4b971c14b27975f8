package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/handler"
	"github.com/BinaryAlley/Lyrida-sub002/internal/logging"
	"github.com/BinaryAlley/Lyrida-sub002/internal/repository"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/sqlstore"
	"github.com/spf13/cobra"
)

var seed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema migrations to the configured database",
	Long: `Apply every pending schema migration to the configured SQL database.
With --seed, also store the permission catalogue and the administrative role.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logs := logging.Setup(cfg.Logging, cfg.IsProduction(), os.Stderr)
		defer logs.Close()

		return migrate(cmd.Context(), cmd, cfg, seed)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seed, "seed", false, "store the permission catalogue and the admin role")
}

func migrate(ctx context.Context, cmd *cobra.Command, cfg *config.Config, withSeed bool) error {
	if cfg.Storage.IsMemory() {
		return errors.New("migrate: the in-memory medium has no schema")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := app.OpenSQL(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	if err := sqlstore.Migrate(ctx, store, cfg.Storage.MigrationsPath); err != nil {
		return err
	}
	cmd.Println("migrations applied")

	if !withSeed {
		return nil
	}
	res := handler.Seed(ctx, repository.NewUnitOfWork(store, nil), cfg.Auth.AdminRole)
	report, ok := res.Value()
	if !ok {
		return fmt.Errorf("seed: %w", res.FirstError())
	}
	cmd.Printf("seeded: %d permissions, admin role created: %t, %d grants\n",
		report.PermissionsCreated, report.RoleCreated, report.GrantsCreated)
	return nil
}

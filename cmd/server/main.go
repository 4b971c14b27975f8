// Package main is the lyrida server CLI: serve the HTTP API, migrate the
// schema, or check the wiring.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/spf13/cobra"
)

// main is the application entry point / Point d'entrée de l'application
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lyrida",
	Short: "Lyrida is the backend of a multi-environment file browser",
	Long: `Lyrida authenticates users, enforces role and permission based
authorization and serves pages, environments and preferences over HTTP.
Configuration is read from ./config.yaml and APP_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkCmd)
}

// logStartupInfo displays startup information / Affiche les informations de démarrage
func logStartupInfo(conf *config.Config) {
	slog.Info("🚀 Starting application",
		"environment", conf.Environment,
		"port", conf.Server.Port,
		"storage", conf.Storage.Type,
	)

	if conf.RateLimiter.Enabled {
		slog.Info("🛡️  Rate limiter enabled",
			"global_rps", conf.RateLimiter.RPS,
			"global_burst", conf.RateLimiter.Burst,
			"trusted_proxies", len(conf.RateLimiter.TrustedProxies),
		)
	} else {
		slog.Warn("⚠️  Rate limiter is DISABLED")
	}

	slog.Info("⏱️  Token duration", "access_token", conf.Auth.AccessTokenDuration)
}

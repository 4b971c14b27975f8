package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/logging"
	"github.com/BinaryAlley/Lyrida-sub002/internal/transport/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

// run initializes and starts the HTTP server / Initialise et démarre le serveur HTTP
func run(parent context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logs := logging.Setup(cfg.Logging, cfg.IsProduction(), os.Stdout)
	defer logs.Close()

	logStartupInfo(cfg)

	// A nil registerer exposes the collectors on the default /metrics registry
	container, err := app.NewContainer(cfg, nil)
	if err != nil {
		return err
	}
	defer container.Close()

	if parent == nil {
		parent = context.Background()
	}
	// Graceful shutdown
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      web.NewMux(ctx, web.NewHandler(container), container),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("Shutting down server gracefully...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("Server stopped successfully")
	return nil
}

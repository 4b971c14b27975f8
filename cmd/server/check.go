package main

import (
	"fmt"
	"io"

	"github.com/BinaryAlley/Lyrida-sub002/internal/app"
	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/BinaryAlley/Lyrida-sub002/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and the request wiring",
	Long: `Load the configuration, build every component and verify that each
request type has a handler. Exits non-zero on any misconfiguration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		return check(cmd, cfg)
	},
}

// check builds a container quietly and lists the registered requests.
func check(cmd *cobra.Command, cfg *config.Config) error {
	logs := logging.Setup(config.LoggingConfig{Level: "error"}, false, io.Discard)
	defer logs.Close()

	container, err := app.NewContainer(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer container.Close()

	registered := container.Dispatcher.Registered()
	for _, name := range registered {
		cmd.Println("  ", name)
	}
	cmd.Printf("ok: %d request types wired, storage %s\n", len(registered), container.StorageType())
	return nil
}

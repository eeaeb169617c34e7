package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Strob0t/showcase/internal/config"
	"github.com/Strob0t/showcase/internal/logger"
)

// version is set at build time.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "showcase",
		Short: "Showcase portfolio server",
		Long: `Showcase serves the public project gallery, renders file projects into
self-contained preview documents and collects service requests.

Run 'showcase serve' to start the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(root.PersistentFlags())
	root.SetVersionTemplate(fmt.Sprintf("showcase %s\n", version))

	root.AddCommand(newServeCmd(), newMigrateCmd(), newAdminCmd())
	return root
}

// setup loads the configuration for cmd and installs the configured logger
// as the default. The returned function flushes buffered log records.
func setup(cmd *cobra.Command) (*config.Config, func(), error) {
	cfg, path, err := config.LoadWithCLI(config.FlagsFrom(cmd.Flags()))
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	log, closer := logger.New(cfg.Logging)
	slog.SetDefault(log)
	slog.Debug("config loaded", "path", path)
	return cfg, closer.Close, nil
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"specgen/internal/devserver"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local stand-in for the generator",
		Long: `Run a local HTTP server that accepts the same upload as the generator and
answers with a zip of the uploaded files and a manifest.

Examples:
  specgen serve
  specgen serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Address
			}
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from configuration)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := devserver.NewHandler(devserver.Options{
		ModeField:         cfg.Upload.ModeField,
		Profiles:          cfg.Profiles(),
		AllowedExtensions: cfg.Server.AllowedExtensions,
		ArchivePrefix:     cfg.Server.ArchivePrefix,
		MaxMemory:         cfg.Server.MaxMemory,
		Logger:            log,
	})

	return devserver.NewServer(cfg.Server.Path, handler, log).ListenAndServe(ctx, addr)
}

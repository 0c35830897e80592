package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aevon-lab/easymoney/internal/catalog"
	corecfg "github.com/aevon-lab/easymoney/internal/core/config"
	"github.com/aevon-lab/easymoney/internal/evaluation"
	"github.com/aevon-lab/easymoney/internal/metrics"
	"github.com/aevon-lab/easymoney/internal/server"
)

const (
	serveCmdUse        = "serve"
	serveCmdShort      = "Run the HTTP evaluation API"
	serveConfigFlag    = "config"
	serveConfigShort   = "c"
	serveConfigUsage   = "path to configuration file"
	serveDefaultConfig = "easymoney.yaml"
)

// NewServeCommand creates the serve subcommand.
func NewServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   serveCmdUse,
		Short: serveCmdShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, serveConfigFlag, serveConfigShort, serveDefaultConfig, serveConfigUsage)

	return cmd
}

// buildServer wires configuration into a ready-to-run server.
func buildServer(cfg *corecfg.Config) *server.Server {
	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.NewRecorder()
	}

	svc := evaluation.NewService(catalog.New(nil), cfg.SheetRepository, rec, evaluation.Options{
		MaxBodySizeMB:    cfg.Server.MaxBodySizeMB,
		BatchMaxItems:    cfg.Evaluation.BatchMaxItems,
		BatchWorkers:     cfg.Evaluation.BatchWorkers,
		CompileCacheSize: cfg.Sheets.CompileCacheSize,
	})

	var metricsHandler http.Handler
	if rec != nil {
		metricsHandler = rec.Handler()
	}
	srv := server.New(cfg.Server.Addr(), cfg.Server.Mode, metricsHandler, cfg.Metrics.Path)
	svc.RegisterRoutes(srv.Engine)
	return srv
}

func runServe(ctx context.Context, configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return err
	}

	// 2. Initialize Logger
	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))

	sheets, err := cfg.SheetRepository.List(ctx)
	if err != nil {
		return err
	}
	slog.Info("Loaded config",
		"addr", cfg.Server.Addr(),
		"sheets_dir", cfg.Sheets.Dir,
		"sheets", len(sheets),
		"metrics_enabled", cfg.Metrics.Enabled,
		"batch_workers", cfg.Evaluation.BatchWorkers)

	// 3. Initialize Server; blocks until ctx is cancelled.
	srv := buildServer(cfg)
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}

	slog.Info("Shutdown complete")
	return nil
}

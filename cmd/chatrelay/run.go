package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/chatrelay/pkg/attachments"
	"mercator-hq/chatrelay/pkg/audit/recorder"
	"mercator-hq/chatrelay/pkg/audit/retention"
	"mercator-hq/chatrelay/pkg/audit/storage"
	"mercator-hq/chatrelay/pkg/catalog"
	"mercator-hq/chatrelay/pkg/cli"
	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/conversation"
	"mercator-hq/chatrelay/pkg/providerfactory"
	"mercator-hq/chatrelay/pkg/proxy/handlers"
	"mercator-hq/chatrelay/pkg/server"
	"mercator-hq/chatrelay/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the chat relay server",
	Long: `Start the chat relay server with the specified configuration.

Configuration is read from the config file when present, then overridden by
CHATRELAY_* environment variables (and OPENAI_API_KEY / PORT). Without any
configuration the relay listens on 0.0.0.0:3000 with the built-in providers.

Examples:
  # Start with defaults
  chatrelay run

  # Start with custom config
  chatrelay run --config /etc/chatrelay/config.yaml

  # Override listen address
  chatrelay run --listen 127.0.0.1:8080

  # Validate config without starting server
  chatrelay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	manager := providerfactory.NewManager(cfg.Relay)
	defer manager.Close()

	if err := manager.LoadFromConfig(cfg.Providers); err != nil {
		slog.Warn("some providers failed to initialize", "error", err)
	}
	if manager.ProviderCount() == 0 {
		slog.Warn("no providers configured")
	}

	models, err := catalog.New(cfg.Catalog, logger.Slog())
	if err != nil {
		return cli.NewConfigError(cfg.Catalog.ModelsFile, err)
	}
	manager.SetModelIndex(models)

	if cfg.Catalog.Watch {
		go func() {
			if err := models.Watch(ctx, cfg.Catalog.Debounce); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("model catalog watcher stopped", "error", err)
			}
		}()
	}

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	var auditRecorder handlers.AuditRecorder
	if cfg.Audit.Enabled {
		store, err := storage.New(cfg.Audit)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open audit storage: %w", err))
		}
		defer store.Close()

		rec := recorder.New(store, cfg.Audit.Recorder)
		defer rec.Close()
		auditRecorder = rec

		pruner := retention.NewPruner(store, cfg.Audit.Retention)
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start audit retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("audit retention scheduler started", "next_pruning", next)
			}
		}
	}

	srv := server.NewServer(&cfg.Proxy, server.Deps{
		Providers:     manager,
		Catalog:       models,
		Assembler:     conversation.NewAssembler(cfg.Relay),
		Attachments:   attachments.NewResolver(cfg.Attachments),
		Metrics:       collector,
		MetricsConfig: cfg.Telemetry.Metrics,
		Audit:         auditRecorder,
	})

	printBanner(out, cfg, manager.ProviderCount(), len(models.Models()))

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config, providers, models int) {
	addr := cfg.Proxy.ListenAddress

	fmt.Fprintf(w, "Chatrelay v%s\n", Version)
	if path := configPath(); path != "" {
		fmt.Fprintf(w, "✓ Configuration loaded from %s\n", path)
	} else {
		fmt.Fprintln(w, "✓ Using default configuration")
	}
	fmt.Fprintf(w, "✓ Providers initialized (%d providers)\n", providers)
	fmt.Fprintf(w, "✓ Model catalog loaded (%d models)\n", models)
	if cfg.Audit.Enabled {
		fmt.Fprintf(w, "✓ Audit log enabled (%s backend)\n", cfg.Audit.Backend)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "✓ Listening on %s\n", addr)
	fmt.Fprintf(w, "✓ Chat endpoint: http://%s/api/chat\n", addr)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}

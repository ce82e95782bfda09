package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/siftarr/siftarr/internal/config"
	internalhttp "github.com/siftarr/siftarr/internal/http"
	"github.com/siftarr/siftarr/internal/http/handlers"
	"github.com/siftarr/siftarr/internal/httpclient"
	"github.com/siftarr/siftarr/internal/observability"
	"github.com/siftarr/siftarr/internal/origin"
	"github.com/siftarr/siftarr/internal/probe"
	"github.com/siftarr/siftarr/internal/recovery"
	"github.com/siftarr/siftarr/internal/service"
	"github.com/siftarr/siftarr/internal/store"
	"github.com/siftarr/siftarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the siftarr server",
	Long: `Start the siftarr HTTP server and API.

The server provides:
- Origin racing and selection at /api/race
- Ad-filtered playlist proxying at /proxy/playlist
- Playback fault recovery sessions under /api/recovery
- Health check endpoint and OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "siftarr.db", "Database file path")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.path", serveCmd.Flags().Lookup("database"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	st, err := store.Open(cfg.Database, observability.WithComponent(logger, "store"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	client := httpclient.New(httpclient.FromAppConfig(cfg.HTTP, observability.WithComponent(logger, "httpclient")))

	registry, err := origin.NewRegistry(cfg.Origins, st, observability.WithComponent(logger, "origin"))
	if err != nil {
		return fmt.Errorf("building origin registry: %w", err)
	}

	patterns, err := service.NewPatternService(cfg.Filter.Patterns, st, observability.WithComponent(logger, "patterns"))
	if err != nil {
		return fmt.Errorf("loading ad patterns: %w", err)
	}

	prefs, err := service.NewPreferenceService(st, observability.WithComponent(logger, "preferences"))
	if err != nil {
		return fmt.Errorf("loading preferences: %w", err)
	}

	adapter := origin.NewAdapter(client)
	probeLogger := observability.WithComponent(logger, "probe")
	details := service.NewDetailService(registry, adapter, prefs, observability.WithComponent(logger, "detail"))

	prober := probe.NewProber(adapter, client, cfg.Probe.StepTimeout, probeLogger)
	coordinator := probe.NewCoordinator(prober, cfg.Probe.RaceDeadline, probeLogger)
	cache := probe.NewResultCache(cfg.Probe.CacheTTL, cfg.Probe.CacheMaxEntries)

	races := service.NewRaceService(registry, coordinator, cache, cfg.Probe.SwitchThreshold, observability.WithComponent(logger, "race"))
	manifests := service.NewManifestService(client, registry, patterns, observability.WithComponent(logger, "manifest"))
	sessions := recovery.NewManager(cfg.Recovery.BackoffBase, cfg.Recovery.MaxRetries, observability.WithComponent(logger, "recovery"))

	refresher := service.NewRefresher(races, cfg.Refresh.Cron, cfg.Refresh.Titles, observability.WithComponent(logger, "refresh"))
	if cfg.Refresh.Enabled {
		if err := refresher.Start(); err != nil {
			return fmt.Errorf("starting refresh scheduler: %w", err)
		}
		defer refresher.Stop()
	}

	server := internalhttp.NewServer(internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     internalhttp.DefaultServerConfig().IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, observability.WithComponent(logger, "http"), version.Version)

	api := server.API()
	handlers.NewHealthHandler(version.Version, client, st).Register(api)
	handlers.NewRaceHandler(races).Register(api)
	handlers.NewOriginHandler(registry).Register(api)
	handlers.NewPatternHandler(patterns).Register(api)
	handlers.NewRecoveryHandler(sessions).Register(api)
	handlers.NewPreferenceHandler(prefs, details).Register(api)
	handlers.NewPlaylistHandler(manifests).Register(server.Router())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("siftarr starting",
		slog.String("version", version.Version),
		slog.Int("origins", len(registry.All())),
		slog.Int("patterns", len(patterns.List())),
	)

	return server.ListenAndServe(ctx)
}

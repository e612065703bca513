package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/radi8/getajob/internal/api"
	"github.com/radi8/getajob/internal/config"
	"github.com/radi8/getajob/internal/engine"
	"github.com/radi8/getajob/internal/host"
	"github.com/radi8/getajob/internal/metrics"
	"github.com/radi8/getajob/internal/storage"
	"github.com/radi8/getajob/internal/storage/bolt"
	"github.com/radi8/getajob/internal/storage/redis"
	"github.com/radi8/getajob/internal/summary"
	"github.com/radi8/getajob/internal/systemd"
	"github.com/radi8/getajob/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the getajob server",
	Long:  `Start the playtime tracking engine with its command API and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration (the kick section stays live-reloadable)
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cfgManager.Current()

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting getajob")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage. Without a working store the engine must not
	// start: no ticker, no event handlers.
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().Str("type", cfg.Storage.Type).Msg("Storage initialized")

	// Initialize the host bridge
	gateway, err := host.NewBridge(host.BridgeConfig{
		BaseURL: cfg.Host.BaseURL,
		Timeout: parseDuration(cfg.Host.Timeout, 5*time.Second),
		Retries: cfg.Host.Retries,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize host bridge: %w", err)
	}

	logger.Info().Str("base_url", cfg.Host.BaseURL).Msg("Host bridge initialized")

	// Host sync context: a single goroutine drains all host-mutating
	// actions in order.
	dispatcher := host.NewDispatcher(logger)
	syncCtx, cancelSync := context.WithCancel(context.Background())
	defer cancelSync()
	go dispatcher.Run(syncCtx)

	// Initialize the session tracker and engine
	sessionTracker := tracker.New(cfg.Tracking.MovementTolerance, logger)

	eng := engine.New(
		engine.Config{
			TickPeriod:   parseDuration(cfg.Tracking.TickPeriod, time.Minute),
			InitialDelay: parseDuration(cfg.Tracking.InitialDelay, 0),
		},
		cfgManager,
		gateway,
		sessionTracker,
		store.Sessions(),
		dispatcher,
		logger,
	)
	eng.Start()

	logger.Info().Msg("Engine started")

	// Initialize the command/event API
	summarizer := summary.New(store.Sessions(), sessionTracker, gateway, logger)
	handler := api.NewHandler(sessionTracker, summarizer, eng, logger)

	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(apiAddr, handler, logger)

	if sdListeners.Activated && sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}

	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	logger.Info().Str("addr", apiAddr).Msg("API server started")

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}

	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().Str("addr", metricsAddr).Msg("Metrics server started")

	logger.Info().Msg("getajob startup complete")

	// Notify systemd that we're ready to serve requests
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Stop intake first, then flush sessions before the store closes.
	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	eng.Stop(shutdownCtx)

	cancelSync()

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("getajob stopped")

	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "bolt", "":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

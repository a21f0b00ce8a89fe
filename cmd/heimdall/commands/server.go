package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nulltoken/heimdall2/config"
	"github.com/nulltoken/heimdall2/convert"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/intake"
	"github.com/nulltoken/heimdall2/logger"
	"github.com/nulltoken/heimdall2/server"
	"github.com/nulltoken/heimdall2/store"
	"github.com/nulltoken/heimdall2/version"
)

// ServerCmd starts the Heimdall ingestion server
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the Heimdall ingestion server",
	Long: `Launch the Heimdall server. Reports arrive over multipart upload,
WebSocket messages, or watched drop directories; each one runs through
format detection and conversion, and connected clients see new
evaluations and selection changes live.`,
	RunE: runServer,
}

var (
	serverPort      int
	serverWatchDirs []string
)

func init() {
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Listen port (overrides config)")
	ServerCmd.Flags().StringSliceVar(&serverWatchDirs, "watch", nil, "Additional directories to watch for dropped reports")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Get verbosity flag - default to 1 (Info) for server
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	port := serverPort
	if port == 0 {
		port = config.GetServerPort()
	}

	if len(serverWatchDirs) > 0 {
		cfg.Intake.WatchDirs = append(cfg.Intake.WatchDirs, serverWatchDirs...)
	}

	// Install the process-wide converter registry. Converters linked into
	// this binary register themselves against it via convert.Register.
	if convert.Default() == nil {
		convert.SetDefault(convert.NewRegistry(version.Effective()))
	}

	srv, err := server.NewServer(cfg, store.NewStore(), store.NewSelection(), convert.Default(), verbosity)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	server.SetDefaultServer(srv)

	printStartupBanner(verbosity, cfg, port)

	// Pick up live edits to the user config file
	if userConfig := config.UserConfigPath(); userConfig != "" {
		if _, statErr := os.Stat(userConfig); statErr == nil {
			watcher, watchErr := config.NewConfigWatcher(userConfig)
			if watchErr != nil {
				logger.Warnw("Config watcher unavailable", "error", watchErr.Error())
			} else {
				watcher.OnReload(func(newCfg *config.Config) error {
					logger.Infow("Configuration reloaded", "path", userConfig)
					return nil
				})
				watcher.Start()
				config.SetGlobalWatcher(watcher)
				defer watcher.Stop()
			}
		}
	}

	// Watch drop directories for incoming reports
	if len(cfg.Intake.WatchDirs) > 0 {
		dirWatcher, err := intake.NewDirWatcher(
			srv.Orchestrator(),
			cfg.Intake.WatchDirs,
			cfg.Intake.WatchExtensions,
			cfg.Intake.MaxFiresPerMinute,
			logger.Logger,
		)
		if err != nil {
			return errors.Wrap(err, "failed to watch intake directories")
		}
		if err := dirWatcher.Start(); err != nil {
			return errors.Wrap(err, "failed to start intake watcher")
		}
		defer dirWatcher.Stop()
	}

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(port)
	}()

	// Wait for shutdown signal (Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		// Server failed to start or stopped unexpectedly
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		// Wait for either shutdown completion or second Ctrl+C
		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}

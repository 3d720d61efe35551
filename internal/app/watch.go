package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/observability"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/view"
	"github.com/blackwell-systems/permscope/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchSchedule    string
	watchMetricsAddr string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep snapshots current as the inventory changes",
		Long: `Watch the inventory dump and store a new snapshot whenever it changes.

A refresh runs on startup, whenever the inventory file is written and on
the cron schedule from the config. Unchanged inventories keep the current
snapshot. Every new snapshot is summarized in the log once its permission
catalog is ready, and Prometheus metrics are served on --metrics-addr.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  permscope watch --inventory dump.yaml

  # Run as background daemon, rescanning hourly
  permscope watch --daemon --schedule "@every 1h"

  # Stop running daemon
  permscope watch --stop

  # Use custom PID and log files
  permscope watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.config/permscope/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.config/permscope/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule for periodic rescans (default: schedule from config)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "metrics listen address, \"off\" to disable (default: metrics_addr from config)")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Get default paths if not specified
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchSchedule != "" {
		cfg.Schedule = watchSchedule
	}
	if watchMetricsAddr == "off" {
		cfg.MetricsAddr = ""
	} else if watchMetricsAddr != "" {
		cfg.MetricsAddr = watchMetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch {
	case watchStop:
		return stopWatchDaemon()
	case watchDaemon:
		return startWatchDaemon()
	case watchDaemonChild:
		// Output is redirected to the log file.
		return serveWatch(cmd.Context(), watchPIDFile)
	}

	fmt.Printf("Watching %s (press Ctrl+C to stop)...\n", cfg.InventoryPath)
	if cfg.MetricsAddr != "" {
		fmt.Printf("Metrics on %s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()

	if err := serveWatch(cmd.Context(), ""); err != nil {
		return err
	}
	fmt.Println("\nWatch stopped")
	return nil
}

func stopWatchDaemon() error {
	// Check if daemon is running
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon")
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")

	return nil
}

func startWatchDaemon() error {
	spinner := output.NewSpinner("Starting daemon")
	spinner.Start()
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonArgs()); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Printf("\nInventory watch daemon started\n")
	fmt.Printf("  PID file: %s\n", watchPIDFile)
	fmt.Printf("  Log file: %s\n", watchLogFile)
	fmt.Printf("\nTo stop: permscope watch --stop\n")

	return nil
}

// daemonArgs passes the resolved configuration to the daemon child so it
// does not depend on the parent's working directory or environment.
func daemonArgs() []string {
	args := []string{
		"--db", cfg.DBPath,
		"--inventory", cfg.InventoryPath,
		"--log-level", cfg.LogLevel,
		"--log-format", cfg.LogFormat,
		"--pid-file", watchPIDFile,
		"--schedule", cfg.Schedule,
	}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if cfg.DefinitionsPath != "" {
		args = append(args, "--definitions", cfg.DefinitionsPath)
	}
	if cfg.MetricsAddr == "" {
		args = append(args, "--metrics-addr", "off")
	} else {
		args = append(args, "--metrics-addr", cfg.MetricsAddr)
	}
	return args
}

// serveWatch runs the watcher, the metrics server and the snapshot logger
// until a signal arrives. A non-empty pidFile is removed on exit.
func serveWatch(ctx context.Context, pidFile string) error {
	e, err := openEngine(ctx, true)
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := watcher.New(e.apps, watcher.Options{
		Path:     cfg.InventoryPath,
		Schedule: cfg.Schedule,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return w.Run(gctx, pidFile)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return observability.NewServer(cfg.MetricsAddr, logger).Run(gctx)
		})
	}
	g.Go(func() error {
		logSummaries(gctx, view.OverviewView{
			Gate:   e.results(gctx),
			Active: apps.UserHandle(cfg.PrimaryUser),
		})
		return nil
	})

	return g.Wait()
}

// logSummaries logs the overview of every snapshot that becomes ready.
func logSummaries(ctx context.Context, v view.OverviewView) {
	var last apps.SnapshotID
	for st := range v.Run(ctx) {
		s, ok := st.Value()
		if !ok || s.SnapshotID == last {
			continue
		}
		last = s.SnapshotID
		logger.Info("snapshot ready",
			"snapshot", s.SnapshotID,
			"active_profile", s.ActiveProfile.Total(),
			"other_profiles", s.OtherProfiles.Total(),
			"sideloaded", s.Sideloaded,
			"installer_apps", s.InstallerApps.Total(),
			"overlay_apps", s.SystemAlertWindow.Total(),
			"no_internet", s.NoInternet.Total(),
		)
	}
}

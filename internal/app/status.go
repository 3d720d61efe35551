package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/store"
	"github.com/blackwell-systems/permscope/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest snapshot and watch daemon state",
	Long: `Display the state of the permscope database and watch daemon.

Shows:
  • Watch daemon running status and PID
  • Latest snapshot id, age and app count
  • Number of stored snapshots
  • Database and inventory locations`,
	Example: `  # Check status
  permscope status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	pidFile, err := getDefaultPIDFile()
	if err != nil {
		return fmt.Errorf("failed to get PID file path: %w", err)
	}

	daemonRunning, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Println("permscope is not set up. Run 'permscope scan --inventory <file>' to get started.")
		return nil
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	mgr := newManager(st)

	const label = "%-14s"

	fmt.Println()

	if daemonRunning {
		fmt.Printf(label+"running (since %s, PID %d)\n", "Watching:", daemonSince(pidFile), daemonPID(pidFile))
	} else {
		fmt.Printf(label+"stopped  (run 'permscope watch --daemon')\n", "Watching:")
	}

	list, err := mgr.List()
	switch {
	case errors.Is(err, store.ErrNotInitialized) || (err == nil && len(list) == 0):
		fmt.Printf(label+"none (run 'permscope scan')\n", "Snapshot:")
	case err != nil:
		return fmt.Errorf("failed to list snapshots: %w", err)
	default:
		latest := list[0]
		fmt.Printf(label+"#%d · %s · %s\n", "Snapshot:", latest.ID, formatDuration(time.Since(latest.CreatedAt)), countNoun(latest.AppCount, "app"))
		fmt.Printf(label+"%d stored (retention %d)\n", "History:", len(list), cfg.Retention)
	}

	fmt.Printf(label+"%s\n", "Database:", cfg.DBPath)
	fmt.Printf(label+"%s\n", "Inventory:", cfg.InventoryPath)

	fmt.Println()
	return nil
}

// daemonPID returns the PID recorded in pidFile, or 0.
func daemonPID(pidFile string) int {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid
}

// daemonSince returns a human-readable age of the PID file (proxy for daemon start time).
func daemonSince(pidFile string) string {
	fi, err := os.Stat(pidFile)
	if err != nil {
		return "unknown"
	}
	return formatDuration(time.Since(fi.ModTime()))
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	if d < 5*time.Second {
		return "just now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%d seconds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

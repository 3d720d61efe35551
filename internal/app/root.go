package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/config"
	"github.com/blackwell-systems/permscope/internal/observability"
)

var (
	dbPath          string
	configPath      string
	inventoryPath   string
	definitionsPath string
	logLevel        string
	logFormat       string

	// cfg and logger are set by the root command before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger

	// RootCmd is the root command for permscope
	RootCmd = &cobra.Command{
		Use:   "permscope",
		Short: "Inspect which apps hold which permissions",
		Long: `permscope reads an installed-application inventory, derives a permission
catalog from it and shows, per app and per permission, what is requested,
declared and granted.

Every scan is stored as a numbered snapshot. The app and permission views
only show data once the catalog matches the latest snapshot, so a view never
mixes two inventories.

Quick Start:
  1. permscope scan --inventory dump.yaml
  2. permscope overview
  3. permscope apps --filter sideloaded
  4. permscope perms --expand all

Examples:
  # Keep the snapshot fresh while the inventory file changes
  permscope watch --inventory dump.yaml

  # Show one app, including twins and installers
  permscope app org.example.camera@10

  # Show who requests a permission
  permscope perm android.permission.CAMERA --filter granted`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("permscope: app permission inspector")
				fmt.Println()
				fmt.Println("Run 'permscope scan --inventory <file>' to get started.")
				fmt.Println("Run 'permscope --help' for the full reference.")
			} else {
				fmt.Println("permscope: app permission inspector")
				fmt.Println()
				fmt.Println("Tip: Run 'permscope overview' for a device summary.")
				fmt.Println("     Run 'permscope --help' for all commands.")
			}
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/permscope/permscope.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/permscope/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&inventoryPath, "inventory", "", "inventory dump to scan (YAML or JSON)")
	RootCmd.PersistentFlags().StringVar(&definitionsPath, "definitions", "", "extra permission definitions (YAML)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	// Register subcommands
	RootCmd.AddCommand(scanCmd)
	RootCmd.AddCommand(appsCmd)
	RootCmd.AddCommand(permsCmd)
	RootCmd.AddCommand(appCmd)
	RootCmd.AddCommand(permCmd)
	RootCmd.AddCommand(overviewCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(settingsCmd)
	RootCmd.AddCommand(statusCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if dbPath != "" {
		c.DBPath = dbPath
	}
	if inventoryPath != "" {
		c.InventoryPath = inventoryPath
	}
	if definitionsPath != "" {
		c.DefinitionsPath = definitionsPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cfg = c
	logger = observability.NewLogger(c.LogLevel, c.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/scanner"
	"github.com/blackwell-systems/permscope/internal/watcher"
)

var (
	scanQuiet bool
	scanList  bool
	scanPrune int

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Read the inventory dump and store a snapshot",
		Long: `Read the installed-application inventory and store it as a new snapshot.

The inventory is a YAML or JSON dump listing every package per user handle
with its requested and declared permissions. A snapshot is only stored when
the content differs from the latest one; an unchanged inventory keeps the
existing snapshot id.

The scan command should be run:
  • After exporting a fresh inventory dump
  • After adding permission definitions with --definitions
  • Periodically, unless 'permscope watch' is running`,
		Example: `  # Scan the configured inventory
  permscope scan

  # Scan a specific dump with extra permission definitions
  permscope scan --inventory dump.yaml --definitions vendor.yaml

  # List stored snapshots
  permscope scan --list

  # Keep only the five newest snapshots
  permscope scan --prune 5`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanQuiet, "quiet", false, "suppress output")
	scanCmd.Flags().BoolVar(&scanList, "list", false, "list stored snapshots instead of scanning")
	scanCmd.Flags().IntVar(&scanPrune, "prune", 0, "keep only the N newest snapshots instead of scanning")
}

func runScan(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	mgr := newManager(st)

	if scanList {
		list, err := mgr.List()
		if err != nil {
			return fmt.Errorf("failed to list snapshots: %w", err)
		}
		fmt.Print(output.RenderSnapshotTable(list))
		return nil
	}

	if cmd.Flags().Changed("prune") {
		if scanPrune < 1 {
			return fmt.Errorf("--prune must be at least 1")
		}
		removed, err := mgr.Prune(scanPrune)
		if err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		if !scanQuiet {
			fmt.Printf("Removed %s\n", countNoun(removed, "snapshot"))
		}
		return nil
	}

	var spinner *output.Spinner
	if !scanQuiet {
		spinner = output.NewSpinner(fmt.Sprintf("Reading %s", cfg.InventoryPath))
		spinner.Start()
	}

	pkgs, known, err := scanner.LoadAll(cmd.Context(), scanner.New(cfg.InventoryPath, logger), cfg.DefinitionsPath)
	if err != nil {
		if spinner != nil {
			spinner.Stop()
		}
		return fmt.Errorf("failed to scan inventory: %w", err)
	}

	if spinner != nil {
		spinner.UpdateMessage("Storing snapshot")
	}

	id, reused, err := mgr.Allocate(cmd.Context(), pkgs)
	if err != nil {
		if spinner != nil {
			spinner.Stop()
		}
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if scanQuiet {
		return nil
	}

	catalog := perms.BuildCatalog(&apps.Snapshot{ID: id, Pkgs: pkgs}, known)

	spinner.Stop()
	if reused {
		fmt.Printf("✓ Snapshot #%d up to date (%s, 0 changes)\n", id, countNoun(len(pkgs), "app"))
	} else {
		fmt.Printf("✓ Stored snapshot #%d\n", id)
	}

	fmt.Println()
	fmt.Printf("Scan complete: %s, %s in catalog\n", countNoun(len(pkgs), "app"), countNoun(len(catalog.Permissions), "permission"))

	if pidFile, err := getDefaultPIDFile(); err == nil {
		if running, err := watcher.IsDaemonRunning(pidFile); err == nil && !running {
			fmt.Println("\nTip: 'permscope watch --daemon' keeps snapshots current as the dump changes.")
		}
	}
	fmt.Println("Next: 'permscope overview' or 'permscope apps'.")
	return nil
}

// countNoun formats n with the noun, pluralized with a trailing s.
func countNoun(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

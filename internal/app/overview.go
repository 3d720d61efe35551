package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/view"
)

var (
	overviewUser int

	overviewCmd = &cobra.Command{
		Use:   "overview",
		Short: "Summarize apps by profile, install source and risky grants",
		Long: `Summarize the latest snapshot: apps in the active profile versus other
profiles, sideloaded apps, apps allowed to install packages or draw over
other apps, apps without internet access, multi-profile clones and apps
sharing an OS identity.

Counts are split into user and system apps.`,
		Example: `  # Overview for the primary profile
  permscope overview

  # Treat the work profile as active
  permscope overview --user 10`,
		RunE: runOverview,
	}
)

func init() {
	overviewCmd.Flags().IntVar(&overviewUser, "user", 0, "active user handle (default: primary_user from config)")
}

func runOverview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	active := apps.UserHandle(cfg.PrimaryUser)
	if cmd.Flags().Changed("user") {
		if overviewUser < 0 {
			return fmt.Errorf("--user must not be negative")
		}
		active = apps.UserHandle(overviewUser)
	}

	e, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	r, err := e.await(ctx)
	if err != nil {
		return err
	}

	summary, _ := view.ComputeOverview(r, active).Value()
	fmt.Print(output.RenderOverview(summary))
	return nil
}

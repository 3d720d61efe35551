package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/view"
)

var (
	appFilters []string
	appSave    bool

	permFilters []string
	permSave    bool

	appCmd = &cobra.Command{
		Use:   "app <package[@user]>",
		Short: "Show one app's permissions, twins and installers",
		Long: `Show the details of one app in the latest snapshot: version, install
source, internet access, the same package in other profiles, apps sharing
its OS identity and every requested permission with its grant status.

The user handle defaults to the primary user from the config.`,
		Example: `  # Show an app in the primary profile
  permscope app org.example.camera

  # Show the work-profile copy, granted runtime permissions only
  permscope app org.example.camera@10 --filter granted,runtime`,
		Args: cobra.ExactArgs(1),
		RunE: runApp,
	}

	permCmd = &cobra.Command{
		Use:   "perm <permission>",
		Short: "Show which apps declare and request a permission",
		Long: `Show the details of one permission in the latest catalog: its kind,
protection, the apps declaring it and every requesting app with its grant
status.`,
		Example: `  # Who holds the camera?
  permscope perm android.permission.CAMERA --filter granted`,
		Args: cobra.ExactArgs(1),
		RunE: runPerm,
	}
)

func init() {
	appCmd.Flags().StringSliceVar(&appFilters, "filter", nil, "permission filters (comma separated)")
	appCmd.Flags().BoolVar(&appSave, "save", false, "store --filter as the default")

	permCmd.Flags().StringSliceVar(&permFilters, "filter", nil, "requester filters (comma separated)")
	permCmd.Flags().BoolVar(&permSave, "save", false, "store --filter as the default")
}

// parseAppArg parses "pkg" or "pkg@user", defaulting the user handle to the
// configured primary user.
func parseAppArg(arg string) (apps.PkgID, error) {
	id, err := apps.ParsePkgID(arg)
	if err != nil {
		return id, err
	}
	if !strings.Contains(arg, "@") {
		id.User = apps.UserHandle(cfg.PrimaryUser)
	}
	return id, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseAppArg(args[0])
	if err != nil {
		return err
	}

	e, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	filters, err := override(cmd, "filter", e.settings.AppDetailsFilters, appSave, func() (filter.Set[filter.EdgeKey], error) {
		return filter.ParseKeys(filter.EdgeFilters, appFilters)
	})
	if err != nil {
		return err
	}

	res, err := e.resolution(ctx)
	if err != nil {
		return err
	}

	data, ok := view.ComputeAppDetails(res, id, filters).Value()
	if !ok {
		return fmt.Errorf("app %s not found in snapshot #%d", id, res.ID)
	}
	fmt.Print(output.RenderAppDetails(data))
	return nil
}

func runPerm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	filters, err := override(cmd, "filter", e.settings.PermDetailsFilters, permSave, func() (filter.Set[filter.RequesterKey], error) {
		return filter.ParseKeys(filter.RequesterFilters, permFilters)
	})
	if err != nil {
		return err
	}

	res, err := e.resolution(ctx)
	if err != nil {
		return err
	}

	data, ok := view.ComputePermissionDetails(res, args[0], filters).Value()
	if !ok {
		return fmt.Errorf("permission %s not found in snapshot #%d", args[0], res.ID)
	}
	fmt.Print(output.RenderPermissionDetails(data))
	return nil
}

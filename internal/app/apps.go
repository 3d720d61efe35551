package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/sorting"
	"github.com/blackwell-systems/permscope/internal/view"
)

var (
	appsFilters []string
	appsSort    string
	appsSearch  string
	appsSave    bool

	appsCmd = &cobra.Command{
		Use:   "apps",
		Short: "List apps with their granted permission counts",
		Long: `List the apps of the latest snapshot with how many of their requested
permissions are granted.

Filters combine with AND. Without --filter, --sort or --search the saved
settings are used; --save stores the given values as the new settings.

Filters: ` + strings.Join(toNames(filter.AppFilters.Names()), ", ") + `
Sort keys: ` + strings.Join(toNames(sorting.Apps.Keys()), ", "),
		Example: `  # List sideloaded user apps
  permscope apps --filter sideloaded,user

  # Sort by granted ratio and remember it
  permscope apps --sort granted-ratio --save

  # Search by label or package name
  permscope apps --search camera`,
		RunE: runApps,
	}
)

func init() {
	appsCmd.Flags().StringSliceVar(&appsFilters, "filter", nil, "filters to apply (comma separated)")
	appsCmd.Flags().StringVar(&appsSort, "sort", "", "sort key")
	appsCmd.Flags().StringVar(&appsSearch, "search", "", "case-insensitive search term")
	appsCmd.Flags().BoolVar(&appsSave, "save", false, "store --filter and --sort as the default")
}

func runApps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	filters, err := override(cmd, "filter", e.settings.AppsFilters, appsSave, func() (filter.Set[filter.AppKey], error) {
		return filter.ParseKeys(filter.AppFilters, appsFilters)
	})
	if err != nil {
		return err
	}
	sortKey, err := override(cmd, "sort", e.settings.AppsSort, appsSave, func() (sorting.AppKey, error) {
		return sorting.Apps.Parse(appsSort)
	})
	if err != nil {
		return err
	}

	res, err := e.resolution(ctx)
	if err != nil {
		return err
	}

	data, _ := view.ComputeApps(res, filters, sortKey, searchTerm(cmd, appsSearch)).Value()
	fmt.Print(output.RenderAppTable(data.Items))
	if !filters.Empty() {
		fmt.Printf("Filters: %s\n", filters)
	}
	return nil
}

// toNames converts typed keys for help text.
func toNames[K ~string](keys []K) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

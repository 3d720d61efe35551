package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/output"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/sorting"
	"github.com/blackwell-systems/permscope/internal/view"
)

var (
	permsFilters     []string
	permsSort        string
	permsSearch      string
	permsExpand      []string
	permsCollapseAll bool
	permsSave        bool

	permsCmd = &cobra.Command{
		Use:   "perms",
		Short: "List permissions grouped by category",
		Long: `List every permission of the latest catalog, grouped by category.

Collapsed groups show only their header with the member count. Use --expand
with group ids, or "all", to list members. Expansion, filters and sort are
read from the saved settings unless given; --save stores the given values.

Filters: ` + strings.Join(toNames(filter.PermFilters.Names()), ", ") + `
Sort keys: ` + strings.Join(toNames(sorting.Permissions.Keys()), ", ") + `
Groups: ` + strings.Join(toNames(perms.AllGroupIDs()), ", "),
		Example: `  # Show every group expanded
  permscope perms --expand all

  # Show granted runtime permissions in the location group
  permscope perms --filter runtime,granted --expand location

  # Collapse everything and remember it
  permscope perms --collapse-all --save`,
		RunE: runPerms,
	}
)

func init() {
	permsCmd.Flags().StringSliceVar(&permsFilters, "filter", nil, "filters to apply (comma separated)")
	permsCmd.Flags().StringVar(&permsSort, "sort", "", "sort key")
	permsCmd.Flags().StringVar(&permsSearch, "search", "", "case-insensitive search term")
	permsCmd.Flags().StringSliceVar(&permsExpand, "expand", nil, "groups to expand, or \"all\"")
	permsCmd.Flags().BoolVar(&permsCollapseAll, "collapse-all", false, "collapse every group")
	permsCmd.Flags().BoolVar(&permsSave, "save", false, "store --filter, --sort and expansion as the default")
}

func runPerms(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEngine(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	filters, err := override(cmd, "filter", e.settings.PermsFilters, permsSave, func() (filter.Set[filter.PermKey], error) {
		return filter.ParseKeys(filter.PermFilters, permsFilters)
	})
	if err != nil {
		return err
	}
	sortKey, err := override(cmd, "sort", e.settings.PermsSort, permsSave, func() (sorting.PermKey, error) {
		return sorting.Permissions.Parse(permsSort)
	})
	if err != nil {
		return err
	}

	exp, err := applyExpansion(e.settings.PermsExpanded.Get(), permsCollapseAll, permsExpand)
	if err != nil {
		return err
	}
	if permsSave && (permsCollapseAll || len(permsExpand) > 0) {
		if err := e.settings.PermsExpanded.Put(exp); err != nil {
			return fmt.Errorf("failed to save expansion: %w", err)
		}
	}

	res, err := e.resolution(ctx)
	if err != nil {
		return err
	}

	data, _ := view.ComputePermissions(res, filters, sortKey, searchTerm(cmd, permsSearch), exp).Value()
	fmt.Print(output.RenderPermissionListing(data.Listing))
	if !filters.Empty() {
		fmt.Printf("Filters: %s\n", filters)
	}
	return nil
}

// applyExpansion returns exp after collapsing (when collapse is set) and
// then expanding the named groups. "all" expands every group.
func applyExpansion(exp grouping.Expansion, collapse bool, names []string) (grouping.Expansion, error) {
	if collapse {
		exp = exp.CollapseAll()
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "all" {
			exp = exp.ExpandAll(perms.AllGroupIDs())
			continue
		}
		id := perms.GroupID(name)
		if _, ok := perms.LookupGroup(id); !ok {
			return exp, fmt.Errorf("unknown group %q", name)
		}
		if !exp.IsExpanded(id) {
			exp = exp.Toggle(id)
		}
	}
	return exp, nil
}

package view

import (
	"context"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
	"github.com/blackwell-systems/permscope/internal/search"
	"github.com/blackwell-systems/permscope/internal/sorting"
)

// PermissionsData is the Ready payload of the grouped permission list.
type PermissionsData struct {
	SnapshotID apps.SnapshotID
	Listing    grouping.Listing[*resolve.PermResolution]
	Filters    filter.Set[filter.PermKey]
	Sort       sorting.PermKey
	Expansion  grouping.Expansion
}

// GroupIDs returns the ids of the non-empty groups in the listing, the
// ids an "expand all" acts on.
func (d PermissionsData) GroupIDs() []perms.GroupID {
	var ids []perms.GroupID
	for _, h := range d.Listing.Headers() {
		ids = append(ids, h.Group.ID)
	}
	return ids
}

func permGroups(p *resolve.PermResolution) []perms.GroupID {
	return p.Permission.Base().Groups
}

// ComputePermissions filters, searches, sorts and groups the permissions
// of res.
func ComputePermissions(res *resolve.Resolution, filters filter.Set[filter.PermKey], sortKey sorting.PermKey, term *string, exp grouping.Expansion) State[PermissionsData] {
	if res == nil {
		return Loading[PermissionsData]()
	}

	items := filter.Apply(res.Permissions, filters, filter.PermFilters, nil)
	items = search.Filter(items, term,
		(*resolve.PermResolution).ID,
		func(p *resolve.PermResolution) string { return p.Permission.Base().Label },
	)
	items = sorting.Permissions.Sort(items, sortKey)

	return Ready(PermissionsData{
		SnapshotID: res.ID,
		Listing:    grouping.Linearize(items, permGroups, exp),
		Filters:    filters,
		Sort:       sortKey,
		Expansion:  exp,
	})
}

// PermissionsView is the reactive grouped permission list. Nil setting
// channels keep their initial values.
type PermissionsView struct {
	Gate      <-chan gate.Result
	Filters   <-chan filter.Set[filter.PermKey]
	Sort      <-chan sorting.PermKey
	Search    <-chan *string
	Expansion <-chan grouping.Expansion
}

// Run recomputes the listing on every input change until ctx is cancelled
// or the gate channel closes. The returned channel conflates.
func (v PermissionsView) Run(ctx context.Context) <-chan State[PermissionsData] {
	out := make(chan State[PermissionsData], 1)

	go func() {
		defer close(out)

		var (
			cache   resolver
			result  gate.Result
			filters filter.Set[filter.PermKey]
			sortKey = sorting.Permissions.Default
			term    *string
			exp     grouping.Expansion
		)
		gateCh, filterCh, sortCh, searchCh, expCh := v.Gate, v.Filters, v.Sort, v.Search, v.Expansion

		publish := func() {
			st := ComputePermissions(cache.get(result), filters, sortKey, term, exp)
			record("permissions", st)
			emit(out, st)
		}
		publish()

		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-gateCh:
				if !ok {
					return
				}
				result = r
			case f, ok := <-filterCh:
				if !ok {
					filterCh = nil
					continue
				}
				filters = f
			case k, ok := <-sortCh:
				if !ok {
					sortCh = nil
					continue
				}
				sortKey = k
			case s, ok := <-searchCh:
				if !ok {
					searchCh = nil
					continue
				}
				term = s
			case e, ok := <-expCh:
				if !ok {
					expCh = nil
					continue
				}
				exp = e
			}
			publish()
		}
	}()

	return out
}

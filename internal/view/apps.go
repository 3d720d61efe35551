package view

import (
	"context"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/resolve"
	"github.com/blackwell-systems/permscope/internal/search"
	"github.com/blackwell-systems/permscope/internal/sorting"
)

// AppsData is the Ready payload of the app list.
type AppsData struct {
	SnapshotID apps.SnapshotID
	Items      []*resolve.AppResolution
	Filters    filter.Set[filter.AppKey]
	Sort       sorting.AppKey
}

// Count is the number of listed apps.
func (d AppsData) Count() int { return len(d.Items) }

// ComputeApps filters, searches and sorts the apps of res.
func ComputeApps(res *resolve.Resolution, filters filter.Set[filter.AppKey], sortKey sorting.AppKey, term *string) State[AppsData] {
	if res == nil {
		return Loading[AppsData]()
	}

	items := filter.Apply(res.Apps, filters, filter.AppFilters, nil)
	items = search.Filter(items, term,
		func(a *resolve.AppResolution) string { return a.Pkg.ID.String() },
		func(a *resolve.AppResolution) string { return a.Pkg.Label },
	)
	items = sorting.Apps.Sort(items, sortKey)

	return Ready(AppsData{
		SnapshotID: res.ID,
		Items:      items,
		Filters:    filters,
		Sort:       sortKey,
	})
}

// AppsView is the reactive app list. Nil setting channels keep their
// initial values.
type AppsView struct {
	Gate    <-chan gate.Result
	Filters <-chan filter.Set[filter.AppKey]
	Sort    <-chan sorting.AppKey
	Search  <-chan *string
}

// Run recomputes the list on every input change until ctx is cancelled or
// the gate channel closes. The returned channel conflates.
func (v AppsView) Run(ctx context.Context) <-chan State[AppsData] {
	out := make(chan State[AppsData], 1)

	go func() {
		defer close(out)

		var (
			cache   resolver
			result  gate.Result
			filters filter.Set[filter.AppKey]
			sortKey = sorting.Apps.Default
			term    *string
		)
		gateCh, filterCh, sortCh, searchCh := v.Gate, v.Filters, v.Sort, v.Search

		publish := func() {
			st := ComputeApps(cache.get(result), filters, sortKey, term)
			record("apps", st)
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
			}
			publish()
		}
	}()

	return out
}

package view

import (
	"context"
	"slices"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
)

// maxShownFlags is how many protection flags are listed before the rest are
// folded into an overflow count.
const maxShownFlags = 3

// PkgRef names a related package. Label is empty when the package is not in
// the snapshot.
type PkgRef struct {
	ID    apps.PkgID
	Label string
}

// InstallerRef is one installer package with its role.
type InstallerRef struct {
	Role string // installing, initiating, originating, update-owner
	PkgRef
}

// AppDetailsData is the Ready payload of one app's details.
type AppDetailsData struct {
	SnapshotID apps.SnapshotID
	App        *resolve.AppResolution
	Edges      []resolve.Edge
	Filters    filter.Set[filter.EdgeKey]
	Twins      []PkgRef
	Siblings   []PkgRef
	Installers []InstallerRef
}

// ComputeAppDetails builds the details of app id. The state is Loading
// while the app is absent from res.
func ComputeAppDetails(res *resolve.Resolution, id apps.PkgID, filters filter.Set[filter.EdgeKey]) State[AppDetailsData] {
	if res == nil {
		return Loading[AppDetailsData]()
	}
	ar, ok := res.App(id)
	if !ok {
		return Loading[AppDetailsData]()
	}

	ref := func(id apps.PkgID) PkgRef {
		r := PkgRef{ID: id}
		if other, ok := res.App(id); ok {
			r.Label = other.Pkg.Label
		}
		return r
	}

	data := AppDetailsData{
		SnapshotID: res.ID,
		App:        ar,
		Edges:      filter.Apply(ar.Edges, filters, filter.EdgeFilters, filter.EdgeBypass),
		Filters:    filters,
	}
	for _, t := range ar.Pkg.Twins {
		data.Twins = append(data.Twins, ref(t))
	}
	for _, s := range ar.Pkg.Siblings {
		data.Siblings = append(data.Siblings, ref(s))
	}
	if inst := ar.Pkg.Installer; inst != nil {
		for _, role := range []struct {
			name string
			id   *apps.PkgID
		}{
			{"installing", inst.Installing},
			{"initiating", inst.Initiating},
			{"originating", inst.Originating},
			{"update-owner", inst.UpdateOwner},
		} {
			if role.id != nil {
				data.Installers = append(data.Installers, InstallerRef{Role: role.name, PkgRef: ref(*role.id)})
			}
		}
	}

	return Ready(data)
}

// AppDetailsView is the reactive details view of one app.
type AppDetailsView struct {
	ID      apps.PkgID
	Gate    <-chan gate.Result
	Filters <-chan filter.Set[filter.EdgeKey]
}

// Run recomputes the details on every input change until ctx is cancelled
// or the gate channel closes.
func (v AppDetailsView) Run(ctx context.Context) <-chan State[AppDetailsData] {
	return runDetails(ctx, "app_details", v.Gate, v.Filters, func(res *resolve.Resolution, f filter.Set[filter.EdgeKey]) State[AppDetailsData] {
		return ComputeAppDetails(res, v.ID, f)
	})
}

// PermissionDetailsData is the Ready payload of one permission's details.
type PermissionDetailsData struct {
	SnapshotID apps.SnapshotID
	Permission *resolve.PermResolution
	Variant    perms.Variant
	Tags       []perms.Tag

	ProtectionType  string
	ProtectionFlags []string // at most three
	MoreFlags       int      // flags not listed

	Declaring  []*apps.Pkg
	Requesting []resolve.Requester
	Filters    filter.Set[filter.RequesterKey]

	// Counts over the filtered requesters.
	GrantedUser   int
	TotalUser     int
	GrantedSystem int
	TotalSystem   int
}

// ComputePermissionDetails builds the details of permission id. The state
// is Loading while the permission is absent from res.
func ComputePermissionDetails(res *resolve.Resolution, id perms.ID, filters filter.Set[filter.RequesterKey]) State[PermissionDetailsData] {
	if res == nil {
		return Loading[PermissionDetailsData]()
	}
	pr, ok := res.Permission(id)
	if !ok {
		return Loading[PermissionDetailsData]()
	}

	data := PermissionDetailsData{
		SnapshotID: res.ID,
		Permission: pr,
		Variant:    perms.VariantOf(pr.Permission),
		Tags:       pr.Permission.Base().Tags.List(),
		Declaring:  pr.Declaring,
		Requesting: filter.Apply(pr.Requesting, filters, filter.RequesterFilters, filter.RequesterBypass),
		Filters:    filters,
	}

	if decl, ok := pr.Permission.(*perms.Declared); ok {
		data.ProtectionType = decl.ProtectionType
		flags := slices.Sorted(slices.Values(decl.ProtectionFlags))
		if len(flags) > maxShownFlags {
			data.MoreFlags = len(flags) - maxShownFlags
			flags = flags[:maxShownFlags]
		}
		data.ProtectionFlags = flags
	}

	for _, r := range data.Requesting {
		granted := 0
		if r.Status.IsGranted() {
			granted = 1
		}
		if r.Pkg.IsSystemApp {
			data.TotalSystem++
			data.GrantedSystem += granted
		} else {
			data.TotalUser++
			data.GrantedUser += granted
		}
	}

	return Ready(data)
}

// PermissionDetailsView is the reactive details view of one permission.
type PermissionDetailsView struct {
	ID      perms.ID
	Gate    <-chan gate.Result
	Filters <-chan filter.Set[filter.RequesterKey]
}

// Run recomputes the details on every input change until ctx is cancelled
// or the gate channel closes.
func (v PermissionDetailsView) Run(ctx context.Context) <-chan State[PermissionDetailsData] {
	return runDetails(ctx, "permission_details", v.Gate, v.Filters, func(res *resolve.Resolution, f filter.Set[filter.RequesterKey]) State[PermissionDetailsData] {
		return ComputePermissionDetails(res, v.ID, f)
	})
}

// runDetails drives a view whose only setting is a filter set.
func runDetails[K ~string, T any](
	ctx context.Context,
	name string,
	gateCh <-chan gate.Result,
	filterCh <-chan filter.Set[K],
	compute func(*resolve.Resolution, filter.Set[K]) State[T],
) <-chan State[T] {
	out := make(chan State[T], 1)

	go func() {
		defer close(out)

		var (
			cache   resolver
			result  gate.Result
			filters filter.Set[K]
		)

		publish := func() {
			st := compute(cache.get(result), filters)
			record(name, st)
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
			}
			publish()
		}
	}()

	return out
}

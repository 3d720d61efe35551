// Package resolve performs the app-by-permission join for one consistent
// (snapshot, catalog) pair and produces the canonical per-app and
// per-permission resolutions every view is computed from.
package resolve

import (
	"sort"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/perms"
)

// maxTopGroups bounds AppResolution.TopGroups.
const maxTopGroups = 5

// Edge is one (application, permission) pair with its resolved definition.
type Edge struct {
	PermissionID  perms.ID
	Def           perms.Permission // nil when the catalog has no definition
	Status        apps.Status
	Flags         *int
	DeclaredByApp bool
}

// Resolved reports whether the edge has a catalog definition.
func (e Edge) Resolved() bool { return e.Def != nil }

// Rank is the variant rank of the definition; unresolved edges rank as
// Unknown.
func (e Edge) Rank() int { return perms.Rank(e.Def) }

// Tags returns the definition's tags, empty when unresolved.
func (e Edge) Tags() perms.Tags {
	if e.Def == nil {
		return 0
	}
	return e.Def.Base().Tags
}

// IsRuntime reports whether the permission is granted at runtime.
func (e Edge) IsRuntime() bool { return e.Tags().Has(perms.RuntimeGrant) }

// IsSpecialAccess reports whether the permission needs special access.
func (e Edge) IsSpecialAccess() bool { return e.Tags().Has(perms.SpecialAccess) }

// Label returns the definition label, falling back to the id.
func (e Edge) Label() string {
	if e.Def == nil {
		return e.PermissionID
	}
	return perms.DisplayLabel(e.Def)
}

// AppResolution is one application with its resolved permission edges.
type AppResolution struct {
	Pkg   *apps.Pkg
	Edges []Edge

	Granted       int // resolved edges in a granted status
	Total         int // resolved edges
	DeclaredCount int

	// TopGroups holds up to five distinct groups of the app's resolved
	// permissions, in edge order.
	TopGroups []perms.GroupID
}

// Requester is an app requesting a permission, with its grant status.
type Requester struct {
	Pkg    *apps.Pkg
	Status apps.Status
}

// PermResolution is one permission with the apps that use or declare it.
type PermResolution struct {
	Permission perms.Permission
	Requesting []Requester
	Declaring  []*apps.Pkg

	GrantedUser   int
	TotalUser     int
	GrantedSystem int
	TotalSystem   int
}

// ID returns the permission id.
func (p *PermResolution) ID() perms.ID { return p.Permission.Base().ID }

// RequestingCount is the number of requesting apps.
func (p *PermResolution) RequestingCount() int { return p.TotalUser + p.TotalSystem }

// GrantedCount is the number of requesting apps holding a granted status.
func (p *PermResolution) GrantedCount() int { return p.GrantedUser + p.GrantedSystem }

// Resolution is the joined view of one snapshot.
type Resolution struct {
	ID          apps.SnapshotID
	Apps        []*AppResolution  // snapshot order
	Permissions []*PermResolution // catalog order

	appIdx  map[apps.PkgID]*AppResolution
	permIdx map[perms.ID]*PermResolution
}

// App returns the resolution for the given app.
func (r *Resolution) App(id apps.PkgID) (*AppResolution, bool) {
	a, ok := r.appIdx[id]
	return a, ok
}

// Permission returns the resolution for the given permission.
func (r *Resolution) Permission(id perms.ID) (*PermResolution, bool) {
	p, ok := r.permIdx[id]
	return p, ok
}

// Resolve joins the snapshot and catalog of j. It is pure and deterministic.
func Resolve(j *gate.Joined) *Resolution {
	defs := j.Catalog.Index()

	res := &Resolution{
		ID:          j.Snapshot.ID,
		Apps:        make([]*AppResolution, 0, len(j.Snapshot.Pkgs)),
		Permissions: make([]*PermResolution, 0, len(j.Catalog.Permissions)),
		appIdx:      make(map[apps.PkgID]*AppResolution, len(j.Snapshot.Pkgs)),
		permIdx:     make(map[perms.ID]*PermResolution, len(j.Catalog.Permissions)),
	}

	for _, p := range j.Catalog.Permissions {
		pr := &PermResolution{Permission: p}
		res.Permissions = append(res.Permissions, pr)
		res.permIdx[p.Base().ID] = pr
	}

	for _, pkg := range j.Snapshot.Pkgs {
		ar := resolveApp(pkg, defs)
		res.Apps = append(res.Apps, ar)
		res.appIdx[pkg.ID] = ar

		for _, use := range pkg.Requested {
			pr, ok := res.permIdx[use.ID]
			if !ok {
				continue
			}
			pr.Requesting = append(pr.Requesting, Requester{Pkg: pkg, Status: use.Status})
			granted := 0
			if use.IsGranted() {
				granted = 1
			}
			if pkg.IsSystemApp {
				pr.TotalSystem++
				pr.GrantedSystem += granted
			} else {
				pr.TotalUser++
				pr.GrantedUser += granted
			}
		}
		for _, decl := range pkg.Declared {
			if pr, ok := res.permIdx[decl.Name]; ok {
				pr.Declaring = appendUnique(pr.Declaring, pkg)
			}
		}
	}

	for _, pr := range res.Permissions {
		SortRequesters(pr.Requesting)
		sort.SliceStable(pr.Declaring, func(a, b int) bool {
			return pr.Declaring[a].ID.Compare(pr.Declaring[b].ID) < 0
		})
	}

	return res
}

func resolveApp(pkg *apps.Pkg, defs map[perms.ID]perms.Permission) *AppResolution {
	declared := make(map[string]bool, len(pkg.Declared))
	for _, d := range pkg.Declared {
		declared[d.Name] = true
	}

	ar := &AppResolution{
		Pkg:           pkg,
		Edges:         make([]Edge, 0, len(pkg.Requested)),
		DeclaredCount: len(pkg.Declared),
	}

	for _, use := range pkg.Requested {
		e := Edge{
			PermissionID:  use.ID,
			Status:        use.Status,
			Flags:         use.Flags,
			DeclaredByApp: declared[use.ID],
		}
		if def, ok := defs[use.ID]; ok {
			e.Def = def
			ar.Total++
			if use.IsGranted() {
				ar.Granted++
			}
		}
		ar.Edges = append(ar.Edges, e)
	}

	SortEdges(ar.Edges)

	seen := make(map[perms.GroupID]bool)
	for _, e := range ar.Edges {
		if e.Def == nil {
			continue
		}
		for _, g := range e.Def.Base().Groups {
			if len(ar.TopGroups) == maxTopGroups {
				return ar
			}
			if !seen[g] {
				seen[g] = true
				ar.TopGroups = append(ar.TopGroups, g)
			}
		}
	}

	return ar
}

// SortEdges orders edges by variant rank descending, then status, then
// permission id.
func SortEdges(edges []Edge) {
	sort.SliceStable(edges, func(a, b int) bool {
		ea, eb := edges[a], edges[b]
		if ra, rb := ea.Rank(), eb.Rank(); ra != rb {
			return ra > rb
		}
		if ea.Status != eb.Status {
			return ea.Status < eb.Status
		}
		return ea.PermissionID < eb.PermissionID
	})
}

// SortRequesters orders requesters by status, user apps before system
// apps, display label, then package id.
func SortRequesters(rs []Requester) {
	sort.SliceStable(rs, func(a, b int) bool {
		ra, rb := rs[a], rs[b]
		if ra.Status != rb.Status {
			return ra.Status < rb.Status
		}
		if ra.Pkg.IsSystemApp != rb.Pkg.IsSystemApp {
			return !ra.Pkg.IsSystemApp
		}
		if la, lb := ra.Pkg.DisplayLabel(), rb.Pkg.DisplayLabel(); la != lb {
			return la < lb
		}
		return ra.Pkg.ID.Compare(rb.Pkg.ID) < 0
	})
}

func appendUnique(pkgs []*apps.Pkg, pkg *apps.Pkg) []*apps.Pkg {
	for _, p := range pkgs {
		if p == pkg {
			return pkgs
		}
	}
	return append(pkgs, pkg)
}

package resolve

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/perms"
)

const (
	p1 = "com.example.permission.P1"
	p2 = "android.permission.P2"
)

func pkg(name string, system bool, reqs ...apps.UsesPermission) *apps.Pkg {
	return &apps.Pkg{ID: apps.PkgID{PkgName: name}, IsSystemApp: system, Requested: reqs}
}

func use(id string, st apps.Status) apps.UsesPermission {
	return apps.UsesPermission{ID: id, Status: st}
}

func join(snap *apps.Snapshot, ps ...perms.Permission) *gate.Joined {
	return &gate.Joined{Snapshot: snap, Catalog: &perms.Catalog{BasedOn: snap.ID, Permissions: ps}}
}

func TestResolveDeclaredBeforeExtra(t *testing.T) {
	app := pkg("com.example.app", false, use(p2, apps.StatusDenied), use(p1, apps.StatusGranted))
	app.Declared = []apps.DeclaredPermission{{Name: p1, ProtectionType: "dangerous"}}

	declared := &perms.Declared{Base: perms.Base{ID: p1, Tags: perms.NewTags(perms.RuntimeGrant)}, ProtectionType: "dangerous"}
	extra := &perms.Extra{Base: perms.Base{ID: p2}}

	res := Resolve(join(&apps.Snapshot{ID: 1, Pkgs: []*apps.Pkg{app}}, declared, extra))

	ar, ok := res.App(app.ID)
	require.True(t, ok)
	assert.Equal(t, 2, ar.Total)
	assert.Equal(t, 1, ar.Granted)
	assert.Equal(t, 1, ar.DeclaredCount)
	require.Len(t, ar.Edges, 2)
	assert.Equal(t, p1, ar.Edges[0].PermissionID)
	assert.Equal(t, p2, ar.Edges[1].PermissionID)
	assert.True(t, ar.Edges[0].DeclaredByApp)
	assert.False(t, ar.Edges[1].DeclaredByApp)
	assert.True(t, ar.Edges[0].IsRuntime())
}

func TestResolveUnresolvedEdgeKeptButUncounted(t *testing.T) {
	app := pkg("a", false, use("ghost", apps.StatusGranted), use(p2, apps.StatusGranted))
	res := Resolve(join(&apps.Snapshot{ID: 1, Pkgs: []*apps.Pkg{app}}, &perms.Extra{Base: perms.Base{ID: p2}}))

	ar, _ := res.App(app.ID)
	require.Len(t, ar.Edges, 2)
	assert.Equal(t, 1, ar.Total)
	assert.Equal(t, 1, ar.Granted)

	last := ar.Edges[1]
	assert.Equal(t, "ghost", last.PermissionID, "unresolved edges rank as Unknown")
	assert.False(t, last.Resolved())
	assert.Equal(t, "ghost", last.Label())

	_, ok := res.Permission("ghost")
	assert.False(t, ok)
}

func TestResolvePermissionSide(t *testing.T) {
	userDenied := pkg("u.denied", false, use(p2, apps.StatusDenied))
	userGranted := pkg("u.granted", false, use(p2, apps.StatusGrantedInUse))
	sysGranted := pkg("s.granted", true, use(p2, apps.StatusGranted))
	decl := pkg("declarer", false)
	decl.Declared = []apps.DeclaredPermission{{Name: p2}, {Name: p2}}

	snap := &apps.Snapshot{ID: 3, Pkgs: []*apps.Pkg{userDenied, sysGranted, decl, userGranted}}
	res := Resolve(join(snap, &perms.Declared{Base: perms.Base{ID: p2}}))

	pr, ok := res.Permission(p2)
	require.True(t, ok)
	assert.Equal(t, 2, pr.TotalUser)
	assert.Equal(t, 1, pr.GrantedUser)
	assert.Equal(t, 1, pr.TotalSystem)
	assert.Equal(t, 1, pr.GrantedSystem)
	assert.Equal(t, 3, pr.RequestingCount())
	assert.Equal(t, 2, pr.GrantedCount())
	assert.Equal(t, []*apps.Pkg{decl}, pr.Declaring)

	var order []string
	for _, r := range pr.Requesting {
		order = append(order, r.Pkg.ID.PkgName)
	}
	assert.Equal(t, []string{"s.granted", "u.granted", "u.denied"}, order)
}

func TestSortRequestersUserBeforeSystem(t *testing.T) {
	rs := []Requester{
		{Pkg: &apps.Pkg{ID: apps.PkgID{PkgName: "sys"}, IsSystemApp: true}, Status: apps.StatusGranted},
		{Pkg: &apps.Pkg{ID: apps.PkgID{PkgName: "b"}, Label: "Beta"}, Status: apps.StatusGranted},
		{Pkg: &apps.Pkg{ID: apps.PkgID{PkgName: "a", User: 10}, Label: "Beta"}, Status: apps.StatusGranted},
		{Pkg: &apps.Pkg{ID: apps.PkgID{PkgName: "z"}, Label: "Alpha"}, Status: apps.StatusGranted},
	}
	SortRequesters(rs)

	var got []string
	for _, r := range rs {
		got = append(got, r.Pkg.ID.String())
	}
	assert.Equal(t, []string{"z", "a@10", "b", "sys"}, got)
}

func TestTopGroupsBounded(t *testing.T) {
	var reqs []apps.UsesPermission
	var defs []perms.Permission
	for i, g := range perms.AllGroupIDs() {
		id := fmt.Sprintf("p.%02d", i)
		reqs = append(reqs, use(id, apps.StatusGranted))
		defs = append(defs, &perms.Extra{Base: perms.Base{ID: id, Groups: []perms.GroupID{g}}})
	}
	app := pkg("a", false, reqs...)
	res := Resolve(join(&apps.Snapshot{ID: 1, Pkgs: []*apps.Pkg{app}}, defs...))

	ar, _ := res.App(app.ID)
	assert.Len(t, ar.TopGroups, maxTopGroups)
}

// randomJoin builds a deterministic random snapshot and a catalog that
// covers only part of the requested ids.
func randomJoin(seed int64) *gate.Joined {
	r := rand.New(rand.NewSource(seed))
	ids := []string{"a", "b", "c", "d", "e", "f"}
	statuses := []apps.Status{apps.StatusGranted, apps.StatusGrantedInUse, apps.StatusDenied, apps.StatusUnknown}

	snap := &apps.Snapshot{ID: apps.SnapshotID(seed)}
	for i := 0; i < 1+r.Intn(6); i++ {
		p := &apps.Pkg{ID: apps.PkgID{PkgName: fmt.Sprintf("pkg%d", i)}, IsSystemApp: r.Intn(2) == 0}
		for _, id := range ids {
			if r.Intn(2) == 0 {
				p.Requested = append(p.Requested, use(id, statuses[r.Intn(len(statuses))]))
			}
			if r.Intn(5) == 0 {
				p.Declared = append(p.Declared, apps.DeclaredPermission{Name: id})
			}
		}
		snap.Pkgs = append(snap.Pkgs, p)
	}

	var defs []perms.Permission
	for _, id := range ids {
		switch r.Intn(4) {
		case 0:
			defs = append(defs, &perms.Declared{Base: perms.Base{ID: id}})
		case 1:
			defs = append(defs, &perms.Extra{Base: perms.Base{ID: id}})
		case 2:
			defs = append(defs, &perms.Unknown{Base: perms.Base{ID: id}})
		}
	}
	return join(snap, defs...)
}

func TestResolveProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("counts cover only resolved edges", prop.ForAll(
		func(seed int64) bool {
			j := randomJoin(seed)
			res := Resolve(j)
			idx := j.Catalog.Index()
			for _, ar := range res.Apps {
				total, granted := 0, 0
				for _, u := range ar.Pkg.Requested {
					if _, ok := idx[u.ID]; ok {
						total++
						if u.IsGranted() {
							granted++
						}
					}
				}
				if ar.Total != total || ar.Granted != granted || len(ar.Edges) != len(ar.Pkg.Requested) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("edges ordered by rank then status then id", prop.ForAll(
		func(seed int64) bool {
			for _, ar := range Resolve(randomJoin(seed)).Apps {
				for i := 1; i < len(ar.Edges); i++ {
					a, b := ar.Edges[i-1], ar.Edges[i]
					if a.Rank() < b.Rank() {
						return false
					}
					if a.Rank() == b.Rank() && a.Status > b.Status {
						return false
					}
					if a.Rank() == b.Rank() && a.Status == b.Status && a.PermissionID >= b.PermissionID {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("per-permission totals match requesters", prop.ForAll(
		func(seed int64) bool {
			for _, pr := range Resolve(randomJoin(seed)).Permissions {
				if pr.RequestingCount() != len(pr.Requesting) {
					return false
				}
				granted := 0
				for _, r := range pr.Requesting {
					if r.Status.IsGranted() {
						granted++
					}
				}
				if granted != pr.GrantedCount() {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.Property("resolution is deterministic", prop.ForAll(
		func(seed int64) bool {
			j := randomJoin(seed)
			a, b := Resolve(j), Resolve(j)
			for i := range a.Apps {
				if fmt.Sprint(a.Apps[i].Edges) != fmt.Sprint(b.Apps[i].Edges) {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

package sorting

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
)

func appRes(name, label string, granted, total int) *resolve.AppResolution {
	return &resolve.AppResolution{
		Pkg:     &apps.Pkg{ID: apps.PkgID{PkgName: name}, Label: label},
		Granted: granted,
		Total:   total,
	}
}

func names(items []*resolve.AppResolution) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.Pkg.ID.String()
	}
	return out
}

func TestSortAppsByLabel(t *testing.T) {
	items := []*resolve.AppResolution{
		appRes("c", "banana", 0, 0),
		appRes("a", "Apple", 0, 0),
		appRes("b", "", 0, 0),
	}

	got := Apps.Sort(items, AppLabel)
	assert.Equal(t, []string{"a", "b", "c"}, names(got))
	assert.Equal(t, "c", items[0].Pkg.ID.PkgName, "input must not be reordered")
}

func TestSortAppsIdentityTieBreak(t *testing.T) {
	a0 := appRes("same", "Same", 1, 2)
	a10 := appRes("same", "Same", 1, 2)
	a10.Pkg.ID.User = 10

	got := Apps.Sort([]*resolve.AppResolution{a10, a0}, AppGrantedRatio)
	assert.Equal(t, []string{"same", "same@10"}, names(got))
}

func TestSortAppsByTime(t *testing.T) {
	old := appRes("old", "", 0, 0)
	old.Pkg.UpdatedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := appRes("new", "", 0, 0)
	recent.Pkg.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Apps.Sort([]*resolve.AppResolution{old, recent}, AppUpdatedAt)
	assert.Equal(t, []string{"new", "old"}, names(got))
}

func TestSortAppsByRatio(t *testing.T) {
	got := Apps.Sort([]*resolve.AppResolution{
		appRes("half", "", 1, 2),
		appRes("none", "", 0, 0),
		appRes("all", "", 3, 3),
	}, AppGrantedRatio)
	assert.Equal(t, []string{"all", "half", "none"}, names(got))
}

func TestParse(t *testing.T) {
	k, err := Apps.Parse("")
	require.NoError(t, err)
	assert.Equal(t, AppLabel, k)

	k, err = Apps.Parse("Updated-At")
	require.NoError(t, err)
	assert.Equal(t, AppUpdatedAt, k)

	_, err = Permissions.Parse("label")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "granted-ratio")

	assert.Equal(t, []PermKey{PermID, PermRequesting, PermGranted, PermGrantedRatio}, Permissions.Keys())
}

func randomPerms(seed int64) []*resolve.PermResolution {
	r := rand.New(rand.NewSource(seed))
	out := make([]*resolve.PermResolution, 1+r.Intn(12))
	for i := range out {
		out[i] = &resolve.PermResolution{
			Permission:  &perms.Extra{Base: perms.Base{ID: fmt.Sprintf("p.%d", i)}},
			TotalUser:   r.Intn(3),
			GrantedUser: r.Intn(2),
		}
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestPermissionComparatorsAreStrictTotalOrders(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("distinct permissions never compare equal", prop.ForAll(
		func(seed int64, keyIdx int) bool {
			key := Permissions.Keys()[keyIdx]
			cmp := Permissions.Comparator(key, NewCollator())
			items := randomPerms(seed)
			for i := range items {
				for j := range items {
					c := cmp(items[i], items[j])
					if i == j && c != 0 {
						return false
					}
					if i != j && (c == 0 || c != -cmp(items[j], items[i])) {
						return false
					}
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, len(Permissions.Keys())-1),
	))

	properties.Property("sorting is idempotent", prop.ForAll(
		func(seed int64, keyIdx int) bool {
			key := Permissions.Keys()[keyIdx]
			once := Permissions.Sort(randomPerms(seed), key)
			twice := Permissions.Sort(once, key)
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, len(Permissions.Keys())-1),
	))

	properties.TestingRun(t)
}

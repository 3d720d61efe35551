package gate

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/source"
)

func snapshot(id apps.SnapshotID) *apps.Snapshot {
	return &apps.Snapshot{ID: id}
}

func catalog(basedOn apps.SnapshotID) *perms.Catalog {
	return &perms.Catalog{BasedOn: basedOn}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		app     source.AppState
		catalog source.CatalogState
		ready   bool
	}{
		{"both loading", source.AppLoading(), source.CatalogLoading(), false},
		{"apps loading", source.AppLoading(), source.CatalogReady(catalog(1)), false},
		{"catalog loading", source.AppReady(snapshot(1)), source.CatalogLoading(), false},
		{"stale catalog", source.AppReady(snapshot(2)), source.CatalogReady(catalog(1)), false},
		{"consistent", source.AppReady(snapshot(2)), source.CatalogReady(catalog(2)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(tt.app, tt.catalog)
			assert.Equal(t, tt.ready, r.Ready())
			if tt.ready {
				assert.Same(t, tt.app.Snapshot, r.Joined.Snapshot)
				assert.Same(t, tt.catalog.Catalog, r.Joined.Catalog)
			}
		})
	}
}

func TestEvaluateReadyImpliesMatchingIDs(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("ready only when ids match", prop.ForAll(
		func(appID, basedOn int64, appLoading, catLoading bool) bool {
			a := source.AppReady(snapshot(apps.SnapshotID(appID)))
			if appLoading {
				a = source.AppLoading()
			}
			c := source.CatalogReady(catalog(apps.SnapshotID(basedOn)))
			if catLoading {
				c = source.CatalogLoading()
			}

			r := Evaluate(a, c)
			want := !appLoading && !catLoading && appID == basedOn
			if r.Ready() != want {
				return false
			}
			return !r.Ready() || r.Joined.Catalog.BasedOn == r.Joined.Snapshot.ID
		},
		gen.Int64Range(1, 4),
		gen.Int64Range(1, 4),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func next(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "channel closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for gate result")
	}
	return NotReady
}

func TestCombineSequence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCh := make(chan source.AppState)
	catCh := make(chan source.CatalogState)
	out := Combine(ctx, appCh, catCh)

	assert.False(t, next(t, out).Ready(), "starts NotReady")

	appCh <- source.AppReady(snapshot(1))
	catCh <- source.CatalogReady(catalog(1))
	r := next(t, out)
	require.True(t, r.Ready())
	assert.Equal(t, apps.SnapshotID(1), r.ID())

	// A new snapshot arrives before its catalog.
	appCh <- source.AppReady(snapshot(2))
	assert.False(t, next(t, out).Ready())

	catCh <- source.CatalogReady(catalog(2))
	r = next(t, out)
	require.True(t, r.Ready())
	assert.Equal(t, apps.SnapshotID(2), r.ID())
}

func TestCombineSuppressesDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCh := make(chan source.AppState)
	catCh := make(chan source.CatalogState)
	out := Combine(ctx, appCh, catCh)
	next(t, out)

	appCh <- source.AppReady(snapshot(1))
	appCh <- source.AppReady(snapshot(1))
	// Still NotReady: nothing new is emitted.
	select {
	case r := <-out:
		t.Fatalf("unexpected emission %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCombineClosesWhenInputsClose(t *testing.T) {
	appCh := make(chan source.AppState)
	catCh := make(chan source.CatalogState)
	out := Combine(context.Background(), appCh, catCh)
	next(t, out)

	close(appCh)
	close(catCh)

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("output not closed")
	}
}

func TestCombineStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := Combine(ctx, make(chan source.AppState), make(chan source.CatalogState))
	next(t, out)
	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("output not closed after cancel")
	}
}

package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
)

type fakeInventory struct {
	mu   sync.Mutex
	pkgs []*apps.Pkg
	err  error
}

func (f *fakeInventory) Load(context.Context) ([]*apps.Pkg, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pkgs, f.err
}

func (f *fakeInventory) set(pkgs []*apps.Pkg, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pkgs, f.err = pkgs, err
}

type reuseAllocator struct {
	id apps.SnapshotID
}

func (r *reuseAllocator) Allocate(context.Context, []*apps.Pkg) (apps.SnapshotID, bool, error) {
	if r.id == 0 {
		r.id = 1
		return r.id, false, nil
	}
	return r.id, true, nil
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestValueSubscribeGetsCurrent(t *testing.T) {
	v := NewValue(1)
	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, 1, receive(t, ch))
}

func TestValueConflates(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	defer cancel()

	for i := 1; i <= 5; i++ {
		v.Set(i)
	}

	assert.Equal(t, 5, receive(t, ch), "slow subscriber should see only the newest value")
	assert.Equal(t, 5, v.Get())
}

func TestValueUnsubscribeClosesChannel(t *testing.T) {
	v := NewValue("a")
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
	v.Set("b")
}

func TestValueClose(t *testing.T) {
	v := NewValue(0)
	ch, _ := v.Subscribe()
	<-ch
	v.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := v.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscription after close is closed")
}

func TestAppSourceStartsLoading(t *testing.T) {
	src := NewAppSource(&fakeInventory{}, nil, nil)
	assert.True(t, src.Current().IsLoading())
	assert.Equal(t, apps.SnapshotID(0), src.Current().ID())
}

func TestAppSourceRefreshPublishes(t *testing.T) {
	inv := &fakeInventory{pkgs: []*apps.Pkg{{ID: apps.PkgID{PkgName: "a"}}}}
	src := NewAppSource(inv, nil, nil)

	require.NoError(t, src.Refresh(context.Background()))
	first := src.Current()
	require.False(t, first.IsLoading())

	require.NoError(t, src.Refresh(context.Background()))
	assert.Greater(t, src.Current().ID(), first.ID(), "ids increase")
}

func TestAppSourceFailureKeepsLastState(t *testing.T) {
	inv := &fakeInventory{pkgs: []*apps.Pkg{{ID: apps.PkgID{PkgName: "a"}}}}
	src := NewAppSource(inv, nil, nil)
	require.NoError(t, src.Refresh(context.Background()))
	before := src.Current()

	boom := errors.New("boom")
	inv.set(nil, boom)

	err := src.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, src.Err(), boom)
	assert.Equal(t, before, src.Current())

	inv.set([]*apps.Pkg{{ID: apps.PkgID{PkgName: "b"}}}, nil)
	require.NoError(t, src.Refresh(context.Background()))
	assert.NoError(t, src.Err())
}

func TestAppSourceReusedSnapshotNotRepublished(t *testing.T) {
	inv := &fakeInventory{pkgs: []*apps.Pkg{{ID: apps.PkgID{PkgName: "a"}}}}
	src := NewAppSource(inv, &reuseAllocator{}, nil)
	require.NoError(t, src.Refresh(context.Background()))

	ch, cancel := src.Subscribe()
	defer cancel()
	first := receive(t, ch)

	require.NoError(t, src.Refresh(context.Background()))
	select {
	case st := <-ch:
		t.Fatalf("unexpected republish of snapshot %d", st.ID())
	case <-time.After(50 * time.Millisecond):
	}
	assert.Same(t, first.Snapshot, src.Current().Snapshot)
}

func TestCatalogSourceFollowsApps(t *testing.T) {
	inv := &fakeInventory{pkgs: []*apps.Pkg{{
		ID:        apps.PkgID{PkgName: "a"},
		Requested: []apps.UsesPermission{{ID: "x.y.Z"}},
	}}}
	appSrc := NewAppSource(inv, nil, nil)
	catSrc := NewCatalogSource(nil, nil)
	assert.True(t, catSrc.Current().IsLoading())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appCh, unsub := appSrc.Subscribe()
	defer unsub()
	done := make(chan error, 1)
	go func() { done <- catSrc.Run(ctx, appCh) }()

	catCh, catUnsub := catSrc.Subscribe()
	defer catUnsub()
	assert.True(t, receive(t, catCh).IsLoading())

	require.NoError(t, appSrc.Refresh(ctx))
	st := receive(t, catCh)
	require.False(t, st.IsLoading())
	assert.Equal(t, appSrc.Current().ID(), st.BasedOn())

	p, ok := st.Catalog.Get("x.y.Z")
	require.True(t, ok)
	assert.Equal(t, perms.VariantUnknown, perms.VariantOf(p))

	cancel()
	assert.ErrorIs(t, receive(t, done), context.Canceled)
}

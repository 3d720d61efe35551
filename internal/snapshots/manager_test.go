package snapshots

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/source"
	"github.com/blackwell-systems/permscope/internal/store"
)

var _ source.Allocator = (*Manager)(nil)
var _ source.Inventory = LatestInventory{}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := db.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, opts...)
}

func testPkgs() []*apps.Pkg {
	flags := 3
	installer := apps.PkgID{PkgName: "com.android.vending"}
	return []*apps.Pkg{
		{
			ID:          apps.PkgID{PkgName: "org.example.camera", User: 0},
			Label:       "Camera",
			Installer:   &apps.InstallerInfo{Installing: &installer},
			InstalledAt: time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC),
			VersionName: "1.2",
			VersionCode: 12,
			APILevels:   apps.APILevels{Target: 34, Minimum: 26},
			Requested: []apps.UsesPermission{
				{ID: "android.permission.CAMERA", Status: apps.StatusGranted, Flags: &flags},
				{ID: apps.PermInternet, Status: apps.StatusUnknown},
			},
			Declared: []apps.DeclaredPermission{
				{Name: "org.example.camera.SHARE", ProtectionType: "signature", ProtectionFlags: []string{"privileged"}},
			},
			Twins:          []apps.PkgID{{PkgName: "org.example.camera", User: 10}},
			InternetAccess: apps.InternetDirect,
		},
		{
			ID:          apps.PkgID{PkgName: "org.example.camera", User: 10},
			IsSystemApp: true,
			Twins:       []apps.PkgID{{PkgName: "org.example.camera", User: 0}},
		},
	}
}

func TestAllocateStoresAndLoads(t *testing.T) {
	m := newTestManager(t, WithSource("inventory.yaml"))
	ctx := context.Background()

	id, reused, err := m.Allocate(ctx, testPkgs())
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if reused {
		t.Error("first allocation should not be reused")
	}

	snap, err := m.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.ID != id {
		t.Errorf("snapshot id = %d, want %d", snap.ID, id)
	}
	if !reflect.DeepEqual(snap.Pkgs, testPkgs()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", snap.Pkgs[0], testPkgs()[0])
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Source != "inventory.yaml" || list[0].AppCount != 2 {
		t.Errorf("unexpected snapshot list %+v", list)
	}
}

func TestAllocateReusesUnchangedInventory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, _, err := m.Allocate(ctx, testPkgs())
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// Order of the inventory does not matter.
	pkgs := testPkgs()
	pkgs[0], pkgs[1] = pkgs[1], pkgs[0]

	second, reused, err := m.Allocate(ctx, pkgs)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if !reused || second != first {
		t.Errorf("expected reuse of %d, got %d (reused=%v)", first, second, reused)
	}

	pkgs[0].Label = "Changed"
	third, reused, err := m.Allocate(ctx, pkgs)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if reused || third <= first {
		t.Errorf("expected a new increasing id after a change, got %d (reused=%v)", third, reused)
	}
}

func TestAllocateRetention(t *testing.T) {
	m := newTestManager(t, WithRetention(2))
	ctx := context.Background()

	pkgs := testPkgs()
	for i := 0; i < 4; i++ {
		pkgs[0].VersionCode = int64(i)
		if _, _, err := m.Allocate(ctx, pkgs); err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 snapshots retained, got %d", len(list))
	}
}

func TestAllocateCancelled(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := m.Allocate(ctx, testPkgs()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLatestWithoutSnapshots(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Latest(); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot, got %v", err)
	}
	if _, err := m.Load(7); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("expected ErrNoSnapshot for missing id, got %v", err)
	}
}

func TestLatestInventory(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, _, err := m.Allocate(ctx, testPkgs()); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	pkgs, err := LatestInventory{Manager: m}.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("expected 2 apps, got %d", len(pkgs))
	}

	// Feeding the latest snapshot back reuses its id.
	src := source.NewAppSource(LatestInventory{Manager: m}, m, nil)
	defer src.Close()
	if err := src.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	latest, _ := m.Latest()
	if src.Current().ID() != latest.ID {
		t.Errorf("source id = %d, want %d", src.Current().ID(), latest.ID)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := Fingerprint(testPkgs())
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	b, _ := Fingerprint(testPkgs())
	if a != b {
		t.Errorf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 32-byte hex fingerprint, got %d chars", len(a))
	}

	changed := testPkgs()
	changed[1].Requested = []apps.UsesPermission{{ID: "x", Status: apps.StatusDenied}}
	c, _ := Fingerprint(changed)
	if c == a {
		t.Error("fingerprint should change with content")
	}
}

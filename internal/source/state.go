package source

import (
	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
)

// AppState is Loading (nil Snapshot) or Ready with a snapshot.
type AppState struct {
	Snapshot *apps.Snapshot
}

// AppLoading returns the Loading app state.
func AppLoading() AppState { return AppState{} }

// AppReady returns a Ready app state for snap.
func AppReady(snap *apps.Snapshot) AppState { return AppState{Snapshot: snap} }

// IsLoading reports whether no snapshot is available.
func (s AppState) IsLoading() bool { return s.Snapshot == nil }

// ID returns the snapshot id, or 0 while loading.
func (s AppState) ID() apps.SnapshotID {
	if s.Snapshot == nil {
		return 0
	}
	return s.Snapshot.ID
}

// CatalogState is Loading (nil Catalog) or Ready with a catalog.
type CatalogState struct {
	Catalog *perms.Catalog
}

// CatalogLoading returns the Loading catalog state.
func CatalogLoading() CatalogState { return CatalogState{} }

// CatalogReady returns a Ready catalog state for c.
func CatalogReady(c *perms.Catalog) CatalogState { return CatalogState{Catalog: c} }

// IsLoading reports whether no catalog is available.
func (s CatalogState) IsLoading() bool { return s.Catalog == nil }

// BasedOn returns the snapshot id the catalog was built from, or 0 while
// loading.
func (s CatalogState) BasedOn() apps.SnapshotID {
	if s.Catalog == nil {
		return 0
	}
	return s.Catalog.BasedOn
}

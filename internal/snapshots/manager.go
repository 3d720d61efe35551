package snapshots

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/codec"
	"github.com/blackwell-systems/permscope/internal/store"
)

// ErrNoSnapshot is returned when no snapshot has been stored yet.
var ErrNoSnapshot = errors.New("no snapshot found (run 'permscope scan' first)")

// Manager stores app inventory snapshots and allocates their ids. It
// implements source.Allocator.
type Manager struct {
	store  *store.Store
	source string
	keep   int
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSource records where inventories are read from on new snapshots.
func WithSource(source string) Option {
	return func(m *Manager) { m.source = source }
}

// WithRetention keeps only the newest keep snapshots after each insert.
// Zero keeps everything.
func WithRetention(keep int) Option {
	return func(m *Manager) { m.keep = keep }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a new snapshot Manager.
func New(st *store.Store, opts ...Option) *Manager {
	m := &Manager{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allocate stores pkgs as a new snapshot and returns its id. When the
// content fingerprint equals the latest snapshot's, nothing is written and
// the latest id is returned with reused=true.
func (m *Manager) Allocate(ctx context.Context, pkgs []*apps.Pkg) (apps.SnapshotID, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	rows, fp, err := encode(pkgs)
	if err != nil {
		return 0, false, err
	}

	latest, err := m.store.LatestSnapshot()
	switch {
	case err == nil && latest.Fingerprint == fp:
		m.logger.Debug("inventory unchanged, reusing snapshot", "snapshot_id", latest.ID)
		return apps.SnapshotID(latest.ID), true, nil
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return 0, false, fmt.Errorf("failed to read latest snapshot: %w", err)
	}

	id, err := m.store.InsertSnapshot(fp, m.source, rows)
	if err != nil {
		return 0, false, fmt.Errorf("failed to store snapshot: %w", err)
	}
	m.logger.Info("stored snapshot", "snapshot_id", id, "apps", len(rows), "fingerprint", fp[:12])

	if m.keep > 0 {
		removed, err := m.store.PruneSnapshots(m.keep)
		if err != nil {
			return 0, false, fmt.Errorf("failed to prune snapshots: %w", err)
		}
		if removed > 0 {
			m.logger.Debug("pruned snapshots", "removed", removed, "kept", m.keep)
		}
	}

	return apps.SnapshotID(id), false, nil
}

// Load decodes the snapshot with the given id.
func (m *Manager) Load(id apps.SnapshotID) (*apps.Snapshot, error) {
	if _, err := m.store.GetSnapshot(int64(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("snapshot %d: %w", id, ErrNoSnapshot)
		}
		return nil, err
	}

	rows, err := m.store.GetSnapshotApps(int64(id))
	if err != nil {
		return nil, err
	}

	snap := &apps.Snapshot{ID: id, Pkgs: make([]*apps.Pkg, 0, len(rows))}
	for _, row := range rows {
		var r pkgRecord
		if err := codec.Unmarshal(row.Record, &r); err != nil {
			return nil, fmt.Errorf("failed to decode app %s in snapshot %d: %w", row.Package, id, err)
		}
		snap.Pkgs = append(snap.Pkgs, r.toPkg())
	}
	return snap, nil
}

// Latest decodes the newest snapshot.
func (m *Manager) Latest() (*apps.Snapshot, error) {
	meta, err := m.store.LatestSnapshot()
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return m.Load(apps.SnapshotID(meta.ID))
}

// List returns snapshot metadata, newest first.
func (m *Manager) List() ([]*store.Snapshot, error) {
	return m.store.ListSnapshots()
}

// Prune keeps the newest keep snapshots and returns how many were removed.
func (m *Manager) Prune(keep int) (int, error) {
	return m.store.PruneSnapshots(keep)
}

// Fingerprint returns the content hash Allocate would compute for pkgs.
func Fingerprint(pkgs []*apps.Pkg) (string, error) {
	_, fp, err := encode(pkgs)
	return fp, err
}

// encode sorts pkgs by id and encodes each into a snapshot row.
func encode(pkgs []*apps.Pkg) ([]*store.SnapshotApp, string, error) {
	sorted := slices.Clone(pkgs)
	slices.SortFunc(sorted, func(a, b *apps.Pkg) int { return a.ID.Compare(b.ID) })

	rows := make([]*store.SnapshotApp, len(sorted))
	records := make([][]byte, len(sorted))
	for i, p := range sorted {
		data, err := codec.Marshal(toRecord(p))
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode app %s: %w", p.ID, err)
		}
		records[i] = data
		rows[i] = &store.SnapshotApp{
			Package:  p.ID.PkgName,
			User:     int(p.ID.User),
			Label:    p.Label,
			IsSystem: p.IsSystemApp,
			Record:   data,
		}
	}
	return rows, fingerprint(records), nil
}

// fingerprint hashes the encoded records in order. Each record is a
// self-delimiting CBOR item so concatenation is unambiguous.
func fingerprint(records [][]byte) string {
	h := blake3.New()
	for _, r := range records {
		h.Write(r)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LatestInventory serves the newest stored snapshot as an inventory, so
// read-only commands can work without rescanning.
type LatestInventory struct {
	Manager *Manager
}

// Load returns the apps of the newest snapshot.
func (l LatestInventory) Load(ctx context.Context) ([]*apps.Pkg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := l.Manager.Latest()
	if err != nil {
		return nil, err
	}
	return snap.Pkgs, nil
}

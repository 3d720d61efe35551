package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Snapshot operations

// InsertSnapshot stores a snapshot and its apps in one transaction and
// returns the new snapshot id. Ids are allocated by AUTOINCREMENT and
// never reused.
func (s *Store) InsertSnapshot(fingerprint, source string, apps []*SnapshotApp) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO snapshots (created_at, fingerprint, source, app_count)
		VALUES (?, ?, ?, ?)
	`, time.Now().UTC().Format(time.RFC3339Nano), fingerprint, source, len(apps))
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot ID: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshot_apps (snapshot_id, package, user_handle, label, is_system, record)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare app insert: %w", err)
	}
	defer stmt.Close()

	for _, app := range apps {
		if _, err := stmt.Exec(id, app.Package, app.User, app.Label, app.IsSystem, app.Record); err != nil {
			return 0, fmt.Errorf("failed to insert app %s: %w", app.Package, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return id, nil
}

// GetSnapshot retrieves a snapshot by ID.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, fingerprint, source, app_count
		FROM snapshots
		WHERE id = ?
	`, id)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %d: %w", id, classify(err))
	}
	return snap, nil
}

// LatestSnapshot returns the snapshot with the highest id.
func (s *Store) LatestSnapshot() (*Snapshot, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, fingerprint, source, app_count
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", classify(err))
	}
	return snap, nil
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, fingerprint, source, app_count
		FROM snapshots
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", classify(err))
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

// GetSnapshotApps returns the apps of a snapshot ordered by package and user.
func (s *Store) GetSnapshotApps(snapshotID int64) ([]*SnapshotApp, error) {
	rows, err := s.db.Query(`
		SELECT snapshot_id, package, user_handle, label, is_system, record
		FROM snapshot_apps
		WHERE snapshot_id = ?
		ORDER BY package, user_handle
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot apps: %w", classify(err))
	}
	defer rows.Close()

	var apps []*SnapshotApp
	for rows.Next() {
		var app SnapshotApp
		var label sql.NullString
		if err := rows.Scan(&app.SnapshotID, &app.Package, &app.User, &label, &app.IsSystem, &app.Record); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot app row: %w", err)
		}
		app.Label = label.String
		apps = append(apps, &app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot apps: %w", err)
	}

	return apps, nil
}

// PruneSnapshots deletes all but the newest keep snapshots and returns the
// number removed.
func (s *Store) PruneSnapshots(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	result, err := s.db.Exec(`
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", classify(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return int(n), nil
}

// Settings operations

// PutSetting replaces the value stored under key.
func (s *Store) PutSetting(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, classify(err))
	}
	return nil
}

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, classify(err))
	}
	return value, nil
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSetting(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, classify(err))
	}
	return nil
}

// ListSettingKeys returns every stored setting key in order.
func (s *Store) ListSettingKeys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", classify(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan setting key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return keys, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	var source sql.NullString

	if err := row.Scan(&snap.ID, &createdAt, &snap.Fingerprint, &source, &snap.AppCount); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for snapshot %d: %w", snap.ID, err)
	}
	snap.CreatedAt = t
	snap.Source = source.String

	return &snap, nil
}

package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    fingerprint TEXT NOT NULL,
    source TEXT,
    app_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_apps (
    snapshot_id INTEGER NOT NULL,
    package TEXT NOT NULL,
    user_handle INTEGER NOT NULL,
    label TEXT,
    is_system BOOLEAN NOT NULL,
    record BLOB NOT NULL,
    PRIMARY KEY (snapshot_id, package, user_handle),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshot_apps ON snapshot_apps(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_fingerprint ON snapshots(fingerprint);
`

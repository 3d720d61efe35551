package store

import "time"

// Snapshot is the metadata row of one stored app inventory snapshot.
type Snapshot struct {
	ID          int64
	CreatedAt   time.Time
	Fingerprint string // hex content hash of the snapshot's apps
	Source      string // where the inventory was read from
	AppCount    int
}

// SnapshotApp is one application row of a stored snapshot. Record holds
// the encoded application; the other columns allow listing without
// decoding.
type SnapshotApp struct {
	SnapshotID int64
	Package    string
	User       int
	Label      string
	IsSystem   bool
	Record     []byte
}

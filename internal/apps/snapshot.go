package apps

// SnapshotID identifies one app inventory snapshot. Ids are allocated in
// increasing order; a permission catalog echoes the id it was built from.
type SnapshotID int64

// Snapshot is an immutable materialization of all installed applications
// at one point in time.
type Snapshot struct {
	ID   SnapshotID
	Pkgs []*Pkg
}

// Get returns the package with the given id.
func (s *Snapshot) Get(id PkgID) (*Pkg, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range s.Pkgs {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

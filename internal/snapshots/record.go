package snapshots

import (
	"time"

	"github.com/blackwell-systems/permscope/internal/apps"
)

// pkgRecord is the stored form of an apps.Pkg. Times are kept as unix
// nanoseconds (0 for unknown) so encoding does not depend on time zones.
type pkgRecord struct {
	Package      string           `cbor:"package"`
	User         int              `cbor:"user"`
	Label        string           `cbor:"label,omitempty"`
	System       bool             `cbor:"system,omitempty"`
	Installer    *installerRecord `cbor:"installer,omitempty"`
	InstalledAt  int64            `cbor:"installed_at,omitempty"`
	UpdatedAt    int64            `cbor:"updated_at,omitempty"`
	VersionName  string           `cbor:"version_name,omitempty"`
	VersionCode  int64            `cbor:"version_code,omitempty"`
	TargetAPI    int              `cbor:"api_target,omitempty"`
	MinimumAPI   int              `cbor:"api_minimum,omitempty"`
	CompileAPI   int              `cbor:"api_compile,omitempty"`
	SharedUserID string           `cbor:"shared_user_id,omitempty"`
	Requested    []usesRecord     `cbor:"requested,omitempty"`
	Declared     []declaredRecord `cbor:"declared,omitempty"`
	Twins        []idRecord       `cbor:"twins,omitempty"`
	Siblings     []idRecord       `cbor:"siblings,omitempty"`
	Internet     int              `cbor:"internet"`
}

type idRecord struct {
	Package string `cbor:"package"`
	User    int    `cbor:"user"`
}

type installerRecord struct {
	Installing  *idRecord `cbor:"installing,omitempty"`
	Initiating  *idRecord `cbor:"initiating,omitempty"`
	Originating *idRecord `cbor:"originating,omitempty"`
	UpdateOwner *idRecord `cbor:"update_owner,omitempty"`
}

type usesRecord struct {
	ID     string `cbor:"id"`
	Status int    `cbor:"status"`
	Flags  *int   `cbor:"flags,omitempty"`
}

type declaredRecord struct {
	Name       string   `cbor:"name"`
	Protection string   `cbor:"protection,omitempty"`
	Flags      []string `cbor:"flags,omitempty"`
	Group      string   `cbor:"group,omitempty"`
}

func toRecord(p *apps.Pkg) *pkgRecord {
	r := &pkgRecord{
		Package:      p.ID.PkgName,
		User:         int(p.ID.User),
		Label:        p.Label,
		System:       p.IsSystemApp,
		InstalledAt:  unixNano(p.InstalledAt),
		UpdatedAt:    unixNano(p.UpdatedAt),
		VersionName:  p.VersionName,
		VersionCode:  p.VersionCode,
		TargetAPI:    p.APILevels.Target,
		MinimumAPI:   p.APILevels.Minimum,
		CompileAPI:   p.APILevels.Compile,
		SharedUserID: p.SharedUserID,
		Twins:        toIDRecords(p.Twins),
		Siblings:     toIDRecords(p.Siblings),
		Internet:     int(p.InternetAccess),
	}

	if p.Installer != nil {
		r.Installer = &installerRecord{
			Installing:  toIDRecord(p.Installer.Installing),
			Initiating:  toIDRecord(p.Installer.Initiating),
			Originating: toIDRecord(p.Installer.Originating),
			UpdateOwner: toIDRecord(p.Installer.UpdateOwner),
		}
	}

	for _, u := range p.Requested {
		r.Requested = append(r.Requested, usesRecord{ID: u.ID, Status: int(u.Status), Flags: u.Flags})
	}
	for _, d := range p.Declared {
		r.Declared = append(r.Declared, declaredRecord{
			Name:       d.Name,
			Protection: d.ProtectionType,
			Flags:      d.ProtectionFlags,
			Group:      d.Group,
		})
	}

	return r
}

func (r *pkgRecord) toPkg() *apps.Pkg {
	p := &apps.Pkg{
		ID:          apps.PkgID{PkgName: r.Package, User: apps.UserHandle(r.User)},
		Label:       r.Label,
		IsSystemApp: r.System,
		InstalledAt: fromUnixNano(r.InstalledAt),
		UpdatedAt:   fromUnixNano(r.UpdatedAt),
		VersionName: r.VersionName,
		VersionCode: r.VersionCode,
		APILevels: apps.APILevels{
			Target:  r.TargetAPI,
			Minimum: r.MinimumAPI,
			Compile: r.CompileAPI,
		},
		SharedUserID:   r.SharedUserID,
		Twins:          fromIDRecords(r.Twins),
		Siblings:       fromIDRecords(r.Siblings),
		InternetAccess: apps.InternetAccess(r.Internet),
	}

	if r.Installer != nil {
		p.Installer = &apps.InstallerInfo{
			Installing:  fromIDRecord(r.Installer.Installing),
			Initiating:  fromIDRecord(r.Installer.Initiating),
			Originating: fromIDRecord(r.Installer.Originating),
			UpdateOwner: fromIDRecord(r.Installer.UpdateOwner),
		}
	}

	for _, u := range r.Requested {
		p.Requested = append(p.Requested, apps.UsesPermission{ID: u.ID, Status: apps.Status(u.Status), Flags: u.Flags})
	}
	for _, d := range r.Declared {
		p.Declared = append(p.Declared, apps.DeclaredPermission{
			Name:            d.Name,
			ProtectionType:  d.Protection,
			ProtectionFlags: d.Flags,
			Group:           d.Group,
		})
	}

	return p
}

func toIDRecord(id *apps.PkgID) *idRecord {
	if id == nil {
		return nil
	}
	return &idRecord{Package: id.PkgName, User: int(id.User)}
}

func fromIDRecord(r *idRecord) *apps.PkgID {
	if r == nil {
		return nil
	}
	return &apps.PkgID{PkgName: r.Package, User: apps.UserHandle(r.User)}
}

func toIDRecords(ids []apps.PkgID) []idRecord {
	if len(ids) == 0 {
		return nil
	}
	out := make([]idRecord, len(ids))
	for i, id := range ids {
		out[i] = idRecord{Package: id.PkgName, User: int(id.User)}
	}
	return out
}

func fromIDRecords(rs []idRecord) []apps.PkgID {
	if len(rs) == 0 {
		return nil
	}
	out := make([]apps.PkgID, len(rs))
	for i, r := range rs {
		out[i] = apps.PkgID{PkgName: r.Package, User: apps.UserHandle(r.User)}
	}
	return out
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

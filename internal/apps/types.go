package apps

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserHandle identifies the user/profile an application is installed under.
// The primary profile is 0.
type UserHandle int

// PrimaryUser is the handle of the device owner's profile.
const PrimaryUser UserHandle = 0

// PkgID identifies an installed application. The package name and user
// handle are unique together.
type PkgID struct {
	PkgName string
	User    UserHandle
}

// String renders the id as "pkgname" for the primary profile and
// "pkgname@user" for every other profile.
func (id PkgID) String() string {
	if id.User == PrimaryUser {
		return id.PkgName
	}
	return fmt.Sprintf("%s@%d", id.PkgName, id.User)
}

// ParsePkgID parses the String form: "pkgname" or "pkgname@user".
func ParsePkgID(s string) (PkgID, error) {
	s = strings.TrimSpace(s)
	name, user, found := strings.Cut(s, "@")
	if name == "" {
		return PkgID{}, fmt.Errorf("invalid package id %q", s)
	}
	if !found {
		return PkgID{PkgName: name}, nil
	}
	n, err := strconv.Atoi(user)
	if err != nil || n < 0 {
		return PkgID{}, fmt.Errorf("invalid user handle in package id %q", s)
	}
	return PkgID{PkgName: name, User: UserHandle(n)}, nil
}

// Compare orders ids by package name, then user handle.
func (id PkgID) Compare(other PkgID) int {
	switch {
	case id.PkgName < other.PkgName:
		return -1
	case id.PkgName > other.PkgName:
		return 1
	case id.User < other.User:
		return -1
	case id.User > other.User:
		return 1
	}
	return 0
}

// Pkg is an installed application record. Records are produced wholesale by
// the scanner on each refresh and never mutated afterwards.
type Pkg struct {
	ID          PkgID
	Label       string // may be empty; see DisplayLabel
	IsSystemApp bool
	Installer   *InstallerInfo
	InstalledAt time.Time
	UpdatedAt   time.Time
	VersionName string
	VersionCode int64
	APILevels   APILevels

	// SharedUserID is the OS-level shared identity, empty when the
	// package does not share one.
	SharedUserID string

	Requested []UsesPermission
	Declared  []DeclaredPermission

	// Twins are the same package installed under other profiles.
	Twins []PkgID
	// Siblings are other packages sharing SharedUserID on the same profile.
	Siblings []PkgID

	InternetAccess InternetAccess
}

// APILevels holds the SDK levels from the package manifest. Zero means unknown.
type APILevels struct {
	Target  int
	Minimum int
	Compile int
}

// DisplayLabel returns the label, falling back to the package name.
func (p *Pkg) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID.PkgName
}

// Uses returns the usage edge for the given permission id.
func (p *Pkg) Uses(permissionID string) (UsesPermission, bool) {
	for _, u := range p.Requested {
		if u.ID == permissionID {
			return u, true
		}
	}
	return UsesPermission{}, false
}

// Declares reports whether the package's own manifest declares the given
// permission id.
func (p *Pkg) Declares(permissionID string) bool {
	for _, d := range p.Declared {
		if d.Name == permissionID {
			return true
		}
	}
	return false
}

// DeclaredPermission is a permission definition found in a package manifest.
type DeclaredPermission struct {
	Name            string
	ProtectionType  string   // "normal", "dangerous", "signature", "appop", "internal", ...
	ProtectionFlags []string // e.g. "privileged", "development", "appop"
	Group           string
}

// InstallerInfo describes which packages were involved in installing an app.
type InstallerInfo struct {
	Installing  *PkgID
	Initiating  *PkgID
	Originating *PkgID
	UpdateOwner *PkgID
}

// AllInstallers returns the distinct installer ids in the order
// installing, initiating, originating, update owner.
func (i *InstallerInfo) AllInstallers() []PkgID {
	if i == nil {
		return nil
	}

	var out []PkgID
	seen := make(map[PkgID]bool)
	for _, id := range []*PkgID{i.Installing, i.Initiating, i.Originating, i.UpdateOwner} {
		if id == nil || seen[*id] {
			continue
		}
		seen[*id] = true
		out = append(out, *id)
	}
	return out
}

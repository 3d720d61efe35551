package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/permscope/internal/apps"
)

// dump is the on-disk inventory format. JSON dumps parse as well since
// JSON is a subset of YAML.
type dump struct {
	Apps []appEntry `yaml:"apps"`
}

type appEntry struct {
	Package      string          `yaml:"package"`
	User         int             `yaml:"user"`
	Label        string          `yaml:"label"`
	System       bool            `yaml:"system"`
	Installer    *installerEntry `yaml:"installer"`
	InstalledAt  string          `yaml:"installed_at"`
	UpdatedAt    string          `yaml:"updated_at"`
	VersionName  string          `yaml:"version_name"`
	VersionCode  int64           `yaml:"version_code"`
	API          apiEntry        `yaml:"api"`
	SharedUserID string          `yaml:"shared_user_id"`
	Requested    *[]requestEntry `yaml:"requested"`
	Declared     []declaredEntry `yaml:"declared"`
}

type installerEntry struct {
	Installing  string `yaml:"installing"`
	Initiating  string `yaml:"initiating"`
	Originating string `yaml:"originating"`
	UpdateOwner string `yaml:"update_owner"`
}

type apiEntry struct {
	Target  int `yaml:"target"`
	Minimum int `yaml:"minimum"`
	Compile int `yaml:"compile"`
}

type requestEntry struct {
	ID     string `yaml:"id"`
	Status string `yaml:"status"`
	Flags  *int   `yaml:"flags"`
}

type declaredEntry struct {
	Name       string   `yaml:"name"`
	Protection string   `yaml:"protection"`
	Flags      []string `yaml:"flags"`
	Group      string   `yaml:"group"`
}

// Parse decodes an inventory dump and derives twins, siblings and internet
// access. Apps without a package name, duplicate (package, user) pairs,
// permissions requested twice by one app, unknown status names and
// malformed timestamps are errors.
func Parse(data []byte) ([]*apps.Pkg, error) {
	var d dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}

	pkgs := make([]*apps.Pkg, 0, len(d.Apps))
	seen := make(map[apps.PkgID]bool, len(d.Apps))
	requested := make(map[apps.PkgID]bool, len(d.Apps))

	for i, entry := range d.Apps {
		pkg, err := entry.toPkg()
		if err != nil {
			return nil, fmt.Errorf("app %d: %w", i, err)
		}
		if seen[pkg.ID] {
			return nil, fmt.Errorf("app %d: duplicate package %s", i, pkg.ID)
		}
		seen[pkg.ID] = true
		requested[pkg.ID] = entry.Requested != nil
		pkgs = append(pkgs, pkg)
	}

	derive(pkgs, requested)
	return pkgs, nil
}

func (e *appEntry) toPkg() (*apps.Pkg, error) {
	name := strings.TrimSpace(e.Package)
	if name == "" {
		return nil, fmt.Errorf("missing package name")
	}
	if e.User < 0 {
		return nil, fmt.Errorf("%s: invalid user handle %d", name, e.User)
	}

	user := apps.UserHandle(e.User)
	pkg := &apps.Pkg{
		ID:          apps.PkgID{PkgName: name, User: user},
		Label:       strings.TrimSpace(e.Label),
		IsSystemApp: e.System,
		VersionName: e.VersionName,
		VersionCode: e.VersionCode,
		APILevels: apps.APILevels{
			Target:  e.API.Target,
			Minimum: e.API.Minimum,
			Compile: e.API.Compile,
		},
		SharedUserID: strings.TrimSpace(e.SharedUserID),
	}

	var err error
	if pkg.InstalledAt, err = parseTime(e.InstalledAt); err != nil {
		return nil, fmt.Errorf("%s: installed_at: %w", name, err)
	}
	if pkg.UpdatedAt, err = parseTime(e.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: updated_at: %w", name, err)
	}

	if e.Installer != nil {
		info := &apps.InstallerInfo{
			Installing:  installerID(e.Installer.Installing, user),
			Initiating:  installerID(e.Installer.Initiating, user),
			Originating: installerID(e.Installer.Originating, user),
			UpdateOwner: installerID(e.Installer.UpdateOwner, user),
		}
		if len(info.AllInstallers()) > 0 {
			pkg.Installer = info
		}
	}

	if e.Requested != nil {
		ids := make(map[string]bool, len(*e.Requested))
		for _, r := range *e.Requested {
			id := strings.TrimSpace(r.ID)
			if id == "" {
				return nil, fmt.Errorf("%s: requested permission without id", name)
			}
			if ids[id] {
				return nil, fmt.Errorf("%s: duplicate requested permission %s", name, id)
			}
			ids[id] = true
			status, err := apps.ParseStatus(r.Status)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", name, id, err)
			}
			pkg.Requested = append(pkg.Requested, apps.UsesPermission{ID: id, Status: status, Flags: r.Flags})
		}
	}

	for _, d := range e.Declared {
		id := strings.TrimSpace(d.Name)
		if id == "" {
			return nil, fmt.Errorf("%s: declared permission without name", name)
		}
		pkg.Declared = append(pkg.Declared, apps.DeclaredPermission{
			Name:            id,
			ProtectionType:  strings.ToLower(strings.TrimSpace(d.Protection)),
			ProtectionFlags: d.Flags,
			Group:           d.Group,
		})
	}

	return pkg, nil
}

// installerID resolves an installer package name on the app's own profile.
func installerID(name string, user apps.UserHandle) *apps.PkgID {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &apps.PkgID{PkgName: name, User: user}
}

// parseTime accepts RFC 3339 timestamps and unix milliseconds. Empty is
// the zero time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (want RFC 3339 or unix milliseconds)", s)
}

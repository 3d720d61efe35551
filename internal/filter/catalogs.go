package filter

import (
	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/resolve"
)

// AppKey names an app list filter.
type AppKey string

const (
	AppSystem       AppKey = "system"
	AppUser         AppKey = "user"
	AppInternet     AppKey = "internet"
	AppNoInternet   AppKey = "no-internet"
	AppNoInstaller  AppKey = "no-installer"
	AppSideloaded   AppKey = "sideloaded"
	AppMultiProfile AppKey = "multi-profile"
	AppSharedID     AppKey = "shared-id"
)

// AppFilters is the closed catalog of app list filters.
var AppFilters = Table[AppKey, *resolve.AppResolution]{
	AppSystem: {"system apps only", func(a *resolve.AppResolution) bool {
		return a.Pkg.IsSystemApp
	}},
	AppUser: {"user apps only", func(a *resolve.AppResolution) bool {
		return !a.Pkg.IsSystemApp
	}},
	AppInternet: {"has internet access", func(a *resolve.AppResolution) bool {
		return a.Pkg.InternetAccess == apps.InternetDirect || a.Pkg.InternetAccess == apps.InternetIndirect
	}},
	AppNoInternet: {"no internet access", func(a *resolve.AppResolution) bool {
		return a.Pkg.InternetAccess == apps.InternetNone
	}},
	AppNoInstaller: {"no installer recorded", func(a *resolve.AppResolution) bool {
		return !a.Pkg.HasInstaller()
	}},
	AppSideloaded: {"installed outside an app store", func(a *resolve.AppResolution) bool {
		return a.Pkg.IsSideloaded()
	}},
	AppMultiProfile: {"installed in more than one profile", func(a *resolve.AppResolution) bool {
		return len(a.Pkg.Twins) > 0
	}},
	AppSharedID: {"shares an OS identity with other apps", func(a *resolve.AppResolution) bool {
		return len(a.Pkg.Siblings) > 0
	}},
}

// PermKey names a permission list filter.
type PermKey string

const (
	PermDeclared      PermKey = "declared"
	PermExtra         PermKey = "extra"
	PermUnknown       PermKey = "unknown"
	PermRuntime       PermKey = "runtime"
	PermInstallTime   PermKey = "install-time"
	PermSpecialAccess PermKey = "special-access"
	PermHighlighted   PermKey = "highlighted"
	PermManifestDoc   PermKey = "manifest-doc"
	PermNonStandard   PermKey = "non-standard"
	PermRequested     PermKey = "requested"
	PermGranted       PermKey = "granted"
)

func permVariant(v perms.Variant) Predicate[*resolve.PermResolution] {
	return Predicate[*resolve.PermResolution]{v.String() + " permissions", func(p *resolve.PermResolution) bool {
		return perms.VariantOf(p.Permission) == v
	}}
}

func permTag(t perms.Tag) Predicate[*resolve.PermResolution] {
	return Predicate[*resolve.PermResolution]{"tagged " + t.String(), func(p *resolve.PermResolution) bool {
		return p.Permission.Base().Tags.Has(t)
	}}
}

// PermFilters is the closed catalog of permission list filters.
var PermFilters = Table[PermKey, *resolve.PermResolution]{
	PermDeclared:      permVariant(perms.VariantDeclared),
	PermExtra:         permVariant(perms.VariantExtra),
	PermUnknown:       permVariant(perms.VariantUnknown),
	PermRuntime:       permTag(perms.RuntimeGrant),
	PermInstallTime:   permTag(perms.InstallTimeGrant),
	PermSpecialAccess: permTag(perms.SpecialAccess),
	PermHighlighted:   permTag(perms.Highlighted),
	PermManifestDoc:   permTag(perms.ManifestDoc),
	PermNonStandard:   permTag(perms.NotNormalPerm),
	PermRequested: {"requested by at least one app", func(p *resolve.PermResolution) bool {
		return p.RequestingCount() > 0
	}},
	PermGranted: {"granted to at least one app", func(p *resolve.PermResolution) bool {
		return p.GrantedCount() > 0
	}},
}

// EdgeKey names a filter over one app's permission rows.
type EdgeKey string

const (
	EdgeGranted       EdgeKey = "granted"
	EdgeDenied        EdgeKey = "denied"
	EdgeRuntime       EdgeKey = "runtime"
	EdgeSpecialAccess EdgeKey = "special-access"
	EdgeDeclaredByApp EdgeKey = "declared-by-app"
	EdgeConfigurable  EdgeKey = "configurable"
)

// EdgeFilters is the closed catalog of app detail filters.
var EdgeFilters = Table[EdgeKey, resolve.Edge]{
	EdgeGranted: {"granted only", func(e resolve.Edge) bool {
		return e.Status.IsGranted()
	}},
	EdgeDenied: {"denied only", func(e resolve.Edge) bool {
		return e.Status == apps.StatusDenied
	}},
	EdgeRuntime:       {"runtime permissions", resolve.Edge.IsRuntime},
	EdgeSpecialAccess: {"special access permissions", resolve.Edge.IsSpecialAccess},
	EdgeDeclaredByApp: {"declared by the app itself", func(e resolve.Edge) bool {
		return e.DeclaredByApp
	}},
	EdgeConfigurable: {"user-configurable permissions", func(e resolve.Edge) bool {
		return e.IsRuntime() || e.IsSpecialAccess()
	}},
}

// EdgeBypass keeps edges whose grant state or definition is unknown.
func EdgeBypass(e resolve.Edge) bool {
	return e.Status == apps.StatusUnknown || !e.Resolved()
}

// RequesterKey names a filter over a permission's requesting apps.
type RequesterKey string

const (
	RequesterUser    RequesterKey = "user"
	RequesterSystem  RequesterKey = "system"
	RequesterGranted RequesterKey = "granted"
)

// RequesterFilters is the closed catalog of permission detail filters.
var RequesterFilters = Table[RequesterKey, resolve.Requester]{
	RequesterUser: {"user apps only", func(r resolve.Requester) bool {
		return !r.Pkg.IsSystemApp
	}},
	RequesterSystem: {"system apps only", func(r resolve.Requester) bool {
		return r.Pkg.IsSystemApp
	}},
	RequesterGranted: {"granted only", func(r resolve.Requester) bool {
		return r.Status.IsGranted()
	}},
}

// RequesterBypass keeps requesters whose grant state is unknown.
func RequesterBypass(r resolve.Requester) bool {
	return r.Status == apps.StatusUnknown
}

package apps

// InternetAccess classifies how an app can reach the network.
type InternetAccess int

const (
	InternetUnknown InternetAccess = iota
	InternetDirect
	InternetIndirect // through a sibling sharing the same identity
	InternetNone
)

func (a InternetAccess) String() string {
	switch a {
	case InternetDirect:
		return "direct"
	case InternetIndirect:
		return "indirect"
	case InternetNone:
		return "none"
	default:
		return "unknown"
	}
}

// Well-known permission ids the app model itself needs.
const (
	PermInternet               = "android.permission.INTERNET"
	PermRequestInstallPackages = "android.permission.REQUEST_INSTALL_PACKAGES"
	PermSystemAlertWindow      = "android.permission.SYSTEM_ALERT_WINDOW"
)

// storeInstallers are installer packages that count as an app store.
var storeInstallers = map[string]bool{
	"com.android.vending":             true, // Google Play
	"com.sec.android.app.samsungapps": true,
	"com.amazon.venezia":              true,
	"com.huawei.appmarket":            true,
	"org.fdroid.fdroid":               true,
	"com.aurora.store":                true,
}

// IsStoreInstaller reports whether pkgName is a known app store.
func IsStoreInstaller(pkgName string) bool {
	return storeInstallers[pkgName]
}

// IsSideloaded reports whether a non-system app was installed by something
// other than a known app store.
func (p *Pkg) IsSideloaded() bool {
	if p.IsSystemApp {
		return false
	}
	if p.Installer == nil || p.Installer.Installing == nil {
		return true
	}
	return !IsStoreInstaller(p.Installer.Installing.PkgName)
}

// HasInstaller reports whether any installer package is known for the app.
func (p *Pkg) HasInstaller() bool {
	return len(p.Installer.AllInstallers()) > 0
}

// IsGranted reports whether the app holds the permission in a granted state.
func (p *Pkg) IsGranted(permissionID string) bool {
	u, ok := p.Uses(permissionID)
	return ok && u.IsGranted()
}

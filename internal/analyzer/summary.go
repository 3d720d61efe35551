// Package analyzer derives device-level statistics from an app snapshot.
package analyzer

import (
	"github.com/blackwell-systems/permscope/internal/apps"
)

// Split counts apps separately for user and system installs.
type Split struct {
	User   int
	System int
}

// Total returns User + System.
func (s Split) Total() int { return s.User + s.System }

func (s *Split) add(pkg *apps.Pkg) {
	if pkg.IsSystemApp {
		s.System++
	} else {
		s.User++
	}
}

// Summary is the overview of one snapshot.
type Summary struct {
	SnapshotID apps.SnapshotID

	ActiveProfile Split // apps installed for the active user handle
	OtherProfiles Split

	Sideloaded        int
	InstallerApps     Split // REQUEST_INSTALL_PACKAGES granted
	SystemAlertWindow Split // SYSTEM_ALERT_WINDOW granted
	NoInternet        Split // no direct internet access
	Clones            Split // installed in more than one profile
	SharedIDs         Split // share an OS identity with other apps
}

// Summarize computes the overview for snap, treating active as the
// current profile.
func Summarize(snap *apps.Snapshot, active apps.UserHandle) Summary {
	s := Summary{SnapshotID: snap.ID}

	for _, pkg := range snap.Pkgs {
		if pkg.ID.User == active {
			s.ActiveProfile.add(pkg)
		} else {
			s.OtherProfiles.add(pkg)
		}

		if pkg.IsSideloaded() {
			s.Sideloaded++
		}
		if pkg.IsGranted(apps.PermRequestInstallPackages) {
			s.InstallerApps.add(pkg)
		}
		if pkg.IsGranted(apps.PermSystemAlertWindow) {
			s.SystemAlertWindow.add(pkg)
		}
		if pkg.InternetAccess != apps.InternetDirect {
			s.NoInternet.add(pkg)
		}
		if len(pkg.Twins) > 0 {
			s.Clones.add(pkg)
		}
		if len(pkg.Siblings) > 0 {
			s.SharedIDs.add(pkg)
		}
	}

	return s
}

package scanner

import (
	"slices"

	"github.com/blackwell-systems/permscope/internal/apps"
)

// derive fills in the relations between records: twins are the same
// package on other profiles, siblings share a shared user id on the same
// profile. hasRequested marks apps whose dump carried a requested list at
// all; the rest get InternetUnknown.
func derive(pkgs []*apps.Pkg, hasRequested map[apps.PkgID]bool) {
	byName := make(map[string][]apps.PkgID)
	type sharedKey struct {
		id   string
		user apps.UserHandle
	}
	byShared := make(map[sharedKey][]*apps.Pkg)

	for _, p := range pkgs {
		byName[p.ID.PkgName] = append(byName[p.ID.PkgName], p.ID)
		if p.SharedUserID != "" {
			k := sharedKey{p.SharedUserID, p.ID.User}
			byShared[k] = append(byShared[k], p)
		}
	}

	for _, p := range pkgs {
		p.Twins = nil
		for _, id := range byName[p.ID.PkgName] {
			if id != p.ID {
				p.Twins = append(p.Twins, id)
			}
		}
		slices.SortFunc(p.Twins, apps.PkgID.Compare)

		p.Siblings = nil
		if p.SharedUserID != "" {
			for _, s := range byShared[sharedKey{p.SharedUserID, p.ID.User}] {
				if s.ID != p.ID {
					p.Siblings = append(p.Siblings, s.ID)
				}
			}
			slices.SortFunc(p.Siblings, apps.PkgID.Compare)
		}
	}

	index := make(map[apps.PkgID]*apps.Pkg, len(pkgs))
	for _, p := range pkgs {
		index[p.ID] = p
	}
	for _, p := range pkgs {
		p.InternetAccess = internetAccess(p, hasRequested[p.ID], index)
	}
}

// internetAccess is Direct when the app holds a granted INTERNET itself,
// Indirect when a sibling does, None otherwise. Without a requested list it is
// Unknown.
func internetAccess(p *apps.Pkg, hasRequested bool, index map[apps.PkgID]*apps.Pkg) apps.InternetAccess {
	if !hasRequested {
		return apps.InternetUnknown
	}
	if p.IsGranted(apps.PermInternet) {
		return apps.InternetDirect
	}
	for _, id := range p.Siblings {
		if s := index[id]; s != nil {
			if s.IsGranted(apps.PermInternet) {
				return apps.InternetIndirect
			}
		}
	}
	return apps.InternetNone
}

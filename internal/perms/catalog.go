package perms

import (
	"sort"
	"strings"

	"github.com/blackwell-systems/permscope/internal/apps"
)

// Catalog is a versioned list of permission definitions, annotated with the
// app snapshot id it was resolved against.
type Catalog struct {
	BasedOn     apps.SnapshotID
	Permissions []Permission
}

// Index returns a lookup map from permission id to definition.
func (c *Catalog) Index() map[ID]Permission {
	idx := make(map[ID]Permission, len(c.Permissions))
	for _, p := range c.Permissions {
		idx[p.Base().ID] = p
	}
	return idx
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id ID) (Permission, bool) {
	for _, p := range c.Permissions {
		if p.Base().ID == id {
			return p, true
		}
	}
	return nil, false
}

// BuildCatalog derives the permission catalog from an app snapshot.
//
// Permissions declared by any app become Declared (the first declaration
// in snapshot order supplies protection data). Known definitions not
// declared by any app become Extra. Requested ids with no definition
// become Unknown. The result is sorted by id and echoes the snapshot id.
func BuildCatalog(snapshot *apps.Snapshot, known []Known) *Catalog {
	knownByID := make(map[ID]Known, len(known))
	for _, k := range known {
		knownByID[k.ID] = k
	}

	byID := make(map[ID]Permission)

	for _, pkg := range snapshot.Pkgs {
		for _, decl := range pkg.Declared {
			if _, exists := byID[decl.Name]; exists {
				continue
			}
			byID[decl.Name] = newDeclared(decl, knownByID)
		}
	}

	for _, k := range known {
		if _, exists := byID[k.ID]; exists {
			continue
		}
		byID[k.ID] = &Extra{Base: Base{ID: k.ID, Label: k.Label, Tags: k.Tags, Groups: cloneGroups(k.Groups)}}
	}

	for _, pkg := range snapshot.Pkgs {
		for _, use := range pkg.Requested {
			if _, exists := byID[use.ID]; exists {
				continue
			}
			byID[use.ID] = &Unknown{Base: Base{ID: use.ID}}
		}
	}

	catalog := &Catalog{
		BasedOn:     snapshot.ID,
		Permissions: make([]Permission, 0, len(byID)),
	}
	for _, p := range byID {
		catalog.Permissions = append(catalog.Permissions, p)
	}
	sort.Slice(catalog.Permissions, func(i, j int) bool {
		return catalog.Permissions[i].Base().ID < catalog.Permissions[j].Base().ID
	})

	return catalog
}

func newDeclared(decl apps.DeclaredPermission, known map[ID]Known) *Declared {
	p := &Declared{
		Base:            Base{ID: decl.Name},
		ProtectionType:  strings.ToLower(decl.ProtectionType),
		ProtectionFlags: append([]string(nil), decl.ProtectionFlags...),
	}

	if k, ok := known[decl.Name]; ok {
		p.Label = k.Label
		p.Tags = k.Tags
		p.Groups = cloneGroups(k.Groups)
	}
	p.Tags |= tagsForProtection(p.ProtectionType, p.ProtectionFlags)

	if g, ok := groupForManifest[decl.Group]; ok && !InGroup(p, g) {
		p.Groups = append(p.Groups, g)
	}

	return p
}

// tagsForProtection derives tags from manifest protection data.
func tagsForProtection(protectionType string, flags []string) Tags {
	var tags Tags

	switch protectionType {
	case "dangerous":
		tags = tags.With(RuntimeGrant)
	case "normal", "":
		tags = tags.With(InstallTimeGrant)
	case "appop":
		tags = tags.With(SpecialAccess)
	}
	for _, f := range flags {
		if strings.EqualFold(f, "appop") {
			tags = tags.With(SpecialAccess)
		}
	}

	if protectionType != "normal" && protectionType != "" {
		tags = tags.With(NotNormalPerm)
	}

	return tags
}

func cloneGroups(g []GroupID) []GroupID {
	if len(g) == 0 {
		return nil
	}
	return append([]GroupID(nil), g...)
}

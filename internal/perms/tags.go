package perms

import (
	"fmt"
	"strings"
)

// Tag is a permission classification tag from a fixed set.
type Tag uint8

const (
	RuntimeGrant Tag = 1 << iota
	InstallTimeGrant
	SpecialAccess
	ManifestDoc
	Highlighted
	NotNormalPerm
)

// tagOrder is the display order of tags.
var tagOrder = []Tag{RuntimeGrant, SpecialAccess, InstallTimeGrant, ManifestDoc, Highlighted, NotNormalPerm}

var tagNames = map[Tag]string{
	RuntimeGrant:     "runtime",
	InstallTimeGrant: "install-time",
	SpecialAccess:    "special-access",
	ManifestDoc:      "manifest-doc",
	Highlighted:      "highlighted",
	NotNormalPerm:    "non-standard",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// ParseTag parses a tag name as produced by Tag.String.
func ParseTag(s string) (Tag, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range tagOrder {
		if tagNames[t] == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid permission tag %q", s)
}

// Tags is a set of tags.
type Tags uint8

// NewTags builds a tag set.
func NewTags(tags ...Tag) Tags {
	var ts Tags
	for _, t := range tags {
		ts |= Tags(t)
	}
	return ts
}

// Has reports whether t is in the set.
func (ts Tags) Has(t Tag) bool {
	return ts&Tags(t) != 0
}

// With returns the set with t added.
func (ts Tags) With(t Tag) Tags {
	return ts | Tags(t)
}

// List returns the tags in display order.
func (ts Tags) List() []Tag {
	var out []Tag
	for _, t := range tagOrder {
		if ts.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (ts Tags) String() string {
	names := make([]string, 0, len(tagOrder))
	for _, t := range ts.List() {
		names = append(names, t.String())
	}
	return strings.Join(names, ",")
}

// Package perms models permission definitions and builds the permission
// catalog from an app inventory snapshot.
//
// A definition is one of three variants:
//   - Declared: declared by at least one scanned app; carries protection data
//   - Extra: known to permscope but not declared by any scanned app
//   - Unknown: requested by some app with no definition anywhere
//
// Permission is a sealed interface so every switch over the variants is
// exhaustive within this module.
package perms

import "fmt"

// ID is a permission identity, e.g. "android.permission.CAMERA".
type ID = string

// Permission is a permission definition. Implemented only by *Declared,
// *Extra and *Unknown.
type Permission interface {
	Base() *Base
	isPermission()
}

// Base holds the fields shared by all variants.
type Base struct {
	ID     ID
	Label  string // empty when no label is known
	Tags   Tags
	Groups []GroupID
}

// Declared is a permission declared in the manifest of a scanned app.
type Declared struct {
	Base
	ProtectionType  string
	ProtectionFlags []string
}

// Extra is a known permission no scanned app declares.
type Extra struct {
	Base
}

// Unknown is a permission referenced by an app with no known definition.
type Unknown struct {
	Base
}

func (p *Declared) Base() *Base { return &p.Base }
func (p *Extra) Base() *Base    { return &p.Base }
func (p *Unknown) Base() *Base  { return &p.Base }

func (*Declared) isPermission() {}
func (*Extra) isPermission()    {}
func (*Unknown) isPermission()  {}

// Variant names the permission's variant.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantExtra
	VariantDeclared
)

func (v Variant) String() string {
	switch v {
	case VariantDeclared:
		return "declared"
	case VariantExtra:
		return "extra"
	default:
		return "unknown"
	}
}

// VariantOf returns the variant of p. A nil permission is VariantUnknown.
func VariantOf(p Permission) Variant {
	switch p.(type) {
	case *Declared:
		return VariantDeclared
	case *Extra:
		return VariantExtra
	case *Unknown, nil:
		return VariantUnknown
	default:
		panic(fmt.Sprintf("perms: unhandled permission variant %T", p))
	}
}

// Rank orders variants for display: Declared 2, Extra 1, Unknown 0.
func Rank(p Permission) int {
	return int(VariantOf(p))
}

// DisplayLabel returns the label, falling back to the id.
func DisplayLabel(p Permission) string {
	b := p.Base()
	if b.Label != "" {
		return b.Label
	}
	return b.ID
}

// ShortName returns the last dot-separated segment of the id.
func ShortName(id ID) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return id[i+1:]
		}
	}
	return id
}

// InGroup reports whether p is a member of group.
func InGroup(p Permission, group GroupID) bool {
	for _, g := range p.Base().Groups {
		if g == group {
			return true
		}
	}
	return false
}

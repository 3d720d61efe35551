package grouping

import (
	"sort"

	"github.com/blackwell-systems/permscope/internal/perms"
)

// Expansion is an immutable, versioned map of expanded groups. Absent
// groups are collapsed. Every change returns a new value with a higher
// version.
type Expansion struct {
	version  uint64
	expanded map[perms.GroupID]bool
}

// NewExpansion returns an expansion with the given groups expanded.
func NewExpansion(expanded ...perms.GroupID) Expansion {
	e := Expansion{}
	if len(expanded) > 0 {
		e.expanded = make(map[perms.GroupID]bool, len(expanded))
		for _, id := range expanded {
			e.expanded[id] = true
		}
	}
	return e
}

// Version increases with every change.
func (e Expansion) Version() uint64 { return e.version }

// IsExpanded reports whether id is expanded. Defaults to false.
func (e Expansion) IsExpanded(id perms.GroupID) bool {
	return e.expanded[id]
}

// Expanded returns the expanded group ids in sorted order.
func (e Expansion) Expanded() []perms.GroupID {
	ids := make([]perms.GroupID, 0, len(e.expanded))
	for id, on := range e.expanded {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Toggle flips one group and leaves every other group unchanged.
func (e Expansion) Toggle(id perms.GroupID) Expansion {
	next := e.clone()
	if next.expanded[id] {
		delete(next.expanded, id)
	} else {
		next.expanded[id] = true
	}
	return next
}

// ExpandAll expands every id in ids.
func (e Expansion) ExpandAll(ids []perms.GroupID) Expansion {
	next := e.clone()
	for _, id := range ids {
		next.expanded[id] = true
	}
	return next
}

// CollapseAll clears the map.
func (e Expansion) CollapseAll() Expansion {
	return Expansion{version: e.version + 1}
}

func (e Expansion) clone() Expansion {
	next := Expansion{
		version:  e.version + 1,
		expanded: make(map[perms.GroupID]bool, len(e.expanded)+1),
	}
	for id, on := range e.expanded {
		if on {
			next.expanded[id] = true
		}
	}
	return next
}

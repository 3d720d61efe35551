// Package grouping partitions a sorted permission list into named groups
// and linearizes it into headers and members according to an Expansion.
package grouping

import (
	"sort"

	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/sorting"
)

// Header describes one non-empty group in a listing.
type Header struct {
	Group    perms.Group
	Count    int
	Expanded bool
}

// Row is a group header (Header non-nil) or a member item.
type Row[T any] struct {
	Header *Header
	Group  perms.GroupID
	Item   T
}

// IsHeader reports whether the row is a group header.
func (r Row[T]) IsHeader() bool { return r.Header != nil }

// Listing is the linearized output of the grouping engine.
type Listing[T any] struct {
	Rows []Row[T]

	// Counts cover every matched permission and non-empty group,
	// expanded or not.
	PermissionCount int
	GroupCount      int
}

// Headers returns the header of every non-empty group in order.
func (l Listing[T]) Headers() []Header {
	var out []Header
	for _, r := range l.Rows {
		if r.Header != nil {
			out = append(out, *r.Header)
		}
	}
	return out
}

// OrderedGroups returns the named groups sorted by label, with the
// catch-all group last.
func OrderedGroups() []perms.Group {
	groups := perms.Groups()
	coll := sorting.NewCollator()
	sort.SliceStable(groups, func(i, j int) bool {
		return sorting.CompareLabels(coll, groups[i].Label, groups[j].Label) < 0
	})
	return append(groups, perms.OtherGroup())
}

// Linearize places each item in the first group, in OrderedGroups order,
// that groupsOf lists for it; items matching no named group go to the
// catch-all group. It emits a header for each non-empty group followed by
// its members only when the group is expanded. Member order follows items.
func Linearize[T any](items []T, groupsOf func(T) []perms.GroupID, exp Expansion) Listing[T] {
	ordered := OrderedGroups()
	position := make(map[perms.GroupID]int, len(ordered))
	for i, g := range ordered {
		position[g.ID] = i
	}
	other := len(ordered) - 1

	buckets := make([][]T, len(ordered))
	for _, item := range items {
		slot := other
		for _, g := range groupsOf(item) {
			if p, ok := position[g]; ok && p < slot {
				slot = p
			}
		}
		buckets[slot] = append(buckets[slot], item)
	}

	listing := Listing[T]{PermissionCount: len(items)}
	for i, g := range ordered {
		members := buckets[i]
		if len(members) == 0 {
			continue
		}
		listing.GroupCount++

		expanded := exp.IsExpanded(g.ID)
		listing.Rows = append(listing.Rows, Row[T]{
			Header: &Header{Group: g, Count: len(members), Expanded: expanded},
			Group:  g.ID,
		})
		if !expanded {
			continue
		}
		for _, m := range members {
			listing.Rows = append(listing.Rows, Row[T]{Group: g.ID, Item: m})
		}
	}

	return listing
}

// NonEmptyGroups returns the ids of the groups a Linearize call over items
// would emit headers for, in listing order.
func NonEmptyGroups[T any](items []T, groupsOf func(T) []perms.GroupID) []perms.GroupID {
	listing := Linearize(items, groupsOf, Expansion{})
	ids := make([]perms.GroupID, 0, listing.GroupCount)
	for _, h := range listing.Headers() {
		ids = append(ids, h.Group.ID)
	}
	return ids
}

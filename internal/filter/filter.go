// Package filter applies closed sets of named predicates to resolved
// entities. Enabled predicates combine with logical AND; an empty set
// passes everything.
package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an immutable set of enabled filter keys. The zero value is the
// empty set.
type Set[K ~string] struct {
	keys []K // sorted, unique
}

// NewSet builds a set from keys. Duplicates are ignored.
func NewSet[K ~string](keys ...K) Set[K] {
	if len(keys) == 0 {
		return Set[K]{}
	}
	sorted := append([]K(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	out := sorted[:0]
	for i, k := range sorted {
		if i > 0 && k == sorted[i-1] {
			continue
		}
		out = append(out, k)
	}
	return Set[K]{keys: out}
}

// Has reports whether k is enabled.
func (s Set[K]) Has(k K) bool {
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= k })
	return i < len(s.keys) && s.keys[i] == k
}

// Len returns the number of enabled keys.
func (s Set[K]) Len() int { return len(s.keys) }

// Empty reports whether no key is enabled.
func (s Set[K]) Empty() bool { return len(s.keys) == 0 }

// Keys returns the enabled keys in sorted order.
func (s Set[K]) Keys() []K {
	return append([]K(nil), s.keys...)
}

// Toggle returns a copy of the set with k flipped.
func (s Set[K]) Toggle(k K) Set[K] {
	if s.Has(k) {
		out := make([]K, 0, len(s.keys)-1)
		for _, existing := range s.keys {
			if existing != k {
				out = append(out, existing)
			}
		}
		return Set[K]{keys: out}
	}
	return NewSet(append(s.Keys(), k)...)
}

// Equal reports whether both sets enable the same keys.
func (s Set[K]) Equal(other Set[K]) bool {
	if len(s.keys) != len(other.keys) {
		return false
	}
	for i := range s.keys {
		if s.keys[i] != other.keys[i] {
			return false
		}
	}
	return true
}

func (s Set[K]) String() string {
	names := make([]string, len(s.keys))
	for i, k := range s.keys {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}

// Predicate is a named test over T.
type Predicate[T any] struct {
	Description string
	Test        func(T) bool
}

// Table maps every key of a closed filter catalog to its predicate.
type Table[K ~string, T any] map[K]Predicate[T]

// Names returns the table's keys in sorted order.
func (t Table[K, T]) Names() []K {
	names := make([]K, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Pass reports whether item passes every enabled predicate.
func (t Table[K, T]) Pass(item T, set Set[K]) bool {
	for _, k := range set.keys {
		if p, ok := t[k]; ok && !p.Test(item) {
			return false
		}
	}
	return true
}

// Apply returns the items passing every enabled predicate, in input order.
// Items for which bypass returns true are kept without evaluation. A nil
// bypass bypasses nothing.
func Apply[K ~string, T any](items []T, set Set[K], table Table[K, T], bypass func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if set.Empty() || (bypass != nil && bypass(item)) || table.Pass(item, set) {
			out = append(out, item)
		}
	}
	return out
}

// ParseKeys converts key names to a Set, rejecting names missing from table.
func ParseKeys[K ~string, T any](table Table[K, T], names []string) (Set[K], error) {
	keys := make([]K, 0, len(names))
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			k := K(name)
			if _, ok := table[k]; !ok {
				return Set[K]{}, fmt.Errorf("invalid filter %q (valid: %s)", name, joinKeys(table.Names()))
			}
			keys = append(keys, k)
		}
	}
	return NewSet(keys...), nil
}

func joinKeys[K ~string](keys []K) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

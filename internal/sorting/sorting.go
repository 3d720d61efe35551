// Package sorting orders resolved entities by a key chosen from a closed
// catalog. Every comparator ends with an identity tie-break, so the order
// is total and deterministic.
package sorting

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Compare is a three-way comparator. The collator is owned by the caller
// for the duration of one sort.
type Compare[T any] func(c *collate.Collator, a, b T) int

// Catalog is a closed set of named comparators over T.
type Catalog[K ~string, T any] struct {
	Default  K
	keys     []K
	compare  map[K]Compare[T]
	identity func(a, b T) int
}

func newCatalog[K ~string, T any](def K, identity func(a, b T) int) *Catalog[K, T] {
	return &Catalog[K, T]{Default: def, compare: make(map[K]Compare[T]), identity: identity}
}

func (c *Catalog[K, T]) add(k K, fn Compare[T]) *Catalog[K, T] {
	c.keys = append(c.keys, k)
	c.compare[k] = fn
	return c
}

// Keys returns the catalog's keys in declaration order.
func (c *Catalog[K, T]) Keys() []K {
	return append([]K(nil), c.keys...)
}

// Parse resolves a key name. An empty name selects the default.
func (c *Catalog[K, T]) Parse(name string) (K, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return c.Default, nil
	}
	if _, ok := c.compare[K(name)]; ok {
		return K(name), nil
	}

	names := make([]string, len(c.keys))
	for i, k := range c.keys {
		names[i] = string(k)
	}
	var zero K
	return zero, fmt.Errorf("invalid sort key %q (valid: %s)", name, strings.Join(names, ", "))
}

// Comparator returns the full comparator for key, including the identity
// tie-break. Unknown keys fall back to the default.
func (c *Catalog[K, T]) Comparator(key K, coll *collate.Collator) func(a, b T) int {
	fn, ok := c.compare[key]
	if !ok {
		fn = c.compare[c.Default]
	}
	return func(a, b T) int {
		if r := fn(coll, a, b); r != 0 {
			return r
		}
		return c.identity(a, b)
	}
}

// Sort returns a new slice with items ordered by key.
func (c *Catalog[K, T]) Sort(items []T, key K) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, c.Comparator(key, NewCollator()))
	return out
}

// NewCollator returns a collator for display labels. Collators are not safe
// for concurrent use.
func NewCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// CompareLabels orders labels by collation, falling back to byte order so
// distinct labels never compare equal.
func CompareLabels(c *collate.Collator, a, b string) int {
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

func ratio(granted, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(granted) / float64(total)
}

// desc inverts cmp.Compare.
func desc[T cmp.Ordered](a, b T) int {
	return cmp.Compare(b, a)
}

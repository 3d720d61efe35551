package settings

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/sorting"
)

func filterSetting[K ~string, T any](k Key, backend Backend, table filter.Table[K, T]) *Setting[filter.Set[K]] {
	return newSetting(k, filter.NewSet[K](), backend,
		func(values []string) (filter.Set[K], error) {
			return filter.ParseKeys(table, values)
		},
		func(v filter.Set[K]) []string {
			return toStrings(v.Keys())
		},
		toStrings(table.Names()),
	)
}

func sortSetting[K ~string, T any](k Key, backend Backend, catalog *sorting.Catalog[K, T]) *Setting[K] {
	return newSetting(k, catalog.Default, backend,
		func(values []string) (K, error) {
			switch len(values) {
			case 0:
				return catalog.Default, nil
			case 1:
				return catalog.Parse(values[0])
			}
			return catalog.Default, fmt.Errorf("a sort setting takes one key, got %d", len(values))
		},
		func(v K) []string {
			return []string{string(v)}
		},
		toStrings(catalog.Keys()),
	)
}

func expansionSetting(k Key, backend Backend) *Setting[grouping.Expansion] {
	return newSetting(k, grouping.NewExpansion(), backend,
		func(values []string) (grouping.Expansion, error) {
			var ids []perms.GroupID
			for _, raw := range values {
				for _, v := range strings.Split(raw, ",") {
					v = strings.TrimSpace(v)
					if v == "" {
						continue
					}
					id := perms.GroupID(v)
					if _, ok := perms.LookupGroup(id); !ok {
						return grouping.Expansion{}, fmt.Errorf("unknown permission group %q (valid: %v)", v, perms.AllGroupIDs())
					}
					ids = append(ids, id)
				}
			}
			return grouping.NewExpansion(ids...), nil
		},
		func(v grouping.Expansion) []string {
			return toStrings(v.Expanded())
		},
		toStrings(perms.AllGroupIDs()),
	)
}

func toStrings[K ~string](keys []K) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

// Package settings holds the per-view filter, sort and expansion values.
// Each value is replaced whole and persisted to the store on change.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/blackwell-systems/permscope/internal/codec"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/grouping"
	"github.com/blackwell-systems/permscope/internal/sorting"
	"github.com/blackwell-systems/permscope/internal/source"
	"github.com/blackwell-systems/permscope/internal/store"
)

// Key names a stored setting.
type Key string

const (
	AppsFilters        Key = "apps.filters"
	AppsSort           Key = "apps.sort"
	PermsFilters       Key = "perms.filters"
	PermsSort          Key = "perms.sort"
	PermsExpanded      Key = "perms.expanded"
	AppDetailsFilters  Key = "app-details.filters"
	PermDetailsFilters Key = "perm-details.filters"
)

// Backend persists encoded setting values. *store.Store implements it.
type Backend interface {
	PutSetting(key string, value []byte) error
	GetSetting(key string) ([]byte, error)
	DeleteSetting(key string) error
}

// entry is the untyped view of a Setting used by the key-based accessors.
type entry interface {
	key() Key
	values() []string
	set(values []string) error
	reset() error
	load() error
	choices() []string
	close()
}

// Setting is one persisted value. Subscribers receive the current value
// immediately and every replacement afterwards.
type Setting[T any] struct {
	k       Key
	def     T
	value   *source.Value[T]
	backend Backend
	parse   func([]string) (T, error)
	format  func(T) []string
	valid   []string

	mu sync.Mutex // serializes Put and Reset
}

func newSetting[T any](k Key, def T, backend Backend, parse func([]string) (T, error), format func(T) []string, valid []string) *Setting[T] {
	return &Setting[T]{
		k:       k,
		def:     def,
		value:   source.NewValue(def),
		backend: backend,
		parse:   parse,
		format:  format,
		valid:   valid,
	}
}

// Get returns the current value.
func (s *Setting[T]) Get() T { return s.value.Get() }

// Subscribe returns a channel of values and an unsubscribe function.
func (s *Setting[T]) Subscribe() (<-chan T, func()) { return s.value.Subscribe() }

// Put persists v and publishes it. Nothing is published when persisting
// fails.
func (s *Setting[T]) Put(v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		data, err := codec.Marshal(s.format(v))
		if err != nil {
			return fmt.Errorf("failed to encode setting %s: %w", s.k, err)
		}
		if err := s.backend.PutSetting(string(s.k), data); err != nil {
			return err
		}
	}
	s.value.Set(v)
	return nil
}

func (s *Setting[T]) key() Key          { return s.k }
func (s *Setting[T]) values() []string  { return s.format(s.Get()) }
func (s *Setting[T]) choices() []string { return s.valid }
func (s *Setting[T]) close()            { s.value.Close() }

func (s *Setting[T]) set(values []string) error {
	v, err := s.parse(values)
	if err != nil {
		return err
	}
	return s.Put(v)
}

func (s *Setting[T]) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend != nil {
		if err := s.backend.DeleteSetting(string(s.k)); err != nil {
			return err
		}
	}
	s.value.Set(s.def)
	return nil
}

// load reads the stored value. A missing key keeps the default.
func (s *Setting[T]) load() error {
	if s.backend == nil {
		return nil
	}
	data, err := s.backend.GetSetting(string(s.k))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var raw []string
	if err := codec.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode setting %s: %w", s.k, err)
	}
	v, err := s.parse(raw)
	if err != nil {
		return fmt.Errorf("stored setting %s: %w", s.k, err)
	}
	s.value.Set(v)
	return nil
}

// Settings is the full set of view settings.
type Settings struct {
	AppsFilters        *Setting[filter.Set[filter.AppKey]]
	AppsSort           *Setting[sorting.AppKey]
	PermsFilters       *Setting[filter.Set[filter.PermKey]]
	PermsSort          *Setting[sorting.PermKey]
	PermsExpanded      *Setting[grouping.Expansion]
	AppDetailsFilters  *Setting[filter.Set[filter.EdgeKey]]
	PermDetailsFilters *Setting[filter.Set[filter.RequesterKey]]

	entries map[Key]entry
}

// Open loads every setting from backend. A nil backend keeps settings in
// memory only. Stored values that no longer parse are logged and replaced
// by the default.
func Open(backend Backend, logger *slog.Logger) (*Settings, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Settings{
		AppsFilters:        filterSetting(AppsFilters, backend, filter.AppFilters),
		AppsSort:           sortSetting(AppsSort, backend, sorting.Apps),
		PermsFilters:       filterSetting(PermsFilters, backend, filter.PermFilters),
		PermsSort:          sortSetting(PermsSort, backend, sorting.Permissions),
		PermsExpanded:      expansionSetting(PermsExpanded, backend),
		AppDetailsFilters:  filterSetting(AppDetailsFilters, backend, filter.EdgeFilters),
		PermDetailsFilters: filterSetting(PermDetailsFilters, backend, filter.RequesterFilters),
	}
	s.entries = map[Key]entry{}
	for _, e := range []entry{
		s.AppsFilters, s.AppsSort, s.PermsFilters, s.PermsSort,
		s.PermsExpanded, s.AppDetailsFilters, s.PermDetailsFilters,
	} {
		s.entries[e.key()] = e
	}

	for _, k := range s.Keys() {
		if err := s.entries[k].load(); err != nil {
			if errors.Is(err, store.ErrNotInitialized) {
				return nil, err
			}
			logger.Warn("ignoring stored setting", "key", k, "error", err)
		}
	}
	return s, nil
}

// Keys returns every setting key in order.
func (s *Settings) Keys() []Key {
	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Values returns the current value of key as strings.
func (s *Settings) Values(key Key) ([]string, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.values(), nil
}

// Choices returns the accepted values for key.
func (s *Settings) Choices(key Key) ([]string, error) {
	e, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.choices(), nil
}

// Set parses values, replaces the setting and persists it.
func (s *Settings) Set(key Key, values []string) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	return e.set(values)
}

// Reset restores the default for key.
func (s *Settings) Reset(key Key) error {
	e, err := s.lookup(key)
	if err != nil {
		return err
	}
	return e.reset()
}

// Close ends every subscription.
func (s *Settings) Close() {
	for _, e := range s.entries {
		e.close()
	}
}

func (s *Settings) lookup(key Key) (entry, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q (valid: %v)", key, s.Keys())
	}
	return e, nil
}

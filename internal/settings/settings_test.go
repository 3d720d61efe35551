package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/permscope/internal/codec"
	"github.com/blackwell-systems/permscope/internal/filter"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/sorting"
	"github.com/blackwell-systems/permscope/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.CreateSchema())
	t.Cleanup(func() { st.Close() })
	return st
}

func TestDefaults(t *testing.T) {
	s, err := Open(nil, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.AppsFilters.Get().Empty())
	assert.Equal(t, sorting.AppLabel, s.AppsSort.Get())
	assert.Equal(t, sorting.PermID, s.PermsSort.Get())
	assert.Empty(t, s.PermsExpanded.Get().Expanded())
	assert.Len(t, s.Keys(), 7)
}

func TestPersistAcrossOpen(t *testing.T) {
	st := newTestStore(t)

	s, err := Open(st, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(AppsFilters, []string{"user,sideloaded"}))
	require.NoError(t, s.Set(PermsSort, []string{"granted"}))
	require.NoError(t, s.Set(PermsExpanded, []string{"camera", "location"}))
	s.Close()

	reopened, err := Open(st, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.AppsFilters.Get().Equal(filter.NewSet(filter.AppUser, filter.AppSideloaded)))
	assert.Equal(t, sorting.PermGranted, reopened.PermsSort.Get())
	assert.Equal(t, []perms.GroupID{perms.GroupCamera, perms.GroupLocation}, reopened.PermsExpanded.Get().Expanded())

	values, err := reopened.Values(AppsFilters)
	require.NoError(t, err)
	assert.Equal(t, []string{"sideloaded", "user"}, values)
}

func TestSetRejectsInvalidValues(t *testing.T) {
	s, err := Open(newTestStore(t), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorContains(t, s.Set(AppsFilters, []string{"bogus"}), "invalid filter")
	assert.ErrorContains(t, s.Set(AppsSort, []string{"bogus"}), "invalid sort key")
	assert.ErrorContains(t, s.Set(AppsSort, []string{"label", "package"}), "one key")
	assert.ErrorContains(t, s.Set(PermsExpanded, []string{"nope"}), "unknown permission group")
	assert.ErrorContains(t, s.Set("missing", nil), "unknown setting")

	assert.True(t, s.AppsFilters.Get().Empty(), "failed set must not publish")
}

func TestReset(t *testing.T) {
	st := newTestStore(t)
	s, err := Open(st, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AppsSort.Put(sorting.AppPackage))
	require.NoError(t, s.Reset(AppsSort))
	assert.Equal(t, sorting.AppLabel, s.AppsSort.Get())

	_, err = st.GetSetting(string(AppsSort))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvalidStoredValueFallsBackToDefault(t *testing.T) {
	st := newTestStore(t)
	data, err := codec.Marshal([]string{"no-such-sort"})
	require.NoError(t, err)
	require.NoError(t, st.PutSetting(string(AppsSort), data))
	require.NoError(t, st.PutSetting(string(PermsSort), []byte{0xff}))

	s, err := Open(st, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, sorting.AppLabel, s.AppsSort.Get())
	assert.Equal(t, sorting.PermID, s.PermsSort.Get())
}

func TestOpenWithoutSchema(t *testing.T) {
	st, err := store.New(":memory:")
	require.NoError(t, err)
	defer st.Close()

	_, err = Open(st, nil)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}

func TestSubscribeSeesReplacement(t *testing.T) {
	s, err := Open(nil, nil)
	require.NoError(t, err)
	defer s.Close()

	ch, unsubscribe := s.AppsSort.Subscribe()
	defer unsubscribe()

	assert.Equal(t, sorting.AppLabel, <-ch)
	require.NoError(t, s.AppsSort.Put(sorting.AppPermissions))

	select {
	case got := <-ch:
		assert.Equal(t, sorting.AppPermissions, got)
	case <-time.After(time.Second):
		t.Fatal("no value after Put")
	}
}

func TestChoices(t *testing.T) {
	s, err := Open(nil, nil)
	require.NoError(t, err)
	defer s.Close()

	choices, err := s.Choices(PermDetailsFilters)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user", "system", "granted"}, choices)
}

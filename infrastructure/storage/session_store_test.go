package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"e2e_harness/domain/entities"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *sessionStore {
	logger, _ := test.NewNullLogger()
	return &sessionStore{logger: logger}
}

func TestSessionRoundTrip(t *testing.T) {
	states := map[string]*entities.SessionState{
		"empty": {},
		"cookies only": {
			Cookies: []entities.Cookie{
				{Name: "enwikiSession", Value: "abc", Domain: ".wikipedia.org", Path: "/", Expires: -1, HTTPOnly: true, Secure: true, SameSite: "Lax"},
				{Name: "enwikiUserName", Value: "Alice", Domain: "en.wikipedia.org", Path: "/", Expires: 1893456000.5},
			},
		},
		"origin storage": {
			Cookies: []entities.Cookie{{Name: "GeoIP", Value: "NL:::", Domain: ".wikipedia.org", Path: "/", Expires: -1}},
			Origins: []entities.OriginStorage{
				{Origin: "https://en.wikipedia.org", LocalStorage: []entities.NameValue{
					{Name: "zeta", Value: "1"},
					{Name: "alpha", Value: "{\"nested\":\"json\"}"},
				}},
				{Origin: "https://www.wikipedia.org"},
			},
		},
	}

	store := newTestStore()
	for name, state := range states {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "auth", "login.json")
			require.NoError(t, store.Save(state, path))

			got, err := store.Load(path)
			require.NoError(t, err)
			require.NotNil(t, got)
			if diff := cmp.Diff(state, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("session changed across save/load (-want +got):\n%s", diff)
			}

			// saving what was loaded reproduces the same bytes
			first, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, store.Save(got, path))
			second, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestLoadAbsentFile(t *testing.T) {
	got, err := newTestStore().Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cookies": [`), 0o600))

	got, err := newTestStore().Load(path)
	assert.Nil(t, got)
	var ioErr *entities.SessionIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "load", ioErr.Op)
	assert.Equal(t, path, ioErr.Path)
}

func TestSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "login.json")
	store := newTestStore()

	old := &entities.SessionState{Cookies: []entities.Cookie{{Name: "old", Value: "1", Domain: "a.test", Path: "/", Expires: -1}}}
	fresh := &entities.SessionState{Cookies: []entities.Cookie{{Name: "new", Value: "2", Domain: "a.test", Path: "/", Expires: -1}}}
	require.NoError(t, store.Save(old, path))
	require.NoError(t, store.Save(fresh, path))

	got, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, "new", got.Cookies[0].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "login.json", entries[0].Name())
}

func TestSaveNilState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	err := newTestStore().Save(nil, path)

	var ioErr *entities.SessionIOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "save", ioErr.Op)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestSaveWritesArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	require.NoError(t, newTestStore().Save(&entities.SessionState{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cookies": [], "origins": []}`, string(data))
}

func TestLoadReturnsNonNilLists(t *testing.T) {
	store := newTestStore()
	path := filepath.Join(t.TempDir(), "login.json")
	require.NoError(t, store.Save(&entities.SessionState{Origins: []entities.OriginStorage{{Origin: "https://en.wikipedia.org"}}}, path))

	got, err := store.Load(path)
	require.NoError(t, err)
	want := &entities.SessionState{
		Cookies: []entities.Cookie{},
		Origins: []entities.OriginStorage{{Origin: "https://en.wikipedia.org", LocalStorage: []entities.NameValue{}}},
	}
	// already in loaded form, so the round trip is exact
	assert.Equal(t, want, got)
	require.NoError(t, store.Save(want, path))
	again, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

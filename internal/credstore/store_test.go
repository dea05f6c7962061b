package credstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	keyring.MockInit()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"memory":  NewMemoryStore(),
		"file":    NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json")),
		"sqlite":  sqliteStore,
		"keyring": NewKeyringStore("authdeck-test"),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(KeyAuthToken)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(KeyAuthToken, "token-1"))
			got, err := store.Get(KeyAuthToken)
			require.NoError(t, err)
			assert.Equal(t, "token-1", got)

			// overwrite keeps a single value
			require.NoError(t, store.Set(KeyAuthToken, "token-2"))
			got, err = store.Get(KeyAuthToken)
			require.NoError(t, err)
			assert.Equal(t, "token-2", got)

			require.NoError(t, store.Delete(KeyAuthToken))
			_, err = store.Get(KeyAuthToken)
			require.ErrorIs(t, err, ErrNotFound)

			// deleting an absent slot is not an error
			require.NoError(t, store.Delete(KeyAuthToken))
		})
	}
}

func TestStore_SlotsAreIndependent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(KeyRefreshToken, "refresh"))
			require.NoError(t, store.Set(KeySelectedLanguage, "ja"))

			require.NoError(t, DeleteAll(store, SessionKeys...))

			_, err := store.Get(KeyRefreshToken)
			assert.ErrorIs(t, err, ErrNotFound)

			lang, err := store.Get(KeySelectedLanguage)
			require.NoError(t, err)
			assert.Equal(t, "ja", lang)
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	require.NoError(t, NewFileStore(path).Set(KeyUserData, `{"id":"u1"}`))

	got, err := NewFileStore(path).Get(KeyUserData)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Get(KeyAuthToken)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "failed to parse credentials file")
}

func TestSQLiteStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(KeyAuthToken, "persisted"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestOpen(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	tests := []struct {
		backend string
		want    any
	}{
		{BackendFile, &FileStore{}},
		{BackendSQLite, &SQLiteStore{}},
		{BackendKeyring, &KeyringStore{}},
		{BackendMemory, &MemoryStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			store, err := Open(tt.backend, dir)
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
			if s, ok := store.(*SQLiteStore); ok {
				_ = s.Close()
			}
		})
	}

	_, err := Open("floppy", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown credential store "floppy"`)
}

// Package credstore persists the string slots that back a client session:
// the access token, the refresh token, the serialized user and the selected
// UI language. Several backends implement the same Store interface so the
// CLI can pick between a plain file, a sqlite database, the OS keychain or
// process memory.
package credstore

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Slot names shared by every backend
const (
	KeyAuthToken        = "authToken"
	KeyRefreshToken     = "refreshToken"
	KeyUserData         = "userData"
	KeySelectedLanguage = "selectedLanguage"
)

// SessionKeys are the slots written on sign-in and cleared on sign-out.
// The selected language survives a logout.
var SessionKeys = []string{KeyAuthToken, KeyRefreshToken, KeyUserData}

// ErrNotFound is returned by Get when a slot holds no value
var ErrNotFound = errors.New("credential slot not found")

// Store is a key-value surface for credential slots
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Backend names accepted by Open
const (
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Open returns the store for the named backend, rooted at dir where the
// backend keeps files on disk.
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendFile:
		return NewFileStore(filepath.Join(dir, "credentials.json")), nil
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "credentials.db"))
	case BackendKeyring:
		return NewKeyringStore(defaultKeyringService), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (expected file, sqlite, keyring or memory)", backend)
	}
}

// DeleteAll removes every given slot, continuing past failures and
// returning them joined.
func DeleteAll(s Store, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := s.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/authdeck/authdeck/internal/credstore"
)

// Credentials is the typed view of the session slots in a credential store
type Credentials struct {
	store credstore.Store
}

// NewCredentials wraps store
func NewCredentials(store credstore.Store) *Credentials {
	return &Credentials{store: store}
}

// Save writes the token, refresh token and serialized user. The three writes
// are not atomic; Load treats a partial set as no session.
func (c *Credentials) Save(token, refreshToken string, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := c.store.Set(credstore.KeyAuthToken, token); err != nil {
		return err
	}
	if err := c.store.Set(credstore.KeyRefreshToken, refreshToken); err != nil {
		return err
	}
	if err := c.store.Set(credstore.KeyUserData, string(data)); err != nil {
		return err
	}
	return nil
}

// SaveUser replaces the stored user blob and leaves the tokens alone
func (c *Credentials) SaveUser(user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return c.store.Set(credstore.KeyUserData, string(data))
}

// Slots is the raw content of the session slots; "" marks an empty slot
type Slots struct {
	AuthToken    string
	RefreshToken string
	UserData     string
}

// Slots reads the session slots as stored
func (c *Credentials) Slots() (Slots, error) {
	var (
		s   Slots
		err error
	)
	if s.AuthToken, err = c.get(credstore.KeyAuthToken); err != nil {
		return Slots{}, err
	}
	if s.RefreshToken, err = c.get(credstore.KeyRefreshToken); err != nil {
		return Slots{}, err
	}
	if s.UserData, err = c.get(credstore.KeyUserData); err != nil {
		return Slots{}, err
	}
	return s, nil
}

// Restore writes back slots read earlier with Slots. Slots that already
// hold the saved value are not written.
func (c *Credentials) Restore(saved Slots) error {
	for _, slot := range []struct{ key, value string }{
		{credstore.KeyAuthToken, saved.AuthToken},
		{credstore.KeyRefreshToken, saved.RefreshToken},
		{credstore.KeyUserData, saved.UserData},
	} {
		current, err := c.get(slot.key)
		if err != nil {
			return err
		}
		if current == slot.value {
			continue
		}

		if slot.value == "" {
			err = c.store.Delete(slot.key)
		} else {
			err = c.store.Set(slot.key, slot.value)
		}
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", slot.key, err)
		}
	}
	return nil
}

// Load returns the stored token and user. ok is false when any session
// slot is empty or the user blob cannot be decoded.
func (c *Credentials) Load() (token string, user User, ok bool, err error) {
	token, err = c.get(credstore.KeyAuthToken)
	if err != nil || token == "" {
		return "", User{}, false, err
	}

	refreshToken, err := c.get(credstore.KeyRefreshToken)
	if err != nil || refreshToken == "" {
		return "", User{}, false, err
	}

	raw, err := c.get(credstore.KeyUserData)
	if err != nil || raw == "" {
		return "", User{}, false, err
	}

	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", User{}, false, nil
	}
	return token, user, true, nil
}

// RefreshToken returns the stored refresh token, or "" when there is none
func (c *Credentials) RefreshToken() (string, error) {
	return c.get(credstore.KeyRefreshToken)
}

// Clear removes the session slots and leaves the language preference alone
func (c *Credentials) Clear() error {
	return credstore.DeleteAll(c.store, credstore.SessionKeys...)
}

func (c *Credentials) get(key string) (string, error) {
	value, err := c.store.Get(key)
	if errors.Is(err, credstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Hydrate restores the holder from stored credentials without contacting
// the server. The token is trusted until a request is rejected. Unless all
// three session slots are present the session starts signed out and the
// leftovers are cleared.
func (h *Holder) Hydrate(creds *Credentials) (bool, error) {
	token, user, ok, err := creds.Load()
	if err != nil {
		return false, err
	}

	if !ok {
		if err := creds.Clear(); err != nil {
			return false, fmt.Errorf("failed to clear partial credentials: %w", err)
		}
		return false, nil
	}

	h.update(func(s *State) {
		s.User = &user
		s.Token = token
	})
	return true, nil
}

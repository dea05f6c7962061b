// Package session holds the client's authentication state. A Holder is an
// explicitly owned value: create one per process (or per test), hand it to
// the gateway for mutation and to everything else for reads.
package session

import (
	"sync"
	"time"
)

// User is the identity issued by the auth API
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is a point-in-time copy of the session
type State struct {
	User      *User
	Token     string
	IsLoading bool
	Error     string
}

// IsAuthenticated reports whether both a user and a token are present
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Holder owns the mutable session state and notifies subscribers on change
type Holder struct {
	// pubMu orders mutation+notification so subscribers observe states in
	// the order they were produced
	pubMu sync.Mutex

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// NewHolder creates an unauthenticated holder
func NewHolder() *Holder {
	return &Holder{subs: make(map[int]func(State))}
}

// Snapshot returns a copy of the current state
func (h *Holder) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.copyLocked()
}

func (h *Holder) User() *User {
	return h.Snapshot().User
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Token
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.IsAuthenticated()
}

func (h *Holder) IsLoading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.IsLoading
}

func (h *Holder) Error() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state.Error
}

// Subscribe registers fn to receive every new state. Subscribers run on the
// mutating goroutine after the state lock is released and must not mutate
// the holder themselves.
func (h *Holder) Subscribe(fn func(State)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// BeginAttempt marks an auth call as outstanding and clears the last error
func (h *Holder) BeginAttempt() {
	h.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
}

// Authenticate installs a freshly issued identity and token
func (h *Holder) Authenticate(user User, token string) {
	h.update(func(s *State) {
		s.User = &user
		s.Token = token
		s.IsLoading = false
		s.Error = ""
	})
}

// SetUser replaces the profile of a signed-in user. It is a no-op when
// nobody is signed in.
func (h *Holder) SetUser(user User) {
	h.update(func(s *State) {
		if s.User != nil {
			s.User = &user
		}
	})
}

// Fail records a failed attempt. Any existing session is kept.
func (h *Holder) Fail(message string) {
	h.update(func(s *State) {
		s.IsLoading = false
		s.Error = message
	})
}

// Reset returns to the unauthenticated state
func (h *Holder) Reset() {
	h.update(func(s *State) {
		*s = State{}
	})
}

func (h *Holder) update(mutate func(*State)) {
	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.mu.Lock()
	mutate(&h.state)
	snapshot := h.copyLocked()
	subs := make([]func(State), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (h *Holder) copyLocked() State {
	s := h.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

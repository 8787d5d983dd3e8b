// Package identity holds the session identity, the credential store that
// outlives navigation within one tab, and the pre-join validation client.
package identity

import "sync"

// Identity is the name and room a session runs under. It is fixed for the
// lifetime of one session.
type Identity struct {
	Username string
	RoomCode string
}

// Valid reports whether the identity is usable to start a session.
func (id Identity) Valid() bool {
	return id.Username != "" && id.RoomCode != ""
}

// Store is a single-slot credential store. The engine is the sole writer of
// the slot it manages.
type Store interface {
	// Save replaces the stored identity.
	Save(id Identity)

	// Load returns the stored identity, if any.
	Load() (Identity, bool)

	// Clear empties the slot. Clearing an empty slot is a no-op.
	Clear()
}

// MemoryStore is an in-process Store with tab-lifetime semantics left to the
// caller (it lives as long as the process does).
type MemoryStore struct {
	mu  sync.Mutex
	id  Identity
	set bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.set = true
}

func (s *MemoryStore) Load() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, s.set
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = Identity{}
	s.set = false
}

package encounter

import "sync"

type storeKey struct {
	userID    string
	sessionID string
}

// Store holds live encounters keyed by (userID, sessionID). Encounters
// are independent units; the store itself is the only cross-session
// structure and is guarded by a single mutex.
type Store struct {
	mu         sync.RWMutex
	encounters map[storeKey]*Encounter
}

// NewStore creates an empty encounter store.
func NewStore() *Store {
	return &Store{encounters: make(map[storeKey]*Encounter)}
}

// GetOrCreate returns the encounter for the pair, creating it on first
// use. Creation is idempotent: calling it twice with the same IDs
// returns the same encounter, with created reporting whether this call
// made it.
func (s *Store) GetOrCreate(userID, sessionID string) (enc *Encounter, created bool) {
	key := storeKey{userID: userID, sessionID: sessionID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if enc, ok := s.encounters[key]; ok {
		return enc, false
	}
	enc = newEncounter(userID, sessionID)
	s.encounters[key] = enc
	return enc, true
}

// Get returns the encounter for the pair, or false if none exists.
func (s *Store) Get(userID, sessionID string) (*Encounter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc, ok := s.encounters[storeKey{userID: userID, sessionID: sessionID}]
	return enc, ok
}

// Delete removes the encounter for the pair. Deleting a missing
// encounter is a no-op.
func (s *Store) Delete(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.encounters, storeKey{userID: userID, sessionID: sessionID})
}

// Len returns the number of live encounters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.encounters)
}

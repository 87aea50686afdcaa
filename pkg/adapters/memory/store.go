package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/bartender/pkg/domain"
)

// Store implements ports.Store in memory.
// Safe for concurrent use.
type Store struct {
	sessions map[string]*domain.Session
	facts    map[string]domain.UserFacts
	mu       sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*domain.Session),
		facts:    make(map[string]domain.UserFacts),
	}
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := session.Clone()
	copied.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copied
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so callers can't mutate store state directly by pointer
	return session.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// List returns the stored conversation IDs, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadFacts returns a copy of the facts remembered for userID.
func (s *Store) LoadFacts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.facts[userID]
	if !ok {
		return nil, domain.ErrFactsNotFound
	}
	return &f, nil
}

// UpdateFacts runs fn under the store's write lock, so updates of the same
// user are applied one after the other.
func (s *Store) UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.facts[userID]
	if !ok {
		f = domain.UserFacts{UserID: userID}
	}
	if err := fn(&f); err != nil {
		return err
	}
	f.UserID = userID
	f.UpdatedAt = time.Now().UTC()
	s.facts[userID] = f
	return nil
}

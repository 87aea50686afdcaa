package ports

import (
	"context"

	"github.com/aretw0/bartender/pkg/domain"
)

// SessionStore defines the interface for persisting conversation sessions.
// Durability across process restarts is what lets a conversation resume
// at the same suspended frame.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a conversation ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, conversationID string) (*domain.Session, error)

	// Delete removes the session for a conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}

// FactsStore defines the interface for facts that outlive a single conversation.
type FactsStore interface {
	// LoadFacts retrieves the facts of a user.
	// Returns domain.ErrFactsNotFound if nothing was recorded yet.
	LoadFacts(ctx context.Context, userID string) (*domain.UserFacts, error)

	// UpdateFacts applies fn to the current facts of a user (a zero value when none
	// exist) and persists the result. The read-modify-write is atomic per user:
	// concurrent updates never lose each other's writes.
	UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) error
}

// Store is implemented by adapters that persist both sessions and facts.
type Store interface {
	SessionStore
	FactsStore
}

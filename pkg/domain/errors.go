package domain

import "errors"

// ErrSessionNotFound is returned when a conversation ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFactsNotFound is returned when no facts have been recorded for a user yet.
var ErrFactsNotFound = errors.New("user facts not found")

// ErrSessionDone is returned when a turn is submitted to a conversation that already ended.
var ErrSessionDone = errors.New("session is done")

// ErrCatalogUnavailable marks a transient failure of the beer catalog.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// ErrInvariant marks a corrupted frame stack. It is a programming error, never a user error.
var ErrInvariant = errors.New("dialog invariant violated")

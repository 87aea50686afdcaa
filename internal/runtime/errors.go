package runtime

import (
	"fmt"

	"github.com/aretw0/bartender/pkg/domain"
)

// InvariantError reports a frame stack that the engine cannot resume.
// It unwraps to domain.ErrInvariant.
type InvariantError struct {
	ConversationID string
	Handler        domain.HandlerID
	Reason         string
}

func (e *InvariantError) Error() string {
	if e.Handler == "" {
		return fmt.Sprintf("conversation '%s': %s", e.ConversationID, e.Reason)
	}
	return fmt.Sprintf("conversation '%s' at handler '%s': %s", e.ConversationID, e.Handler, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return domain.ErrInvariant
}

func (t *turn) invariant(handler domain.HandlerID, format string, args ...any) error {
	return &InvariantError{
		ConversationID: t.session.ID,
		Handler:        handler,
		Reason:         fmt.Sprintf(format, args...),
	}
}

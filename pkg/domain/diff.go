package domain

import "reflect"

// SessionDiff represents the changes between two snapshots of a session.
// It is serialized to JSON for subscribers of a conversation's event stream.
type SessionDiff struct {
	// ConversationID is always present to identify the target.
	ConversationID string `json:"conversation_id"`

	Status *SessionStatus `json:"status,omitempty"`

	// Popped counts frames removed from the old stack (beyond the common prefix).
	Popped int `json:"popped,omitempty"`

	// Pushed holds frames present in the new stack beyond the common prefix.
	Pushed []Frame `json:"pushed,omitempty"`

	Replies []Reply `json:"replies,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, the whole new stack is reported as pushed.
func Diff(oldSession, newSession *Session, replies []Reply) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{
		ConversationID: newSession.ID,
		Replies:        replies,
	}

	if oldSession == nil || oldSession.Status != newSession.Status {
		status := newSession.Status
		diff.Status = &status
	}

	var oldStack []Frame
	if oldSession != nil {
		oldStack = oldSession.Stack
	}

	common := 0
	for common < len(oldStack) && common < len(newSession.Stack) {
		if !reflect.DeepEqual(oldStack[common], newSession.Stack[common]) {
			break
		}
		common++
	}
	diff.Popped = len(oldStack) - common
	if common < len(newSession.Stack) {
		diff.Pushed = newSession.Stack[common:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.Popped == 0 &&
		len(d.Pushed) == 0 &&
		len(d.Replies) == 0
}

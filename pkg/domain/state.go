package domain

import "time"

// SessionStatus defines whether a conversation still accepts turns.
type SessionStatus string

const (
	StatusActive SessionStatus = "active" // Normal operation
	StatusDone   SessionStatus = "done"   // Sink state reached (farewell)
)

// Session represents the persisted snapshot of one conversation.
type Session struct {
	// ID is the opaque conversation identifier. Immutable once created.
	ID string `json:"id"`

	// UserID identifies the user behind the conversation (keys UserFacts).
	UserID string `json:"user_id,omitempty"`

	// Status indicates if the conversation is running or done.
	Status SessionStatus `json:"status"`

	// Stack holds the dialog frames. The last element is the active frame.
	Stack []Frame `json:"stack"`

	// Turns counts the processed inbound messages.
	Turns int `json:"turns"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session whose only frame is root.
func NewSession(id, userID string, root Frame) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		Status:    StatusActive,
		Stack:     []Frame{root},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Top returns the active frame, or nil when the stack is empty.
func (s *Session) Top() *Frame {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

// Parent returns the frame directly beneath the active one, or nil.
func (s *Session) Parent() *Frame {
	if len(s.Stack) < 2 {
		return nil
	}
	return &s.Stack[len(s.Stack)-2]
}

// Push makes f the active frame.
func (s *Session) Push(f Frame) {
	s.Stack = append(s.Stack, f)
}

// Pop removes and returns the active frame.
func (s *Session) Pop() (Frame, bool) {
	if len(s.Stack) == 0 {
		return Frame{}, false
	}
	f := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return f, true
}

// Depth returns the number of frames on the stack.
func (s *Session) Depth() int {
	return len(s.Stack)
}

// Done reports whether the conversation reached its terminal state.
func (s *Session) Done() bool {
	return s.Status == StatusDone
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Stack = make([]Frame, len(s.Stack))
	for i := range s.Stack {
		next.Stack[i] = s.Stack[i].Clone()
	}
	return &next
}

// UserFacts holds what the bot remembers about a user across conversations.
type UserFacts struct {
	UserID              string    `json:"user_id"`
	LastOrderedBeerName string    `json:"last_ordered_beer_name,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

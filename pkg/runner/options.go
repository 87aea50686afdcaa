package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithConversation sets the conversation the runner talks in and the user it speaks for.
func WithConversation(conversationID, userID string) Option {
	return func(r *Runner) {
		r.ConversationID = conversationID
		r.UserID = userID
	}
}

// WithWelcome greets name before the first turn.
func WithWelcome(name string) Option {
	return func(r *Runner) {
		r.WelcomeName = name
	}
}

// WithRenderer configures the content renderer used by the default text handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

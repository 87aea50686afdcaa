package runner

import (
	"context"

	"github.com/aretw0/bartender/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the bot's replies to the user.
	Output(ctx context.Context, replies []domain.Reply) error

	// Input reads the next message from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (e.g. session status).
	// This is distinct from the bot's replies.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer turns a Markdown fragment into terminal output.
type ContentRenderer func(markdown string) (string, error)

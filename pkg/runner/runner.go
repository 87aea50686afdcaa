package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/pkg/domain"
)

// Bot is the part of the dialog engine the runner drives.
type Bot interface {
	ProcessTurn(ctx context.Context, conversationID, userID, text string) ([]domain.Reply, error)
	Inspect(ctx context.Context, conversationID string) (*domain.Session, error)
	Welcome(name string) domain.Reply
}

var _ Bot = (*bartender.Bot)(nil)

// Runner handles the read-process-reply loop of one conversation using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	Bot     Bot
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	ConversationID string
	UserID         string
	WelcomeName    string

	// Renderer is handed to the default text handler when Handler is nil.
	Renderer ContentRenderer
}

// NewRunner creates a Runner for bot. Without options it chats on Stdin/Stdout
// in a conversation named "console".
func NewRunner(bot Bot, opts ...Option) *Runner {
	r := &Runner{
		Bot:            bot,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		ConversationID: "console",
		UserID:         "console",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the conversation loop until the input ends, the user types
// exit or quit, the conversation finishes, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	handler := r.resolveHandler()

	if r.WelcomeName != "" {
		if err := handler.Output(ctx, []domain.Reply{r.Bot.Welcome(r.WelcomeName)}); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		text, err := handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				_ = handler.SystemOutput(ctx, err.Error())
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(text) {
		case "exit", "quit":
			return nil
		}

		replies, err := r.Bot.ProcessTurn(ctx, r.ConversationID, r.UserID, text)
		switch {
		case errors.Is(err, domain.ErrSessionDone):
			return handler.SystemOutput(ctx, "conversation is over")
		case errors.Is(err, bartender.ErrTurnTimeout):
			r.Logger.Warn("turn timed out", "conversation_id", r.ConversationID)
		case err != nil:
			return err
		}

		if err := handler.Output(ctx, replies); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		s, err := r.Bot.Inspect(ctx, r.ConversationID)
		if err != nil {
			return err
		}
		if s.Done() {
			r.Logger.Debug("conversation finished", "conversation_id", r.ConversationID, "turns", s.Turns)
			return nil
		}
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	// Memoize to prevent creating new Pumps on subsequent Run() calls
	r.Handler = NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	return r.Handler
}

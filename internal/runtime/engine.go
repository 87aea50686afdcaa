package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/aretw0/bartender/pkg/sample"
)

const (
	// DefaultMaxRetries bounds how often an empty narrowing restarts its path.
	DefaultMaxRetries = 3
	// DefaultMaxAttempts bounds unparseable answers to a single prompt.
	DefaultMaxAttempts = 3
	// MaxDepth bounds the frame stack.
	MaxDepth = 8

	beerSampleSize   = 3
	originSampleSize = 5
)

// Engine runs one conversation turn at a time over a frame stack.
// It is stateless: callers load the session, call Process and persist the outcome.
type Engine struct {
	catalog    ports.Catalog
	classifier ports.Classifier
	images     ports.ImageSearcher
	rand       *sample.Source
	phrases    domain.Phrasebook
	hooks      domain.LifecycleHooks
	logger     *slog.Logger

	maxRetries  int
	maxAttempts int

	handlers map[domain.HandlerID]handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithImageSearcher decorates recommendation cards with a picture.
func WithImageSearcher(s ports.ImageSearcher) Option {
	return func(e *Engine) { e.images = s }
}

// WithRandom sets the sampling source. Tests pass a seeded source.
func WithRandom(src *sample.Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.rand = src
		}
	}
}

// WithPhrasebook overrides the bot's texts. Empty fields keep their defaults.
func WithPhrasebook(p domain.Phrasebook) Option {
	return func(e *Engine) { e.phrases = p.Merge(domain.DefaultPhrasebook()) }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxRetries sets how many times an empty narrowing restarts.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithMaxAttempts sets how many unparseable answers a prompt accepts before giving up.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// NewEngine creates an engine over the given catalog and classifier.
func NewEngine(catalog ports.Catalog, classifier ports.Classifier, opts ...Option) *Engine {
	e := &Engine{
		catalog:     catalog,
		classifier:  classifier,
		rand:        sample.NewTimeSource(),
		phrases:     domain.DefaultPhrasebook(),
		logger:      logging.NewNop(),
		maxRetries:  DefaultMaxRetries,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = e.dispatchTable()
	return e
}

// Phrases returns the texts in use.
func (e *Engine) Phrases() domain.Phrasebook {
	return e.phrases
}

// RootFrame returns the idle root frame every conversation starts with.
func (e *Engine) RootFrame() domain.Frame {
	return domain.Frame{
		Dialog:  domain.DialogRoot,
		Kind:    domain.FrameWaitingMessage,
		Handler: HandlerRootMessage,
	}
}

// NewSession creates a fresh conversation whose only frame is the idle root.
func (e *Engine) NewSession(id, userID string) *domain.Session {
	return domain.NewSession(id, userID, e.RootFrame())
}

// Welcome returns the greeting sent when a user joins a conversation.
func (e *Engine) Welcome(name string) domain.Reply {
	return domain.Reply{Text: domain.Format(e.phrases.Welcome, "name", name)}
}

// Outcome is the result of processing one message.
type Outcome struct {
	// Session is the next snapshot. The input session is never modified.
	Session *domain.Session
	Replies []domain.Reply

	// RememberBeer is the canonical beer name to store as the user's last order.
	RememberBeer string

	// Orders lists the orders completed during the turn.
	Orders []domain.OrderEvent
}

// Process feeds text to the active frame of s and runs the stack until a frame
// is waiting for input again. facts may be nil for users never seen before.
func (e *Engine) Process(ctx context.Context, s *domain.Session, facts *domain.UserFacts, text string) (*Outcome, error) {
	if s.Done() {
		return nil, domain.ErrSessionDone
	}

	t := &turn{
		ctx:     ctx,
		e:       e,
		session: s.Clone(),
		facts:   facts,
	}

	if err := t.checkStack(); err != nil {
		return nil, err
	}

	top := t.session.Top()
	fn, ok := e.handlers[top.Handler]
	if !ok {
		return nil, t.invariant(top.Handler, "no handler registered")
	}

	in, ok, err := t.readInput(top, text)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := fn(t, in); err != nil {
			return nil, err
		}
	}

	if err := t.settle(); err != nil {
		return nil, err
	}
	if err := t.checkStack(); err != nil {
		return nil, err
	}

	t.session.Turns++
	t.session.UpdatedAt = time.Now().UTC()

	return &Outcome{
		Session:      t.session,
		Replies:      t.replies,
		RememberBeer: t.remember,
		Orders:       t.orders,
	}, nil
}

// settle pops completed frames and resumes their parents with the result.
func (t *turn) settle() error {
	for i := 0; i <= MaxDepth; i++ {
		top := t.session.Top()
		if top == nil {
			return t.invariant("", "empty stack")
		}
		if top.Kind != domain.FrameCompleted {
			return nil
		}

		done, _ := t.session.Pop()
		parent := t.session.Top()
		if parent == nil {
			return t.invariant(done.Handler, "completed frame has no parent")
		}
		if parent.Kind != domain.FrameSuspended {
			return t.invariant(parent.Handler, "parent of a completed frame is %s, not suspended", parent.Kind)
		}
		if done.Result == nil {
			return t.invariant(done.Handler, "completed frame carries no result")
		}

		fn, ok := t.e.handlers[parent.Handler]
		if !ok {
			return t.invariant(parent.Handler, "no handler registered")
		}
		if err := fn(t, input{Result: done.Result}); err != nil {
			return err
		}
	}
	return t.invariant("", "stack did not settle")
}

// checkStack enforces the stack shape between turns: only the top frame waits
// for input, every frame beneath it is suspended.
func (t *turn) checkStack() error {
	s := t.session
	if s.Done() {
		return nil
	}
	if len(s.Stack) == 0 {
		return t.invariant("", "empty stack")
	}
	if len(s.Stack) > MaxDepth {
		return t.invariant("", "stack depth %d exceeds %d", len(s.Stack), MaxDepth)
	}
	if s.Stack[0].Dialog != domain.DialogRoot {
		return t.invariant(s.Stack[0].Handler, "bottom frame belongs to %q", s.Stack[0].Dialog)
	}
	top := s.Top()
	if !top.Waiting() {
		return t.invariant(top.Handler, "active frame is %s", top.Kind)
	}
	for i := 0; i < len(s.Stack)-1; i++ {
		if s.Stack[i].Kind != domain.FrameSuspended {
			return t.invariant(s.Stack[i].Handler, "frame %d below the top is %s", i, s.Stack[i].Kind)
		}
	}
	return nil
}

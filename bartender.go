package bartender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/internal/runtime"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/adapters/classifier"
	"github.com/aretw0/bartender/pkg/adapters/memory"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/aretw0/bartender/pkg/sample"
	"github.com/aretw0/bartender/pkg/session"
)

// Version is the release of the bartender library and CLI. Overridden at build time.
var Version = "0.1.0-dev"

// DefaultTurnTimeout bounds a single ProcessTurn call.
const DefaultTurnTimeout = 10 * time.Second

// ErrTurnTimeout is returned when a turn did not finish within the turn timeout.
// Nothing of the turn is persisted.
var ErrTurnTimeout = errors.New("turn timed out")

// Bot is the high-level entry point: it loads a conversation, runs one turn
// through the dialog engine and persists the outcome.
type Bot struct {
	engine   *runtime.Engine
	sessions *session.Manager
	facts    ports.FactsStore

	store       ports.SessionStore
	catalog     ports.Catalog
	classifier  ports.Classifier
	images      ports.ImageSearcher
	publisher   ports.OrderPublisher
	locker      ports.DistributedLocker
	random      *sample.Source
	phrases     *domain.Phrasebook
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	turnTimeout time.Duration
	autoRestart bool
	maxRetries  int
	maxAttempts int
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithStore sets the session store. When s also implements ports.FactsStore it
// holds the user facts too.
func WithStore(s ports.SessionStore) Option {
	return func(b *Bot) {
		b.store = s
		if f, ok := s.(ports.FactsStore); ok && b.facts == nil {
			b.facts = f
		}
	}
}

// WithFactsStore sets where user facts are kept, independently of sessions.
func WithFactsStore(f ports.FactsStore) Option {
	return func(b *Bot) { b.facts = f }
}

// WithCatalog sets the beer catalog. Defaults to the embedded sample catalog.
func WithCatalog(c ports.Catalog) Option {
	return func(b *Bot) { b.catalog = c }
}

// WithClassifier sets the intent classifier. Defaults to the keyword classifier.
func WithClassifier(c ports.Classifier) Option {
	return func(b *Bot) { b.classifier = c }
}

// WithImageSearcher adds pictures to recommendation cards.
func WithImageSearcher(s ports.ImageSearcher) Option {
	return func(b *Bot) { b.images = s }
}

// WithOrderPublisher announces every placed order after it was persisted.
func WithOrderPublisher(p ports.OrderPublisher) Option {
	return func(b *Bot) { b.publisher = p }
}

// WithLocker serializes turns of a conversation across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(b *Bot) { b.locker = l }
}

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) Option {
	return func(b *Bot) { b.random = sample.NewSource(seed) }
}

// WithRandom sets the sampling source.
func WithRandom(src *sample.Source) Option {
	return func(b *Bot) { b.random = src }
}

// WithPhrasebook overrides the bot's texts. Empty fields keep their defaults.
func WithPhrasebook(p domain.Phrasebook) Option {
	return func(b *Bot) { b.phrases = &p }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) { b.hooks = hooks }
}

// WithLogger sets a custom structured logger for the bot.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithTurnTimeout bounds every ProcessTurn call.
func WithTurnTimeout(d time.Duration) Option {
	return func(b *Bot) {
		if d > 0 {
			b.turnTimeout = d
		}
	}
}

// WithAutoRestart makes a message to a finished conversation start a fresh
// one instead of failing with domain.ErrSessionDone.
func WithAutoRestart(enabled bool) Option {
	return func(b *Bot) { b.autoRestart = enabled }
}

// WithMaxRetries bounds how often an empty recommendation restarts its path.
func WithMaxRetries(n int) Option {
	return func(b *Bot) { b.maxRetries = n }
}

// WithMaxAttempts bounds unparseable answers to one prompt.
func WithMaxAttempts(n int) Option {
	return func(b *Bot) { b.maxAttempts = n }
}

// New initializes a Bot. Without options it keeps everything in memory and
// serves the embedded sample catalog.
func New(opts ...Option) (*Bot, error) {
	b := &Bot{
		turnTimeout: DefaultTurnTimeout,
		maxRetries:  runtime.DefaultMaxRetries,
		maxAttempts: runtime.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.store == nil {
		mem := memory.NewStore()
		b.store = mem
		if b.facts == nil {
			b.facts = mem
		}
	}
	if b.facts == nil {
		return nil, fmt.Errorf("session store %T does not keep user facts; use WithFactsStore", b.store)
	}
	if b.catalog == nil {
		repo, err := catalog.LoadSample()
		if err != nil {
			return nil, fmt.Errorf("failed to load sample catalog: %w", err)
		}
		b.catalog = repo
	}
	if b.classifier == nil {
		b.classifier = classifier.NewRegex()
	}
	if b.random == nil {
		b.random = sample.NewTimeSource()
	}

	engineOpts := []runtime.Option{
		runtime.WithRandom(b.random),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithLogger(b.logger),
		runtime.WithMaxRetries(b.maxRetries),
		runtime.WithMaxAttempts(b.maxAttempts),
	}
	if b.images != nil {
		engineOpts = append(engineOpts, runtime.WithImageSearcher(b.images))
	}
	if b.phrases != nil {
		engineOpts = append(engineOpts, runtime.WithPhrasebook(*b.phrases))
	}
	b.engine = runtime.NewEngine(b.catalog, b.classifier, engineOpts...)

	managerOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(b.store, managerOpts...)

	return b, nil
}

// StartSession creates the conversation with an idle root frame and persists
// it. An existing conversation is returned as is.
func (b *Bot) StartSession(ctx context.Context, conversationID, userID string) (*domain.Session, error) {
	s, created, err := b.sessions.LoadOrStart(ctx, conversationID, userID, b.engine.RootFrame())
	if err != nil {
		return nil, err
	}
	if created {
		b.logger.Info("conversation started", "conversation_id", conversationID, "user_id", userID)
	}
	return s, nil
}

// ProcessTurn runs one inbound message through the conversation and returns
// the replies. User facts are persisted before the session. When the turn
// fails nothing is persisted. A timed out turn returns ErrTurnTimeout together
// with a single "try again" reply the transport may deliver.
func (b *Bot) ProcessTurn(ctx context.Context, conversationID, userID, text string) ([]domain.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, b.turnTimeout)
	defer cancel()

	var (
		replies []domain.Reply
		orders  []domain.OrderEvent
	)
	started := time.Now()
	event := &domain.TurnEvent{
		EventBase: domain.EventBase{
			Timestamp:      started.UTC(),
			Type:           domain.EventTurnStart,
			ConversationID: conversationID,
			UserID:         userID,
		},
	}

	err := b.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		store := b.sessions.Store()
		s, err := store.Load(ctx, conversationID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			s = b.engine.NewSession(conversationID, userID)
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		}

		if s.Done() {
			if !b.autoRestart {
				return domain.ErrSessionDone
			}
			b.logger.Debug("restarting finished conversation", "conversation_id", conversationID)
			s = b.engine.NewSession(conversationID, s.UserID)
		}
		if s.UserID == "" {
			s.UserID = userID
		}

		if top := s.Top(); top != nil {
			event.Handler = top.Handler
		}
		event.Depth = s.Depth()
		if b.hooks.OnTurnStart != nil {
			b.hooks.OnTurnStart(ctx, event)
		}

		facts, err := b.loadFacts(ctx, s.UserID)
		if err != nil {
			return err
		}

		out, err := b.engine.Process(ctx, s, facts, text)
		if err != nil {
			return err
		}
		// A turn that ran out of time is dropped even if the engine finished.
		if err := ctx.Err(); err != nil {
			return err
		}

		if out.RememberBeer != "" {
			err := b.facts.UpdateFacts(ctx, s.UserID, func(f *domain.UserFacts) error {
				f.LastOrderedBeerName = out.RememberBeer
				f.UpdatedAt = time.Now().UTC()
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to save user facts: %w", err)
			}
		}
		if err := store.Save(ctx, out.Session); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		replies = out.Replies
		orders = out.Orders
		event.Depth = out.Session.Depth()
		if out.Session.Done() {
			event.Outcome = "done"
		}
		return nil
	})

	event.Type = domain.EventTurnEnd
	event.Duration = time.Since(started)
	event.Replies = len(replies)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		event.Outcome = "timeout"
		err = fmt.Errorf("%w: %w", ErrTurnTimeout, err)
	case err != nil:
		event.Outcome = "error"
	case event.Outcome == "":
		event.Outcome = "ok"
	}
	if b.hooks.OnTurnEnd != nil {
		b.hooks.OnTurnEnd(context.WithoutCancel(ctx), event)
	}

	if err != nil {
		b.logger.Warn("turn failed", "conversation_id", conversationID, "user_id", userID, "err", err)
		if errors.Is(err, ErrTurnTimeout) {
			return []domain.Reply{{Text: b.engine.Phrases().TryLater}}, err
		}
		return nil, err
	}

	b.announce(context.WithoutCancel(ctx), orders)
	return replies, nil
}

// announce hands placed orders to hooks and the publisher. Failures are
// logged: the order is already persisted.
func (b *Bot) announce(ctx context.Context, orders []domain.OrderEvent) {
	for i := range orders {
		ev := &orders[i]
		if b.hooks.OnOrderPlaced != nil {
			b.hooks.OnOrderPlaced(ctx, ev)
		}
		if b.publisher == nil {
			continue
		}
		if err := b.publisher.PublishOrder(ctx, ev); err != nil {
			b.logger.Error("failed to publish order", "conversation_id", ev.ConversationID, "err", err)
		}
	}
}

func (b *Bot) loadFacts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	if userID == "" {
		return nil, nil
	}
	f, err := b.facts.LoadFacts(ctx, userID)
	if errors.Is(err, domain.ErrFactsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user facts: %w", err)
	}
	return f, nil
}

// Restart replaces the conversation with a fresh idle root. User facts are kept.
func (b *Bot) Restart(ctx context.Context, conversationID, userID string) (*domain.Session, error) {
	s := b.engine.NewSession(conversationID, userID)
	err := b.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		return b.sessions.Store().Save(ctx, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to restart session: %w", err)
	}
	return s, nil
}

// Delete forgets a conversation. User facts are kept.
func (b *Bot) Delete(ctx context.Context, conversationID string) error {
	if err := b.sessions.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Inspect returns the persisted snapshot of a conversation.
func (b *Bot) Inspect(ctx context.Context, conversationID string) (*domain.Session, error) {
	return b.sessions.Load(ctx, conversationID)
}

// Facts returns what the bot remembers about a user.
func (b *Bot) Facts(ctx context.Context, userID string) (*domain.UserFacts, error) {
	return b.facts.LoadFacts(ctx, userID)
}

// Welcome returns the greeting for a user joining a conversation.
func (b *Bot) Welcome(name string) domain.Reply {
	return b.engine.Welcome(name)
}

// Sessions exposes the session manager used by the bot.
func (b *Bot) Sessions() *session.Manager {
	return b.sessions
}

// Catalog returns the beer catalog in use.
func (b *Bot) Catalog() ports.Catalog {
	return b.catalog
}

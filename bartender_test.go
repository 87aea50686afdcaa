package bartender_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/internal/runtime"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/adapters/memory"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(t *testing.T, replies []domain.Reply, err error) []string {
	t.Helper()
	require.NoError(t, err)
	return domain.Texts(replies)
}

func TestBot_OrderIsRemembered(t *testing.T) {
	store := memory.NewStore()
	bot, err := bartender.New(bartender.WithStore(store), bartender.WithSeed(1))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, []string{"Howdy! How can I help you?"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "hello")))
	assert.Equal(t, []string{"What beer would you like?"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "I'd like to order")))
	assert.Equal(t, []string{"I'm not sure which one"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "guinness")))
	assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "Guinness Draught")))
	texts(t, bot.ProcessTurn(ctx, "c1", "u1", "Vodka"))
	assert.Equal(t, []string{
		"Your order of Guinness Draught and Vodka with Pretzels is coming right up!",
		"So what would you like to do next?",
	}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "pretzels")))

	facts, err := bot.Facts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Guinness Draught", facts.LastOrderedBeerName)

	// A new conversation of the same user offers the usual.
	assert.Equal(t, []string{"Would you like to order your usual Guinness Draught?"}, texts(t, bot.ProcessTurn(ctx, "c2", "u1", "hi")))
}

func TestBot_ConversationSurvivesRestart(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first, err := bartender.New(bartender.WithStore(store))
	require.NoError(t, err)
	texts(t, first.ProcessTurn(ctx, "c1", "u1", "order"))

	// Another process sharing the store picks up where the first one stopped.
	second, err := bartender.New(bartender.WithStore(store))
	require.NoError(t, err)
	assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, texts(t, second.ProcessTurn(ctx, "c1", "u1", "london pride")))

	s, err := second.Inspect(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Turns)
	assert.Equal(t, runtime.HandlerOrderChaser, s.Top().Handler)
	assert.Equal(t, "London Pride", s.Top().Order.BeerName)
}

func TestBot_DoneConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects turns until restarted", func(t *testing.T) {
		bot, err := bartender.New()
		require.NoError(t, err)

		assert.Equal(t, []string{"Bye bye. See you soon!"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "bye")))
		_, err = bot.ProcessTurn(ctx, "c1", "u1", "hi")
		assert.ErrorIs(t, err, domain.ErrSessionDone)

		s, err := bot.Restart(ctx, "c1", "u1")
		require.NoError(t, err)
		assert.False(t, s.Done())
		assert.Equal(t, []string{"Howdy! How can I help you?"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "hi")))
	})

	t.Run("auto restart", func(t *testing.T) {
		bot, err := bartender.New(bartender.WithAutoRestart(true))
		require.NoError(t, err)

		texts(t, bot.ProcessTurn(ctx, "c1", "u1", "bye"))
		assert.Equal(t, []string{"Howdy! How can I help you?"}, texts(t, bot.ProcessTurn(ctx, "c1", "u1", "hi")))
	})
}

func TestBot_StartSession(t *testing.T) {
	bot, err := bartender.New()
	require.NoError(t, err)
	ctx := context.Background()

	s, err := bot.StartSession(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, runtime.HandlerRootMessage, s.Top().Handler)

	ids, err := bot.Sessions().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	again, err := bot.StartSession(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, s.CreatedAt, again.CreatedAt)
}

// blockingCatalog never answers category lookups before the context ends.
type blockingCatalog struct {
	ports.Catalog
}

func (b blockingCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestBot_TurnTimeoutPersistsNothing(t *testing.T) {
	repo, err := catalog.LoadSample()
	require.NoError(t, err)

	bot, err := bartender.New(
		bartender.WithCatalog(blockingCatalog{Catalog: repo}),
		bartender.WithTurnTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)
	ctx := context.Background()

	texts(t, bot.ProcessTurn(ctx, "c1", "u1", "recommend me something"))

	replies, err := bot.ProcessTurn(ctx, "c1", "u1", "By Beer Category")
	assert.ErrorIs(t, err, bartender.ErrTurnTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"I'm a bit busy right now. Please say that again in a moment."}, domain.Texts(replies))

	s, err := bot.Inspect(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Turns)
	assert.Equal(t, runtime.HandlerRecommendStrategy, s.Top().Handler, "the prompt is still resumable")
}

// flakyStore fails saves on demand.
type flakyStore struct {
	*memory.Store
	mu        sync.Mutex
	failSave  bool
	failFacts bool
}

var errDisk = errors.New("disk full")

func (f *flakyStore) Save(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	fail := f.failSave
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.Store.Save(ctx, s)
}

func (f *flakyStore) UpdateFacts(ctx context.Context, userID string, fn func(*domain.UserFacts) error) error {
	f.mu.Lock()
	fail := f.failFacts
	f.mu.Unlock()
	if fail {
		return errDisk
	}
	return f.Store.UpdateFacts(ctx, userID, fn)
}

func TestBot_PersistenceFailureFailsTheTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("session", func(t *testing.T) {
		store := &flakyStore{Store: memory.NewStore()}
		bot, err := bartender.New(bartender.WithStore(store))
		require.NoError(t, err)
		texts(t, bot.ProcessTurn(ctx, "c1", "u1", "order"))

		store.failSave = true
		replies, err := bot.ProcessTurn(ctx, "c1", "u1", "london pride")
		assert.ErrorIs(t, err, errDisk)
		assert.Nil(t, replies)

		store.failSave = false
		s, err := bot.Inspect(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, runtime.HandlerOrderBeer, s.Top().Handler)
	})

	t.Run("facts are written before the session", func(t *testing.T) {
		store := &flakyStore{Store: memory.NewStore()}
		bot, err := bartender.New(bartender.WithStore(store))
		require.NoError(t, err)
		for _, text := range []string{"order", "london pride", "water"} {
			texts(t, bot.ProcessTurn(ctx, "c1", "u1", text))
		}

		store.failFacts = true
		_, err = bot.ProcessTurn(ctx, "c1", "u1", "fries")
		assert.ErrorIs(t, err, errDisk)

		s, err := bot.Inspect(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, runtime.HandlerOrderSide, s.Top().Handler, "session is untouched when facts fail")
	})
}

type sessionOnlyStore struct {
	ports.SessionStore
}

func TestBot_RequiresFactsStore(t *testing.T) {
	_, err := bartender.New(bartender.WithStore(sessionOnlyStore{memory.NewStore()}))
	assert.Error(t, err)

	_, err = bartender.New(
		bartender.WithStore(sessionOnlyStore{memory.NewStore()}),
		bartender.WithFactsStore(memory.NewStore()),
	)
	assert.NoError(t, err)
}

type recordingPublisher struct {
	events []*domain.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrder(ctx context.Context, e *domain.OrderEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func TestBot_OrdersArePublished(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	var placed, turns int
	hooks := domain.LifecycleHooks{
		OnOrderPlaced: func(ctx context.Context, e *domain.OrderEvent) { placed++ },
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			turns++
			assert.Equal(t, "ok", e.Outcome)
		},
	}
	bot, err := bartender.New(bartender.WithOrderPublisher(pub), bartender.WithLifecycleHooks(hooks))
	require.NoError(t, err)
	ctx := context.Background()

	for _, text := range []string{"order", "ESB", "whiskey"} {
		texts(t, bot.ProcessTurn(ctx, "c1", "u1", text))
	}
	assert.Empty(t, pub.events)

	// Publishing failures do not fail the turn.
	texts(t, bot.ProcessTurn(ctx, "c1", "u1", "nachos"))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.BeerOrder{BeerName: "ESB", Chaser: domain.ChaserWhiskey, SideDish: domain.SideNachos}, pub.events[0].Order)
	assert.True(t, pub.events[0].Remembered)
	assert.Equal(t, 1, placed)
	assert.Equal(t, 4, turns)
}

func TestBot_Welcome(t *testing.T) {
	bot, err := bartender.New(bartender.WithPhrasebook(domain.Phrasebook{Welcome: "Hey {name}!"}))
	require.NoError(t, err)
	assert.Equal(t, "Hey Sam!", bot.Welcome("Sam").Text)
}

package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/bartender/internal/runtime"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/aretw0/bartender/pkg/sample"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RecommendByCategoryThenOrder(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))

	assert.Equal(t, []string{"How would you like me to recommend your beer?"}, c.say("recommend"))
	assert.Equal(t, []string{"By Beer Category", "By Beer Origin", "By Beer Name"}, c.last.Replies[0].Options)
	assert.Equal(t, 2, c.session.Depth())

	assert.Equal(t, []string{"Which kind of beer do you like?"}, c.say("By Beer Category"))
	assert.Equal(t, []string{"Which style?"}, c.say("irish ale"))
	assert.Equal(t, []string{"Which one of these works?"}, c.say("Irish Dry Stout"))
	assert.ElementsMatch(t, []string{"Guinness Draught", "Guinness Extra Stout", "Stout"}, c.last.Replies[0].Options)

	replies := c.say("Guinness Draught")
	assert.Equal(t, []string{"Guinness Draught", "Would you like to order 'Guinness Draught'?"}, replies)
	card := c.last.Replies[0].Card
	require.NotNil(t, card)
	assert.Equal(t, "Your beer!", card.Title)
	assert.Equal(t, "Guinness Draught", card.Subtitle)
	assert.Equal(t, "Creamy dry stout", card.Text)
	assert.Equal(t, 1, c.session.Depth())
	assert.Equal(t, runtime.HandlerRootOfferOrder, c.top().Handler)

	assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, c.say("yes"))
	assert.Equal(t, []string{"How about something to eat?"}, c.say("whiskey"))
	assert.Equal(t, []string{
		"Your order of Guinness Draught and Whiskey with Fries is coming right up!",
		"So what would you like to do next?",
	}, c.say("Fries"))

	assert.Empty(t, c.last.RememberBeer, "orders of a recommended beer are not remembered")
	require.Len(t, c.last.Orders, 1)
	assert.False(t, c.last.Orders[0].Remembered)
	assert.Equal(t, domain.BeerOrder{BeerName: "Guinness Draught", Chaser: domain.ChaserWhiskey, SideDish: domain.SideFries}, c.last.Orders[0].Order)
	assert.Equal(t, 1, c.session.Depth())
	assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
}

func TestEngine_DeclineRecommendedBeer(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")
	c.say("By Beer Name")
	assert.Equal(t, []string{"Eureka! I've got a beer for you", "Sierra Nevada Pale Ale", "Would you like to order 'Sierra Nevada Pale Ale'?"}, c.say("sierra"))

	assert.Equal(t, []string{"So what would you like to do next?"}, c.say("no"))
	assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
	assert.Nil(t, c.top().Beer)
}

func TestEngine_ReorderUsualBeer(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.facts = &domain.UserFacts{UserID: "u1", LastOrderedBeerName: "Guinness Draught"}

	assert.Equal(t, []string{"Would you like to order your usual Guinness Draught?"}, c.say("hi"))
	assert.Equal(t, []string{"Yes", "No"}, c.last.Replies[0].Options)

	assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, c.say("y"))
	c.say("Water")
	assert.Equal(t, []string{
		"Your order of Guinness Draught and Water with Nachos is coming right up!",
		"So what would you like to do next?",
	}, c.say("3"))

	assert.Equal(t, "Guinness Draught", c.last.RememberBeer)
	require.Len(t, c.last.Orders, 1)
	assert.True(t, c.last.Orders[0].Remembered)
}

func TestEngine_DeclineReorder(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.facts = &domain.UserFacts{UserID: "u1", LastOrderedBeerName: "Stout"}

	c.say("hi")
	assert.Equal(t, []string{"No problem. So how can I help you?"}, c.say("no"))
	assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
	assert.Nil(t, c.top().Order)
}

func TestEngine_GreetWithoutFacts(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	assert.Equal(t, []string{"Howdy! How can I help you?"}, c.say("hi"))
	assert.Equal(t, domain.FrameWaitingMessage, c.top().Kind)
}

func TestEngine_OriginWithSingleBrewery(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")

	assert.Equal(t, []string{"Where would you like your beer from?"}, c.say("By Beer Origin"))
	assert.ElementsMatch(t, []string{"Atlantis", "Ireland", "United States"}, c.last.Replies[0].Options)

	assert.Equal(t, []string{"Then you need a beer made by Guinness", "Which one of these works?"}, c.say("Ireland"))
	assert.Equal(t, runtime.HandlerRecommendPick, c.top().Handler)
	assert.Len(t, c.top().Narrowing.Candidates, 3)
}

func TestEngine_OriginWithSeveralBreweries(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")
	c.say("By Beer Origin")

	assert.Equal(t, []string{"Which brewery?"}, c.say("united states"))
	assert.ElementsMatch(t, []string{"Sierra Nevada", "Deschutes"}, c.last.Replies[0].Options)

	replies := c.say("Deschutes")
	assert.Equal(t, []string{"Eureka! I've got a beer for you", "Mirror Pond Pale Ale", "Would you like to order 'Mirror Pond Pale Ale'?"}, replies)
}

func TestEngine_EmptyResultRestartsPath(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")
	c.say("By Beer Origin")

	assert.Equal(t, []string{
		"Then you need a beer made by Ghost Brewing",
		"Oops! I haven't found any beer!",
		"Where would you like your beer from?",
	}, c.say("Atlantis"))
	assert.Equal(t, 1, c.top().Narrowing.Retries)
	assert.Equal(t, runtime.HandlerRecommendCountry, c.top().Handler)

	c2 := newConversation(t, newEngine(fixtureCatalog()))
	c2.say("recommend")
	c2.say("By Beer Category")
	assert.Equal(t, []string{"Oops! I haven't found any beer!", "Which kind of beer do you like?"}, c2.say("Empty Category"))
}

func TestEngine_RetriesAreBounded(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")
	assert.Equal(t, []string{"Do you remember the name? Give me what you remember"}, c.say("3"))

	for i := 1; i <= runtime.DefaultMaxRetries; i++ {
		assert.Equal(t, []string{
			"Oops! I haven't found any beer!",
			"Do you remember the name? Give me what you remember",
		}, c.say("zzz"), "retry %d", i)
		assert.Equal(t, i, c.top().Narrowing.Retries)
	}

	assert.Equal(t, []string{"Oops! I haven't found any beer!"}, c.say("zzz"))
	assert.Equal(t, 1, c.session.Depth())
	assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
}

func TestEngine_DirectRecommendation(t *testing.T) {
	t.Run("entities narrow without questions", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		assert.Equal(t, []string{"Which one of these works?"}, c.say("irish beer please"))
		assert.Equal(t, domain.StrategyDirect, c.top().Narrowing.Strategy)
		require.NotNil(t, c.top().Narrowing.Filter)
		assert.Equal(t, "Ireland", c.top().Narrowing.Filter.Country)
	})

	t.Run("empty direct result is exhausted", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		assert.Equal(t, []string{"Oops! I haven't found any beer!"}, c.say("a beer from atlantis"))
		assert.Equal(t, 1, c.session.Depth())
		assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
	})
}

func TestEngine_OrderWithAmbiguousBeer(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))

	assert.Equal(t, []string{"What beer would you like?"}, c.say("order"))
	assert.Equal(t, []string{"I'm not sure which one"}, c.say("Pale Ale"))
	assert.Equal(t, []string{"Sierra Nevada Pale Ale", "Mirror Pond Pale Ale"}, c.last.Replies[0].Options)

	assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, c.say("2"))
	assert.Equal(t, "Mirror Pond Pale Ale", c.top().Order.BeerName)
	assert.True(t, c.top().Order.BeerVerified)

	c.say("Liquor")
	c.say("Pretzels")
	assert.Equal(t, "Mirror Pond Pale Ale", c.last.RememberBeer)
}

func TestEngine_OrderValidation(t *testing.T) {
	t.Run("unknown beer asks again", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		c.say("order")
		assert.Equal(t, []string{"Don't know such beer... Try again."}, c.say("budweiser"))
		assert.Equal(t, runtime.HandlerOrderBeer, c.top().Handler)
		assert.Empty(t, c.top().Order.BeerName)
	})

	t.Run("single hit is accepted", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		c.say("order")
		c.say("mirror")
		assert.Equal(t, "Mirror Pond Pale Ale", c.top().Order.BeerName)
	})

	t.Run("exact match wins over partial matches", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		c.say("order")
		assert.Equal(t, []string{"Which chaser would you like next to your beer?"}, c.say("STOUT"))
		assert.Equal(t, "Stout", c.top().Order.BeerName)
	})

	t.Run("entities seed the slots", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		assert.Equal(t, []string{"How about something to eat?"}, c.say("order a stout with vodka"))
		d := c.top().Order
		assert.Equal(t, "Stout", d.BeerName)
		assert.Equal(t, domain.ChaserVodka, d.Chaser)
		assert.Empty(t, d.SideDish, "unknown side dishes are ignored")
	})
}

func TestEngine_TooManyAttempts(t *testing.T) {
	t.Run("nested dialog is cancelled", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog()))
		c.say("recommend")
		assert.Equal(t, []string{"Not sure I got it. Could you try again?"}, c.say("beer me"))
		assert.Equal(t, []string{"Not sure I got it. Could you try again?"}, c.say("whatever"))
		assert.Equal(t, []string{"I'm afraid I'm lost. Let's start over. How can I help you?"}, c.say("dunno"))
		assert.Equal(t, 1, c.session.Depth())
		assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
	})

	t.Run("root confirmation is reset", func(t *testing.T) {
		c := newConversation(t, newEngine(fixtureCatalog(), runtime.WithMaxAttempts(2)))
		c.facts = &domain.UserFacts{LastOrderedBeerName: "Stout"}
		c.say("hi")
		assert.Equal(t, []string{"Sorry, was that a yes or a no? Would you like to order your usual Stout?"}, c.say("maybe"))
		assert.Equal(t, []string{"I'm afraid I'm lost. Let's start over. How can I help you?"}, c.say("perhaps"))
		assert.Equal(t, runtime.HandlerRootMessage, c.top().Handler)
		assert.Nil(t, c.top().Order)
	})
}

func TestEngine_SimpleIntents(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	assert.Equal(t, []string{"I can recommend a beer for you, or you can go ahead and make an order."}, c.say("help"))
	assert.Equal(t, []string{"I'm sorry, I didn't get that. How can I help you?"}, c.say("what is the meaning of life"))
	assert.Equal(t, []string{"Bye bye. See you soon!"}, c.say("bye"))
	assert.True(t, c.session.Done())

	_, err := c.engine.Process(context.Background(), c.session, nil, "hi")
	assert.ErrorIs(t, err, domain.ErrSessionDone)
}

func TestEngine_ClassifierFailureIsUnidentified(t *testing.T) {
	failing := func(ctx context.Context, text string) (domain.Classification, error) {
		return domain.Classification{}, assert.AnError
	}
	e := runtime.NewEngine(fixtureCatalog(), ports.ClassifierFunc(failing))
	c := newConversation(t, e)
	assert.Equal(t, []string{"I'm sorry, I didn't get that. How can I help you?"}, c.say("hi"))
}

func TestEngine_CatalogUnavailable(t *testing.T) {
	t.Run("first lookup ends the narrowing", func(t *testing.T) {
		cat := &failingCatalog{Catalog: fixtureCatalog(), fail: map[string]bool{"categories": true}}
		c := newConversation(t, newEngine(cat))
		c.say("recommend")
		assert.Equal(t, []string{"I can't reach the beer catalog right now. Please try again later."}, c.say("By Beer Category"))
		assert.Equal(t, 1, c.session.Depth())
	})

	t.Run("later lookup restarts the path", func(t *testing.T) {
		cat := &failingCatalog{Catalog: fixtureCatalog(), fail: map[string]bool{"beers_by_style": true}}
		c := newConversation(t, newEngine(cat))
		c.say("recommend")
		c.say("By Beer Category")
		c.say("Irish Ale")
		assert.Equal(t, []string{
			"I can't reach the beer catalog right now. Please try again later.",
			"Which kind of beer do you like?",
		}, c.say("Irish Dry Stout"))
	})

	t.Run("order validation keeps asking", func(t *testing.T) {
		cat := &failingCatalog{Catalog: fixtureCatalog(), fail: map[string]bool{"beers_by_search_term": true}}
		c := newConversation(t, newEngine(cat))
		c.say("order")
		assert.Equal(t, []string{
			"I can't reach the beer catalog right now. Please try again later.",
			"What beer would you like?",
		}, c.say("stout"))
		assert.Equal(t, runtime.HandlerOrderBeer, c.top().Handler)
	})
}

func TestEngine_CancelledTurnFails(t *testing.T) {
	cat := &failingCatalog{Catalog: fixtureCatalog()}
	e := newEngine(cat)
	c := newConversation(t, e)
	c.say("order")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Process(ctx, c.session, nil, "stout")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ProcessDoesNotMutateInput(t *testing.T) {
	c := newConversation(t, newEngine(fixtureCatalog()))
	c.say("recommend")
	c.say("By Beer Category")

	before := c.session.Clone()
	_, err := c.engine.Process(context.Background(), c.session, nil, "Irish Ale")
	require.NoError(t, err)

	if diff := cmp.Diff(before, c.session); diff != "" {
		t.Errorf("input session changed (-before +after):\n%s", diff)
	}
}

func TestEngine_SameSeedSameConversation(t *testing.T) {
	repo, err := catalog.LoadSample()
	require.NoError(t, err)

	script := []string{"recommend", "By Beer Origin", "1", "1", "1", "yes", "water", "fries"}
	run := func() [][]domain.Reply {
		e := runtime.NewEngine(repo, scripted(), runtime.WithRandom(sample.NewSource(7)))
		s := e.NewSession("c1", "u1")
		var all [][]domain.Reply
		for _, text := range script {
			out, err := e.Process(context.Background(), s, nil, text)
			require.NoError(t, err)
			s = out.Session
			all = append(all, out.Replies)
		}
		return all
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("replies differ between runs with the same seed:\n%s", diff)
	}
}

func TestEngine_RandomInputsTerminate(t *testing.T) {
	repo, err := catalog.LoadSample()
	require.NoError(t, err)
	e := runtime.NewEngine(repo, scripted(), runtime.WithRandom(sample.NewSource(1)))

	vocabulary := []string{"hi", "recommend", "order", "help", "1", "2", "3", "yes", "no", "pale", "zzz", "", "Whiskey", "Fries", "irish beer please"}
	pick := sample.NewSource(99)

	s := e.NewSession("fuzz", "u1")
	for i := 0; i < 500; i++ {
		text := vocabulary[pick.IntN(len(vocabulary))]
		out, err := e.Process(context.Background(), s, &domain.UserFacts{LastOrderedBeerName: "Guinness Draught"}, text)
		require.NoError(t, err, "turn %d %q", i, text)
		require.NotEmpty(t, out.Replies, "turn %d %q got no reply", i, text)
		s = out.Session
		require.LessOrEqual(t, s.Depth(), 2)
		require.True(t, s.Top().Waiting())
	}
}

func TestEngine_ImageOnCard(t *testing.T) {
	images := &stubImages{url: "https://img.example/stout.png"}
	c := newConversation(t, newEngine(fixtureCatalog(), runtime.WithImageSearcher(images)))
	c.say("recommend")
	c.say("By Beer Name")
	c.say("mirror")

	assert.Equal(t, []string{"Mirror Pond Pale Ale beer"}, images.queries)
	card := c.last.Replies[1].Card
	require.NotNil(t, card)
	assert.Equal(t, "https://img.example/stout.png", card.ImageURL)

	images.err = assert.AnError
	c2 := newConversation(t, newEngine(fixtureCatalog(), runtime.WithImageSearcher(images)))
	c2.say("recommend")
	c2.say("By Beer Name")
	c2.say("mirror")
	require.NotNil(t, c2.last.Replies[1].Card)
	assert.Empty(t, c2.last.Replies[1].Card.ImageURL, "image failures only drop the picture")
}

func TestEngine_Hooks(t *testing.T) {
	var intents []domain.Intent
	var recs []*domain.RecommendationEvent
	hooks := domain.LifecycleHooks{
		OnIntent: func(ctx context.Context, e *domain.IntentEvent) {
			intents = append(intents, e.Intent)
		},
		OnRecommendation: func(ctx context.Context, e *domain.RecommendationEvent) {
			recs = append(recs, e)
		},
	}
	c := newConversation(t, newEngine(fixtureCatalog(), runtime.WithLifecycleHooks(hooks)))
	c.say("help")
	c.say("a beer from atlantis")
	c.say("irish beer please")
	c.say("Stout")

	assert.Equal(t, []domain.Intent{domain.IntentGetHelp, domain.IntentRecommendBeer, domain.IntentRecommendBeer}, intents)
	require.Len(t, recs, 2)
	assert.Nil(t, recs[0].Beer)
	require.NotNil(t, recs[1].Beer)
	assert.Equal(t, "Stout", recs[1].Beer.Name)
	assert.Equal(t, domain.StrategyDirect, recs[1].Strategy)
	assert.Equal(t, "c1", recs[1].ConversationID)
}

func TestEngine_Phrasebook(t *testing.T) {
	e := newEngine(fixtureCatalog(), runtime.WithPhrasebook(domain.Phrasebook{Greeting: "Ahoy!"}))
	c := newConversation(t, e)
	assert.Equal(t, []string{"Ahoy!"}, c.say("hi"))
	assert.Equal(t, []string{"Bye bye. See you soon!"}, c.say("bye"))
	assert.Equal(t, "Hi there Ana! Welcome to your friendly neighborhood bot-tender :)", e.Welcome("Ana").Text)
}

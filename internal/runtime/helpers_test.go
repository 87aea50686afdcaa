package runtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/bartender/internal/runtime"
	"github.com/aretw0/bartender/pkg/adapters/catalog"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/ports"
	"github.com/aretw0/bartender/pkg/sample"
	"github.com/stretchr/testify/require"
)

func fixtureCatalog() *catalog.Repository {
	categories := []domain.Category{
		{ID: 1, Name: "North American Ale"},
		{ID: 2, Name: "Irish Ale"},
		{ID: 3, Name: "Empty Category"},
	}
	styles := []domain.Style{
		{ID: 10, CategoryID: 1, Name: "American-Style Pale Ale"},
		{ID: 11, CategoryID: 1, Name: "Forgotten Style"},
		{ID: 20, CategoryID: 2, Name: "Irish Dry Stout"},
	}
	breweries := []domain.Brewery{
		{ID: 100, Name: "Sierra Nevada", Country: "United States"},
		{ID: 101, Name: "Deschutes", Country: "United States"},
		{ID: 200, Name: "Guinness", Country: "Ireland"},
		{ID: 300, Name: "Ghost Brewing", Country: "Atlantis"},
	}
	beers := []domain.Beer{
		{ID: 1, Name: "Sierra Nevada Pale Ale", BreweryID: 100, CategoryID: 1, StyleID: 10, Description: "Classic cascade pale ale"},
		{ID: 2, Name: "Mirror Pond Pale Ale", BreweryID: 101, CategoryID: 1, StyleID: 10},
		{ID: 3, Name: "Guinness Draught", BreweryID: 200, CategoryID: 2, StyleID: 20, Description: "Creamy dry stout"},
		{ID: 4, Name: "Guinness Extra Stout", BreweryID: 200, CategoryID: 2, StyleID: 20},
		{ID: 5, Name: "Stout", BreweryID: 200, CategoryID: 2, StyleID: 20},
	}
	return catalog.NewRepository(beers, breweries, categories, styles)
}

var classifications = map[string]domain.Classification{
	"hi":        {Intent: domain.IntentGreet},
	"bye":       {Intent: domain.IntentBye},
	"help":      {Intent: domain.IntentGetHelp},
	"recommend": {Intent: domain.IntentRecommendBeer},
	"order":     {Intent: domain.IntentOrderBeer},
	"irish beer please": {
		Intent:   domain.IntentRecommendBeer,
		Entities: domain.Entities{Country: "Ireland"},
	},
	"a beer from atlantis": {
		Intent:   domain.IntentRecommendBeer,
		Entities: domain.Entities{Country: "Atlantis"},
	},
	"order a stout with vodka": {
		Intent:   domain.IntentOrderBeer,
		Entities: domain.Entities{BeerName: "stout", Chaser: "vodka", SideDish: "ice cream"},
	},
}

// scripted classifies the known phrases above; anything else is unidentified.
func scripted() ports.Classifier {
	return ports.ClassifierFunc(func(ctx context.Context, text string) (domain.Classification, error) {
		if c, ok := classifications[strings.ToLower(strings.TrimSpace(text))]; ok {
			return c, nil
		}
		return domain.Classification{Intent: domain.IntentUnidentified}, nil
	})
}

func newEngine(cat ports.Catalog, opts ...runtime.Option) *runtime.Engine {
	opts = append([]runtime.Option{runtime.WithRandom(sample.NewSource(42))}, opts...)
	return runtime.NewEngine(cat, scripted(), opts...)
}

// conversation drives an engine turn by turn, like a transport would.
type conversation struct {
	t       *testing.T
	engine  *runtime.Engine
	session *domain.Session
	facts   *domain.UserFacts
	last    *runtime.Outcome
}

func newConversation(t *testing.T, e *runtime.Engine) *conversation {
	return &conversation{t: t, engine: e, session: e.NewSession("c1", "u1")}
}

// say processes text and returns the reply texts.
func (c *conversation) say(text string) []string {
	c.t.Helper()
	out, err := c.engine.Process(context.Background(), c.session, c.facts, text)
	require.NoError(c.t, err, "turn %q", text)
	c.session = out.Session
	c.last = out
	return domain.Texts(out.Replies)
}

func (c *conversation) top() *domain.Frame {
	return c.session.Top()
}

// failingCatalog wraps a catalog and fails the named lookups.
type failingCatalog struct {
	ports.Catalog
	fail map[string]bool
}

func (f *failingCatalog) err(name string) error {
	if f.fail[name] {
		return domain.ErrCatalogUnavailable
	}
	return nil
}

func (f *failingCatalog) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := f.err("categories"); err != nil {
		return nil, err
	}
	return f.Catalog.Categories(ctx)
}

func (f *failingCatalog) BeersByStyle(ctx context.Context, styleID int) ([]domain.Beer, error) {
	if err := f.err("beers_by_style"); err != nil {
		return nil, err
	}
	return f.Catalog.BeersByStyle(ctx, styleID)
}

func (f *failingCatalog) BeersBySearchTerm(ctx context.Context, term string) ([]domain.Beer, error) {
	if err := f.err("beers_by_search_term"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Catalog.BeersBySearchTerm(ctx, term)
}

type stubImages struct {
	queries []string
	url     string
	err     error
}

func (s *stubImages) SearchImage(ctx context.Context, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.url, s.err
}

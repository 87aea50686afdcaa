package runtime

import (
	"strconv"
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/sample"
)

// startRecommendation pushes the recommendation dialog. Entities naming a beer,
// brewery, category or country skip the interactive narrowing.
func (t *turn) startRecommendation(ent domain.Entities) error {
	filter, direct := ent.RecommendationFilter()

	n := &domain.Narrowing{}
	if direct {
		n.Strategy = domain.StrategyDirect
		n.Filter = &filter
	}
	f, err := t.push(domain.Frame{Dialog: domain.DialogRecommend, Narrowing: n})
	if err != nil {
		return err
	}

	if direct {
		t.e.logger.Debug("direct recommendation", "conversation", t.session.ID, "filter", filter)
		beers, err := t.e.catalog.BeersByFilter(t.ctx, filter)
		return t.offer(f, "beers_by_filter", beers, err)
	}

	p := t.e.phrases
	t.ask(f, domain.FrameWaitingChoice, HandlerRecommendStrategy, p.Strategy, p.StrategyRetry, []domain.Choice{
		{Label: p.ByCategory, Value: string(domain.StrategyCategory)},
		{Label: p.ByOrigin, Value: string(domain.StrategyOrigin)},
		{Label: p.ByName, Value: string(domain.StrategyName)},
	})
	return nil
}

func (t *turn) narrowing(f *domain.Frame) (*domain.Narrowing, error) {
	if f.Narrowing == nil {
		return nil, t.invariant(f.Handler, "recommendation frame without narrowing state")
	}
	return f.Narrowing, nil
}

func (t *turn) recommendStrategy(in input) error {
	f := t.session.Top()
	n, err := t.narrowing(f)
	if err != nil {
		return err
	}
	switch s := domain.Strategy(in.Choice.Value); s {
	case domain.StrategyCategory, domain.StrategyOrigin, domain.StrategyName:
		n.Strategy = s
	default:
		return t.invariant(f.Handler, "unknown strategy %q", in.Choice.Value)
	}
	return t.startPath(f)
}

// startPath issues the first question of the chosen path. A first lookup
// that fails or comes back empty ends the narrowing.
func (t *turn) startPath(f *domain.Frame) error {
	p := t.e.phrases
	n := f.Narrowing
	n.Candidates = nil

	switch n.Strategy {
	case domain.StrategyCategory:
		cats, err := t.e.catalog.Categories(t.ctx)
		if err != nil {
			if err := t.catalogFailed("categories", err); err != nil {
				return err
			}
			return t.exhaust(f)
		}
		if len(cats) == 0 {
			t.say(p.NoBeer)
			return t.exhaust(f)
		}
		choices := make([]domain.Choice, len(cats))
		for i, c := range cats {
			choices[i] = domain.Choice{Label: c.Name, Value: strconv.Itoa(c.ID)}
		}
		t.ask(f, domain.FrameWaitingChoice, HandlerRecommendCategory, p.Category, p.CategoryRetry, choices)

	case domain.StrategyOrigin:
		countries, err := t.e.catalog.Countries(t.ctx)
		if err != nil {
			if err := t.catalogFailed("countries", err); err != nil {
				return err
			}
			return t.exhaust(f)
		}
		picks := sample.Sample(t.e.rand, countries, originSampleSize)
		if len(picks) == 0 {
			t.say(p.NoBeer)
			return t.exhaust(f)
		}
		choices := make([]domain.Choice, len(picks))
		for i, c := range picks {
			choices[i] = domain.Choice{Label: c, Value: c}
		}
		t.ask(f, domain.FrameWaitingChoice, HandlerRecommendCountry, p.Country, p.CountryRetry, choices)

	case domain.StrategyName:
		t.ask(f, domain.FrameWaitingMessage, HandlerRecommendName, p.SearchName, p.SearchRetry, nil)

	default:
		return t.invariant(f.Handler, "cannot start path %q", n.Strategy)
	}
	return nil
}

func (t *turn) recommendCategory(in input) error {
	f := t.session.Top()
	if _, err := t.narrowing(f); err != nil {
		return err
	}
	id, err := t.choiceID(f, in.Choice)
	if err != nil {
		return err
	}

	styles, err := t.e.catalog.StylesByCategory(t.ctx, id)
	if err != nil {
		if err := t.catalogFailed("styles_by_category", err); err != nil {
			return err
		}
		return t.retryPath(f)
	}
	if len(styles) == 0 {
		return t.noBeer(f)
	}

	choices := make([]domain.Choice, len(styles))
	for i, s := range styles {
		choices[i] = domain.Choice{Label: s.Name, Value: strconv.Itoa(s.ID)}
	}
	p := t.e.phrases
	t.ask(f, domain.FrameWaitingChoice, HandlerRecommendStyle, p.Style, p.StyleRetry, choices)
	return nil
}

func (t *turn) recommendStyle(in input) error {
	f := t.session.Top()
	if _, err := t.narrowing(f); err != nil {
		return err
	}
	id, err := t.choiceID(f, in.Choice)
	if err != nil {
		return err
	}
	beers, err := t.e.catalog.BeersByStyle(t.ctx, id)
	return t.offer(f, "beers_by_style", beers, err)
}

func (t *turn) recommendCountry(in input) error {
	f := t.session.Top()
	if _, err := t.narrowing(f); err != nil {
		return err
	}
	p := t.e.phrases

	breweries, err := t.e.catalog.BreweriesByCountry(t.ctx, in.Choice.Value)
	if err != nil {
		if err := t.catalogFailed("breweries_by_country", err); err != nil {
			return err
		}
		return t.retryPath(f)
	}

	picks := sample.Sample(t.e.rand, breweries, originSampleSize)
	switch len(picks) {
	case 0:
		return t.noBeer(f)
	case 1:
		t.say(domain.Format(p.OnlyBrewery, "name", picks[0].Name))
		beers, err := t.e.catalog.BeersByBrewery(t.ctx, picks[0].ID)
		return t.offer(f, "beers_by_brewery", beers, err)
	}

	choices := make([]domain.Choice, len(picks))
	for i, b := range picks {
		choices[i] = domain.Choice{Label: b.Name, Value: strconv.Itoa(b.ID)}
	}
	t.ask(f, domain.FrameWaitingChoice, HandlerRecommendBrewery, p.Brewery, p.BreweryRetry, choices)
	return nil
}

func (t *turn) recommendBrewery(in input) error {
	f := t.session.Top()
	if _, err := t.narrowing(f); err != nil {
		return err
	}
	id, err := t.choiceID(f, in.Choice)
	if err != nil {
		return err
	}
	beers, err := t.e.catalog.BeersByBrewery(t.ctx, id)
	return t.offer(f, "beers_by_brewery", beers, err)
}

func (t *turn) recommendName(in input) error {
	f := t.session.Top()
	if _, err := t.narrowing(f); err != nil {
		return err
	}
	term := strings.TrimSpace(in.Text)
	if term == "" {
		return t.reprompt(f)
	}
	beers, err := t.e.catalog.BeersBySearchTerm(t.ctx, term)
	return t.offer(f, "beers_by_search_term", beers, err)
}

func (t *turn) recommendPick(in input) error {
	f := t.session.Top()
	n, err := t.narrowing(f)
	if err != nil {
		return err
	}
	id, err := t.choiceID(f, in.Choice)
	if err != nil {
		return err
	}
	for _, b := range n.Candidates {
		if b.ID == id {
			return t.resolve(f, b)
		}
	}
	return t.invariant(f.Handler, "picked beer %d is not a candidate", id)
}

// offer samples the terminal lookup: no beer restarts the path, one beer
// resolves, several become a choice.
func (t *turn) offer(f *domain.Frame, lookup string, beers []domain.Beer, err error) error {
	if err != nil {
		if err := t.catalogFailed(lookup, err); err != nil {
			return err
		}
		return t.retryPath(f)
	}

	p := t.e.phrases
	picks := sample.Sample(t.e.rand, beers, beerSampleSize)
	switch len(picks) {
	case 0:
		return t.noBeer(f)
	case 1:
		t.say(p.FoundBeer)
		return t.resolve(f, picks[0])
	}

	f.Narrowing.Candidates = picks
	choices := make([]domain.Choice, len(picks))
	for i, b := range picks {
		choices[i] = domain.Choice{Label: b.Name, Value: strconv.Itoa(b.ID)}
	}
	t.ask(f, domain.FrameWaitingChoice, HandlerRecommendPick, p.PickBeer, p.PickRetry, choices)
	return nil
}

func (t *turn) noBeer(f *domain.Frame) error {
	t.say(t.e.phrases.NoBeer)
	return t.retryPath(f)
}

// retryPath restarts the current path after an empty result, at most
// maxRetries times. Direct recommendations never retry.
func (t *turn) retryPath(f *domain.Frame) error {
	n := f.Narrowing
	if n.Strategy == domain.StrategyDirect || n.Retries >= t.e.maxRetries {
		return t.exhaust(f)
	}
	n.Retries++
	return t.startPath(f)
}

// resolve presents the beer and hands it to the parent.
func (t *turn) resolve(f *domain.Frame, beer domain.Beer) error {
	card := &domain.Card{
		Title:    t.e.phrases.CardTitle,
		Subtitle: beer.Name,
		Text:     beer.Description,
	}
	if t.e.images != nil {
		url, err := t.e.images.SearchImage(t.ctx, beer.Name+" beer")
		switch {
		case err == nil:
			card.ImageURL = url
		case t.ctx.Err() != nil:
			return t.ctx.Err()
		default:
			t.e.logger.Debug("image search failed", "beer", beer.Name, "err", err)
		}
	}
	t.replies = append(t.replies, domain.Reply{Text: beer.Name, Card: card})

	f.Narrowing.Candidates = nil
	t.emitRecommendation(f.Narrowing, &beer)
	t.complete(f, domain.Result{Beer: &beer})
	return nil
}

// exhaust ends the narrowing without a beer.
func (t *turn) exhaust(f *domain.Frame) error {
	f.Narrowing.Candidates = nil
	t.emitRecommendation(f.Narrowing, nil)
	t.complete(f, domain.Result{})
	return nil
}

func (t *turn) choiceID(f *domain.Frame, c domain.Choice) (int, error) {
	id, err := strconv.Atoi(c.Value)
	if err != nil {
		return 0, t.invariant(f.Handler, "choice %q has no numeric id", c.Label)
	}
	return id, nil
}

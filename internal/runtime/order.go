package runtime

import (
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

// startOrder pushes the order dialog seeded with whatever slots are known.
func (t *turn) startOrder(draft domain.OrderDraft) error {
	f, err := t.push(domain.Frame{Dialog: domain.DialogOrder, Order: &draft})
	if err != nil {
		return err
	}
	return t.advanceOrder(f)
}

// advanceOrder asks for the first empty slot or completes the frame.
func (t *turn) advanceOrder(f *domain.Frame) error {
	d := f.Order
	p := t.e.phrases

	switch {
	case d.BeerName == "":
		t.ask(f, domain.FrameWaitingMessage, HandlerOrderBeer, p.AskBeer, p.UnknownBeer, nil)
	case !d.BeerVerified:
		return t.checkBeer(f, d.BeerName)
	case d.Chaser == "":
		chasers := domain.Chasers()
		choices := make([]domain.Choice, len(chasers))
		for i, c := range chasers {
			choices[i] = domain.Choice{Label: string(c), Value: string(c)}
		}
		t.ask(f, domain.FrameWaitingChoice, HandlerOrderChaser, p.AskChaser, p.ChaserRetry, choices)
	case d.SideDish == "":
		dishes := domain.SideDishes()
		choices := make([]domain.Choice, len(dishes))
		for i, s := range dishes {
			choices[i] = domain.Choice{Label: string(s), Value: string(s)}
		}
		t.ask(f, domain.FrameWaitingChoice, HandlerOrderSide, p.AskSide, p.SideRetry, choices)
	default:
		o := d.Order()
		t.complete(f, domain.Result{Order: &o})
	}
	return nil
}

func (t *turn) draft(f *domain.Frame) (*domain.OrderDraft, error) {
	if f.Order == nil {
		return nil, t.invariant(f.Handler, "order frame without a draft")
	}
	return f.Order, nil
}

// checkBeer validates a typed beer name against the catalog. An exact match
// yields the catalog's spelling, a single hit is accepted, several hits are
// offered as choices.
func (t *turn) checkBeer(f *domain.Frame, name string) error {
	d := f.Order
	p := t.e.phrases
	name = strings.TrimSpace(name)

	beers, err := t.e.catalog.BeersBySearchTerm(t.ctx, name)
	if err != nil {
		if err := t.catalogFailed("beers_by_search_term", err); err != nil {
			return err
		}
		d.BeerName = ""
		t.ask(f, domain.FrameWaitingMessage, HandlerOrderBeer, p.AskBeer, p.UnknownBeer, nil)
		return nil
	}

	for _, b := range beers {
		if strings.EqualFold(b.Name, name) {
			return t.acceptBeer(f, b.Name)
		}
	}

	switch len(beers) {
	case 0:
		d.BeerName = ""
		if f.Handler != HandlerOrderBeer {
			// Seeded from entities: nothing was asked yet.
			f.Kind = domain.FrameWaitingMessage
			f.Handler = HandlerOrderBeer
			f.Prompt = p.AskBeer
			f.Retry = p.UnknownBeer
			t.say(p.UnknownBeer)
			return nil
		}
		f.Choices = nil
		return t.reprompt(f)
	case 1:
		return t.acceptBeer(f, beers[0].Name)
	}

	d.BeerName = ""
	choices := make([]domain.Choice, len(beers))
	for i, b := range beers {
		choices[i] = domain.Choice{Label: b.Name, Value: b.Name}
	}
	f.Kind = domain.FrameWaitingMessage
	f.Handler = HandlerOrderBeer
	f.Prompt = p.AskBeer
	f.Retry = p.UnknownBeer
	f.Choices = choices
	t.replies = append(t.replies, domain.Reply{Text: p.AmbiguousBeer, Options: labels(choices)})
	return nil
}

func (t *turn) acceptBeer(f *domain.Frame, name string) error {
	d := f.Order
	d.BeerName = name
	d.BeerVerified = true
	f.Choices = nil
	f.Attempts = 0
	return t.advanceOrder(f)
}

func (t *turn) orderBeer(in input) error {
	f := t.session.Top()
	d, err := t.draft(f)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return t.reprompt(f)
	}
	if c, ok := matchChoice(text, f.Choices); ok {
		return t.acceptBeer(f, c.Value)
	}
	d.BeerName = text
	d.BeerVerified = false
	return t.checkBeer(f, text)
}

func (t *turn) orderChaser(in input) error {
	f := t.session.Top()
	d, err := t.draft(f)
	if err != nil {
		return err
	}
	c, ok := domain.ParseChaser(in.Choice.Value)
	if !ok {
		return t.invariant(f.Handler, "unknown chaser %q", in.Choice.Value)
	}
	d.Chaser = c
	return t.advanceOrder(f)
}

func (t *turn) orderSide(in input) error {
	f := t.session.Top()
	d, err := t.draft(f)
	if err != nil {
		return err
	}
	s, ok := domain.ParseSideDish(in.Choice.Value)
	if !ok {
		return t.invariant(f.Handler, "unknown side dish %q", in.Choice.Value)
	}
	d.SideDish = s
	return t.advanceOrder(f)
}

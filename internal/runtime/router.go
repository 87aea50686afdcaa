package runtime

import (
	"strings"

	"github.com/aretw0/bartender/pkg/domain"
)

// Handler IDs persisted in frames. Renaming one breaks stored sessions.
const (
	HandlerRootMessage           domain.HandlerID = "root.message"
	HandlerRootReorder           domain.HandlerID = "root.reorder"
	HandlerRootOfferOrder        domain.HandlerID = "root.offer_order"
	HandlerRootAfterRecommend    domain.HandlerID = "root.after_recommendation"
	HandlerRootAfterOrder        domain.HandlerID = "root.after_order"
	HandlerRootAfterOfferedOrder domain.HandlerID = "root.after_offered_order"

	HandlerRecommendStrategy domain.HandlerID = "recommend.strategy"
	HandlerRecommendCategory domain.HandlerID = "recommend.category"
	HandlerRecommendStyle    domain.HandlerID = "recommend.style"
	HandlerRecommendCountry  domain.HandlerID = "recommend.country"
	HandlerRecommendBrewery  domain.HandlerID = "recommend.brewery"
	HandlerRecommendName     domain.HandlerID = "recommend.name"
	HandlerRecommendPick     domain.HandlerID = "recommend.pick"

	HandlerOrderBeer   domain.HandlerID = "order.beer"
	HandlerOrderChaser domain.HandlerID = "order.chaser"
	HandlerOrderSide   domain.HandlerID = "order.side"
)

func (e *Engine) dispatchTable() map[domain.HandlerID]handler {
	return map[domain.HandlerID]handler{
		HandlerRootMessage:           (*turn).rootMessage,
		HandlerRootReorder:           (*turn).rootReorder,
		HandlerRootOfferOrder:        (*turn).rootOfferOrder,
		HandlerRootAfterRecommend:    (*turn).rootAfterRecommendation,
		HandlerRootAfterOrder:        (*turn).rootAfterOrder,
		HandlerRootAfterOfferedOrder: (*turn).rootAfterOfferedOrder,

		HandlerRecommendStrategy: (*turn).recommendStrategy,
		HandlerRecommendCategory: (*turn).recommendCategory,
		HandlerRecommendStyle:    (*turn).recommendStyle,
		HandlerRecommendCountry:  (*turn).recommendCountry,
		HandlerRecommendBrewery:  (*turn).recommendBrewery,
		HandlerRecommendName:     (*turn).recommendName,
		HandlerRecommendPick:     (*turn).recommendPick,

		HandlerOrderBeer:   (*turn).orderBeer,
		HandlerOrderChaser: (*turn).orderChaser,
		HandlerOrderSide:   (*turn).orderSide,
	}
}

// Handlers lists every registered handler ID.
func (e *Engine) Handlers() []domain.HandlerID {
	out := make([]domain.HandlerID, 0, len(e.handlers))
	for id := range e.handlers {
		out = append(out, id)
	}
	return out
}

func (t *turn) classify(text string) (domain.Classification, error) {
	c, err := t.e.classifier.Classify(t.ctx, text)
	if err != nil {
		if ctxErr := t.ctx.Err(); ctxErr != nil {
			return domain.Classification{}, ctxErr
		}
		t.e.logger.Warn("classifier failed", "conversation", t.session.ID, "err", err)
		return domain.Classification{Intent: domain.IntentUnidentified}, nil
	}
	return c, nil
}

// rootMessage routes a free-form request by its intent.
func (t *turn) rootMessage(in input) error {
	c, err := t.classify(in.Text)
	if err != nil {
		return err
	}
	t.emitIntent(c)
	t.e.logger.Debug("intent", "conversation", t.session.ID, "intent", c.Intent, "score", c.Score)

	p := t.e.phrases
	root := t.session.Top()
	switch c.Intent {
	case domain.IntentGreet:
		if t.facts == nil || t.facts.LastOrderedBeerName == "" {
			t.say(p.Greeting)
		} else {
			beer := t.facts.LastOrderedBeerName
			t.ask(root, domain.FrameWaitingConfirmation, HandlerRootReorder,
				domain.Format(p.Reorder, "beer", beer),
				domain.Format(p.ReorderRetry, "beer", beer), nil)
			root.Order = &domain.OrderDraft{BeerName: beer, BeerVerified: true}
		}
	case domain.IntentBye:
		t.say(p.Farewell)
		t.idle(root)
		t.session.Status = domain.StatusDone
	case domain.IntentGetHelp:
		t.say(p.Help)
	case domain.IntentRecommendBeer:
		t.suspend(root, HandlerRootAfterRecommend)
		return t.startRecommendation(c.Entities)
	case domain.IntentOrderBeer:
		draft := domain.OrderDraft{BeerName: strings.TrimSpace(c.Entities.BeerName)}
		if ch, ok := domain.ParseChaser(c.Entities.Chaser); ok {
			draft.Chaser = ch
		}
		if d, ok := domain.ParseSideDish(c.Entities.SideDish); ok {
			draft.SideDish = d
		}
		t.suspend(root, HandlerRootAfterOrder)
		return t.startOrder(draft)
	default:
		t.say(p.Unidentified)
	}
	return nil
}

// rootReorder answers "your usual?".
func (t *turn) rootReorder(in input) error {
	root := t.session.Top()
	if root.Order == nil {
		return t.invariant(root.Handler, "reorder prompt without a remembered beer")
	}
	draft := *root.Order
	root.Order = nil

	if !in.Yes {
		t.say(t.e.phrases.ReorderDenied)
		t.idle(root)
		return nil
	}
	t.suspend(root, HandlerRootAfterOrder)
	return t.startOrder(draft)
}

// rootAfterRecommendation offers to order the recommended beer.
func (t *turn) rootAfterRecommendation(in input) error {
	root := t.session.Top()
	if in.Result.Beer == nil {
		t.idle(root)
		return nil
	}
	if root.Beer != nil {
		return t.invariant(root.Handler, "recommendation resolved while %q is still pending", root.Beer.Name)
	}

	beer := *in.Result.Beer
	p := t.e.phrases
	t.ask(root, domain.FrameWaitingConfirmation, HandlerRootOfferOrder,
		domain.Format(p.OfferOrder, "beer", beer.Name),
		domain.Format(p.OfferRetry, "beer", beer.Name), nil)
	root.Beer = &beer
	return nil
}

// rootOfferOrder answers "would you like to order it?".
func (t *turn) rootOfferOrder(in input) error {
	root := t.session.Top()
	if root.Beer == nil {
		return t.invariant(root.Handler, "order offer without a recommended beer")
	}
	beer := *root.Beer
	root.Beer = nil

	if !in.Yes {
		t.say(t.e.phrases.WhatNext)
		t.idle(root)
		return nil
	}
	t.suspend(root, HandlerRootAfterOfferedOrder)
	return t.startOrder(domain.OrderDraft{BeerName: beer.Name, BeerVerified: true})
}

func (t *turn) rootAfterOrder(in input) error {
	return t.orderPlaced(in.Result, true)
}

func (t *turn) rootAfterOfferedOrder(in input) error {
	return t.orderPlaced(in.Result, false)
}

// orderPlaced confirms a finished order. Only orders made from the root are
// remembered as the user's usual.
func (t *turn) orderPlaced(r *domain.Result, remember bool) error {
	root := t.session.Top()
	t.idle(root)
	if r.Order == nil {
		return nil
	}

	o := *r.Order
	p := t.e.phrases
	t.say(domain.Format(p.OrderPlaced,
		"beer", o.BeerName,
		"chaser", string(o.Chaser),
		"side", string(o.SideDish)))
	t.say(p.WhatNext)

	if remember {
		t.remember = o.BeerName
	}
	t.orders = append(t.orders, domain.OrderEvent{
		EventBase:  t.base(domain.EventOrderPlaced),
		Order:      o,
		Remembered: remember,
	})
	return nil
}

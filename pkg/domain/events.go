package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart      EventType = "turn_start"
	EventTurnEnd        EventType = "turn_end"
	EventIntent         EventType = "intent"
	EventRecommendation EventType = "recommendation"
	EventOrderPlaced    EventType = "order_placed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id,omitempty"`
}

// TurnEvent brackets the processing of one inbound message.
type TurnEvent struct {
	EventBase
	Handler  HandlerID     `json:"handler,omitempty"`
	Depth    int           `json:"depth"`
	Replies  int           `json:"replies,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Outcome  string        `json:"outcome,omitempty"` // ok, timeout, error, done
}

// IntentEvent reports the classification that drove the root dialog.
type IntentEvent struct {
	EventBase
	Intent   Intent   `json:"intent"`
	Entities Entities `json:"entities"`
}

// RecommendationEvent reports how a narrowing ended.
type RecommendationEvent struct {
	EventBase
	Strategy Strategy `json:"strategy"`
	Beer     *Beer    `json:"beer,omitempty"` // nil when exhausted
	Retries  int      `json:"retries"`
}

// OrderEvent reports a completed order.
type OrderEvent struct {
	EventBase
	Order      BeerOrder `json:"order"`
	Remembered bool      `json:"remembered"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurnStart      func(context.Context, *TurnEvent)
	OnTurnEnd        func(context.Context, *TurnEvent)
	OnIntent         func(context.Context, *IntentEvent)
	OnRecommendation func(context.Context, *RecommendationEvent)
	OnOrderPlaced    func(context.Context, *OrderEvent)
}

// ComposeHooks fans every callback out to all non-nil callbacks of hooks, in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnTurnStart != nil {
			prev := out.OnTurnStart
			out.OnTurnStart = func(ctx context.Context, e *TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurnStart(ctx, e)
			}
		}
		if h.OnTurnEnd != nil {
			prev := out.OnTurnEnd
			out.OnTurnEnd = func(ctx context.Context, e *TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurnEnd(ctx, e)
			}
		}
		if h.OnIntent != nil {
			prev := out.OnIntent
			out.OnIntent = func(ctx context.Context, e *IntentEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnIntent(ctx, e)
			}
		}
		if h.OnRecommendation != nil {
			prev := out.OnRecommendation
			out.OnRecommendation = func(ctx context.Context, e *RecommendationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRecommendation(ctx, e)
			}
		}
		if h.OnOrderPlaced != nil {
			prev := out.OnOrderPlaced
			out.OnOrderPlaced = func(ctx context.Context, e *OrderEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnOrderPlaced(ctx, e)
			}
		}
	}
	return out
}

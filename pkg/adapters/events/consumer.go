package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aretw0/bartender/pkg/domain"
)

// OrderHandler handles one decoded order. Returning an error nacks the message.
type OrderHandler func(ctx context.Context, e *domain.OrderEvent) error

// ConsumeOrders subscribes to topic and calls fn for every order until ctx
// is done or the subscription closes. Messages that cannot be decoded are
// logged and acked so they do not block the stream.
func ConsumeOrders(ctx context.Context, sub message.Subscriber, topic string, logger *slog.Logger, fn OrderHandler) error {
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			e, err := DecodeOrder(msg)
			if err != nil {
				logger.Warn("dropping malformed order message", "message_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			if err := fn(msg.Context(), e); err != nil {
				logger.Error("order handler failed", "message_id", msg.UUID, "conversation_id", e.ConversationID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

// Package events publishes placed orders to a message broker through watermill.
//
// Orders travel as JSON-encoded domain.OrderEvent payloads on a single topic.
// NewGoChannel gives an in-process broker for tests and single-binary setups;
// NewRedisStream writes to a Redis stream the bar's ticket printers consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTopic is where orders are published unless WithTopic says otherwise.
const DefaultTopic = "bartender.orders"

// Metadata keys set on every order message.
const (
	MetaConversationID = "conversation_id"
	MetaEventType      = "event_type"
)

// Publisher implements ports.OrderPublisher on top of a watermill publisher.
type Publisher struct {
	pub   message.Publisher
	topic string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// NewPublisher wraps pub.
func NewPublisher(pub message.Publisher, opts ...Option) *Publisher {
	p := &Publisher{pub: pub, topic: DefaultTopic}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Topic returns the topic orders are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// PublishOrder sends e as one message.
func (p *Publisher) PublishOrder(ctx context.Context, e *domain.OrderEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetaConversationID, e.ConversationID)
	msg.Metadata.Set(MetaEventType, string(e.Type))

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish order to %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	return p.pub.Close()
}

// DecodeOrder reads the order event carried by msg.
func DecodeOrder(msg *message.Message) (*domain.OrderEvent, error) {
	var e domain.OrderEvent
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("failed to decode order message %s: %w", msg.UUID, err)
	}
	return &e, nil
}

// NewGoChannel returns an in-process pub/sub. Messages published before any
// subscriber exists are dropped unless persistent is set.
func NewGoChannel(logger *slog.Logger, persistent bool) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          persistent,
	}, watermill.NewSlogLogger(logger))
}

// NewRedisStream returns a publisher writing to Redis streams named after the topic.
func NewRedisStream(client redis.UniversalClient, logger *slog.Logger) (message.Publisher, error) {
	return rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: rstream.DefaultMarshallerUnmarshaller{},
	}, watermill.NewSlogLogger(logger))
}

// NewRedisStreamSubscriber reads order messages as member consumer of group.
func NewRedisStreamSubscriber(client redis.UniversalClient, group, consumer string, logger *slog.Logger) (message.Subscriber, error) {
	return rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  rstream.DefaultMarshallerUnmarshaller{},
		ConsumerGroup: group,
		Consumer:      consumer,
	}, watermill.NewSlogLogger(logger))
}

package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/adapters/events"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderEvent() *domain.OrderEvent {
	return &domain.OrderEvent{
		EventBase: domain.EventBase{
			Timestamp:      time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
			Type:           domain.EventOrderPlaced,
			ConversationID: "c1",
			UserID:         "u1",
		},
		Order:      domain.BeerOrder{BeerName: "ESB", Chaser: domain.ChaserWater, SideDish: domain.SideFries},
		Remembered: true,
	}
}

func TestPublisher_GoChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewGoChannel(logging.NewNop(), false)
	defer bus.Close()

	messages, err := bus.Subscribe(ctx, "orders")
	require.NoError(t, err)

	pub := events.NewPublisher(bus, events.WithTopic("orders"))
	assert.Equal(t, "orders", pub.Topic())
	require.NoError(t, pub.PublishOrder(ctx, orderEvent()))

	select {
	case msg := <-messages:
		defer msg.Ack()
		assert.NotEmpty(t, msg.UUID)
		assert.Equal(t, "c1", msg.Metadata.Get(events.MetaConversationID))
		assert.Equal(t, string(domain.EventOrderPlaced), msg.Metadata.Get(events.MetaEventType))

		got, err := events.DecodeOrder(msg)
		require.NoError(t, err)
		assert.Equal(t, orderEvent(), got)
	case <-time.After(2 * time.Second):
		t.Fatal("order was not delivered")
	}
}

func TestPublisher_RedisStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rs, err := events.NewRedisStream(client, logging.NewNop())
	require.NoError(t, err)
	pub := events.NewPublisher(rs)

	ctx := context.Background()
	require.NoError(t, pub.PublishOrder(ctx, orderEvent()))
	require.NoError(t, pub.PublishOrder(ctx, orderEvent()))

	n, err := client.XLen(ctx, events.DefaultTopic).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDecodeOrder_Invalid(t *testing.T) {
	bus := events.NewGoChannel(logging.NewNop(), true)
	defer bus.Close()

	ctx := context.Background()
	messages, err := bus.Subscribe(ctx, "raw")
	require.NoError(t, err)

	require.NoError(t, bus.Publish("raw", newRawMessage("not json")))
	msg := <-messages
	msg.Ack()
	_, err = events.DecodeOrder(msg)
	assert.Error(t, err)
}

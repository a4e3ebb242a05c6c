package ordercache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/redisx"
)

func newService(t *testing.T) (*Service, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Redis: rdb, Log: zap.NewNop(), Name: "test"}, rdb
}

func envelope(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleOrderCreatedCachesPending(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	m := envelope(t, "ev-1", orders.EventOrderCreated, orders.OrderCreatedPayload{
		OrderID: "o-1", UserID: 7, TotalCents: 3500, ItemCount: 2,
	})
	require.NoError(t, svc.HandleMessage(ctx, m))

	got, err := rdb.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, "o-1")).Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending"}`, got)
}

func TestHandleStatusChanged(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	m := envelope(t, "ev-2", orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: "o-1", Status: orders.StatusShipped,
	})
	require.NoError(t, svc.HandleMessage(ctx, m))

	got, err := rdb.Get(ctx, fmt.Sprintf(redisx.KeyOrderStatus, "o-1")).Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"shipped"}`, got)
}

func TestHandleMessageDedup(t *testing.T) {
	svc, rdb := newService(t)
	ctx := context.Background()

	m := envelope(t, "ev-3", orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: "o-2", Status: orders.StatusDelivered,
	})
	require.NoError(t, svc.HandleMessage(ctx, m))

	// overwrite the cache, then redeliver the same event
	key := fmt.Sprintf(redisx.KeyOrderStatus, "o-2")
	require.NoError(t, rdb.Set(ctx, key, `{"status":"pending"}`, 0).Err())
	require.NoError(t, svc.HandleMessage(ctx, m))

	got, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"pending"}`, got, "redelivered event must not re-apply")
}

func TestHandleMessageUnknownType(t *testing.T) {
	svc, _ := newService(t)

	m := envelope(t, "ev-4", "SomethingElse", map[string]string{})
	assert.NoError(t, svc.HandleMessage(context.Background(), m))
}

func TestHandleMessageBadEnvelope(t *testing.T) {
	svc, _ := newService(t)

	err := svc.HandleMessage(context.Background(), kafkago.Message{Value: []byte("{")})
	assert.Error(t, err)
}

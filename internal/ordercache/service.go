package ordercache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/redisx"
)

// Service keeps the Redis order-status cache in step with order events,
// so GET /orders reads served from cache do not go stale after admin
// status changes.
type Service struct {
	Redis *redis.Client
	Log   *zap.Logger
	Name  string // dedup namespace
}

// HandleMessage is installed as the consumer handler for both order topics.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	// at-least-once delivery: drop events we have already applied
	dkey := fmt.Sprintf(redisx.KeyDedup, s.Name, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.cacheStatus(ctx, p.OrderID, orders.StatusPending); err != nil {
			return err
		}
		s.Log.Info("order created",
			zap.String("order_id", p.OrderID),
			zap.Int64("user_id", p.UserID),
			zap.Int64("total_cents", p.TotalCents),
			zap.Int("item_count", p.ItemCount),
		)

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := s.cacheStatus(ctx, p.OrderID, p.Status); err != nil {
			return err
		}
		s.Log.Info("order status changed",
			zap.String("order_id", p.OrderID),
			zap.String("status", string(p.Status)),
		)

	default:
		// unknown event type: commit and move on
		return nil
	}

	return s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, status orders.Status) error {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]string{"status": string(status)})
	return s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/checkout"
	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/redisx"
)

// OrderPlacer is what this handler needs from the checkout engine.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID int64, paymentMethod string) (checkout.Receipt, error)
}

// EventPublisher decouples handlers from the Kafka producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Engine   OrderPlacer
	History  *orders.Repo
	Producer EventPublisher
	Redis    *redis.Client
	Service  string
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router, auth *Auth) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(auth.RequireAuth, RequireUser)
		r.Post("/create", h.create)
		r.Get("/", h.list)
		r.Get("/search", h.search)
	})
}

type createOrderReq struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())

	var req createOrderReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // body is optional
	}

	receipt, err := h.Engine.PlaceOrder(r.Context(), id.UserID, req.PaymentMethod)
	if err != nil {
		h.respondCheckoutError(w, err)
		return
	}

	h.afterCommit(r, id.UserID, receipt)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Order created successfully",
		"orderId":       receipt.OrderID,
		"totalCents":    receipt.TotalCents,
		"itemCount":     receipt.ItemCount,
		"paymentId":     receipt.PaymentID,
		"paymentStatus": receipt.PaymentStatus,
	})
}

func (h *OrdersHandler) respondCheckoutError(w http.ResponseWriter, err error) {
	var stockErr *checkout.InsufficientStockError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeMessage(w, http.StatusBadRequest, "Cart is empty")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Item is out of stock or quantity exceeds available stock",
			"gameId":  stockErr.GameID,
		})
	case errors.Is(err, checkout.ErrPaymentFailed):
		writeMessage(w, http.StatusInternalServerError, "Error processing payment")
	default:
		writeMessage(w, http.StatusInternalServerError, "Error creating order")
	}
}

// afterCommit caches the fresh status and announces the order. The order
// is already durable; failures here are logged, never surfaced.
func (h *OrdersHandler) afterCommit(r *http.Request, userID int64, receipt checkout.Receipt) {
	ctx := r.Context()

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, receipt.OrderID)
	if err := h.Redis.Set(ctx, statusKey, `{"status":"pending"}`, redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn("cache order status", zap.Error(err))
	}

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: receipt.OrderID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    receipt.OrderID,
			UserID:     userID,
			TotalCents: receipt.TotalCents,
			ItemCount:  receipt.ItemCount,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(receipt.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	history, err := h.History.ListByUser(r.Context(), id.UserID, r.URL.Query().Get("status"))
	if err != nil {
		h.Log.Error("list orders", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *OrdersHandler) search(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Order ID is required"})
		return
	}

	order, err := h.History.SearchByID(r.Context(), id.UserID, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.Log.Error("search order", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error searching order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

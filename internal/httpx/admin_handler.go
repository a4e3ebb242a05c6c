package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/catalog"
	kafkax "github.com/pixelvault/gamestore/internal/kafka"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/redisx"
	"github.com/pixelvault/gamestore/internal/users"
)

// AdminHandler is the back office: catalog and inventory management,
// order administration and user administration.
type AdminHandler struct {
	Games    *catalog.AdminRepo
	Orders   *orders.AdminRepo
	Users    *users.Repo
	Producer EventPublisher
	Redis    *redis.Client
	Service  string
	Log      *zap.Logger
}

func (h *AdminHandler) Register(r chi.Router, auth *Auth) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth, RequireAdmin)

		r.Post("/games/insert", h.insertGame)
		r.Put("/games/update", h.updateGame)
		r.Delete("/games/delete", h.deleteGame)

		r.Get("/inventory", h.listInventory)
		r.Put("/inventory", h.setStock)

		r.Get("/orders", h.listOrders)
		r.Get("/orders/search", h.searchOrder)
		r.Put("/orders/status", h.updateOrderStatus)
		r.Delete("/orders", h.deleteOrder)

		r.Get("/users", h.listUsers)
		r.Get("/users/search", h.searchUsers)
		r.Put("/users", h.updateUser)
		r.Put("/users/password", h.updateUserPassword)
	})
}

type insertGameReq struct {
	catalog.GameInput
	StockQuantity *int `json:"stock_quantity"`
}

func (h *AdminHandler) insertGame(w http.ResponseWriter, r *http.Request) {
	var req insertGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.PriceCents == nil || req.Genre == "" {
		writeMessage(w, http.StatusBadRequest, "Required fields missing")
		return
	}
	stock := 0
	if req.StockQuantity != nil {
		stock = *req.StockQuantity
	}

	gameID, err := h.Games.Insert(r.Context(), req.GameInput, stock)
	if err != nil {
		h.Log.Error("insert game", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error adding game")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":       "Game added successfully",
		"gameId":        gameID,
		"stockQuantity": stock,
	})
}

func (h *AdminHandler) updateGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := queryID(w, r, "gameId", "Game ID is required")
	if !ok {
		return
	}
	var in catalog.GameInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Games.Update(r.Context(), gameID, in)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Game not found")
	case errors.Is(err, catalog.ErrNoFields):
		writeMessage(w, http.StatusBadRequest, "No fields to update")
	case err != nil:
		h.Log.Error("update game", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating game")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Game updated successfully",
			"gameId":  gameID,
		})
	}
}

func (h *AdminHandler) deleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := queryID(w, r, "gameId", "Game ID is required")
	if !ok {
		return
	}

	err := h.Games.SoftDelete(r.Context(), gameID)
	var blocked *catalog.DeleteBlockedError
	switch {
	case errors.As(err, &blocked):
		msg := "Cannot delete game that is in active orders"
		if blocked.InCart {
			msg = "Cannot delete game that is in active carts"
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":  msg,
			"inCart":   blocked.InCart,
			"inOrders": blocked.InOrders,
		})
	case errors.Is(err, catalog.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Game not found")
	case err != nil:
		h.Log.Error("delete game", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error deleting game")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Game deleted successfully",
			"gameId":  gameID,
		})
	}
}

func (h *AdminHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Games.InventoryList(r.Context())
	if err != nil {
		h.Log.Error("list inventory", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching inventory")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type setStockReq struct {
	StockQuantity *int `json:"stockQuantity"`
}

func (h *AdminHandler) setStock(w http.ResponseWriter, r *http.Request) {
	gameID, ok := queryID(w, r, "gameId", "Game ID is required")
	if !ok {
		return
	}
	var req setStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StockQuantity == nil || *req.StockQuantity < 0 {
		writeMessage(w, http.StatusBadRequest, "Valid stock quantity is required")
		return
	}

	created, err := h.Games.SetStock(r.Context(), gameID, *req.StockQuantity)
	if err != nil {
		h.Log.Error("set stock", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating inventory")
		return
	}
	code := http.StatusOK
	msg := "Inventory quantity updated successfully"
	if created {
		code = http.StatusCreated
		msg = "Inventory record created successfully"
	}
	writeJSON(w, code, map[string]any{
		"message":       msg,
		"gameId":        gameID,
		"stockQuantity": *req.StockQuantity,
	})
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Orders.List(r.Context())
	if err != nil {
		h.Log.Error("admin list orders", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching orders")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) searchOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeMessage(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	order, err := h.Orders.Search(r.Context(), orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.Log.Error("admin search order", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error searching order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeMessage(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == "" {
		writeMessage(w, http.StatusBadRequest, "Status is required")
		return
	}
	status, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":     "Invalid status value",
			"validValues": orders.AllStatuses(),
		})
		return
	}

	err = h.Orders.UpdateStatus(r.Context(), orderID, status)
	if errors.Is(err, orders.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.Log.Error("update order status", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating order status")
		return
	}

	h.announceStatus(r, orderID, status)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated successfully",
		"orderId": orderID,
		"status":  status,
	})
}

// announceStatus refreshes the cache and emits OrderStatusChanged. The
// database row is already updated; failures here are log-only.
func (h *AdminHandler) announceStatus(r *http.Request, orderID string, status orders.Status) {
	ctx := r.Context()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]string{"status": string(status)})
	if err := h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn("cache order status", zap.Error(err))
	}

	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: orderID,
			Status:  status,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *AdminHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeMessage(w, http.StatusBadRequest, "Order ID is required")
		return
	}
	err := h.Orders.Delete(r.Context(), orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.Log.Error("delete order", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error deleting order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order deleted successfully",
		"orderId": orderID,
	})
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	out, err := h.Users.List(r.Context())
	if err != nil {
		h.Log.Error("list users", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching users")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) searchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "Search query is required")
		return
	}
	out, err := h.Users.Search(r.Context(), query)
	if err != nil {
		h.Log.Error("search users", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error searching users")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type updateUserReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId", "User ID is required")
	if !ok {
		return
	}
	var req updateUserReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Role != "" && req.Role != users.RoleUser && req.Role != users.RoleAdmin {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":     "Invalid role value",
			"validValues": []string{users.RoleUser, users.RoleAdmin},
		})
		return
	}

	err := h.Users.Update(r.Context(), userID, req.Username, req.Email, req.Role)
	switch {
	case errors.Is(err, users.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, users.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, users.ErrNoFields):
		writeMessage(w, http.StatusBadRequest, "No fields to update")
	case err != nil:
		h.Log.Error("update user", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating user")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User updated successfully",
			"userId":  userID,
		})
	}
}

type updatePasswordReq struct {
	NewPassword string `json:"newPassword"`
}

func (h *AdminHandler) updateUserPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := queryID(w, r, "userId", "User ID is required")
	if !ok {
		return
	}
	var req updatePasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		writeMessage(w, http.StatusBadRequest, "Valid password is required (minimum 8 characters)")
		return
	}

	err := h.Users.UpdatePassword(r.Context(), userID, req.NewPassword)
	if errors.Is(err, users.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("update password", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error changing password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Password changed successfully",
		"userId":  userID,
	})
}

// queryID parses a required numeric id from the query string.
func queryID(w http.ResponseWriter, r *http.Request, name, missing string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeMessage(w, http.StatusBadRequest, missing)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, missing)
		return 0, false
	}
	return id, true
}

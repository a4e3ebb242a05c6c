package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/cart"
)

type CartHandler struct {
	Cart *cart.Repo
	Log  *zap.Logger
}

func (h *CartHandler) Register(r chi.Router, auth *Auth) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(auth.RequireAuth, RequireUser)
		r.Get("/", h.list)
		r.Get("/count", h.count)
		r.Post("/add", h.add)
		r.Post("/update", h.update)
		r.Post("/remove", h.remove)
	})
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	items, err := h.Cart.Items(r.Context(), id.UserID)
	if err != nil {
		h.Log.Error("list cart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error fetching cart items")
		return
	}
	var total int64
	for _, it := range items {
		total += it.SubtotalCents
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cartItems":  items,
		"totalCents": total,
		"itemCount":  len(items),
	})
}

func (h *CartHandler) count(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	n, err := h.Cart.Count(r.Context(), id.UserID)
	if err != nil {
		h.Log.Error("count cart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error counting cart items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"itemCount": n})
}

type cartAddReq struct {
	GameID   int64 `json:"gameId"`
	Quantity int   `json:"quantity"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req cartAddReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.GameID == 0 {
		writeMessage(w, http.StatusBadRequest, "Game ID is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cartID, available, err := h.Cart.Add(r.Context(), id.UserID, req.GameID, req.Quantity)
	var stockErr *cart.StockError
	var dupErr *cart.DuplicateError
	switch {
	case errors.Is(err, cart.ErrGameNotFound):
		writeMessage(w, http.StatusNotFound, "Product not found in inventory")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":           "Requested quantity exceeds available stock",
			"availableQuantity": stockErr.Available,
		})
	case errors.As(err, &dupErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":         "Item already exists in cart. Use update endpoint to modify quantity.",
			"cartId":          dupErr.CartID,
			"currentQuantity": dupErr.Quantity,
		})
	case err != nil:
		h.Log.Error("add to cart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error adding item to cart")
	default:
		writeJSON(w, http.StatusCreated, map[string]any{
			"message":           "Item added to cart",
			"cartId":            cartID,
			"quantity":          req.Quantity,
			"availableQuantity": available,
		})
	}
}

type cartUpdateReq struct {
	CartID   int64 `json:"cartId"`
	Quantity int   `json:"quantity"`
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req cartUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CartID == 0 {
		writeMessage(w, http.StatusBadRequest, "Cart ID is required")
		return
	}
	if req.Quantity < 1 {
		writeMessage(w, http.StatusBadRequest, "Valid quantity is required")
		return
	}

	available, err := h.Cart.UpdateQuantity(r.Context(), id.UserID, req.CartID, req.Quantity)
	var stockErr *cart.StockError
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeMessage(w, http.StatusNotFound, "Cart item not found or unauthorized")
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":           "Requested quantity exceeds available stock",
			"availableQuantity": stockErr.Available,
			"cartId":            req.CartID,
		})
	case errors.Is(err, cart.ErrNoChange):
		writeJSON(w, http.StatusOK, map[string]any{
			"message":           "No change in quantity",
			"cartId":            req.CartID,
			"quantity":          req.Quantity,
			"availableQuantity": available,
		})
	case err != nil:
		h.Log.Error("update cart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error updating cart item")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":           "Cart updated successfully",
			"cartId":            req.CartID,
			"quantity":          req.Quantity,
			"availableQuantity": available,
		})
	}
}

type cartRemoveReq struct {
	CartID int64 `json:"cartId"`
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFrom(r.Context())
	var req cartRemoveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CartID == 0 {
		writeMessage(w, http.StatusBadRequest, "Cart ID is required")
		return
	}

	err := h.Cart.Remove(r.Context(), id.UserID, req.CartID)
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		writeMessage(w, http.StatusNotFound, "Cart item not found or unauthorized")
	case err != nil:
		h.Log.Error("remove from cart", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Error removing item from cart")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Item removed from cart",
			"cartId":  req.CartID,
		})
	}
}

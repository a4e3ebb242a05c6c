package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct {
	DB *pgxpool.Pool
}

// History is a user's orders with their items plus per-status counts.
type History struct {
	Orders       []Order        `json:"orders"`
	StatusCounts map[string]int `json:"statusCounts"`
}

// ListByUser returns the user's orders, newest first, optionally filtered
// by status. Counts always cover all statuses regardless of the filter.
func (r *Repo) ListByUser(ctx context.Context, userID int64, status string) (History, error) {
	h := History{Orders: []Order{}, StatusCounts: map[string]int{}}

	rows, err := r.DB.Query(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE user_id = $1
		GROUP BY status
		ORDER BY status DESC`, userID)
	if err != nil {
		return h, fmt.Errorf("count orders: %w", err)
	}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			rows.Close()
			return h, err
		}
		h.StatusCounts[s] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return h, err
	}

	q := `
		SELECT o.order_id, o.total_cents, o.order_date, o.status,
		       COALESCE(p.payment_method, '')
		FROM orders o
		LEFT JOIN payments p ON o.order_id = p.order_id
		WHERE o.user_id = $1`
	args := []any{userID}
	if status != "" && status != "All" {
		q += ` AND o.status = $2`
		args = append(args, status)
	}
	q += ` ORDER BY o.order_date DESC`

	rows, err = r.DB.Query(ctx, q, args...)
	if err != nil {
		return h, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.OrderID, &o.TotalCents, &o.OrderDate, &o.Status, &o.PaymentMethod); err != nil {
			return h, err
		}
		o.Items = []Item{}
		h.Orders = append(h.Orders, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return h, err
	}
	if len(ids) == 0 {
		return h, nil
	}

	byOrder, err := r.itemsFor(ctx, ids)
	if err != nil {
		return h, err
	}
	for i := range h.Orders {
		if items, ok := byOrder[h.Orders[i].OrderID]; ok {
			h.Orders[i].Items = items
		}
	}
	return h, nil
}

// SearchByID looks up one of the user's own orders. Anything that is
// not a well-formed order id cannot match a row, so it answers
// not-found without hitting the database.
func (r *Repo) SearchByID(ctx context.Context, userID int64, orderID string) (Order, error) {
	var o Order
	if _, err := uuid.Parse(orderID); err != nil {
		return o, ErrNotFound
	}
	err := r.DB.QueryRow(ctx, `
		SELECT o.order_id, o.total_cents, o.order_date, o.status,
		       COALESCE(p.payment_method, '')
		FROM orders o
		LEFT JOIN payments p ON o.order_id = p.order_id
		WHERE o.user_id = $1 AND o.order_id = $2`, userID, orderID).
		Scan(&o.OrderID, &o.TotalCents, &o.OrderDate, &o.Status, &o.PaymentMethod)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrNotFound
	}
	if err != nil {
		return o, fmt.Errorf("search order: %w", err)
	}

	byOrder, err := r.itemsFor(ctx, []string{o.OrderID})
	if err != nil {
		return o, err
	}
	o.Items = byOrder[o.OrderID]
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

// itemsFor joins order lines against the live catalog. Games that were
// removed show up with a placeholder title and zero price.
func (r *Repo) itemsFor(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.order_id, oi.order_item_id, oi.game_id, oi.quantity,
		       COALESCE(g.title, 'Product No Longer Available'),
		       COALESCE(g.price_cents, 0),
		       COALESCE(g.gameicon, ''),
		       COALESCE(g.price_cents, 0) * oi.quantity
		FROM order_items oi
		LEFT JOIN games g ON oi.game_id = g.game_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_item_id DESC`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	byOrder := map[string][]Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.OrderID, &it.OrderItemID, &it.GameID, &it.Quantity,
			&it.Title, &it.PriceCents, &it.GameIcon, &it.SubtotalCents); err != nil {
			return nil, err
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	return byOrder, rows.Err()
}

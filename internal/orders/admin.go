package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepo serves the back office: every order regardless of owner,
// status writes and hard deletes.
type AdminRepo struct {
	DB *pgxpool.Pool
}

func (r *AdminRepo) List(ctx context.Context) ([]AdminOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.order_id, o.user_id, o.order_date, o.status, o.total_cents,
		       u.username, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.user_id
		ORDER BY o.order_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []AdminOrder{}
	var ids []string
	for rows.Next() {
		var o AdminOrder
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.OrderDate, &o.Status, &o.TotalCents,
			&o.Username, &o.Email); err != nil {
			return nil, err
		}
		o.Items = []Item{}
		out = append(out, o)
		ids = append(ids, o.OrderID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items := Repo{DB: r.DB}
	byOrder, err := items.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if its, ok := byOrder[out[i].OrderID]; ok {
			out[i].Items = its
		}
	}
	return out, nil
}

func (r *AdminRepo) Search(ctx context.Context, orderID string) (AdminOrder, error) {
	var o AdminOrder
	if _, err := uuid.Parse(orderID); err != nil {
		return o, ErrNotFound
	}
	err := r.DB.QueryRow(ctx, `
		SELECT o.order_id, o.user_id, o.order_date, o.status, o.total_cents,
		       u.username, u.email
		FROM orders o
		JOIN users u ON o.user_id = u.user_id
		WHERE o.order_id = $1`, orderID).
		Scan(&o.OrderID, &o.UserID, &o.OrderDate, &o.Status, &o.TotalCents, &o.Username, &o.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrNotFound
	}
	if err != nil {
		return o, fmt.Errorf("search order: %w", err)
	}

	items := Repo{DB: r.DB}
	byOrder, err := items.itemsFor(ctx, []string{o.OrderID})
	if err != nil {
		return o, err
	}
	o.Items = byOrder[o.OrderID]
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

func (r *AdminRepo) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return ErrNotFound
	}
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status = $1 WHERE order_id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the order and its dependents in one transaction:
// payments, then items, then the order row.
func (r *AdminRepo) Delete(ctx context.Context, orderID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return ErrNotFound
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete payments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return tx.Commit(ctx)
}

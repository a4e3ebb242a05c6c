package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeleteBlockedError reports why a game cannot be retired: it still sits
// in someone's cart or in an order that has not shipped.
type DeleteBlockedError struct {
	InCart   bool
	InOrders bool
}

func (e *DeleteBlockedError) Error() string {
	if e.InCart {
		return "game is in active carts"
	}
	return "game is in active orders"
}

type AdminRepo struct {
	DB *pgxpool.Pool
}

// Insert creates the game together with its inventory row.
func (r *AdminRepo) Insert(ctx context.Context, in GameInput, stockQuantity int) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var price int64
	if in.PriceCents != nil {
		price = *in.PriceCents
	}
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO games (title, description, price_cents, platform, genre, gameicon)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING game_id`,
		in.Title, in.Description, price, in.Platform, in.Genre, in.GameIcon).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory (game_id, stock_quantity)
		VALUES ($1, $2)`, id, stockQuantity); err != nil {
		return 0, fmt.Errorf("insert inventory: %w", err)
	}
	return id, tx.Commit(ctx)
}

// Update changes only the fields present in the input.
func (r *AdminRepo) Update(ctx context.Context, gameID int64, in GameInput) error {
	set := ""
	args := []any{}
	add := func(col string, val any) {
		if set != "" {
			set += ", "
		}
		args = append(args, val)
		set += fmt.Sprintf("%s = $%d", col, len(args))
	}
	if in.Title != "" {
		add("title", in.Title)
	}
	if in.Description != "" {
		add("description", in.Description)
	}
	if in.PriceCents != nil {
		add("price_cents", *in.PriceCents)
	}
	if in.Platform != "" {
		add("platform", in.Platform)
	}
	if in.Genre != "" {
		add("genre", in.Genre)
	}
	if in.GameIcon != "" {
		add("gameicon", in.GameIcon)
	}
	if set == "" {
		return ErrNoFields
	}
	args = append(args, gameID)

	ct, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE games SET %s WHERE game_id = $%d AND NOT is_deleted`, set, len(args)),
		args...)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete retires a game. It refuses while the game sits in any cart
// or in an order that has not reached a terminal status; otherwise it
// clears lingering cart rows, zeroes the stock and flips is_deleted,
// all in one transaction.
func (r *AdminRepo) SoftDelete(ctx context.Context, gameID int64) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var inCart int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM cart WHERE game_id = $1`, gameID).Scan(&inCart); err != nil {
		return fmt.Errorf("check carts: %w", err)
	}
	if inCart > 0 {
		return &DeleteBlockedError{InCart: true}
	}

	var inOrders int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.order_id
		WHERE oi.game_id = $1
		  AND o.status NOT IN ('shipped', 'delivered', 'canceled')`, gameID).Scan(&inOrders); err != nil {
		return fmt.Errorf("check orders: %w", err)
	}
	if inOrders > 0 {
		return &DeleteBlockedError{InOrders: true}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("clear cart rows: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE inventory SET stock_quantity = 0 WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("zero stock: %w", err)
	}
	ct, err := tx.Exec(ctx,
		`UPDATE games SET is_deleted = TRUE WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *AdminRepo) InventoryList(ctx context.Context) ([]InventoryRow, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.game_id, i.stock_quantity, g.title, g.gameicon
		FROM inventory i
		JOIN games g ON i.game_id = g.game_id
		ORDER BY i.game_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	out := []InventoryRow{}
	for rows.Next() {
		var row InventoryRow
		if err := rows.Scan(&row.GameID, &row.StockQuantity, &row.Title, &row.GameIcon); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetStock upserts the inventory row and reports whether it was created.
func (r *AdminRepo) SetStock(ctx context.Context, gameID int64, quantity int) (created bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory WHERE game_id = $1)`, gameID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check inventory: %w", err)
	}
	if exists {
		_, err = tx.Exec(ctx,
			`UPDATE inventory SET stock_quantity = $1 WHERE game_id = $2`, quantity, gameID)
	} else {
		_, err = tx.Exec(ctx,
			`INSERT INTO inventory (game_id, stock_quantity) VALUES ($1, $2)`, gameID, quantity)
	}
	if err != nil {
		return false, fmt.Errorf("set stock: %w", err)
	}
	return !exists, tx.Commit(ctx)
}

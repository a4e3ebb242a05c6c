package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrGameNotFound = errors.New("game not found in inventory")
	ErrNoChange     = errors.New("no change in quantity")
)

// StockError rejects a quantity above what the inventory holds.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("requested quantity exceeds available stock (%d)", e.Available)
}

// DuplicateError means the game is already in the cart; callers should
// update the existing line instead.
type DuplicateError struct {
	CartID   int64
	Quantity int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("item already in cart (cart_id %d, quantity %d)", e.CartID, e.Quantity)
}

type Item struct {
	CartID        int64  `json:"cart_id"`
	UserID        int64  `json:"user_id"`
	GameID        int64  `json:"game_id"`
	Quantity      int    `json:"quantity"`
	Title         string `json:"title"`
	PriceCents    int64  `json:"price_cents"`
	GameIcon      string `json:"gameicon"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type Repo struct {
	DB *pgxpool.Pool
}

func (r *Repo) Items(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.cart_id, c.user_id, c.game_id, c.quantity,
		       g.title, g.price_cents, g.gameicon,
		       c.quantity * g.price_cents
		FROM cart c
		JOIN games g ON c.game_id = g.game_id
		WHERE c.user_id = $1
		ORDER BY c.cart_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.CartID, &it.UserID, &it.GameID, &it.Quantity,
			&it.Title, &it.PriceCents, &it.GameIcon, &it.SubtotalCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM cart WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cart: %w", err)
	}
	return n, nil
}

// Add puts a new line in the cart. The stock check here is advisory; the
// binding check happens again at checkout.
func (r *Repo) Add(ctx context.Context, userID, gameID int64, quantity int) (int64, int, error) {
	var available int
	err := r.DB.QueryRow(ctx,
		`SELECT stock_quantity FROM inventory WHERE game_id = $1`, gameID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrGameNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("check stock: %w", err)
	}
	if quantity > available {
		return 0, available, &StockError{Available: available}
	}

	var existingID int64
	var existingQty int
	err = r.DB.QueryRow(ctx,
		`SELECT cart_id, quantity FROM cart WHERE user_id = $1 AND game_id = $2`,
		userID, gameID).Scan(&existingID, &existingQty)
	if err == nil {
		return 0, available, &DuplicateError{CartID: existingID, Quantity: existingQty}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, available, fmt.Errorf("check cart: %w", err)
	}

	var cartID int64
	err = r.DB.QueryRow(ctx, `
		INSERT INTO cart (user_id, game_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING cart_id`, userID, gameID, quantity).Scan(&cartID)
	if err != nil {
		return 0, available, fmt.Errorf("insert cart line: %w", err)
	}
	return cartID, available, nil
}

// UpdateQuantity changes a line the user owns, re-checking stock.
func (r *Repo) UpdateQuantity(ctx context.Context, userID, cartID int64, quantity int) (int, error) {
	var current, available int
	err := r.DB.QueryRow(ctx, `
		SELECT c.quantity, i.stock_quantity
		FROM cart c
		JOIN inventory i ON c.game_id = i.game_id
		WHERE c.cart_id = $1 AND c.user_id = $2`, cartID, userID).Scan(&current, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("check cart line: %w", err)
	}
	if quantity > available {
		return available, &StockError{Available: available}
	}
	if quantity == current {
		return available, ErrNoChange
	}

	if _, err := r.DB.Exec(ctx,
		`UPDATE cart SET quantity = $1 WHERE cart_id = $2`, quantity, cartID); err != nil {
		return available, fmt.Errorf("update cart line: %w", err)
	}
	return available, nil
}

func (r *Repo) Remove(ctx context.Context, userID, cartID int64) error {
	ct, err := r.DB.Exec(ctx,
		`DELETE FROM cart WHERE cart_id = $1 AND user_id = $2`, cartID, userID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PGStore runs checkouts against Postgres. Rollback is deferred the moment
// the transaction opens, so an early return from fn can never leave a
// transaction half-committed.
type PGStore struct {
	DB  *pgxpool.Pool
	log *zap.Logger
}

func NewPGStore(db *pgxpool.Pool, log *zap.Logger) *PGStore {
	return &PGStore{DB: db, log: log}
}

func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { s.logRollback(tx.Rollback(ctx)) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// A rollback that itself fails can leave the transaction holding locks
// until the connection dies; that must show up in the logs. ErrTxClosed
// is the normal after-commit case.
func (s *PGStore) logRollback(err error) {
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return
	}
	s.log.Error("transaction rollback failed", zap.Error(err))
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) CartLines(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT c.cart_id, c.game_id, c.quantity, g.price_cents, i.stock_quantity
		FROM cart c
		JOIN games g ON c.game_id = g.game_id
		JOIN inventory i ON g.game_id = i.game_id
		WHERE c.user_id = $1
		ORDER BY c.cart_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.CartID, &l.GameID, &l.Quantity, &l.PriceCents, &l.StockQuantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (t *pgTx) InsertOrder(ctx context.Context, userID, totalCents int64) (string, error) {
	orderID := uuid.NewString()
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (order_id, user_id, total_cents, status)
		VALUES ($1, $2, $3, 'pending')`, orderID, userID, totalCents)
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func (t *pgTx) InsertOrderItems(ctx context.Context, orderID string, lines []CartLine) error {
	b := &pgx.Batch{}
	for _, l := range lines {
		b.Queue(`
			INSERT INTO order_items (order_id, game_id, quantity)
			VALUES ($1, $2, $3)`, orderID, l.GameID, l.Quantity)
	}
	return t.tx.SendBatch(ctx, b).Close()
}

func (t *pgTx) InsertPayment(ctx context.Context, orderID, method string) (string, error) {
	paymentID := uuid.NewString()
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (payment_id, order_id, payment_method)
		VALUES ($1, $2, $3)`, paymentID, orderID, method)
	if err != nil {
		return "", err
	}
	return paymentID, nil
}

func (t *pgTx) ClearCart(ctx context.Context, userID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	return err
}

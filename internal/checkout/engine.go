package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	// DefaultPaymentMethod is used when the caller does not pick one.
	DefaultPaymentMethod = "Credit Card"

	// PaymentStatusPending is the create-time status of every payment.
	PaymentStatusPending = "Pending"
)

// Receipt is returned to the caller after a committed checkout.
type Receipt struct {
	OrderID       string
	TotalCents    int64
	ItemCount     int
	PaymentID     string
	PaymentStatus string
}

// Engine converts a user's cart into a durable order. One call is one
// transaction: cart read, stock validation, order + items + payment
// inserts and the cart delete either all commit or all roll back.
//
// Stock is checked but not decremented or locked here; inventory only
// changes through admin updates.
type Engine struct {
	store Store
	log   *zap.Logger
}

func NewEngine(store Store, log *zap.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// PlaceOrder runs the checkout for userID. An empty paymentMethod falls
// back to DefaultPaymentMethod.
func (e *Engine) PlaceOrder(ctx context.Context, userID int64, paymentMethod string) (Receipt, error) {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	var r Receipt
	err := e.store.InTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		for _, l := range lines {
			if l.Quantity > l.StockQuantity {
				return &InsufficientStockError{
					GameID:    l.GameID,
					Requested: l.Quantity,
					Available: l.StockQuantity,
				}
			}
		}

		var total int64
		for _, l := range lines {
			total += l.PriceCents * int64(l.Quantity)
		}

		orderID, err := tx.InsertOrder(ctx, userID, total)
		if err != nil {
			return fmt.Errorf("%w: insert order: %v", ErrOrderCreation, err)
		}
		if err := tx.InsertOrderItems(ctx, orderID, lines); err != nil {
			return fmt.Errorf("%w: insert order items: %v", ErrOrderCreation, err)
		}
		paymentID, err := tx.InsertPayment(ctx, orderID, paymentMethod)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
		}
		if err := tx.ClearCart(ctx, userID); err != nil {
			return fmt.Errorf("%w: clear cart: %v", ErrOrderCreation, err)
		}

		r = Receipt{
			OrderID:       orderID,
			TotalCents:    total,
			ItemCount:     len(lines),
			PaymentID:     paymentID,
			PaymentStatus: PaymentStatusPending,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, e.classify(err)
	}

	e.log.Info("order placed",
		zap.Int64("user_id", userID),
		zap.String("order_id", r.OrderID),
		zap.Int64("total_cents", r.TotalCents),
		zap.Int("item_count", r.ItemCount),
	)
	return r, nil
}

// classify keeps validation errors as they are and folds everything else
// (begin, read, commit failures) into ErrOrderCreation.
func (e *Engine) classify(err error) error {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrPaymentFailed),
		errors.Is(err, ErrOrderCreation),
		errors.As(err, &stockErr):
		return err
	default:
		e.log.Error("checkout failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrOrderCreation, err)
	}
}

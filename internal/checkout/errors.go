package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart rejects checkout when the user has nothing to buy.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderCreation covers any write failure between the order insert
	// and the commit; the transaction is rolled back before it is returned.
	ErrOrderCreation = errors.New("order creation failed")

	// ErrPaymentFailed is ErrOrderCreation specialised to the payment insert.
	ErrPaymentFailed = errors.New("payment processing failed")
)

// InsufficientStockError names the first cart line whose quantity exceeds
// the available stock.
type InsufficientStockError struct {
	GameID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for game %d: requested %d, available %d",
		e.GameID, e.Requested, e.Available)
}

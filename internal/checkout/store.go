package checkout

import "context"

// CartLine is one cart row joined with the game's current price and stock.
// Price and stock are whatever the catalog holds at checkout time; nothing
// is locked in when the item is added to the cart.
type CartLine struct {
	CartID        int64
	GameID        int64
	Quantity      int
	PriceCents    int64
	StockQuantity int
}

// Tx is the set of operations available inside one checkout transaction.
// Every method sees the same snapshot and every write is undone together
// if the enclosing InTx callback returns an error.
type Tx interface {
	CartLines(ctx context.Context, userID int64) ([]CartLine, error)
	InsertOrder(ctx context.Context, userID, totalCents int64) (orderID string, err error)
	InsertOrderItems(ctx context.Context, orderID string, lines []CartLine) error
	InsertPayment(ctx context.Context, orderID, method string) (paymentID string, err error)
	ClearCart(ctx context.Context, userID int64) error
}

// Store opens a transaction, runs fn, and commits only when fn returns nil.
// Any error out of fn (or the commit) leaves the database untouched.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

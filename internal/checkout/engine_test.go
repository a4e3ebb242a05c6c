package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderRow struct {
	orderID    string
	userID     int64
	totalCents int64
}

type itemRow struct {
	orderID string
	gameID  int64
	qty     int
}

type paymentRow struct {
	paymentID string
	orderID   string
	method    string
}

// fakeStore stages writes inside the transaction and applies them on
// commit only, so tests can assert that failed checkouts leave nothing
// behind.
type fakeStore struct {
	lines []CartLine

	beginErr   error
	linesErr   error
	orderErr   error
	itemsErr   error
	paymentErr error
	clearErr   error
	commitErr  error

	orders      []orderRow
	items       []itemRow
	payments    []paymentRow
	cartCleared bool
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	tx := &fakeTx{s: s}
	if err := fn(tx); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}
	s.orders = append(s.orders, tx.orders...)
	s.items = append(s.items, tx.items...)
	s.payments = append(s.payments, tx.payments...)
	if tx.cartCleared {
		s.lines = nil
		s.cartCleared = true
	}
	return nil
}

type fakeTx struct {
	s *fakeStore

	orders      []orderRow
	items       []itemRow
	payments    []paymentRow
	cartCleared bool
}

func (t *fakeTx) CartLines(ctx context.Context, userID int64) ([]CartLine, error) {
	if t.s.linesErr != nil {
		return nil, t.s.linesErr
	}
	return t.s.lines, nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, userID, totalCents int64) (string, error) {
	if t.s.orderErr != nil {
		return "", t.s.orderErr
	}
	t.orders = append(t.orders, orderRow{orderID: "order-1", userID: userID, totalCents: totalCents})
	return "order-1", nil
}

func (t *fakeTx) InsertOrderItems(ctx context.Context, orderID string, lines []CartLine) error {
	if t.s.itemsErr != nil {
		return t.s.itemsErr
	}
	for _, l := range lines {
		t.items = append(t.items, itemRow{orderID: orderID, gameID: l.GameID, qty: l.Quantity})
	}
	return nil
}

func (t *fakeTx) InsertPayment(ctx context.Context, orderID, method string) (string, error) {
	if t.s.paymentErr != nil {
		return "", t.s.paymentErr
	}
	t.payments = append(t.payments, paymentRow{paymentID: "payment-1", orderID: orderID, method: method})
	return "payment-1", nil
}

func (t *fakeTx) ClearCart(ctx context.Context, userID int64) error {
	if t.s.clearErr != nil {
		return t.s.clearErr
	}
	t.cartCleared = true
	return nil
}

func twoLineCart() []CartLine {
	return []CartLine{
		{CartID: 1, GameID: 10, Quantity: 2, PriceCents: 1000, StockQuantity: 5},
		{CartID: 2, GameID: 20, Quantity: 3, PriceCents: 500, StockQuantity: 9},
	}
}

func newEngine(s *fakeStore) *Engine { return NewEngine(s, zap.NewNop()) }

func TestPlaceOrderSuccess(t *testing.T) {
	store := &fakeStore{lines: twoLineCart()}

	r, err := newEngine(store).PlaceOrder(context.Background(), 7, "PayPal")
	require.NoError(t, err)

	assert.Equal(t, "order-1", r.OrderID)
	assert.Equal(t, int64(3500), r.TotalCents) // 2*1000 + 3*500
	assert.Equal(t, 2, r.ItemCount)
	assert.Equal(t, "payment-1", r.PaymentID)
	assert.Equal(t, PaymentStatusPending, r.PaymentStatus)

	require.Len(t, store.orders, 1)
	assert.Equal(t, int64(7), store.orders[0].userID)
	assert.Equal(t, int64(3500), store.orders[0].totalCents)

	// one order item per cart line, game and quantity preserved exactly
	require.Len(t, store.items, 2)
	assert.Equal(t, itemRow{orderID: "order-1", gameID: 10, qty: 2}, store.items[0])
	assert.Equal(t, itemRow{orderID: "order-1", gameID: 20, qty: 3}, store.items[1])

	require.Len(t, store.payments, 1)
	assert.Equal(t, "PayPal", store.payments[0].method)

	assert.True(t, store.cartCleared)
	assert.Empty(t, store.lines)
}

func TestPlaceOrderDefaultPaymentMethod(t *testing.T) {
	store := &fakeStore{lines: twoLineCart()}

	r, err := newEngine(store).PlaceOrder(context.Background(), 7, "")
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPending, r.PaymentStatus)
	require.Len(t, store.payments, 1)
	assert.Equal(t, DefaultPaymentMethod, store.payments[0].method)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	store := &fakeStore{}

	_, err := newEngine(store).PlaceOrder(context.Background(), 7, "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.payments)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	store := &fakeStore{lines: []CartLine{
		{CartID: 1, GameID: 10, Quantity: 2, PriceCents: 1000, StockQuantity: 5},
		{CartID: 2, GameID: 20, Quantity: 5, PriceCents: 500, StockQuantity: 3},
	}}

	_, err := newEngine(store).PlaceOrder(context.Background(), 7, "")

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(20), stockErr.GameID)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.items)
	assert.Empty(t, store.payments)
	assert.Len(t, store.lines, 2) // cart untouched
}

func TestPlaceOrderAtomicity(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name    string
		setup   func(*fakeStore)
		wantErr error
	}{
		{"begin fails", func(s *fakeStore) { s.beginErr = boom }, ErrOrderCreation},
		{"cart read fails", func(s *fakeStore) { s.linesErr = boom }, ErrOrderCreation},
		{"order insert fails", func(s *fakeStore) { s.orderErr = boom }, ErrOrderCreation},
		{"item insert fails", func(s *fakeStore) { s.itemsErr = boom }, ErrOrderCreation},
		{"payment insert fails", func(s *fakeStore) { s.paymentErr = boom }, ErrPaymentFailed},
		{"cart delete fails", func(s *fakeStore) { s.clearErr = boom }, ErrOrderCreation},
		{"commit fails", func(s *fakeStore) { s.commitErr = boom }, ErrOrderCreation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{lines: twoLineCart()}
			tc.setup(store)

			_, err := newEngine(store).PlaceOrder(context.Background(), 7, "")
			require.ErrorIs(t, err, tc.wantErr)

			// nothing persisted, cart unchanged
			assert.Empty(t, store.orders)
			assert.Empty(t, store.items)
			assert.Empty(t, store.payments)
			assert.False(t, store.cartCleared)
			assert.Len(t, store.lines, 2)
		})
	}
}

package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pixelvault/gamestore/internal/checkout"
	"github.com/pixelvault/gamestore/internal/orders"
	"github.com/pixelvault/gamestore/internal/session"
)

type fakeEngine struct {
	receipt checkout.Receipt
	err     error

	gotUserID int64
	gotMethod string
}

func (f *fakeEngine) PlaceOrder(ctx context.Context, userID int64, method string) (checkout.Receipt, error) {
	f.gotUserID = userID
	f.gotMethod = method
	return f.receipt, f.err
}

type fakePublisher struct {
	messages [][]byte
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.messages = append(f.messages, value)
}

func ordersTestServer(t *testing.T, engine *fakeEngine) (*chi.Mux, *http.Cookie, *fakePublisher) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mgr := session.NewManager(rdb, time.Hour)
	token, err := mgr.Create(context.Background(), session.Identity{UserID: 7, Role: "user"})
	require.NoError(t, err)

	pub := &fakePublisher{}
	h := &OrdersHandler{
		Engine:   engine,
		History:  &orders.Repo{},
		Producer: pub,
		Redis:    rdb,
		Service:  "test-api",
		Log:      zap.NewNop(),
	}
	r := chi.NewRouter()
	h.Register(r, &Auth{Sessions: mgr})
	return r, &http.Cookie{Name: session.CookieName, Value: token}, pub
}

func createOrder(t *testing.T, r *chi.Mux, cookie *http.Cookie, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders/create", strings.NewReader(body))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderSuccess(t *testing.T) {
	engine := &fakeEngine{receipt: checkout.Receipt{
		OrderID:       "o-1",
		TotalCents:    3500,
		ItemCount:     2,
		PaymentID:     "p-1",
		PaymentStatus: checkout.PaymentStatusPending,
	}}
	r, cookie, pub := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, `{"paymentMethod":"PayPal"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), engine.gotUserID)
	assert.Equal(t, "PayPal", engine.gotMethod)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Order created successfully", resp["message"])
	assert.Equal(t, "o-1", resp["orderId"])
	assert.Equal(t, float64(3500), resp["totalCents"])
	assert.Equal(t, float64(2), resp["itemCount"])
	assert.Equal(t, "Pending", resp["paymentStatus"])

	// one OrderCreated event published
	require.Len(t, pub.messages, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &env))
	assert.Equal(t, orders.EventOrderCreated, env.EventType)
	assert.Equal(t, "o-1", env.CorrelationID)
}

func TestCreateOrderEmptyBody(t *testing.T) {
	engine := &fakeEngine{receipt: checkout.Receipt{OrderID: "o-2", PaymentStatus: "Pending"}}
	r, cookie, _ := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, ``)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "", engine.gotMethod, "engine applies the default method itself")
}

func TestCreateOrderEmptyCart(t *testing.T) {
	engine := &fakeEngine{err: checkout.ErrEmptyCart}
	r, cookie, pub := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cart is empty")
	assert.Empty(t, pub.messages)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	engine := &fakeEngine{err: &checkout.InsufficientStockError{GameID: 99, Requested: 5, Available: 3}}
	r, cookie, _ := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(99), resp["gameId"])
}

func TestCreateOrderPaymentFailed(t *testing.T) {
	engine := &fakeEngine{err: checkout.ErrPaymentFailed}
	r, cookie, _ := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error processing payment")
}

func TestCreateOrderGenericFailure(t *testing.T) {
	engine := &fakeEngine{err: checkout.ErrOrderCreation}
	r, cookie, _ := ordersTestServer(t, engine)

	rec := createOrder(t, r, cookie, `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error creating order")
}

func TestSearchOrderMalformedID(t *testing.T) {
	r, cookie, _ := ordersTestServer(t, &fakeEngine{})

	req := httptest.NewRequest(http.MethodGet, "/orders/search?orderId=abc", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order not found")
}

func TestCreateOrderRequiresSession(t *testing.T) {
	engine := &fakeEngine{}
	r, _, _ := ordersTestServer(t, engine)

	req := httptest.NewRequest(http.MethodPost, "/orders/create", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

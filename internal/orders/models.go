package orders

import "time"

type Order struct {
	OrderID       string    `json:"order_id"`
	TotalCents    int64     `json:"total_cents"`
	OrderDate     time.Time `json:"order_date"`
	Status        Status    `json:"order_status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Items         []Item    `json:"items"`
}

// Item is an order line joined with the live catalog for display. The
// line itself stores no price, so title/price fall back to placeholders
// when the game has since been removed and the shown unit price is
// whatever the catalog holds today, not what was paid.
type Item struct {
	OrderItemID   int64  `json:"order_item_id"`
	OrderID       string `json:"order_id"`
	GameID        int64  `json:"game_id"`
	Quantity      int    `json:"quantity"`
	Title         string `json:"title"`
	PriceCents    int64  `json:"price_cents"`
	GameIcon      string `json:"gameicon"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

// AdminOrder adds buyer identity for the back office.
type AdminOrder struct {
	OrderID    string    `json:"order_id"`
	UserID     int64     `json:"user_id"`
	OrderDate  time.Time `json:"order_date"`
	Status     Status    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Items      []Item    `json:"items"`
}

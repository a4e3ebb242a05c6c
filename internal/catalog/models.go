package catalog

import "time"

type Game struct {
	GameID      int64     `json:"game_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Platform    string    `json:"platform"`
	Genre       string    `json:"genre"`
	GameIcon    string    `json:"gameicon"`
	CreatedAt   time.Time `json:"created_at"`

	// Filled only on the detail view.
	StockQuantity *int `json:"stock_quantity,omitempty"`
}

// GameInput carries the admin-editable fields; empty strings and nil
// numbers mean "leave unchanged" on update.
type GameInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceCents  *int64 `json:"price_cents"`
	Platform    string `json:"platform"`
	Genre       string `json:"genre"`
	GameIcon    string `json:"gameicon"`
}

type InventoryRow struct {
	GameID        int64  `json:"game_id"`
	StockQuantity int    `json:"stock_quantity"`
	Title         string `json:"title"`
	GameIcon      string `json:"gameicon"`
}

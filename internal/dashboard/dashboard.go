package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	TotalUsers      int64               `json:"totalUsers"`
	TotalGames      int64               `json:"totalGames"`
	TotalOrders     int64               `json:"totalOrders"`
	TotalSalesCents int64               `json:"totalSalesCents"`
	RecentOrders    []RecentOrder       `json:"recentOrders"`
	PaymentMethods  []PaymentMethodStat `json:"paymentMethodStats"`
}

type RecentOrder struct {
	OrderID    string    `json:"order_id"`
	TotalCents int64     `json:"total_cents"`
	OrderDate  time.Time `json:"order_date"`
	Username   string    `json:"username"`
}

type PaymentMethodStat struct {
	PaymentMethod string `json:"payment_method"`
	Count         int64  `json:"count"`
	TotalCents    int64  `json:"total_cents"`
}

type SalesPoint struct {
	Period     string `json:"time_period"`
	SalesCents int64  `json:"sales_cents"`
	OrderCount int64  `json:"order_count"`
}

type TopGame struct {
	GameID       int64  `json:"game_id"`
	Title        string `json:"title"`
	UnitsSold    int64  `json:"units_sold"`
	RevenueCents int64  `json:"revenue_cents"`
}

type Repo struct {
	DB *pgxpool.Pool
}

// Stats runs the six dashboard aggregates concurrently; the pool hands
// each goroutine its own connection.
func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	g, ctx := errgroup.WithContext(ctx)

	count := func(q string, dst *int64) func() error {
		return func() error {
			return r.DB.QueryRow(ctx, q).Scan(dst)
		}
	}
	g.Go(count(`SELECT COUNT(*) FROM users`, &s.TotalUsers))
	g.Go(count(`SELECT COUNT(*) FROM games`, &s.TotalGames))
	g.Go(count(`SELECT COUNT(*) FROM orders`, &s.TotalOrders))
	g.Go(count(`SELECT COALESCE(SUM(total_cents), 0) FROM orders`, &s.TotalSalesCents))

	g.Go(func() error {
		rows, err := r.DB.Query(ctx, `
			SELECT o.order_id, o.total_cents, o.order_date, u.username
			FROM orders o
			JOIN users u ON o.user_id = u.user_id
			ORDER BY o.order_date DESC
			LIMIT 5`)
		if err != nil {
			return err
		}
		defer rows.Close()
		s.RecentOrders = []RecentOrder{}
		for rows.Next() {
			var ro RecentOrder
			if err := rows.Scan(&ro.OrderID, &ro.TotalCents, &ro.OrderDate, &ro.Username); err != nil {
				return err
			}
			s.RecentOrders = append(s.RecentOrders, ro)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := r.DB.Query(ctx, `
			SELECT p.payment_method, COUNT(*), SUM(o.total_cents)
			FROM payments p
			JOIN orders o ON p.order_id = o.order_id
			GROUP BY p.payment_method`)
		if err != nil {
			return err
		}
		defer rows.Close()
		s.PaymentMethods = []PaymentMethodStat{}
		for rows.Next() {
			var pm PaymentMethodStat
			if err := rows.Scan(&pm.PaymentMethod, &pm.Count, &pm.TotalCents); err != nil {
				return err
			}
			s.PaymentMethods = append(s.PaymentMethods, pm)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return s, nil
}

// SalesChart buckets sales by day, ISO week or month; at most 12 buckets.
func (r *Repo) SalesChart(ctx context.Context, period string) ([]SalesPoint, error) {
	var format, trunc string
	switch period {
	case "daily":
		format, trunc = "YYYY-MM-DD", "day"
	case "weekly":
		format, trunc = "IYYY-IW", "week"
	default: // monthly
		format, trunc = "YYYY-MM", "month"
	}

	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT to_char(date_trunc('%s', order_date), '%s') AS time_period,
		       SUM(total_cents),
		       COUNT(*)
		FROM orders
		GROUP BY date_trunc('%s', order_date)
		ORDER BY date_trunc('%s', order_date) ASC
		LIMIT 12`, trunc, format, trunc, trunc))
	if err != nil {
		return nil, fmt.Errorf("sales chart: %w", err)
	}
	defer rows.Close()

	out := []SalesPoint{}
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Period, &p.SalesCents, &p.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// TopGames ranks by units sold. Revenue joins the live catalog price, so
// it drifts when prices change; order lines store no historical price.
func (r *Repo) TopGames(ctx context.Context, limit int) ([]TopGame, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.DB.Query(ctx, `
		SELECT g.game_id, g.title,
		       SUM(oi.quantity) AS units_sold,
		       SUM(oi.quantity * g.price_cents) AS revenue_cents
		FROM order_items oi
		JOIN games g ON oi.game_id = g.game_id
		JOIN orders o ON oi.order_id = o.order_id
		GROUP BY g.game_id, g.title
		ORDER BY units_sold DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top games: %w", err)
	}
	defer rows.Close()

	out := []TopGame{}
	for rows.Next() {
		var tg TopGame
		if err := rows.Scan(&tg.GameID, &tg.Title, &tg.UnitsSold, &tg.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, tg)
	}
	return out, rows.Err()
}

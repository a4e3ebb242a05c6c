package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("game not found")
	ErrNoFields = errors.New("no fields to update")
)

// Repo is the storefront view of the catalog: soft-deleted games are
// invisible everywhere here.
type Repo struct {
	DB *pgxpool.Pool
}

const gameCols = `game_id, title, description, price_cents, platform, genre, gameicon, created_at`

func (r *Repo) List(ctx context.Context) ([]Game, error) {
	return r.scanGames(r.DB.Query(ctx, `
		SELECT `+gameCols+` FROM games WHERE NOT is_deleted ORDER BY game_id`))
}

func (r *Repo) FilterByGenre(ctx context.Context, genre string) ([]Game, error) {
	return r.scanGames(r.DB.Query(ctx, `
		SELECT `+gameCols+` FROM games
		WHERE genre = $1 AND NOT is_deleted
		ORDER BY game_id`, genre))
}

func (r *Repo) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT genre FROM games WHERE NOT is_deleted ORDER BY genre`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repo) Search(ctx context.Context, title string) ([]Game, error) {
	return r.scanGames(r.DB.Query(ctx, `
		SELECT `+gameCols+` FROM games
		WHERE title ILIKE $1 AND NOT is_deleted
		ORDER BY game_id`, "%"+title+"%"))
}

// GetByID includes the stock level for the detail page.
func (r *Repo) GetByID(ctx context.Context, gameID int64) (Game, error) {
	var g Game
	var stock *int
	err := r.DB.QueryRow(ctx, `
		SELECT g.game_id, g.title, g.description, g.price_cents, g.platform,
		       g.genre, g.gameicon, g.created_at, i.stock_quantity
		FROM games g
		LEFT JOIN inventory i ON g.game_id = i.game_id
		WHERE g.game_id = $1 AND NOT g.is_deleted`, gameID).
		Scan(&g.GameID, &g.Title, &g.Description, &g.PriceCents, &g.Platform,
			&g.Genre, &g.GameIcon, &g.CreatedAt, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return g, ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("get game: %w", err)
	}
	g.StockQuantity = stock
	return g, nil
}

func (r *Repo) scanGames(rows pgx.Rows, err error) ([]Game, error) {
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	out := []Game{}
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.GameID, &g.Title, &g.Description, &g.PriceCents,
			&g.Platform, &g.Genre, &g.GameIcon, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

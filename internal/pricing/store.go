package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// ErrNoSheet is returned when no price sheet was ever published.
var ErrNoSheet = errors.New("pricing: no price sheet")

// Store persists price sheets.
type Store interface {
	Current(ctx context.Context) (Sheet, error)
	Insert(ctx context.Context, s Sheet) (Sheet, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

// Current returns the most recently published sheet.
func (s PGStore) Current(ctx context.Context) (Sheet, error) {
	var sh Sheet
	err := s.DB.QueryRow(ctx,
		`SELECT id, order_price, shop_price, monthly_price, effective_at
		 FROM price_sheets ORDER BY effective_at DESC, id DESC LIMIT 1`,
	).Scan(&sh.ID, &sh.OrderPrice, &sh.ShopPrice, &sh.MonthlyPrice, &sh.EffectiveAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sheet{}, ErrNoSheet
	}
	if err != nil {
		return Sheet{}, db.Classify(fmt.Errorf("current price sheet: %w", err))
	}
	return sh, nil
}

// Insert publishes a new sheet, which becomes current.
func (s PGStore) Insert(ctx context.Context, in Sheet) (Sheet, error) {
	out := in
	err := s.DB.QueryRow(ctx,
		`INSERT INTO price_sheets (order_price, shop_price, monthly_price)
		 VALUES ($1, $2, $3) RETURNING id, effective_at`,
		in.OrderPrice, in.ShopPrice, in.MonthlyPrice,
	).Scan(&out.ID, &out.EffectiveAt)
	if err != nil {
		return Sheet{}, db.Classify(fmt.Errorf("insert price sheet: %w", err))
	}
	return out, nil
}

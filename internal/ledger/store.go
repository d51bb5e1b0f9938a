package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// ErrNoEntry is returned when no entry exists for the key.
var ErrNoEntry = errors.New("ledger: entry not found")

// Store persists daily entries keyed by (customer_id, date).
type Store interface {
	Get(ctx context.Context, customerID string, date time.Time) (Entry, error)
	LatestBefore(ctx context.Context, customerID string, date time.Time) (Entry, error)
	ListForDate(ctx context.Context, date time.Time) ([]Entry, error)
	ListForCustomer(ctx context.Context, customerID string, start, end time.Time) ([]Entry, error)
	Upsert(ctx context.Context, e Entry) (Entry, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

const entryColumns = `customer_id, entry_date, delivered_qty, collected_qty, holding_status, notes, updated_at`

// Get returns the entry for customerID on date.
func (s PGStore) Get(ctx context.Context, customerID string, date time.Time) (Entry, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE customer_id = $1 AND entry_date = $2`,
		customerID, date)
	return scanOne(row, "get ledger entry")
}

// LatestBefore returns the most recent entry strictly before date.
func (s PGStore) LatestBefore(ctx context.Context, customerID string, date time.Time) (Entry, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM daily_entries
		 WHERE customer_id = $1 AND entry_date < $2
		 ORDER BY entry_date DESC LIMIT 1`,
		customerID, date)
	return scanOne(row, "latest ledger entry")
}

// ListForDate returns every customer's entry on date.
func (s PGStore) ListForDate(ctx context.Context, date time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+entryColumns+` FROM daily_entries WHERE entry_date = $1 ORDER BY customer_id`,
		date)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list ledger by date: %w", err))
	}
	return collect(rows, "list ledger by date")
}

// ListForCustomer returns entries within [start, end] in ascending date order.
func (s PGStore) ListForCustomer(ctx context.Context, customerID string, start, end time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+entryColumns+` FROM daily_entries
		 WHERE customer_id = $1 AND entry_date BETWEEN $2 AND $3
		 ORDER BY entry_date ASC`,
		customerID, start, end)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list ledger range: %w", err))
	}
	return collect(rows, "list ledger range")
}

// Upsert writes the entry, overwriting every field of an existing row.
func (s PGStore) Upsert(ctx context.Context, e Entry) (Entry, error) {
	row := s.DB.QueryRow(ctx,
		`INSERT INTO daily_entries (customer_id, entry_date, delivered_qty, collected_qty, holding_status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (customer_id, entry_date) DO UPDATE SET
		   delivered_qty = EXCLUDED.delivered_qty,
		   collected_qty = EXCLUDED.collected_qty,
		   holding_status = EXCLUDED.holding_status,
		   notes = EXCLUDED.notes,
		   updated_at = now()
		 RETURNING `+entryColumns,
		e.CustomerID, e.Date, e.DeliveredQty, e.CollectedQty, e.HoldingStatus, e.Notes)
	return scanOne(row, "upsert ledger entry")
}

func scanOne(row pgx.Row, op string) (Entry, error) {
	var e Entry
	err := row.Scan(&e.CustomerID, &e.Date, &e.DeliveredQty, &e.CollectedQty, &e.HoldingStatus, &e.Notes, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNoEntry
	}
	if err != nil {
		return Entry{}, db.Classify(fmt.Errorf("%s: %w", op, err))
	}
	e.Date = e.Date.UTC()
	return e, nil
}

func collect(rows pgx.Rows, op string) ([]Entry, error) {
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.CustomerID, &e.Date, &e.DeliveredQty, &e.CollectedQty, &e.HoldingStatus, &e.Notes, &e.UpdatedAt); err != nil {
			return nil, db.Classify(fmt.Errorf("%s: %w", op, err))
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("%s: %w", op, err))
	}
	return out, nil
}

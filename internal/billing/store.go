package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// ErrNoBill is returned when no bill exists for the key.
var ErrNoBill = errors.New("billing: bill not found")

// Store persists monthly bills.
type Store interface {
	Get(ctx context.Context, customerID string, month time.Time) (Bill, error)
	ListForMonth(ctx context.Context, month time.Time) ([]Bill, error)
	Upsert(ctx context.Context, b Bill, paid, sent *bool) (Bill, error)
	UpdateStatus(ctx context.Context, customerID string, month time.Time, paid, sent *bool) (Bill, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

const billColumns = `customer_id, bill_month, bill_amount, total_cans_delivered, total_delivery_days,
	paid_status, sent_status, created_at, updated_at`

// Get returns the bill for customerID in month.
func (s PGStore) Get(ctx context.Context, customerID string, month time.Time) (Bill, error) {
	row := s.DB.QueryRow(ctx,
		`SELECT `+billColumns+` FROM monthly_bills WHERE customer_id = $1 AND bill_month = $2`,
		customerID, month)
	return scanBill(row, "get bill")
}

// ListForMonth returns every saved bill in month.
func (s PGStore) ListForMonth(ctx context.Context, month time.Time) ([]Bill, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT `+billColumns+` FROM monthly_bills WHERE bill_month = $1 ORDER BY customer_id`,
		month)
	if err != nil {
		return nil, db.Classify(fmt.Errorf("list bills: %w", err))
	}
	defer rows.Close()
	out := []Bill{}
	for rows.Next() {
		b, err := scanBill(rows, "list bills")
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, db.Classify(fmt.Errorf("list bills: %w", err))
	}
	return out, nil
}

// Upsert writes totals as given. Nil statuses insert as false and keep the
// stored value on conflict.
func (s PGStore) Upsert(ctx context.Context, b Bill, paid, sent *bool) (Bill, error) {
	row := s.DB.QueryRow(ctx,
		`INSERT INTO monthly_bills (customer_id, bill_month, bill_amount, total_cans_delivered, total_delivery_days, paid_status, sent_status)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, false), COALESCE($7, false))
		 ON CONFLICT (customer_id, bill_month) DO UPDATE SET
		   bill_amount = EXCLUDED.bill_amount,
		   total_cans_delivered = EXCLUDED.total_cans_delivered,
		   total_delivery_days = EXCLUDED.total_delivery_days,
		   paid_status = COALESCE($6, monthly_bills.paid_status),
		   sent_status = COALESCE($7, monthly_bills.sent_status),
		   updated_at = now()
		 RETURNING `+billColumns,
		b.CustomerID, b.Month, b.BillAmount, b.TotalCansDelivered, b.TotalDeliveryDays, paid, sent)
	saved, err := scanBill(row, "upsert bill")
	if db.IsForeignKeyViolation(err) {
		return Bill{}, common.NotFound("customer", b.CustomerID)
	}
	return saved, err
}

// UpdateStatus changes only the flags that are set.
func (s PGStore) UpdateStatus(ctx context.Context, customerID string, month time.Time, paid, sent *bool) (Bill, error) {
	row := s.DB.QueryRow(ctx,
		`UPDATE monthly_bills SET
		   paid_status = COALESCE($3, paid_status),
		   sent_status = COALESCE($4, sent_status),
		   updated_at = now()
		 WHERE customer_id = $1 AND bill_month = $2
		 RETURNING `+billColumns,
		customerID, month, paid, sent)
	return scanBill(row, "update bill status")
}

func scanBill(row pgx.Row, op string) (Bill, error) {
	var b Bill
	err := row.Scan(&b.CustomerID, &b.Month, &b.BillAmount, &b.TotalCansDelivered, &b.TotalDeliveryDays,
		&b.PaidStatus, &b.SentStatus, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrNoBill
	}
	if err != nil {
		return Bill{}, db.Classify(fmt.Errorf("%s: %w", op, err))
	}
	b.Month = b.Month.UTC()
	return b, nil
}

package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// ErrNoOrder is returned when the order id is unknown.
var ErrNoOrder = errors.New("order: not found")

// Store persists orders.
type Store interface {
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, int, error)
	Insert(ctx context.Context, o Order) (Order, error)
	Update(ctx context.Context, o Order) (Order, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

const orderColumns = `id, customer_id, can_qty, collected_qty, delivery_amount, order_status,
	order_date, delivery_date, collection_date, notes, created_at, updated_at`

// Get returns one order.
func (s PGStore) Get(ctx context.Context, id string) (Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row, "get order")
}

// List returns a page of orders, newest first, and the total match count.
func (s PGStore) List(ctx context.Context, f Filter) ([]Order, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("order_status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, db.Classify(fmt.Errorf("count orders: %w", err))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	rows, err := s.DB.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY order_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
			orderColumns, cond, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list orders: %w", err))
	}
	defer rows.Close()
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows, "list orders")
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list orders: %w", err))
	}
	return out, total, nil
}

// Insert stores a new order.
func (s PGStore) Insert(ctx context.Context, o Order) (Order, error) {
	row := s.DB.QueryRow(ctx,
		`INSERT INTO orders (id, customer_id, can_qty, collected_qty, delivery_amount, order_status,
		   order_date, delivery_date, collection_date, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+orderColumns,
		o.ID, o.CustomerID, o.CanQty, o.CollectedQty, o.DeliveryAmount, string(o.Status),
		o.OrderDate, o.DeliveryDate, o.CollectionDate, o.Notes)
	return scanOrder(row, "insert order")
}

// Update overwrites the mutable columns of an order.
func (s PGStore) Update(ctx context.Context, o Order) (Order, error) {
	row := s.DB.QueryRow(ctx,
		`UPDATE orders SET can_qty = $2, collected_qty = $3, delivery_amount = $4, order_status = $5,
		   delivery_date = $6, collection_date = $7, notes = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		o.ID, o.CanQty, o.CollectedQty, o.DeliveryAmount, string(o.Status),
		o.DeliveryDate, o.CollectionDate, o.Notes)
	return scanOrder(row, "update order")
}

func scanOrder(row pgx.Row, op string) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.CanQty, &o.CollectedQty, &o.DeliveryAmount, &status,
		&o.OrderDate, &o.DeliveryDate, &o.CollectionDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNoOrder
	}
	if err != nil {
		return Order{}, db.Classify(fmt.Errorf("%s: %w", op, err))
	}
	o.Status = Status(status)
	return o, nil
}

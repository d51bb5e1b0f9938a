package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/anishk6674/kanchan-chilled/internal/db"
)

// ErrNoCustomer is returned by stores when the id is unknown.
var ErrNoCustomer = errors.New("customer: not found")

// Store persists customers.
type Store interface {
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context, f Filter) ([]Customer, int, error)
	Insert(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
}

// PGStore is the Postgres-backed Store.
type PGStore struct {
	DB db.DBTX
}

const customerColumns = `id, name, phone, address, customer_type, can_qty, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	var typ string
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &typ, &c.CanQty, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Customer{}, err
	}
	c.Type = Type(typ)
	return c, nil
}

// Get loads one customer.
func (s PGStore) Get(ctx context.Context, id string) (Customer, error) {
	c, err := scanCustomer(s.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNoCustomer
	}
	if err != nil {
		return Customer{}, db.Classify(fmt.Errorf("get customer: %w", err))
	}
	return c, nil
}

// List returns customers ordered by name together with the unpaged total.
func (s PGStore) List(ctx context.Context, f Filter) ([]Customer, int, error) {
	var typ *string
	if f.Type != "" {
		t := string(f.Type)
		typ = &t
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 10000
	}
	var total int
	if err := s.DB.QueryRow(ctx,
		`SELECT count(*) FROM customers WHERE ($1::text IS NULL OR customer_type = $1)`, typ,
	).Scan(&total); err != nil {
		return nil, 0, db.Classify(fmt.Errorf("count customers: %w", err))
	}
	rows, err := s.DB.Query(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE ($1::text IS NULL OR customer_type = $1)
		 ORDER BY name, id LIMIT $2 OFFSET $3`, typ, limit, f.Offset)
	if err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list customers: %w", err))
	}
	defer rows.Close()
	out := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, db.Classify(fmt.Errorf("scan customer: %w", err))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.Classify(fmt.Errorf("list customers: %w", err))
	}
	return out, total, nil
}

// Insert creates a customer row.
func (s PGStore) Insert(ctx context.Context, c Customer) (Customer, error) {
	created, err := scanCustomer(s.DB.QueryRow(ctx,
		`INSERT INTO customers (id, name, phone, address, customer_type, can_qty)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Address, string(c.Type), c.CanQty))
	if err != nil {
		return Customer{}, db.Classify(fmt.Errorf("insert customer: %w", err))
	}
	return created, nil
}

// Update overwrites the writable attributes of an existing customer.
func (s PGStore) Update(ctx context.Context, c Customer) (Customer, error) {
	updated, err := scanCustomer(s.DB.QueryRow(ctx,
		`UPDATE customers
		 SET name = $2, phone = $3, address = $4, customer_type = $5, can_qty = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Address, string(c.Type), c.CanQty))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNoCustomer
	}
	if err != nil {
		return Customer{}, db.Classify(fmt.Errorf("update customer: %w", err))
	}
	return updated, nil
}

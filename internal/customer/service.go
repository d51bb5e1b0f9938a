package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

// Service manages customer records.
type Service struct {
	Store Store
	NewID func() string
}

// Get returns the customer or a NOT_FOUND error.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Customer{}, common.Validation("customer_id", "is required")
	}
	c, err := s.Store.Get(ctx, id)
	if errors.Is(err, ErrNoCustomer) {
		return Customer{}, common.NotFound("customer", id)
	}
	return c, err
}

// List returns a page of customers and the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]Customer, int, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, common.Validation("customer_type", "must be one of shop monthly order")
	}
	return s.Store.List(ctx, f)
}

// All returns every customer, used by batch billing.
func (s *Service) All(ctx context.Context) ([]Customer, error) {
	out, _, err := s.Store.List(ctx, Filter{})
	return out, err
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	in = normalise(in)
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	return s.Store.Insert(ctx, Customer{
		ID:      s.newID(),
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
		Type:    in.Type,
		CanQty:  in.CanQty,
	})
}

// Update replaces the writable attributes of a customer.
func (s *Service) Update(ctx context.Context, id string, in Input) (Customer, error) {
	in = normalise(in)
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.Store.Update(ctx, Customer{
		ID:      strings.TrimSpace(id),
		Name:    in.Name,
		Phone:   in.Phone,
		Address: in.Address,
		Type:    in.Type,
		CanQty:  in.CanQty,
	})
	if errors.Is(err, ErrNoCustomer) {
		return Customer{}, common.NotFound("customer", id)
	}
	return c, err
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func normalise(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Type = Type(strings.ToLower(strings.TrimSpace(string(in.Type))))
	return in
}

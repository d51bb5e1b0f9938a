package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Customers resolves order owners.
type Customers interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
}

// Prices resolves the current price sheet.
type Prices interface {
	Current(ctx context.Context) (pricing.Sheet, error)
}

// Quote is an order with its owner and computed charge.
type Quote struct {
	Order    Order             `json:"order"`
	Customer customer.Customer `json:"customer"`
	Charge   Charge            `json:"charge"`
}

// Service manages orders and prices them.
type Service struct {
	Store     Store
	Customers Customers
	Prices    Prices
	Policy    Policy
	Logger    zerolog.Logger
	NewID     func() string
	Now       func() time.Time
}

// Create validates and stores a pending order.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if err := common.ValidateStruct(in); err != nil {
		return Order{}, err
	}
	c, err := s.Customers.Get(ctx, in.CustomerID)
	if err != nil {
		return Order{}, err
	}
	orderDate := common.Day(s.now())
	if in.OrderDate != "" {
		if orderDate, err = common.ParseDate("order_date", in.OrderDate); err != nil {
			return Order{}, err
		}
	}
	var notes *string
	if in.Notes != nil {
		notes = common.TrimmedOrNil(*in.Notes)
	}
	o, err := s.Store.Insert(ctx, Order{
		ID:             s.newID(),
		CustomerID:     c.ID,
		CanQty:         in.CanQty,
		CollectedQty:   in.CollectedQty,
		DeliveryAmount: in.DeliveryAmount,
		Status:         StatusPending,
		OrderDate:      orderDate,
		Notes:          notes,
	})
	if err != nil {
		return Order{}, err
	}
	s.Logger.Info().Str("order_id", o.ID).Str("customer_id", o.CustomerID).Int("can_qty", o.CanQty).Msg("order_created")
	return o, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Order{}, common.Validation("order_id", "is required")
	}
	o, err := s.Store.Get(ctx, id)
	if errors.Is(err, ErrNoOrder) {
		return Order{}, common.NotFound("order", id)
	}
	return o, err
}

// List returns a page of orders and the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, common.Validation("status", "must be one of pending processing delivered cancelled")
	}
	return s.Store.List(ctx, f)
}

// Update applies the set fields. Status changes must follow the lifecycle;
// delivering without a delivery date stamps today.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Order, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Order{}, err
	}
	o, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if in.Status != nil {
		if !o.Status.CanMoveTo(*in.Status) {
			return Order{}, common.Validation("order_status", fmt.Sprintf("cannot change from %s to %s", o.Status, *in.Status))
		}
		o.Status = *in.Status
		if o.Status == StatusDelivered && o.DeliveryDate == nil && in.DeliveryDate == nil {
			today := common.Day(s.now())
			o.DeliveryDate = &today
		}
	}
	if in.CanQty != nil {
		o.CanQty = *in.CanQty
	}
	if in.CollectedQty != nil {
		o.CollectedQty = in.CollectedQty
	}
	if in.DeliveryAmount != nil {
		o.DeliveryAmount = in.DeliveryAmount
	}
	if in.DeliveryDate != nil {
		d, err := common.ParseDate("delivery_date", *in.DeliveryDate)
		if err != nil {
			return Order{}, err
		}
		o.DeliveryDate = &d
	}
	if in.CollectionDate != nil {
		d, err := common.ParseDate("collection_date", *in.CollectionDate)
		if err != nil {
			return Order{}, err
		}
		o.CollectionDate = &d
	}
	if in.Notes != nil {
		o.Notes = common.TrimmedOrNil(*in.Notes)
	}
	updated, err := s.Store.Update(ctx, o)
	if errors.Is(err, ErrNoOrder) {
		return Order{}, common.NotFound("order", id)
	}
	if err != nil {
		return Order{}, err
	}
	s.Logger.Info().Str("order_id", updated.ID).Str("status", string(updated.Status)).Msg("order_updated")
	return updated, nil
}

// Quote prices the order against the current sheet at its customer's price.
func (s *Service) Quote(ctx context.Context, id string) (Quote, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	c, err := s.Customers.Get(ctx, o.CustomerID)
	if err != nil {
		return Quote{}, err
	}
	sheet, err := s.Prices.Current(ctx)
	if err != nil {
		return Quote{}, err
	}
	return QuoteWith(o, c, sheet, s.Policy)
}

// QuoteWith prices o with an explicit sheet and policy.
func QuoteWith(o Order, c customer.Customer, sheet pricing.Sheet, p Policy) (Quote, error) {
	price, err := sheet.PriceFor(c.Type)
	if err != nil {
		return Quote{}, common.Validation("price", err.Error())
	}
	return Quote{Order: o, Customer: c, Charge: ComputeCharge(o.ChargeInput(price), p)}, nil
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

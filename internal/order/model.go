package order

import (
	"encoding/json"
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanMoveTo reports whether an order in s may change to next. Staying in the
// same state is always allowed.
func (s Status) CanMoveTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a one-off can delivery.
type Order struct {
	ID             string         `json:"order_id"`
	CustomerID     string         `json:"customer_id"`
	CanQty         int            `json:"can_qty"`
	CollectedQty   *int           `json:"collected_qty"`
	DeliveryAmount *pricing.Money `json:"delivery_amount"`
	Status         Status         `json:"order_status"`
	OrderDate      time.Time      `json:"-"`
	DeliveryDate   *time.Time     `json:"-"`
	CollectionDate *time.Time     `json:"-"`
	Notes          *string        `json:"notes"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MarshalJSON renders the order dates as calendar dates.
func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		OrderDate      string  `json:"order_date"`
		DeliveryDate   *string `json:"delivery_date"`
		CollectionDate *string `json:"collection_date"`
	}{alias(o), o.OrderDate.Format(common.DateLayout), formatDate(o.DeliveryDate), formatDate(o.CollectionDate)})
}

// ChargeInput returns the charge inputs of the order at price.
func (o Order) ChargeInput(price pricing.Money) ChargeInput {
	return ChargeInput{
		CanQty:         o.CanQty,
		CollectedQty:   o.CollectedQty,
		DeliveryAmount: o.DeliveryAmount,
		PricePerCan:    price,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(common.DateLayout)
	return &s
}

// CreateInput is the payload for a new order.
type CreateInput struct {
	CustomerID     string         `json:"customer_id" validate:"required"`
	CanQty         int            `json:"can_qty" validate:"gte=1"`
	CollectedQty   *int           `json:"collected_qty" validate:"omitempty,gte=0"`
	DeliveryAmount *pricing.Money `json:"delivery_amount" validate:"omitempty,gte=0"`
	OrderDate      string         `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          *string        `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateInput changes an existing order. Absent fields are left as is.
type UpdateInput struct {
	CanQty         *int           `json:"can_qty" validate:"omitempty,gte=1"`
	CollectedQty   *int           `json:"collected_qty" validate:"omitempty,gte=0"`
	DeliveryAmount *pricing.Money `json:"delivery_amount" validate:"omitempty,gte=0"`
	Status         *Status        `json:"order_status" validate:"omitempty,oneof=pending processing delivered cancelled"`
	DeliveryDate   *string        `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	CollectionDate *string        `json:"collection_date" validate:"omitempty,datetime=2006-01-02"`
	Notes          *string        `json:"notes" validate:"omitempty,max=1000"`
}

// Filter narrows List results.
type Filter struct {
	CustomerID string
	Status     Status
	Limit      int
	Offset     int
}

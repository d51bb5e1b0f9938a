package customer

import "time"

// Type classifies how a customer is billed.
type Type string

const (
	// TypeShop customers are billed monthly at the shop price.
	TypeShop Type = "shop"
	// TypeMonthly customers receive a standing daily allotment.
	TypeMonthly Type = "monthly"
	// TypeOrder customers buy one-off orders.
	TypeOrder Type = "order"
)

// Valid reports whether t is a known customer type.
func (t Type) Valid() bool {
	switch t {
	case TypeShop, TypeMonthly, TypeOrder:
		return true
	}
	return false
}

// Recurring reports whether the type carries a standing can allotment.
func (t Type) Recurring() bool {
	return t == TypeShop || t == TypeMonthly
}

// Customer is a delivery customer.
type Customer struct {
	ID        string    `json:"customer_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Type      Type      `json:"customer_type"`
	CanQty    int       `json:"can_qty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Baseline is the holding balance assumed before the customer's first ledger
// entry: the standing allotment for recurring customers, zero otherwise.
func (c Customer) Baseline() int {
	if c.Type.Recurring() {
		return c.CanQty
	}
	return 0
}

// Input carries the writable customer attributes.
type Input struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=500"`
	Type    Type   `json:"customer_type" validate:"required,oneof=shop monthly order"`
	CanQty  int    `json:"can_qty" validate:"gte=0"`
}

// Filter narrows List results.
type Filter struct {
	Type   Type
	Limit  int
	Offset int
}

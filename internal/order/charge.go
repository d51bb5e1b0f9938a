package order

import "github.com/anishk6674/kanchan-chilled/internal/pricing"

// DefaultMissingCanPenalty is the per-can charge for cans not returned.
const DefaultMissingCanPenalty pricing.Money = 500

// Policy holds the configurable charge rules.
type Policy struct {
	MissingCanPenalty pricing.Money
}

// DefaultPolicy returns the standard charge rules.
func DefaultPolicy() Policy {
	return Policy{MissingCanPenalty: DefaultMissingCanPenalty}
}

// ChargeInput is what a charge is computed from. CollectedQty and
// DeliveryAmount are optional and default to zero.
type ChargeInput struct {
	CanQty         int
	CollectedQty   *int
	DeliveryAmount *pricing.Money
	PricePerCan    pricing.Money
}

// Charge is the figure set printed on a receipt.
type Charge struct {
	CanQty           int           `json:"can_qty"`
	CollectedQty     int           `json:"collected_qty"`
	PricePerCan      pricing.Money `json:"price_per_can"`
	Subtotal         pricing.Money `json:"subtotal"`
	MissingCans      int           `json:"missing_cans"`
	PenaltyPerCan    pricing.Money `json:"penalty_per_can"`
	MissingCanCharge pricing.Money `json:"missing_can_charge"`
	DeliveryAmount   pricing.Money `json:"delivery_amount"`
	TotalAmount      pricing.Money `json:"total_amount"`
}

// ComputeCharge derives subtotal, missing cans, penalty and total. Every
// caller that shows an order's amounts must go through it.
func ComputeCharge(in ChargeInput, p Policy) Charge {
	collected := 0
	if in.CollectedQty != nil {
		collected = *in.CollectedQty
	}
	var delivery pricing.Money
	if in.DeliveryAmount != nil {
		delivery = *in.DeliveryAmount
	}
	missing := in.CanQty - collected
	if missing < 0 {
		missing = 0
	}
	c := Charge{
		CanQty:         in.CanQty,
		CollectedQty:   collected,
		PricePerCan:    in.PricePerCan,
		Subtotal:       pricing.Money(in.CanQty) * in.PricePerCan,
		MissingCans:    missing,
		PenaltyPerCan:  p.MissingCanPenalty,
		DeliveryAmount: delivery,
	}
	c.MissingCanCharge = pricing.Money(missing) * p.MissingCanPenalty
	c.TotalAmount = c.Subtotal + c.DeliveryAmount + c.MissingCanCharge
	return c
}

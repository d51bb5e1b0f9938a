package billing

import (
	"encoding/json"
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Snapshot is a computed, unsaved monthly bill.
type Snapshot struct {
	CustomerID         string        `json:"customer_id"`
	CustomerName       string        `json:"customer_name"`
	CustomerType       customer.Type `json:"customer_type"`
	Month              time.Time     `json:"-"`
	TotalCansDelivered int           `json:"total_cans_delivered"`
	TotalDeliveryDays  int           `json:"total_delivery_days"`
	PricePerCan        pricing.Money `json:"price_per_can"`
	BillAmount         pricing.Money `json:"bill_amount"`
}

// MarshalJSON renders Month as YYYY-MM.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(struct {
		alias
		Month string `json:"bill_month"`
	}{alias(s), s.Month.Format(common.MonthLayout)})
}

// Input converts the snapshot into a save request that leaves statuses alone.
func (s Snapshot) Input() Input {
	return Input{
		CustomerID:         s.CustomerID,
		BillMonth:          s.Month.Format(common.MonthLayout),
		BillAmount:         s.BillAmount,
		TotalCansDelivered: s.TotalCansDelivered,
		TotalDeliveryDays:  s.TotalDeliveryDays,
	}
}

// Bill is a persisted monthly bill keyed by (customer_id, bill_month).
type Bill struct {
	CustomerID         string        `json:"customer_id"`
	Month              time.Time     `json:"-"`
	BillAmount         pricing.Money `json:"bill_amount"`
	TotalCansDelivered int           `json:"total_cans_delivered"`
	TotalDeliveryDays  int           `json:"total_delivery_days"`
	PaidStatus         bool          `json:"paid_status"`
	SentStatus         bool          `json:"sent_status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// MarshalJSON renders Month as YYYY-MM.
func (b Bill) MarshalJSON() ([]byte, error) {
	type alias Bill
	return json.Marshal(struct {
		alias
		Month string `json:"bill_month"`
	}{alias(b), b.Month.Format(common.MonthLayout)})
}

// Input is one element of a save batch. The caller supplies the totals;
// they are stored as given. Absent statuses default to false on a new row
// and are left unchanged on an existing one.
type Input struct {
	CustomerID         string        `json:"customer_id" validate:"required"`
	BillMonth          string        `json:"bill_month" validate:"required"`
	BillAmount         pricing.Money `json:"bill_amount" validate:"gte=0"`
	TotalCansDelivered int           `json:"total_cans_delivered" validate:"gte=0"`
	TotalDeliveryDays  int           `json:"total_delivery_days" validate:"gte=0,lte=31"`
	PaidStatus         *bool         `json:"paid_status,omitempty"`
	SentStatus         *bool         `json:"sent_status,omitempty"`
}

// StatusUpdate flips paid or sent flags without touching totals.
type StatusUpdate struct {
	PaidStatus *bool `json:"paid_status"`
	SentStatus *bool `json:"sent_status"`
}

// Failure reports one customer that could not be billed or saved.
type Failure struct {
	CustomerID string `json:"customer_id"`
	BillMonth  string `json:"bill_month,omitempty"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// BatchResult lists what was saved and what failed. Neither list is dropped.
type BatchResult struct {
	Saved  []Bill    `json:"saved"`
	Failed []Failure `json:"failed"`
}

// LedgerDay is one calendar day of a customer's ledger view.
type LedgerDay struct {
	Day          int    `json:"day"`
	Date         string `json:"date"`
	DeliveredQty int    `json:"delivered_qty"`
	Recorded     bool   `json:"recorded"`
}

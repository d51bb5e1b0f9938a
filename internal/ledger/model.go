package ledger

import (
	"encoding/json"
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

// Entry is one customer's delivered, collected and holding record for a day.
type Entry struct {
	CustomerID    string    `json:"customer_id"`
	Date          time.Time `json:"-"`
	DeliveredQty  int       `json:"delivered_qty"`
	CollectedQty  int       `json:"collected_qty"`
	HoldingStatus int       `json:"holding_status"`
	Notes         *string   `json:"notes"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MarshalJSON renders Date as a calendar date.
func (e Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(e), e.Date.Format(common.DateLayout)})
}

// UpsertInput is the write payload for a day's entry. Absent quantities are 0.
type UpsertInput struct {
	CustomerID   string  `json:"customer_id" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	DeliveredQty *int    `json:"delivered_qty" validate:"omitempty,gte=0"`
	CollectedQty *int    `json:"collected_qty" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes" validate:"omitempty,max=1000"`
}

// Result is a saved entry plus any data-quality warnings raised while saving.
type Result struct {
	Entry    Entry    `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

// Balance compares a day's stored holding with the running sum.
type Balance struct {
	Date    string `json:"date"`
	Stored  int    `json:"stored_holding"`
	Derived int    `json:"derived_holding"`
	Stale   bool   `json:"stale"`
}

// Reconciliation is a month of recorded days checked against the running sum.
type Reconciliation struct {
	CustomerID string    `json:"customer_id"`
	Month      string    `json:"month"`
	Days       []Balance `json:"days"`
	StaleDays  int       `json:"stale_days"`
	Closing    int       `json:"closing_holding"`
}

// Policy tunes how prior holding is found and which months accept writes.
type Policy struct {
	// CarryFromLatest reads the latest entry before the date instead of
	// only the entry on the previous day.
	CarryFromLatest bool
	// LockPaidMonths rejects writes into a month already billed and paid.
	LockPaidMonths bool
}

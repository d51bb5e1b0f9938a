package billing

import (
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// Compute derives a month's bill from the customer's ledger entries and the
// given price sheet. Entries outside the month are ignored. A day counts as
// a delivery day only when something was delivered.
func Compute(c customer.Customer, month time.Time, entries []ledger.Entry, sheet pricing.Sheet) (Snapshot, error) {
	price, err := sheet.PriceFor(c.Type)
	if err != nil {
		return Snapshot{}, err
	}
	start, end := common.MonthRange(month)
	snap := Snapshot{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		CustomerType: c.Type,
		Month:        start,
		PricePerCan:  price,
	}
	for _, e := range entries {
		if e.CustomerID != c.ID || e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		snap.TotalCansDelivered += e.DeliveredQty
		if e.DeliveredQty > 0 {
			snap.TotalDeliveryDays++
		}
	}
	snap.BillAmount = pricing.Money(snap.TotalCansDelivered) * price
	return snap, nil
}

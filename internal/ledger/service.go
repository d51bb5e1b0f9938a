package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
)

var historyStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Customers resolves the customer a ledger write belongs to.
type Customers interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
}

// PeriodGuard reports whether a customer's month is closed for edits.
type PeriodGuard interface {
	MonthPaid(ctx context.Context, customerID string, month time.Time) (bool, error)
}

// Service records and reads daily ledger entries.
type Service struct {
	Store     Store
	Customers Customers
	Guard     PeriodGuard
	Policy    Policy
	Metrics   *obs.DomainMetrics
	Logger    zerolog.Logger
}

// Upsert records the day's delivered and collected counts and derives the
// holding balance from the prior entry. The prior entry is the one on the
// previous day, or the latest earlier one when CarryFromLatest is set; when
// absent the customer's baseline seeds the balance. Later days are not
// recomputed. A negative balance is stored and reported as a warning.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Result, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if err := common.ValidateStruct(in); err != nil {
		s.Metrics.LedgerUpsert("invalid", false)
		return Result{}, err
	}
	date, err := common.ParseDate("date", in.Date)
	if err != nil {
		s.Metrics.LedgerUpsert("invalid", false)
		return Result{}, err
	}
	delivered := common.IntOr(in.DeliveredQty, 0)
	collected := common.IntOr(in.CollectedQty, 0)
	var notes *string
	if in.Notes != nil {
		notes = common.TrimmedOrNil(*in.Notes)
	}

	cust, err := s.Customers.Get(ctx, in.CustomerID)
	if err != nil {
		s.Metrics.LedgerUpsert(outcome(err), false)
		return Result{}, err
	}

	if err := s.checkOpen(ctx, cust.ID, date); err != nil {
		s.Metrics.LedgerUpsert(outcome(err), false)
		return Result{}, err
	}

	prior, err := s.priorHolding(ctx, cust, date)
	if err != nil {
		s.Metrics.LedgerUpsert(outcome(err), false)
		return Result{}, err
	}

	entry := Entry{
		CustomerID:    cust.ID,
		Date:          date,
		DeliveredQty:  delivered,
		CollectedQty:  collected,
		HoldingStatus: prior + delivered - collected,
		Notes:         notes,
	}
	saved, err := s.Store.Upsert(ctx, entry)
	if err != nil {
		s.Metrics.LedgerUpsert(outcome(err), false)
		return Result{}, err
	}

	res := Result{Entry: saved}
	negative := saved.HoldingStatus < 0
	if negative {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"holding_status is negative (%d): %d collected exceeds %d outstanding",
			saved.HoldingStatus, collected, prior+delivered))
		s.Logger.Warn().
			Str("customer_id", saved.CustomerID).
			Str("date", date.Format(common.DateLayout)).
			Int("holding_status", saved.HoldingStatus).
			Msg("ledger_negative_holding")
	}
	s.Metrics.LedgerUpsert("ok", negative)
	s.Logger.Debug().
		Str("customer_id", saved.CustomerID).
		Str("date", date.Format(common.DateLayout)).
		Int("prior_holding", prior).
		Int("holding_status", saved.HoldingStatus).
		Msg("ledger_upserted")
	return res, nil
}

// Get returns the customer's entry on date, or nil when none was recorded.
func (s *Service) Get(ctx context.Context, customerID string, date time.Time) (*Entry, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, common.Validation("customer_id", "is required")
	}
	e, err := s.Store.Get(ctx, customerID, common.Day(date))
	if errors.Is(err, ErrNoEntry) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EntriesForDate returns every customer's entry on date.
func (s *Service) EntriesForDate(ctx context.Context, date time.Time) ([]Entry, error) {
	return s.Store.ListForDate(ctx, common.Day(date))
}

// EntriesForCustomerInRange returns the customer's entries between start and
// end inclusive, ordered by date ascending.
func (s *Service) EntriesForCustomerInRange(ctx context.Context, customerID string, start, end time.Time) ([]Entry, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, common.Validation("customer_id", "is required")
	}
	start, end = common.Day(start), common.Day(end)
	if end.Before(start) {
		return nil, common.Validation("end", "must not be before start")
	}
	return s.Store.ListForCustomer(ctx, customerID, start, end)
}

// EntriesForMonth returns the customer's entries within month.
func (s *Service) EntriesForMonth(ctx context.Context, customerID string, month time.Time) ([]Entry, error) {
	start, end := common.MonthRange(month)
	return s.EntriesForCustomerInRange(ctx, customerID, start, end)
}

// Reconcile derives each recorded day's holding in month as a running sum of
// deliveries minus collections from the customer's baseline, and compares it
// with the stored value. Stored balances are not rewritten by Upsert when an
// earlier day changes; Stale marks the days that drifted.
func (s *Service) Reconcile(ctx context.Context, customerID string, month time.Time) (Reconciliation, error) {
	cust, err := s.Customers.Get(ctx, strings.TrimSpace(customerID))
	if err != nil {
		return Reconciliation{}, err
	}
	start, end := common.MonthRange(month)
	entries, err := s.Store.ListForCustomer(ctx, cust.ID, historyStart, end)
	if err != nil {
		return Reconciliation{}, err
	}

	rec := Reconciliation{CustomerID: cust.ID, Month: start.Format(common.MonthLayout), Days: []Balance{}}
	running := cust.Baseline()
	for _, e := range entries {
		running += e.DeliveredQty - e.CollectedQty
		if e.Date.Before(start) {
			continue
		}
		b := Balance{
			Date:    e.Date.Format(common.DateLayout),
			Stored:  e.HoldingStatus,
			Derived: running,
			Stale:   e.HoldingStatus != running,
		}
		if b.Stale {
			rec.StaleDays++
		}
		rec.Days = append(rec.Days, b)
	}
	rec.Closing = running
	if rec.StaleDays > 0 {
		s.Logger.Info().
			Str("customer_id", cust.ID).
			Str("month", rec.Month).
			Int("stale_days", rec.StaleDays).
			Msg("ledger_stale_holding")
	}
	return rec, nil
}

func (s *Service) checkOpen(ctx context.Context, customerID string, date time.Time) error {
	if !s.Policy.LockPaidMonths || s.Guard == nil {
		return nil
	}
	paid, err := s.Guard.MonthPaid(ctx, customerID, common.MonthStart(date))
	if err != nil {
		return err
	}
	if paid {
		return common.PeriodClosed(fmt.Sprintf("bill for %s is paid; ledger entries are locked", date.Format(common.MonthLayout)))
	}
	return nil
}

func (s *Service) priorHolding(ctx context.Context, cust customer.Customer, date time.Time) (int, error) {
	var (
		prev Entry
		err  error
	)
	if s.Policy.CarryFromLatest {
		prev, err = s.Store.LatestBefore(ctx, cust.ID, date)
	} else {
		prev, err = s.Store.Get(ctx, cust.ID, date.AddDate(0, 0, -1))
	}
	if errors.Is(err, ErrNoEntry) {
		return cust.Baseline(), nil
	}
	if err != nil {
		return 0, err
	}
	return prev.HoldingStatus, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, common.ErrValidation):
		return "invalid"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrPeriodClosed):
		return "period_closed"
	default:
		return "error"
	}
}

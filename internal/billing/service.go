package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
	"github.com/anishk6674/kanchan-chilled/internal/notify"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// CodePriceUnresolvable marks a customer whose type has no price on the sheet.
const CodePriceUnresolvable = "PRICE_UNRESOLVABLE"

// Customers lists and resolves billable customers.
type Customers interface {
	Get(ctx context.Context, id string) (customer.Customer, error)
	All(ctx context.Context) ([]customer.Customer, error)
}

// Entries reads a customer's ledger entries for a month.
type Entries interface {
	EntriesForMonth(ctx context.Context, customerID string, month time.Time) ([]ledger.Entry, error)
}

// Service computes, saves and sends monthly bills.
type Service struct {
	Store       Store
	Customers   Customers
	Ledger      Entries
	Sender      notify.SMSSender
	Concurrency int
	Currency    string
	Metrics     *obs.DomainMetrics
	Logger      zerolog.Logger
}

// ComputeMonthlyBill returns the unsaved bill for one customer and month,
// priced from sheet.
func (s *Service) ComputeMonthlyBill(ctx context.Context, customerID string, month time.Time, sheet pricing.Sheet) (Snapshot, error) {
	c, err := s.Customers.Get(ctx, customerID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.compute(ctx, c, month, sheet)
}

// MonthlySnapshots computes a snapshot for every customer, optionally
// restricted to one type. Customers that cannot be billed are reported in
// the failure list and do not stop the others.
func (s *Service) MonthlySnapshots(ctx context.Context, month time.Time, only customer.Type, sheet pricing.Sheet) ([]Snapshot, []Failure, error) {
	custs, err := s.customers(ctx, only)
	if err != nil {
		return nil, nil, err
	}
	month = common.MonthStart(month)
	snaps := make([]*Snapshot, len(custs))
	fails := make([]*Failure, len(custs))
	s.each(ctx, len(custs), func(ctx context.Context, i int) {
		snap, err := s.compute(ctx, custs[i], month, sheet)
		if err != nil {
			fails[i] = failure(custs[i].ID, month, err)
			return
		}
		snaps[i] = &snap
	}, func(i int, err error) {
		fails[i] = failure(custs[i].ID, month, err)
	})
	return compact(snaps), compact(fails), nil
}

// Save upserts each bill as given, keyed by (customer_id, bill_month).
// Items are processed independently; one failure never aborts the rest.
// An unknown customer fails with NOT_FOUND before anything is written.
// Totals are overwritten; a nil PaidStatus or SentStatus inserts false on a
// new row and carries the stored flag forward on an existing one.
func (s *Service) Save(ctx context.Context, inputs []Input) BatchResult {
	started := time.Now()
	defer func() { s.Metrics.BillRun(time.Since(started)) }()

	saved := make([]*Bill, len(inputs))
	fails := make([]*Failure, len(inputs))
	s.each(ctx, len(inputs), func(ctx context.Context, i int) {
		b, err := s.saveOne(ctx, inputs[i])
		if err != nil {
			fails[i] = &Failure{CustomerID: inputs[i].CustomerID, BillMonth: inputs[i].BillMonth, Code: codeOf(err), Message: messageOf(err)}
			return
		}
		saved[i] = &b
	}, func(i int, err error) {
		fails[i] = &Failure{CustomerID: inputs[i].CustomerID, BillMonth: inputs[i].BillMonth, Code: codeOf(err), Message: messageOf(err)}
	})
	res := BatchResult{Saved: compact(saved), Failed: compact(fails)}
	s.Logger.Info().Int("saved", len(res.Saved)).Int("failed", len(res.Failed)).Msg("bills_saved")
	return res
}

// Generate computes and saves the month's bill for every customer. Existing
// paid and sent flags are kept.
func (s *Service) Generate(ctx context.Context, month time.Time, sheet pricing.Sheet) (BatchResult, error) {
	started := time.Now()
	defer func() { s.Metrics.BillRun(time.Since(started)) }()

	custs, err := s.customers(ctx, "")
	if err != nil {
		return BatchResult{}, err
	}
	month = common.MonthStart(month)
	saved := make([]*Bill, len(custs))
	fails := make([]*Failure, len(custs))
	s.each(ctx, len(custs), func(ctx context.Context, i int) {
		snap, err := s.compute(ctx, custs[i], month, sheet)
		if err != nil {
			fails[i] = failure(custs[i].ID, month, err)
			return
		}
		b, err := s.saveOne(ctx, snap.Input())
		if err != nil {
			fails[i] = failure(custs[i].ID, month, err)
			return
		}
		saved[i] = &b
	}, func(i int, err error) {
		fails[i] = failure(custs[i].ID, month, err)
	})
	res := BatchResult{Saved: compact(saved), Failed: compact(fails)}
	s.Logger.Info().
		Str("month", month.Format(common.MonthLayout)).
		Int("saved", len(res.Saved)).
		Int("failed", len(res.Failed)).
		Msg("bills_generated")
	return res, nil
}

// List returns the saved bills of month.
func (s *Service) List(ctx context.Context, month time.Time) ([]Bill, error) {
	return s.Store.ListForMonth(ctx, common.MonthStart(month))
}

// Get returns one saved bill.
func (s *Service) Get(ctx context.Context, customerID string, month time.Time) (Bill, error) {
	b, err := s.Store.Get(ctx, strings.TrimSpace(customerID), common.MonthStart(month))
	if errors.Is(err, ErrNoBill) {
		return Bill{}, common.NotFound("bill", customerID+"/"+month.Format(common.MonthLayout))
	}
	return b, err
}

// UpdateStatus flips paid or sent flags. Totals are never recomputed.
func (s *Service) UpdateStatus(ctx context.Context, customerID string, month time.Time, upd StatusUpdate) (Bill, error) {
	if upd.PaidStatus == nil && upd.SentStatus == nil {
		return Bill{}, common.Validation("body", "paid_status or sent_status is required")
	}
	b, err := s.Store.UpdateStatus(ctx, strings.TrimSpace(customerID), common.MonthStart(month), upd.PaidStatus, upd.SentStatus)
	if errors.Is(err, ErrNoBill) {
		return Bill{}, common.NotFound("bill", customerID+"/"+month.Format(common.MonthLayout))
	}
	return b, err
}

// MonthPaid reports whether the customer's bill for month is paid.
func (s *Service) MonthPaid(ctx context.Context, customerID string, month time.Time) (bool, error) {
	b, err := s.Store.Get(ctx, customerID, common.MonthStart(month))
	if errors.Is(err, ErrNoBill) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return b.PaidStatus, nil
}

// LedgerView returns every day of month with the delivered quantity, for
// rendering a delivery calendar. Days without an entry show zero.
func (s *Service) LedgerView(ctx context.Context, customerID string, month time.Time) ([]LedgerDay, error) {
	c, err := s.Customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	entries, err := s.Ledger.EntriesForMonth(ctx, c.ID, month)
	if err != nil {
		return nil, err
	}
	byDay := make(map[int]int, len(entries))
	for _, e := range entries {
		byDay[e.Date.Day()] = e.DeliveredQty
	}
	start, end := common.MonthRange(month)
	days := make([]LedgerDay, 0, end.Day())
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		qty, ok := byDay[d.Day()]
		days = append(days, LedgerDay{Day: d.Day(), Date: d.Format(common.DateLayout), DeliveredQty: qty, Recorded: ok})
	}
	return days, nil
}

// Send texts the bill to the customer and marks it sent.
func (s *Service) Send(ctx context.Context, customerID string, month time.Time) (Bill, error) {
	b, err := s.Get(ctx, customerID, month)
	if err != nil {
		return Bill{}, err
	}
	c, err := s.Customers.Get(ctx, b.CustomerID)
	if err != nil {
		return Bill{}, err
	}
	if strings.TrimSpace(c.Phone) == "" {
		return Bill{}, common.Validation("phone", "customer has no phone number")
	}
	if s.Sender == nil {
		return Bill{}, common.Upstream(errors.New("sms sender not configured"))
	}
	sid, err := s.Sender.Send(ctx, c.Phone, s.billMessage(c, b))
	if err != nil {
		s.Metrics.BillMessage("error")
		return Bill{}, common.Upstream(err)
	}
	s.Metrics.BillMessage("sent")
	s.Logger.Info().Str("customer_id", c.ID).Str("month", b.Month.Format(common.MonthLayout)).Str("sid", sid).Msg("bill_sent")
	sent := true
	return s.UpdateStatus(ctx, b.CustomerID, b.Month, StatusUpdate{SentStatus: &sent})
}

func (s *Service) billMessage(c customer.Customer, b Bill) string {
	p := message.NewPrinter(language.English)
	currency := s.Currency
	if currency == "" {
		currency = "Rs."
	}
	return p.Sprintf("Dear %s, your water bill for %s is %s %d for %d cans over %d delivery days.",
		c.Name, b.Month.Format("January 2006"), currency, b.BillAmount, b.TotalCansDelivered, b.TotalDeliveryDays)
}

func (s *Service) compute(ctx context.Context, c customer.Customer, month time.Time, sheet pricing.Sheet) (Snapshot, error) {
	if _, err := sheet.PriceFor(c.Type); err != nil {
		return Snapshot{}, err
	}
	entries, err := s.Ledger.EntriesForMonth(ctx, c.ID, month)
	if err != nil {
		return Snapshot{}, err
	}
	return Compute(c, month, entries, sheet)
}

func (s *Service) saveOne(ctx context.Context, in Input) (Bill, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	if err := common.ValidateStruct(in); err != nil {
		s.Metrics.BillSaved("invalid")
		return Bill{}, err
	}
	month, err := common.ParseMonth("bill_month", in.BillMonth)
	if err != nil {
		s.Metrics.BillSaved("invalid")
		return Bill{}, err
	}
	c, err := s.Customers.Get(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.Metrics.BillSaved("not_found")
		} else {
			s.Metrics.BillSaved("error")
		}
		return Bill{}, err
	}
	b, err := s.Store.Upsert(ctx, Bill{
		CustomerID:         c.ID,
		Month:              month,
		BillAmount:         in.BillAmount,
		TotalCansDelivered: in.TotalCansDelivered,
		TotalDeliveryDays:  in.TotalDeliveryDays,
	}, in.PaidStatus, in.SentStatus)
	if err != nil {
		s.Metrics.BillSaved("error")
		s.Logger.Warn().Err(err).Str("customer_id", in.CustomerID).Str("month", in.BillMonth).Msg("bill_save_failed")
		return Bill{}, err
	}
	s.Metrics.BillSaved("ok")
	return b, nil
}

func (s *Service) customers(ctx context.Context, only customer.Type) ([]customer.Customer, error) {
	if only != "" && !only.Valid() {
		return nil, common.Validation("type", "must be one of shop monthly order")
	}
	all, err := s.Customers.All(ctx)
	if err != nil {
		return nil, err
	}
	if only == "" {
		return all, nil
	}
	out := all[:0:0]
	for _, c := range all {
		if c.Type == only {
			out = append(out, c)
		}
	}
	return out, nil
}

// each runs work for indexes [0, n) with bounded concurrency. Once ctx is
// done, remaining indexes are handed to skipped instead.
func (s *Service) each(ctx context.Context, n int, work func(context.Context, int), skipped func(int, error)) {
	limit := s.Concurrency
	if limit <= 0 {
		limit = 8
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			skipped(i, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				skipped(i, err)
				return nil
			}
			work(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func failure(customerID string, month time.Time, err error) *Failure {
	return &Failure{
		CustomerID: customerID,
		BillMonth:  month.Format(common.MonthLayout),
		Code:       codeOf(err),
		Message:    messageOf(err),
	}
}

func codeOf(err error) string {
	var appErr *common.AppError
	switch {
	case errors.Is(err, pricing.ErrPriceUnresolvable):
		return CodePriceUnresolvable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	case errors.As(err, &appErr):
		return appErr.Code
	default:
		return common.CodeInternal
	}
}

func messageOf(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if errors.Is(err, pricing.ErrPriceUnresolvable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err.Error()
	}
	return "internal error"
}

func compact[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

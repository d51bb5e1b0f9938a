package app

import (
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/audit"
	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/db"
	"github.com/anishk6674/kanchan-chilled/internal/jobs"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
	"github.com/anishk6674/kanchan-chilled/internal/lock"
	"github.com/anishk6674/kanchan-chilled/internal/notify"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
	"github.com/anishk6674/kanchan-chilled/internal/receipt"
	"github.com/anishk6674/kanchan-chilled/internal/resilience"
)

// Stores are the persistence backends the services run on.
type Stores struct {
	Customers customer.Store
	Prices    pricing.Store
	Ledger    ledger.Store
	Bills     billing.Store
	Orders    order.Store
	Audit     audit.Store
}

// PGStores returns the Postgres implementation of every store.
func PGStores(q db.DBTX) Stores {
	return Stores{
		Customers: customer.PGStore{DB: q},
		Prices:    pricing.PGStore{DB: q},
		Ledger:    ledger.PGStore{DB: q},
		Bills:     billing.PGStore{DB: q},
		Orders:    order.PGStore{DB: q},
		Audit:     audit.PGStore{DB: q},
	}
}

// Services is the wired domain layer.
type Services struct {
	Customers *customer.Service
	Prices    *pricing.Service
	Ledger    *ledger.Service
	Bills     *billing.Service
	Orders    *order.Service
	Locks     lock.Locker
	Jobs      jobs.Client
	Audit     *audit.Service
	Business  receipt.Business
}

// NewServices wires the domain services over stores. The ledger consults
// the bill service to refuse edits to paid months.
func NewServices(d *Dependencies, stores Stores, sender notify.SMSSender) *Services {
	cfg := d.Config
	customers := &customer.Service{Store: stores.Customers}
	prices := &pricing.Service{Store: stores.Prices}

	bills := &billing.Service{
		Store:       stores.Bills,
		Customers:   customers,
		Sender:      sender,
		Concurrency: cfg.BillingConcurrency,
		Currency:    cfg.ReceiptCurrencySymbol,
		Metrics:     d.Domain,
		Logger:      d.Logger.With().Str("component", "billing").Logger(),
	}
	ledgerSvc := &ledger.Service{
		Store:     stores.Ledger,
		Customers: customers,
		Guard:     bills,
		Policy: ledger.Policy{
			CarryFromLatest: cfg.LedgerCarryFromLatest,
			LockPaidMonths:  cfg.LedgerLockPaidMonths,
		},
		Metrics: d.Domain,
		Logger:  d.Logger.With().Str("component", "ledger").Logger(),
	}
	bills.Ledger = ledgerSvc

	orders := &order.Service{
		Store:     stores.Orders,
		Customers: customers,
		Prices:    prices,
		Policy:    order.Policy{MissingCanPenalty: pricing.Money(cfg.MissingCanPenalty)},
		Logger:    d.Logger.With().Str("component", "order").Logger(),
	}

	return &Services{
		Customers: customers,
		Prices:    prices,
		Ledger:    ledgerSvc,
		Bills:     bills,
		Orders:    orders,
		Locks:     lock.Locker{R: d.Redis, RetryBackoff: 100 * time.Millisecond, Prefix: "lock:"},
		Jobs:      jobs.Client{Asynq: d.Tasks},
		Audit: &audit.Service{
			Store:        stores.Audit,
			Enabled:      cfg.AuditEnabled && stores.Audit != nil,
			SamplingRate: cfg.AuditSamplingRate,
		},
		Business: receipt.Business{
			Name:     cfg.ReceiptBusinessName,
			Phone:    cfg.ReceiptBusinessPhone,
			Currency: cfg.ReceiptCurrencySymbol,
		},
	}
}

// Sender returns the Twilio sender when credentials are configured and a
// logging no-op otherwise.
func Sender(d *Dependencies) notify.SMSSender {
	cfg := d.Config
	logger := d.Logger.With().Str("component", "notify").Logger()
	if !cfg.TwilioEnabled() {
		return notify.NopSender{Logger: logger}
	}
	breaker := resilience.NewBreaker(5, 0.5, 30*time.Second).
		WithTarget("twilio").
		WithLogger(logger).
		WithMetrics(d.Breakers)
	return notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, breaker, logger)
}

package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anishk6674/kanchan-chilled/internal/audit"
	"github.com/anishk6674/kanchan-chilled/internal/billing"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/health"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
	"github.com/anishk6674/kanchan-chilled/internal/ratelimit"
	"github.com/anishk6674/kanchan-chilled/internal/receipt"
	"github.com/anishk6674/kanchan-chilled/internal/security"
)

// RouterOptions toggles the observability middleware.
type RouterOptions struct {
	Tracing     bool
	HTTPMetrics *obs.HTTPMetrics
	// Metrics serves /metrics from the default gatherer when set.
	Metrics bool
	Checker health.Checker
}

// Router builds the HTTP surface under /api/v1.
func Router(d *Dependencies, s *Services, opts RouterOptions) http.Handler {
	cfg := d.Config

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins...))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", ContentSecurityPolicy: security.DefaultCSP}.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	healthHandler := health.Handler{Checker: opts.Checker}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	customers := &customer.Handler{Svc: s.Customers}
	prices := &pricing.Handler{Svc: s.Prices}
	entries := &ledger.Handler{Svc: s.Ledger}
	bills := &billing.Handler{Svc: s.Bills, Prices: s.Prices, Jobs: s.Jobs}
	orders := &order.Handler{Svc: s.Orders}
	docs := &receipt.Handler{
		Orders:    s.Orders,
		Bills:     s.Bills,
		Customers: s.Customers,
		Prices:    s.Prices,
		Business:  s.Business,
		Metrics:   d.Domain,
		Now:       time.Now,
	}

	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
	limit := rateLimit(d)
	rec := audit.HTTPRecorder{
		Service: s.Audit,
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("audit record failed") },
	}
	audited := func(action, resource string, params ...string) func(http.Handler) http.Handler {
		return rec.Middleware(audit.HTTPConfig{Action: action, ResourceType: resource, ResourceIDParams: params})
	}
	auditLogs := audit.Handler{Store: s.Audit.Store}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if limit != nil {
			v.Use(limit)
		}

		v.Get("/ledger", entries.Query)
		v.With(idem.Middleware, audited("ledger.upsert", "ledger")).Post("/ledger", entries.Upsert)
		v.Get("/ledger/view", bills.LedgerView)
		v.Get("/ledger/reconcile", entries.Reconcile)

		v.Route("/monthly-bills", func(m chi.Router) {
			m.Get("/", bills.Snapshots)
			m.Get("/export.xlsx", docs.ExportXLSX)
			m.With(idem.Middleware, audited("bills.generate", "bill")).Post("/generate", bills.Generate)
		})

		v.Route("/bills", func(b chi.Router) {
			b.Get("/", bills.List)
			b.With(idem.Middleware, audited("bills.save", "bill")).Post("/", bills.Save)
			b.Route("/{customerID}/{month}", func(one chi.Router) {
				one.With(audited("bill.status", "bill", "customerID", "month")).Patch("/", bills.UpdateStatus)
				one.With(idem.Middleware, audited("bill.send", "bill", "customerID", "month")).Post("/send", bills.Send)
				one.Get("/pdf", docs.BillPDF)
			})
		})

		v.Get("/prices", prices.Current)
		v.With(idem.Middleware, audited("prices.publish", "price_sheet")).Post("/prices", prices.Publish)

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customers.List)
			c.With(idem.Middleware).Post("/", customers.Create)
			c.Get("/{id}", customers.Get)
			c.Patch("/{id}", customers.Update)
		})

		v.Route("/orders", func(o chi.Router) {
			o.Get("/", orders.List)
			o.With(idem.Middleware).Post("/", orders.Create)
			o.Route("/{id}", func(one chi.Router) {
				one.Get("/", orders.Get)
				one.With(audited("order.update", "order", "id")).Patch("/", orders.Update)
				one.Get("/charge", orders.Charge)
				one.Get("/receipt", docs.OrderHTML)
				one.Get("/receipt.pdf", docs.OrderPDF)
			})
		})

		v.Get("/audit-logs", auditLogs.List)
	})

	return r
}

func rateLimit(d *Dependencies) func(http.Handler) http.Handler {
	cfg := d.Config
	var allower ratelimit.Allower
	switch cfg.RateLimitDriver {
	case "off":
		return nil
	case "ulule":
		fixed, err := ratelimit.NewFixedRedis(d.Redis, "ratelimit")
		if err != nil {
			d.Logger.Error().Err(err).Msg("init ulule limiter, falling back to memory store")
			fixed = ratelimit.NewFixedMemory()
		}
		allower = fixed
	default:
		allower = ratelimit.Sliding{Client: d.Redis, Prefix: "ratelimit:"}
	}
	return ratelimit.Handler{
		Limiter: allower,
		Config:  ratelimit.Config{Key: ratelimit.ByClientIP("api"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}.Middleware
}

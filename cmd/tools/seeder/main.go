package main

import (
	"context"
	"flag"
	"time"

	"github.com/anishk6674/kanchan-chilled/internal/app"
	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/config"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
	"github.com/anishk6674/kanchan-chilled/internal/notify"
	"github.com/anishk6674/kanchan-chilled/internal/obs"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

// seeder loads demo customers, a price sheet and one month of deliveries.
func main() {
	monthFlag := flag.String("month", time.Now().UTC().Format(common.MonthLayout), "month to fill with deliveries (YYYY-MM)")
	flag.Parse()

	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	month, err := common.ParseMonth("month", *monthFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse month")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deps, err := app.Open(ctx, cfg, logger, app.Options{Name: "kanchan-seeder"})
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()
	svc := app.NewServices(deps, app.PGStores(deps.DB), notify.NopSender{Logger: logger})

	price := func(v pricing.Money) *pricing.Money { return &v }
	if _, err := svc.Prices.Publish(ctx, pricing.SheetInput{
		OrderPrice:   price(60),
		ShopPrice:    price(35),
		MonthlyPrice: price(300),
	}); err != nil {
		logger.Fatal().Err(err).Msg("publish prices")
	}

	seeds := []customer.Input{
		{Name: "Sharma General Store", Phone: "+919800000001", Type: customer.TypeShop, CanQty: 4},
		{Name: "Asha Verma", Phone: "+919800000002", Type: customer.TypeMonthly, CanQty: 2},
		{Name: "Walk-in Orders", Phone: "+919800000003", Type: customer.TypeOrder},
	}
	start, end := common.MonthRange(month)
	for _, in := range seeds {
		c, err := svc.Customers.Create(ctx, in)
		if err != nil {
			logger.Fatal().Err(err).Str("name", in.Name).Msg("create customer")
		}
		if !c.Type.Recurring() {
			continue
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if day.Weekday() == time.Sunday {
				continue
			}
			delivered, collected := c.CanQty, c.CanQty
			if day.Day()%7 == 0 {
				collected--
			}
			if _, err := svc.Ledger.Upsert(ctx, ledger.UpsertInput{
				CustomerID:   c.ID,
				Date:         day.Format(common.DateLayout),
				DeliveredQty: &delivered,
				CollectedQty: &collected,
			}); err != nil {
				logger.Fatal().Err(err).Str("customer_id", c.ID).Msg("seed ledger")
			}
		}
		logger.Info().Str("customer_id", c.ID).Str("type", string(c.Type)).Msg("customer seeded")
	}
	logger.Info().Str("month", month.Format(common.MonthLayout)).Msg("seeding completed")
}

package order_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/order"
	"github.com/anishk6674/kanchan-chilled/internal/pricing"
)

type memStore struct {
	orders map[string]order.Order
}

func (m *memStore) Get(_ context.Context, id string) (order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, order.ErrNoOrder
	}
	return o, nil
}

func (m *memStore) List(_ context.Context, f order.Filter) ([]order.Order, int, error) {
	out := []order.Order{}
	for _, o := range m.orders {
		if (f.CustomerID == "" || o.CustomerID == f.CustomerID) && (f.Status == "" || o.Status == f.Status) {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *memStore) Insert(_ context.Context, o order.Order) (order.Order, error) {
	m.orders[o.ID] = o
	return o, nil
}

func (m *memStore) Update(_ context.Context, o order.Order) (order.Order, error) {
	if _, ok := m.orders[o.ID]; !ok {
		return order.Order{}, order.ErrNoOrder
	}
	m.orders[o.ID] = o
	return o, nil
}

type customers map[string]customer.Customer

func (c customers) Get(_ context.Context, id string) (customer.Customer, error) {
	cust, ok := c[id]
	if !ok {
		return customer.Customer{}, common.NotFound("customer", id)
	}
	return cust, nil
}

type prices pricing.Sheet

func (p prices) Current(context.Context) (pricing.Sheet, error) { return pricing.Sheet(p), nil }

func intp(v int) *int { return &v }

func money(v pricing.Money) *pricing.Money { return &v }

func newService() *order.Service {
	ids := 0
	return &order.Service{
		Store:     &memStore{orders: map[string]order.Order{}},
		Customers: customers{"o1": {ID: "o1", Name: "Ravi", Type: customer.TypeOrder}},
		Prices:    prices{OrderPrice: pricing.Price(60)},
		Policy:    order.DefaultPolicy(),
		NewID: func() string {
			ids++
			return fmt.Sprintf("ord-%d", ids)
		},
		Now: func() time.Time { return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC) },
	}
}

func TestComputeChargeScenario(t *testing.T) {
	c := order.ComputeCharge(order.ChargeInput{
		CanQty:         10,
		CollectedQty:   intp(7),
		DeliveryAmount: money(50),
		PricePerCan:    60,
	}, order.DefaultPolicy())
	require.Equal(t, pricing.Money(600), c.Subtotal)
	require.Equal(t, 3, c.MissingCans)
	require.Equal(t, pricing.Money(1500), c.MissingCanCharge)
	require.Equal(t, pricing.Money(2150), c.TotalAmount)
}

func TestComputeChargeDefaults(t *testing.T) {
	c := order.ComputeCharge(order.ChargeInput{CanQty: 4, PricePerCan: 60}, order.Policy{MissingCanPenalty: 100})
	require.Equal(t, 0, c.CollectedQty)
	require.Equal(t, 4, c.MissingCans)
	require.Equal(t, pricing.Money(0), c.DeliveryAmount)
	require.Equal(t, pricing.Money(240+400), c.TotalAmount)

	over := order.ComputeCharge(order.ChargeInput{CanQty: 2, CollectedQty: intp(5), PricePerCan: 60}, order.DefaultPolicy())
	require.Equal(t, 0, over.MissingCans)
	require.Equal(t, pricing.Money(120), over.TotalAmount)
}

func TestChargeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("missing cans never increase as collection grows", prop.ForAll(
		func(canQty, collected, extra int) bool {
			a := order.ComputeCharge(order.ChargeInput{CanQty: canQty, CollectedQty: intp(collected), PricePerCan: 60}, order.DefaultPolicy())
			b := order.ComputeCharge(order.ChargeInput{CanQty: canQty, CollectedQty: intp(collected + extra), PricePerCan: 60}, order.DefaultPolicy())
			return b.MissingCans <= a.MissingCans
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.IntRange(0, 20),
	))

	properties.Property("nothing collected means every can is missing", prop.ForAll(
		func(canQty int) bool {
			c := order.ComputeCharge(order.ChargeInput{CanQty: canQty, CollectedQty: intp(0), PricePerCan: 60}, order.DefaultPolicy())
			return c.MissingCans == canQty
		},
		gen.IntRange(0, 100),
	))

	properties.Property("charge is deterministic", prop.ForAll(
		func(canQty, collected int, delivery, price int64) bool {
			in := order.ChargeInput{CanQty: canQty, CollectedQty: intp(collected), DeliveryAmount: money(delivery), PricePerCan: price}
			return order.ComputeCharge(in, order.DefaultPolicy()) == order.ComputeCharge(in, order.DefaultPolicy())
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func TestStatusTransitions(t *testing.T) {
	require.True(t, order.StatusPending.CanMoveTo(order.StatusProcessing))
	require.True(t, order.StatusProcessing.CanMoveTo(order.StatusDelivered))
	require.True(t, order.StatusPending.CanMoveTo(order.StatusCancelled))
	require.False(t, order.StatusDelivered.CanMoveTo(order.StatusCancelled))
	require.False(t, order.StatusCancelled.CanMoveTo(order.StatusPending))
	require.False(t, order.StatusPending.CanMoveTo(order.StatusDelivered))
}

func TestCreateUpdateAndQuote(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, order.CreateInput{CustomerID: "ghost", CanQty: 1})
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = svc.Create(ctx, order.CreateInput{CustomerID: "o1", CanQty: 0})
	require.ErrorIs(t, err, common.ErrValidation)

	o, err := svc.Create(ctx, order.CreateInput{CustomerID: "o1", CanQty: 10, DeliveryAmount: money(50)})
	require.NoError(t, err)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, "2024-03-15", o.OrderDate.Format(common.DateLayout))

	q, err := svc.Quote(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, 10, q.Charge.MissingCans)
	require.Equal(t, pricing.Money(600+50+5000), q.Charge.TotalAmount)

	delivered := order.StatusDelivered
	_, err = svc.Update(ctx, o.ID, order.UpdateInput{Status: &delivered})
	require.ErrorIs(t, err, common.ErrValidation)

	processing := order.StatusProcessing
	_, err = svc.Update(ctx, o.ID, order.UpdateInput{Status: &processing})
	require.NoError(t, err)
	o, err = svc.Update(ctx, o.ID, order.UpdateInput{Status: &delivered, CollectedQty: intp(7)})
	require.NoError(t, err)
	require.NotNil(t, o.DeliveryDate)
	require.Equal(t, "2024-03-15", o.DeliveryDate.Format(common.DateLayout))

	q, err = svc.Quote(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(2150), q.Charge.TotalAmount)
}

func TestQuoteUnresolvablePrice(t *testing.T) {
	svc := newService()
	svc.Prices = prices{ShopPrice: pricing.Price(40)}
	o, err := svc.Create(context.Background(), order.CreateInput{CustomerID: "o1", CanQty: 1})
	require.NoError(t, err)
	_, err = svc.Quote(context.Background(), o.ID)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestHandlers(t *testing.T) {
	h := &order.Handler{Svc: newService()}
	r := chi.NewRouter()
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Get("/orders/{id}/charge", h.Charge)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders",
		strings.NewReader(`{"customer_id":"o1","can_qty":10,"collected_qty":7,"delivery_amount":50,"order_date":"2024-03-01"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"order_date":"2024-03-01"`)
	require.Contains(t, rec.Body.String(), `"delivery_date":null`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ord-1/charge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_amount":2150`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

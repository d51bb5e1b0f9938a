package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
	"github.com/anishk6674/kanchan-chilled/internal/ledger"
)

type customers map[string]customer.Customer

func (c customers) Get(_ context.Context, id string) (customer.Customer, error) {
	cust, ok := c[id]
	if !ok {
		return customer.Customer{}, common.NotFound("customer", id)
	}
	return cust, nil
}

type paidMonths map[string]bool

func (p paidMonths) MonthPaid(_ context.Context, customerID string, month time.Time) (bool, error) {
	return p[customerID+"|"+month.Format(common.MonthLayout)], nil
}

func intp(v int) *int { return &v }

func newService(custs customers) (*ledger.Service, *ledger.MemStore) {
	store := ledger.NewMemStore()
	return &ledger.Service{Store: store, Customers: custs}, store
}

func upsert(t *testing.T, svc *ledger.Service, id, date string, delivered, collected int) ledger.Result {
	t.Helper()
	res, err := svc.Upsert(context.Background(), ledger.UpsertInput{
		CustomerID:   id,
		Date:         date,
		DeliveredQty: intp(delivered),
		CollectedQty: intp(collected),
	})
	require.NoError(t, err)
	return res
}

func TestUpsertSeedsFromBaseline(t *testing.T) {
	svc, _ := newService(customers{
		"m1": {ID: "m1", Type: customer.TypeMonthly, CanQty: 4},
		"o1": {ID: "o1", Type: customer.TypeOrder, CanQty: 4},
	})

	res := upsert(t, svc, "m1", "2024-03-01", 2, 1)
	require.Equal(t, 5, res.Entry.HoldingStatus)

	res = upsert(t, svc, "o1", "2024-03-01", 2, 1)
	require.Equal(t, 1, res.Entry.HoldingStatus)
}

func TestUpsertCarriesPreviousDay(t *testing.T) {
	svc, _ := newService(customers{"s1": {ID: "s1", Type: customer.TypeShop, CanQty: 0}})

	upsert(t, svc, "s1", "2024-03-01", 5, 0)
	res := upsert(t, svc, "s1", "2024-03-02", 2, 3)
	require.Equal(t, 4, res.Entry.HoldingStatus)

	// a gap reseeds from the baseline under the default policy
	res = upsert(t, svc, "s1", "2024-03-04", 1, 0)
	require.Equal(t, 1, res.Entry.HoldingStatus)
}

func TestUpsertCarryFromLatestBridgesGaps(t *testing.T) {
	svc, _ := newService(customers{"s1": {ID: "s1", Type: customer.TypeShop}})
	svc.Policy.CarryFromLatest = true

	upsert(t, svc, "s1", "2024-03-01", 5, 0)
	res := upsert(t, svc, "s1", "2024-03-04", 1, 2)
	require.Equal(t, 4, res.Entry.HoldingStatus)
}

func TestUpsertDoesNotCascade(t *testing.T) {
	svc, store := newService(customers{"s1": {ID: "s1", Type: customer.TypeShop}})

	upsert(t, svc, "s1", "2024-03-01", 5, 0)
	upsert(t, svc, "s1", "2024-03-02", 0, 0)
	upsert(t, svc, "s1", "2024-03-01", 9, 0)

	day2, err := store.Get(context.Background(), "s1", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 5, day2.HoldingStatus)
}

func TestReconcileFlagsStaleDaysAfterEdit(t *testing.T) {
	svc, _ := newService(customers{"s1": {ID: "s1", Type: customer.TypeShop}})

	upsert(t, svc, "s1", "2024-02-29", 2, 0)
	upsert(t, svc, "s1", "2024-03-01", 5, 0)
	upsert(t, svc, "s1", "2024-03-02", 0, 1)
	upsert(t, svc, "s1", "2024-03-01", 9, 0)

	rec, err := svc.Reconcile(context.Background(), "s1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, "2024-03", rec.Month)
	require.Len(t, rec.Days, 2)
	require.Equal(t, ledger.Balance{Date: "2024-03-01", Stored: 11, Derived: 11}, rec.Days[0])
	require.Equal(t, ledger.Balance{Date: "2024-03-02", Stored: 6, Derived: 10, Stale: true}, rec.Days[1])
	require.Equal(t, 1, rec.StaleDays)
	require.Equal(t, 10, rec.Closing)
}

func TestReconcileHandlerRequiresCustomer(t *testing.T) {
	svc, _ := newService(customers{})
	h := &ledger.Handler{Svc: svc}

	rec := httptest.NewRecorder()
	h.Reconcile(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/reconcile?month=2024-03", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertNegativeHoldingWarns(t *testing.T) {
	svc, _ := newService(customers{"o1": {ID: "o1", Type: customer.TypeOrder}})

	res := upsert(t, svc, "o1", "2024-03-01", 1, 3)
	require.Equal(t, -2, res.Entry.HoldingStatus)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "negative")
}

func TestUpsertValidation(t *testing.T) {
	svc, store := newService(customers{"o1": {ID: "o1", Type: customer.TypeOrder}})
	ctx := context.Background()

	_, err := svc.Upsert(ctx, ledger.UpsertInput{CustomerID: "o1", Date: "2024-03-01", DeliveredQty: intp(-1)})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Upsert(ctx, ledger.UpsertInput{CustomerID: "o1", Date: "2024-02-30"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Upsert(ctx, ledger.UpsertInput{Date: "2024-03-01"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Upsert(ctx, ledger.UpsertInput{CustomerID: "ghost", Date: "2024-03-01"})
	require.ErrorIs(t, err, common.ErrNotFound)

	require.Zero(t, store.Len())
}

func TestUpsertDefaultsAbsentQuantities(t *testing.T) {
	svc, _ := newService(customers{"m1": {ID: "m1", Type: customer.TypeMonthly, CanQty: 3}})
	res, err := svc.Upsert(context.Background(), ledger.UpsertInput{CustomerID: "m1", Date: "2024-03-01"})
	require.NoError(t, err)
	require.Equal(t, 0, res.Entry.DeliveredQty)
	require.Equal(t, 0, res.Entry.CollectedQty)
	require.Equal(t, 3, res.Entry.HoldingStatus)
}

func TestUpsertPaidMonthLocked(t *testing.T) {
	svc, store := newService(customers{"m1": {ID: "m1", Type: customer.TypeMonthly}})
	svc.Guard = paidMonths{"m1|2024-03": true}

	// lock disabled by default
	upsert(t, svc, "m1", "2024-03-05", 1, 0)

	svc.Policy.LockPaidMonths = true
	_, err := svc.Upsert(context.Background(), ledger.UpsertInput{CustomerID: "m1", Date: "2024-03-06", DeliveredQty: intp(1)})
	require.ErrorIs(t, err, common.ErrPeriodClosed)
	require.Equal(t, 1, store.Len())

	upsert(t, svc, "m1", "2024-04-01", 1, 0)
}

func TestReads(t *testing.T) {
	svc, _ := newService(customers{
		"a": {ID: "a", Type: customer.TypeShop},
		"b": {ID: "b", Type: customer.TypeShop},
	})
	upsert(t, svc, "a", "2024-03-02", 1, 0)
	upsert(t, svc, "a", "2024-03-01", 1, 0)
	upsert(t, svc, "b", "2024-03-01", 1, 0)
	upsert(t, svc, "a", "2024-04-01", 1, 0)
	ctx := context.Background()

	got, err := svc.Get(ctx, "a", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Nil(t, got)

	byDate, err := svc.EntriesForDate(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, byDate, 2)

	month, err := svc.EntriesForMonth(ctx, "a", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, month, 2)
	require.True(t, month[0].Date.Before(month[1].Date))

	_, err = svc.EntriesForCustomerInRange(ctx, "a", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestHandlerUpsertAndQuery(t *testing.T) {
	svc, _ := newService(customers{"m1": {ID: "m1", Type: customer.TypeMonthly, CanQty: 2}})
	h := &ledger.Handler{Svc: svc}

	rec := httptest.NewRecorder()
	h.Upsert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ledger",
		strings.NewReader(`{"customer_id":"m1","date":"2024-03-01","delivered_qty":2,"collected_qty":1}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Date          string `json:"date"`
			HoldingStatus int    `json:"holding_status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-03-01", body.Data.Date)
	require.Equal(t, 3, body.Data.HoldingStatus)

	rec = httptest.NewRecorder()
	h.Upsert(rec, httptest.NewRequest(http.MethodPost, "/api/v1/ledger",
		strings.NewReader(`{"customer_id":"m1","date":"2024-03-02","delivered_qty":1.5}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger?customer_id=m1&month=2024-03", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"holding_status":3`)

	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger?customer_id=m1&date=2024-03-05", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":null}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("holding carries forward across consecutive days", prop.ForAll(
		func(baseline int, delivered, collected []int) bool {
			svc, store := newService(customers{"c": {ID: "c", Type: customer.TypeMonthly, CanQty: baseline}})
			n := len(delivered)
			if len(collected) < n {
				n = len(collected)
			}
			for i := 0; i < n; i++ {
				_, err := svc.Upsert(context.Background(), ledger.UpsertInput{
					CustomerID:   "c",
					Date:         start.AddDate(0, 0, i).Format(common.DateLayout),
					DeliveredQty: intp(delivered[i]),
					CollectedQty: intp(collected[i]),
				})
				if err != nil {
					return false
				}
			}
			prev := baseline
			for i := 0; i < n; i++ {
				e, err := store.Get(context.Background(), "c", start.AddDate(0, 0, i))
				if err != nil || e.HoldingStatus != prev+delivered[i]-collected[i] {
					return false
				}
				prev = e.HoldingStatus
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(0, 10)),
		gen.SliceOf(gen.IntRange(0, 10)),
	))

	properties.Property("non-recurring customers seed from zero", prop.ForAll(
		func(canQty, delivered, collected int) bool {
			svc, _ := newService(customers{"c": {ID: "c", Type: customer.TypeOrder, CanQty: canQty}})
			res, err := svc.Upsert(context.Background(), ledger.UpsertInput{
				CustomerID: "c", Date: "2024-05-10", DeliveredQty: intp(delivered), CollectedQty: intp(collected),
			})
			return err == nil && res.Entry.HoldingStatus == delivered-collected
		},
		gen.IntRange(0, 50),
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.Property("repeating an upsert leaves one identical row", prop.ForAll(
		func(delivered, collected int) bool {
			svc, store := newService(customers{"c": {ID: "c", Type: customer.TypeShop, CanQty: 5}})
			in := ledger.UpsertInput{CustomerID: "c", Date: "2024-05-10", DeliveredQty: intp(delivered), CollectedQty: intp(collected)}
			first, err1 := svc.Upsert(context.Background(), in)
			second, err2 := svc.Upsert(context.Background(), in)
			return err1 == nil && err2 == nil && store.Len() == 1 &&
				first.Entry.HoldingStatus == second.Entry.HoldingStatus &&
				first.Entry.DeliveredQty == second.Entry.DeliveredQty
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

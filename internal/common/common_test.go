package common_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

func TestAppErrorMatchesSentinels(t *testing.T) {
	require.ErrorIs(t, common.Validation("qty", "must be positive"), common.ErrValidation)
	require.ErrorIs(t, common.NotFound("customer", "c-1"), common.ErrNotFound)
	require.ErrorIs(t, common.Upstream(errors.New("dial tcp")), common.ErrUpstreamUnavailable)
	require.NotErrorIs(t, common.NotFound("customer", "c-1"), common.ErrValidation)
}

func TestWriteErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, common.Upstream(errors.New("db down")))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "5", rec.Header().Get("Retry-After"))
	require.Contains(t, rec.Body.String(), common.CodeUpstream)

	rec = httptest.NewRecorder()
	common.WriteError(rec, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	type payload struct {
		CustomerID string `json:"customer_id" validate:"required"`
		Qty        int    `json:"delivered_qty" validate:"gte=0"`
	}
	err := common.ValidateStruct(payload{Qty: -1})
	require.ErrorIs(t, err, common.ErrValidation)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	fields := appErr.Details.(common.FieldErrors)
	require.Contains(t, fields, "customer_id")
	require.Contains(t, fields, "delivered_qty")
}

func TestMonthRange(t *testing.T) {
	m, err := common.ParseMonth("month", "2024-02")
	require.NoError(t, err)
	start, end := common.MonthRange(m)
	require.Equal(t, "2024-02-01", start.Format(common.DateLayout))
	require.Equal(t, "2024-02-29", end.Format(common.DateLayout))

	_, err = common.ParseDate("date", "2024-13-01")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		common.JSON(w, http.StatusCreated, map[string]int{"call": calls})
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.JSONEq(t, `{"call":1}`, rec.Body.String())
	}
	require.Equal(t, 1, calls)
}

func TestIdempotencyForgetsPanickedRequest(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	idem := common.Idem{R: client, TTL: time.Minute}
	handler := middleware.Recoverer(idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		common.JSON(w, http.StatusCreated, map[string]int{"call": calls})
	})))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bills", nil)
		req.Header.Set("Idempotency-Key", "retry-me")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusInternalServerError, send().Code)
	require.Empty(t, mr.Keys())

	rec := send()
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"call":2}`, rec.Body.String())
	require.Empty(t, rec.Header().Get("Idempotent-Replay"))
	require.Equal(t, 2, calls)
}

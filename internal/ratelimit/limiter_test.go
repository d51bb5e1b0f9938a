package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSlidingWindow(t *testing.T) {
	limiter := Sliding{Client: newRedis(t), Prefix: "test:"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", 2*time.Second, 2)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 2-(i+1), remaining)
	}
	allowed, remaining, _, err := limiter.Allow(ctx, "key", 2*time.Second, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
}

func TestFixedMemory(t *testing.T) {
	limiter := NewFixedMemory()
	ctx := context.Background()

	allowed, remaining, reset, err := limiter.Allow(ctx, "key", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)
	require.True(t, reset.After(time.Now()))

	allowed, _, _, err = limiter.Allow(ctx, "key", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	for name, allower := range map[string]Allower{
		"sliding": Sliding{Client: newRedis(t), Prefix: "ratelimit:"},
		"fixed":   NewFixedMemory(),
	} {
		t.Run(name, func(t *testing.T) {
			handler := Handler{
				Limiter: allower,
				Config:  Config{Key: ByClientIP("api"), Window: time.Minute, Max: 1},
			}
			counted := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger", nil)
			rr1 := httptest.NewRecorder()
			counted.ServeHTTP(rr1, req.Clone(req.Context()))
			require.Equal(t, http.StatusOK, rr1.Code)
			require.Equal(t, "1", rr1.Header().Get("X-RateLimit-Limit"))

			rr2 := httptest.NewRecorder()
			counted.ServeHTTP(rr2, req.Clone(req.Context()))
			require.Equal(t, http.StatusTooManyRequests, rr2.Code)
			require.NotEmpty(t, rr2.Header().Get("Retry-After"))
			require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
		})
	}
}

type failing struct{}

func (failing) Allow(context.Context, string, time.Duration, int) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, context.DeadlineExceeded
}

func TestMiddlewareFailsOpen(t *testing.T) {
	var seen error
	handler := Handler{Limiter: failing{}, Config: Config{Key: ByClientIP("api"), Window: time.Minute, Max: 1}, OnError: func(err error) { seen = err }}
	rr := httptest.NewRecorder()
	handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.ErrorIs(t, seen, context.DeadlineExceeded)
}

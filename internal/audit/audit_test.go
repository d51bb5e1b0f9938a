package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/anishk6674/kanchan-chilled/internal/obs"
)

type stubStore struct {
	inserted []Log
	filter   Filter
}

func (s *stubStore) Insert(_ context.Context, l Log) error {
	s.inserted = append(s.inserted, l)
	return nil
}

func (s *stubStore) List(_ context.Context, f Filter) ([]Log, error) {
	s.filter = f
	return []Log{{ID: 1, Action: "bill.status", Method: http.MethodPatch}}, nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}

	req := httptest.NewRequest(http.MethodPost, "https://api.test/api/v1/prices?source=import", nil)
	req.Header.Set("User-Agent", "tester")
	req.Header.Set("X-Request-ID", "req-123")
	req.RemoteAddr = "10.0.0.2:54321"
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/api/v1/prices"))

	require.NoError(t, svc.Record(req.Context(), "", "", "", "", req, http.StatusCreated, nil))
	require.Len(t, store.inserted, 1)
	got := store.inserted[0]
	require.Equal(t, ActorKindAPI, got.ActorKind)
	require.Equal(t, "POST /api/v1/prices", got.Action)
	require.Equal(t, "prices", got.ResourceType)
	require.Nil(t, got.ResourceID)
	require.Equal(t, http.StatusCreated, got.Status)
	require.Equal(t, "10.0.0.2", *got.IP)
	require.Equal(t, "req-123", *got.RequestID)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(got.Metadata, &meta))
	require.Equal(t, "source=import", meta["query"])
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, svc.Record(req.Context(), ActorKindAPI, "", "", "", req, http.StatusOK, nil))
	require.Empty(t, store.inserted)
}

func TestMiddlewareRecordsBillStatusChange(t *testing.T) {
	store := &stubStore{}
	rec := HTTPRecorder{Service: &Service{Store: store, Enabled: true}}

	r := chi.NewRouter()
	r.With(rec.Middleware(HTTPConfig{
		Action:           "bill.status",
		ResourceType:     "bill",
		ResourceIDParams: []string{"customerID", "month"},
		MetadataFunc: func(*http.Request, int) map[string]any {
			return map[string]any{"paid_status": true}
		},
	})).Patch("/api/v1/bills/{customerID}/{month}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/api/v1/bills/c-1/2024-03", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, store.inserted, 1)
	got := store.inserted[0]
	require.Equal(t, "bill.status", got.Action)
	require.Equal(t, "c-1/2024-03", *got.ResourceID)
	require.JSONEq(t, `{"paid_status":true}`, string(got.Metadata))
}

func TestHandlerList(t *testing.T) {
	store := &stubStore{}
	h := Handler{Store: store}
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs?limit=25&offset=10&resource_type=bill", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, Filter{ResourceType: "bill", Limit: 25, Offset: 10}, store.filter)

	var payload struct {
		Data []Log `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
}

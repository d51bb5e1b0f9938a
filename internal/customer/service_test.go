package customer_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/anishk6674/kanchan-chilled/internal/common"
	"github.com/anishk6674/kanchan-chilled/internal/customer"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]customer.Customer
}

func newMemStore(seed ...customer.Customer) *memStore {
	s := &memStore{rows: map[string]customer.Customer{}}
	for _, c := range seed {
		s.rows[c.ID] = c
	}
	return s
}

func (s *memStore) Get(_ context.Context, id string) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return customer.Customer{}, customer.ErrNoCustomer
	}
	return c, nil
}

func (s *memStore) List(_ context.Context, f customer.Filter) ([]customer.Customer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]customer.Customer, 0, len(s.rows))
	for _, c := range s.rows {
		if f.Type == "" || c.Type == f.Type {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (s *memStore) Insert(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.rows[c.ID] = c
	return c, nil
}

func (s *memStore) Update(_ context.Context, c customer.Customer) (customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[c.ID]; !ok {
		return customer.Customer{}, customer.ErrNoCustomer
	}
	s.rows[c.ID] = c
	return c, nil
}

func TestBaseline(t *testing.T) {
	require.Equal(t, 4, customer.Customer{Type: customer.TypeMonthly, CanQty: 4}.Baseline())
	require.Equal(t, 2, customer.Customer{Type: customer.TypeShop, CanQty: 2}.Baseline())
	require.Equal(t, 0, customer.Customer{Type: customer.TypeOrder, CanQty: 9}.Baseline())
}

func TestCreateValidatesType(t *testing.T) {
	svc := &customer.Service{Store: newMemStore(), NewID: func() string { return "c-1" }}
	_, err := svc.Create(context.Background(), customer.Input{Name: "Ravi", Type: "weekly"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Create(context.Background(), customer.Input{Name: "Ravi", Type: "monthly", CanQty: -1})
	require.ErrorIs(t, err, common.ErrValidation)

	c, err := svc.Create(context.Background(), customer.Input{Name: "  Ravi ", Type: "Monthly", CanQty: 3})
	require.NoError(t, err)
	require.Equal(t, "c-1", c.ID)
	require.Equal(t, "Ravi", c.Name)
	require.Equal(t, customer.TypeMonthly, c.Type)
}

func TestGetUnknownIsNotFound(t *testing.T) {
	svc := &customer.Service{Store: newMemStore()}
	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.Update(context.Background(), "missing", customer.Input{Name: "x", Type: customer.TypeShop})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestHandlerCreateAndGet(t *testing.T) {
	svc := &customer.Service{Store: newMemStore(), NewID: func() string { return "c-9" }}
	h := &customer.Handler{Svc: svc}
	r := chi.NewRouter()
	r.Post("/customers", h.Create)
	r.Get("/customers/{id}", h.Get)
	r.Get("/customers", h.List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"name":"Sharma Store","customer_type":"shop","can_qty":5}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/c-9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"customer_type":"shop"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers?type=shop", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_items":1`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{"name":"x","bogus":1}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

package billing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type billKey struct {
	customerID string
	month      time.Time
}

// MemStore is an in-memory Store used by tests and local tooling.
type MemStore struct {
	mu    sync.Mutex
	bills map[billKey]Bill
	// FailFor makes Upsert fail for the listed customers.
	FailFor map[string]error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{bills: map[billKey]Bill{}}
}

func (m *MemStore) Get(_ context.Context, customerID string, month time.Time) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[billKey{customerID, month}]
	if !ok {
		return Bill{}, ErrNoBill
	}
	return b, nil
}

func (m *MemStore) ListForMonth(_ context.Context, month time.Time) ([]Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Bill{}
	for k, b := range m.bills {
		if k.month.Equal(month) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

func (m *MemStore) Upsert(_ context.Context, b Bill, paid, sent *bool) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailFor[b.CustomerID]; err != nil {
		return Bill{}, err
	}
	k := billKey{b.CustomerID, b.Month}
	now := time.Now().UTC()
	existing, ok := m.bills[k]
	if ok {
		b.PaidStatus, b.SentStatus, b.CreatedAt = existing.PaidStatus, existing.SentStatus, existing.CreatedAt
	} else {
		b.CreatedAt = now
	}
	if paid != nil {
		b.PaidStatus = *paid
	}
	if sent != nil {
		b.SentStatus = *sent
	}
	b.UpdatedAt = now
	m.bills[k] = b
	return b, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, customerID string, month time.Time, paid, sent *bool) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := billKey{customerID, month}
	b, ok := m.bills[k]
	if !ok {
		return Bill{}, ErrNoBill
	}
	if paid != nil {
		b.PaidStatus = *paid
	}
	if sent != nil {
		b.SentStatus = *sent
	}
	b.UpdatedAt = time.Now().UTC()
	m.bills[k] = b
	return b, nil
}

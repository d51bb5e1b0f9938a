package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by tests and local tooling.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]map[time.Time]Entry
	// Err, when set, is returned by every call.
	Err error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: map[string]map[time.Time]Entry{}}
}

func (m *MemStore) Get(_ context.Context, customerID string, date time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Entry{}, m.Err
	}
	e, ok := m.entries[customerID][date]
	if !ok {
		return Entry{}, ErrNoEntry
	}
	return e, nil
}

func (m *MemStore) LatestBefore(_ context.Context, customerID string, date time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Entry{}, m.Err
	}
	var (
		best  Entry
		found bool
	)
	for d, e := range m.entries[customerID] {
		if d.Before(date) && (!found || d.After(best.Date)) {
			best, found = e, true
		}
	}
	if !found {
		return Entry{}, ErrNoEntry
	}
	return best, nil
}

func (m *MemStore) ListForDate(_ context.Context, date time.Time) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []Entry{}
	for _, byDate := range m.entries {
		if e, ok := byDate[date]; ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

func (m *MemStore) ListForCustomer(_ context.Context, customerID string, start, end time.Time) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []Entry{}
	for d, e := range m.entries[customerID] {
		if !d.Before(start) && !d.After(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemStore) Upsert(_ context.Context, e Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Entry{}, m.Err
	}
	if m.entries[e.CustomerID] == nil {
		m.entries[e.CustomerID] = map[time.Time]Entry{}
	}
	e.UpdatedAt = time.Now().UTC()
	m.entries[e.CustomerID][e.Date] = e
	return e, nil
}

// Len returns the number of stored entries.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, byDate := range m.entries {
		n += len(byDate)
	}
	return n
}

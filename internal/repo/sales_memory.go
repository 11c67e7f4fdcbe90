package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/sales-backoffice/internal/sale"
)

// MemorySales is an in-memory sale store for tests and local development.
// All methods are safe for concurrent use; aggregates are deep-copied on the
// way in and out so callers can never alias stored state.
type MemorySales struct {
	mu    sync.RWMutex
	sales map[uuid.UUID]sale.Sale
}

// NewMemorySales constructs an empty in-memory store.
func NewMemorySales() *MemorySales {
	return &MemorySales{sales: make(map[uuid.UUID]sale.Sale)}
}

// Save stores a deep copy of the aggregate keyed by its identifier.
func (m *MemorySales) Save(_ context.Context, s sale.Sale) (sale.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales[s.ID] = s.Clone()
	return s, nil
}

// FindByID returns a deep copy of the stored aggregate.
func (m *MemorySales) FindByID(_ context.Context, id uuid.UUID) (sale.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sales[id]
	if !ok {
		return sale.Sale{}, sale.ErrNotFound
	}
	return s.Clone(), nil
}

// List returns sales ordered by creation time, newest first.
func (m *MemorySales) List(_ context.Context, p sale.ListParams) ([]sale.Sale, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]sale.Sale, 0, len(m.sales))
	for _, s := range m.sales {
		all = append(all, s.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() < all[j].ID.String()
	})
	total := int64(len(all))
	offset := p.Offset()
	if offset >= len(all) {
		return []sale.Sale{}, total, nil
	}
	end := offset + p.PerPage
	if p.PerPage <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// Delete removes a sale by identifier.
func (m *MemorySales) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sales[id]; !ok {
		return sale.ErrNotFound
	}
	delete(m.sales, id)
	return nil
}

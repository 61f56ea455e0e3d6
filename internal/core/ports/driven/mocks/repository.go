// Package mocks provides in-memory test doubles for the driven ports,
// following the teacher's sync.RWMutex-guarded-map mock style.
package mocks

import (
	"context"
	"sync"

	"github.com/abrsearch/core/internal/core/domain"
)

// MockRepository is a minimal in-memory driven.Repository double
// sufficient for service-level tests that don't exercise SQL.
type MockRepository struct {
	mu         sync.RWMutex
	byABN      map[string]*domain.Business
	namesByBiz map[int64][]domain.BusinessName
	nextID     int64

	SearchNativeFn    func(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
	SearchOptimizedFn func(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
	FindWithFiltersFn func(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error)
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		byABN:      make(map[string]*domain.Business),
		namesByBiz: make(map[int64][]domain.BusinessName),
	}
}

func (m *MockRepository) BulkUpsert(ctx context.Context, rows []domain.Business) (int, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted, updated := 0, 0
	for _, row := range rows {
		if existing, ok := m.byABN[row.ABN]; ok {
			row.ID = existing.ID
			updated++
		} else {
			m.nextID++
			row.ID = m.nextID
			inserted++
		}
		r := row
		m.byABN[row.ABN] = &r
	}
	return len(rows), inserted, updated, nil
}

func (m *MockRepository) BulkInsertNames(ctx context.Context, names []domain.BusinessName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		m.namesByBiz[n.BusinessID] = append(m.namesByBiz[n.BusinessID], n)
	}
	return nil
}

func (m *MockRepository) DeleteNamesByBusinessIDs(ctx context.Context, businessIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range businessIDs {
		delete(m.namesByBiz, id)
	}
	return nil
}

func (m *MockRepository) GetIDsByABNs(ctx context.Context, abns []string) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64)
	for _, abn := range abns {
		if b, ok := m.byABN[abn]; ok {
			out[abn] = b.ID
		}
	}
	return out, nil
}

func (m *MockRepository) FindByABN(ctx context.Context, abn string) (*domain.Business, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byABN[abn]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	copyB := *b
	copyB.BusinessNames = m.namesByBiz[b.ID]
	return &copyB, 0, nil
}

func (m *MockRepository) SearchNative(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if m.SearchNativeFn != nil {
		return m.SearchNativeFn(ctx, q)
	}
	return domain.SearchResult{}, nil
}

func (m *MockRepository) SearchOptimized(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if m.SearchOptimizedFn != nil {
		return m.SearchOptimizedFn(ctx, q)
	}
	return domain.SearchResult{}, nil
}

func (m *MockRepository) FindWithFilters(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	if m.FindWithFiltersFn != nil {
		return m.FindWithFiltersFn(ctx, q)
	}
	return domain.SearchResult{}, nil
}

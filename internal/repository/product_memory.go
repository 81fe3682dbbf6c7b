package repository

import (
	"context"
	"sync"

	"shelflife/internal/domain"
)

// MemoryProductRepository is a mutex-guarded in-memory backend used for unit
// tests and infrastructure-free local development.
type MemoryProductRepository struct {
	mu    sync.RWMutex
	store map[string]*domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{store: make(map[string]*domain.Product)}
}

func (m *MemoryProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *product
	m.store[product.ID] = &clone
	return nil
}

func (m *MemoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[product.ID]
	if !ok || existing.UserID != product.UserID {
		return ErrProductNotFound
	}
	clone := *product
	// createdAt is immutable once assigned.
	clone.CreatedAt = existing.CreatedAt
	m.store[product.ID] = &clone
	return nil
}

func (m *MemoryProductRepository) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[id]
	if !ok || existing.UserID != ownerID {
		return ErrProductNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryProductRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	existing, ok := m.store[id]
	if !ok || existing.UserID != ownerID {
		return nil, ErrProductNotFound
	}
	clone := *existing
	return &clone, nil
}

func (m *MemoryProductRepository) List(ctx context.Context, ownerID string) ([]*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*domain.Product{}
	for _, p := range m.store {
		if p.UserID != ownerID {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

package catalog

import (
	"context"
	"sync"

	"github.com/fireclub/vsearch/internal/domain/product"
)

// Memory is an in-process Catalog fake for tests: a plain guarded map, no
// network round trip. Active=false or absent records both resolve to
// (nil, nil), matching RedisCatalog's contract.
type Memory struct {
	mu       sync.RWMutex
	products map[int64]*product.Product
}

// NewMemory returns an empty Memory catalog.
func NewMemory() *Memory {
	return &Memory{products: make(map[int64]*product.Product)}
}

func (m *Memory) Get(_ context.Context, id int64) (*product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok || !p.Active {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Put inserts or replaces the record for p.ID.
func (m *Memory) Put(p *product.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
}

// Remove deletes the record for id (as opposed to marking it inactive).
func (m *Memory) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

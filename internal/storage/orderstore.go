package storage

import (
	"context"
	"sync"
)

// OrderStore persists dispatch outcomes onto the durable order rows owned
// by the CRUD side of the system. The engine only assigns the winning
// provider and stamps the final status.
type OrderStore interface {
	AssignProvider(ctx context.Context, orderID, providerUserID string) error
	SetStatus(ctx context.Context, orderID, status string) error
}

type MemoryStore struct {
	mu        sync.RWMutex
	providers map[string]string
	statuses  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{providers: make(map[string]string), statuses: make(map[string]string)}
}

func (m *MemoryStore) AssignProvider(ctx context.Context, orderID, providerUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[orderID] = providerUserID
	return nil
}

func (m *MemoryStore) SetStatus(ctx context.Context, orderID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[orderID] = status
	return nil
}

func (m *MemoryStore) ProviderFor(orderID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[orderID]
	return p, ok
}

func (m *MemoryStore) StatusOf(orderID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[orderID]
	return s, ok
}

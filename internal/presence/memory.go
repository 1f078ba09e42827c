package presence

import (
	"context"
	"sync"

	"github.com/example/wash-dispatch/internal/models"
)

// MemoryStore is a pure in-memory Store used by tests and by local runs
// without Redis.
type MemoryStore struct {
	mu        sync.Mutex
	providers map[string]models.ProviderPresence
	orders    map[string]models.ActiveOrder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		providers: make(map[string]models.ProviderPresence),
		orders:    make(map[string]models.ActiveOrder),
	}
}

func (s *MemoryStore) AddProvider(ctx context.Context, p models.ProviderPresence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.UserID] = p
	return nil
}

func (s *MemoryStore) GetProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findProvider(field, value), nil
}

func (s *MemoryStore) UpdateProviderBy(ctx context.Context, field, value string, patch func(*models.ProviderPresence)) (*models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProvider(field, value)
	if p == nil {
		return nil, nil
	}
	patch(p)
	s.providers[p.UserID] = *p
	return p, nil
}

func (s *MemoryStore) RemoveProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findProvider(field, value)
	if p == nil {
		return nil, nil
	}
	delete(s.providers, p.UserID)
	return p, nil
}

func (s *MemoryStore) Providers(ctx context.Context) ([]models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ProviderPresence, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) AddOrder(ctx context.Context, o models.ActiveOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderID] = o
	return nil
}

func (s *MemoryStore) GetOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findOrder(field, value), nil
}

func (s *MemoryStore) UpdateOrderBy(ctx context.Context, field, value string, patch func(*models.ActiveOrder)) (*models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(field, value)
	if o == nil {
		return nil, nil
	}
	patch(o)
	s.orders[o.OrderID] = *o
	return o, nil
}

func (s *MemoryStore) RemoveOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(field, value)
	if o == nil {
		return nil, nil
	}
	delete(s.orders, o.OrderID)
	return o, nil
}

func (s *MemoryStore) Orders(ctx context.Context) ([]models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ActiveOrder, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (s *MemoryStore) findProvider(field, value string) *models.ProviderPresence {
	if field == ProviderByUserID {
		if p, ok := s.providers[value]; ok {
			cp := p
			return &cp
		}
		return nil
	}
	for _, p := range s.providers {
		if providerField(p, field) == value {
			cp := p
			return &cp
		}
	}
	return nil
}

func (s *MemoryStore) findOrder(field, value string) *models.ActiveOrder {
	if field == OrderByID {
		if o, ok := s.orders[value]; ok {
			cp := o
			return &cp
		}
		return nil
	}
	for _, o := range s.orders {
		if orderField(o, field) == value {
			cp := o
			return &cp
		}
	}
	return nil
}

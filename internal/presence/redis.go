package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/example/wash-dispatch/internal/models"
)

const (
	providersKey = "presence:providers"
	ordersKey    = "presence:orders"
)

// RedisStore keeps both collections as Redis hashes, one JSON record per
// field, keyed by the record's primary id. Non-primary lookups scan the
// hash. A process-local mirror is refreshed after every mutation so legacy
// callers can read it cheaply; guard checks must go through the store.
type RedisStore struct {
	client *redis.Client

	mu     sync.Mutex // serializes read-modify-write per process
	mirror mirror
}

type mirror struct {
	mu        sync.RWMutex
	providers map[string]models.ProviderPresence
	orders    map[string]models.ActiveOrder
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		mirror: mirror{
			providers: make(map[string]models.ProviderPresence),
			orders:    make(map[string]models.ActiveOrder),
		},
	}
}

func NewRedisStoreFromAddr(addr, password string) *RedisStore {
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: addr, Password: password}))
}

func (s *RedisStore) AddProvider(ctx context.Context, p models.ProviderPresence) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, providersKey, p.UserID, b).Err(); err != nil {
		return fmt.Errorf("presence: add provider: %w", err)
	}
	s.refreshProviders(ctx)
	return nil
}

func (s *RedisStore) GetProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error) {
	if field == ProviderByUserID {
		raw, err := s.client.HGet(ctx, providersKey, value).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("presence: get provider: %w", err)
		}
		var p models.ProviderPresence
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	all, err := s.Providers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if providerField(all[i], field) == value {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *RedisStore) UpdateProviderBy(ctx context.Context, field, value string, patch func(*models.ProviderPresence)) (*models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.GetProviderBy(ctx, field, value)
	if err != nil || p == nil {
		return nil, err
	}
	patch(p)
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := s.client.HSet(ctx, providersKey, p.UserID, b).Err(); err != nil {
		return nil, fmt.Errorf("presence: update provider: %w", err)
	}
	s.refreshProviders(ctx)
	return p, nil
}

func (s *RedisStore) RemoveProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.GetProviderBy(ctx, field, value)
	if err != nil || p == nil {
		return nil, err
	}
	if err := s.client.HDel(ctx, providersKey, p.UserID).Err(); err != nil {
		return nil, fmt.Errorf("presence: remove provider: %w", err)
	}
	s.refreshProviders(ctx)
	return p, nil
}

func (s *RedisStore) Providers(ctx context.Context) ([]models.ProviderPresence, error) {
	raw, err := s.client.HGetAll(ctx, providersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: list providers: %w", err)
	}
	out := make([]models.ProviderPresence, 0, len(raw))
	for _, v := range raw {
		var p models.ProviderPresence
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *RedisStore) AddOrder(ctx context.Context, o models.ActiveOrder) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, ordersKey, o.OrderID, b).Err(); err != nil {
		return fmt.Errorf("presence: add order: %w", err)
	}
	s.refreshOrders(ctx)
	return nil
}

func (s *RedisStore) GetOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error) {
	if field == OrderByID {
		raw, err := s.client.HGet(ctx, ordersKey, value).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("presence: get order: %w", err)
		}
		var o models.ActiveOrder
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, err
		}
		return &o, nil
	}
	all, err := s.Orders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if orderField(all[i], field) == value {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (s *RedisStore) UpdateOrderBy(ctx context.Context, field, value string, patch func(*models.ActiveOrder)) (*models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.GetOrderBy(ctx, field, value)
	if err != nil || o == nil {
		return nil, err
	}
	patch(o)
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	if err := s.client.HSet(ctx, ordersKey, o.OrderID, b).Err(); err != nil {
		return nil, fmt.Errorf("presence: update order: %w", err)
	}
	s.refreshOrders(ctx)
	return o, nil
}

func (s *RedisStore) RemoveOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.GetOrderBy(ctx, field, value)
	if err != nil || o == nil {
		return nil, err
	}
	if err := s.client.HDel(ctx, ordersKey, o.OrderID).Err(); err != nil {
		return nil, fmt.Errorf("presence: remove order: %w", err)
	}
	s.refreshOrders(ctx)
	return o, nil
}

func (s *RedisStore) Orders(ctx context.Context) ([]models.ActiveOrder, error) {
	raw, err := s.client.HGetAll(ctx, ordersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("presence: list orders: %w", err)
	}
	out := make([]models.ActiveOrder, 0, len(raw))
	for _, v := range raw {
		var o models.ActiveOrder
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// MirrorProviders returns the last refreshed local snapshot. Read-only,
// may be stale; never use it for correctness-critical checks.
func (s *RedisStore) MirrorProviders() []models.ProviderPresence {
	s.mirror.mu.RLock()
	defer s.mirror.mu.RUnlock()
	out := make([]models.ProviderPresence, 0, len(s.mirror.providers))
	for _, p := range s.mirror.providers {
		out = append(out, p)
	}
	return out
}

// MirrorOrders returns the last refreshed local snapshot of orders.
func (s *RedisStore) MirrorOrders() []models.ActiveOrder {
	s.mirror.mu.RLock()
	defer s.mirror.mu.RUnlock()
	out := make([]models.ActiveOrder, 0, len(s.mirror.orders))
	for _, o := range s.mirror.orders {
		out = append(out, o)
	}
	return out
}

func (s *RedisStore) refreshProviders(ctx context.Context) {
	all, err := s.Providers(ctx)
	if err != nil {
		return // mirror stays stale; it is only a cache
	}
	next := make(map[string]models.ProviderPresence, len(all))
	for _, p := range all {
		next[p.UserID] = p
	}
	s.mirror.mu.Lock()
	s.mirror.providers = next
	s.mirror.mu.Unlock()
}

func (s *RedisStore) refreshOrders(ctx context.Context) {
	all, err := s.Orders(ctx)
	if err != nil {
		return
	}
	next := make(map[string]models.ActiveOrder, len(all))
	for _, o := range all {
		next[o.OrderID] = o
	}
	s.mirror.mu.Lock()
	s.mirror.orders = next
	s.mirror.mu.Unlock()
}

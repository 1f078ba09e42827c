package presence

import (
	"context"

	"github.com/example/wash-dispatch/internal/models"
)

// Lookup fields for the providers collection.
const (
	ProviderByUserID     = "user_id"
	ProviderByProviderID = "provider_id"
	ProviderByUUID       = "uuid"
)

// Lookup fields for the orders collection.
const (
	OrderByID             = "order_id"
	OrderByCustomerUserID = "customer_user_id"
	OrderByProviderUUID   = "provider_uuid"
	OrderByProviderUserID = "provider_user_id"
)

// Store is the shared registry of online providers and in-flight orders.
// It is the single source of truth; any in-process mirror is a cache.
//
// Not-found is a normal outcome: Get/Update/Remove return (nil, nil) when
// no record matches. Each call is atomic for a single record; callers must
// not assume atomicity across calls.
type Store interface {
	AddProvider(ctx context.Context, p models.ProviderPresence) error
	GetProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error)
	UpdateProviderBy(ctx context.Context, field, value string, patch func(*models.ProviderPresence)) (*models.ProviderPresence, error)
	RemoveProviderBy(ctx context.Context, field, value string) (*models.ProviderPresence, error)
	Providers(ctx context.Context) ([]models.ProviderPresence, error)

	AddOrder(ctx context.Context, o models.ActiveOrder) error
	GetOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error)
	UpdateOrderBy(ctx context.Context, field, value string, patch func(*models.ActiveOrder)) (*models.ActiveOrder, error)
	RemoveOrderBy(ctx context.Context, field, value string) (*models.ActiveOrder, error)
	Orders(ctx context.Context) ([]models.ActiveOrder, error)
}

func providerField(p models.ProviderPresence, field string) string {
	switch field {
	case ProviderByUserID:
		return p.UserID
	case ProviderByProviderID:
		return p.ProviderID
	case ProviderByUUID:
		return p.UUID
	}
	return ""
}

func orderField(o models.ActiveOrder, field string) string {
	switch field {
	case OrderByID:
		return o.OrderID
	case OrderByCustomerUserID:
		return o.CustomerUserID
	case OrderByProviderUUID:
		return o.ProviderUUID
	case OrderByProviderUserID:
		return o.ProviderUserID
	}
	return ""
}

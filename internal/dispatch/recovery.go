package dispatch

import (
	"context"

	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/presence"
)

// UserType of a connecting socket, supplied by the transport after auth.
type UserType string

const (
	UserCustomer UserType = "customer"
	UserProvider UserType = "provider"
)

// RecoveryResult tells the gateway what the reconnecting user's state is.
// "Online with no order" and "no presence at all" are normal outcomes.
type RecoveryResult struct {
	FreshLogin  bool // provider with no presence record: treat as a new login
	TookOver    bool // provider presence was bound to another endpoint
	OldEndpoint string
	Order       *models.ActiveOrder
}

// RecoverSession rehydrates a user's in-flight state on (re)connect and
// rebinds transport endpoints in the presence store.
func (e *Engine) RecoverSession(ctx context.Context, userID string, ut UserType, endpointUUID string) (RecoveryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ut {
	case UserCustomer:
		return e.recoverCustomer(ctx, userID, endpointUUID)
	case UserProvider:
		return e.recoverProvider(ctx, userID, endpointUUID)
	}
	return RecoveryResult{}, nil
}

func (e *Engine) recoverCustomer(ctx context.Context, userID, endpointUUID string) (RecoveryResult, error) {
	o, err := e.store.UpdateOrderBy(ctx, presence.OrderByCustomerUserID, userID, func(cur *models.ActiveOrder) {
		cur.CustomerUUID = endpointUUID
	})
	if err != nil {
		return RecoveryResult{}, err
	}
	if o == nil {
		return RecoveryResult{}, nil
	}
	if c, ok := e.cascades[o.OrderID]; ok {
		c.req.CustomerUUID = endpointUUID
	}
	e.emit.Emit(endpointUUID, EvOutActiveSession, map[string]any{
		"role":     "customer",
		"order_id": o.OrderID,
		"step":     o.Step.String(),
		"timeout":  o.Timeout,
	})
	e.log.Info("customer session recovered", "user_id", userID, "order_id", o.OrderID)
	return RecoveryResult{Order: o}, nil
}

func (e *Engine) recoverProvider(ctx context.Context, userID, endpointUUID string) (RecoveryResult, error) {
	p, err := e.store.GetProviderBy(ctx, presence.ProviderByUserID, userID)
	if err != nil {
		return RecoveryResult{}, err
	}
	if p == nil {
		// genuinely fresh login: the client follows up with provider-online
		return RecoveryResult{FreshLogin: true}, nil
	}

	res := RecoveryResult{}
	if p.UUID != endpointUUID {
		// second-device takeover: kick the stale endpoint, rebind presence
		// and any in-flight order. The order itself is untouched otherwise.
		res.TookOver = true
		res.OldEndpoint = p.UUID
		e.emit.Emit(p.UUID, EvOutForceLogout, map[string]any{"user_id": userID})

		old := p.UUID
		if _, err := e.store.UpdateProviderBy(ctx, presence.ProviderByUserID, userID, func(cur *models.ProviderPresence) {
			cur.UUID = endpointUUID
		}); err != nil {
			return res, err
		}
		if _, err := e.store.UpdateOrderBy(ctx, presence.OrderByProviderUUID, old, func(cur *models.ActiveOrder) {
			cur.ProviderUUID = endpointUUID
		}); err != nil {
			return res, err
		}
		e.log.Info("provider endpoint rebound", "user_id", userID, "old", old, "new", endpointUUID)
	}

	o, err := e.store.GetOrderBy(ctx, presence.OrderByProviderUserID, userID)
	if err != nil {
		return res, err
	}
	if o != nil {
		res.Order = o
		e.emit.Emit(endpointUUID, EvOutActiveSession, map[string]any{
			"role":     "provider",
			"order_id": o.OrderID,
			"step":     o.Step.String(),
		})
	}
	return res, nil
}

package dispatch

import (
	"context"

	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/observability"
	"github.com/example/wash-dispatch/internal/presence"
)

// Accept handles provider-accept-order. On an auto-select order the
// winning provider becomes permanent and the search context is discarded.
func (e *Engine) Accept(ctx context.Context, providerUserID, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.ProviderUserID != providerUserID {
		return ErrNotYourOrder
	}

	next, fx, ok := transition(*o, Event{Type: EventAccept})
	if !ok {
		return ErrOrderNotFound
	}
	if o.SubmissionType == models.SubmissionAutoSelect {
		e.dropCascade(orderID)
	}
	e.apply(ctx, *o, next, fx)
	observability.OrdersAccepted.Inc()

	// notify the customer with the provider id and live location
	payload := map[string]any{"order_id": orderID, "provider_user_id": providerUserID}
	if p, err := e.store.GetProviderBy(ctx, presence.ProviderByUserID, providerUserID); err == nil && p != nil {
		payload["provider_loc"] = p.Loc
	}
	e.emit.Emit(o.CustomerUUID, EvOutOrderAccepted, payload)
	e.pushCustomer(ctx, *o, EvOutOrderAccepted)
	return nil
}

// Reject handles provider-reject-order. A rejected auto-select offer
// advances the cascade instead of terminating the search.
func (e *Engine) Reject(ctx context.Context, providerUserID, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.ProviderUserID != providerUserID {
		return ErrNotYourOrder
	}

	next, fx, ok := transition(*o, Event{Type: EventReject})
	if !ok {
		return ErrOrderNotFound
	}
	e.apply(ctx, *o, next, fx)
	observability.OrdersRejected.Inc()
	if fx.AdvanceCascade {
		e.advanceCascade(ctx, orderID)
	}
	return nil
}

// Arrived handles provider-arrived.
func (e *Engine) Arrived(ctx context.Context, providerUserID, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.ProviderUserID != providerUserID {
		return ErrNotYourOrder
	}
	next, fx, ok := transition(*o, Event{Type: EventArrive})
	if !ok {
		return ErrOrderNotFound
	}
	e.apply(ctx, *o, next, fx)
	return nil
}

// Finished handles provider-finished-order: capture the payment, release
// the provider and close out the active record.
func (e *Engine) Finished(ctx context.Context, providerUserID, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.ProviderUserID != providerUserID {
		return ErrNotYourOrder
	}
	next, fx, ok := transition(*o, Event{Type: EventFinish})
	if !ok {
		return ErrOrderNotFound
	}
	e.apply(ctx, *o, next, fx)
	if err := e.orders.SetStatus(ctx, orderID, "finished"); err != nil {
		e.log.Warn("order status persist failed", "order_id", orderID, "error", err)
	}
	observability.OrdersFinished.Inc()
	return nil
}

// CustomerCancel handles customer-cancel-order at any point before finish.
func (e *Engine) CustomerCancel(ctx context.Context, customerUserID, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrOrderNotFound
	}
	if o.CustomerUserID != customerUserID {
		return ErrNotYourOrder
	}
	next, fx, ok := transition(*o, Event{Type: EventCustomerCancel})
	if !ok {
		return ErrOrderNotFound
	}
	e.dropCascade(orderID)
	e.apply(ctx, *o, next, fx)
	if err := e.orders.SetStatus(ctx, orderID, "cancelled"); err != nil {
		e.log.Warn("order status persist failed", "order_id", orderID, "error", err)
	}
	return nil
}

// handleTimeout is the scheduled-job callback. The job id it captured at
// arm time must still be the order's current token; anything else means
// the order moved on and the firing is absorbed silently.
func (e *Engine) handleTimeout(orderID, jobID string) {
	ctx := context.Background()
	e.mu.Lock()
	defer e.mu.Unlock()

	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
	if err != nil {
		e.log.Error("timeout re-read failed", "order_id", orderID, "error", err)
		return
	}
	if o == nil {
		return // already resolved
	}
	next, fx, ok := transition(*o, Event{Type: EventTimeout, JobID: jobID})
	if !ok {
		return // stale job, superseded state
	}
	e.apply(ctx, *o, next, fx)
	observability.OrdersTimedOut.Inc()
	e.log.Info("order response timed out", "order_id", orderID, "provider", o.ProviderUserID)
	if fx.AdvanceCascade {
		e.advanceCascade(ctx, orderID)
	}
}

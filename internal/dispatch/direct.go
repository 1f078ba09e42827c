package dispatch

import (
	"context"
	"time"

	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/observability"
	"github.com/example/wash-dispatch/internal/presence"
)

// OrderRequest is a dispatch request from a customer. ProviderUserID is
// set for direct assignment; auto-select ignores it and uses Origin plus
// ModuleID to build the candidate list.
type OrderRequest struct {
	OrderID          string
	CustomerUserID   string
	CustomerUUID     string
	CustomerToken    string
	PaymentMethod    models.PaymentMethod
	AmountCents      int64
	ModuleID         string
	Origin           models.Coord
	TimeoutSec       int
	ArrivalThreshold float64
	MaxDistanceKm    float64
	ProviderUserID   string
}

func (r *OrderRequest) normalize(cfg Config) {
	if r.TimeoutSec <= 0 {
		r.TimeoutSec = cfg.DefaultTimeoutSec
	}
	if r.ArrivalThreshold <= 0 {
		r.ArrivalThreshold = cfg.ArrivalThresholdKm
	}
}

// DispatchDirect offers the order to the provider the customer picked.
// Fails fast, mutating nothing, when the provider is absent or committed
// elsewhere.
func (e *Engine) DispatchDirect(ctx context.Context, req OrderRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	req.normalize(e.cfg)

	p, err := e.store.GetProviderBy(ctx, presence.ProviderByUserID, req.ProviderUserID)
	if err != nil {
		return err
	}
	if p == nil || p.Status == models.ProviderOffline {
		e.emit.Emit(req.CustomerUUID, EvOutOrderTimeout, map[string]any{
			"order_id": req.OrderID, "reason": "provider_offline",
		})
		return ErrProviderOffline
	}
	if p.Status == models.ProviderHaveOrder {
		return ErrProviderBusy
	}
	if pending, err := e.store.GetOrderBy(ctx, presence.OrderByProviderUUID, p.UUID); err != nil {
		return err
	} else if pending != nil {
		return ErrProviderBusy
	}

	if err := e.supersedePendingOrder(ctx, req.CustomerUserID); err != nil {
		return err
	}

	handle, err := e.holdPayment(ctx, req)
	if err != nil {
		return err
	}
	return e.offer(ctx, req, *p, models.SubmissionDirect, handle)
}

// supersedePendingOrder enforces the one-pending-dispatch rule: a still
// unaccepted order is auto-cancelled before the new one is created; an
// order past acceptance blocks the new dispatch.
func (e *Engine) supersedePendingOrder(ctx context.Context, customerUserID string) error {
	existing, err := e.store.GetOrderBy(ctx, presence.OrderByCustomerUserID, customerUserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if existing.Step != models.StepNotAcceptedByProvider {
		return ErrCustomerBusy
	}

	e.sched.Cancel(existing.TimeoutJobID)
	if _, err := e.store.RemoveOrderBy(ctx, presence.OrderByID, existing.OrderID); err != nil {
		return err
	}
	if err := e.hist.Append(ctx, existing.OrderID, models.ReasonCancelled, "superseded by new dispatch"); err != nil {
		e.log.Warn("history append failed", "order_id", existing.OrderID, "error", err)
	}
	e.applyPayment(ctx, *existing, PaymentRelease)
	e.dropCascade(existing.OrderID)
	e.log.Info("pending order superseded", "order_id", existing.OrderID, "customer", customerUserID)
	return nil
}

func (e *Engine) holdPayment(ctx context.Context, req OrderRequest) (string, error) {
	if req.PaymentMethod == models.PaymentCash || req.AmountCents <= 0 {
		return "", nil
	}
	handle, err := e.pay.Hold(ctx, req.AmountCents, e.cfg.Currency, req.CustomerUserID)
	if err != nil {
		return "", err
	}
	return handle, nil
}

// offer creates the active-order record, notifies the provider and arms
// the response timer. Shared by direct dispatch and each cascade step.
func (e *Engine) offer(ctx context.Context, req OrderRequest, p models.ProviderPresence, sub models.SubmissionType, paymentHandle string) error {
	jobID := e.newID()
	deadline := e.now().Add(time.Duration(req.TimeoutSec) * time.Second)

	o := models.ActiveOrder{
		OrderID:        req.OrderID,
		Step:           models.StepNotAcceptedByProvider,
		CustomerUUID:   req.CustomerUUID,
		CustomerUserID: req.CustomerUserID,
		ProviderUUID:   p.UUID,
		ProviderUserID: p.UserID,
		CustomerToken:  req.CustomerToken,
		PaymentMethod:  req.PaymentMethod,
		PaymentHandle:  paymentHandle,
		SubmissionType: sub,
		Timeout: models.OrderTimeout{
			Seconds:    req.TimeoutSec,
			DeadlineMs: deadline.UnixMilli(),
		},
		ArrivalThreshold: req.ArrivalThreshold,
		TimeoutJobID:     jobID,
	}
	if err := e.store.AddOrder(ctx, o); err != nil {
		return err
	}

	e.emit.Emit(p.UUID, EvOutNewOrder, map[string]any{
		"order_id": o.OrderID,
		"origin":   req.Origin,
		"timeout":  o.Timeout,
	})
	if p.NotificationToken != "" {
		if err := e.notifier.Push(ctx, p.NotificationToken, "New order", "You have a new order request",
			map[string]string{"order_id": o.OrderID}); err != nil {
			e.log.Warn("provider push failed", "order_id", o.OrderID, "error", err)
		}
	}

	e.sched.Schedule(jobID, deadline, func() { e.handleTimeout(o.OrderID, jobID) })
	observability.OrdersDispatched.Inc()
	e.log.Info("order offered", "order_id", o.OrderID, "provider", p.UserID, "submission", string(sub))
	return nil
}

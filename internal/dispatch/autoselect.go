package dispatch

import (
	"context"

	"github.com/example/wash-dispatch/internal/geo"
	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/observability"
	"github.com/example/wash-dispatch/internal/presence"
)

// cascade is the ephemeral, in-process context of one auto-select search.
// It does not survive a restart; a client re-issues auto-select then.
type cascade struct {
	req        OrderRequest
	candidates []geo.Candidate
	index      int
	handle     string // payment hold carried across candidates
	jobID      string // current candidate's timer token
}

// DispatchAutoSelect runs the cascading nearest-first search: rank all
// online providers of the module by distance, offer to the nearest, and on
// rejection or timeout advance to the next one. MaxDistanceKm ranks only;
// it never excludes a candidate.
func (e *Engine) DispatchAutoSelect(ctx context.Context, req OrderRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	req.normalize(e.cfg)

	if err := e.supersedePendingOrder(ctx, req.CustomerUserID); err != nil {
		return err
	}

	providers, err := e.OnlineProviders(ctx, req.ModuleID)
	if err != nil {
		return err
	}
	// exclude providers with a pending offer from another customer
	free := providers[:0]
	for _, p := range providers {
		pending, err := e.store.GetOrderBy(ctx, presence.OrderByProviderUUID, p.UUID)
		if err != nil {
			return err
		}
		if pending == nil {
			free = append(free, p)
		}
	}

	candidates := geo.RankByDistance(req.Origin, free)
	if len(candidates) == 0 {
		if err := e.hist.Append(ctx, req.OrderID, models.ReasonNoProviders, ""); err != nil {
			e.log.Warn("history append failed", "order_id", req.OrderID, "error", err)
		}
		e.emit.Emit(req.CustomerUUID, EvOutAutoSelectFinish, map[string]any{
			"order_id": req.OrderID, "status": "no_providers",
		})
		return nil
	}

	handle, err := e.holdPayment(ctx, req)
	if err != nil {
		return err
	}

	c := &cascade{req: req, candidates: candidates, handle: handle}
	e.cascades[req.OrderID] = c
	if err := e.offerCandidate(ctx, c); err != nil {
		delete(e.cascades, req.OrderID)
		return err
	}
	return nil
}

// offerCandidate dispatches to the candidate at the current cursor. The
// cascade's jobID is refreshed so a stale timer for a previous candidate
// can never advance the cursor twice.
func (e *Engine) offerCandidate(ctx context.Context, c *cascade) error {
	cand := c.candidates[c.index]
	if err := e.offer(ctx, c.req, cand.Provider, models.SubmissionAutoSelect, c.handle); err != nil {
		return err
	}
	// offer armed a fresh timer; mirror its token on the cascade
	o, err := e.store.GetOrderBy(ctx, presence.OrderByID, c.req.OrderID)
	if err != nil {
		return err
	}
	if o != nil {
		c.jobID = o.TimeoutJobID
	}
	return nil
}

// advanceCascade moves the cursor after the current candidate rejected or
// timed out. The active-order record has already been removed.
func (e *Engine) advanceCascade(ctx context.Context, orderID string) {
	c, ok := e.cascades[orderID]
	if !ok {
		return
	}
	c.index++
	if c.index >= len(c.candidates) {
		delete(e.cascades, orderID)
		observability.CascadesExhausted.Inc()
		if c.handle != "" && c.req.PaymentMethod != models.PaymentCash {
			if err := e.pay.CancelHold(ctx, c.handle); err != nil {
				e.log.Error("hold release failed", "order_id", orderID, "error", err)
			}
		}
		e.emit.Emit(c.req.CustomerUUID, EvOutAutoSelectFinish, map[string]any{
			"order_id": orderID, "status": "exhausted",
		})
		e.log.Info("cascade exhausted", "order_id", orderID, "candidates", len(c.candidates))
		return
	}
	if err := e.offerCandidate(ctx, c); err != nil {
		e.log.Error("cascade redispatch failed", "order_id", orderID, "error", err)
		delete(e.cascades, orderID)
	}
}

// dropCascade discards a search context without advancing it. Used on
// acceptance and on order cancellation.
func (e *Engine) dropCascade(orderID string) {
	if c, ok := e.cascades[orderID]; ok {
		if c.jobID != "" {
			e.sched.Cancel(c.jobID)
		}
		delete(e.cascades, orderID)
	}
}

// cascadeFor exposes the live context to tests.
func (e *Engine) cascadeFor(orderID string) *cascade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cascades[orderID]
}

package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/wash-dispatch/internal/history"
	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/notify"
	"github.com/example/wash-dispatch/internal/observability"
	"github.com/example/wash-dispatch/internal/payments"
	"github.com/example/wash-dispatch/internal/presence"
	"github.com/example/wash-dispatch/internal/scheduler"
	"github.com/example/wash-dispatch/internal/storage"
)

// LocationPublisher forwards provider location updates to the ingest
// pipeline. Optional; nil disables publishing.
type LocationPublisher interface {
	PublishLocation(u models.LocationUpdate) error
}

// Config holds the engine's tunables.
type Config struct {
	DefaultTimeoutSec  int
	ArrivalThresholdKm float64
	Currency           string
}

// Engine owns the dispatch lifecycle: provider presence, direct and
// auto-select matching, order transitions, timeouts and session recovery.
//
// One mutex serializes transitions; within a transition the engine
// re-reads the presence store before mutating, and every armed timer
// carries a token checked again when it fires.
type Engine struct {
	mu sync.Mutex

	log       *slog.Logger
	store     presence.Store
	sched     scheduler.Scheduler
	hist      history.Appender
	pay       payments.Gateway
	notifier  notify.Notifier
	orders    storage.OrderStore
	emit      Emitter
	locations LocationPublisher
	cfg       Config

	cascades map[string]*cascade
	now      func() time.Time
	newID    func() string
}

func NewEngine(log *slog.Logger, store presence.Store, sched scheduler.Scheduler,
	hist history.Appender, pay payments.Gateway, notifier notify.Notifier,
	orders storage.OrderStore, emit Emitter, cfg Config) *Engine {
	if cfg.DefaultTimeoutSec <= 0 {
		cfg.DefaultTimeoutSec = 60
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Engine{
		log:      log,
		store:    store,
		sched:    sched,
		hist:     hist,
		pay:      pay,
		notifier: notifier,
		orders:   orders,
		emit:     emit,
		cfg:      cfg,
		cascades: make(map[string]*cascade),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// SetLocationPublisher wires the optional Kafka producer.
func (e *Engine) SetLocationPublisher(p LocationPublisher) { e.locations = p }

// ProviderOnline registers (or replaces) a provider's presence.
func (e *Engine) ProviderOnline(ctx context.Context, p models.ProviderPresence) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p.Status = models.ProviderOnline
	p.Updated = e.now()
	if err := e.store.AddProvider(ctx, p); err != nil {
		return err
	}
	observability.ProvidersOnline.Inc()
	e.log.Info("provider online", "user_id", p.UserID, "module_id", p.ModuleID)
	return nil
}

// ProviderOffline removes a provider's presence. Absent presence is a
// normal outcome.
func (e *Engine) ProviderOffline(ctx context.Context, userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	removed, err := e.store.RemoveProviderBy(ctx, presence.ProviderByUserID, userID)
	if err != nil {
		return err
	}
	if removed != nil {
		observability.ProvidersOnline.Dec()
		e.log.Info("provider offline", "user_id", userID)
	}
	return nil
}

// ProviderLocation updates a provider's position and forwards it to the
// ingest pipeline when one is configured.
func (e *Engine) ProviderLocation(ctx context.Context, userID string, loc models.Coord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.store.UpdateProviderBy(ctx, presence.ProviderByUserID, userID, func(p *models.ProviderPresence) {
		p.Loc = loc
		p.Updated = e.now()
	})
	if err != nil {
		return err
	}
	if e.locations != nil {
		if perr := e.locations.PublishLocation(models.LocationUpdate{UserID: userID, Loc: loc, At: e.now()}); perr != nil {
			e.log.Warn("location publish failed", "user_id", userID, "error", perr)
		}
	}
	return nil
}

// VerifyOrder reports the active order for an id, nil when none.
func (e *Engine) VerifyOrder(ctx context.Context, orderID string) (*models.ActiveOrder, error) {
	return e.store.GetOrderBy(ctx, presence.OrderByID, orderID)
}

// OnlineProviders lists online providers for a module, for the periodic
// online-users broadcast.
func (e *Engine) OnlineProviders(ctx context.Context, moduleID string) ([]models.ProviderPresence, error) {
	all, err := e.store.Providers(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.ModuleID == moduleID && p.Status == models.ProviderOnline {
			out = append(out, p)
		}
	}
	return out, nil
}

// apply executes a transition's effects in the required order: timers,
// store mutation, history, then payment and notification side effects.
func (e *Engine) apply(ctx context.Context, o models.ActiveOrder, next *models.ActiveOrder, fx Effects) {
	for _, job := range fx.CancelJobs {
		if job != "" {
			e.sched.Cancel(job)
		}
	}

	if fx.Remove {
		if _, err := e.store.RemoveOrderBy(ctx, presence.OrderByID, o.OrderID); err != nil {
			e.log.Error("order removal failed", "order_id", o.OrderID, "error", err)
		}
	} else if next != nil {
		if _, err := e.store.UpdateOrderBy(ctx, presence.OrderByID, o.OrderID, func(cur *models.ActiveOrder) {
			*cur = *next
		}); err != nil {
			e.log.Error("order update failed", "order_id", o.OrderID, "error", err)
		}
	}

	if fx.Reason != "" {
		if err := e.hist.Append(ctx, o.OrderID, fx.Reason, o.Step.String()); err != nil {
			e.log.Warn("history append failed", "order_id", o.OrderID, "reason", fx.Reason, "error", err)
		}
	}

	if fx.ProviderStatus != nil && o.ProviderUserID != "" {
		if _, err := e.store.UpdateProviderBy(ctx, presence.ProviderByUserID, o.ProviderUserID, func(p *models.ProviderPresence) {
			p.Status = *fx.ProviderStatus
			p.Updated = e.now()
		}); err != nil {
			e.log.Warn("provider status update failed", "user_id", o.ProviderUserID, "error", err)
		}
	}

	if fx.PersistProvider {
		if err := e.orders.AssignProvider(ctx, o.OrderID, o.ProviderUserID); err != nil {
			e.log.Warn("provider assignment persist failed", "order_id", o.OrderID, "error", err)
		}
	}

	e.applyPayment(ctx, o, fx.Payment)

	if fx.CustomerEvent != "" {
		e.emit.Emit(o.CustomerUUID, fx.CustomerEvent, orderPayload(o, next))
		e.pushCustomer(ctx, o, fx.CustomerEvent)
	}
	if fx.ProviderEvent != "" {
		e.emit.Emit(o.ProviderUUID, fx.ProviderEvent, orderPayload(o, next))
	}
}

func (e *Engine) applyPayment(ctx context.Context, o models.ActiveOrder, action PaymentAction) {
	if o.PaymentMethod == models.PaymentCash || o.PaymentHandle == "" {
		return
	}
	var err error
	switch action {
	case PaymentCapture:
		err = e.pay.Capture(ctx, o.PaymentHandle)
	case PaymentRelease:
		err = e.pay.CancelHold(ctx, o.PaymentHandle)
	default:
		return
	}
	if err != nil {
		e.log.Error("payment action failed", "order_id", o.OrderID, "handle", o.PaymentHandle, "error", err)
	}
}

func (e *Engine) pushCustomer(ctx context.Context, o models.ActiveOrder, event string) {
	if o.CustomerToken == "" {
		return
	}
	if err := e.notifier.Push(ctx, o.CustomerToken, "Order update", event,
		map[string]string{"order_id": o.OrderID, "event": event}); err != nil {
		e.log.Warn("push failed", "order_id", o.OrderID, "error", err)
	}
}

func orderPayload(o models.ActiveOrder, next *models.ActiveOrder) map[string]any {
	step := o.Step
	if next != nil {
		step = next.Step
	}
	return map[string]any{
		"order_id":         o.OrderID,
		"step":             step.String(),
		"provider_user_id": o.ProviderUserID,
		"timeout":          o.Timeout,
	}
}

package dispatch

import "github.com/example/wash-dispatch/internal/models"

// EventType is a lifecycle event applied to one active order.
type EventType int

const (
	EventAccept EventType = iota
	EventReject
	EventTimeout
	EventArrive
	EventFinish
	EventCustomerCancel
)

// Event carries the lifecycle event plus the token a deferred timeout job
// captured when it was armed.
type Event struct {
	Type  EventType
	JobID string
}

// PaymentAction is the payment side effect of a transition. Cash orders
// always resolve to PaymentNone when effects are executed.
type PaymentAction int

const (
	PaymentNone PaymentAction = iota
	PaymentCapture
	PaymentRelease
)

// Effects is everything a transition wants done, in execution order:
// cancel timers first, then the store mutation, then the durable history
// entry, then payment/notification side effects.
type Effects struct {
	CancelJobs      []string
	Remove          bool
	Reason          models.HistoryReason
	Payment         PaymentAction
	ProviderStatus  *models.ProviderStatus // applied to the order's provider
	PersistProvider bool                   // write winning provider to the durable order
	AdvanceCascade  bool                   // auto-select only: move to the next candidate
	CustomerEvent   string
	ProviderEvent   string
}

func statusPtr(s models.ProviderStatus) *models.ProviderStatus { return &s }

// transition is the pure state machine. It never touches I/O: given the
// current record and an event it returns the next record (nil = remove)
// and the effects to execute. ok=false means the event does not apply to
// the record's current state; callers absorb stale timer firings silently
// and report everything else as a conflict.
func transition(o models.ActiveOrder, ev Event) (next *models.ActiveOrder, fx Effects, ok bool) {
	auto := o.SubmissionType == models.SubmissionAutoSelect

	switch ev.Type {
	case EventAccept:
		if o.Step != models.StepNotAcceptedByProvider {
			return nil, Effects{}, false
		}
		n := o
		n.Step = models.StepInProgressNotArrived
		n.TimeoutJobID = ""
		// the customer event is emitted by the handler, enriched with the
		// provider's live location
		return &n, Effects{
			CancelJobs:      []string{o.TimeoutJobID},
			Reason:          models.ReasonAccepted,
			ProviderStatus:  statusPtr(models.ProviderHaveOrder),
			PersistProvider: true,
		}, true

	case EventReject:
		if o.Step != models.StepNotAcceptedByProvider {
			return nil, Effects{}, false
		}
		fx := Effects{
			CancelJobs: []string{o.TimeoutJobID},
			Remove:     true,
			Reason:     models.ReasonRejected,
		}
		if auto {
			fx.AdvanceCascade = true
		} else {
			fx.Payment = PaymentRelease
			fx.CustomerEvent = EvOutOrderRejected
		}
		return nil, fx, true

	case EventTimeout:
		// honored only while the firing job is still the current one
		if o.Step != models.StepNotAcceptedByProvider || ev.JobID != o.TimeoutJobID {
			return nil, Effects{}, false
		}
		fx := Effects{
			Remove: true,
			Reason: models.ReasonTimeout,
		}
		if auto {
			fx.AdvanceCascade = true
		} else {
			fx.Payment = PaymentRelease
			fx.CustomerEvent = EvOutOrderTimeout
		}
		return nil, fx, true

	case EventArrive:
		if o.Step != models.StepInProgressNotArrived {
			return nil, Effects{}, false
		}
		n := o
		n.Step = models.StepInProgressArrived
		return &n, Effects{
			Reason:        models.ReasonProviderArrived,
			CustomerEvent: EvOutProviderArrived,
		}, true

	case EventFinish:
		if o.Step < models.StepInProgressNotArrived {
			return nil, Effects{}, false
		}
		return nil, Effects{
			Remove:         true,
			Reason:         models.ReasonServiceFinished,
			Payment:        PaymentCapture,
			ProviderStatus: statusPtr(models.ProviderOnline),
			CustomerEvent:  EvOutOrderFinished,
			ProviderEvent:  EvOutOrderFinished,
		}, true

	case EventCustomerCancel:
		fx := Effects{
			CancelJobs: []string{o.TimeoutJobID},
			Remove:     true,
			Reason:     models.ReasonCustomerCancelled,
			Payment:    PaymentRelease,
		}
		if o.Step >= models.StepInProgressNotArrived {
			// the provider had committed; release them
			fx.ProviderStatus = statusPtr(models.ProviderOnline)
			fx.ProviderEvent = EvOutOrderCancelled
		}
		return nil, fx, true
	}
	return nil, Effects{}, false
}

package dispatch

import (
	"testing"

	"github.com/example/wash-dispatch/internal/models"
)

func pendingOrder(sub models.SubmissionType) models.ActiveOrder {
	return models.ActiveOrder{
		OrderID:        "o1",
		Step:           models.StepNotAcceptedByProvider,
		CustomerUserID: "c1",
		ProviderUserID: "p1",
		PaymentMethod:  models.PaymentCard,
		PaymentHandle:  "hold-1",
		SubmissionType: sub,
		TimeoutJobID:   "job-1",
	}
}

func TestTransitionAccept(t *testing.T) {
	next, fx, ok := transition(pendingOrder(models.SubmissionDirect), Event{Type: EventAccept})
	if !ok {
		t.Fatal("accept on pending order must apply")
	}
	if next == nil || next.Step != models.StepInProgressNotArrived {
		t.Fatalf("wrong next state: %+v", next)
	}
	if next.TimeoutJobID != "" {
		t.Fatal("token must be cleared on accept")
	}
	if len(fx.CancelJobs) != 1 || fx.CancelJobs[0] != "job-1" {
		t.Fatalf("pending timer must be cancelled: %v", fx.CancelJobs)
	}
	if fx.Reason != models.ReasonAccepted || !fx.PersistProvider {
		t.Fatalf("wrong effects: %+v", fx)
	}
	if fx.ProviderStatus == nil || *fx.ProviderStatus != models.ProviderHaveOrder {
		t.Fatal("provider must be marked have_order")
	}
}

func TestTransitionAcceptAfterAcceptDoesNotApply(t *testing.T) {
	o := pendingOrder(models.SubmissionDirect)
	o.Step = models.StepInProgressNotArrived
	if _, _, ok := transition(o, Event{Type: EventAccept}); ok {
		t.Fatal("double accept must not apply")
	}
}

func TestTransitionRejectDirectVsAuto(t *testing.T) {
	_, fx, ok := transition(pendingOrder(models.SubmissionDirect), Event{Type: EventReject})
	if !ok || !fx.Remove || fx.Reason != models.ReasonRejected {
		t.Fatalf("direct reject: %+v ok=%v", fx, ok)
	}
	if fx.Payment != PaymentRelease || fx.AdvanceCascade {
		t.Fatalf("direct reject releases the hold and does not cascade: %+v", fx)
	}

	_, fx, ok = transition(pendingOrder(models.SubmissionAutoSelect), Event{Type: EventReject})
	if !ok || !fx.AdvanceCascade || fx.Payment != PaymentNone {
		t.Fatalf("auto reject advances the cascade and keeps the hold: %+v", fx)
	}
}

func TestTransitionTimeoutTokenGuard(t *testing.T) {
	o := pendingOrder(models.SubmissionDirect)

	if _, _, ok := transition(o, Event{Type: EventTimeout, JobID: "stale-job"}); ok {
		t.Fatal("stale token must be absorbed")
	}
	_, fx, ok := transition(o, Event{Type: EventTimeout, JobID: "job-1"})
	if !ok || !fx.Remove || fx.Reason != models.ReasonTimeout {
		t.Fatalf("current token must apply: %+v ok=%v", fx, ok)
	}
}

func TestTransitionHappyPathOrdinals(t *testing.T) {
	o := pendingOrder(models.SubmissionDirect)

	next, _, ok := transition(o, Event{Type: EventAccept})
	if !ok {
		t.Fatal("accept")
	}
	next2, _, ok := transition(*next, Event{Type: EventArrive})
	if !ok || next2.Step != models.StepInProgressArrived {
		t.Fatalf("arrive: %+v", next2)
	}
	final, fx, ok := transition(*next2, Event{Type: EventFinish})
	if !ok || final != nil || !fx.Remove {
		t.Fatal("finish removes the record")
	}
	if fx.Payment != PaymentCapture {
		t.Fatal("finish captures the payment")
	}
	if fx.ProviderStatus == nil || *fx.ProviderStatus != models.ProviderOnline {
		t.Fatal("finish releases the provider")
	}
}

func TestTransitionArriveRequiresAccepted(t *testing.T) {
	if _, _, ok := transition(pendingOrder(models.SubmissionDirect), Event{Type: EventArrive}); ok {
		t.Fatal("arrive before accept must not apply")
	}
}

func TestTransitionCustomerCancel(t *testing.T) {
	// pending: no provider release event needed, they never committed
	_, fx, ok := transition(pendingOrder(models.SubmissionDirect), Event{Type: EventCustomerCancel})
	if !ok || !fx.Remove || fx.Reason != models.ReasonCustomerCancelled {
		t.Fatalf("cancel pending: %+v", fx)
	}
	if fx.ProviderStatus != nil {
		t.Fatal("uncommitted provider needs no status change")
	}

	o := pendingOrder(models.SubmissionDirect)
	o.Step = models.StepInProgressArrived
	_, fx, ok = transition(o, Event{Type: EventCustomerCancel})
	if !ok || fx.ProviderStatus == nil || *fx.ProviderStatus != models.ProviderOnline {
		t.Fatalf("cancel mid-flight releases the provider: %+v", fx)
	}
	if fx.ProviderEvent == "" {
		t.Fatal("committed provider must be notified")
	}
}

package presence

import (
	"context"
	"testing"

	"github.com/example/wash-dispatch/internal/models"
)

func TestProviderLastWriteWins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.AddProvider(ctx, models.ProviderPresence{UserID: "u1", UUID: "sock-a", Status: models.ProviderOnline}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddProvider(ctx, models.ProviderPresence{UserID: "u1", UUID: "sock-b", Status: models.ProviderOnline}); err != nil {
		t.Fatal(err)
	}
	all, _ := s.Providers(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one record per user id, got %d", len(all))
	}
	if all[0].UUID != "sock-b" {
		t.Fatalf("expected last write to win, got uuid=%s", all[0].UUID)
	}
}

func TestGetByNonPrimaryField(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.AddProvider(ctx, models.ProviderPresence{UserID: "u1", ProviderID: "p1", UUID: "sock-a"})
	_ = s.AddProvider(ctx, models.ProviderPresence{UserID: "u2", ProviderID: "p2", UUID: "sock-b"})

	p, err := s.GetProviderBy(ctx, ProviderByUUID, "sock-b")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.UserID != "u2" {
		t.Fatalf("lookup by uuid failed: %+v", p)
	}
	p, _ = s.GetProviderBy(ctx, ProviderByProviderID, "p1")
	if p == nil || p.UserID != "u1" {
		t.Fatalf("lookup by provider id failed: %+v", p)
	}
}

func TestNotFoundIsNilNil(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	p, err := s.GetProviderBy(ctx, ProviderByUserID, "ghost")
	if err != nil || p != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", p, err)
	}
	o, err := s.RemoveOrderBy(ctx, OrderByID, "ghost")
	if err != nil || o != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", o, err)
	}
	o, err = s.UpdateOrderBy(ctx, OrderByCustomerUserID, "ghost", func(*models.ActiveOrder) {})
	if err != nil || o != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", o, err)
	}
}

func TestUpdateOrderPatchPersists(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.AddOrder(ctx, models.ActiveOrder{OrderID: "o1", CustomerUserID: "c1", Step: models.StepNotAcceptedByProvider})

	updated, err := s.UpdateOrderBy(ctx, OrderByID, "o1", func(o *models.ActiveOrder) {
		o.Step = models.StepInProgressNotArrived
		o.ProviderUserID = "pu1"
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Step != models.StepInProgressNotArrived {
		t.Fatalf("patch not applied: %+v", updated)
	}
	got, _ := s.GetOrderBy(ctx, OrderByProviderUserID, "pu1")
	if got == nil || got.OrderID != "o1" {
		t.Fatalf("patched record not queryable by new field: %+v", got)
	}
}

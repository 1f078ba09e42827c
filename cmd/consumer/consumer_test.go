package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/wash-dispatch/internal/models"
)

// fakeUpdater implements PresenceUpdater for tests
type fakeUpdater struct {
	fail  int // number of times to fail before succeeding
	calls int
	last  models.Coord
}

func (f *fakeUpdater) UpdateProviderBy(ctx context.Context, field, value string, patch func(*models.ProviderPresence)) (*models.ProviderPresence, error) {
	f.calls++
	if f.calls <= f.fail {
		return nil, errors.New("store fail")
	}
	var p models.ProviderPresence
	patch(&p)
	f.last = p.Loc
	return &p, nil
}

func TestUpdatePresenceWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{fail: 2}
	u := models.LocationUpdate{UserID: "p1", Loc: models.Coord{Lat: 1, Lon: 2}, At: time.Now()}
	ctx := context.Background()
	start := time.Now()
	if err := updatePresenceWithRetry(ctx, f, u, 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls != 3 {
		t.Fatalf("expected retries, got calls=%d", f.calls)
	}
	if f.last != u.Loc {
		t.Fatalf("patch not applied: %+v", f.last)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestUpdatePresenceWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{fail: 5}
	u := models.LocationUpdate{UserID: "p1", Loc: models.Coord{Lat: 1, Lon: 2}}
	ctx := context.Background()
	if err := updatePresenceWithRetry(ctx, f, u, 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestUpdatePresenceWithRetry_MissingProviderIsNormal(t *testing.T) {
	f := &missingUpdater{}
	u := models.LocationUpdate{UserID: "gone"}
	if err := updatePresenceWithRetry(context.Background(), f, u, 3, time.Millisecond); err != nil {
		t.Fatalf("missing presence must not be an error, got %v", err)
	}
	if f.calls != 1 {
		t.Fatalf("no retries expected for a missing provider, got %d", f.calls)
	}
}

type missingUpdater struct{ calls int }

func (m *missingUpdater) UpdateProviderBy(ctx context.Context, field, value string, patch func(*models.ProviderPresence)) (*models.ProviderPresence, error) {
	m.calls++
	return nil, nil
}

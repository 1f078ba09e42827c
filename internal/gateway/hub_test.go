package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/wash-dispatch/internal/dispatch"
	"github.com/example/wash-dispatch/internal/history"
	"github.com/example/wash-dispatch/internal/models"
	"github.com/example/wash-dispatch/internal/notify"
	"github.com/example/wash-dispatch/internal/payments"
	"github.com/example/wash-dispatch/internal/presence"
	"github.com/example/wash-dispatch/internal/scheduler"
	"github.com/example/wash-dispatch/internal/storage"
)

// fakeConn feeds queued frames to ReadJSON and records writes.
type fakeConn struct {
	mu     sync.Mutex
	in     []inboundFrame
	wrote  []Envelope
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wrote = append(c.wrote, v.(Envelope))
	return nil
}

func (c *fakeConn) ReadJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.in) == 0 {
		return errors.New("closed")
	}
	frame := c.in[0]
	c.in = c.in[1:]
	*(v.(*inboundFrame)) = frame
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.wrote))
	for _, e := range c.wrote {
		out = append(out, e.Event)
	}
	return out
}

func frame(event string, payload any) inboundFrame {
	b, _ := json.Marshal(payload)
	return inboundFrame{Event: event, Data: b}
}

func newHub(t *testing.T) (*Hub, *presence.MemoryStore) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := presence.NewMemoryStore()
	hub := NewHub(log)
	engine := dispatch.NewEngine(log, store, scheduler.NewManual(), history.NewMemoryLog(),
		payments.NewRecorder(), notify.NewRecorder(), storage.NewMemoryStore(), hub,
		dispatch.Config{DefaultTimeoutSec: 30})
	hub.Bind(engine)
	return hub, store
}

func TestProviderOnlineJoinsRoomAndStoresPresence(t *testing.T) {
	hub, store := newHub(t)
	ctx := context.Background()

	conn := &fakeConn{in: []inboundFrame{
		frame(dispatch.EvProviderOnline, providerOnlinePayload{
			ProviderID: "prov-1", Lat: 1, Lon: 2, ModuleID: "carwash",
		}),
	}}
	s := hub.Register(ctx, conn, "p1", dispatch.UserProvider)
	hub.ReadLoop(ctx, s)

	p, err := store.GetProviderBy(ctx, presence.ProviderByUserID, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, models.ProviderOnline, p.Status)
	require.Equal(t, s.UUID, p.UUID)
	require.Contains(t, conn.events(), dispatch.EvProviderOnline+"-finish")
}

func TestUnknownEventGetsFailureAck(t *testing.T) {
	hub, _ := newHub(t)
	ctx := context.Background()
	conn := &fakeConn{in: []inboundFrame{frame("bogus-event", map[string]any{})}}
	s := hub.Register(ctx, conn, "c1", dispatch.UserCustomer)
	hub.ReadLoop(ctx, s)
	require.Contains(t, conn.events(), "bogus-event-failure")
}

func TestDirectOrderToOfflineProviderAcksFailure(t *testing.T) {
	hub, store := newHub(t)
	ctx := context.Background()
	conn := &fakeConn{in: []inboundFrame{
		frame(dispatch.EvNewOrder, newOrderPayload{
			OrderID: "o1", ProviderUserID: "ghost", ModuleID: "carwash", PaymentMethod: "cash",
		}),
	}}
	s := hub.Register(ctx, conn, "c1", dispatch.UserCustomer)
	hub.ReadLoop(ctx, s)

	require.Contains(t, conn.events(), dispatch.EvNewOrder+"-failure")
	orders, _ := store.Orders(ctx)
	require.Empty(t, orders)
}

func TestEmitToUnknownEndpointIsDropped(t *testing.T) {
	hub, _ := newHub(t)
	hub.Emit("nobody-home", "whatever", nil) // must not panic
}

func TestUnregisterLeavesRoom(t *testing.T) {
	hub, _ := newHub(t)
	ctx := context.Background()
	conn := &fakeConn{in: []inboundFrame{
		frame(dispatch.EvProviderOnline, providerOnlinePayload{ModuleID: "carwash"}),
	}}
	s := hub.Register(ctx, conn, "p1", dispatch.UserProvider)
	hub.ReadLoop(ctx, s) // read loop exits and unregisters

	require.Empty(t, hub.roomMembers("carwash"))
	require.True(t, conn.closed)
}

package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/wash-dispatch/internal/dispatch"
)

// Hub tracks connected endpoints and provider rooms, fans engine events
// out to the right sockets and routes inbound events into the engine.
// It is the dispatch.Emitter implementation handed to the engine.
type Hub struct {
	log    *slog.Logger
	engine *dispatch.Engine

	mu       sync.RWMutex
	sessions map[string]*Session            // endpoint uuid -> session
	rooms    map[string]map[string]*Session // module id -> endpoint uuid -> session
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

// Bind attaches the engine after construction; hub and engine reference
// each other, so one of the two links has to be set late.
func (h *Hub) Bind(e *dispatch.Engine) { h.engine = e }

// Emit implements dispatch.Emitter. Unknown endpoints are dropped
// silently: the engine treats delivery as best-effort.
func (h *Hub) Emit(endpointUUID, event string, payload any) {
	h.mu.RLock()
	s, ok := h.sessions[endpointUUID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.send(event, payload); err != nil {
		h.log.Warn("ws send failed", "endpoint", endpointUUID, "event", event, "error", err)
	}
}

// Register creates a session for an authenticated connection and runs
// session recovery. It returns the session; the caller owns the read loop.
func (h *Hub) Register(ctx context.Context, conn wsConn, userID string, ut dispatch.UserType) *Session {
	s := &Session{
		UUID:     uuid.NewString(),
		UserID:   userID,
		UserType: ut,
		conn:     conn,
	}
	h.mu.Lock()
	h.sessions[s.UUID] = s
	h.mu.Unlock()

	res, err := h.engine.RecoverSession(ctx, userID, ut, s.UUID)
	if err != nil {
		h.log.Error("session recovery failed", "user_id", userID, "error", err)
		_ = s.send("connect-failure", map[string]any{"error": "recovery failed"})
		return s
	}
	if res.TookOver {
		h.drop(res.OldEndpoint)
	}
	return s
}

// Unregister removes a session and its room membership. Presence is kept:
// a disconnect is not provider-offline, reconnection recovers it.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s.UUID)
	if s.ModuleID != "" {
		if room, ok := h.rooms[s.ModuleID]; ok {
			delete(room, s.UUID)
			if len(room) == 0 {
				delete(h.rooms, s.ModuleID)
			}
		}
	}
	s.close()
}

// drop force-closes a stale endpoint after a second-device takeover.
func (h *Hub) drop(endpointUUID string) {
	h.mu.Lock()
	s, ok := h.sessions[endpointUUID]
	if ok {
		delete(h.sessions, endpointUUID)
		if s.ModuleID != "" {
			if room, roomOK := h.rooms[s.ModuleID]; roomOK {
				delete(room, endpointUUID)
			}
		}
	}
	h.mu.Unlock()
	if ok {
		s.close()
	}
}

func (h *Hub) joinRoom(s *Session, moduleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.ModuleID != "" && s.ModuleID != moduleID {
		if room, ok := h.rooms[s.ModuleID]; ok {
			delete(room, s.UUID)
		}
	}
	s.ModuleID = moduleID
	room, ok := h.rooms[moduleID]
	if !ok {
		room = make(map[string]*Session)
		h.rooms[moduleID] = room
	}
	room[s.UUID] = s
}

func (h *Hub) roomMembers(moduleID string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[moduleID]
	out := make([]*Session, 0, len(room))
	for _, s := range room {
		out = append(out, s)
	}
	return out
}

func (h *Hub) moduleIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		out = append(out, id)
	}
	return out
}

// RunOnlineBroadcast periodically pushes the online provider list to each
// module room until the context is cancelled.
func (h *Hub) RunOnlineBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcastOnline(ctx)
		}
	}
}

func (h *Hub) broadcastOnline(ctx context.Context) {
	for _, moduleID := range h.moduleIDs() {
		providers, err := h.engine.OnlineProviders(ctx, moduleID)
		if err != nil {
			h.log.Warn("online-users query failed", "module_id", moduleID, "error", err)
			continue
		}
		payload := map[string]any{"module_id": moduleID, "providers": providers}
		for _, s := range h.roomMembers(moduleID) {
			if err := s.send(dispatch.EvOutOnlineUsers, payload); err != nil {
				h.log.Warn("online-users send failed", "endpoint", s.UUID, "error", err)
			}
		}
	}
}

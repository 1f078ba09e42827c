package gateway

import (
	"sync"

	"github.com/example/wash-dispatch/internal/dispatch"
)

// Envelope is the wire frame for both directions: a named event plus an
// arbitrary JSON payload.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// wsConn is the subset of *websocket.Conn the hub needs; tests substitute
// a fake.
type wsConn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Session is one connected client endpoint. Writes are serialized: gorilla
// connections do not allow concurrent writers.
type Session struct {
	UUID     string
	UserID   string
	UserType dispatch.UserType
	ModuleID string // set for providers once they join a room

	mu   sync.Mutex
	conn wsConn
}

func (s *Session) send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(Envelope{Event: event, Data: payload})
}

func (s *Session) close() { _ = s.conn.Close() }

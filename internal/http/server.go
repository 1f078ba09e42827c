package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/wash-dispatch/internal/dispatch"
	"github.com/example/wash-dispatch/internal/gateway"
)

// Server exposes the websocket gateway plus health and metrics endpoints.
// The CRUD API of the marketplace lives elsewhere; this process only
// handles real-time dispatch.
type Server struct {
	hub    *gateway.Hub
	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(hub *gateway.Hub, logger *slog.Logger) *Server {
	s := &Server{hub: hub, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/ws/{user_type}/{user_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

var upgrader = websocket.Upgrader{}

// handleWS upgrades the connection and hands it to the hub. Auth happens
// upstream; by the time a request reaches this process the path params
// carry a verified identity.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID := vars["user_id"]
	ut := dispatch.UserType(vars["user_type"])
	if ut != dispatch.UserCustomer && ut != dispatch.UserProvider {
		http.Error(w, "unknown user type", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	sess := s.hub.Register(r.Context(), conn, userID, ut)
	// block until the connection drops; gorilla handlers own their loop
	s.hub.ReadLoop(r.Context(), sess)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }

package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/example/wash-dispatch/internal/dispatch"
	"github.com/example/wash-dispatch/internal/models"
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type providerOnlinePayload struct {
	ProviderID        string  `json:"provider_id"`
	Lat               float64 `json:"lat"`
	Lon               float64 `json:"lon"`
	ModuleID          string  `json:"module_id"`
	NotificationToken string  `json:"notification_token"`
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type orderRefPayload struct {
	OrderID string `json:"order_id"`
}

type newOrderPayload struct {
	OrderID          string  `json:"order_id"`
	ProviderUserID   string  `json:"provider_user_id,omitempty"`
	ModuleID         string  `json:"module_id"`
	OriginLat        float64 `json:"origin_lat"`
	OriginLon        float64 `json:"origin_lon"`
	PaymentMethod    string  `json:"payment_method"`
	AmountCents      int64   `json:"amount_cents"`
	TimeoutSec       int     `json:"timeout_sec"`
	ArrivalThreshold float64 `json:"arrival_threshold"`
	MaxDistanceKm    float64 `json:"max_distance_km"`
	NotificationTkn  string  `json:"notification_token"`
}

// ReadLoop consumes frames from the session until the connection drops,
// routing each inbound event into the engine.
func (h *Hub) ReadLoop(ctx context.Context, s *Session) {
	defer h.Unregister(s)
	for {
		var frame inboundFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleEvent(ctx, s, frame)
	}
}

// handleEvent routes one inbound frame. Every event is acknowledged: a
// failed store call must not leave the client waiting silently. Routes
// may return their own ack payload; the default is {"ok": true}.
func (h *Hub) handleEvent(ctx context.Context, s *Session, frame inboundFrame) {
	ack, err := h.routeEvent(ctx, s, frame)
	if err != nil {
		h.log.Warn("event failed", "event", frame.Event, "user_id", s.UserID, "error", err)
		_ = s.send(frame.Event+"-failure", map[string]any{"error": err.Error()})
		return
	}
	if ack == nil {
		ack = map[string]any{"ok": true}
	}
	_ = s.send(frame.Event+"-finish", ack)
}

func (h *Hub) routeEvent(ctx context.Context, s *Session, frame inboundFrame) (any, error) {
	switch frame.Event {
	case dispatch.EvProviderOnline:
		var p providerOnlinePayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		h.joinRoom(s, p.ModuleID)
		return nil, h.engine.ProviderOnline(ctx, models.ProviderPresence{
			UserID:            s.UserID,
			ProviderID:        p.ProviderID,
			UUID:              s.UUID,
			Loc:               models.Coord{Lat: p.Lat, Lon: p.Lon},
			ModuleID:          p.ModuleID,
			NotificationToken: p.NotificationToken,
		})

	case dispatch.EvProviderOffline:
		return nil, h.engine.ProviderOffline(ctx, s.UserID)

	case dispatch.EvProviderLocationChange:
		var p locationPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.ProviderLocation(ctx, s.UserID, models.Coord{Lat: p.Lat, Lon: p.Lon})

	case dispatch.EvNewOrder:
		req, err := h.orderRequest(s, frame.Data)
		if err != nil {
			return nil, err
		}
		return nil, h.engine.DispatchDirect(ctx, req)

	case dispatch.EvAutoSelectOrder:
		req, err := h.orderRequest(s, frame.Data)
		if err != nil {
			return nil, err
		}
		return nil, h.engine.DispatchAutoSelect(ctx, req)

	case dispatch.EvProviderAcceptOrder:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.Accept(ctx, s.UserID, p.OrderID)

	case dispatch.EvProviderRejectOrder:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.Reject(ctx, s.UserID, p.OrderID)

	case dispatch.EvProviderArrived:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.Arrived(ctx, s.UserID, p.OrderID)

	case dispatch.EvProviderFinishedOrder:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.Finished(ctx, s.UserID, p.OrderID)

	case dispatch.EvCustomerCancelOrder:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		return nil, h.engine.CustomerCancel(ctx, s.UserID, p.OrderID)

	case dispatch.EvVerifyOrder:
		var p orderRefPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return nil, err
		}
		o, err := h.engine.VerifyOrder(ctx, p.OrderID)
		if err != nil {
			return nil, err
		}
		ack := map[string]any{"order_id": p.OrderID, "active": o != nil}
		if o != nil {
			ack["step"] = o.Step.String()
		}
		return ack, nil

	case dispatch.EvForceCheckSession:
		_, err := h.engine.RecoverSession(ctx, s.UserID, s.UserType, s.UUID)
		return nil, err
	}
	return nil, errors.New("unknown event: " + frame.Event)
}

func (h *Hub) orderRequest(s *Session, raw json.RawMessage) (dispatch.OrderRequest, error) {
	var p newOrderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return dispatch.OrderRequest{}, err
	}
	method := models.PaymentMethod(p.PaymentMethod)
	if method == "" {
		method = models.PaymentCash
	}
	return dispatch.OrderRequest{
		OrderID:          p.OrderID,
		CustomerUserID:   s.UserID,
		CustomerUUID:     s.UUID,
		CustomerToken:    p.NotificationTkn,
		PaymentMethod:    method,
		AmountCents:      p.AmountCents,
		ModuleID:         p.ModuleID,
		Origin:           models.Coord{Lat: p.OriginLat, Lon: p.OriginLon},
		TimeoutSec:       p.TimeoutSec,
		ArrivalThreshold: p.ArrivalThreshold,
		MaxDistanceKm:    p.MaxDistanceKm,
		ProviderUserID:   p.ProviderUserID,
	}, nil
}

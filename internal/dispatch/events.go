package dispatch

// Inbound event names handled by the gateway and routed to the engine.
const (
	EvProviderOnline         = "provider-online"
	EvProviderOffline        = "provider-offline"
	EvProviderLocationChange = "provider-location-change"
	EvNewOrder               = "new-order"
	EvAutoSelectOrder        = "auto-select-order"
	EvProviderAcceptOrder    = "provider-accept-order"
	EvProviderRejectOrder    = "provider-reject-order"
	EvProviderArrived        = "provider-arrived"
	EvProviderFinishedOrder  = "provider-finished-order"
	EvCustomerCancelOrder    = "customer-cancel-order"
	EvVerifyOrder            = "verify-order"
	EvForceCheckSession      = "force-check-active-session"
)

// Outbound event names fanned out to clients.
const (
	EvOutNewOrder         = "new-order"        // offer delivered to a provider
	EvOutNewOrderFinish   = "new-order-finish" // receipt ack, synthesized by the gateway
	EvOutAutoSelectFinish = "auto-select-order-finish"
	EvOutOrderAccepted    = "order-accepted"
	EvOutOrderRejected    = "order-rejected"
	EvOutOrderTimeout     = "order-timeout"
	EvOutProviderArrived  = "provider-arrived-finish"
	EvOutOrderFinished    = "provider-finished-order-finish"
	EvOutOrderCancelled   = "customer-cancel-order-finish"
	EvOutVerifyFinish     = "verify-order-finish"
	EvOutActiveSession    = "active-session"
	EvOutForceLogout      = "force-logout"
	EvOutOnlineUsers      = "online-users"
)

// Emitter delivers an outbound event to one transport endpoint.
// Implementations are best-effort; a missing endpoint is not an error the
// engine cares about.
type Emitter interface {
	Emit(endpointUUID, event string, payload any)
}

// NoopEmitter drops everything; handy for tests that only inspect state.
type NoopEmitter struct{}

func (NoopEmitter) Emit(string, string, any) {}

package dispatch

import "errors"

// State-conflict errors returned synchronously to the caller; no state is
// mutated when these are returned.
var (
	ErrProviderOffline = errors.New("provider is not online")
	ErrProviderBusy    = errors.New("provider already committed to an order")
	ErrCustomerBusy    = errors.New("customer already has an order past acceptance")
	ErrOrderNotFound   = errors.New("order is not active")
	ErrNotYourOrder    = errors.New("order does not belong to this user")
)

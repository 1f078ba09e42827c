// Package payments wraps the hold/capture/cancel flow the dispatch engine
// drives. Handles are opaque; retries against the same handle are safe.
package payments

import "context"

type Gateway interface {
	// Hold authorizes the amount without capturing and returns a handle.
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
	// Capture finalizes a previously held payment.
	Capture(ctx context.Context, handle string) error
	// CancelHold releases a hold without capturing.
	CancelHold(ctx context.Context, handle string) error
}

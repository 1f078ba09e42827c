package payments

import "context"

// Noop satisfies Gateway when no payment backend is configured; every
// order behaves like a cash order.
type Noop struct{}

func (Noop) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	return "", nil
}

func (Noop) Capture(ctx context.Context, handle string) error { return nil }

func (Noop) CancelHold(ctx context.Context, handle string) error { return nil }

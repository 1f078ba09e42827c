// Package notify delivers push notifications. Delivery is best-effort:
// the engine never fails a transition because a push did not land.
package notify

import "context"

type Notifier interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}

// Noop discards every push. Used when no push endpoint is configured.
type Noop struct{}

func (Noop) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	return nil
}

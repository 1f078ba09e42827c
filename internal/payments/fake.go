package payments

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is a Gateway for tests: it records every call and can be
// inspected for capture/cancel counts per handle.
type Recorder struct {
	mu       sync.Mutex
	seq      int
	Held     []string
	Captured []string
	Released []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Hold(ctx context.Context, amount int64, currency, customerID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	h := fmt.Sprintf("hold-%d", r.seq)
	r.Held = append(r.Held, h)
	return h, nil
}

func (r *Recorder) Capture(ctx context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Captured = append(r.Captured, handle)
	return nil
}

func (r *Recorder) CancelHold(ctx context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Released = append(r.Released, handle)
	return nil
}

func (r *Recorder) Counts() (held, captured, released int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Held), len(r.Captured), len(r.Released)
}

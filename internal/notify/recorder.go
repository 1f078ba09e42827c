package notify

import (
	"context"
	"sync"
)

type Push struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Recorder collects pushes for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	pushes []Push
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Push(ctx context.Context, token, title, body string, data map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, Push{Token: token, Title: title, Body: body, Data: data})
	return nil
}

func (r *Recorder) Pushes() []Push {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Push, len(r.pushes))
	copy(out, r.pushes)
	return out
}

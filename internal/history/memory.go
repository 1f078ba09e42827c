package history

import (
	"context"
	"sync"
	"time"

	"github.com/example/wash-dispatch/internal/models"
)

type Entry struct {
	OrderID string
	Reason  models.HistoryReason
	Notes   string
	At      time.Time
}

// MemoryLog records entries in memory; used by tests and Redis-less runs.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryLog() *MemoryLog { return &MemoryLog{} }

func (l *MemoryLog) Append(ctx context.Context, orderID string, reason models.HistoryReason, notes string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{OrderID: orderID, Reason: reason, Notes: notes, At: time.Now()})
	return nil
}

func (l *MemoryLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ByOrder returns the entries for one order, in append order.
func (l *MemoryLog) ByOrder(orderID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

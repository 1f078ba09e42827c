// Package scheduler provides cancellable one-shot jobs fired at an
// absolute time, used for order-response deadlines.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler is what the dispatch engine depends on. Cancel on a fired or
// unknown job id is a no-op.
type Scheduler interface {
	Schedule(jobID string, at time.Time, fn func())
	Cancel(jobID string)
}

type TimerScheduler struct {
	mu   sync.Mutex
	jobs map[string]*time.Timer
	now  func() time.Time
}

func New() *TimerScheduler {
	return &TimerScheduler{jobs: make(map[string]*time.Timer), now: time.Now}
}

// Schedule arms a timer for jobID. Re-scheduling an existing id replaces
// the previous timer.
func (s *TimerScheduler) Schedule(jobID string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.jobs[jobID]; ok {
		t.Stop()
	}
	d := at.Sub(s.now())
	if d < 0 {
		d = 0
	}
	s.jobs[jobID] = time.AfterFunc(d, func() {
		// remove before running so a late Cancel is a clean no-op
		s.mu.Lock()
		delete(s.jobs, jobID)
		s.mu.Unlock()
		fn()
	})
}

func (s *TimerScheduler) Cancel(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.jobs[jobID]; ok {
		t.Stop()
		delete(s.jobs, jobID)
	}
}

// Pending reports how many jobs are armed. Exposed for tests and for the
// scheduler_jobs gauge.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

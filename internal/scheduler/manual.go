package scheduler

import (
	"sync"
	"time"
)

// Manual is a test scheduler: jobs never fire on their own, the test
// drives them with Fire.
type Manual struct {
	mu   sync.Mutex
	jobs map[string]manualJob
}

type manualJob struct {
	at time.Time
	fn func()
}

func NewManual() *Manual {
	return &Manual{jobs: make(map[string]manualJob)}
}

func (m *Manual) Schedule(jobID string, at time.Time, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[jobID] = manualJob{at: at, fn: fn}
}

func (m *Manual) Cancel(jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
}

// Fire runs the job if it is still armed and reports whether it ran.
func (m *Manual) Fire(jobID string) bool {
	m.mu.Lock()
	j, ok := m.jobs[jobID]
	if ok {
		delete(m.jobs, jobID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	j.fn()
	return true
}

// FireAll runs every armed job in no particular order.
func (m *Manual) FireAll() int {
	m.mu.Lock()
	jobs := m.jobs
	m.jobs = make(map[string]manualJob)
	m.mu.Unlock()
	for _, j := range jobs {
		j.fn()
	}
	return len(jobs)
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// JobIDs returns the ids of armed jobs, for assertions on leaked timers.
func (m *Manual) JobIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for id := range m.jobs {
		out = append(out, id)
	}
	return out
}

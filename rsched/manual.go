package rsched

import (
	"sync"

	"github.com/eapache/queue"
)

// Manual is a coordinator pumped by its caller.
// Nothing runs until the caller invokes [Manual.RunNext]
// or [Manual.RunAll], which makes scheduling fully deterministic.
//
// Schedule is safe from any goroutine, but only one goroutine
// may pump the queue.
type Manual struct {
	mu    sync.Mutex
	tasks *queue.Queue
}

// NewManual returns an empty Manual coordinator.
func NewManual() *Manual {
	return &Manual{tasks: queue.New()}
}

// Schedule enqueues fn to run on a later pump.
func (m *Manual) Schedule(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks.Add(fn)
}

// RunNext runs the oldest scheduled task, if any,
// and reports whether one ran.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if m.tasks.Length() == 0 {
		m.mu.Unlock()
		return false
	}
	fn := m.tasks.Remove().(func())
	m.mu.Unlock()

	fn()
	return true
}

// RunAll pumps until the queue is empty, including tasks
// scheduled by the tasks it runs, and returns how many ran.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}

// Len returns the number of tasks waiting to run.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks.Length()
}

package rcredit

import "sync"

// Meter records sampled element sizes for external monitoring.
//
// It is an explicit object, injected where it is wanted and
// queried through [Meter.Snapshot]. It has no effect on
// credit decisions.
//
// Unlike the flow core, a Meter is safe for concurrent use:
// it exists to be read from outside the coordinator.
type Meter struct {
	mu sync.Mutex

	count int64
	sum   int64
	min   int
	max   int
}

// NewMeter returns an empty Meter.
func NewMeter() *Meter {
	return &Meter{}
}

// Observe records one sampled element size, in bytes.
func (m *Meter) Observe(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 || size < m.min {
		m.min = size
	}
	if size > m.max {
		m.max = size
	}
	m.count++
	m.sum += int64(size)
}

// MeterSnapshot is a point-in-time view of a [Meter].
type MeterSnapshot struct {
	// Number of samples recorded.
	Count int64

	// Sum of all sampled sizes, in bytes.
	TotalBytes int64

	// Smallest and largest sampled sizes.
	// Zero when no samples were recorded.
	Min, Max int

	// Mean sampled size. Zero when no samples were recorded.
	Mean float64
}

// Snapshot returns the recorded samples so far.
func (m *Meter) Snapshot() MeterSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := MeterSnapshot{
		Count:      m.count,
		TotalBytes: m.sum,
		Min:        m.min,
		Max:        m.max,
	}
	if m.count > 0 {
		s.Mean = float64(m.sum) / float64(m.count)
	}
	return s
}

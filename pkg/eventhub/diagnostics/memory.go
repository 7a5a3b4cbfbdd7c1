package diagnostics

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds a MemorySink created with capacity <= 0.
const DefaultMemoryCapacity = 1000

// MemorySink keeps the most recent failures in memory.
// Data is lost when the process exits.
type MemorySink struct {
	mu       sync.RWMutex
	records  []*Failure // oldest first
	capacity int
	dropped  int64
	closed   bool
}

// NewMemorySink creates a sink holding at most capacity failures.
// Older records are discarded once the capacity is reached.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemorySink{
		records:  make([]*Failure, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Record implements Sink.
func (m *MemorySink) Record(_ context.Context, f *Failure) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSinkClosed
	}

	stored := *f
	if len(m.records) >= m.capacity {
		m.records = append(m.records[:0], m.records[1:]...)
		m.dropped++
	}
	m.records = append(m.records, &stored)
	return nil
}

// List implements Sink.
func (m *MemorySink) List(_ context.Context, limit int) ([]*Failure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrSinkClosed
	}

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*Failure, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		f := *m.records[i]
		out = append(out, &f)
	}
	return out, nil
}

// Count implements Sink.
func (m *MemorySink) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrSinkClosed
	}
	return len(m.records), nil
}

// Dropped returns how many records were discarded to respect the capacity.
func (m *MemorySink) Dropped() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dropped
}

// Close implements Sink.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}

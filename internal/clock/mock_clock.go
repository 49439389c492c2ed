package clock

import (
	"sync"
	"time"
)

// MockClock is a manually advanced Clock for deterministic tests.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a MockClock frozen at start.
func NewMock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

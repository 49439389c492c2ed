package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clk := RealClock{}
	before := time.Now()
	now := clk.Now()
	if now.Before(before) || now.After(time.Now()) {
		t.Errorf("RealClock.Now returned unexpected time: %v", now)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clk := NewMock(start)

	if !clk.Now().Equal(start) {
		t.Errorf("Now() = %v, want %v", clk.Now(), start)
	}

	// A frozen clock does not drift between calls.
	if !clk.Now().Equal(clk.Now()) {
		t.Error("MockClock should be frozen until advanced")
	}

	clk.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !clk.Now().Equal(want) {
		t.Errorf("after Advance: Now() = %v, want %v", clk.Now(), want)
	}
}

package schedule

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func at(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2026, 6, 15, hour, 30, 0, 0, time.UTC)
	}
}

func TestWithinHours(t *testing.T) {
	tests := []struct {
		name     string
		open     int
		close    int
		hour     int
		wantOpen bool
	}{
		{"mid-day inside window", 9, 22, 12, true},
		{"opening hour is inclusive", 9, 22, 9, true},
		{"closing hour is exclusive", 9, 22, 22, false},
		{"before opening", 9, 22, 8, false},
		{"overnight window evening", 22, 6, 23, true},
		{"overnight window early morning", 22, 6, 3, true},
		{"overnight window afternoon", 22, 6, 15, false},
		{"equal hours means never open", 10, 10, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard(tt.open, tt.close, time.Second, zap.NewNop())
			b.now = at(tt.hour)
			if got := b.withinHours(b.now()); got != tt.wantOpen {
				t.Errorf("withinHours(%d:30) = %v, want %v", tt.hour, got, tt.wantOpen)
			}
		})
	}
}

func TestRefreshTransitions(t *testing.T) {
	// GIVEN a board whose clock starts inside opening hours
	b := NewBoard(9, 22, time.Second, zap.NewNop())
	b.now = at(12)
	b.refresh()

	if !b.IsOpen() {
		t.Fatal("expected open at 12:30")
	}

	// WHEN the clock moves past closing
	b.now = at(23)
	b.refresh()

	// THEN the cached flag flips closed
	if b.IsOpen() {
		t.Error("expected closed at 23:30")
	}
}

func TestStartStop(t *testing.T) {
	b := NewBoard(0, 24, 10*time.Millisecond, zap.NewNop())
	b.Start()

	// Double Start is a no-op, double Stop must not panic.
	b.Start()

	time.Sleep(30 * time.Millisecond)
	if !b.IsOpen() {
		t.Error("0-24 window should always be open")
	}

	b.Stop()
	b.Stop()
}

func TestRestartCycle(t *testing.T) {
	// GIVEN a board that already completed one Start/Stop cycle
	b := NewBoard(9, 22, 10*time.Millisecond, zap.NewNop())
	b.now = at(23)
	b.Start()
	b.Stop()

	if b.IsOpen() {
		t.Fatal("expected closed at 23:30")
	}

	// WHEN it is started again after the clock moved inside hours
	b.now = at(12)
	b.Start()

	// THEN the background refresh is live again and Stop still works
	deadline := time.After(time.Second)
	for !b.IsOpen() {
		select {
		case <-deadline:
			t.Fatal("restarted board never refreshed the open flag")
		case <-time.After(5 * time.Millisecond):
		}
	}
	b.Stop()
	b.Stop()
}

package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	tests := []struct {
		month int
		want  string
	}{
		{1, "January, Year 1"},
		{2, "February, Year 1"},
		{12, "December, Year 1"},
		{13, "January, Year 2"},
		{25, "January, Year 3"},
		{0, "Before founding"},
	}
	for _, tt := range tests {
		if got := Date(tt.month); got != tt.want {
			t.Errorf("Date(%d) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestStep(t *testing.T) {
	var calls int32
	c := New(time.Hour, func() { atomic.AddInt32(&calls, 1) })

	c.Step()
	c.Step()
	if calls != 2 || c.Months() != 2 {
		t.Errorf("calls %d months %d, want 2 and 2", calls, c.Months())
	}
}

func TestPausedClockDoesNotAdvance(t *testing.T) {
	var calls int32
	c := New(time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("paused clock advanced %d months", n)
	}
	if c.Running() {
		t.Error("clock still running after Run returned")
	}
}

func TestRunAdvancesAndStops(t *testing.T) {
	var calls int32
	c := New(5*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })
	c.SetSpeed(1)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d months after 2s", atomic.LoadInt32(&calls))
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !c.Running() {
		t.Error("Running = false while running")
	}

	c.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

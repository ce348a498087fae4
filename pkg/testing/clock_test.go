package testing

import (
	"testing"
	"time"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestTester_ClockDrivesLoop(t *testing.T) {
	tester := NewTester(t)
	if tester.Loop().Clock() != tester.Clock() {
		t.Fatal("expected the loop to read the fake clock")
	}

	start := tester.Clock().Now()
	tester.PumpFrames(3)
	if got := tester.Clock().Now().Sub(start); got != 3*FrameDuration {
		t.Errorf("expected %v elapsed, got %v", 3*FrameDuration, got)
	}
	if got := tester.Loop().Frames(); got != 3 {
		t.Errorf("expected 3 frames, got %d", got)
	}
}

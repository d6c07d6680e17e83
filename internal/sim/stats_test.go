package sim

import "testing"

func TestOverThresholdIntegral(t *testing.T) {
	var s Stats

	s.ObserveQueueDepth(100, 4)
	if s.Over4() {
		t.Error("depth 4 must not set the over-threshold flag")
	}

	s.ObserveQueueDepth(150, 5)
	if !s.Over4() {
		t.Error("depth 5 must set the over-threshold flag")
	}
	if s.TOver4 != 0 {
		t.Errorf("TOver4 = %d before the interval closes, want 0", s.TOver4)
	}

	// Staying over the threshold must not restart the interval.
	s.ObserveQueueDepth(200, 6)

	s.ObserveQueueDepth(260, 3)
	if s.Over4() {
		t.Error("depth 3 must clear the over-threshold flag")
	}
	if s.TOver4 != 110 {
		t.Errorf("TOver4 = %d, want 110", s.TOver4)
	}

	// Second interval.
	s.ObserveQueueDepth(300, 7)
	s.ObserveQueueDepth(340, 0)
	if s.TOver4 != 150 {
		t.Errorf("TOver4 = %d after second interval, want 150", s.TOver4)
	}
}

func TestCloseIntervals(t *testing.T) {
	var s Stats
	s.ObserveQueueDepth(100, 5)
	s.CloseIntervals(180)
	if s.TOver4 != 80 {
		t.Errorf("TOver4 = %d after CloseIntervals, want 80", s.TOver4)
	}
	if s.Over4() {
		t.Error("flag must be cleared by CloseIntervals")
	}
	// Closing with no open interval is a no-op.
	s.CloseIntervals(500)
	if s.TOver4 != 80 {
		t.Errorf("TOver4 = %d after second CloseIntervals, want 80", s.TOver4)
	}
}

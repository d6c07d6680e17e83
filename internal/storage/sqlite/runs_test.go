package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/pkg/logger"
)

func newTestStorage(t *testing.T) *RunStorage {
	t.Helper()
	s, err := NewRunStorage(filepath.Join(t.TempDir(), "runwaysim.db"), logger.Nop())
	if err != nil {
		t.Fatalf("NewRunStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStorage(t)

	rec := &RunRecord{
		Profile:      "standard",
		Seed:         42,
		ArrivalCount: 10,
		MeanScale:    1,
		SDScale:      1,
		FinalTime:    9001,
		Completed:    true,
		Na:           10, Nlq: 12, Nc: 2, Nlz: 10, Ntp: 12, Nd: 10,
		TOver4: 37,
	}
	id, err := s.SaveRun(rec)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Profile != "standard" || got.Nd != 10 || got.TOver4 != 37 || !got.Completed {
		t.Errorf("round-tripped run = %+v", got)
	}

	if _, err := s.GetRun(id + 99); err == nil {
		t.Error("GetRun for unknown id should fail")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	for i := 0; i < 3; i++ {
		if _, err := s.SaveRun(&RunRecord{Profile: "standard", Seed: int64(i), ArrivalCount: 1}); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Seed != 2 {
		t.Errorf("first listed run seed = %d, want newest (2)", runs[0].Seed)
	}
}

func TestReplaceEventsKeepsLatestOnly(t *testing.T) {
	s := newTestStorage(t)

	first, _ := s.SaveRun(&RunRecord{Profile: "standard", ArrivalCount: 1})
	second, _ := s.SaveRun(&RunRecord{Profile: "standard", ArrivalCount: 1})

	if err := s.ReplaceEvents(first, []sim.Snapshot{{Time: 0, Event: sim.EventStart}}); err != nil {
		t.Fatalf("ReplaceEvents: %v", err)
	}
	if err := s.ReplaceEvents(second, []sim.Snapshot{
		{Time: 0, Event: sim.EventStart},
		{Time: 120, Event: sim.EventApproach, LandingQueue: "H", Na: 1},
	}); err != nil {
		t.Fatalf("ReplaceEvents: %v", err)
	}

	events, err := s.EventsForRun(second)
	if err != nil {
		t.Fatalf("EventsForRun: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events for latest run, want 2", len(events))
	}
	if events[1].Event != sim.EventApproach || events[1].LandingQueue != "H" || events[1].Na != 1 {
		t.Errorf("event round trip = %+v", events[1])
	}

	old, err := s.EventsForRun(first)
	if err != nil {
		t.Fatalf("EventsForRun(old): %v", err)
	}
	if len(old) != 0 {
		t.Errorf("old run kept %d events, want 0 (only the latest log is retained)", len(old))
	}
}

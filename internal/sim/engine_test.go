package sim

import (
	"context"
	"reflect"
	"testing"

	"github.com/avickers/runwaysim/pkg/logger"
)

// deterministicProfile zeroes every sd so all draws collapse to their means.
func deterministicProfile() Profile {
	p := StandardProfile()
	p.InterarrivalSD = 0
	p.ApproachSD = 0
	p.CirclingSD = 0
	p.LandingSD = 0
	return p
}

func TestSingleAircraftDeterministic(t *testing.T) {
	sink := &MemorySink{}
	e, err := New(Params{ArrivalCount: 1, Seed: 7, Profile: deterministicProfile()}, logger.Nop(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantEvents := []string{EventStart, EventApproach, EventEnqueue, EventStartLanding, EventFinish}
	if len(sink.Snapshots) != len(wantEvents) {
		t.Fatalf("emitted %d events, want %d: %+v", len(sink.Snapshots), len(wantEvents), sink.Snapshots)
	}
	for i, snap := range sink.Snapshots {
		if snap.Event != wantEvents[i] {
			t.Errorf("event %d = %q, want %q", i, snap.Event, wantEvents[i])
		}
	}

	// interarrival 120, approach 600, min separation 40, landing 750.
	wantTimes := []int64{0, 120, 720, 760, 1510}
	for i, snap := range sink.Snapshots {
		if snap.Time != wantTimes[i] {
			t.Errorf("event %d at t=%d, want %d", i, snap.Time, wantTimes[i])
		}
	}

	s := res.Stats
	if s.Na != 1 || s.Nlq != 1 || s.Nlz != 1 || s.Ntp != 1 || s.Nd != 1 || s.Nc != 0 {
		t.Errorf("final counters = %+v, want Na=1 Nlq=1 Nlz=1 Ntp=1 Nd=1 Nc=0", s)
	}
	if !res.Completed || res.FinalTime != 1510 {
		t.Errorf("completed=%v final=%d, want completed at 1510", res.Completed, res.FinalTime)
	}
}

func TestCirclingWhenRunwayOccupied(t *testing.T) {
	// With all sds zero, arrivals land on the threshold while the first
	// aircraft still occupies the runway, forcing circling diversions.
	sink := &MemorySink{}
	e, err := New(Params{ArrivalCount: 3, Seed: 11, Profile: deterministicProfile()}, logger.Nop(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := res.Stats
	if s.Nc < 1 {
		t.Fatalf("Nc = %d, want at least one circling diversion", s.Nc)
	}
	if s.Ntp != s.Nlz+s.Nc {
		t.Errorf("Ntp = %d, want Nlz+Nc = %d", s.Ntp, s.Nlz+s.Nc)
	}
	if s.Nd != 3 || s.Nlz != 3 {
		t.Errorf("counters = %+v, want Nd=3 Nlz=3", s)
	}
	if s.Nlq != s.Na+s.Nc {
		t.Errorf("Nlq = %d, want Na+Nc = %d (one entry per approach or circling completion)", s.Nlq, s.Na+s.Nc)
	}
	if !res.Completed {
		t.Error("run should complete")
	}
}

func TestNoCirclingProfileHoldsInQueue(t *testing.T) {
	p := NoCirclingProfile()
	p.InterarrivalSD = 0
	p.ApproachSD = 0
	p.CirclingSD = 0
	p.LandingSD = 0

	e, err := New(Params{ArrivalCount: 3, Seed: 11, Profile: p}, logger.Nop(), NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := res.Stats
	if s.Nc != 0 {
		t.Errorf("Nc = %d with circling disabled, want 0", s.Nc)
	}
	if s.Ntp != s.Nlz {
		t.Errorf("Ntp = %d, want Nlz = %d in the no-circling profile", s.Ntp, s.Nlz)
	}
	if s.Nd != 3 || !res.Completed {
		t.Errorf("Nd = %d completed = %v, want all 3 landed", s.Nd, res.Completed)
	}
}

func TestNoCirclingZeroLengthLandingDrainsQueue(t *testing.T) {
	// A zero-length landing leaves the runway occupant ready at the same
	// instant its successor reaches the threshold. With circling disabled
	// the successor must hold for the next tick rather than being
	// rescheduled to the current instant forever.
	p := NoCirclingProfile()
	p.LandingMean = 0
	p.LandingSD = 0

	e, err := New(Params{ArrivalCount: 2, Seed: 9, Profile: p}, logger.Nop(), NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.now = 500
	for i := 0; i < 2; i++ {
		a := &Aircraft{ID: 200 + i, Flight: "T", Class: ClassLarge, State: StateApproaching, NextTransitionAt: e.now}
		if err := a.Enqueue(e.now, e.now); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		e.land.Push(a)
	}

	if err := e.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !e.zone.Occupied() {
		t.Fatal("first head should occupy the runway")
	}
	if e.land.Len() != 1 {
		t.Fatalf("second head should hold in the queue, got len %d", e.land.Len())
	}

	// Next tick clears the instantly-finished occupant and admits the
	// held head; the one after clears that landing too.
	for i := 0; i < 2; i++ {
		if err := e.tick(); err != nil {
			t.Fatalf("tick %d: %v", i+2, err)
		}
	}
	if e.land.Len() != 0 || e.zone.Occupied() {
		t.Errorf("queue len %d, zone occupied %v, want both drained", e.land.Len(), e.zone.Occupied())
	}
	if e.stats.Nd != 2 || e.stats.Nlz != 2 || e.stats.Ntp != 2 || e.stats.Nc != 0 {
		t.Errorf("counters = %+v, want both aircraft landed without circling", e.stats)
	}
}

func TestSeededRunInvariants(t *testing.T) {
	const count = 40
	sink := &MemorySink{}
	e, err := New(Params{ArrivalCount: count, Seed: 42}, logger.Nop(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var prev int64 = -1
	for i, snap := range sink.Snapshots {
		if snap.Time < prev {
			t.Fatalf("snapshot %d at t=%d, before previous t=%d", i, snap.Time, prev)
		}
		prev = snap.Time
		if len(snap.LandingZone) > 1 {
			t.Fatalf("snapshot %d: landing zone holds %d aircraft", i, len(snap.LandingZone))
		}
	}

	s := res.Stats
	if s.Nd != count || s.Na != count {
		t.Errorf("Nd=%d Na=%d, want both %d", s.Nd, s.Na, count)
	}
	if s.Nlq != s.Na+s.Nc {
		t.Errorf("Nlq = %d, want Na+Nc = %d", s.Nlq, s.Na+s.Nc)
	}
	if s.Ntp != s.Nlz+s.Nc {
		t.Errorf("Ntp = %d, want Nlz+Nc = %d", s.Ntp, s.Nlz+s.Nc)
	}
	if e.future.Len() != 0 || e.appr.Len() != 0 || e.circ.Len() != 0 || e.land.Len() != 0 || e.zone.Occupied() {
		t.Error("all transient queues must be empty after completion")
	}
	for _, a := range e.done {
		if a.State != StateDone {
			t.Errorf("aircraft %s in done set with state %v", a.Flight, a.State)
		}
	}
}

func TestRunReproducible(t *testing.T) {
	run := func() []Snapshot {
		sink := &MemorySink{}
		e, err := New(Params{ArrivalCount: 20, Seed: 99}, logger.Nop(), sink)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return sink.Snapshots
	}
	if !reflect.DeepEqual(run(), run()) {
		t.Error("two runs with the same seed produced different event logs")
	}
}

func TestThresholdChainingFIFO(t *testing.T) {
	e, err := New(Params{ArrivalCount: 1, Seed: 3}, logger.Nop(), NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.now = 1000

	classes := []Class{ClassHeavy, ClassSmall, ClassLarge, ClassHeavy, ClassSmall, ClassLarge}
	var prev int64 = -1
	for i, c := range classes {
		a := &Aircraft{ID: 100 + i, Flight: "T", Class: c, State: StateApproaching, NextTransitionAt: e.now}
		threshold := e.entryThreshold(a)
		if threshold < prev {
			t.Fatalf("entry %d threshold %d overtakes previous %d", i, threshold, prev)
		}
		if i == 0 && threshold != e.now+MinSeparationSecs {
			t.Errorf("empty-queue threshold = %d, want now+%d", threshold, MinSeparationSecs)
		}
		if err := a.Enqueue(e.now, threshold); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		e.land.Push(a)
		prev = threshold
	}
}

func TestDurationCutoff(t *testing.T) {
	e, err := New(Params{ArrivalCount: 3, Seed: 11, Duration: 500, Profile: deterministicProfile()}, logger.Nop(), NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Completed {
		t.Error("cutoff run must not report completion")
	}
	if res.Stats.Nd != 0 {
		t.Errorf("Nd = %d before any landing could finish, want 0", res.Stats.Nd)
	}
}

func TestRunHonorsContext(t *testing.T) {
	e, err := New(Params{ArrivalCount: 5, Seed: 1}, logger.Nop(), NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx); err == nil {
		t.Error("Run with cancelled context should return an error")
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	if _, err := New(Params{ArrivalCount: 0}, logger.Nop(), nil); err == nil {
		t.Error("ArrivalCount 0 should be rejected")
	}
	if _, err := New(Params{ArrivalCount: 1, Duration: -1}, logger.Nop(), nil); err == nil {
		t.Error("negative duration should be rejected")
	}
}

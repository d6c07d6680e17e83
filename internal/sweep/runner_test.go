package sweep

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/pkg/logger"
)

func testOptions(dir string) Options {
	return Options{
		Base:        sim.Params{ArrivalCount: 10, Seed: 42},
		Levels:      []Level{{MeanScale: 1, SDScale: 1}, {MeanScale: 2, SDScale: 1}},
		Repetitions: 3,
		OutputDir:   dir,
	}
}

func TestSweepProducesArtifacts(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRunner(testOptions(dir), logger.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	summaries, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("got %d level summaries, want 2", len(summaries))
	}
	for i, s := range summaries {
		if s.Repetitions != 3 {
			t.Errorf("level %d repetitions = %d, want 3", i, s.Repetitions)
		}
		if s.Landings.Mean == 0 {
			t.Errorf("level %d landings mean = 0, every run lands its aircraft", i)
		}
	}

	for _, name := range []string{"run-l00-r000.csv", "run-l01-r002.csv", "summary.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "run-l00-r000.csv"))
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if !strings.HasPrefix(lines[0], `"time","event"`) {
		t.Errorf("event log header = %q, want quoted fields starting with time,event", lines[0])
	}
	if len(lines) < 2 {
		t.Error("event log should contain at least one record after the header")
	}
}

func TestSweepReproducible(t *testing.T) {
	run := func() []LevelSummary {
		opts := testOptions("")
		r, err := NewRunner(opts, logger.Nop())
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		s, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s
	}
	if !reflect.DeepEqual(run(), run()) {
		t.Error("identical sweeps produced different summaries")
	}
}

func TestSweepLeavesBaseModelUntouched(t *testing.T) {
	sep := sim.DefaultSeparation()
	sep.ScaleMeans(1.5)
	wantMean, wantSD := sep.Lookup(sim.ClassHeavy, sim.ClassSmall)

	opts := testOptions("")
	opts.Base.Separation = sep
	r, err := NewRunner(opts, logger.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	mean, sd := sep.Lookup(sim.ClassHeavy, sim.ClassSmall)
	if mean != wantMean || sd != wantSD {
		t.Errorf("base model mutated by sweep: (%v, %v), want (%v, %v)", mean, sd, wantMean, wantSD)
	}
}

func TestSweepLevelScalingComposesWithBase(t *testing.T) {
	// A base model pre-scaled by 2 with unit levels must produce the same
	// runs as an unscaled base with levels of 2, at every level, not just
	// the first.
	runSweep := func(base *sim.SeparationModel, levels []Level) []LevelSummary {
		opts := testOptions("")
		opts.Base.Separation = base
		opts.Levels = levels
		r, err := NewRunner(opts, logger.Nop())
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		s, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		// The level's own scale factors are echoed into the summary; blank
		// them so only the run outcomes are compared.
		for i := range s {
			s[i].MeanScale = 0
			s[i].SDScale = 0
		}
		return s
	}

	prescaled := sim.DefaultSeparation()
	prescaled.ScaleMeans(2)
	got := runSweep(prescaled, []Level{{MeanScale: 1, SDScale: 1}, {MeanScale: 1, SDScale: 1}})
	want := runSweep(sim.DefaultSeparation(), []Level{{MeanScale: 2, SDScale: 1}, {MeanScale: 2, SDScale: 1}})

	if !reflect.DeepEqual(got, want) {
		t.Errorf("pre-scaled base diverged from equivalent level scaling:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	if _, err := NewRunner(Options{Repetitions: 0, Levels: []Level{{1, 1}}}, logger.Nop()); err == nil {
		t.Error("zero repetitions should be rejected")
	}
	if _, err := NewRunner(Options{Repetitions: 1}, logger.Nop()); err == nil {
		t.Error("empty level list should be rejected")
	}
	if _, err := NewRunner(Options{Repetitions: 1, Levels: []Level{{0, 1}}}, logger.Nop()); err == nil {
		t.Error("non-positive scale should be rejected")
	}
}

func TestEventWriterQuotesEveryField(t *testing.T) {
	var buf bytes.Buffer
	ew := NewEventWriter(&buf)
	ew.Record(sim.Snapshot{Time: 5, Event: "approach", LandingQueue: "HLS"})
	if err := ew.Err(); err != nil {
		t.Fatalf("Record: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + record", len(lines))
	}
	for _, line := range lines {
		for _, field := range strings.Split(line, ",") {
			if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
				t.Fatalf("field %q is not quoted in line %q", field, line)
			}
		}
	}
}

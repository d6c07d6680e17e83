// Package sweep is the batch collaborator around the simulation core: it
// runs repeated seeded simulations per separation-scaling level, writes the
// per-run event logs, and aggregates final counters into mean/stdev
// summaries across repetitions.
package sweep

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/pkg/logger"
)

// Level is one sweep point: multiplicative factors applied to the
// separation mean and sd tables before the level's repetitions.
type Level struct {
	MeanScale float64
	SDScale   float64
}

// Options configures a sweep.
type Options struct {
	Base        sim.Params // per-run parameters; Seed is the base seed
	Levels      []Level
	Repetitions int
	OutputDir   string // "" disables per-run event log files
}

// Aggregate is a sample mean and standard deviation across repetitions.
type Aggregate struct {
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
}

// LevelSummary aggregates one level's repetitions.
type LevelSummary struct {
	MeanScale   float64   `json:"mean_scale"`
	SDScale     float64   `json:"sd_scale"`
	Repetitions int       `json:"repetitions"`
	FinalTime   Aggregate `json:"final_time"`
	Circlings   Aggregate `json:"circlings"`
	Landings    Aggregate `json:"landings"`
	Thresholds  Aggregate `json:"thresholds"`
	TOver4      Aggregate `json:"t_over4"`
}

// Runner drives a sweep.
type Runner struct {
	opts   Options
	logger *logger.Logger
}

// NewRunner validates options.
func NewRunner(opts Options, log *logger.Logger) (*Runner, error) {
	if opts.Repetitions <= 0 {
		return nil, fmt.Errorf("sweep repetitions must be positive, got %d", opts.Repetitions)
	}
	if len(opts.Levels) == 0 {
		return nil, fmt.Errorf("sweep needs at least one level")
	}
	for i, l := range opts.Levels {
		if l.MeanScale <= 0 || l.SDScale <= 0 {
			return nil, fmt.Errorf("sweep level %d: scales must be positive, got mean=%v sd=%v", i, l.MeanScale, l.SDScale)
		}
	}
	return &Runner{opts: opts, logger: log.Named("sweep")}, nil
}

// Run executes every level's repetitions and returns per-level summaries.
// Each repetition derives its seed from the base seed, so a whole sweep is
// reproducible. Every level scales an independent copy of the base model,
// so level scaling composes with any scaling already applied to the base
// and the caller's model is never mutated.
func (r *Runner) Run(ctx context.Context) ([]LevelSummary, error) {
	base := r.opts.Base.Separation
	if base == nil {
		base = sim.DefaultSeparation()
	}

	if r.opts.OutputDir != "" {
		if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	summaries := make([]LevelSummary, 0, len(r.opts.Levels))
	for li, level := range r.opts.Levels {
		sep := base.Clone()
		sep.ScaleMeans(level.MeanScale)
		sep.ScaleSDs(level.SDScale)

		r.logger.Info("Starting sweep level",
			logger.Int("level", li),
			logger.Float64("mean_scale", level.MeanScale),
			logger.Float64("sd_scale", level.SDScale),
			logger.Int("repetitions", r.opts.Repetitions))

		results := make([]*sim.Result, 0, r.opts.Repetitions)
		for rep := 0; rep < r.opts.Repetitions; rep++ {
			res, err := r.runOne(ctx, sep, li, rep)
			if err != nil {
				return nil, fmt.Errorf("level %d repetition %d: %w", li, rep, err)
			}
			results = append(results, res)
		}

		summaries = append(summaries, summarize(level, results))
	}

	if r.opts.OutputDir != "" {
		path := filepath.Join(r.opts.OutputDir, "summary.csv")
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create summary file: %w", err)
		}
		defer f.Close()
		if err := WriteSummary(f, summaries); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
		r.logger.Info("Sweep summary written", logger.String("path", path))
	}

	return summaries, nil
}

func (r *Runner) runOne(ctx context.Context, sep *sim.SeparationModel, level, rep int) (*sim.Result, error) {
	params := r.opts.Base
	params.Separation = sep
	params.Seed = r.opts.Base.Seed + int64(level)*10000 + int64(rep)

	var sink sim.Sink = sim.NopSink{}
	var ew *EventWriter
	if r.opts.OutputDir != "" {
		name := fmt.Sprintf("run-l%02d-r%03d.csv", level, rep)
		f, err := os.Create(filepath.Join(r.opts.OutputDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create event log: %w", err)
		}
		defer f.Close()
		ew = NewEventWriter(f)
		sink = ew
	}

	engine, err := sim.New(params, r.logger, sink)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	if ew != nil {
		if err := ew.Err(); err != nil {
			return nil, fmt.Errorf("event log write failed: %w", err)
		}
	}
	return res, nil
}

func summarize(level Level, results []*sim.Result) LevelSummary {
	pick := func(f func(*sim.Result) float64) Aggregate {
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = f(r)
		}
		return aggregate(vals)
	}
	return LevelSummary{
		MeanScale:   level.MeanScale,
		SDScale:     level.SDScale,
		Repetitions: len(results),
		FinalTime:   pick(func(r *sim.Result) float64 { return float64(r.FinalTime) }),
		Circlings:   pick(func(r *sim.Result) float64 { return float64(r.Stats.Nc) }),
		Landings:    pick(func(r *sim.Result) float64 { return float64(r.Stats.Nlz) }),
		Thresholds:  pick(func(r *sim.Result) float64 { return float64(r.Stats.Ntp) }),
		TOver4:      pick(func(r *sim.Result) float64 { return float64(r.Stats.TOver4) }),
	}
}

// aggregate computes the sample mean and (n-1) standard deviation.
func aggregate(vals []float64) Aggregate {
	n := float64(len(vals))
	if n == 0 {
		return Aggregate{}
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / n
	if len(vals) < 2 {
		return Aggregate{Mean: mean}
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return Aggregate{Mean: mean, Stdev: math.Sqrt(ss / (n - 1))}
}

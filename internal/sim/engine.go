package sim

import (
	"context"
	"fmt"
	"strings"

	"github.com/avickers/runwaysim/pkg/logger"
)

// Params configures a single run. Zero-value optional fields fall back to
// defaults in New; ArrivalCount is required.
type Params struct {
	ArrivalCount int
	Seed         int64

	// Duration, when positive, cuts the run off at that simulated second
	// even if aircraft remain in flight. Zero runs to completion.
	Duration int64

	// Separation is consulted for queue-entry chaining. Nil means the
	// built-in default tables.
	Separation *SeparationModel

	// Profile selects the timing variant. The zero value is replaced by
	// StandardProfile.
	Profile Profile
}

// Result carries a run's final counters and clock.
type Result struct {
	Stats     Stats `json:"stats"`
	FinalTime int64 `json:"final_time"`
	Completed bool  `json:"completed"`
	Events    int   `json:"events"`
}

// Engine owns the aircraft population, the five queues, the landing zone
// and the statistics for one run. It is single-threaded: all waiting is
// virtual-clock bookkeeping on NextTransitionAt, never a real delay, and
// runway exclusivity follows purely from the sequential phase ordering.
type Engine struct {
	params  Params
	profile Profile
	sampler *Sampler
	sep     *SeparationModel
	logger  *logger.Logger
	sink    Sink

	now    int64
	future *Queue
	appr   *Queue
	circ   *Queue
	land   *Queue
	zone   LandingZone
	done   []*Aircraft
	stats  Stats
	events int
}

// New validates params, builds the aircraft population with sampled arrival
// times and starts the clock at zero.
func New(params Params, log *logger.Logger, sink Sink) (*Engine, error) {
	if params.ArrivalCount <= 0 {
		return nil, fmt.Errorf("arrival_count must be positive, got %d", params.ArrivalCount)
	}
	if params.Duration < 0 {
		return nil, fmt.Errorf("duration must be non-negative, got %d", params.Duration)
	}
	profile := params.Profile
	if profile.Name == "" {
		profile = StandardProfile()
	}
	sep := params.Separation
	if sep == nil {
		sep = DefaultSeparation()
	}
	if sink == nil {
		sink = NopSink{}
	}

	e := &Engine{
		params:  params,
		profile: profile,
		sampler: NewSampler(params.Seed),
		sep:     sep,
		logger:  log.Named("engine"),
		sink:    sink,
		future:  NewQueue("future-arrivals"),
		appr:    NewQueue("approaching"),
		circ:    NewQueue("circling"),
		land:    NewQueue("landing-queue"),
	}

	// The population is created up front: each aircraft starts Contacted
	// with a cumulative sampled arrival time, so the future-arrivals queue
	// is sorted by construction.
	var at int64
	for i := 0; i < params.ArrivalCount; i++ {
		at += e.sampler.Sample(profile.InterarrivalMean, profile.InterarrivalSD)
		a := &Aircraft{
			ID:               i + 1,
			Flight:           fmt.Sprintf("FL%03d", e.sampler.Intn(999)+1),
			Class:            e.drawClass(),
			State:            StateContacted,
			NextTransitionAt: at,
		}
		e.future.Push(a)
	}

	e.logger.Debug("Engine initialized",
		logger.String("profile", profile.Name),
		logger.Int("arrival_count", params.ArrivalCount),
		logger.Int64("seed", params.Seed))
	return e, nil
}

func (e *Engine) drawClass() Class {
	f := e.sampler.Float64()
	switch {
	case f < probHeavy:
		return ClassHeavy
	case f < probHeavy+probLarge:
		return ClassLarge
	default:
		return ClassSmall
	}
}

// Now returns the current virtual clock.
func (e *Engine) Now() int64 { return e.now }

// Stats returns a copy of the current counters.
func (e *Engine) Stats() Stats { return e.stats }

// Run drives the simulation to completion, the configured cutoff, or
// context cancellation. A time jump landing before the current clock is an
// internal consistency failure and aborts the run with full state context.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.emit(EventStart)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := e.tick(); err != nil {
			return nil, err
		}

		if len(e.done) == e.params.ArrivalCount {
			e.stats.CloseIntervals(e.now)
			break
		}
		if e.params.Duration > 0 && e.now >= e.params.Duration {
			e.stats.CloseIntervals(e.now)
			break
		}

		jump := e.nextJump()
		if jump < e.now {
			return nil, fmt.Errorf("time jump %d before current clock %d: %s", jump, e.now, e.stateContext())
		}
		e.now = jump
	}

	completed := len(e.done) == e.params.ArrivalCount
	e.logger.Info("Run finished",
		logger.Bool("completed", completed),
		logger.Int64("final_time", e.now),
		logger.Int("landed", e.stats.Nd),
		logger.Int("circlings", e.stats.Nc),
		logger.Int64("t_over4", e.stats.TOver4))

	return &Result{
		Stats:     e.stats,
		FinalTime: e.now,
		Completed: completed,
		Events:    e.events,
	}, nil
}

// tick runs the five drain phases in fixed order at the current instant.
// Each phase repeats while its ready condition holds, so cascades of
// instantaneous transitions resolve fully before the clock advances.
func (e *Engine) tick() error {
	// Phase 1: arrivals begin their approach.
	for e.future.Head() != nil && e.future.Head().Ready(e.now) {
		a := e.future.Pop()
		dur := e.sampler.Sample(e.profile.ApproachMean, e.profile.ApproachSD)
		if err := a.Approach(e.now, dur); err != nil {
			return err
		}
		e.appr.Push(a)
		e.stats.Na++
		e.emit(EventApproach)
	}

	// Phase 2: circling completions re-enter the landing queue.
	if err := e.drainIntoLandingQueue(e.circ); err != nil {
		return err
	}

	// Phase 3: approach completions enter the landing queue.
	if err := e.drainIntoLandingQueue(e.appr); err != nil {
		return err
	}

	// Phase 4: a finished landing clears the runway.
	for e.zone.Occupied() && e.zone.Occupant().Ready(e.now) {
		a := e.zone.Release()
		if err := a.Finish(e.now); err != nil {
			return err
		}
		e.done = append(e.done, a)
		e.stats.Nd++
		e.emit(EventFinish)
	}

	// Phase 5: ready queue heads land or divert depending on occupancy.
	for e.land.Head() != nil && e.land.Head().Ready(e.now) {
		if !e.zone.Occupied() {
			a := e.land.Pop()
			dur := e.sampler.Sample(e.profile.LandingMean, e.profile.LandingSD)
			if err := a.StartLanding(e.now, dur, false); err != nil {
				return err
			}
			if err := e.zone.Admit(a); err != nil {
				return err
			}
			e.stats.Nlz++
			e.stats.Ntp++
			e.emit(EventStartLanding)
			continue
		}

		if !e.profile.CirclingEnabled {
			occ := e.zone.Occupant()
			if occ.NextTransitionAt <= e.now {
				// A zero-length landing leaves the occupant ready at this
				// same instant. Stop here; the next tick's runway-clearing
				// phase releases it before this phase runs again.
				break
			}
			// Without a circling path the ready head holds in the queue
			// until the occupant clears; rescheduling it to that instant
			// keeps the clock advancing.
			e.land.Head().NextTransitionAt = occ.NextTransitionAt
			e.land.Resort()
			continue
		}

		a := e.land.Pop()
		dur := e.sampler.Sample(e.profile.CirclingMean, e.profile.CirclingSD)
		if err := a.StartCircling(e.now, dur, true); err != nil {
			return err
		}
		e.circ.Push(a)
		e.stats.Nc++
		if e.profile.CountCirclingAtThreshold {
			e.stats.Ntp++
		}
		e.emit(EventStartCircling)
	}

	return nil
}

// drainIntoLandingQueue moves ready aircraft from src into the landing
// queue, computing each one's exit threshold with the separation rule.
func (e *Engine) drainIntoLandingQueue(src *Queue) error {
	for src.Head() != nil && src.Head().Ready(e.now) {
		a := src.Pop()
		threshold := e.entryThreshold(a)
		if err := a.Enqueue(e.now, threshold); err != nil {
			return err
		}
		e.land.Push(a)
		e.stats.Nlq++
		e.emit(EventEnqueue)
	}
	return nil
}

// entryThreshold implements the queue-entry separation rule: the minimum
// approach separation into an empty queue, otherwise a sampled gap chained
// off the current tail's exit time. Chaining makes exit times
// non-decreasing in queue order, so no overtaking is possible.
func (e *Engine) entryThreshold(a *Aircraft) int64 {
	leader := e.land.Tail()
	if leader == nil {
		return e.now + MinSeparationSecs
	}
	mean, sd := e.sep.Lookup(leader.Class, a.Class)
	return leader.NextTransitionAt + e.sampler.Sample(mean, sd)
}

// nextJump computes the earliest pending transition time across all
// non-empty queues, or now+1 when nothing is pending.
func (e *Engine) nextJump() int64 {
	jump := int64(-1)
	consider := func(eta int64) {
		if eta >= 0 && (jump < 0 || eta < jump) {
			jump = eta
		}
	}
	consider(e.future.HeadETA())
	consider(e.appr.HeadETA())
	consider(e.circ.HeadETA())
	consider(e.land.HeadETA())
	consider(e.zone.HeadETA())
	if jump < 0 {
		return e.now + 1
	}
	return jump
}

// emit updates the congestion integral and hands a snapshot to the sink.
func (e *Engine) emit(event string) {
	e.stats.ObserveQueueDepth(e.now, e.land.Len())

	doneLetters := ""
	for _, a := range e.done {
		doneLetters += a.Class.Letter()
	}

	e.events++
	e.sink.Record(Snapshot{
		Time:              e.now,
		Event:             event,
		FutureArrivals:    e.future.Letters(),
		Approaching:       e.appr.Letters(),
		LandingQueue:      e.land.Letters(),
		Circling:          e.circ.Letters(),
		LandingZone:       e.zone.Letters(),
		Done:              doneLetters,
		FutureArrivalsETA: e.future.HeadETA(),
		ApproachingETA:    e.appr.HeadETA(),
		LandingQueueETA:   e.land.HeadETA(),
		CirclingETA:       e.circ.HeadETA(),
		LandingZoneETA:    e.zone.HeadETA(),
		Na:                e.stats.Na,
		Nlq:               e.stats.Nlq,
		Nc:                e.stats.Nc,
		Nlz:               e.stats.Nlz,
		Ntp:               e.stats.Ntp,
		Nd:                e.stats.Nd,
		Over4:             e.stats.Over4(),
		TOver4:            e.stats.TOver4,
	})
}

func (e *Engine) stateContext() string {
	var b strings.Builder
	fmt.Fprintf(&b, "now=%d", e.now)
	for _, q := range []*Queue{e.future, e.appr, e.land, e.circ} {
		fmt.Fprintf(&b, " %s=%q(eta=%d)", q.Name(), q.Letters(), q.HeadETA())
	}
	fmt.Fprintf(&b, " zone=%q(eta=%d) done=%d stats=%+v",
		e.zone.Letters(), e.zone.HeadETA(), len(e.done), e.stats)
	return b.String()
}

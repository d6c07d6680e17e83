package sim

import "fmt"

// Aircraft is an individually typed entity moving through the
// arrival-to-landing lifecycle. NextTransitionAt is the absolute simulation
// time of its next pending transition and is meaningful in every state but
// Done; it is the single scheduling accessor regardless of which queue
// currently holds the aircraft.
type Aircraft struct {
	ID               int
	Flight           string
	Class            Class
	State            State
	NextTransitionAt int64
}

// validNext enumerates the allowed state transitions. State never moves
// backward except for the circling loop re-entering the landing queue.
var validNext = map[State]map[State]bool{
	StateContacted:   {StateApproaching: true},
	StateApproaching: {StateQueuing: true},
	StateQueuing:     {StateCircling: true, StateLanding: true},
	StateCircling:    {StateQueuing: true},
	StateLanding:     {StateDone: true},
}

// Ready reports whether the aircraft's pending transition is due at now.
// Guards are time-equality checks against the virtual clock, not
// countdowns, which is what lets the engine jump the clock between events.
func (a *Aircraft) Ready(now int64) bool {
	return a.State != StateDone && a.NextTransitionAt == now
}

func (a *Aircraft) advance(to State, next, now int64) error {
	if !validNext[a.State][to] {
		return fmt.Errorf("aircraft %s: invalid transition %s -> %s", a.Flight, a.State, to)
	}
	if to != StateDone && next < now {
		return fmt.Errorf("aircraft %s: transition %s -> %s scheduled at %d, before now %d",
			a.Flight, a.State, to, next, now)
	}
	a.State = to
	a.NextTransitionAt = next
	return nil
}

// Approach moves a contacted aircraft onto the approach. approachDur is the
// sampled approach duration.
func (a *Aircraft) Approach(now, approachDur int64) error {
	return a.advance(StateApproaching, now+approachDur, now)
}

// Enqueue moves an approaching or circling aircraft into the landing queue.
// threshold is the queue-exit time computed by the separation rule.
func (a *Aircraft) Enqueue(now, threshold int64) error {
	if !a.Ready(now) {
		return fmt.Errorf("aircraft %s: enqueue at %d but transition due at %d",
			a.Flight, now, a.NextTransitionAt)
	}
	return a.advance(StateQueuing, threshold, now)
}

// StartCircling diverts a queued aircraft whose threshold arrived while the
// landing zone was occupied. circleDur is the sampled circling duration.
func (a *Aircraft) StartCircling(now, circleDur int64, zoneOccupied bool) error {
	if !a.Ready(now) {
		return fmt.Errorf("aircraft %s: start_circling at %d but transition due at %d",
			a.Flight, now, a.NextTransitionAt)
	}
	if !zoneOccupied {
		return fmt.Errorf("aircraft %s: start_circling with empty landing zone", a.Flight)
	}
	return a.advance(StateCircling, now+circleDur, now)
}

// StartLanding admits a queued aircraft to the landing zone. landingDur is
// the sampled landing duration.
func (a *Aircraft) StartLanding(now, landingDur int64, zoneOccupied bool) error {
	if !a.Ready(now) {
		return fmt.Errorf("aircraft %s: start_landing at %d but transition due at %d",
			a.Flight, now, a.NextTransitionAt)
	}
	if zoneOccupied {
		return fmt.Errorf("aircraft %s: start_landing with occupied landing zone", a.Flight)
	}
	return a.advance(StateLanding, now+landingDur, now)
}

// Finish completes the landing. Terminal; NextTransitionAt is no longer
// meaningful afterwards.
func (a *Aircraft) Finish(now int64) error {
	if !a.Ready(now) {
		return fmt.Errorf("aircraft %s: finish at %d but transition due at %d",
			a.Flight, now, a.NextTransitionAt)
	}
	return a.advance(StateDone, a.NextTransitionAt, now)
}

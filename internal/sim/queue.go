package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Queue is an ordered collection of aircraft sorted ascending by
// NextTransitionAt. Insertion appends then re-sorts with a stable sort, so
// aircraft scheduled for the same instant keep their insertion order. The
// element type is fixed at compile time, which makes the historical runtime
// membership check unnecessary.
type Queue struct {
	name  string
	items []*Aircraft
}

// NewQueue creates an empty queue; name appears in diagnostics.
func NewQueue(name string) *Queue {
	return &Queue{name: name}
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) Len() int { return len(q.items) }

// Push inserts an aircraft and restores time order.
func (q *Queue) Push(a *Aircraft) {
	q.items = append(q.items, a)
	q.Resort()
}

// Resort restores ascending NextTransitionAt order after an in-place
// reschedule of a member aircraft.
func (q *Queue) Resort() {
	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].NextTransitionAt < q.items[j].NextTransitionAt
	})
}

// Head returns the earliest-scheduled aircraft without removing it, or nil.
func (q *Queue) Head() *Aircraft {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Tail returns the latest-scheduled aircraft without removing it, or nil.
// The separation rule chains a new entrant off the current tail.
func (q *Queue) Tail() *Aircraft {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[len(q.items)-1]
}

// Pop removes and returns the head, or nil if the queue is empty.
func (q *Queue) Pop() *Aircraft {
	if len(q.items) == 0 {
		return nil
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a
}

// Letters renders the queue as one type letter per aircraft in queue order.
func (q *Queue) Letters() string {
	var b strings.Builder
	for _, a := range q.items {
		b.WriteString(a.Class.Letter())
	}
	return b.String()
}

// HeadETA returns the head's NextTransitionAt, or -1 when empty.
func (q *Queue) HeadETA() int64 {
	if len(q.items) == 0 {
		return -1
	}
	return q.items[0].NextTransitionAt
}

// LandingZone is the single-occupancy runway resource. Its length is 0 or 1
// at all times; Admit enforces the capacity.
type LandingZone struct {
	occupant *Aircraft
}

func (z *LandingZone) Occupied() bool { return z.occupant != nil }

func (z *LandingZone) Occupant() *Aircraft { return z.occupant }

// Admit places an aircraft on the runway. Admitting over an existing
// occupant is an internal consistency failure.
func (z *LandingZone) Admit(a *Aircraft) error {
	if z.occupant != nil {
		return fmt.Errorf("landing zone occupied by %s, cannot admit %s", z.occupant.Flight, a.Flight)
	}
	z.occupant = a
	return nil
}

// Release vacates the runway and returns the previous occupant, or nil.
func (z *LandingZone) Release() *Aircraft {
	a := z.occupant
	z.occupant = nil
	return a
}

// Letters renders the zone as a zero- or one-letter string.
func (z *LandingZone) Letters() string {
	if z.occupant == nil {
		return ""
	}
	return z.occupant.Class.Letter()
}

// HeadETA returns the occupant's NextTransitionAt, or -1 when empty.
func (z *LandingZone) HeadETA() int64 {
	if z.occupant == nil {
		return -1
	}
	return z.occupant.NextTransitionAt
}

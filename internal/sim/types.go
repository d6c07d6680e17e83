package sim

import "fmt"

// Class is the wake-turbulence class of an aircraft. It is fixed at
// creation and drives the separation table lookup.
type Class int

const (
	ClassSmall Class = iota
	ClassLarge
	ClassHeavy

	numClasses = 3
)

// Class mix used when generating arrivals.
const (
	probHeavy = 0.33
	probLarge = 0.46
)

func (c Class) String() string {
	switch c {
	case ClassSmall:
		return "small"
	case ClassLarge:
		return "large"
	case ClassHeavy:
		return "heavy"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Letter returns the single-character code used in queue snapshots.
func (c Class) Letter() string {
	switch c {
	case ClassSmall:
		return "S"
	case ClassLarge:
		return "L"
	case ClassHeavy:
		return "H"
	default:
		return "?"
	}
}

// ParseClass converts a configuration key into a Class. Unknown keys are
// a configuration error, never silently defaulted.
func ParseClass(s string) (Class, error) {
	switch s {
	case "small":
		return ClassSmall, nil
	case "large":
		return ClassLarge, nil
	case "heavy":
		return ClassHeavy, nil
	default:
		return 0, fmt.Errorf("unknown aircraft class %q (must be 'small', 'large', or 'heavy')", s)
	}
}

// State is the position of an aircraft in its arrival-to-landing lifecycle.
type State int

const (
	StateContacted State = iota
	StateApproaching
	StateQueuing
	StateCircling
	StateLanding
	StateDone
)

func (s State) String() string {
	switch s {
	case StateContacted:
		return "contacted"
	case StateApproaching:
		return "approaching"
	case StateQueuing:
		return "queuing"
	case StateCircling:
		return "circling"
	case StateLanding:
		return "landing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

package sim

import "fmt"

// Profile names the timing-model variants that historical versions of this
// model disagree on: the landing-duration distribution, whether the
// circling path exists at all, and whether circling diversions count
// toward the threshold-point counter. Picking one silently would bake in
// semantics the caller never asked for, so the variant is always explicit.
type Profile struct {
	Name string

	// Distribution parameters, (mean, sd) in seconds.
	InterarrivalMean float64
	InterarrivalSD   float64
	ApproachMean     float64
	ApproachSD       float64
	CirclingMean     float64
	CirclingSD       float64
	LandingMean      float64
	LandingSD        float64

	// CirclingEnabled controls whether an aircraft reaching its threshold
	// with the runway occupied diverts to circling or waits in the queue.
	CirclingEnabled bool

	// CountCirclingAtThreshold controls the Ntp formula: when true,
	// Ntp = Nlz + Nc; when false, Ntp counts runway admissions only.
	CountCirclingAtThreshold bool
}

// StandardProfile is the default variant: landing 750/150, circling path
// enabled, Ntp = Nlz + Nc.
func StandardProfile() Profile {
	return Profile{
		Name:                     "standard",
		InterarrivalMean:         120,
		InterarrivalSD:           30,
		ApproachMean:             600,
		ApproachSD:               150,
		CirclingMean:             750,
		CirclingSD:               150,
		LandingMean:              750,
		LandingSD:                150,
		CirclingEnabled:          true,
		CountCirclingAtThreshold: true,
	}
}

// FastLandingProfile is the short-runway-occupancy variant (landing 120/30).
func FastLandingProfile() Profile {
	p := StandardProfile()
	p.Name = "fast-landing"
	p.LandingMean = 120
	p.LandingSD = 30
	return p
}

// NoCirclingProfile disables the circling path: a ready aircraft facing an
// occupied runway holds in the queue until the occupant clears, and Ntp
// counts runway admissions only.
func NoCirclingProfile() Profile {
	p := StandardProfile()
	p.Name = "no-circling"
	p.CirclingEnabled = false
	p.CountCirclingAtThreshold = false
	return p
}

// ProfileByName resolves a configured profile name.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "standard":
		return StandardProfile(), nil
	case "fast-landing":
		return FastLandingProfile(), nil
	case "no-circling":
		return NoCirclingProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown simulation profile %q (must be 'standard', 'fast-landing', or 'no-circling')", name)
	}
}

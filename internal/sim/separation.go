package sim

import "fmt"

// MinSeparationSecs is the minimum runway-approach separation applied when
// an aircraft enters an empty landing queue.
const MinSeparationSecs = 40

// Default separation tables, indexed [lead][trail], in seconds.
var (
	defaultSeparationMeans = [numClasses][numClasses]float64{
		ClassSmall: {ClassSmall: 60, ClassLarge: 60, ClassHeavy: 60},
		ClassLarge: {ClassSmall: 90, ClassLarge: 75, ClassHeavy: 70},
		ClassHeavy: {ClassSmall: 120, ClassLarge: 110, ClassHeavy: 90},
	}
	defaultSeparationSDs = [numClasses][numClasses]float64{
		ClassSmall: {ClassSmall: 10, ClassLarge: 10, ClassHeavy: 10},
		ClassLarge: {ClassSmall: 15, ClassLarge: 12, ClassHeavy: 10},
		ClassHeavy: {ClassSmall: 20, ClassLarge: 18, ClassHeavy: 15},
	}
)

// SeparationModel maps a (lead class, trailing class) pair to the (mean, sd)
// of the required gap between the two aircraft's queue-exit times. The mean
// and sd tables can be scaled independently for parameter sweeps; Clone
// snapshots the current tables and Reset restores the construction-time
// values.
//
// The model is an explicit configuration value owned by whoever constructs
// the engine; there is no process-wide table.
type SeparationModel struct {
	means [numClasses][numClasses]float64
	sds   [numClasses][numClasses]float64

	baseMeans [numClasses][numClasses]float64
	baseSDs   [numClasses][numClasses]float64
}

// DefaultSeparation returns a model with the built-in tables.
func DefaultSeparation() *SeparationModel {
	m := &SeparationModel{
		means:     defaultSeparationMeans,
		sds:       defaultSeparationSDs,
		baseMeans: defaultSeparationMeans,
		baseSDs:   defaultSeparationSDs,
	}
	return m
}

// NewSeparation builds a model from explicit tables. Every entry must be
// non-negative.
func NewSeparation(means, sds [numClasses][numClasses]float64) (*SeparationModel, error) {
	for lead := 0; lead < numClasses; lead++ {
		for trail := 0; trail < numClasses; trail++ {
			if means[lead][trail] < 0 {
				return nil, fmt.Errorf("separation mean for %s/%s is negative: %v",
					Class(lead), Class(trail), means[lead][trail])
			}
			if sds[lead][trail] < 0 {
				return nil, fmt.Errorf("separation sd for %s/%s is negative: %v",
					Class(lead), Class(trail), sds[lead][trail])
			}
		}
	}
	return &SeparationModel{means: means, sds: sds, baseMeans: means, baseSDs: sds}, nil
}

// SeparationFromTables builds a model from configuration maps keyed by class
// name. Both tables must be complete; an unknown or missing class key is a
// setup-time error, never substituted with a default.
func SeparationFromTables(means, sds map[string]map[string]float64) (*SeparationModel, error) {
	var m, s [numClasses][numClasses]float64
	if err := fillTable(&m, means, "mean"); err != nil {
		return nil, err
	}
	if err := fillTable(&s, sds, "sd"); err != nil {
		return nil, err
	}
	return NewSeparation(m, s)
}

func fillTable(dst *[numClasses][numClasses]float64, src map[string]map[string]float64, which string) error {
	if len(src) == 0 {
		return fmt.Errorf("separation %s table is empty", which)
	}
	seen := [numClasses][numClasses]bool{}
	for leadKey, row := range src {
		lead, err := ParseClass(leadKey)
		if err != nil {
			return fmt.Errorf("separation %s table: %w", which, err)
		}
		for trailKey, v := range row {
			trail, err := ParseClass(trailKey)
			if err != nil {
				return fmt.Errorf("separation %s table, row %q: %w", which, leadKey, err)
			}
			dst[lead][trail] = v
			seen[lead][trail] = true
		}
	}
	for lead := 0; lead < numClasses; lead++ {
		for trail := 0; trail < numClasses; trail++ {
			if !seen[lead][trail] {
				return fmt.Errorf("separation %s table is missing entry %s/%s",
					which, Class(lead), Class(trail))
			}
		}
	}
	return nil
}

// Lookup returns the (mean, sd) for a trailing aircraft following a leader.
func (m *SeparationModel) Lookup(lead, trail Class) (mean, sd float64) {
	return m.means[lead][trail], m.sds[lead][trail]
}

// ScaleMeans multiplies every mean entry by f. Scaling composes, so
// ScaleMeans(f) followed by ScaleMeans(1/f) restores the table up to
// floating-point error.
func (m *SeparationModel) ScaleMeans(f float64) {
	for lead := 0; lead < numClasses; lead++ {
		for trail := 0; trail < numClasses; trail++ {
			m.means[lead][trail] *= f
		}
	}
}

// ScaleSDs multiplies every sd entry by f.
func (m *SeparationModel) ScaleSDs(f float64) {
	for lead := 0; lead < numClasses; lead++ {
		for trail := 0; trail < numClasses; trail++ {
			m.sds[lead][trail] *= f
		}
	}
}

// Reset restores both tables to their construction-time values, discarding
// any accumulated scaling.
func (m *SeparationModel) Reset() {
	m.means = m.baseMeans
	m.sds = m.baseSDs
}

// Clone returns an independent copy sharing no state with the receiver.
func (m *SeparationModel) Clone() *SeparationModel {
	c := *m
	return &c
}

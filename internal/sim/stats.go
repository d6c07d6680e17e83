package sim

// QueueDepthThreshold is the landing-queue depth above which congestion
// time is accumulated into TOver4.
const QueueDepthThreshold = 4

// Stats holds the monotonic event counters and the over-threshold time
// integral for a single run.
//
// Counter meanings: Na arrivals begun, Nlq landing-queue entries, Nc
// circling diversions, Nlz landing-zone admissions, Ntp threshold-point
// reaches, Nd completed landings.
type Stats struct {
	Na  int   `json:"na"`
	Nlq int   `json:"nlq"`
	Nc  int   `json:"nc"`
	Nlz int   `json:"nlz"`
	Ntp int   `json:"ntp"`
	Nd  int   `json:"nd"`

	// TOver4 is the total simulated seconds during which the landing
	// queue held more than QueueDepthThreshold aircraft.
	TOver4 int64 `json:"t_over4"`

	over4      bool
	over4Since int64
}

// Over4 reports whether the landing queue currently exceeds the threshold.
func (s *Stats) Over4() bool { return s.over4 }

// ObserveQueueDepth updates the over-threshold interval bookkeeping. Called
// after every state-changing event with the current landing-queue depth.
// Entering the over-threshold condition records the interval start; leaving
// it adds the elapsed interval to TOver4.
func (s *Stats) ObserveQueueDepth(now int64, depth int) {
	over := depth > QueueDepthThreshold
	switch {
	case over && !s.over4:
		s.over4 = true
		s.over4Since = now
	case !over && s.over4:
		s.TOver4 += now - s.over4Since
		s.over4 = false
	}
}

// CloseIntervals finalizes an open over-threshold interval at run end, so
// a run cut off while congested still accounts for the trailing interval.
func (s *Stats) CloseIntervals(now int64) {
	if s.over4 {
		s.TOver4 += now - s.over4Since
		s.over4 = false
	}
}

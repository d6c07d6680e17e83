package sim

// Snapshot is the structured record emitted to the event sink after every
// state-changing event: the simulation time, a type-letter rendering of
// each queue in queue order, the head-of-queue ETA for each (-1 when
// empty), and the current counters.
type Snapshot struct {
	Time  int64  `json:"time"`
	Event string `json:"event"`

	FutureArrivals string `json:"future_arrivals"`
	Approaching    string `json:"approaching"`
	LandingQueue   string `json:"landing_queue"`
	Circling       string `json:"circling"`
	LandingZone    string `json:"landing_zone"`
	Done           string `json:"done"`

	FutureArrivalsETA int64 `json:"future_arrivals_eta"`
	ApproachingETA    int64 `json:"approaching_eta"`
	LandingQueueETA   int64 `json:"landing_queue_eta"`
	CirclingETA       int64 `json:"circling_eta"`
	LandingZoneETA    int64 `json:"landing_zone_eta"`

	Na  int `json:"na"`
	Nlq int `json:"nlq"`
	Nc  int `json:"nc"`
	Nlz int `json:"nlz"`
	Ntp int `json:"ntp"`
	Nd  int `json:"nd"`

	Over4  bool  `json:"over4"`
	TOver4 int64 `json:"t_over4"`
}

// Event labels carried on snapshots.
const (
	EventStart         = "start"
	EventApproach      = "approach"
	EventEnqueue       = "enqueue"
	EventStartCircling = "start_circling"
	EventStartLanding  = "start_landing"
	EventFinish        = "finish"
)

// Sink receives one snapshot per state-changing event. Implementations
// must not retain the snapshot past the call; it is passed by value.
type Sink interface {
	Record(Snapshot)
}

// MultiSink fans a snapshot out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Record(s Snapshot) {
	for _, sink := range m {
		sink.Record(s)
	}
}

// NopSink discards every snapshot.
type NopSink struct{}

func (NopSink) Record(Snapshot) {}

// MemorySink retains every snapshot, for tests and for persisting a
// completed run's event log.
type MemorySink struct {
	Snapshots []Snapshot
}

func (m *MemorySink) Record(s Snapshot) {
	m.Snapshots = append(m.Snapshots, s)
}

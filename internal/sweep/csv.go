package sweep

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/avickers/runwaysim/internal/sim"
)

// Event log and summary serialization: quoted comma-separated fields with a
// header row.

var eventHeader = []string{
	"time", "event",
	"future_arrivals", "approaching", "landing_queue", "circling", "landing_zone", "done",
	"future_arrivals_eta", "approaching_eta", "landing_queue_eta", "circling_eta", "landing_zone_eta",
	"na", "nlq", "nc", "nlz", "ntp", "nd", "over4", "t_over4",
}

// EventWriter is a Sink that streams one quoted CSV row per snapshot.
type EventWriter struct {
	w      io.Writer
	err    error
	header bool
}

// NewEventWriter wraps w; the header row is written before the first record.
func NewEventWriter(w io.Writer) *EventWriter {
	return &EventWriter{w: w}
}

// Record implements sim.Sink.
func (ew *EventWriter) Record(s sim.Snapshot) {
	if ew.err != nil {
		return
	}
	if !ew.header {
		ew.header = true
		if err := writeQuotedRow(ew.w, eventHeader); err != nil {
			ew.err = err
			return
		}
	}
	row := []string{
		strconv.FormatInt(s.Time, 10), s.Event,
		s.FutureArrivals, s.Approaching, s.LandingQueue, s.Circling, s.LandingZone, s.Done,
		strconv.FormatInt(s.FutureArrivalsETA, 10),
		strconv.FormatInt(s.ApproachingETA, 10),
		strconv.FormatInt(s.LandingQueueETA, 10),
		strconv.FormatInt(s.CirclingETA, 10),
		strconv.FormatInt(s.LandingZoneETA, 10),
		strconv.Itoa(s.Na), strconv.Itoa(s.Nlq), strconv.Itoa(s.Nc),
		strconv.Itoa(s.Nlz), strconv.Itoa(s.Ntp), strconv.Itoa(s.Nd),
		strconv.FormatBool(s.Over4),
		strconv.FormatInt(s.TOver4, 10),
	}
	ew.err = writeQuotedRow(ew.w, row)
}

// Err reports the first write error, if any.
func (ew *EventWriter) Err() error { return ew.err }

var summaryHeader = []string{
	"mean_scale", "sd_scale", "repetitions",
	"final_time_mean", "final_time_stdev",
	"nc_mean", "nc_stdev",
	"nlz_mean", "nlz_stdev",
	"ntp_mean", "ntp_stdev",
	"t_over4_mean", "t_over4_stdev",
}

// WriteSummary writes the cross-run summary table for all sweep levels.
func WriteSummary(w io.Writer, levels []LevelSummary) error {
	if err := writeQuotedRow(w, summaryHeader); err != nil {
		return err
	}
	for _, l := range levels {
		row := []string{
			formatFloat(l.MeanScale), formatFloat(l.SDScale), strconv.Itoa(l.Repetitions),
			formatFloat(l.FinalTime.Mean), formatFloat(l.FinalTime.Stdev),
			formatFloat(l.Circlings.Mean), formatFloat(l.Circlings.Stdev),
			formatFloat(l.Landings.Mean), formatFloat(l.Landings.Stdev),
			formatFloat(l.Thresholds.Mean), formatFloat(l.Thresholds.Stdev),
			formatFloat(l.TOver4.Mean), formatFloat(l.TOver4.Stdev),
		}
		if err := writeQuotedRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func writeQuotedRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}

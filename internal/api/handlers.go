package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/avickers/runwaysim/internal/config"
	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/internal/storage/sqlite"
	"github.com/avickers/runwaysim/internal/sweep"
	"github.com/avickers/runwaysim/internal/websocket"
	"github.com/avickers/runwaysim/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	storage  *sqlite.RunStorage
	config   *config.Config
	logger   *logger.Logger
	wsServer *websocket.Server

	// One simulation at a time. Runs finish in milliseconds of wall time,
	// so a mutex is simpler than a job queue.
	runMu sync.Mutex
}

// NewHandler creates a new API handler
func NewHandler(storage *sqlite.RunStorage, cfg *config.Config, log *logger.Logger, ws *websocket.Server) *Handler {
	return &Handler{
		storage:  storage,
		config:   cfg,
		logger:   log.Named("api-handler"),
		wsServer: ws,
	}
}

// RunRequest is the body of POST /api/v1/runs. Zero values fall back to
// the configured defaults.
type RunRequest struct {
	ArrivalCount int     `json:"arrival_count,omitempty"`
	Seed         int64   `json:"seed,omitempty"`
	Duration     int64   `json:"duration_seconds,omitempty"`
	Profile      string  `json:"profile,omitempty"`
	MeanScale    float64 `json:"mean_scale,omitempty"`
	SDScale      float64 `json:"sd_scale,omitempty"`
}

// RunResponse is the body returned once a run completes.
type RunResponse struct {
	Run    *sqlite.RunRecord `json:"run"`
	Events int               `json:"events"`
}

// CreateRun executes a simulation synchronously and persists the result.
// Snapshots are streamed to WebSocket clients while the run executes.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}

	params, profileName, err := h.buildParams(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.runMu.Lock()
	defer h.runMu.Unlock()

	h.logger.Info("Starting simulation run",
		logger.String("profile", profileName),
		logger.Int("arrival_count", params.ArrivalCount),
		logger.Int64("seed", params.Seed))

	mem := &sim.MemorySink{}
	sink := sim.MultiSink{mem}
	if h.wsServer != nil {
		// Run id is not known yet; the storage assigns it. Stream with a
		// placeholder id of 0 and announce the real id on completion.
		h.wsServer.BroadcastRunStarted(0, req)
		sink = append(sink, h.wsServer.Sink(0))
	}

	engine, err := sim.New(params, h.logger, sink)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := engine.Run(r.Context())
	if err != nil {
		h.logger.Error("Simulation run failed", logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rec := &sqlite.RunRecord{
		Profile:      profileName,
		Seed:         params.Seed,
		ArrivalCount: params.ArrivalCount,
		MeanScale:    orOne(req.MeanScale),
		SDScale:      orOne(req.SDScale),
		FinalTime:    result.FinalTime,
		Completed:    result.Completed,
		Na:           result.Stats.Na,
		Nlq:          result.Stats.Nlq,
		Nc:           result.Stats.Nc,
		Nlz:          result.Stats.Nlz,
		Ntp:          result.Stats.Ntp,
		Nd:           result.Stats.Nd,
		TOver4:       result.Stats.TOver4,
	}
	id, err := h.storage.SaveRun(rec)
	if err != nil {
		h.logger.Error("Failed to save run", logger.Error(err))
		http.Error(w, "failed to save run", http.StatusInternalServerError)
		return
	}
	rec.ID = id

	if err := h.storage.ReplaceEvents(id, mem.Snapshots); err != nil {
		h.logger.Error("Failed to store event log", logger.Error(err))
		http.Error(w, "failed to store event log", http.StatusInternalServerError)
		return
	}

	if h.wsServer != nil {
		h.wsServer.BroadcastRunCompleted(rec)
	}

	h.logger.Info("Simulation run completed",
		logger.Int64("run_id", id),
		logger.Int64("final_time", result.FinalTime),
		logger.Int("landings", result.Stats.Nd))

	WriteJSON(w, http.StatusCreated, RunResponse{Run: rec, Events: len(mem.Snapshots)})
}

// ListRuns returns the most recent runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.storage.ListRuns(limit)
	if err != nil {
		h.logger.Error("Failed to list runs", logger.Error(err))
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*sqlite.RunRecord{}
	}
	WriteJSON(w, http.StatusOK, runs)
}

// GetRun returns a single run by id
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := h.storage.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// GetRunEvents returns the stored event log for a run. Only the most recent
// run's log is retained, so older runs return an empty list.
func (h *Handler) GetRunEvents(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.storage.GetRun(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	events, err := h.storage.EventsForRun(id)
	if err != nil {
		h.logger.Error("Failed to load event log", logger.Error(err))
		http.Error(w, "failed to load event log", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []sim.Snapshot{}
	}
	WriteJSON(w, http.StatusOK, events)
}

// SweepRequest is the body of POST /api/v1/sweep. Empty fields fall back
// to the configured sweep section.
type SweepRequest struct {
	Levels      []sweep.Level `json:"levels,omitempty"`
	Repetitions int           `json:"repetitions,omitempty"`
}

// CreateSweep executes a parameter sweep synchronously and returns the
// per-level summaries. Sweep runs are not persisted or streamed; they are
// an analysis tool, not a replay source.
func (h *Handler) CreateSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}

	levels := req.Levels
	if len(levels) == 0 {
		for _, l := range h.config.Sweep.Levels {
			levels = append(levels, sweep.Level{MeanScale: l.MeanScale, SDScale: l.SDScale})
		}
	}
	reps := req.Repetitions
	if reps == 0 {
		reps = h.config.Sweep.Repetitions
	}

	base, _, err := h.buildParams(RunRequest{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.runMu.Lock()
	defer h.runMu.Unlock()

	runner, err := sweep.NewRunner(sweep.Options{
		Base:        base,
		Levels:      levels,
		Repetitions: reps,
	}, h.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	summaries, err := runner.Run(r.Context())
	if err != nil {
		h.logger.Error("Sweep failed", logger.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, summaries)
}

// buildParams merges a request with the configured defaults into engine
// parameters.
func (h *Handler) buildParams(req RunRequest) (sim.Params, string, error) {
	cfg := h.config.Simulation

	profileName := req.Profile
	if profileName == "" {
		profileName = cfg.Profile
	}
	profile, err := sim.ProfileByName(profileName)
	if err != nil {
		return sim.Params{}, "", err
	}

	sep, err := separationFromConfig(h.config)
	if err != nil {
		return sim.Params{}, "", err
	}
	meanScale := req.MeanScale
	if meanScale == 0 {
		meanScale = cfg.MeanScale
	}
	sdScale := req.SDScale
	if sdScale == 0 {
		sdScale = cfg.SDScale
	}
	if meanScale != 0 && meanScale != 1 {
		sep.ScaleMeans(meanScale)
	}
	if sdScale != 0 && sdScale != 1 {
		sep.ScaleSDs(sdScale)
	}

	params := sim.Params{
		ArrivalCount: cfg.ArrivalCount,
		Seed:         cfg.Seed,
		Duration:     cfg.DurationSecs,
		Separation:   sep,
		Profile:      profile,
	}
	if req.ArrivalCount != 0 {
		if req.ArrivalCount < 0 {
			return sim.Params{}, "", fmt.Errorf("invalid arrival_count: %d", req.ArrivalCount)
		}
		params.ArrivalCount = req.ArrivalCount
	}
	if req.Seed != 0 {
		params.Seed = req.Seed
	}
	if req.Duration != 0 {
		if req.Duration < 0 {
			return sim.Params{}, "", fmt.Errorf("invalid duration_seconds: %d", req.Duration)
		}
		params.Duration = req.Duration
	}
	return params, profile.Name, nil
}

func separationFromConfig(cfg *config.Config) (*sim.SeparationModel, error) {
	if !cfg.HasSeparationOverride() {
		return sim.DefaultSeparation(), nil
	}
	return sim.SeparationFromTables(cfg.Separation.Means, cfg.Separation.SDs)
}

func runID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id")
	}
	return id, nil
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avickers/runwaysim/internal/api"
	"github.com/avickers/runwaysim/internal/config"
	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/internal/storage/sqlite"
	"github.com/avickers/runwaysim/internal/sweep"
	"github.com/avickers/runwaysim/internal/websocket"
	"github.com/avickers/runwaysim/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	sweepMode := flag.Bool("sweep", false, "Run the configured parameter sweep instead of a single simulation")
	serveMode := flag.Bool("serve", false, "Start the HTTP/WebSocket server instead of a single simulation")
	outPath := flag.String("out", "", "Write the single run's event log to this CSV file (default stdout)")
	seed := flag.Int64("seed", 0, "Override the configured random seed")
	arrivals := flag.Int("n", 0, "Override the configured arrival count")
	profile := flag.String("profile", "", "Override the configured timing profile (standard, fast-landing, no-circling)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply command line overrides before validation
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *arrivals != 0 {
		cfg.Simulation.ArrivalCount = *arrivals
	}
	if *profile != "" {
		cfg.Simulation.Profile = *profile
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting runwaysim",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *serveMode:
		err = runServer(ctx, cfg, log)
	case *sweepMode:
		err = runSweep(ctx, cfg, log)
	default:
		err = runOnce(ctx, cfg, log, *outPath)
	}
	if err != nil {
		log.Error("Run failed", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// buildParams converts the simulation config section into engine parameters.
func buildParams(cfg *config.Config) (sim.Params, error) {
	profile, err := sim.ProfileByName(cfg.Simulation.Profile)
	if err != nil {
		return sim.Params{}, err
	}

	sep := sim.DefaultSeparation()
	if cfg.HasSeparationOverride() {
		sep, err = sim.SeparationFromTables(cfg.Separation.Means, cfg.Separation.SDs)
		if err != nil {
			return sim.Params{}, err
		}
	}
	if s := cfg.Simulation.MeanScale; s != 0 && s != 1 {
		sep.ScaleMeans(s)
	}
	if s := cfg.Simulation.SDScale; s != 0 && s != 1 {
		sep.ScaleSDs(s)
	}

	return sim.Params{
		ArrivalCount: cfg.Simulation.ArrivalCount,
		Seed:         cfg.Simulation.Seed,
		Duration:     cfg.Simulation.DurationSecs,
		Separation:   sep,
		Profile:      profile,
	}, nil
}

// runOnce executes a single simulation and writes its event log as CSV to
// stdout or the -out file.
func runOnce(ctx context.Context, cfg *config.Config, log *logger.Logger, outPath string) error {
	params, err := buildParams(cfg)
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	ew := sweep.NewEventWriter(out)

	engine, err := sim.New(params, log, ew)
	if err != nil {
		return err
	}
	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	if err := ew.Err(); err != nil {
		return fmt.Errorf("event log write failed: %w", err)
	}

	log.Info("Simulation finished",
		logger.String("profile", params.Profile.Name),
		logger.Int64("final_time", result.FinalTime),
		logger.Bool("completed", result.Completed),
		logger.Int("arrivals", result.Stats.Na),
		logger.Int("queue_entries", result.Stats.Nlq),
		logger.Int("circlings", result.Stats.Nc),
		logger.Int("landings", result.Stats.Nlz),
		logger.Int("thresholds", result.Stats.Ntp),
		logger.Int("done", result.Stats.Nd),
		logger.Int64("t_over4", result.Stats.TOver4))
	return nil
}

// runSweep executes the configured parameter sweep.
func runSweep(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	base, err := buildParams(cfg)
	if err != nil {
		return err
	}

	levels := make([]sweep.Level, 0, len(cfg.Sweep.Levels))
	for _, l := range cfg.Sweep.Levels {
		levels = append(levels, sweep.Level{MeanScale: l.MeanScale, SDScale: l.SDScale})
	}

	outputDir := cfg.Sweep.OutputDir
	if outputDir == "" {
		outputDir = "sweep-output"
	}

	runner, err := sweep.NewRunner(sweep.Options{
		Base:        base,
		Levels:      levels,
		Repetitions: cfg.Sweep.Repetitions,
		OutputDir:   outputDir,
	}, log)
	if err != nil {
		return err
	}

	summaries, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	for _, s := range summaries {
		log.Info("Sweep level finished",
			logger.Float64("mean_scale", s.MeanScale),
			logger.Float64("sd_scale", s.SDScale),
			logger.Float64("final_time_mean", s.FinalTime.Mean),
			logger.Float64("circlings_mean", s.Circlings.Mean),
			logger.Float64("t_over4_mean", s.TOver4.Mean))
	}
	log.Info("Sweep finished", logger.String("output_dir", outputDir))
	return nil
}

// runServer starts the HTTP API and WebSocket hub and blocks until the
// process receives an interrupt.
func runServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	dbPath := cfg.Storage.SQLitePath
	if dbPath == "" {
		dbPath = "runwaysim.db"
	}
	storage, err := sqlite.NewRunStorage(dbPath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer storage.Close()

	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	router := api.NewRouter(storage, cfg, log, wsServer)

	host := cfg.Server.Host
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(orDefault(cfg.Server.ReadTimeoutSecs, 30)) * time.Second,
		WriteTimeout: time.Duration(orDefault(cfg.Server.WriteTimeoutSecs, 120)) * time.Second,
		IdleTimeout:  time.Duration(orDefault(cfg.Server.IdleTimeoutSecs, 120)) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	log.Info("Server stopped.")
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

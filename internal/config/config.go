package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings (serve mode)
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
	Simulation SimulationConfig `toml:"simulation"` // Single-run simulation parameters
	Separation SeparationConfig `toml:"separation"` // Separation table overrides
	Sweep      SweepConfig      `toml:"sweep"`      // Parameter sweep settings
	Storage    StorageConfig    `toml:"storage"`    // Run persistence settings (serve mode)
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next keep-alive request
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// SimulationConfig contains the parameters of a single run
type SimulationConfig struct {
	ArrivalCount    int     `toml:"arrival_count"`    // Number of aircraft to generate (required, positive)
	Seed            int64   `toml:"seed"`             // Random seed; the only source of non-determinism
	DurationSecs    int64   `toml:"duration_seconds"` // Optional run cutoff in simulated seconds (0 = run to completion)
	Profile         string  `toml:"profile"`          // Timing variant: "standard", "fast-landing", or "no-circling"
	MeanScale       float64 `toml:"mean_scale"`       // Multiplicative factor applied to the separation mean table (0 = no scaling)
	SDScale         float64 `toml:"sd_scale"`         // Multiplicative factor applied to the separation sd table (0 = no scaling)
}

// SeparationConfig overrides the built-in separation tables. Both tables
// must be complete 3x3 maps keyed by class name ("small", "large",
// "heavy") when present; leaving both empty keeps the defaults.
type SeparationConfig struct {
	Means map[string]map[string]float64 `toml:"means"` // Mean separation seconds by (lead, trail) class
	SDs   map[string]map[string]float64 `toml:"sds"`   // Separation standard deviation by (lead, trail) class
}

// SweepConfig contains parameter sweep settings
type SweepConfig struct {
	Levels      []SweepLevel `toml:"levels"`      // Scaling levels to sweep over
	Repetitions int          `toml:"repetitions"` // Seeded repetitions per level
	OutputDir   string       `toml:"output_dir"`  // Directory for per-run event logs and the summary CSV
}

// SweepLevel is one sweep point
type SweepLevel struct {
	MeanScale float64 `toml:"mean_scale"` // Factor for the separation mean table
	SDScale   float64 `toml:"sd_scale"`   // Factor for the separation sd table
}

// StorageConfig contains run persistence configuration
type StorageConfig struct {
	SQLitePath string `toml:"sqlite_path"` // Path to the SQLite database file used in serve mode
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations
// in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// validClasses is the closed set of aircraft class keys.
var validClasses = map[string]bool{"small": true, "large": true, "heavy": true}

// Validate validates the configuration. Malformed separation tables and
// unknown profile or class names are rejected here, before any run starts.
func (c *Config) Validate() error {
	if c.Simulation.ArrivalCount <= 0 {
		return fmt.Errorf("invalid arrival_count: %d (must be positive)", c.Simulation.ArrivalCount)
	}
	if c.Simulation.DurationSecs < 0 {
		return fmt.Errorf("invalid duration_seconds: %d (must be non-negative)", c.Simulation.DurationSecs)
	}
	if c.Simulation.MeanScale < 0 || c.Simulation.SDScale < 0 {
		return fmt.Errorf("invalid scaling factors: mean_scale=%v sd_scale=%v (must be non-negative)",
			c.Simulation.MeanScale, c.Simulation.SDScale)
	}

	switch c.Simulation.Profile {
	case "", "standard", "fast-landing", "no-circling":
	default:
		return fmt.Errorf("invalid profile: %q (must be 'standard', 'fast-landing', or 'no-circling')", c.Simulation.Profile)
	}

	if err := c.validateSeparation(); err != nil {
		return err
	}

	// Sweep settings are only checked when levels are configured;
	// single-run and serve modes ignore them.
	if len(c.Sweep.Levels) > 0 {
		if c.Sweep.Repetitions <= 0 {
			return fmt.Errorf("invalid sweep repetitions: %d (must be positive)", c.Sweep.Repetitions)
		}
		for i, l := range c.Sweep.Levels {
			if l.MeanScale <= 0 || l.SDScale <= 0 {
				return fmt.Errorf("invalid sweep level %d: scales must be positive (mean_scale=%v sd_scale=%v)",
					i, l.MeanScale, l.SDScale)
			}
		}
	}

	if c.Server.Port != 0 && (c.Server.Port < 0 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

// HasSeparationOverride reports whether the config replaces the built-in
// separation tables.
func (c *Config) HasSeparationOverride() bool {
	return len(c.Separation.Means) > 0 || len(c.Separation.SDs) > 0
}

func (c *Config) validateSeparation() error {
	// Overriding one table requires overriding both; a half-specified
	// model is a configuration defect, not something to paper over with
	// defaults.
	if len(c.Separation.Means) > 0 != (len(c.Separation.SDs) > 0) {
		return fmt.Errorf("separation override must define both means and sds tables")
	}
	for which, table := range map[string]map[string]map[string]float64{
		"means": c.Separation.Means,
		"sds":   c.Separation.SDs,
	} {
		for lead, row := range table {
			if !validClasses[lead] {
				return fmt.Errorf("separation %s table: unknown class %q", which, lead)
			}
			for trail, v := range row {
				if !validClasses[trail] {
					return fmt.Errorf("separation %s table, row %q: unknown class %q", which, lead, trail)
				}
				if v < 0 {
					return fmt.Errorf("separation %s table: %s/%s is negative: %v", which, lead, trail, v)
				}
			}
		}
	}
	return nil
}

// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Grid      GridConfig      `yaml:"grid"`
	Raster    RasterConfig    `yaml:"raster"`
	Solver    SolverConfig    `yaml:"solver"`
	Tracer    TracerConfig    `yaml:"tracer"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// GridConfig holds simulation grid dimensions in cells.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// RasterConfig holds geometry rasterization parameters.
type RasterConfig struct {
	DoorStrength           float64 `yaml:"door_strength"`            // Source strength on door cells
	DoorNeighborStrength   float64 `yaml:"door_neighbor_strength"`   // Source strength on the carved ring around door cells
	WindowStrength         float64 `yaml:"window_strength"`          // Source strength on window cells
	WindowNeighborStrength float64 `yaml:"window_neighbor_strength"` // Source strength around window cells
	MirrorStrength         float64 `yaml:"mirror_strength"`          // Source strength inside mirror furniture
	HaloRadius             int     `yaml:"halo_radius"`              // Poison-arrow halo radius in cells
	HaloStrength           float64 `yaml:"halo_strength"`            // Peak negative flow modifier at a sharp corner
}

// SolverConfig holds potential relaxation parameters.
type SolverConfig struct {
	Iterations           int     `yaml:"iterations"`             // Fixed sweep budget
	Omega                float64 `yaml:"omega"`                  // Over-relaxation factor
	Epsilon              float64 `yaml:"epsilon"`                // Residual early-exit threshold (0 = disabled)
	SourcePotentialScale float64 `yaml:"source_potential_scale"` // Clamped potential = source strength * this
	SinkDistanceRatio    float64 `yaml:"sink_distance_ratio"`    // Auto sinks lie beyond ratio * max distance from the source centroid
	SinkStrength         float64 `yaml:"sink_strength"`          // Auto sink strength at max distance
	ModifierGain         float64 `yaml:"modifier_gain"`          // Additive bias per unit of positive flow modifier
	TurbulenceGain       float64 `yaml:"turbulence_gain"`        // Delta amplification per unit of negative flow modifier
}

// TracerConfig holds tracer particle parameters.
type TracerConfig struct {
	Count           int     `yaml:"count"`            // Live population cap
	MaxAge          int     `yaml:"max_age"`          // Base lifetime in ticks
	AgeJitter       int     `yaml:"age_jitter"`       // Random extra lifetime in ticks
	SourceThreshold float64 `yaml:"source_threshold"` // Cells with source above this are spawn points
	SpawnJitter     float64 `yaml:"spawn_jitter"`     // Spawn position jitter in cells
	Advance         float64 `yaml:"advance"`          // Cells per tick for the fastest tracer
	MinSpeed        float64 `yaml:"min_speed"`        // Below this sampled speed the tracer drifts randomly
	DriftJitter     float64 `yaml:"drift_jitter"`     // Random drift amplitude in stagnant pockets
	StagnationLimit int     `yaml:"stagnation_limit"` // Ticks of stagnation before extra decay
	StagnationDecay float64 `yaml:"stagnation_decay"` // Extra life decay per stagnant tick
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // Seconds between stats windows
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // Ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	GridW32   float32 // Grid.Width as float32
	GridH32   float32 // Grid.Height as float32
	CellCount int     // Grid.Width * Grid.Height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// A solvable grid needs an outer wall ring plus at least one interior cell.
	if c.Grid.Width < 3 {
		c.Grid.Width = 3
	}
	if c.Grid.Height < 3 {
		c.Grid.Height = 3
	}
	c.Derived.GridW32 = float32(c.Grid.Width)
	c.Derived.GridH32 = float32(c.Grid.Height)
	c.Derived.CellCount = c.Grid.Width * c.Grid.Height
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Package telemetry aggregates simulation statistics and performance
// timings and writes them to structured logs and CSV files.
package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/qiflow/field"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowEndTick int32   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Last solve in the window
	SolveIterations int     `csv:"solve_iterations"`
	SolveMaxDelta   float64 `csv:"solve_max_delta"`
	SolveConverged  bool    `csv:"solve_converged"`
	SolveMS         float64 `csv:"solve_ms"`

	// Field snapshot at window end (open cells only)
	PotentialMean float64 `csv:"potential_mean"`
	PotentialStd  float64 `csv:"potential_std"`
	PotentialMin  float64 `csv:"potential_min"`
	PotentialMax  float64 `csv:"potential_max"`
	MaxSpeed      float64 `csv:"max_speed"`

	// Cell classes
	OpenCells   int `csv:"open_cells"`
	WallCells   int `csv:"wall_cells"`
	SourceCells int `csv:"source_cells"`

	// Tracers
	TracerCount int `csv:"tracers"`
}

// FieldStats summarizes the solved field. Potential statistics cover
// open cells only; wall cells are outside the system and would skew
// the distribution toward zero.
type FieldStats struct {
	PotentialMean float64
	PotentialStd  float64
	PotentialMin  float64
	PotentialMax  float64
	MaxSpeed      float64
	OpenCells     int
	WallCells     int
	SourceCells   int
}

// ComputeFieldStats scans the grid and aggregates field statistics.
func ComputeFieldStats(g *field.Grid) FieldStats {
	var fs FieldStats

	open := make([]float64, 0, len(g.Potential))
	for i, m := range g.Material {
		if m >= 1 {
			fs.WallCells++
			continue
		}
		fs.OpenCells++
		if g.Source[i] > 0 {
			fs.SourceCells++
		}
		open = append(open, float64(g.Potential[i]))
	}

	if len(open) > 0 {
		fs.PotentialMean = stat.Mean(open, nil)
		fs.PotentialStd = stat.StdDev(open, nil)
		fs.PotentialMin = floats.Min(open)
		fs.PotentialMax = floats.Max(open)
	}
	fs.MaxSpeed = float64(g.MaxSpeed())

	return fs
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("solve_iterations", s.SolveIterations),
		slog.Float64("solve_max_delta", s.SolveMaxDelta),
		slog.Bool("solve_converged", s.SolveConverged),
		slog.Float64("solve_ms", s.SolveMS),
		slog.Float64("potential_mean", s.PotentialMean),
		slog.Float64("potential_std", s.PotentialStd),
		slog.Float64("potential_min", s.PotentialMin),
		slog.Float64("potential_max", s.PotentialMax),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Int("open_cells", s.OpenCells),
		slog.Int("wall_cells", s.WallCells),
		slog.Int("source_cells", s.SourceCells),
		slog.Int("tracers", s.TracerCount),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"solve_iterations", s.SolveIterations,
		"solve_max_delta", s.SolveMaxDelta,
		"solve_converged", s.SolveConverged,
		"solve_ms", s.SolveMS,
		"potential_mean", s.PotentialMean,
		"potential_std", s.PotentialStd,
		"potential_min", s.PotentialMin,
		"potential_max", s.PotentialMax,
		"max_speed", s.MaxSpeed,
		"open_cells", s.OpenCells,
		"wall_cells", s.WallCells,
		"source_cells", s.SourceCells,
		"tracers", s.TracerCount,
	)
}

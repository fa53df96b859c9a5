// Package engine orchestrates the simulation: it runs the
// rasterize-solve-derive batch as a background task and steps the
// tracer population once per animation tick.
package engine

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/field"
	"github.com/pthm-cable/qiflow/geometry"
	"github.com/pthm-cable/qiflow/systems"
	"github.com/pthm-cable/qiflow/telemetry"
)

// Options configures engine creation.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
}

// Engine owns the presented grid and the tracer system. A solve works
// on a freshly built grid and the presented grid pointer is swapped on
// completion, so tick updates never observe a half-solved field. A
// Simulate issued while one is in flight queues the latest snapshot
// and runs it when the current pass finishes.
type Engine struct {
	cfg    *config.Config
	rng    *rand.Rand
	raster *field.Rasterizer
	solver *field.Solver

	mu      sync.Mutex
	idle    *sync.Cond
	grid    *field.Grid
	tracers *systems.TracerSystem
	solving bool
	pending *geometry.Snapshot
	last    field.SolveResult
	tick    int32

	results chan field.SolveResult

	perf             *telemetry.PerfCollector
	output           *telemetry.OutputManager
	logStats         bool
	statsWindowTicks int32
}

// New creates an engine with an empty (all-open, sourceless) grid.
// Nothing flows until the first Simulate completes.
func New(cfg *config.Config, opts Options) (*Engine, error) {
	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	grid := field.NewGrid(cfg.Grid.Width, cfg.Grid.Height)

	windowTicks := int32(opts.StatsWindowSec * float64(cfg.Screen.TargetFPS))
	if windowTicks < 1 {
		windowTicks = int32(cfg.Telemetry.StatsWindow * float64(cfg.Screen.TargetFPS))
	}
	if windowTicks < 1 {
		windowTicks = 300
	}

	e := &Engine{
		cfg:              cfg,
		rng:              rng,
		raster:           field.NewRasterizer(cfg),
		solver:           field.NewSolver(cfg),
		grid:             grid,
		tracers:          systems.NewTracerSystem(cfg, grid, rng),
		results:          make(chan field.SolveResult, 4),
		perf:             telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:           output,
		logStats:         opts.LogStats,
		statsWindowTicks: windowTicks,
	}
	e.idle = sync.NewCond(&e.mu)
	return e, nil
}

// Simulate requests a full rasterize-solve-derive pass for the given
// room snapshot. The call returns immediately; completion is signaled
// on Results(). If a pass is already running the snapshot is queued,
// replacing any previously queued one (latest wins).
func (e *Engine) Simulate(snap geometry.Snapshot) {
	snap = snap.Clone()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.solving {
		e.pending = &snap
		return
	}
	e.solving = true
	go e.run(snap)
}

// SimulateSync runs the full pass on the calling goroutine, after any
// in-flight async pass drains. Headless runs and tests use this.
func (e *Engine) SimulateSync(snap geometry.Snapshot) field.SolveResult {
	e.mu.Lock()
	for e.solving {
		e.idle.Wait()
	}
	e.solving = true
	e.mu.Unlock()

	grid := field.NewGrid(e.cfg.Grid.Width, e.cfg.Grid.Height)
	e.raster.Rasterize(grid, snap)
	res := e.solver.Solve(grid)

	e.mu.Lock()
	e.install(grid, res)
	if e.pending != nil {
		// An async request arrived mid-pass; chain it in the background.
		next := *e.pending
		e.pending = nil
		go e.run(next)
	} else {
		e.finish()
	}
	e.mu.Unlock()
	return res
}

// run executes one background pass and chains into any queued request.
func (e *Engine) run(snap geometry.Snapshot) {
	for {
		grid := field.NewGrid(e.cfg.Grid.Width, e.cfg.Grid.Height)
		e.raster.Rasterize(grid, snap)
		res := e.solver.Solve(grid)

		e.mu.Lock()
		e.install(grid, res)
		if e.pending != nil {
			snap = *e.pending
			e.pending = nil
			e.mu.Unlock()
			continue
		}
		e.finish()
		e.mu.Unlock()
		return
	}
}

// finish marks the solve chain idle. Caller holds the lock.
func (e *Engine) finish() {
	e.solving = false
	e.idle.Broadcast()
}

// install publishes a solved grid. Caller holds the lock.
func (e *Engine) install(grid *field.Grid, res field.SolveResult) {
	e.grid = grid
	e.last = res
	e.tracers.SetGrid(grid)

	slog.Info("solve complete",
		"iterations", res.Iterations,
		"max_delta", res.MaxDelta,
		"converged", res.Converged,
		"elapsed_ms", float64(res.Elapsed.Microseconds())/1000,
		"max_speed", grid.MaxSpeed(),
		"sources", e.tracers.Sources(),
	)

	// Non-blocking: a viewer that stopped listening must not stall the
	// solve chain.
	select {
	case e.results <- res:
	default:
	}
}

// Results delivers one SolveResult per completed pass.
func (e *Engine) Results() <-chan field.SolveResult {
	return e.results
}

// Busy reports whether a solve pass is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solving
}

// Grid returns the currently presented grid. The returned grid is
// never mutated after publication; a later solve installs a new one.
func (e *Engine) Grid() *field.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

// Tracers returns the tracer system for read-only iteration.
func (e *Engine) Tracers() *systems.TracerSystem {
	return e.tracers
}

// LastSolve returns the result of the most recent completed pass.
func (e *Engine) LastSolve() field.SolveResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Tick returns the current animation tick.
func (e *Engine) Tick() int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Step advances the tracer population by one animation tick. It reads
// the presented grid only, so it is safe to call while a solve is in
// flight.
func (e *Engine) Step(dt float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.perf.StartTick()
	e.perf.StartPhase(telemetry.PhaseTracers)
	e.tracers.Update(dt)
	e.tick++

	if e.tick%e.statsWindowTicks == 0 {
		e.perf.StartPhase(telemetry.PhaseTelemetry)
		e.flushStats()
	}
	e.perf.EndTick()
}

// RecordFrame forwards frame timing to the perf collector.
func (e *Engine) RecordFrame() {
	e.perf.RecordFrame()
}

// flushStats aggregates and emits the telemetry window. Caller holds
// the lock.
func (e *Engine) flushStats() {
	fs := telemetry.ComputeFieldStats(e.grid)
	stats := telemetry.WindowStats{
		WindowEndTick:   e.tick,
		SimTimeSec:      float64(e.tick) / float64(e.cfg.Screen.TargetFPS),
		SolveIterations: e.last.Iterations,
		SolveMaxDelta:   float64(e.last.MaxDelta),
		SolveConverged:  e.last.Converged,
		SolveMS:         float64(e.last.Elapsed.Microseconds()) / 1000,
		PotentialMean:   fs.PotentialMean,
		PotentialStd:    fs.PotentialStd,
		PotentialMin:    fs.PotentialMin,
		PotentialMax:    fs.PotentialMax,
		MaxSpeed:        fs.MaxSpeed,
		OpenCells:       fs.OpenCells,
		WallCells:       fs.WallCells,
		SourceCells:     fs.SourceCells,
		TracerCount:     e.tracers.Count(),
	}

	if e.logStats {
		stats.LogStats()
	}
	if err := e.output.WriteStats(stats); err != nil {
		slog.Error("writing stats", "error", err)
	}
	if err := e.output.WritePerf(e.perf.Stats(), e.tick); err != nil {
		slog.Error("writing perf", "error", err)
	}
}

// Close flushes telemetry output.
func (e *Engine) Close() error {
	return e.output.Close()
}

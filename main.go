package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/qiflow/camera"
	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/engine"
	"github.com/pthm-cable/qiflow/geometry"
	"github.com/pthm-cable/qiflow/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	roomPath := flag.String("room", "", "Path to a room YAML file (empty = embedded demo room)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	room, err := geometry.LoadRoom(*roomPath)
	if err != nil {
		slog.Error("failed to load room", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	eng, err := engine.New(cfg, engine.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		OutputDir:      *outputDir,
	})
	if err != nil {
		slog.Error("failed to create engine", "error", err)
		os.Exit(1)
	}
	defer eng.Close()

	if *headless {
		runHeadless(eng, room, *maxTicks, rngSeed)
		return
	}
	runWindowed(cfg, eng, room, *maxTicks)
}

// runHeadless drives the simulation without graphics.
func runHeadless(eng *engine.Engine, room geometry.Snapshot, maxTicks int, seed int64) {
	slog.Info("starting headless simulation", "seed", seed, "max_ticks", maxTicks)

	res := eng.SimulateSync(room)
	slog.Info("initial solve", "iterations", res.Iterations, "elapsed", res.Elapsed)

	for {
		eng.Step(1)
		if maxTicks > 0 && int(eng.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", eng.Tick())
			return
		}
	}
}

// runWindowed drives the interactive viewer.
func runWindowed(cfg *config.Config, eng *engine.Engine, room geometry.Snapshot, maxTicks int) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Qi Flow")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	cam := camera.New(
		float32(cfg.Screen.Width), float32(cfg.Screen.Height),
		float32(cfg.Grid.Width), float32(cfg.Grid.Height),
	)
	heatmap := renderer.NewHeatmap(cfg.Grid.Width, cfg.Grid.Height)
	defer heatmap.Unload()
	tracers := renderer.NewTracerRenderer()

	mode := renderer.ModeSpeed
	paused := false

	eng.Simulate(room)

	for !rl.WindowShouldClose() {
		// Input
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyH) {
			if mode == renderer.ModeSpeed {
				mode = renderer.ModePotential
			} else {
				mode = renderer.ModeSpeed
			}
			heatmap.Update(eng.Grid(), mode)
		}
		if rl.IsKeyPressed(rl.KeyR) {
			eng.Simulate(room)
		}
		if wheel := rl.GetMouseWheelMove(); wheel != 0 {
			mp := rl.GetMousePosition()
			factor := float32(1) + wheel*0.1
			cam.ZoomAt(factor, mp.X, mp.Y)
		}
		if rl.IsMouseButtonDown(rl.MouseRightButton) {
			d := rl.GetMouseDelta()
			cam.Pan(d.X, d.Y)
		}

		// Pick up completed solves
		select {
		case <-eng.Results():
			heatmap.Update(eng.Grid(), mode)
		default:
		}

		if !paused {
			eng.Step(1)
		}
		eng.RecordFrame()

		// Draw
		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		heatmap.Draw(cam)
		tracers.Draw(eng.Tracers(), cam)

		rl.DrawText(fmt.Sprintf("Tick: %d  Tracers: %d", eng.Tick(), eng.Tracers().Count()), 10, 10, 20, rl.White)
		rl.DrawText("[space] pause  [h] heatmap mode  [r] re-solve  wheel zoom  right-drag pan", 10, 35, 20, rl.Gray)
		if eng.Busy() {
			rl.DrawText("SOLVING...", 10, 60, 20, rl.Yellow)
		}
		if paused {
			rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
		}

		rl.EndDrawing()

		if maxTicks > 0 && int(eng.Tick()) >= maxTicks {
			break
		}
	}
}

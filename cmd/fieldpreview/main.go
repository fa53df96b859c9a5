// Flow field preview tool - interactive solver tuning with sliders.
//
// Usage: go run ./cmd/fieldpreview [-room path]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/field"
	"github.com/pthm-cable/qiflow/geometry"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

func main() {
	roomPath := flag.String("room", "", "Path to a room YAML file (empty = embedded demo room)")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	room, err := geometry.LoadRoom(*roomPath)
	if err != nil {
		log.Fatalf("loading room: %v", err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	gridSize := 128
	cfg.Grid.Width = gridSize
	cfg.Grid.Height = gridSize

	grid := field.NewGrid(gridSize, gridSize)
	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	showPotential := false
	needsSolve := true
	var last field.SolveResult

	for !rl.WindowShouldClose() {
		if needsSolve {
			raster := field.NewRasterizer(cfg)
			solver := field.NewSolver(cfg)
			raster.Rasterize(grid, room)
			last = solver.Solve(grid)
			updateTexture(texture, grid, showPotential)
			needsSolve = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(gridSize), Height: float32(gridSize)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		// Draw stats
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Iterations: %d  MaxDelta: %.5f  Converged: %v",
			last.Iterations, last.MaxDelta, last.Converged), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Solve: %.1fms  MaxSpeed: %.3f",
			float64(last.Elapsed.Microseconds())/1000, grid.MaxSpeed()), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Solver Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Omega slider
		rl.DrawText("Omega (over-relaxation factor)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newOmega := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1.0", "1.95",
			float32(cfg.Solver.Omega), 1.0, 1.95,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Solver.Omega), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newOmega) != cfg.Solver.Omega {
			cfg.Solver.Omega = float64(newOmega)
			needsSolve = true
		}
		panelY += 35

		// Iterations slider
		rl.DrawText("Iterations (sweep budget)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newIters := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"50", "2000",
			float32(cfg.Solver.Iterations), 50, 2000,
		)
		rl.DrawText(fmt.Sprintf("%d", cfg.Solver.Iterations), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newIters) != cfg.Solver.Iterations {
			cfg.Solver.Iterations = int(newIters)
			needsSolve = true
		}
		panelY += 35

		// Sink distance ratio slider
		rl.DrawText("Sink distance ratio", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newRatio := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "0.9",
			float32(cfg.Solver.SinkDistanceRatio), 0.0, 0.9,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Solver.SinkDistanceRatio), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newRatio) != cfg.Solver.SinkDistanceRatio {
			cfg.Solver.SinkDistanceRatio = float64(newRatio)
			needsSolve = true
		}
		panelY += 35

		// Sink strength slider
		rl.DrawText("Sink strength", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSink := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "2.0",
			float32(cfg.Solver.SinkStrength), 0.0, 2.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Solver.SinkStrength), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newSink) != cfg.Solver.SinkStrength {
			cfg.Solver.SinkStrength = float64(newSink)
			needsSolve = true
		}
		panelY += 35

		// Modifier gain slider
		rl.DrawText("Modifier gain (enhancer bias)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newMod := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "2.0",
			float32(cfg.Solver.ModifierGain), 0.0, 2.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Solver.ModifierGain), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newMod) != cfg.Solver.ModifierGain {
			cfg.Solver.ModifierGain = float64(newMod)
			needsSolve = true
		}
		panelY += 35

		// Turbulence gain slider
		rl.DrawText("Turbulence gain (halo agitation)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newTurb := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "1.0",
			float32(cfg.Solver.TurbulenceGain), 0.0, 1.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Solver.TurbulenceGain), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newTurb) != cfg.Solver.TurbulenceGain {
			cfg.Solver.TurbulenceGain = float64(newTurb)
			needsSolve = true
		}
		panelY += 35

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		rl.DrawText("Rasterizer", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25

		// Halo radius slider
		rl.DrawText("Halo radius (cells)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newRadius := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "8",
			float32(cfg.Raster.HaloRadius), 0, 8,
		)
		rl.DrawText(fmt.Sprintf("%d", cfg.Raster.HaloRadius), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newRadius) != cfg.Raster.HaloRadius {
			cfg.Raster.HaloRadius = int(newRadius)
			needsSolve = true
		}
		panelY += 35

		// Halo strength slider
		rl.DrawText("Halo strength", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newHalo := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.0", "1.0",
			float32(cfg.Raster.HaloStrength), 0.0, 1.0,
		)
		rl.DrawText(fmt.Sprintf("%.2f", cfg.Raster.HaloStrength), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if float64(newHalo) != cfg.Raster.HaloStrength {
			cfg.Raster.HaloStrength = float64(newHalo)
			needsSolve = true
		}
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(showPotential, "Show Speed", "Show Potential")) {
			showPotential = !showPotential
			updateTexture(texture, grid, showPotential)
		}

		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			fresh, err := config.Load("")
			if err == nil {
				cfg.Solver = fresh.Solver
				cfg.Raster = fresh.Raster
			}
			needsSolve = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yamlLines := []string{
			"solver:",
			fmt.Sprintf("  omega: %.2f", cfg.Solver.Omega),
			fmt.Sprintf("  iterations: %d", cfg.Solver.Iterations),
			fmt.Sprintf("  sink_distance_ratio: %.2f", cfg.Solver.SinkDistanceRatio),
			fmt.Sprintf("  sink_strength: %.2f", cfg.Solver.SinkStrength),
			fmt.Sprintf("  modifier_gain: %.2f", cfg.Solver.ModifierGain),
			fmt.Sprintf("  turbulence_gain: %.2f", cfg.Solver.TurbulenceGain),
			"raster:",
			fmt.Sprintf("  halo_radius: %d", cfg.Raster.HaloRadius),
			fmt.Sprintf("  halo_strength: %.2f", cfg.Raster.HaloStrength),
		}
		for _, line := range yamlLines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		if rl.IsKeyPressed(rl.KeyC) {
			yaml := fmt.Sprintf(`solver:
  omega: %.2f
  iterations: %d
  sink_distance_ratio: %.2f
  sink_strength: %.2f
  modifier_gain: %.2f
  turbulence_gain: %.2f
raster:
  halo_radius: %d
  halo_strength: %.2f`,
				cfg.Solver.Omega, cfg.Solver.Iterations,
				cfg.Solver.SinkDistanceRatio, cfg.Solver.SinkStrength,
				cfg.Solver.ModifierGain, cfg.Solver.TurbulenceGain,
				cfg.Raster.HaloRadius, cfg.Raster.HaloStrength)
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// updateTexture recolors the GPU texture from the solved grid.
func updateTexture(texture rl.Texture2D, g *field.Grid, potential bool) {
	pixels := make([]color.RGBA, g.W*g.H)

	if potential {
		var maxAbs float32
		for _, p := range g.Potential {
			if p > maxAbs {
				maxAbs = p
			}
			if -p > maxAbs {
				maxAbs = -p
			}
		}
		for i := range pixels {
			if g.Material[i] >= 1 {
				pixels[i] = color.RGBA{R: 48, G: 52, B: 64, A: 255}
				continue
			}
			t := float32(0)
			if maxAbs > 0 {
				t = g.Potential[i] / maxAbs
			}
			if t >= 0 {
				pixels[i] = color.RGBA{R: uint8(20 + 215*t), G: uint8(16 + 60*t), B: 24, A: 255}
			} else {
				pixels[i] = color.RGBA{R: 16, G: uint8(20 + 70*-t), B: uint8(28 + 200*-t), A: 255}
			}
		}
		rl.UpdateTexture(texture, pixels)
		return
	}

	maxSpeed := g.MaxSpeed()
	for i := range pixels {
		switch {
		case g.Material[i] >= 1:
			pixels[i] = color.RGBA{R: 48, G: 52, B: 64, A: 255}
		case g.Source[i] > 0:
			pixels[i] = color.RGBA{R: 235, G: 200, B: 90, A: 255}
		default:
			t := float32(0)
			if maxSpeed > 0 {
				t = g.Speed[i] / maxSpeed
			}
			// dark blue -> cyan -> yellow ramp
			var r, gr, b uint8
			if t < 0.5 {
				u := t / 0.5
				r = uint8(10 + u*50)
				gr = uint8(20 + u*180)
				b = uint8(60 + u*140)
			} else {
				u := (t - 0.5) / 0.5
				r = uint8(60 + u*180)
				gr = uint8(200 + u*30)
				b = uint8(200 - u*150)
			}
			pixels[i] = color.RGBA{R: r, G: gr, B: b, A: 255}
		}
	}
	rl.UpdateTexture(texture, pixels)
}

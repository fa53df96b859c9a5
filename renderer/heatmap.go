// Package renderer draws the solved field and the tracer particles.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/qiflow/camera"
	"github.com/pthm-cable/qiflow/field"
)

// HeatmapMode selects which scalar the heatmap visualizes.
type HeatmapMode int

const (
	ModeSpeed HeatmapMode = iota
	ModePotential
)

// Heatmap renders a grid scalar as a color-mapped texture, one texel
// per cell.
type Heatmap struct {
	texture rl.Texture2D
	pixels  []color.RGBA
	w, h    int
}

// NewHeatmap creates a heatmap texture sized to the grid.
func NewHeatmap(w, h int) *Heatmap {
	img := rl.GenImageColor(w, h, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(texture, rl.FilterBilinear)

	return &Heatmap{
		texture: texture,
		pixels:  make([]color.RGBA, w*h),
		w:       w,
		h:       h,
	}
}

// Update re-colors the texture from the grid. Call after a solve
// completes, not every frame.
func (hm *Heatmap) Update(g *field.Grid, mode HeatmapMode) {
	switch mode {
	case ModePotential:
		hm.colorPotential(g)
	default:
		hm.colorSpeed(g)
	}
	rl.UpdateTexture(hm.texture, hm.pixels)
}

// colorSpeed maps speed to a calm-to-energetic ramp:
// dark blue -> teal -> green -> yellow. Walls are slate, sources gold.
func (hm *Heatmap) colorSpeed(g *field.Grid) {
	maxSpeed := g.MaxSpeed()
	for i := range hm.pixels {
		switch {
		case g.Material[i] >= 1:
			hm.pixels[i] = color.RGBA{R: 48, G: 52, B: 64, A: 255}
		case g.Source[i] > 0:
			hm.pixels[i] = color.RGBA{R: 235, G: 200, B: 90, A: 255}
		default:
			t := float32(0)
			if maxSpeed > 0 {
				t = g.Speed[i] / maxSpeed
			}
			hm.pixels[i] = speedRamp(t)
		}
	}
}

// colorPotential maps potential to blue (negative) through near-black
// (zero) to warm red (positive), normalized by the largest magnitude.
func (hm *Heatmap) colorPotential(g *field.Grid) {
	var maxAbs float32
	for _, p := range g.Potential {
		if p > maxAbs {
			maxAbs = p
		}
		if -p > maxAbs {
			maxAbs = -p
		}
	}

	for i := range hm.pixels {
		if g.Material[i] >= 1 {
			hm.pixels[i] = color.RGBA{R: 48, G: 52, B: 64, A: 255}
			continue
		}
		t := float32(0)
		if maxAbs > 0 {
			t = g.Potential[i] / maxAbs
		}
		if t >= 0 {
			hm.pixels[i] = color.RGBA{
				R: uint8(20 + 215*t),
				G: uint8(16 + 60*t),
				B: 24,
				A: 255,
			}
		} else {
			hm.pixels[i] = color.RGBA{
				R: 16,
				G: uint8(20 + 70*-t),
				B: uint8(28 + 200*-t),
				A: 255,
			}
		}
	}
}

// speedRamp interpolates the normalized speed t through the palette.
func speedRamp(t float32) color.RGBA {
	switch {
	case t < 0.33:
		// dark blue -> teal
		u := t / 0.33
		return color.RGBA{R: uint8(10 + 10*u), G: uint8(20 + 110*u), B: uint8(60 + 80*u), A: 255}
	case t < 0.66:
		// teal -> green
		u := (t - 0.33) / 0.33
		return color.RGBA{R: uint8(20 + 40*u), G: uint8(130 + 70*u), B: uint8(140 - 80*u), A: 255}
	default:
		// green -> yellow
		u := (t - 0.66) / 0.34
		if u > 1 {
			u = 1
		}
		return color.RGBA{R: uint8(60 + 180*u), G: uint8(200 + 30*u), B: uint8(60 - 30*u), A: 255}
	}
}

// Draw renders the heatmap through the camera. World units are grid
// cells.
func (hm *Heatmap) Draw(cam *camera.Camera) {
	x0, y0 := cam.WorldToScreen(0, 0)

	rl.DrawTexturePro(
		hm.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(hm.w), Height: float32(hm.h)},
		rl.Rectangle{X: x0, Y: y0, Width: float32(hm.w) * cam.Zoom, Height: float32(hm.h) * cam.Zoom},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
}

// Unload frees the texture.
func (hm *Heatmap) Unload() {
	rl.UnloadTexture(hm.texture)
}

package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/qiflow/camera"
	"github.com/pthm-cable/qiflow/components"
	"github.com/pthm-cable/qiflow/systems"
)

// TracerRenderer draws tracer particles with fading trails.
type TracerRenderer struct{}

// NewTracerRenderer creates a tracer renderer.
func NewTracerRenderer() *TracerRenderer {
	return &TracerRenderer{}
}

// Draw renders all tracers with additive blending. Trail segments fade
// quadratically toward the tail; the whole particle fades with life.
func (r *TracerRenderer) Draw(ts *systems.TracerSystem, cam *camera.Camera) {
	rl.BeginBlendMode(rl.BlendAdditive)

	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		if trail.Len < 1 {
			return
		}

		// Fade in over the first 10% of life, fade out with life.
		fadeIn := (1 - tr.Life) * 10
		if fadeIn > 1 {
			fadeIn = 1
		}
		baseAlpha := tr.Life * fadeIn * 150
		if baseAlpha < 2 {
			return
		}

		width := 1.4 * cam.Zoom
		if width < 1 {
			width = 1
		}

		hx, hy := cam.WorldToScreen(pos.X, pos.Y)
		tx, ty := cam.WorldToScreen(trail.X[0], trail.Y[0])
		rl.DrawLineEx(
			rl.Vector2{X: hx, Y: hy},
			rl.Vector2{X: tx, Y: ty},
			width,
			rl.Color{R: 120, G: 200, B: 230, A: uint8(baseAlpha)},
		)

		for j := uint8(0); j+1 < trail.Len; j++ {
			fade := 1 - float32(j+1)/float32(trail.Len)
			fade *= fade

			alpha := baseAlpha * fade
			if alpha < 1 {
				break
			}

			ax, ay := cam.WorldToScreen(trail.X[j], trail.Y[j])
			bx, by := cam.WorldToScreen(trail.X[j+1], trail.Y[j+1])
			rl.DrawLineEx(
				rl.Vector2{X: ax, Y: ay},
				rl.Vector2{X: bx, Y: by},
				width*fade,
				rl.Color{R: 120, G: 200, B: 230, A: uint8(alpha)},
			)
		}
	})

	rl.EndBlendMode()
}

package field

import "math"

// DeriveVelocity recomputes the vector field and speed from the solved
// potential. Flow moves from high to low potential, so velocity is the
// negative central-difference gradient. Partial obstacles attenuate
// both components by (1 - resistance); wall cells are forced to zero.
func DeriveVelocity(g *Grid) {
	w := g.W

	// The border ring is wall; zero it along with any interior walls.
	for y := 0; y < g.H; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x

			if x == 0 || x == w-1 || y == 0 || y == g.H-1 || g.Material[i] >= 1 {
				g.VelX[i] = 0
				g.VelY[i] = 0
				g.Speed[i] = 0
				continue
			}

			vx := -(g.Potential[i+1] - g.Potential[i-1]) * 0.5
			vy := -(g.Potential[i+w] - g.Potential[i-w]) * 0.5

			if res := g.Material[i]; res > 0 {
				vx *= 1 - res
				vy *= 1 - res
			}

			g.VelX[i] = vx
			g.VelY[i] = vy
			g.Speed[i] = float32(math.Sqrt(float64(vx*vx + vy*vy)))
		}
	}
}

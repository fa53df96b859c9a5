package field

import "math"

// VelocityAtF samples the velocity field at continuous coordinates
// using bilinear interpolation of the four enclosing cells. Neighbors
// outside the grid contribute zero velocity, which makes the sampler
// total over all real input: particle integration may probe slightly
// past the grid edge within a single step. At exact integer
// coordinates the result equals the stored cell velocity.
func (g *Grid) VelocityAtF(fx, fy float32) (float32, float32) {
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)

	v00x, v00y := g.VelocityAt(x0, y0)
	v10x, v10y := g.VelocityAt(x0+1, y0)
	v01x, v01y := g.VelocityAt(x0, y0+1)
	v11x, v11y := g.VelocityAt(x0+1, y0+1)

	topX := v00x + (v10x-v00x)*tx
	topY := v00y + (v10y-v00y)*tx
	botX := v01x + (v11x-v01x)*tx
	botY := v01y + (v11y-v01y)*tx

	return topX + (botX-topX)*ty, topY + (botY-topY)*ty
}

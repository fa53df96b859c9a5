// Package field implements the discretized potential-flow core: the
// cell grid, the geometry rasterizer, the relaxation solver, and the
// derived velocity field with bilinear sampling.
package field

import (
	"gonum.org/v1/gonum/blas/blas32"
)

// Grid owns all per-cell numeric state as flat parallel arrays in
// row-major order (index = y*W + x). Material and Source are written
// by the rasterizer, Potential/VelX/VelY/Speed by the solver and the
// velocity pass, FlowMod by the rasterizer. The outer ring is always
// wall material after rasterization.
type Grid struct {
	W, H int

	Material  []float32 // 0 = open, 1 = wall, (0,1) = partial obstacle
	Source    []float32 // >0 inflow strength, <0 fixed sink, 0 free
	Potential []float32 // solved scalar field
	VelX      []float32 // derived vector field
	VelY      []float32
	Speed     []float32 // derived magnitude, >= 0
	FlowMod   []float32 // signed non-blocking bias
}

// NewGrid allocates a grid of the given dimensions. All cells start
// zeroed (open, no sources, no flow).
func NewGrid(w, h int) *Grid {
	n := w * h
	return &Grid{
		W:         w,
		H:         h,
		Material:  make([]float32, n),
		Source:    make([]float32, n),
		Potential: make([]float32, n),
		VelX:      make([]float32, n),
		VelY:      make([]float32, n),
		Speed:     make([]float32, n),
		FlowMod:   make([]float32, n),
	}
}

// Idx returns the flat index for cell (x, y).
func (g *Grid) Idx(x, y int) int {
	return y*g.W + x
}

// InBounds reports whether (x, y) is a valid cell.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Reset zeroes every per-cell array.
func (g *Grid) Reset() {
	clear(g.Material)
	clear(g.Source)
	clear(g.Potential)
	clear(g.VelX)
	clear(g.VelY)
	clear(g.Speed)
	clear(g.FlowMod)
}

// SpeedAt returns the speed at (x, y), or 0 out of bounds.
func (g *Grid) SpeedAt(x, y int) float32 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.Speed[g.Idx(x, y)]
}

// VelocityAt returns the stored cell velocity at (x, y), or (0, 0)
// out of bounds.
func (g *Grid) VelocityAt(x, y int) (float32, float32) {
	if !g.InBounds(x, y) {
		return 0, 0
	}
	i := g.Idx(x, y)
	return g.VelX[i], g.VelY[i]
}

// MaxSpeed scans all cells and returns the largest speed. Zero is a
// valid result meaning "no flow" (no open source in the room); callers
// branch on it rather than treating it as an error.
func (g *Grid) MaxSpeed() float32 {
	n := len(g.Speed)
	if n == 0 {
		return 0
	}
	// Speed is non-negative, so the max-|value| index is the max.
	i := blas32.Iamax(blas32.Vector{N: n, Inc: 1, Data: g.Speed})
	return g.Speed[i]
}

package field

import (
	"math"
	"testing"
)

func approxEq(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestVelocityAtFIntegerMatchesCell(t *testing.T) {
	g := NewGrid(8, 8)
	g.VelX[g.Idx(3, 4)] = 1.5
	g.VelY[g.Idx(3, 4)] = -0.75

	vx, vy := g.VelocityAtF(3, 4)
	cx, cy := g.VelocityAt(3, 4)

	if vx != cx || vy != cy {
		t.Errorf("expected integer sample (%f,%f) to equal cell velocity (%f,%f)", vx, vy, cx, cy)
	}
}

func TestVelocityAtFMidpoint(t *testing.T) {
	g := NewGrid(8, 8)
	g.VelX[g.Idx(2, 2)] = 1.0
	g.VelX[g.Idx(3, 2)] = 3.0

	// Midway between the two cells along x, exactly on row 2: the y
	// fraction is zero so only the top row contributes.
	vx, vy := g.VelocityAtF(2.5, 2)
	if !approxEq(vx, 2.0) {
		t.Errorf("expected vx 2.0 at row midpoint, got %f", vx)
	}
	if vy != 0 {
		t.Errorf("expected vy 0, got %f", vy)
	}

	// Center of the four cells blends all corners equally.
	g.VelX[g.Idx(2, 3)] = 5.0
	g.VelX[g.Idx(3, 3)] = 7.0
	vx, _ = g.VelocityAtF(2.5, 2.5)
	if !approxEq(vx, 4.0) {
		t.Errorf("expected vx 4.0 at cell-quad center, got %f", vx)
	}
}

func TestVelocityAtFOutOfBounds(t *testing.T) {
	g := NewGrid(8, 8)
	for i := range g.VelX {
		g.VelX[i] = 1
		g.VelY[i] = 1
	}

	// Fully outside: all four corners contribute zero.
	vx, vy := g.VelocityAtF(-5, -5)
	if vx != 0 || vy != 0 {
		t.Errorf("expected zero far outside the grid, got (%f,%f)", vx, vy)
	}

	// Just past the edge: in-bounds corners still contribute, so the
	// sample decays smoothly instead of jumping to zero.
	vx, _ = g.VelocityAtF(-0.5, 3)
	if !approxEq(vx, 0.5) {
		t.Errorf("expected half contribution at the edge, got %f", vx)
	}
}

func TestVelocityAtFNegativeFraction(t *testing.T) {
	g := NewGrid(8, 8)
	g.VelX[g.Idx(0, 0)] = 2.0

	// Floor semantics: -0.25 falls in the cell pair (-1, 0), weight 0.75
	// on the in-bounds cell.
	vx, _ := g.VelocityAtF(-0.25, 0)
	if !approxEq(vx, 1.5) {
		t.Errorf("expected vx 1.5, got %f", vx)
	}
}

package field

import (
	"math"
	"testing"

	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/geometry"
)

// solveRoom rasterizes and solves a snapshot on a fresh 50x50 grid.
func solveRoom(cfg *config.Config, snap geometry.Snapshot) (*Grid, SolveResult) {
	g := NewGrid(50, 50)
	NewRasterizer(cfg).Rasterize(g, snap)
	res := NewSolver(cfg).Solve(g)
	return g, res
}

func TestSolveEnclosedRoomStaysStill(t *testing.T) {
	cfg := config.Cfg()

	// Walls only: no door, no window, no mirror. Nothing can flow.
	snap := testRoom()
	snap.Doors = nil
	snap.Windows = nil

	g, res := solveRoom(cfg, snap)

	if v := g.MaxSpeed(); v != 0 {
		t.Errorf("expected zero flow in an enclosed room, got max speed %f", v)
	}
	for i, p := range g.Potential {
		if p != 0 {
			t.Fatalf("expected zero potential everywhere, got %f at %d", p, i)
		}
	}
	if res.Iterations != cfg.Solver.Iterations {
		t.Errorf("expected full sweep budget %d, got %d", cfg.Solver.Iterations, res.Iterations)
	}
}

func TestSolveSingleDoorProducesFlow(t *testing.T) {
	g, _ := solveRoom(config.Cfg(), testRoom())

	if v := g.MaxSpeed(); v <= 0 {
		t.Fatalf("expected positive flow with a door present, got %f", v)
	}
}

func TestSolveSourceClamped(t *testing.T) {
	cfg := config.Cfg()
	g, _ := solveRoom(cfg, testRoom())

	// The door center cell holds its clamped potential through the solve.
	i := g.Idx(1, 25)
	want := float32(cfg.Raster.DoorStrength) * float32(cfg.Solver.SourcePotentialScale)
	if g.Potential[i] != want {
		t.Errorf("expected clamped source potential %f, got %f", want, g.Potential[i])
	}
}

func TestSolvePotentialDecaysFromSource(t *testing.T) {
	g, _ := solveRoom(config.Cfg(), testRoom())

	// Sample along the door row, moving away from the left-wall door.
	p1 := g.Potential[g.Idx(5, 25)]
	p2 := g.Potential[g.Idx(25, 25)]
	p3 := g.Potential[g.Idx(45, 25)]

	if !(p1 > p2 && p2 > p3) {
		t.Errorf("expected potential to decay with distance from the door: %f, %f, %f", p1, p2, p3)
	}

	// Speed falls off too, moving from the steep near-door gradient into
	// the flatter mid-room.
	s1 := g.SpeedAt(5, 25)
	s2 := g.SpeedAt(25, 25)
	if s1 <= s2 {
		t.Errorf("expected speed to decay away from the door: %f vs %f", s1, s2)
	}
}

func TestSolveDoesNotWriteSources(t *testing.T) {
	cfg := config.Cfg()
	g := NewGrid(50, 50)
	NewRasterizer(cfg).Rasterize(g, testRoom())

	before := append([]float32(nil), g.Source...)
	NewSolver(cfg).Solve(g)

	for i := range before {
		if g.Source[i] != before[i] {
			t.Fatalf("solver mutated Source at %d: %f -> %f", i, before[i], g.Source[i])
		}
	}
}

func TestSolveWallsHaveZeroVelocity(t *testing.T) {
	g, _ := solveRoom(config.Cfg(), testRoom())

	for i, m := range g.Material {
		if m >= 1 && (g.VelX[i] != 0 || g.VelY[i] != 0 || g.Speed[i] != 0) {
			t.Fatalf("expected zero velocity in wall cell %d, got (%f,%f)", i, g.VelX[i], g.VelY[i])
		}
	}
}

func TestSolveObstacleAttenuatesVelocity(t *testing.T) {
	cfg := config.Cfg()

	snap := testRoom()
	snap.Furniture = []geometry.Furniture{
		{X: 4, Y: 4, Width: 2, Height: 2, Resistance: 0.9},
	}
	g, _ := solveRoom(cfg, snap)

	// Inside the obstacle the derived velocity is the raw gradient
	// scaled by (1 - resistance).
	i := g.Idx(25, 25)
	if g.Material[i] != 0.9 {
		t.Fatalf("expected obstacle cell, got material %f", g.Material[i])
	}

	rawVX := -(g.Potential[i+1] - g.Potential[i-1]) * 0.5
	wantVX := rawVX * (1 - 0.9)
	if math.Abs(float64(g.VelX[i]-wantVX)) > 1e-5 {
		t.Errorf("expected attenuated vx %f, got %f", wantVX, g.VelX[i])
	}

	// Against an identical run without the furniture, flow through the
	// footprint is strictly slower.
	plain, _ := solveRoom(cfg, testRoom())
	if g.SpeedAt(25, 25) >= plain.SpeedAt(25, 25) {
		t.Errorf("expected obstacle to slow flow: %f vs open %f", g.SpeedAt(25, 25), plain.SpeedAt(25, 25))
	}
}

func TestSolveConvergenceFlag(t *testing.T) {
	base := config.Cfg()

	// Default epsilon 0: runs the full budget, never reports converged.
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	_, res := solveRoom(cfg, testRoom())
	if res.Converged {
		t.Error("expected Converged false with epsilon disabled")
	}
	if res.Iterations != base.Solver.Iterations {
		t.Errorf("expected full budget %d, got %d", base.Solver.Iterations, res.Iterations)
	}

	// A generous epsilon exits early and reports convergence.
	cfg.Solver.Epsilon = 5.0
	_, res = solveRoom(cfg, testRoom())
	if !res.Converged {
		t.Error("expected Converged true with a generous epsilon")
	}
	if res.Iterations >= base.Solver.Iterations {
		t.Errorf("expected early exit, ran all %d sweeps", res.Iterations)
	}
	if res.MaxDelta >= 5.0 {
		t.Errorf("expected final delta below epsilon, got %f", res.MaxDelta)
	}
}

func TestSolveRepeatableOnSameGrid(t *testing.T) {
	cfg := config.Cfg()
	g := NewGrid(50, 50)
	r := NewRasterizer(cfg)
	s := NewSolver(cfg)

	r.Rasterize(g, testRoom())
	s.Solve(g)
	first := append([]float32(nil), g.Potential...)

	// Re-rasterize and re-solve: the outcome must be bit-identical.
	r.Rasterize(g, testRoom())
	s.Solve(g)

	for i := range first {
		if g.Potential[i] != first[i] {
			t.Fatalf("potential differs at %d on repeat solve: %f vs %f", i, first[i], g.Potential[i])
		}
	}
}

func TestPositiveModifierRaisesPotential(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	plain := testRoom()
	boosted := testRoom()
	boosted.Furniture = []geometry.Furniture{
		{X: 6, Y: 4, Width: 1, Height: 2, FlowModifier: 0.5, Element: geometry.ElementPlant},
	}

	a, _ := solveRoom(cfg, plain)
	b, _ := solveRoom(cfg, boosted)

	// The plant occupies grid cells around (32, 25); its positive
	// modifier draws potential up locally.
	i := a.Idx(32, 25)
	if b.Potential[i] <= a.Potential[i] {
		t.Errorf("expected plant to raise local potential: %f vs %f", b.Potential[i], a.Potential[i])
	}
}

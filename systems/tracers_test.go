package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/qiflow/components"
	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/field"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

// sourceGrid is a 30x30 open grid with a single source cell at (15,15).
func sourceGrid() *field.Grid {
	g := field.NewGrid(30, 30)
	g.Source[g.Idx(15, 15)] = 1
	return g
}

func newTestSystem(grid *field.Grid, count int, seed int64) *TracerSystem {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Tracer.Count = count

	ts := NewTracerSystem(cfg, grid, rand.New(rand.NewSource(seed)))
	ts.SetGrid(grid)
	return ts
}

func TestPopulationReachesCap(t *testing.T) {
	ts := newTestSystem(sourceGrid(), 40, 1)

	if ts.Count() != 0 {
		t.Fatalf("expected empty population before first update, got %d", ts.Count())
	}

	ts.Update(1)
	if ts.Count() != 40 {
		t.Errorf("expected population at cap 40, got %d", ts.Count())
	}

	// Stays at cap on subsequent ticks.
	for i := 0; i < 5; i++ {
		ts.Update(1)
	}
	if ts.Count() != 40 {
		t.Errorf("expected population held at cap, got %d", ts.Count())
	}
}

func TestNoSourcesNoTracers(t *testing.T) {
	g := field.NewGrid(30, 30)
	ts := newTestSystem(g, 40, 1)

	if ts.Sources() != 0 {
		t.Fatalf("expected no spawn cells, got %d", ts.Sources())
	}

	for i := 0; i < 3; i++ {
		ts.Update(1)
	}
	if ts.Count() != 0 {
		t.Errorf("expected no tracers without sources, got %d", ts.Count())
	}
}

func TestSpawnNearSource(t *testing.T) {
	ts := newTestSystem(sourceGrid(), 40, 1)
	ts.Update(1)

	cfg := config.Cfg()
	maxDist := float32(cfg.Tracer.SpawnJitter) + 0.01

	n := 0
	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		n++
		dx := float64(pos.X - 15)
		dy := float64(pos.Y - 15)
		if math.Abs(dx) > float64(maxDist) || math.Abs(dy) > float64(maxDist) {
			t.Errorf("tracer spawned at (%f,%f), outside jitter range of (15,15)", pos.X, pos.Y)
		}
		if tr.Life != 1 {
			t.Errorf("expected full life at spawn, got %f", tr.Life)
		}
	})
	if n != 40 {
		t.Errorf("expected to visit 40 tracers, visited %d", n)
	}
}

func TestStagnantTracersDrift(t *testing.T) {
	// Zero velocity everywhere: every tracer sits in a stagnant pocket.
	ts := newTestSystem(sourceGrid(), 20, 1)
	ts.Update(1)
	for i := 0; i < 5; i++ {
		ts.Update(1)
	}

	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		if tr.Stagnant == 0 {
			t.Errorf("expected stagnation counter to advance in a dead field, age=%d", tr.Age)
		}
	})
}

func TestAdvectionFollowsField(t *testing.T) {
	g := sourceGrid()
	// Uniform rightward field.
	for i := range g.VelX {
		g.VelX[i] = 1
		g.Speed[i] = 1
	}

	ts := newTestSystem(g, 10, 1)
	ts.Update(1) // spawn only

	var before []float32
	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		before = append(before, pos.X)
	})

	ts.Update(1)

	cfg := config.Cfg()
	i := 0
	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		// Max speed is 1, so the fastest tracer advances exactly
		// `advance` cells per tick.
		want := before[i] + float32(cfg.Tracer.Advance)
		if math.Abs(float64(pos.X-want)) > 1e-4 {
			t.Errorf("tracer %d: expected x %f after advection, got %f", i, want, pos.X)
		}
		i++
	})
}

func TestTracerDiesInWall(t *testing.T) {
	g := sourceGrid()
	ts := newTestSystem(g, 10, 1)
	ts.Update(1)

	// Entomb the whole grid except the source; every tracer whose cell
	// became wall respawns at the source next tick.
	for i := range g.Material {
		g.Material[i] = 1
	}
	g.Material[g.Idx(15, 15)] = 0

	ts.Update(1)

	if ts.Count() != 10 {
		t.Errorf("expected population maintained through respawns, got %d", ts.Count())
	}
	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		if tr.Age > 1 {
			t.Errorf("expected freshly respawned tracer, got age %d", tr.Age)
		}
	})
}

func TestResetRemovesAll(t *testing.T) {
	ts := newTestSystem(sourceGrid(), 25, 1)
	ts.Update(1)
	if ts.Count() != 25 {
		t.Fatalf("expected 25 tracers, got %d", ts.Count())
	}

	ts.Reset()
	if ts.Count() != 0 {
		t.Errorf("expected empty population after reset, got %d", ts.Count())
	}

	n := 0
	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) { n++ })
	if n != 0 {
		t.Errorf("expected no live entities after reset, visited %d", n)
	}
}

func TestSeedDeterminism(t *testing.T) {
	a := newTestSystem(sourceGrid(), 30, 42)
	b := newTestSystem(sourceGrid(), 30, 42)

	for i := 0; i < 10; i++ {
		a.Update(1)
		b.Update(1)
	}

	var pa, pb []components.Position
	a.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		pa = append(pa, pos)
	})
	b.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		pb = append(pb, pos)
	})

	if len(pa) != len(pb) {
		t.Fatalf("population mismatch: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("tracer %d diverged: %v vs %v", i, pa[i], pb[i])
		}
	}
}

func TestTrailRecordsHistory(t *testing.T) {
	g := sourceGrid()
	for i := range g.VelX {
		g.VelX[i] = 1
		g.Speed[i] = 1
	}
	ts := newTestSystem(g, 5, 1)

	for i := 0; i < 6; i++ {
		ts.Update(1)
	}

	ts.Each(func(pos components.Position, tr components.Tracer, trail components.Trail) {
		if trail.Len == 0 {
			t.Error("expected trail history after several ticks")
			return
		}
		// Most recent entry lags the head in a rightward field.
		if trail.X[0] >= pos.X {
			t.Errorf("expected trail behind head: trail %f, head %f", trail.X[0], pos.X)
		}
	})
}

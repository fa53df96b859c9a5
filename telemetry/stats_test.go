package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/qiflow/field"
)

func TestComputeFieldStats(t *testing.T) {
	g := field.NewGrid(4, 4)

	// Wall the left column, one source, distinct potentials elsewhere.
	for y := 0; y < 4; y++ {
		g.Material[g.Idx(0, y)] = 1
	}
	g.Source[g.Idx(2, 2)] = 1

	// Open cells get potentials 1..12; wall cells hold junk that must
	// be excluded from the aggregates.
	v := float32(1)
	for y := 0; y < 4; y++ {
		for x := 1; x < 4; x++ {
			g.Potential[g.Idx(x, y)] = v
			v++
		}
	}
	for y := 0; y < 4; y++ {
		g.Potential[g.Idx(0, y)] = -999
	}
	g.Speed[g.Idx(3, 3)] = 2.5

	fs := ComputeFieldStats(g)

	if fs.WallCells != 4 {
		t.Errorf("expected 4 wall cells, got %d", fs.WallCells)
	}
	if fs.OpenCells != 12 {
		t.Errorf("expected 12 open cells, got %d", fs.OpenCells)
	}
	if fs.SourceCells != 1 {
		t.Errorf("expected 1 source cell, got %d", fs.SourceCells)
	}

	// Mean of 1..12 is 6.5; the -999 wall junk must not leak in.
	if math.Abs(fs.PotentialMean-6.5) > 1e-9 {
		t.Errorf("expected potential mean 6.5, got %f", fs.PotentialMean)
	}
	if fs.PotentialMin != 1 || fs.PotentialMax != 12 {
		t.Errorf("expected potential range [1,12], got [%f,%f]", fs.PotentialMin, fs.PotentialMax)
	}
	if fs.MaxSpeed != 2.5 {
		t.Errorf("expected max speed 2.5, got %f", fs.MaxSpeed)
	}
}

func TestComputeFieldStatsAllWalls(t *testing.T) {
	g := field.NewGrid(3, 3)
	for i := range g.Material {
		g.Material[i] = 1
	}

	fs := ComputeFieldStats(g)

	if fs.OpenCells != 0 || fs.WallCells != 9 {
		t.Errorf("expected 0 open / 9 wall, got %d / %d", fs.OpenCells, fs.WallCells)
	}
	// No open cells: aggregates stay zero instead of NaN.
	if fs.PotentialMean != 0 || fs.PotentialStd != 0 {
		t.Errorf("expected zero aggregates, got mean=%f std=%f", fs.PotentialMean, fs.PotentialStd)
	}
}

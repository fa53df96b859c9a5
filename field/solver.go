package field

import (
	"math"
	"time"

	"github.com/pthm-cable/qiflow/config"
)

// Solver relaxes the grid potential toward a steady state using
// successive over-relaxation. Wall cells are excluded from the system,
// source and sink cells are clamped, partial obstacles blend toward
// their previous value, and signed flow modifiers perturb the update.
//
// Termination is a fixed sweep budget so worst-case cost is bounded and
// deterministic. When Epsilon > 0 the solver additionally exits early
// once the largest per-sweep delta falls below it.
type Solver struct {
	iterations     int
	omega          float32
	epsilon        float32
	potScale       float32
	sinkRatio      float32
	sinkStrength   float32
	modifierGain   float32
	turbulenceGain float32

	// Per-solve sink overlay. Auto-placed sinks are solver state, not
	// grid state: Source stays owned by the rasterizer.
	sink []float32
}

// SolveResult reports the outcome of a relaxation pass.
type SolveResult struct {
	Iterations int           // sweeps actually executed
	MaxDelta   float32       // largest cell delta in the final sweep
	Converged  bool          // MaxDelta fell below epsilon (always false when epsilon == 0)
	Elapsed    time.Duration // wall time of the pass
}

// NewSolver creates a solver with parameters from config.
func NewSolver(cfg *config.Config) *Solver {
	return &Solver{
		iterations:     cfg.Solver.Iterations,
		omega:          float32(cfg.Solver.Omega),
		epsilon:        float32(cfg.Solver.Epsilon),
		potScale:       float32(cfg.Solver.SourcePotentialScale),
		sinkRatio:      float32(cfg.Solver.SinkDistanceRatio),
		sinkStrength:   float32(cfg.Solver.SinkStrength),
		modifierGain:   float32(cfg.Solver.ModifierGain),
		turbulenceGain: float32(cfg.Solver.TurbulenceGain),
	}
}

// Solve overwrites the grid potential in place and derives the
// velocity field from it. The grid must be freshly rasterized; calling
// Solve again re-clamps and re-relaxes without accumulating state.
func (s *Solver) Solve(g *Grid) SolveResult {
	start := time.Now()

	s.placeSinks(g)
	s.clamp(g)
	res := s.relax(g)
	DeriveVelocity(g)

	res.Elapsed = time.Since(start)
	return res
}

// placeSinks supplements authored geometry with fixed sinks so flow
// spans the room even when geometry alone leaves the system
// under-determined. Wall-adjacent open interior cells farther than
// sinkRatio of the maximum distance from the source centroid become
// sinks with strength growing quadratically with distance. The
// distance-ratio policy is empirically tuned, not physically derived.
func (s *Solver) placeSinks(g *Grid) {
	n := g.W * g.H
	if cap(s.sink) < n {
		s.sink = make([]float32, n)
	}
	s.sink = s.sink[:n]
	clear(s.sink)

	// Centroid of all inflow cells. No sources means no flow at all;
	// manufacturing sinks would invent motion out of nothing.
	var cx, cy float64
	count := 0
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if g.Source[g.Idx(x, y)] > 0 {
				cx += float64(x)
				cy += float64(y)
				count++
			}
		}
	}
	if count == 0 {
		return
	}
	cx /= float64(count)
	cy /= float64(count)

	// Candidates: open interior cells touching a wall.
	type candidate struct {
		idx  int
		dist float64
	}
	var cands []candidate
	var maxDist float64
	for y := 1; y < g.H-1; y++ {
		for x := 1; x < g.W-1; x++ {
			i := g.Idx(x, y)
			if g.Material[i] >= 1 || g.Source[i] != 0 {
				continue
			}
			wallAdjacent := g.Material[i-1] >= 1 || g.Material[i+1] >= 1 ||
				g.Material[i-g.W] >= 1 || g.Material[i+g.W] >= 1
			if !wallAdjacent {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := math.Sqrt(dx*dx + dy*dy)
			cands = append(cands, candidate{idx: i, dist: d})
			if d > maxDist {
				maxDist = d
			}
		}
	}
	if maxDist == 0 {
		return
	}

	for _, c := range cands {
		ratio := c.dist / maxDist
		if ratio <= float64(s.sinkRatio) {
			continue
		}
		s.sink[c.idx] = -s.sinkStrength * float32(ratio*ratio)
	}
}

// clamp writes the fixed boundary values: sources and sinks hold a
// potential proportional to their strength for the whole solve.
func (s *Solver) clamp(g *Grid) {
	for i, src := range g.Source {
		switch {
		case src != 0:
			g.Potential[i] = src * s.potScale
		case s.sink[i] != 0:
			g.Potential[i] = s.sink[i] * s.potScale
		}
	}
}

// relax runs the SOR sweeps over the interior.
func (s *Solver) relax(g *Grid) SolveResult {
	w := g.W
	var maxDelta float32
	sweeps := 0

	for it := 0; it < s.iterations; it++ {
		maxDelta = 0
		for y := 1; y < g.H-1; y++ {
			row := y * w
			for x := 1; x < w-1; x++ {
				i := row + x

				// Walls are outside the system; sources and sinks are clamped.
				if g.Material[i] >= 1 || g.Source[i] != 0 || s.sink[i] != 0 {
					continue
				}

				avg := (g.Potential[i-1] + g.Potential[i+1] +
					g.Potential[i-w] + g.Potential[i+w]) * 0.25

				// Partial obstacles blend toward the previous value.
				res := g.Material[i]
				next := avg*(1-res) + g.Potential[i]*res

				// Positive modifiers draw flow by raising local potential.
				fm := g.FlowMod[i]
				if fm > 0 {
					next += fm * s.modifierGain
				}

				delta := next - g.Potential[i]

				// Negative modifiers amplify the local swing, producing
				// turbulent oscillation near sharp corners. The combined
				// factor stays below 2 to keep the relaxation stable.
				factor := s.omega
				if fm < 0 {
					amp := -fm
					if amp > 1 {
						amp = 1
					}
					factor *= 1 + amp*s.turbulenceGain
					if factor > 1.95 {
						factor = 1.95
					}
				}

				step := factor * delta
				g.Potential[i] += step
				if step < 0 {
					step = -step
				}
				if step > maxDelta {
					maxDelta = step
				}
			}
		}
		sweeps = it + 1

		if s.epsilon > 0 && maxDelta < s.epsilon {
			return SolveResult{Iterations: sweeps, MaxDelta: maxDelta, Converged: true}
		}
	}

	return SolveResult{Iterations: sweeps, MaxDelta: maxDelta}
}

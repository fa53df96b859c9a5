// Package systems contains the stateful simulation systems that run
// every animation tick.
package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/qiflow/components"
	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/field"
)

// TracerSystem maintains the population of flow tracer particles.
// Tracers spawn at source cells, advect along the sampled velocity
// field, drift randomly in stagnant pockets, and are respawned the
// moment any death condition holds. The RNG is injected so spawn and
// drift behavior are reproducible under a fixed seed.
type TracerSystem struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Velocity, components.Tracer, components.Trail]
	filter *ecs.Filter4[components.Position, components.Velocity, components.Tracer, components.Trail]

	rng     *rand.Rand
	grid    *field.Grid
	sources []int // flat indices of cells with source above threshold
	count   int

	cap             int
	maxAge          int32
	ageJitter       int32
	sourceThreshold float32
	spawnJitter     float32
	advance         float32
	minSpeed        float32
	driftJitter     float32
	stagnationLimit int32
	stagnationDecay float32
}

// NewTracerSystem creates a tracer system reading from the given grid.
func NewTracerSystem(cfg *config.Config, grid *field.Grid, rng *rand.Rand) *TracerSystem {
	world := ecs.NewWorld()

	return &TracerSystem{
		world: world,
		mapper: ecs.NewMap4[
			components.Position,
			components.Velocity,
			components.Tracer,
			components.Trail,
		](world),
		filter: ecs.NewFilter4[
			components.Position,
			components.Velocity,
			components.Tracer,
			components.Trail,
		](world),
		rng:             rng,
		grid:            grid,
		cap:             cfg.Tracer.Count,
		maxAge:          int32(cfg.Tracer.MaxAge),
		ageJitter:       int32(cfg.Tracer.AgeJitter),
		sourceThreshold: float32(cfg.Tracer.SourceThreshold),
		spawnJitter:     float32(cfg.Tracer.SpawnJitter),
		advance:         float32(cfg.Tracer.Advance),
		minSpeed:        float32(cfg.Tracer.MinSpeed),
		driftJitter:     float32(cfg.Tracer.DriftJitter),
		stagnationLimit: int32(cfg.Tracer.StagnationLimit),
		stagnationDecay: float32(cfg.Tracer.StagnationDecay),
	}
}

// SetGrid swaps the grid the system reads from. Sources must be
// re-discovered afterwards; existing tracers keep advecting against
// the new field.
func (s *TracerSystem) SetGrid(grid *field.Grid) {
	s.grid = grid
	s.FindSources()
}

// FindSources precomputes the set of spawn cells: every cell whose
// source strength exceeds the threshold. With no qualifying cell the
// population stays empty and Update is a no-op.
func (s *TracerSystem) FindSources() {
	s.sources = s.sources[:0]
	for i, src := range s.grid.Source {
		if src > s.sourceThreshold {
			s.sources = append(s.sources, i)
		}
	}
}

// Reset removes all live tracers.
func (s *TracerSystem) Reset() {
	// Collect first: structural changes are illegal during iteration.
	var all []ecs.Entity
	query := s.filter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		s.mapper.Remove(e)
	}
	s.count = 0
}

// Count returns the live tracer count.
func (s *TracerSystem) Count() int {
	return s.count
}

// Sources returns the number of known spawn cells.
func (s *TracerSystem) Sources() int {
	return len(s.sources)
}

// Update advances every tracer by one tick and tops the population up
// to the configured cap. dt scales the advection step.
func (s *TracerSystem) Update(dt float32) {
	maxSpeed := s.grid.MaxSpeed()
	var scale float32
	if maxSpeed > 0 {
		// The fastest tracer in the current field advances `advance`
		// cells per tick.
		scale = s.advance / maxSpeed
	}

	var orphans []ecs.Entity

	query := s.filter.Query()
	for query.Next() {
		pos, vel, tr, trail := query.Get()

		trail.Push(pos.X, pos.Y)

		// A tracer inside a wall or off the grid dies on the spot.
		cx := int(math.Floor(float64(pos.X)))
		cy := int(math.Floor(float64(pos.Y)))
		if !s.grid.InBounds(cx, cy) || s.grid.Material[s.grid.Idx(cx, cy)] >= 1 {
			if !s.respawn(pos, vel, tr, trail) {
				orphans = append(orphans, query.Entity())
			}
			continue
		}

		vx, vy := s.grid.VelocityAtF(pos.X, pos.Y)
		speed := float32(math.Sqrt(float64(vx*vx + vy*vy)))

		if speed > s.minSpeed && scale > 0 {
			pos.X += vx * scale * dt
			pos.Y += vy * scale * dt
			vel.X, vel.Y = vx, vy
			tr.Stagnant = 0
		} else {
			// Stagnant pocket: diffuse randomly instead of freezing.
			pos.X += (s.rng.Float32()*2 - 1) * s.driftJitter
			pos.Y += (s.rng.Float32()*2 - 1) * s.driftJitter
			tr.Stagnant++
		}

		tr.Age++
		life := 1 - float32(tr.Age)/float32(tr.MaxAge)
		if over := tr.Stagnant - s.stagnationLimit; over > 0 {
			life -= s.stagnationDecay * float32(over)
		}
		if life < 0 {
			life = 0
		}
		tr.Life = life

		nx := int(math.Floor(float64(pos.X)))
		ny := int(math.Floor(float64(pos.Y)))
		if tr.Life <= 0 || tr.Age > tr.MaxAge || !s.grid.InBounds(nx, ny) {
			if !s.respawn(pos, vel, tr, trail) {
				orphans = append(orphans, query.Entity())
			}
		}
	}

	// Tracers that died with no source left to respawn at.
	for _, e := range orphans {
		s.mapper.Remove(e)
		s.count--
	}

	// Top the population up to the cap, one spawn per missing slot.
	if len(s.sources) > 0 {
		for s.count < s.cap {
			s.spawn()
		}
	}
}

// respawn reseeds a tracer in place at a random source cell. Returns
// false when no source cell exists.
func (s *TracerSystem) respawn(pos *components.Position, vel *components.Velocity, tr *components.Tracer, trail *components.Trail) bool {
	if len(s.sources) == 0 {
		return false
	}

	i := s.sources[s.rng.Intn(len(s.sources))]
	pos.X = float32(i%s.grid.W) + (s.rng.Float32()*2-1)*s.spawnJitter
	pos.Y = float32(i/s.grid.W) + (s.rng.Float32()*2-1)*s.spawnJitter
	vel.X, vel.Y = 0, 0

	tr.Age = 0
	tr.MaxAge = s.maxAge
	if s.ageJitter > 0 {
		tr.MaxAge += s.rng.Int31n(s.ageJitter)
	}
	tr.Life = 1
	tr.Stagnant = 0
	trail.Clear()
	return true
}

// spawn creates a fresh tracer entity at a random source cell.
func (s *TracerSystem) spawn() {
	var pos components.Position
	var vel components.Velocity
	var tr components.Tracer
	var trail components.Trail
	s.respawn(&pos, &vel, &tr, &trail)

	s.mapper.NewEntity(&pos, &vel, &tr, &trail)
	s.count++
}

// Each calls fn with a read-only copy of every live tracer's state, in
// storage order. Renderers use this to draw without touching the ECS.
func (s *TracerSystem) Each(fn func(pos components.Position, tr components.Tracer, trail components.Trail)) {
	query := s.filter.Query()
	for query.Next() {
		pos, _, tr, trail := query.Get()
		fn(*pos, *tr, *trail)
	}
}

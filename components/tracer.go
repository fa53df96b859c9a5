// Package components defines the ECS components carried by tracer
// particles.
package components

// Position is a tracer's continuous position in grid-cell units.
type Position struct {
	X, Y float32
}

// Velocity is the velocity last sampled from the field at the
// tracer's position.
type Velocity struct {
	X, Y float32
}

// Tracer holds a particle's lifecycle state. A tracer is either alive
// or dead; death is terminal and the slot is reseeded immediately.
type Tracer struct {
	Age      int32   // elapsed ticks
	MaxAge   int32   // death age
	Life     float32 // 1 at spawn, decays to 0
	Stagnant int32   // consecutive ticks below the speed threshold
}

// TrailLength is the fixed trail capacity. Oldest entries are evicted
// on overflow.
const TrailLength = 12

// Trail is a bounded history of previous positions, most recent first.
// It exists only for rendering and is never semantically authoritative.
type Trail struct {
	X, Y [TrailLength]float32
	Len  uint8
}

// Push shifts the history and records a new most-recent position.
func (t *Trail) Push(x, y float32) {
	for i := TrailLength - 1; i > 0; i-- {
		t.X[i] = t.X[i-1]
		t.Y[i] = t.Y[i-1]
	}
	t.X[0] = x
	t.Y[0] = y
	if t.Len < TrailLength {
		t.Len++
	}
}

// Clear drops the history, e.g. after a respawn or teleport so no line
// is drawn across the room.
func (t *Trail) Clear() {
	t.Len = 0
}

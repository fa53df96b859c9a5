// Package geometry defines the room description consumed by the
// rasterizer: wall/door/window segments, furniture rectangles, and the
// room bounds that map continuous coordinates onto the grid.
package geometry

// SegmentKind tags a line segment with its role in the room.
type SegmentKind uint8

const (
	KindWall SegmentKind = iota
	KindDoor
	KindWindow
)

// String returns the YAML/name form of the kind.
func (k SegmentKind) String() string {
	switch k {
	case KindDoor:
		return "door"
	case KindWindow:
		return "window"
	default:
		return "wall"
	}
}

// Element tags furniture with its influence class.
type Element string

const (
	ElementMirror Element = "mirror"
	ElementPlant  Element = "plant"
	ElementRug    Element = "rug"
	// Anything else is treated as a plain blocker.
)

// Bounds is the room rectangle in continuous units. It defines the
// linear mapping from continuous coordinates to grid cells.
type Bounds struct {
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Segment is a line between two continuous-coordinate endpoints.
// A zero-length segment (both endpoints equal) is valid and rasterizes
// as a single point.
type Segment struct {
	Kind SegmentKind `yaml:"-"`
	X1   float32     `yaml:"x1"`
	Y1   float32     `yaml:"y1"`
	X2   float32     `yaml:"x2"`
	Y2   float32     `yaml:"y2"`
}

// Furniture is an axis-aligned rectangle with flow influence.
type Furniture struct {
	X            float32 `yaml:"x"`
	Y            float32 `yaml:"y"`
	Width        float32 `yaml:"width"`
	Height       float32 `yaml:"height"`
	Resistance   float32 `yaml:"resistance"`    // 0 = open, 1 = impassable
	FlowModifier float32 `yaml:"flow_modifier"` // signed non-blocking influence
	SharpCorners bool    `yaml:"sharp_corners"` // emits a poison-arrow halo at each corner
	Element      Element `yaml:"element"`
}

// Snapshot is an immutable view of the room at rasterization time.
// The rasterizer never mutates it; callers hand over ownership.
type Snapshot struct {
	Bounds    Bounds      `yaml:"bounds"`
	Walls     []Segment   `yaml:"walls"`
	Doors     []Segment   `yaml:"doors"`
	Windows   []Segment   `yaml:"windows"`
	Furniture []Furniture `yaml:"furniture"`
}

// Clone returns a deep copy of the snapshot. The engine clones queued
// snapshots so a caller reusing its slices cannot race the solver.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Bounds: s.Bounds}
	out.Walls = append([]Segment(nil), s.Walls...)
	out.Doors = append([]Segment(nil), s.Doors...)
	out.Windows = append([]Segment(nil), s.Windows...)
	out.Furniture = append([]Furniture(nil), s.Furniture...)
	return out
}

// tagKinds stamps the segment kind onto each slice. YAML room files
// carry the kind implicitly in the section name.
func (s *Snapshot) tagKinds() {
	for i := range s.Walls {
		s.Walls[i].Kind = KindWall
	}
	for i := range s.Doors {
		s.Doors[i].Kind = KindDoor
	}
	for i := range s.Windows {
		s.Windows[i].Kind = KindWindow
	}
}

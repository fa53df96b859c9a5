package field

import (
	"math"

	"github.com/pthm-cable/qiflow/config"
	"github.com/pthm-cable/qiflow/geometry"
)

// Rasterizer converts a continuous-coordinate room snapshot into grid
// cell state. Rasterize fully resets the grid and rewrites it; two
// calls with the same snapshot produce bit-identical arrays.
type Rasterizer struct {
	doorStrength   float32
	doorNeighbor   float32
	windowStrength float32
	windowNeighbor float32
	mirrorStrength float32
	haloRadius     int
	haloStrength   float32
}

// NewRasterizer creates a rasterizer with strengths from config.
func NewRasterizer(cfg *config.Config) *Rasterizer {
	return &Rasterizer{
		doorStrength:   float32(cfg.Raster.DoorStrength),
		doorNeighbor:   float32(cfg.Raster.DoorNeighborStrength),
		windowStrength: float32(cfg.Raster.WindowStrength),
		windowNeighbor: float32(cfg.Raster.WindowNeighborStrength),
		mirrorStrength: float32(cfg.Raster.MirrorStrength),
		haloRadius:     cfg.Raster.HaloRadius,
		haloStrength:   float32(cfg.Raster.HaloStrength),
	}
}

// Rasterize resets the grid and writes the snapshot into it.
// Fixed order: border ring, walls, doors, windows, furniture.
func (r *Rasterizer) Rasterize(g *Grid, snap geometry.Snapshot) {
	g.Reset()

	sx := float32(g.W) / snap.Bounds.Width
	sy := float32(g.H) / snap.Bounds.Height

	// 1. The outer ring is always wall, independent of geometry.
	for x := 0; x < g.W; x++ {
		g.Material[g.Idx(x, 0)] = 1
		g.Material[g.Idx(x, g.H-1)] = 1
	}
	for y := 0; y < g.H; y++ {
		g.Material[g.Idx(0, y)] = 1
		g.Material[g.Idx(g.W-1, y)] = 1
	}

	// 2. Walls: thicken each rasterized cell with its four orthogonal
	// neighbors so the solver sees a closed barrier, not a porous line.
	for _, seg := range snap.Walls {
		r.walkSegment(g, snap.Bounds, sx, sy, seg, func(x, y int) {
			r.stampWall(g, x, y)
		})
	}

	// 3. Doors: carve an opening at least 3 cells wide with a strong
	// inflow source at the center and a weaker ring around it.
	for _, seg := range snap.Doors {
		r.walkSegment(g, snap.Bounds, sx, sy, seg, func(x, y int) {
			r.carveOpening(g, x, y, r.doorStrength, r.doorNeighbor)
		})
	}

	// 4. Windows: same carve with secondary inflow strengths.
	for _, seg := range snap.Windows {
		r.walkSegment(g, snap.Bounds, sx, sy, seg, func(x, y int) {
			r.carveOpening(g, x, y, r.windowStrength, r.windowNeighbor)
		})
	}

	// 5. Furniture.
	for _, f := range snap.Furniture {
		r.stampFurniture(g, snap.Bounds, sx, sy, f)
	}
}

// walkSegment maps a segment into grid space and visits every cell on
// the integer line between its endpoints. Zero-length segments visit a
// single cell.
func (r *Rasterizer) walkSegment(g *Grid, b geometry.Bounds, sx, sy float32, seg geometry.Segment, visit func(x, y int)) {
	x0 := clampInt(int((seg.X1-b.X)*sx), 0, g.W-1)
	y0 := clampInt(int((seg.Y1-b.Y)*sy), 0, g.H-1)
	x1 := clampInt(int((seg.X2-b.X)*sx), 0, g.W-1)
	y1 := clampInt(int((seg.Y2-b.Y)*sy), 0, g.H-1)
	bresenham(x0, y0, x1, y1, visit)
}

// stampWall marks a cell and its four orthogonal neighbors as wall.
func (r *Rasterizer) stampWall(g *Grid, x, y int) {
	g.Material[g.Idx(x, y)] = 1
	for _, d := range orthoNeighbors {
		nx, ny := x+d[0], y+d[1]
		if g.InBounds(nx, ny) {
			g.Material[g.Idx(nx, ny)] = 1
		}
	}
}

// carveOpening clears wall material and installs an inflow source at a
// cell and its four orthogonal neighbors. Cells are clamped to the
// interior so the border ring stays wall. Source strengths accumulate
// as a max so the neighbor pass never downgrades a center cell.
func (r *Rasterizer) carveOpening(g *Grid, x, y int, center, neighbor float32) {
	x = clampInt(x, 1, g.W-2)
	y = clampInt(y, 1, g.H-2)

	i := g.Idx(x, y)
	g.Material[i] = 0
	g.Source[i] = maxf(g.Source[i], center)

	for _, d := range orthoNeighbors {
		nx := clampInt(x+d[0], 1, g.W-2)
		ny := clampInt(y+d[1], 1, g.H-2)
		j := g.Idx(nx, ny)
		g.Material[j] = 0
		g.Source[j] = maxf(g.Source[j], neighbor)
	}
}

// stampFurniture writes a furniture rectangle into the grid interior.
func (r *Rasterizer) stampFurniture(g *Grid, b geometry.Bounds, sx, sy float32, f geometry.Furniture) {
	x0 := clampInt(int((f.X-b.X)*sx), 1, g.W-2)
	y0 := clampInt(int((f.Y-b.Y)*sy), 1, g.H-2)
	x1 := clampInt(int((f.X+f.Width-b.X)*sx), 1, g.W-2)
	y1 := clampInt(int((f.Y+f.Height-b.Y)*sy), 1, g.H-2)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			i := g.Idx(x, y)
			switch f.Element {
			case geometry.ElementMirror:
				// Mirrors redirect rather than block: a weak local source.
				g.Source[i] = maxf(g.Source[i], r.mirrorStrength)
			case geometry.ElementPlant, geometry.ElementRug:
				g.FlowMod[i] += f.FlowModifier
				if f.Resistance > 0 {
					g.Material[i] = maxf(g.Material[i], f.Resistance)
				}
			default:
				g.Material[i] = maxf(g.Material[i], f.Resistance)
				g.FlowMod[i] += f.FlowModifier
			}
		}
	}

	if f.SharpCorners {
		r.stampHalo(g, x0, y0)
		r.stampHalo(g, x1, y0)
		r.stampHalo(g, x0, y1)
		r.stampHalo(g, x1, y1)
	}
}

// stampHalo applies the poison-arrow effect: a radial negative flow
// modifier centered on a sharp corner, decaying linearly with distance.
func (r *Rasterizer) stampHalo(g *Grid, cx, cy int) {
	rad := r.haloRadius
	for dy := -rad; dy <= rad; dy++ {
		for dx := -rad; dx <= rad; dx++ {
			x, y := cx+dx, cy+dy
			if x < 1 || x > g.W-2 || y < 1 || y > g.H-2 {
				continue
			}
			d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if d >= float32(rad) {
				continue
			}
			g.FlowMod[g.Idx(x, y)] -= r.haloStrength * (1 - d/float32(rad))
		}
	}
}

// orthoNeighbors are the four orthogonal cell offsets.
var orthoNeighbors = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// bresenham visits every cell on the integer line from (x0,y0) to
// (x1,y1), endpoints included. Degenerate lines visit one cell.
func bresenham(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

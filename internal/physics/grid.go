package physics

import "math"

// Grid buckets handles by XZ cell for broad-phase queries. Callers insert
// everything once per step and Reset before the next; Y is ignored.
// Accessed only from the sim thread, no locks.
type Grid struct {
	size  float64
	cells map[cellKey][]int
	n     int
}

type cellKey struct {
	cx, cz int32
}

// NewGrid makes a grid with square cells of size metres. Pick a size near
// the typical query extent so most queries touch a 3x3 neighbourhood.
func NewGrid(size float64) *Grid {
	if !(size > 0) {
		size = 1
	}
	return &Grid{size: size, cells: make(map[cellKey][]int)}
}

func (g *Grid) coord(v float64) int32 {
	return int32(math.Floor(v / g.size))
}

// Reset empties every cell. Cell storage is reused; cells left empty
// since the previous Reset are dropped.
func (g *Grid) Reset() {
	for k, v := range g.cells {
		if len(v) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = v[:0]
	}
	g.n = 0
}

// Insert files handle h at (x, z).
func (g *Grid) Insert(h int, x, z float64) {
	k := cellKey{g.coord(x), g.coord(z)}
	g.cells[k] = append(g.cells[k], h)
	g.n++
}

// Len returns the number of handles inserted since the last Reset.
func (g *Grid) Len() int { return g.n }

// Query calls fn for every handle in a cell overlapping the rectangle.
// Caller does the exact distance test.
func (g *Grid) Query(minX, minZ, maxX, maxZ float64, fn func(h int)) {
	if g.n == 0 {
		return
	}
	x0, x1 := g.coord(minX), g.coord(maxX)
	z0, z1 := g.coord(minZ), g.coord(maxZ)
	span := (int64(x1) - int64(x0) + 1) * (int64(z1) - int64(z0) + 1)
	if span > int64(len(g.cells)) {
		// 範圍比已用格子還大，直接掃全部
		for k, hs := range g.cells {
			if k.cx < x0 || k.cx > x1 || k.cz < z0 || k.cz > z1 {
				continue
			}
			for _, h := range hs {
				fn(h)
			}
		}
		return
	}
	for cx := x0; cx <= x1; cx++ {
		for cz := z0; cz <= z1; cz++ {
			for _, h := range g.cells[cellKey{cx, cz}] {
				fn(h)
			}
		}
	}
}

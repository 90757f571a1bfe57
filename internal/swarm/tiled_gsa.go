package swarm

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sort"

	"github.com/cwbudde/swarmbench/internal/problem"
)

// Defaults for the tiled variant.
const (
	DefaultTiles      = 4
	DefaultTileRadius = 1
)

// maxTileCoord keeps tile coordinates of far-away particles representable.
const maxTileCoord = 1 << 30

// TileAdjacency decides whether two tiles, given by integer grid
// coordinates, interact.
type TileAdjacency func(a, b []int) bool

// ChebyshevAdjacency treats tiles as neighbours when no coordinate differs by
// more than radius. Radius 1 is the tile itself plus the 3^D-1 surrounding
// tiles.
func ChebyshevAdjacency(radius int) TileAdjacency {
	return func(a, b []int) bool {
		for d := range a {
			diff := a[d] - b[d]
			if diff < -radius || diff > radius {
				return false
			}
		}
		return true
	}
}

// TiledGSA is GSA with forces restricted to particles in the same or an
// adjacent tile of a uniform grid over the search box. Interactions between
// distant tiles are dropped, not approximated.
//
// Hyperparameters: those of GSA plus tiles (per dimension) and tile_radius.
type TiledGSA struct {
	GSA
}

// NewTiledGSA creates an uninitialized tiled GSA optimizer.
func NewTiledGSA(name string, p *problem.Problem, params Params, outDir string) (*TiledGSA, error) {
	gsa, err := NewGSA(name, p, params, outDir)
	if err != nil {
		return nil, err
	}

	tiles, err := params.IntOr("tiles", DefaultTiles)
	if err != nil {
		return nil, err
	}
	if tiles < 1 {
		return nil, &ParamError{Name: "tiles", Reason: "must be positive"}
	}
	radius, err := params.IntOr("tile_radius", DefaultTileRadius)
	if err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, &ParamError{Name: "tile_radius", Reason: "cannot be negative"}
	}

	lower, upper := p.Bounds()
	gsa.grid = newTileGrid(lower, upper, tiles, ChebyshevAdjacency(radius))
	gsa.grid.radius = radius
	return &TiledGSA{GSA: *gsa}, nil
}

// tileGrid partitions particles by position. Only occupied tiles are
// materialized, so the grid works in any dimension.
type tileGrid struct {
	lower    float64
	width    float64
	adjacent TileAdjacency

	// radius is the Chebyshev radius behind adjacent, or -1 when adjacent is
	// an arbitrary policy.
	radius int

	tileOf    []int   // particle -> tile
	coords    [][]int // tile -> grid coordinates
	members   [][]int // tile -> particles, ascending
	neighbors [][]int // tile -> particles of adjacent tiles, ascending
}

func newTileGrid(lower, upper float64, tiles int, adjacent TileAdjacency) *tileGrid {
	return &tileGrid{
		lower:    lower,
		width:    (upper - lower) / float64(tiles),
		adjacent: adjacent,
		radius:   -1,
	}
}

// coord maps a position to tile coordinates. Positions outside the box fall
// into outer tiles.
func (g *tileGrid) coord(pos []float64) []int {
	c := make([]int, len(pos))
	for d, x := range pos {
		v := math.Floor((x - g.lower) / g.width)
		switch {
		case math.IsNaN(v):
			v = maxTileCoord
		case v > maxTileCoord:
			v = maxTileCoord
		case v < -maxTileCoord:
			v = -maxTileCoord
		}
		c[d] = int(v)
	}
	return c
}

func tileKey(c []int) string {
	buf := make([]byte, 0, 8*len(c))
	for _, v := range c {
		buf = binary.AppendVarint(buf, int64(v))
	}
	return string(buf)
}

// assign rebuilds the tiles from the current positions.
func (g *tileGrid) assign(positions [][]float64) {
	index := make(map[string]int)
	g.tileOf = make([]int, len(positions))
	g.coords = g.coords[:0]
	g.members = g.members[:0]

	for i, pos := range positions {
		c := g.coord(pos)
		key := tileKey(c)
		tile, ok := index[key]
		if !ok {
			tile = len(g.coords)
			index[key] = tile
			g.coords = append(g.coords, c)
			g.members = append(g.members, nil)
		}
		g.tileOf[i] = tile
		g.members[tile] = append(g.members[tile], i)
	}

	lookup := g.radius >= 0 && len(positions) > 0 && chebyshevVolume(g.radius, len(positions[0]), len(g.coords)) < len(g.coords)

	g.neighbors = make([][]int, len(g.coords))
	for a := range g.coords {
		var near []int
		if lookup {
			near = g.lookupNeighbors(index, g.coords[a])
		} else {
			for b := range g.coords {
				if g.adjacent(g.coords[a], g.coords[b]) {
					near = append(near, g.members[b]...)
				}
			}
		}
		sort.Ints(near)
		g.neighbors[a] = near
	}

	slog.Debug("Tiles assigned", "particles", len(positions), "occupied", len(g.coords), "lookup", lookup)
}

// chebyshevVolume returns the number of tiles within radius of a tile in dim
// dimensions, or limit when it is at least limit.
func chebyshevVolume(radius, dim, limit int) int {
	side := 2*radius + 1
	if side < 1 {
		return limit // overflow
	}
	volume := 1
	for d := 0; d < dim; d++ {
		if volume > limit/side {
			return limit
		}
		volume *= side
	}
	return volume
}

// lookupNeighbors visits every tile within the Chebyshev radius of c and
// collects the members of the occupied ones.
func (g *tileGrid) lookupNeighbors(index map[string]int, c []int) []int {
	var near []int
	offset := make([]int, len(c))
	for d := range offset {
		offset[d] = -g.radius
	}
	at := make([]int, len(c))
	for {
		for d := range c {
			at[d] = c[d] + offset[d]
		}
		if tile, ok := index[tileKey(at)]; ok {
			near = append(near, g.members[tile]...)
		}

		d := 0
		for ; d < len(offset); d++ {
			if offset[d] < g.radius {
				offset[d]++
				break
			}
			offset[d] = -g.radius
		}
		if d == len(offset) {
			return near
		}
	}
}

// partners returns the particles that interact with particle i, including i
// itself.
func (g *tileGrid) partners(i int) []int {
	return g.neighbors[g.tileOf[i]]
}

package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
)

type cellKey struct {
	cx, cy, cz int32
}

// SpatialGrid buckets entities by the cell their world position falls in.
// Accessed only from the frame loop goroutine, no locks.
type SpatialGrid struct {
	cellSize float32
	cells    map[cellKey]map[ecs.EntityUID]struct{}
	where    map[ecs.EntityUID]cellKey
}

func NewSpatialGrid(cellSize float32) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[ecs.EntityUID]struct{}),
		where:    make(map[ecs.EntityUID]cellKey),
	}
}

func (g *SpatialGrid) CellSize() float32 { return g.cellSize }
func (g *SpatialGrid) Len() int          { return len(g.where) }

func (g *SpatialGrid) key(p mgl32.Vec3) cellKey {
	f := func(v float32) int32 { return int32(math.Floor(float64(v / g.cellSize))) }
	return cellKey{f(p[0]), f(p[1]), f(p[2])}
}

// Place puts an entity in the cell for p, moving it if it was elsewhere.
// It reports whether the entity changed cell.
func (g *SpatialGrid) Place(uid ecs.EntityUID, p mgl32.Vec3) bool {
	k := g.key(p)
	old, ok := g.where[uid]
	if ok && old == k {
		return false
	}
	if ok {
		g.removeFrom(uid, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityUID]struct{})
		g.cells[k] = cell
	}
	cell[uid] = struct{}{}
	g.where[uid] = k
	return true
}

// Remove takes an entity out of the grid.
func (g *SpatialGrid) Remove(uid ecs.EntityUID) {
	if k, ok := g.where[uid]; ok {
		g.removeFrom(uid, k)
		delete(g.where, uid)
	}
}

func (g *SpatialGrid) removeFrom(uid ecs.EntityUID, k cellKey) {
	cell := g.cells[k]
	if cell != nil {
		delete(cell, uid)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Nearby returns the entities in every cell overlapping the cube of half
// size radius around p. Caller does fine-grained distance filtering.
func (g *SpatialGrid) Nearby(p mgl32.Vec3, radius float32) []ecs.EntityUID {
	lo := g.key(p.Sub(mgl32.Vec3{radius, radius, radius}))
	hi := g.key(p.Add(mgl32.Vec3{radius, radius, radius}))
	var result []ecs.EntityUID
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cy := lo.cy; cy <= hi.cy; cy++ {
			for cz := lo.cz; cz <= hi.cz; cz++ {
				for uid := range g.cells[cellKey{cx, cy, cz}] {
					result = append(result, uid)
				}
			}
		}
	}
	return result
}

package system

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/event"
	"github.com/scenekit/engine/internal/scene"
)

// GridSystem keeps a spatial grid of every scene graph node's world
// position. Stage PreRender, after the nodes refreshed their world matrix.
type GridSystem struct {
	scene *scene.Scene
	grid  *scene.SpatialGrid
	moved int
}

func NewGridSystem(sc *scene.Scene, cellSize float32) *GridSystem {
	s := &GridSystem{scene: sc, grid: scene.NewSpatialGrid(cellSize)}
	event.Subscribe(sc.World().Events(), func(ev ecs.EntityDeleted) { s.grid.Remove(ev.UID) })
	return s
}

func (s *GridSystem) Stage() ecs.ProcessStage { return ecs.PreRender }

func (s *GridSystem) Grid() *scene.SpatialGrid { return s.grid }

// Moved returns how many nodes changed cell in the last update.
func (s *GridSystem) Moved() int { return s.moved }

func (s *GridSystem) Update(*ecs.ProcessContext) {
	s.moved = 0
	ecs.Each1(s.scene.World().Components(), s.scene.SceneGraphTID(), func(sg *scene.SceneGraphComponent) {
		if s.grid.Place(sg.EntityUID(), sg.WorldPosition()) {
			s.moved++
		}
	})
}

// Nearby returns the entities whose world position is within radius of p.
func (s *GridSystem) Nearby(p mgl32.Vec3, radius float32) []ecs.EntityUID {
	var out []ecs.EntityUID
	for _, uid := range s.grid.Nearby(p, radius) {
		sg := s.scene.SceneGraph(uid)
		if sg == nil {
			continue
		}
		if sg.WorldPosition().Sub(p).Len() <= radius {
			out = append(out, uid)
		}
	}
	return out
}

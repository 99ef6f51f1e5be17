package scene

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/ecs"
	"go.uber.org/zap"
)

const (
	TransformClass  = "TransformComponent"
	SceneGraphClass = "SceneGraphComponent"
)

// Config reserves per-class capacity. Zero falls back to the world's
// default.
type Config struct {
	MaxTransforms  int
	MaxSceneGraphs int
}

// Scene registers the transform and scene graph classes on a World and
// builds group entities from them.
type Scene struct {
	world         *ecs.World
	transformTID  ecs.ComponentTID
	sceneGraphTID ecs.ComponentTID
	log           *zap.Logger
}

func New(w *ecs.World, cfg Config, log *zap.Logger) (*Scene, error) {
	s := &Scene{world: w, log: log}

	var err error
	s.transformTID, err = w.Components().RegisterClass(ecs.ClassSpec{
		Name:     TransformClass,
		MaxCount: cfg.MaxTransforms,
		Members:  transformMembers,
		New: func(base ecs.Base) (ecs.Component, error) {
			return newTransform(s, base)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	s.sceneGraphTID, err = w.Components().RegisterClass(ecs.ClassSpec{
		Name:     SceneGraphClass,
		MaxCount: cfg.MaxSceneGraphs,
		Members:  sceneGraphMembers,
		New: func(base ecs.Base) (ecs.Component, error) {
			return newSceneGraph(s, base)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	w.Entities().OnRemove(s.sceneGraphTID, func(_ *ecs.Entity, c ecs.Component) {
		if sg, ok := c.(*SceneGraphComponent); ok {
			sg.detach()
		}
	})

	log.Info("scene classes registered",
		zap.Int32("transform_tid", int32(s.transformTID)),
		zap.Int32("scene_graph_tid", int32(s.sceneGraphTID)),
	)
	return s, nil
}

func (s *Scene) World() *ecs.World               { return s.world }
func (s *Scene) TransformTID() ecs.ComponentTID  { return s.transformTID }
func (s *Scene) SceneGraphTID() ecs.ComponentTID { return s.sceneGraphTID }

// Transform returns an entity's transform, or nil.
func (s *Scene) Transform(uid ecs.EntityUID) *TransformComponent {
	c, ok := s.world.Entities().ComponentOfEntity(uid, s.transformTID)
	if !ok {
		return nil
	}
	t, _ := c.(*TransformComponent)
	return t
}

// SceneGraph returns an entity's scene graph node, or nil.
func (s *Scene) SceneGraph(uid ecs.EntityUID) *SceneGraphComponent {
	c, ok := s.world.Entities().ComponentOfEntity(uid, s.sceneGraphTID)
	if !ok {
		return nil
	}
	sg, _ := c.(*SceneGraphComponent)
	return sg
}

// CreateGroupEntity creates an entity carrying a transform and a scene
// graph node, with extra classes attached after them.
func (s *Scene) CreateGroupEntity(extra ...ecs.ComponentTID) (*GroupEntity, error) {
	tids := append([]ecs.ComponentTID{s.transformTID, s.sceneGraphTID}, extra...)
	e, err := s.world.CreateEntity(tids...)
	if err != nil {
		return nil, fmt.Errorf("create group entity: %w", err)
	}
	g, _ := s.GroupEntity(e.UID())
	return g, nil
}

// GroupEntity wraps an existing entity that has both a transform and a
// scene graph node.
func (s *Scene) GroupEntity(uid ecs.EntityUID) (*GroupEntity, bool) {
	e, ok := s.world.Entities().Entity(uid)
	if !ok {
		return nil, false
	}
	t, okT := ecs.ComponentAs[*TransformComponent](e, s.transformTID)
	sg, okS := ecs.ComponentAs[*SceneGraphComponent](e, s.sceneGraphTID)
	if !okT || !okS {
		return nil, false
	}
	return &GroupEntity{Entity: e, transform: t, sceneGraph: sg}, true
}

// Roots lists live scene graph nodes without a parent, in SID order.
func (s *Scene) Roots() []*SceneGraphComponent {
	var out []*SceneGraphComponent
	ecs.Each1(s.world.Components(), s.sceneGraphTID, func(sg *SceneGraphComponent) {
		if sg.IsRoot() {
			out = append(out, sg)
		}
	})
	return out
}

// HasTransform is implemented by entities that carry a transform.
type HasTransform interface {
	Transform() *TransformComponent
}

// HasSceneGraph is implemented by entities placed in the hierarchy.
type HasSceneGraph interface {
	SceneGraph() *SceneGraphComponent
}

// GroupEntity is an entity with a transform and a scene graph node.
type GroupEntity struct {
	*ecs.Entity
	transform  *TransformComponent
	sceneGraph *SceneGraphComponent
}

var (
	_ HasTransform  = (*GroupEntity)(nil)
	_ HasSceneGraph = (*GroupEntity)(nil)
)

func (g *GroupEntity) Transform() *TransformComponent   { return g.transform }
func (g *GroupEntity) SceneGraph() *SceneGraphComponent { return g.sceneGraph }

// AddChild parents another entity's node under this one.
func (g *GroupEntity) AddChild(child HasSceneGraph) error {
	return g.sceneGraph.AddChild(child.SceneGraph())
}

package system

import "github.com/scenekit/engine/internal/core/ecs"

// System is frame-level work that is not a component: it runs once per
// frame right after the component hooks of its stage.
type System interface {
	Stage() ecs.ProcessStage
	Update(ctx *ecs.ProcessContext)
}

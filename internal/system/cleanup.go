package system

import (
	"github.com/scenekit/engine/internal/core/ecs"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred entity deletion queue at frame end.
// Stage Discard.
type CleanupSystem struct {
	world *ecs.World
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.World, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Stage() ecs.ProcessStage { return ecs.Discard }

func (s *CleanupSystem) Update(ctx *ecs.ProcessContext) {
	if n := s.world.FlushDeleteQueue(); n > 0 {
		s.log.Debug("entities deleted", zap.Uint64("frame", ctx.Frame), zap.Int("count", n))
	}
}

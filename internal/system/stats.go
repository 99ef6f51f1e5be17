package system

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/ecs"
	"go.uber.org/zap"
)

// StatsSystem logs buffer fill levels and the entity count every N frames.
// Stage Discard.
type StatsSystem struct {
	world *ecs.World
	every uint64
	log   *zap.Logger
}

func NewStatsSystem(world *ecs.World, everyFrames uint64, log *zap.Logger) *StatsSystem {
	return &StatsSystem{world: world, every: everyFrames, log: log}
}

func (s *StatsSystem) Stage() ecs.ProcessStage { return ecs.Discard }

func (s *StatsSystem) Update(ctx *ecs.ProcessContext) {
	if s.every == 0 || ctx.Frame%s.every != 0 {
		return
	}
	fields := []zap.Field{
		zap.Uint64("frame", ctx.Frame),
		zap.Int("entities", s.world.Entities().Count()),
	}
	for _, u := range s.world.Memory().Usage() {
		fields = append(fields, zap.String(u.Use.String(), formatUsage(u.TakenBytes, u.ByteLength)))
	}
	s.log.Info("memory usage", fields...)
}

func formatUsage(taken, total int) string {
	pct := 0
	if total > 0 {
		pct = taken * 100 / total
	}
	return fmt.Sprintf("%d/%d (%d%%)", taken, total, pct)
}

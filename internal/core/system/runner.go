package system

import (
	"sort"
	"time"

	"github.com/scenekit/engine/internal/core/ecs"
	"go.uber.org/zap"
)

// Runner drives one frame: it dispatches last frame's events, then walks
// every ProcessStage in order, running each class's hooks in TID order
// followed by the Systems registered for that stage.
type Runner struct {
	world    *ecs.World
	systems  []System
	sorted   bool
	approach ecs.ProcessApproach
	frame    uint64
	log      *zap.Logger
}

func NewRunner(world *ecs.World, approach ecs.ProcessApproach, log *zap.Logger) *Runner {
	return &Runner{
		world:    world,
		systems:  make([]System, 0, 8),
		approach: approach,
		log:      log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Frame returns the number of completed frames.
func (r *Runner) Frame() uint64 { return r.frame }

// Tick runs one full frame and returns how many component hooks ran.
func (r *Runner) Tick(dt time.Duration) int {
	r.ensureSorted()
	ctx := r.context(dt)

	bus := r.world.Events()
	bus.SwapBuffers()
	bus.DispatchAll()

	n := 0
	for _, stage := range ecs.ProcessStages() {
		n += r.runStage(stage, ctx)
	}
	if ce := r.log.Check(zap.DebugLevel, "frame done"); ce != nil {
		ce.Write(zap.Uint64("frame", r.frame), zap.Int("hooks", n))
	}
	r.frame++
	return n
}

// TickStage runs a single stage outside the regular frame, e.g. to flush
// Create for entities spawned between frames. The frame counter is not
// advanced.
func (r *Runner) TickStage(stage ecs.ProcessStage, dt time.Duration) int {
	r.ensureSorted()
	return r.runStage(stage, r.context(dt))
}

func (r *Runner) runStage(stage ecs.ProcessStage, ctx *ecs.ProcessContext) int {
	n := r.world.Components().ProcessStage(stage, ctx)
	for _, s := range r.systems {
		if s.Stage() == stage {
			s.Update(ctx)
		}
	}
	return n
}

func (r *Runner) context(dt time.Duration) *ecs.ProcessContext {
	return &ecs.ProcessContext{
		Approach:   r.approach,
		RenderPass: ecs.InvalidResourceHandle,
		Frame:      r.frame,
		DeltaTime:  dt,
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Stage() < r.systems[j].Stage()
		})
		r.sorted = true
	}
}

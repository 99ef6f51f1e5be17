package system

import (
	"testing"
	"time"

	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/event"
	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

func newTestWorld(t *testing.T) *ecs.World {
	t.Helper()
	mm, err := memory.NewManager(memory.Capacities{CPUGeneric: 1 << 14, GPUInstanceData: 1 << 14}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory manager: %v", err)
	}
	return ecs.NewWorld(mm, zap.NewNop())
}

type trace struct {
	ecs.Base
	log *[]string
}

func (c *trace) Create(*ecs.ProcessContext) {
	*c.log = append(*c.log, "create")
	c.MoveStageTo(ecs.Logic)
}

func (c *trace) Logic(ctx *ecs.ProcessContext) {
	*c.log = append(*c.log, "logic")
}

type stageProbe struct {
	stage ecs.ProcessStage
	log   *[]string
	ctx   *ecs.ProcessContext
}

func (s *stageProbe) Stage() ecs.ProcessStage { return s.stage }
func (s *stageProbe) Update(ctx *ecs.ProcessContext) {
	*s.log = append(*s.log, "system:"+s.stage.String())
	s.ctx = ctx
}

func TestTickRunsStagesInOrder(t *testing.T) {
	w := newTestWorld(t)
	var log []string
	tid, err := w.Components().RegisterClass(ecs.ClassSpec{
		Name: "Trace",
		New: func(b ecs.Base) (ecs.Component, error) {
			return &trace{Base: b, log: &log}, nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := w.CreateEntity(tid); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := NewRunner(w, ecs.ApproachUniform, zap.NewNop())
	discard := &stageProbe{stage: ecs.Discard, log: &log}
	logic := &stageProbe{stage: ecs.Logic, log: &log}
	r.Register(discard)
	r.Register(logic)

	if n := r.Tick(16 * time.Millisecond); n != 2 {
		t.Errorf("Expected 2 hooks, got %d", n)
	}
	want := []string{"create", "logic", "system:Logic", "system:Discard"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d: got %q, want %q", i, log[i], want[i])
		}
	}

	if logic.ctx.Frame != 0 || logic.ctx.DeltaTime != 16*time.Millisecond || logic.ctx.Approach != ecs.ApproachUniform {
		t.Errorf("unexpected context %+v", *logic.ctx)
	}
	r.Tick(time.Millisecond)
	if r.Frame() != 2 || logic.ctx.Frame != 1 {
		t.Errorf("frame counter = %d, ctx frame = %d", r.Frame(), logic.ctx.Frame)
	}
}

func TestTickDispatchesPreviousFrameEvents(t *testing.T) {
	w := newTestWorld(t)
	r := NewRunner(w, ecs.ApproachNone, zap.NewNop())

	var created int
	event.Subscribe(w.Events(), func(ecs.EntityCreated) { created++ })

	w.CreateEntity()
	r.Tick(0)
	if created != 1 {
		t.Errorf("Expected event delivered on first tick, got %d", created)
	}
	r.Tick(0)
	if created != 1 {
		t.Errorf("Expected no redelivery, got %d", created)
	}
}

func TestTickStageLeavesFrameCounter(t *testing.T) {
	w := newTestWorld(t)
	r := NewRunner(w, ecs.ApproachNone, zap.NewNop())
	var log []string
	r.Register(&stageProbe{stage: ecs.Create, log: &log})

	r.TickStage(ecs.Create, 0)
	r.TickStage(ecs.Logic, 0)
	if r.Frame() != 0 {
		t.Errorf("Expected frame 0, got %d", r.Frame())
	}
	if len(log) != 1 {
		t.Errorf("Expected one system run, got %v", log)
	}
}

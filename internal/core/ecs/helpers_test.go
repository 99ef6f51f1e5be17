package ecs

import (
	"testing"

	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

func newTestWorld(t *testing.T, opts ...WorldOption) *World {
	t.Helper()
	mm, err := memory.NewManager(memory.Capacities{
		CPUGeneric:      1 << 16,
		GPUInstanceData: 1 << 16,
		GPUVertexData:   1 << 12,
		UBOGeneric:      1 << 12,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory manager: %v", err)
	}
	return NewWorld(mm, zap.NewNop(), opts...)
}

// counter keeps one float in CPU memory and bumps it on every Logic pass.
type counter struct {
	Base
	value memory.Element
	calls int
}

func (c *counter) Logic(*ProcessContext) {
	c.calls++
	c.value.SetScalar(c.value.Scalar() + 1)
}

func counterSpec(maxCount int) ClassSpec {
	return ClassSpec{
		Name:         "Counter",
		MaxCount:     maxCount,
		InitialStage: Logic,
		Members: func(m *MemberTable) error {
			return m.Register(memory.CPUGeneric, "value", memory.Scalar, memory.Float, 7)
		},
		New: func(base Base) (Component, error) {
			c := &counter{Base: base}
			var err error
			c.value, err = c.Take("value")
			return c, err
		},
	}
}

// recorder implements only the hook for one stage and logs invocations.
type recorder struct {
	Base
	log *[]string
	tag string
}

type loadRecorder struct{ recorder }

func (r *loadRecorder) Load(*ProcessContext) { *r.log = append(*r.log, r.tag+":load") }

type logicRecorder struct{ recorder }

func (r *logicRecorder) Logic(*ProcessContext) { *r.log = append(*r.log, r.tag+":logic") }

// starter moves itself from Create to Logic, the way scene components do.
type starter struct {
	Base
	log *[]string
}

func (s *starter) Create(*ProcessContext) {
	*s.log = append(*s.log, "create")
	s.MoveStageTo(Logic)
}

func (s *starter) Logic(*ProcessContext) { *s.log = append(*s.log, "logic") }

func mustRegister(t *testing.T, w *World, spec ClassSpec) ComponentTID {
	t.Helper()
	tid, err := w.Components().RegisterClass(spec)
	if err != nil {
		t.Fatalf("register %s: %v", spec.Name, err)
	}
	return tid
}

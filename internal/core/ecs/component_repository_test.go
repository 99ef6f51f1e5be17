package ecs

import (
	"errors"
	"testing"

	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

func TestRegisterClass(t *testing.T) {
	w := newTestWorld(t)
	repo := w.Components()

	tid := mustRegister(t, w, counterSpec(4))
	if tid != 1 {
		t.Errorf("Expected first TID to be 1, got %d", tid)
	}
	if _, err := repo.RegisterClass(counterSpec(4)); !errors.Is(err, ErrClassAlreadyRegistered) {
		t.Errorf("Expected ErrClassAlreadyRegistered, got %v", err)
	}
	if _, err := repo.RegisterClass(ClassSpec{Name: "NoCtor"}); !errors.Is(err, ErrInvalidClass) {
		t.Errorf("Expected ErrInvalidClass, got %v", err)
	}

	spec, ok := repo.ComponentClass(tid)
	if !ok || spec.Name != "Counter" {
		t.Errorf("ComponentClass(%d) = %q, %v", tid, spec.Name, ok)
	}
	if _, ok := repo.ComponentClass(99); ok {
		t.Error("Expected miss for unregistered TID")
	}
	if got, ok := repo.TIDByName("Counter"); !ok || got != tid {
		t.Errorf("TIDByName = %d, %v", got, ok)
	}
}

func TestSIDsAreDense(t *testing.T) {
	w := newTestWorld(t)
	tid := mustRegister(t, w, counterSpec(16))

	for i := 0; i < 10; i++ {
		c, err := w.Components().CreateComponent(tid, EntityUID(100+i))
		if err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
		if c.SID() != ComponentSID(i) {
			t.Errorf("Expected SID %d, got %d", i, c.SID())
		}
		if c.EntityUID() != EntityUID(100+i) {
			t.Errorf("Expected entity %d, got %d", 100+i, c.EntityUID())
		}
	}

	all := w.Components().ComponentsWithType(tid)
	if len(all) != 10 {
		t.Fatalf("Expected 10 instances, got %d", len(all))
	}
	for sid, c := range all {
		if c.SID() != ComponentSID(sid) {
			t.Errorf("instance at %d has SID %d", sid, c.SID())
		}
	}
}

func TestMembersShareOneColumn(t *testing.T) {
	w := newTestWorld(t)
	tid := mustRegister(t, w, counterSpec(8))

	var comps []*counter
	for i := 0; i < 3; i++ {
		c, err := w.Components().CreateComponent(tid, EntityUID(i))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		comps = append(comps, c.(*counter))
	}

	members, _ := w.Components().Members(tid)
	col, ok := members.Accessor("value")
	if !ok {
		t.Fatal("value column missing")
	}
	if col.Count() != 8 {
		t.Errorf("Expected column sized for 8, got %d", col.Count())
	}
	for _, c := range comps {
		if got := c.value.Scalar(); got != 7 {
			t.Errorf("SID %d: Expected init value 7, got %v", c.SID(), got)
		}
	}

	comps[1].value.SetScalar(42)
	if got := col.Scalar(1); got != 42 {
		t.Errorf("Expected write through element to land in row 1, got %v", got)
	}
	if got := col.Scalar(0); got != 7 {
		t.Errorf("Row 0 should be untouched, got %v", got)
	}

	used := w.Memory().Buffer(memory.CPUGeneric).TakenBytes()
	if used != 8*4 {
		t.Errorf("Expected one 32 byte view, got %d bytes taken", used)
	}
}

func TestComponentLimit(t *testing.T) {
	w := newTestWorld(t)
	tid := mustRegister(t, w, counterSpec(2))

	for i := 0; i < 2; i++ {
		if _, err := w.Components().CreateComponent(tid, EntityUID(i)); err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
	}
	if _, err := w.Components().CreateComponent(tid, 2); !errors.Is(err, ErrComponentLimit) {
		t.Errorf("Expected ErrComponentLimit, got %v", err)
	}
}

func TestCreateUnknownType(t *testing.T) {
	w := newTestWorld(t)
	if _, err := w.Components().CreateComponent(5, 0); !errors.Is(err, ErrUnknownComponentType) {
		t.Errorf("Expected ErrUnknownComponentType, got %v", err)
	}
	if _, ok := w.Components().Component(5, 0); ok {
		t.Error("Expected miss")
	}
}

func TestDuplicateMemberFailsLoudly(t *testing.T) {
	w := newTestWorld(t)
	spec := counterSpec(4)
	spec.Members = func(m *MemberTable) error {
		if err := m.Register(memory.CPUGeneric, "value", memory.Scalar, memory.Float); err != nil {
			return err
		}
		return m.Register(memory.CPUGeneric, "value", memory.Vec3, memory.Float)
	}
	tid := mustRegister(t, w, spec)

	if _, err := w.Components().CreateComponent(tid, 0); !errors.Is(err, ErrMemberAlreadyRegistered) {
		t.Errorf("Expected ErrMemberAlreadyRegistered, got %v", err)
	}
}

func TestSubmitOnlyOnce(t *testing.T) {
	w := newTestWorld(t)
	m := newMemberTable("Once", w.log)
	if err := m.Register(memory.CPUGeneric, "x", memory.Scalar, memory.Float); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Submit(w.Memory(), 4); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := m.Submit(w.Memory(), 4); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Expected ErrAlreadySubmitted on second submit, got %v", err)
	}
	if err := m.Register(memory.CPUGeneric, "y", memory.Scalar, memory.Float); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("Expected ErrAlreadySubmitted on late register, got %v", err)
	}
	if _, err := m.take("nope", 0); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("Expected ErrUnknownMember, got %v", err)
	}
}

func TestAllocationExhaustedSurfaces(t *testing.T) {
	mm, err := memory.NewManager(memory.Capacities{CPUGeneric: 16}, zap.NewNop())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	w := NewWorld(mm, zap.NewNop())
	tid := mustRegister(t, w, counterSpec(100))

	_, err = w.Components().CreateComponent(tid, 0)
	if !errors.Is(err, memory.ErrBufferExhausted) {
		t.Errorf("Expected ErrBufferExhausted, got %v", err)
	}
}

func TestSeparateBuffersPerUse(t *testing.T) {
	w := newTestWorld(t)
	spec := ClassSpec{
		Name:     "Split",
		MaxCount: 4,
		Members: func(m *MemberTable) error {
			if err := m.Register(memory.CPUGeneric, "a", memory.Vec3, memory.Float); err != nil {
				return err
			}
			return m.Register(memory.GPUInstanceData, "world", memory.Mat4, memory.Float, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1)
		},
		New: func(base Base) (Component, error) {
			c := &counter{Base: base}
			_, err := c.Take("world")
			return c, err
		},
	}
	tid := mustRegister(t, w, spec)
	if _, err := w.Components().CreateComponent(tid, 0); err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := w.Memory().Buffer(memory.CPUGeneric).TakenBytes(); got != 4*12 {
		t.Errorf("CPU bytes = %d, want 48", got)
	}
	if got := w.Memory().Buffer(memory.GPUInstanceData).TakenBytes(); got != 4*64 {
		t.Errorf("instance bytes = %d, want 256", got)
	}
	members, _ := w.Components().Members(tid)
	col, _ := members.Accessor("world")
	if col.Mat4(0)[15] != 1 || col.Mat4(0)[0] != 1 {
		t.Errorf("Expected identity init, got %v", col.Mat4(0))
	}
}

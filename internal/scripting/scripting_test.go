package scripting

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
	"github.com/scenekit/engine/internal/core/system"
	"github.com/scenekit/engine/internal/scene"
	"go.uber.org/zap"
)

const behaviours = `
behaviour("mover", {
  create = function(uid)
    set_translate(uid, 0, 0, 0)
  end,
  logic = function(uid, dt)
    local x, y, z = get_translate(uid)
    set_translate(uid, x + 1, y, z)
  end,
})

behaviour("broken", {
  logic = function(uid, dt)
    error("boom")
  end,
})

behaviour("tagged", {
  create = function(uid)
    if get_tag(uid, "hidden") == "yes" then
      set_visible(uid, false)
    end
  end,
})
`

type fixture struct {
	scene  *scene.Scene
	engine *Engine
	tid    ecs.ComponentTID
	runner *system.Runner
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	mm, err := memory.NewManager(memory.Capacities{CPUGeneric: 1 << 18, GPUInstanceData: 1 << 16}, zap.NewNop())
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	w := ecs.NewWorld(mm, zap.NewNop(), ecs.WithDefaultMaxCount(32))
	sc, err := scene.New(w, scene.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	e, err := NewEngine(dir, sc, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(e.Close)
	tid, err := e.RegisterClass(16)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return &fixture{scene: sc, engine: e, tid: tid, runner: system.NewRunner(w, ecs.ApproachNone, zap.NewNop())}
}

func (f *fixture) spawn(t *testing.T, behaviour string) (*scene.GroupEntity, *ScriptComponent) {
	t.Helper()
	g, err := f.scene.CreateGroupEntity(f.tid)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	s, ok := ecs.ComponentAs[*ScriptComponent](g.Entity, f.tid)
	if !ok {
		t.Fatal("script component missing")
	}
	if err := s.SetBehaviour(behaviour); err != nil {
		t.Fatalf("set behaviour: %v", err)
	}
	return g, s
}

func TestBehaviourDrivesTransform(t *testing.T) {
	f := newFixture(t, "")
	if err := f.engine.DoString(behaviours); err != nil {
		t.Fatalf("load: %v", err)
	}
	g, _ := f.spawn(t, "mover")
	g.Transform().SetTranslate(mgl32.Vec3{10, 0, 0})

	for i := 0; i < 3; i++ {
		f.runner.Tick(16 * time.Millisecond)
	}
	// create resets to the origin, then one step per frame.
	if got := g.Transform().Translate(); got[0] != 3 {
		t.Errorf("Expected x=3 after three frames, got %v", got)
	}
	if got := g.SceneGraph().WorldPosition(); math.Abs(float64(got[0]-3)) > 1e-5 {
		t.Errorf("world position %v", got)
	}
}

func TestFailingBehaviourIsParked(t *testing.T) {
	f := newFixture(t, "")
	if err := f.engine.DoString(behaviours); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, s := f.spawn(t, "broken")

	f.runner.Tick(0)
	if !s.Failed() {
		t.Fatal("Expected behaviour to fail")
	}
	if s.CurrentProcessStage() != ecs.Unknown {
		t.Errorf("Expected parked stage, got %s", s.CurrentProcessStage())
	}
	// transform Logic and scene graph PreRender only
	if n := f.runner.Tick(0); n != 2 {
		t.Errorf("Expected 2 hooks, got %d", n)
	}
}

func TestSetBehaviourRearmsParkedComponent(t *testing.T) {
	f := newFixture(t, "")
	if err := f.engine.DoString(behaviours); err != nil {
		t.Fatalf("load: %v", err)
	}
	g, s := f.spawn(t, "broken")
	f.runner.Tick(0)
	if !s.Failed() {
		t.Fatal("Expected behaviour to fail")
	}

	if err := s.SetBehaviour("mover"); err != nil {
		t.Fatalf("set behaviour: %v", err)
	}
	f.runner.Tick(0)
	f.runner.Tick(0)

	if s.Failed() {
		t.Error("re-armed behaviour still marked failed")
	}
	if s.CurrentProcessStage() != ecs.Logic {
		t.Errorf("Expected Logic stage, got %s", s.CurrentProcessStage())
	}
	if got := g.Transform().Translate(); got[0] != 2 {
		t.Errorf("Expected x=2 after two frames, got %v", got)
	}
}

func TestBehaviourReadsTags(t *testing.T) {
	f := newFixture(t, "")
	f.engine.DoString(behaviours)
	g, _ := f.spawn(t, "tagged")
	g.TryToSetTag("hidden", "yes")

	f.runner.Tick(0)
	if g.SceneGraph().IsVisible() {
		t.Error("Expected create hook to hide the entity")
	}
}

func TestUnknownBehaviour(t *testing.T) {
	f := newFixture(t, "")
	g, err := f.scene.CreateGroupEntity(f.tid)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := ecs.ComponentAs[*ScriptComponent](g.Entity, f.tid)
	if err := s.SetBehaviour("nope"); err == nil {
		t.Error("Expected error for unregistered behaviour")
	}
}

func TestLoadScriptsFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "spin.lua"), []byte(`behaviour("spin", {})`), 0o644); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o644)

	f := newFixture(t, dir)
	if !f.engine.HasBehaviour("spin") {
		t.Error("spin.lua not loaded")
	}

	bad := t.TempDir()
	os.WriteFile(filepath.Join(bad, "bad.lua"), []byte("this is not lua"), 0o644)
	if _, err := NewEngine(bad, f.scene, zap.NewNop()); err == nil {
		t.Error("Expected error for invalid script")
	}

	e, err := NewEngine(filepath.Join(dir, "missing"), f.scene, zap.NewNop())
	if err != nil {
		t.Fatalf("missing dir should be skipped, got %v", err)
	}
	e.Close()
}

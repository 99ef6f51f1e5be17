package importer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
	"github.com/scenekit/engine/internal/core/system"
	"github.com/scenekit/engine/internal/data"
	"github.com/scenekit/engine/internal/scene"
	"github.com/scenekit/engine/internal/scripting"
	"go.uber.org/zap"
)

const demo = `
name: demo
nodes:
  - name: root
    translate: [1, 0, 0]
  - name: arm
    parent: root
    translate: [0, 2, 0]
    joint: true
    aabb:
      min: [-1, -1, -1]
      max: [1, 1, 1]
  - name: hand
    parent: arm
    scale: [2, 2, 2]
    visible: false
    tags:
      kind: hand
  - name: spinner
    script: spin
`

const spin = `
behaviour("spin", {
  logic = function(uid, dt)
    local x, y, z = get_rotate(uid)
    set_rotate(uid, x, y + 1, z)
  end,
})
`

func newScene(t *testing.T) *scene.Scene {
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
	return sc
}

func withScripts(t *testing.T, sc *scene.Scene) Option {
	t.Helper()
	e, err := scripting.NewEngine("", sc, zap.NewNop())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(e.Close)
	if err := e.DoString(spin); err != nil {
		t.Fatalf("load: %v", err)
	}
	tid, err := e.RegisterClass(8)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return WithScripts(e, tid)
}

func TestImportBuildsHierarchy(t *testing.T) {
	d, err := data.ParseSceneDesc([]byte(demo))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sc := newScene(t)
	res, err := New(sc, zap.NewNop(), withScripts(t, sc)).Import(d)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Entities) != 4 || len(res.Roots) != 2 {
		t.Fatalf("Expected 4 entities and 2 roots, got %d and %d", len(res.Entities), len(res.Roots))
	}

	root, arm, hand := res.Entities["root"], res.Entities["arm"], res.Entities["hand"]
	if hand.SceneGraph().Parent() != arm.SceneGraph() || arm.SceneGraph().Parent() != root.SceneGraph() {
		t.Fatal("parent links not applied")
	}
	if !arm.SceneGraph().IsJoint() {
		t.Error("Expected arm to be a joint")
	}
	if hand.SceneGraph().IsVisible() {
		t.Error("Expected hand to be hidden")
	}
	if v, _ := hand.Tag("kind"); v != "hand" {
		t.Errorf("tag = %q", v)
	}
	if ent, ok := sc.World().Entities().EntityByUniqueName("arm"); !ok || ent.UID() != arm.UID() {
		t.Error("unique name not set")
	}

	got := hand.SceneGraph().WorldPosition()
	if !near(got, mgl32.Vec3{1, 2, 0}) {
		t.Errorf("Expected hand at (1,2,0), got %v", got)
	}
	// absent fields keep their initial values
	if s := root.Transform().Scale(); !near(s, mgl32.Vec3{1, 1, 1}) {
		t.Errorf("root scale = %v", s)
	}
	if box := arm.SceneGraph().WorldAABB(); !near(box.Center(), mgl32.Vec3{1, 2, 0}) {
		t.Errorf("arm aabb center = %v", box.Center())
	}
}

func TestImportedScriptRuns(t *testing.T) {
	d, err := data.ParseSceneDesc([]byte(demo))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sc := newScene(t)
	res, err := New(sc, zap.NewNop(), withScripts(t, sc)).Import(d)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	r := system.NewRunner(sc.World(), ecs.ApproachNone, zap.NewNop())
	r.Tick(16 * time.Millisecond)
	r.Tick(16 * time.Millisecond)
	if y := res.Entities["spinner"].Transform().Rotate()[1]; math.Abs(float64(y-2)) > 1e-5 {
		t.Errorf("Expected rotate.y=2 after two frames, got %v", y)
	}
}

func TestImportScriptWithoutEngine(t *testing.T) {
	d, err := data.ParseSceneDesc([]byte(demo))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = New(newScene(t), zap.NewNop()).Import(d)
	if !errors.Is(err, ErrNoScripting) {
		t.Errorf("Expected ErrNoScripting, got %v", err)
	}
}

func TestImportMatrixNode(t *testing.T) {
	d, err := data.ParseSceneDesc([]byte(`
nodes:
  - name: m
    matrix: [2,0,0,0, 0,2,0,0, 0,0,2,0, 5,6,7,1]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sc := newScene(t)
	res, err := New(sc, zap.NewNop()).Import(d)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	tr := res.Entities["m"].Transform()
	if !near(tr.Translate(), mgl32.Vec3{5, 6, 7}) || !near(tr.Scale(), mgl32.Vec3{2, 2, 2}) {
		t.Errorf("derived TRS = %v %v", tr.Translate(), tr.Scale())
	}
}

func TestImportSuffixesTakenName(t *testing.T) {
	d, err := data.ParseSceneDesc([]byte("nodes:\n  - name: dup\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sc := newScene(t)
	im := New(sc, zap.NewNop())
	if _, err := im.Import(d); err != nil {
		t.Fatalf("first import: %v", err)
	}
	res, err := im.Import(d)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if got := res.Entities["dup"].UniqueName(); got == "dup" || got == "" {
		t.Errorf("Expected suffixed name, got %q", got)
	}
}

func near(a, b mgl32.Vec3) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestImportResolvesPrefabs(t *testing.T) {
	table, err := data.ParsePrefabTable([]byte(`
- name: light
  translate: [0, 3, 0]
  visible: false
  tags:
    kind: light
`))
	if err != nil {
		t.Fatalf("prefabs: %v", err)
	}
	d, err := data.ParseSceneDesc([]byte(`
nodes:
  - name: a
    prefab: light
  - name: b
    prefab: light
    translate: [5, 0, 0]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if _, err := New(newScene(t), zap.NewNop()).Import(d); !errors.Is(err, ErrNoPrefabs) {
		t.Errorf("Expected ErrNoPrefabs, got %v", err)
	}

	res, err := New(newScene(t), zap.NewNop(), WithPrefabs(table)).Import(d)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	a, b := res.Entities["a"], res.Entities["b"]
	if !near(a.Transform().Translate(), mgl32.Vec3{0, 3, 0}) || !near(b.Transform().Translate(), mgl32.Vec3{5, 0, 0}) {
		t.Errorf("translates %v %v", a.Transform().Translate(), b.Transform().Translate())
	}
	if a.SceneGraph().IsVisible() || !a.MatchTag("kind", "light") {
		t.Error("prefab visibility or tags not applied")
	}
	if d.Node("a").Visible != nil {
		t.Error("description mutated by prefab resolution")
	}
}

package importer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/data"
	"github.com/scenekit/engine/internal/scene"
	"github.com/scenekit/engine/internal/scripting"
	"go.uber.org/zap"
)

var (
	ErrNoScripting = errors.New("scene uses scripts but no script engine is configured")
	ErrNoPrefabs   = errors.New("scene uses prefabs but no prefab table is configured")
)

// Importer instantiates scene descriptions as group entities.
type Importer struct {
	scene     *scene.Scene
	scripts   *scripting.Engine
	scriptTID ecs.ComponentTID
	prefabs   *data.PrefabTable
	log       *zap.Logger
}

type Option func(*Importer)

// WithScripts lets nodes name a Lua behaviour.
func WithScripts(engine *scripting.Engine, tid ecs.ComponentTID) Option {
	return func(im *Importer) {
		im.scripts = engine
		im.scriptTID = tid
	}
}

// WithPrefabs resolves node prefab references against a table.
func WithPrefabs(t *data.PrefabTable) Option {
	return func(im *Importer) {
		im.prefabs = t
	}
}

func New(sc *scene.Scene, log *zap.Logger, opts ...Option) *Importer {
	im := &Importer{scene: sc, log: log}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Result maps description node names to the entities built for them.
type Result struct {
	Entities map[string]*scene.GroupEntity
	Roots    []*scene.GroupEntity
}

// Import creates one group entity per node, applies the values present in
// the description and then links parents. Fields a node leaves out keep
// their initial values.
func (im *Importer) Import(d *data.SceneDesc) (*Result, error) {
	res := &Result{Entities: make(map[string]*scene.GroupEntity, d.Count())}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		g, err := im.build(n)
		if err != nil {
			return res, fmt.Errorf("import node %q: %w", n.Name, err)
		}
		res.Entities[n.Name] = g
	}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		g := res.Entities[n.Name]
		if n.Parent == "" {
			res.Roots = append(res.Roots, g)
			continue
		}
		if err := res.Entities[n.Parent].AddChild(g); err != nil {
			return res, fmt.Errorf("import node %q: %w", n.Name, err)
		}
	}

	im.log.Info("scene imported",
		zap.String("scene", d.Name),
		zap.Int("nodes", d.Count()),
		zap.Int("roots", len(res.Roots)),
	)
	return res, nil
}

func (im *Importer) build(desc *data.NodeDesc) (*scene.GroupEntity, error) {
	n := desc
	if desc.Prefab != "" {
		if im.prefabs == nil {
			return nil, fmt.Errorf("prefab %q: %w", desc.Prefab, ErrNoPrefabs)
		}
		resolved := *desc
		if err := im.prefabs.Apply(&resolved); err != nil {
			return nil, err
		}
		n = &resolved
	}

	var extra []ecs.ComponentTID
	if n.Script != "" {
		if im.scripts == nil {
			return nil, ErrNoScripting
		}
		extra = append(extra, im.scriptTID)
	}
	g, err := im.scene.CreateGroupEntity(extra...)
	if err != nil {
		return nil, err
	}

	repo := im.scene.World().Entities()
	if name, _ := repo.TryToSetUniqueName(g.Entity, n.Name, true); name != n.Name {
		im.log.Warn("unique name taken, suffixed", zap.String("wanted", n.Name), zap.String("got", name))
	}
	for k, v := range n.Tags {
		if !g.TryToSetTag(k, v) {
			return nil, fmt.Errorf("invalid tag name %q", k)
		}
	}

	if v, ok := transformValues(n); ok {
		g.Transform().SetTransform(v)
	}

	sg := g.SceneGraph()
	sg.SetJoint(n.Joint)
	if n.Visible != nil {
		sg.SetVisible(*n.Visible)
	}
	if n.AABB != nil {
		box := scene.NewAABB()
		box.AddPosition(mgl32.Vec3{n.AABB.Min[0], n.AABB.Min[1], n.AABB.Min[2]})
		box.AddPosition(mgl32.Vec3{n.AABB.Max[0], n.AABB.Max[1], n.AABB.Max[2]})
		sg.SetLocalAABB(box)
	}

	if n.Script != "" {
		s, ok := ecs.ComponentAs[*scripting.ScriptComponent](g.Entity, im.scriptTID)
		if !ok {
			return nil, fmt.Errorf("script component missing on entity %d", g.UID())
		}
		if err := s.SetBehaviour(n.Script); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func transformValues(n *data.NodeDesc) (scene.TransformValues, bool) {
	var v scene.TransformValues
	set := false
	if n.Matrix != nil {
		var m mgl32.Mat4
		copy(m[:], n.Matrix)
		v.Matrix = &m
		set = true
	}
	if n.Translate != nil {
		t := mgl32.Vec3{n.Translate[0], n.Translate[1], n.Translate[2]}
		v.Translate = &t
		set = true
	}
	if n.Rotate != nil {
		r := mgl32.Vec3{n.Rotate[0], n.Rotate[1], n.Rotate[2]}
		v.Rotate = &r
		set = true
	}
	if n.Scale != nil {
		s := mgl32.Vec3{n.Scale[0], n.Scale[1], n.Scale[2]}
		v.Scale = &s
		set = true
	}
	if n.Quaternion != nil {
		q := mgl32.Quat{W: n.Quaternion[3], V: mgl32.Vec3{n.Quaternion[0], n.Quaternion[1], n.Quaternion[2]}}
		v.Quaternion = &q
		set = true
	}
	return v, set
}

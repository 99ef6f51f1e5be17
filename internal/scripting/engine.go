package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/scene"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const behavioursKey = "__behaviours"

// Engine wraps a single gopher-lua VM for entity behaviours.
// Single-goroutine access only (frame loop).
type Engine struct {
	vm    *lua.LState
	scene *scene.Scene
	log   *zap.Logger
}

// NewEngine creates a Lua engine bound to a scene and loads every script in
// scriptsDir. A missing directory is not an error.
func NewEngine(scriptsDir string, sc *scene.Scene, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal(behavioursKey, vm.NewTable())

	e := &Engine{vm: vm, scene: sc, log: log}
	e.registerAPI()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua, typically behaviour definitions.
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("run lua chunk: %w", err)
	}
	return nil
}

// HasBehaviour reports whether a behaviour of this name was registered.
func (e *Engine) HasBehaviour(name string) bool {
	_, ok := e.behaviour(name)
	return ok
}

func (e *Engine) behaviour(name string) (*lua.LTable, bool) {
	all, ok := e.vm.GetGlobal(behavioursKey).(*lua.LTable)
	if !ok {
		return nil, false
	}
	b, ok := all.RawGetString(name).(*lua.LTable)
	return b, ok
}

// call invokes behaviour.fn(uid, args...) if the behaviour defines fn.
func (e *Engine) call(name, fn string, uid ecs.EntityUID, args ...lua.LValue) error {
	b, ok := e.behaviour(name)
	if !ok {
		return fmt.Errorf("behaviour %q not registered", name)
	}
	f := b.RawGetString(fn)
	if f == lua.LNil {
		return nil
	}
	params := append([]lua.LValue{lua.LNumber(uid)}, args...)
	if err := e.vm.CallByParam(lua.P{
		Fn:      f,
		NRet:    0,
		Protect: true,
	}, params...); err != nil {
		return fmt.Errorf("lua %s.%s: %w", name, fn, err)
	}
	return nil
}

func (e *Engine) registerAPI() {
	fns := map[string]lua.LGFunction{
		"behaviour":      e.luaBehaviour,
		"get_translate":  e.luaGetVec3(func(t *scene.TransformComponent) mgl32.Vec3 { return t.Translate() }),
		"get_rotate":     e.luaGetVec3(func(t *scene.TransformComponent) mgl32.Vec3 { return t.Rotate() }),
		"get_scale":      e.luaGetVec3(func(t *scene.TransformComponent) mgl32.Vec3 { return t.Scale() }),
		"set_translate":  e.luaSetVec3(func(t *scene.TransformComponent, v mgl32.Vec3) { t.SetTranslate(v) }),
		"set_rotate":     e.luaSetVec3(func(t *scene.TransformComponent, v mgl32.Vec3) { t.SetRotate(v) }),
		"set_scale":      e.luaSetVec3(func(t *scene.TransformComponent, v mgl32.Vec3) { t.SetScale(v) }),
		"world_position": e.luaWorldPosition,
		"set_visible":    e.luaSetVisible,
		"get_tag":        e.luaGetTag,
		"log":            e.luaLog,
	}
	for name, fn := range fns {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

// behaviour(name, {create = fn, logic = fn})
func (e *Engine) luaBehaviour(L *lua.LState) int {
	name := L.CheckString(1)
	tbl := L.CheckTable(2)
	all := L.GetGlobal(behavioursKey).(*lua.LTable)
	all.RawSetString(name, tbl)
	return 0
}

func (e *Engine) transformArg(L *lua.LState) *scene.TransformComponent {
	uid := ecs.EntityUID(L.CheckInt(1))
	t := e.scene.Transform(uid)
	if t == nil {
		L.RaiseError("entity %d has no transform", uid)
	}
	return t
}

func (e *Engine) luaGetVec3(get func(*scene.TransformComponent) mgl32.Vec3) lua.LGFunction {
	return func(L *lua.LState) int {
		v := get(e.transformArg(L))
		L.Push(lua.LNumber(v[0]))
		L.Push(lua.LNumber(v[1]))
		L.Push(lua.LNumber(v[2]))
		return 3
	}
}

func (e *Engine) luaSetVec3(set func(*scene.TransformComponent, mgl32.Vec3)) lua.LGFunction {
	return func(L *lua.LState) int {
		t := e.transformArg(L)
		set(t, mgl32.Vec3{float32(L.CheckNumber(2)), float32(L.CheckNumber(3)), float32(L.CheckNumber(4))})
		return 0
	}
}

func (e *Engine) luaWorldPosition(L *lua.LState) int {
	uid := ecs.EntityUID(L.CheckInt(1))
	sg := e.scene.SceneGraph(uid)
	if sg == nil {
		L.RaiseError("entity %d has no scene graph", uid)
		return 0
	}
	p := sg.WorldPosition()
	L.Push(lua.LNumber(p[0]))
	L.Push(lua.LNumber(p[1]))
	L.Push(lua.LNumber(p[2]))
	return 3
}

func (e *Engine) luaSetVisible(L *lua.LState) int {
	uid := ecs.EntityUID(L.CheckInt(1))
	if sg := e.scene.SceneGraph(uid); sg != nil {
		sg.SetVisible(L.ToBool(2))
	}
	return 0
}

func (e *Engine) luaGetTag(L *lua.LState) int {
	uid := ecs.EntityUID(L.CheckInt(1))
	ent, ok := e.scene.World().Entities().Entity(uid)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	v, ok := ent.Tag(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

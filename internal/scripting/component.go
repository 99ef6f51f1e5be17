package scripting

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const ScriptClass = "ScriptComponent"

// ScriptComponent runs a Lua behaviour for its entity. The behaviour's
// create function runs once in Create, logic runs every frame with the
// delta time in seconds. A behaviour that raises an error is parked and
// never called again.
type ScriptComponent struct {
	ecs.Base
	engine    *Engine
	behaviour string
	failed    bool
}

// RegisterClass registers ScriptComponent on the engine's world.
func (e *Engine) RegisterClass(maxCount int) (ecs.ComponentTID, error) {
	tid, err := e.scene.World().Components().RegisterClass(ecs.ClassSpec{
		Name:     ScriptClass,
		MaxCount: maxCount,
		New: func(base ecs.Base) (ecs.Component, error) {
			return &ScriptComponent{Base: base, engine: e}, nil
		},
	})
	if err != nil {
		return ecs.InvalidComponentTID, fmt.Errorf("scripting: %w", err)
	}
	return tid, nil
}

func (s *ScriptComponent) Behaviour() string { return s.behaviour }
func (s *ScriptComponent) Failed() bool      { return s.failed }

// SetBehaviour selects the Lua behaviour. It fails if no script registered
// a behaviour with that name. A parked component is re-armed and runs the
// new behaviour's create on the next frame.
func (s *ScriptComponent) SetBehaviour(name string) error {
	if !s.engine.HasBehaviour(name) {
		return fmt.Errorf("set behaviour of entity %d: %q not registered", s.EntityUID(), name)
	}
	s.behaviour = name
	s.failed = false
	if s.CurrentProcessStage() == ecs.Unknown {
		s.MoveStageTo(ecs.Create)
	}
	return nil
}

func (s *ScriptComponent) Create(*ecs.ProcessContext) {
	if s.behaviour != "" {
		s.run("create")
	}
	if !s.failed {
		s.MoveStageTo(ecs.Logic)
	}
}

func (s *ScriptComponent) Logic(ctx *ecs.ProcessContext) {
	if s.behaviour == "" || s.failed {
		return
	}
	dt := 0.0
	if ctx != nil {
		dt = ctx.DeltaTime.Seconds()
	}
	s.run("logic", lua.LNumber(dt))
}

func (s *ScriptComponent) run(fn string, args ...lua.LValue) {
	if s.failed {
		return
	}
	if err := s.engine.call(s.behaviour, fn, s.EntityUID(), args...); err != nil {
		s.failed = true
		s.MoveStageTo(ecs.Unknown)
		s.engine.log.Error("script failed, behaviour parked",
			zap.Int32("entity", int32(s.EntityUID())),
			zap.String("behaviour", s.behaviour),
			zap.Error(err),
		)
	}
}

package ecs

import "time"

// ProcessStage is the lifecycle phase a component is currently in. Stages
// run in declaration order every frame.
type ProcessStage int

const (
	Unknown ProcessStage = iota
	Create
	Load
	Mount
	Logic
	PreRender
	Render
	Unmount
	Discard

	stageCount
)

// ProcessStages lists every runnable stage in frame order.
func ProcessStages() []ProcessStage {
	return []ProcessStage{Create, Load, Mount, Logic, PreRender, Render, Unmount, Discard}
}

func (s ProcessStage) String() string {
	switch s {
	case Create:
		return "Create"
	case Load:
		return "Load"
	case Mount:
		return "Mount"
	case Logic:
		return "Logic"
	case PreRender:
		return "PreRender"
	case Render:
		return "Render"
	case Unmount:
		return "Unmount"
	case Discard:
		return "Discard"
	default:
		return "Unknown"
	}
}

// MethodName is the hook name a component implements to join the stage.
func (s ProcessStage) MethodName() string {
	if s <= Unknown || s >= stageCount {
		return ""
	}
	return s.String()
}

// ParseProcessStage maps a stage name back to its value.
func ParseProcessStage(name string) ProcessStage {
	for _, s := range ProcessStages() {
		if s.String() == name {
			return s
		}
	}
	return Unknown
}

// ProcessApproach tells hooks which rendering strategy is active.
type ProcessApproach int

const (
	ApproachNone ProcessApproach = iota
	ApproachUniform
	ApproachDataTexture
	ApproachWebGPU
)

func (a ProcessApproach) String() string {
	switch a {
	case ApproachUniform:
		return "Uniform"
	case ApproachDataTexture:
		return "DataTexture"
	case ApproachWebGPU:
		return "WebGPU"
	default:
		return "None"
	}
}

// ParseProcessApproach accepts the String form, case-sensitive.
func ParseProcessApproach(name string) ProcessApproach {
	for _, a := range []ProcessApproach{ApproachUniform, ApproachDataTexture, ApproachWebGPU} {
		if a.String() == name {
			return a
		}
	}
	return ApproachNone
}

// CGAPIResourceHandle is an opaque handle owned by a GPU resource backend.
type CGAPIResourceHandle int32

const InvalidResourceHandle CGAPIResourceHandle = -1

// ProcessContext is handed to every stage hook.
type ProcessContext struct {
	Approach   ProcessApproach
	RenderPass CGAPIResourceHandle
	Frame      uint64
	DeltaTime  time.Duration
}

// Stage hooks. A component joins a stage by implementing the matching
// interface; types that don't are skipped for that stage.

type CreateHook interface{ Create(ctx *ProcessContext) }
type LoadHook interface{ Load(ctx *ProcessContext) }
type MountHook interface{ Mount(ctx *ProcessContext) }
type LogicHook interface{ Logic(ctx *ProcessContext) }
type PreRenderHook interface{ PreRender(ctx *ProcessContext) }
type RenderHook interface{ Render(ctx *ProcessContext) }
type UnmountHook interface{ Unmount(ctx *ProcessContext) }
type DiscardHook interface{ Discard(ctx *ProcessContext) }

// HasStageMethod reports whether c implements the hook for stage.
func HasStageMethod(c Component, stage ProcessStage) bool {
	switch stage {
	case Create:
		_, ok := c.(CreateHook)
		return ok
	case Load:
		_, ok := c.(LoadHook)
		return ok
	case Mount:
		_, ok := c.(MountHook)
		return ok
	case Logic:
		_, ok := c.(LogicHook)
		return ok
	case PreRender:
		_, ok := c.(PreRenderHook)
		return ok
	case Render:
		_, ok := c.(RenderHook)
		return ok
	case Unmount:
		_, ok := c.(UnmountHook)
		return ok
	case Discard:
		_, ok := c.(DiscardHook)
		return ok
	}
	return false
}

func invokeStage(c Component, stage ProcessStage, ctx *ProcessContext) {
	switch stage {
	case Create:
		if h, ok := c.(CreateHook); ok {
			h.Create(ctx)
		}
	case Load:
		if h, ok := c.(LoadHook); ok {
			h.Load(ctx)
		}
	case Mount:
		if h, ok := c.(MountHook); ok {
			h.Mount(ctx)
		}
	case Logic:
		if h, ok := c.(LogicHook); ok {
			h.Logic(ctx)
		}
	case PreRender:
		if h, ok := c.(PreRenderHook); ok {
			h.PreRender(ctx)
		}
	case Render:
		if h, ok := c.(RenderHook); ok {
			h.Render(ctx)
		}
	case Unmount:
		if h, ok := c.(UnmountHook); ok {
			h.Unmount(ctx)
		}
	case Discard:
		if h, ok := c.(DiscardHook); ok {
			h.Discard(ctx)
		}
	}
}

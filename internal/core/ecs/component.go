package ecs

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/memory"
)

// ComponentTID identifies a component class. Zero is never assigned.
type ComponentTID int32

// ComponentSID is a component's dense, per-class index. It doubles as the
// row of every member column the class owns.
type ComponentSID int32

const (
	InvalidComponentTID ComponentTID = 0
	InvalidComponentSID ComponentSID = -1
)

// Component is implemented by every concrete component through an embedded
// Base.
type Component interface {
	TID() ComponentTID
	SID() ComponentSID
	EntityUID() EntityUID
	CurrentProcessStage() ProcessStage
	MoveStageTo(stage ProcessStage)
	IsAlive() bool

	base() *Base
}

// Base carries the identity and lifecycle state shared by all components.
// It is filled in by ComponentRepository and handed to the class
// constructor, which embeds it.
type Base struct {
	tid       ComponentTID
	sid       ComponentSID
	entityUID EntityUID
	stage     ProcessStage
	class     *componentClass
	alive     bool
}

func (b *Base) TID() ComponentTID                 { return b.tid }
func (b *Base) SID() ComponentSID                 { return b.sid }
func (b *Base) EntityUID() EntityUID              { return b.entityUID }
func (b *Base) CurrentProcessStage() ProcessStage { return b.stage }
func (b *Base) IsAlive() bool                     { return b.alive }
func (b *Base) base() *Base                       { return b }

// MoveStageTo switches the component to another stage. Both affected
// per-stage lists are flagged for rebuild on their next Process pass.
func (b *Base) MoveStageTo(stage ProcessStage) {
	if stage == b.stage {
		return
	}
	if b.class != nil {
		b.class.markStageDirty(b.stage)
		b.class.markStageDirty(stage)
	}
	b.stage = stage
}

// Take returns this instance's element of a registered member, initialised
// to the member's init values.
func (b *Base) Take(member string) (memory.Element, error) {
	if b.class == nil {
		return memory.Element{}, fmt.Errorf("take %s: %w", member, ErrUnknownComponentType)
	}
	return b.class.members.take(member, b.sid)
}

// MustTake is Take for constructors whose members are fixed at compile time.
func (b *Base) MustTake(member string) memory.Element {
	e, err := b.Take(member)
	if err != nil {
		panic(err)
	}
	return e
}

// ClassSpec describes a component class to ComponentRepository.RegisterClass.
type ClassSpec struct {
	Name string

	// MaxCount is the number of instances reserved in every member column.
	// Zero uses the repository default.
	MaxCount int

	// InitialStage is the stage new instances start in. Unknown means Create.
	InitialStage ProcessStage

	// Members registers the class's memory-managed fields. It runs once,
	// right before the first instance is built.
	Members func(m *MemberTable) error

	// New builds an instance around its Base.
	New func(base Base) (Component, error)
}

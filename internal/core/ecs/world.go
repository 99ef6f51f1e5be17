package ecs

import (
	"github.com/scenekit/engine/internal/core/event"
	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

// World is the context object every subsystem receives instead of reaching
// for globals. It owns the memory manager, both repositories, the event bus
// and a deferred deletion queue flushed once per frame.
type World struct {
	memory      *memory.Manager
	components  *ComponentRepository
	entities    *EntityRepository
	events      *event.Bus
	deleteQueue []EntityUID
	log         *zap.Logger
}

type WorldOption func(*World)

// WithDefaultMaxCount sets the per-class reservation used when a ClassSpec
// leaves MaxCount at zero.
func WithDefaultMaxCount(n int) WorldOption {
	return func(w *World) {
		w.components.SetDefaultMaxCount(n)
	}
}

// WithEventBus replaces the world's event bus.
func WithEventBus(bus *event.Bus) WorldOption {
	return func(w *World) {
		if bus != nil {
			w.events = bus
			w.entities.bus = bus
		}
	}
}

func NewWorld(mm *memory.Manager, log *zap.Logger, opts ...WorldOption) *World {
	bus := event.NewBus()
	components := NewComponentRepository(mm, log)
	w := &World{
		memory:      mm,
		components:  components,
		entities:    NewEntityRepository(components, bus, log),
		events:      bus,
		deleteQueue: make([]EntityUID, 0, 64),
		log:         log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Memory() *memory.Manager          { return w.memory }
func (w *World) Components() *ComponentRepository { return w.components }
func (w *World) Entities() *EntityRepository      { return w.entities }
func (w *World) Events() *event.Bus               { return w.events }
func (w *World) Logger() *zap.Logger              { return w.log }

func (w *World) CreateEntity(tids ...ComponentTID) (*Entity, error) {
	return w.entities.CreateEntity(tids...)
}

// MarkForDeletion queues an entity for deletion at the end of the frame.
func (w *World) MarkForDeletion(uid EntityUID) {
	w.deleteQueue = append(w.deleteQueue, uid)
}

// FlushDeleteQueue deletes every queued entity and returns how many were
// still alive.
func (w *World) FlushDeleteQueue() int {
	n := 0
	for _, uid := range w.deleteQueue {
		if w.entities.DeleteEntity(uid) {
			n++
		}
	}
	w.deleteQueue = w.deleteQueue[:0]
	return n
}

package ecs

import (
	"fmt"
	"strconv"

	"github.com/scenekit/engine/internal/core/event"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// EntityRepository creates entities and is the only writer of their
// component sets.
type EntityRepository struct {
	components  *ComponentRepository
	bus         *event.Bus
	entities    []*Entity // index = UID; deleted entities leave nil
	uniqueNames map[string]EntityUID
	onDelete    []func(*Entity)
	onRemove    map[ComponentTID][]func(*Entity, Component)
	log         *zap.Logger
}

func NewEntityRepository(components *ComponentRepository, bus *event.Bus, log *zap.Logger) *EntityRepository {
	return &EntityRepository{
		components:  components,
		bus:         bus,
		entities:    make([]*Entity, 0, 256),
		uniqueNames: make(map[string]EntityUID, 64),
		onRemove:    make(map[ComponentTID][]func(*Entity, Component)),
		log:         log,
	}
}

// CreateEntity allocates the next UID and attaches one new component per
// requested class, in the order given.
func (r *EntityRepository) CreateEntity(tids ...ComponentTID) (*Entity, error) {
	e := newEntity(EntityUID(len(r.entities)))
	r.entities = append(r.entities, e)
	if r.bus != nil {
		event.Emit(r.bus, EntityCreated{UID: e.uid})
	}
	if err := r.AddComponentsToEntity(e, tids...); err != nil {
		return e, fmt.Errorf("create entity %d: %w", e.uid, err)
	}
	return e, nil
}

// AddComponentsToEntity attaches new components. Classes the entity already
// has are skipped, so an entity never holds two of the same class.
func (r *EntityRepository) AddComponentsToEntity(e *Entity, tids ...ComponentTID) error {
	if !e.alive {
		return fmt.Errorf("add components to entity %d: %w", e.uid, ErrEntityNotFound)
	}
	for _, tid := range tids {
		if e.HasComponent(tid) {
			r.log.Warn("entity already has component, skipped",
				zap.Int32("entity", int32(e.uid)), zap.Int32("tid", int32(tid)))
			continue
		}
		c, err := r.components.CreateComponent(tid, e.uid)
		if err != nil {
			return err
		}
		e.setComponent(c)
		if r.bus != nil {
			event.Emit(r.bus, ComponentAttached{UID: e.uid, TID: tid, SID: c.SID()})
		}
	}
	return nil
}

// RemoveComponentsFromEntity detaches components. Their SIDs are retired,
// not reused.
func (r *EntityRepository) RemoveComponentsFromEntity(e *Entity, tids ...ComponentTID) {
	for _, tid := range tids {
		if c, ok := e.Component(tid); ok {
			for _, fn := range r.onRemove[tid] {
				fn(e, c)
			}
		}
		c, ok := e.removeComponent(tid)
		if !ok {
			continue
		}
		r.components.retire(c)
		if r.bus != nil {
			event.Emit(r.bus, ComponentDetached{UID: e.uid, TID: tid, SID: c.SID()})
		}
	}
}

// OnRemove registers a callback run whenever a component of class tid is
// detached, by RemoveComponentsFromEntity or DeleteEntity, while it is still
// attached and alive.
func (r *EntityRepository) OnRemove(tid ComponentTID, fn func(*Entity, Component)) {
	r.onRemove[tid] = append(r.onRemove[tid], fn)
}

// OnDelete registers a callback run by DeleteEntity while the entity and its
// components are still alive.
func (r *EntityRepository) OnDelete(fn func(*Entity)) {
	r.onDelete = append(r.onDelete, fn)
}

// DeleteEntity detaches every component and retires the UID.
func (r *EntityRepository) DeleteEntity(uid EntityUID) bool {
	e, ok := r.Entity(uid)
	if !ok {
		return false
	}
	for _, fn := range r.onDelete {
		fn(e)
	}
	r.RemoveComponentsFromEntity(e, e.ComponentTIDs()...)
	if e.uniqueName != "" {
		delete(r.uniqueNames, e.uniqueName)
	}
	e.alive = false
	r.entities[uid] = nil
	if r.bus != nil {
		event.Emit(r.bus, EntityDeleted{UID: uid})
	}
	return true
}

// Entity looks up a live entity.
func (r *EntityRepository) Entity(uid EntityUID) (*Entity, bool) {
	if uid < 0 || int(uid) >= len(r.entities) {
		return nil, false
	}
	e := r.entities[uid]
	return e, e != nil
}

// ComponentOfEntity looks up one component of a live entity.
func (r *EntityRepository) ComponentOfEntity(uid EntityUID, tid ComponentTID) (Component, bool) {
	e, ok := r.Entity(uid)
	if !ok {
		return nil, false
	}
	return e.Component(tid)
}

// Entities returns all live entities in UID order.
func (r *EntityRepository) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of live entities.
func (r *EntityRepository) Count() int {
	n := 0
	for _, e := range r.entities {
		if e != nil {
			n++
		}
	}
	return n
}

// SearchByTags returns live entities matching every given tag, in UID order.
func (r *EntityRepository) SearchByTags(tags map[string]string) []*Entity {
	var out []*Entity
	for _, e := range r.entities {
		if e != nil && e.MatchTags(tags) {
			out = append(out, e)
		}
	}
	return out
}

// EntityByUniqueName finds an entity by the name given to TryToSetUniqueName.
func (r *EntityRepository) EntityByUniqueName(name string) (*Entity, bool) {
	uid, ok := r.uniqueNames[norm.NFC.String(name)]
	if !ok {
		return nil, false
	}
	return r.Entity(uid)
}

// TryToSetUniqueName names an entity. Names are compared after NFC
// normalisation. On conflict it fails, or with addSuffix appends "_N" until
// the name is free. It returns the name actually set.
func (r *EntityRepository) TryToSetUniqueName(e *Entity, name string, addSuffix bool) (string, bool) {
	if !e.alive || name == "" {
		return "", false
	}
	name = norm.NFC.String(name)
	candidate := name
	if owner, taken := r.uniqueNames[candidate]; taken && owner != e.uid {
		if !addSuffix {
			return "", false
		}
		for i := 1; ; i++ {
			candidate = name + "_" + strconv.Itoa(i)
			if owner, taken := r.uniqueNames[candidate]; !taken || owner == e.uid {
				break
			}
		}
	}
	if e.uniqueName != "" {
		delete(r.uniqueNames, e.uniqueName)
	}
	e.uniqueName = candidate
	r.uniqueNames[candidate] = e.uid
	return candidate, true
}

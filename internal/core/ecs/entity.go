package ecs

import (
	"sort"
	"strings"
)

// EntityUID is an entity's identity. UIDs count up from zero and are never
// handed out twice, even after the entity is deleted.
type EntityUID int32

const InvalidEntityUID EntityUID = -1

func (uid EntityUID) IsValid() bool { return uid >= 0 }

// Entity groups at most one component per class. Only EntityRepository
// creates entities or changes their component set.
type Entity struct {
	uid        EntityUID
	components map[ComponentTID]Component
	tags       map[string]string
	uniqueName string
	alive      bool
}

func newEntity(uid EntityUID) *Entity {
	return &Entity{
		uid:        uid,
		components: make(map[ComponentTID]Component, 4),
		alive:      true,
	}
}

func (e *Entity) UID() EntityUID     { return e.uid }
func (e *Entity) IsAlive() bool      { return e.alive }
func (e *Entity) UniqueName() string { return e.uniqueName }

// Component returns the entity's component of a class.
func (e *Entity) Component(tid ComponentTID) (Component, bool) {
	c, ok := e.components[tid]
	return c, ok
}

func (e *Entity) HasComponent(tid ComponentTID) bool {
	_, ok := e.components[tid]
	return ok
}

// ComponentTIDs lists attached classes in ascending TID order.
func (e *Entity) ComponentTIDs() []ComponentTID {
	out := make([]ComponentTID, 0, len(e.components))
	for tid := range e.components {
		out = append(out, tid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Components lists attached components in ascending TID order.
func (e *Entity) Components() []Component {
	tids := e.ComponentTIDs()
	out := make([]Component, len(tids))
	for i, tid := range tids {
		out[i] = e.components[tid]
	}
	return out
}

func (e *Entity) setComponent(c Component) {
	e.components[c.TID()] = c
}

func (e *Entity) removeComponent(tid ComponentTID) (Component, bool) {
	c, ok := e.components[tid]
	if ok {
		delete(e.components, tid)
	}
	return c, ok
}

// TryToSetTag sets a tag. Names must be non-empty and free of whitespace.
func (e *Entity) TryToSetTag(name, value string) bool {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return false
	}
	if e.tags == nil {
		e.tags = make(map[string]string, 4)
	}
	e.tags[name] = value
	return true
}

func (e *Entity) Tag(name string) (string, bool) {
	v, ok := e.tags[name]
	return v, ok
}

func (e *Entity) HasTag(name string) bool {
	_, ok := e.tags[name]
	return ok
}

func (e *Entity) RemoveTag(name string) {
	delete(e.tags, name)
}

// MatchTag reports whether the tag exists with exactly this value.
func (e *Entity) MatchTag(name, value string) bool {
	v, ok := e.tags[name]
	return ok && v == value
}

// MatchTags reports whether every given tag matches.
func (e *Entity) MatchTags(tags map[string]string) bool {
	for name, value := range tags {
		if !e.MatchTag(name, value) {
			return false
		}
	}
	return true
}

// Tags returns a copy of the entity's tags.
func (e *Entity) Tags() map[string]string {
	out := make(map[string]string, len(e.tags))
	for k, v := range e.tags {
		out[k] = v
	}
	return out
}

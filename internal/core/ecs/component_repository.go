package ecs

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

const defaultMaxCount = 1024

type stageList struct {
	sids  []ComponentSID
	dirty bool
}

type componentClass struct {
	tid       ComponentTID
	spec      ClassSpec
	members   *MemberTable
	instances []Component
	hooks     [stageCount]bool
	hooksSet  bool
	stages    [stageCount]stageList
}

func (c *componentClass) markStageDirty(stage ProcessStage) {
	if stage > Unknown && stage < stageCount {
		c.stages[stage].dirty = true
	}
}

// dueList returns the SIDs currently in stage, rebuilding the cached list
// when it has been flagged dirty.
func (c *componentClass) dueList(stage ProcessStage) []ComponentSID {
	l := &c.stages[stage]
	if l.dirty {
		l.sids = l.sids[:0]
		for sid, comp := range c.instances {
			if comp != nil && comp.CurrentProcessStage() == stage {
				l.sids = append(l.sids, ComponentSID(sid))
			}
		}
		l.dirty = false
	}
	return l.sids
}

// ComponentRepository maps class TIDs to their specs and keeps each class's
// instances in a dense slice indexed by SID.
type ComponentRepository struct {
	memory          *memory.Manager
	classes         []*componentClass // index = TID; slot 0 unused
	byName          map[string]ComponentTID
	defaultMaxCount int
	log             *zap.Logger
}

func NewComponentRepository(mm *memory.Manager, log *zap.Logger) *ComponentRepository {
	return &ComponentRepository{
		memory:          mm,
		classes:         make([]*componentClass, 1, 16),
		byName:          make(map[string]ComponentTID, 16),
		defaultMaxCount: defaultMaxCount,
		log:             log,
	}
}

// SetDefaultMaxCount changes the reservation used by classes without a
// MaxCount. Classes that already allocated keep theirs.
func (r *ComponentRepository) SetDefaultMaxCount(n int) {
	if n > 0 {
		r.defaultMaxCount = n
	}
}

// RegisterClass assigns the next TID to a class. Names are unique.
func (r *ComponentRepository) RegisterClass(spec ClassSpec) (ComponentTID, error) {
	if spec.Name == "" || spec.New == nil {
		return InvalidComponentTID, fmt.Errorf("register class %q: %w", spec.Name, ErrInvalidClass)
	}
	if _, ok := r.byName[spec.Name]; ok {
		return InvalidComponentTID, fmt.Errorf("register class %q: %w", spec.Name, ErrClassAlreadyRegistered)
	}
	if spec.InitialStage == Unknown {
		spec.InitialStage = Create
	}
	if spec.MaxCount <= 0 {
		spec.MaxCount = r.defaultMaxCount
	}

	tid := ComponentTID(len(r.classes))
	r.classes = append(r.classes, &componentClass{
		tid:     tid,
		spec:    spec,
		members: newMemberTable(spec.Name, r.log),
	})
	r.byName[spec.Name] = tid
	r.log.Debug("component class registered", zap.String("class", spec.Name), zap.Int32("tid", int32(tid)))
	return tid, nil
}

func (r *ComponentRepository) class(tid ComponentTID) *componentClass {
	if tid <= InvalidComponentTID || int(tid) >= len(r.classes) {
		return nil
	}
	return r.classes[tid]
}

// ComponentClass looks up a registered class.
func (r *ComponentRepository) ComponentClass(tid ComponentTID) (ClassSpec, bool) {
	c := r.class(tid)
	if c == nil {
		return ClassSpec{}, false
	}
	return c.spec, true
}

// TIDByName looks up a class by its registered name.
func (r *ComponentRepository) TIDByName(name string) (ComponentTID, bool) {
	tid, ok := r.byName[name]
	return tid, ok
}

// TIDs returns every registered TID in ascending order.
func (r *ComponentRepository) TIDs() []ComponentTID {
	out := make([]ComponentTID, 0, len(r.classes)-1)
	for tid := 1; tid < len(r.classes); tid++ {
		out = append(out, ComponentTID(tid))
	}
	return out
}

// Members exposes a class's member table.
func (r *ComponentRepository) Members(tid ComponentTID) (*MemberTable, bool) {
	c := r.class(tid)
	if c == nil {
		return nil, false
	}
	return c.members, true
}

// CreateComponent builds the next instance of a class for an entity. The
// first instance of a class registers and allocates the class's members.
func (r *ComponentRepository) CreateComponent(tid ComponentTID, uid EntityUID) (Component, error) {
	c := r.class(tid)
	if c == nil {
		return nil, fmt.Errorf("create component %d: %w", tid, ErrUnknownComponentType)
	}

	if !c.members.Submitted() {
		if c.spec.Members != nil {
			if err := c.spec.Members(c.members); err != nil {
				return nil, fmt.Errorf("create %s: %w", c.spec.Name, err)
			}
		}
		if err := c.members.Submit(r.memory, c.spec.MaxCount); err != nil {
			return nil, fmt.Errorf("create %s: %w", c.spec.Name, err)
		}
	}

	sid := ComponentSID(len(c.instances))
	if int(sid) >= c.spec.MaxCount {
		return nil, fmt.Errorf("create %s #%d (max %d): %w", c.spec.Name, sid, c.spec.MaxCount, ErrComponentLimit)
	}

	comp, err := c.spec.New(Base{
		tid:       tid,
		sid:       sid,
		entityUID: uid,
		stage:     c.spec.InitialStage,
		class:     c,
		alive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", c.spec.Name, err)
	}
	if b := comp.base(); b.sid != sid || b.tid != tid {
		return nil, fmt.Errorf("create %s: constructor dropped its Base: %w", c.spec.Name, ErrInvalidClass)
	}

	if !c.hooksSet {
		for _, s := range ProcessStages() {
			c.hooks[s] = HasStageMethod(comp, s)
		}
		c.hooksSet = true
	}
	c.instances = append(c.instances, comp)
	c.markStageDirty(comp.CurrentProcessStage())
	return comp, nil
}

// Component looks up an instance by TID and SID.
func (r *ComponentRepository) Component(tid ComponentTID, sid ComponentSID) (Component, bool) {
	c := r.class(tid)
	if c == nil || sid < 0 || int(sid) >= len(c.instances) {
		return nil, false
	}
	comp := c.instances[sid]
	return comp, comp != nil
}

// ComponentsWithType returns the class's instance slice itself, indexed by
// SID. Entries of removed components are nil. Callers must not modify it.
func (r *ComponentRepository) ComponentsWithType(tid ComponentTID) []Component {
	c := r.class(tid)
	if c == nil {
		return nil
	}
	return c.instances
}

// Count returns how many instances of a class were ever created.
func (r *ComponentRepository) Count(tid ComponentTID) int {
	c := r.class(tid)
	if c == nil {
		return 0
	}
	return len(c.instances)
}

// HasStageMethod reports whether instances of a class implement the hook
// for stage. Before the first instance exists the answer is false.
func (r *ComponentRepository) HasStageMethod(tid ComponentTID, stage ProcessStage) bool {
	c := r.class(tid)
	if c == nil || stage <= Unknown || stage >= stageCount {
		return false
	}
	return c.hooks[stage]
}

// retire drops a component from its class. Its SID is not handed out again.
func (r *ComponentRepository) retire(comp Component) {
	c := r.class(comp.TID())
	if c == nil {
		return
	}
	sid := comp.SID()
	if sid < 0 || int(sid) >= len(c.instances) || c.instances[sid] != comp {
		return
	}
	c.instances[sid] = nil
	c.markStageDirty(comp.CurrentProcessStage())
	comp.base().alive = false
}

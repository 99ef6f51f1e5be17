package ecs

import (
	"fmt"

	"github.com/scenekit/engine/internal/core/memory"
	"go.uber.org/zap"
)

type member struct {
	use           memory.BufferUse
	name          string
	composition   memory.CompositionType
	componentType memory.ComponentType
	initValues    []float64
	accessor      *memory.Accessor
}

// MemberTable records a component class's memory-managed fields and, after
// Submit, the accessor column backing each one.
type MemberTable struct {
	className string
	members   []*member
	byName    map[string]*member
	submitted bool
	count     int
	log       *zap.Logger
}

func newMemberTable(className string, log *zap.Logger) *MemberTable {
	return &MemberTable{
		className: className,
		byName:    make(map[string]*member, 8),
		log:       log,
	}
}

// Register records one field. Nothing is allocated until Submit.
func (t *MemberTable) Register(use memory.BufferUse, name string, composition memory.CompositionType,
	componentType memory.ComponentType, initValues ...float64) error {
	if t.submitted {
		return fmt.Errorf("register %s.%s: %w", t.className, name, ErrAlreadySubmitted)
	}
	if _, ok := t.byName[name]; ok {
		return fmt.Errorf("register %s.%s: %w", t.className, name, ErrMemberAlreadyRegistered)
	}
	m := &member{
		use:           use,
		name:          name,
		composition:   composition,
		componentType: componentType,
		initValues:    append([]float64(nil), initValues...),
	}
	t.members = append(t.members, m)
	t.byName[name] = m
	return nil
}

// Submit reserves memory for count instances: one BufferView per buffer the
// class uses, holding one SoA column per member.
func (t *MemberTable) Submit(mm *memory.Manager, count int) error {
	if t.submitted {
		return fmt.Errorf("submit %s: %w", t.className, ErrAlreadySubmitted)
	}
	if count <= 0 {
		return fmt.Errorf("submit %s: count %d: %w", t.className, count, memory.ErrInvalidRequest)
	}

	for _, use := range memory.BufferUses() {
		var cols []*member
		footprint := 0
		for _, m := range t.members {
			if m.use != use {
				continue
			}
			cols = append(cols, m)
			size := m.componentType.SizeInBytes() * m.composition.NumberOfComponents()
			footprint += (size + 3) &^ 3
		}
		if len(cols) == 0 {
			continue
		}

		buf := mm.Buffer(use)
		if buf == nil {
			return fmt.Errorf("submit %s: no buffer for %s: %w", t.className, use, memory.ErrInvalidRequest)
		}
		view, err := buf.TakeBufferView(memory.ViewRequest{ByteLength: footprint * count})
		if err != nil {
			return fmt.Errorf("submit %s: %w", t.className, err)
		}
		for _, m := range cols {
			acc, err := view.TakeAccessor(memory.AccessorRequest{
				CompositionType: m.composition,
				ComponentType:   m.componentType,
				Count:           count,
			})
			if err != nil {
				return fmt.Errorf("submit %s.%s: %w", t.className, m.name, err)
			}
			m.accessor = acc
		}
		t.log.Debug("component members allocated",
			zap.String("class", t.className),
			zap.Stringer("buffer", use),
			zap.Int("members", len(cols)),
			zap.Int("bytes", footprint*count),
		)
	}

	t.submitted = true
	t.count = count
	return nil
}

func (t *MemberTable) Submitted() bool { return t.submitted }
func (t *MemberTable) Count() int      { return t.count }

// Names lists members in registration order.
func (t *MemberTable) Names() []string {
	out := make([]string, len(t.members))
	for i, m := range t.members {
		out[i] = m.name
	}
	return out
}

// Accessor returns the column backing a member once submitted.
func (t *MemberTable) Accessor(name string) (*memory.Accessor, bool) {
	m, ok := t.byName[name]
	if !ok || m.accessor == nil {
		return nil, false
	}
	return m.accessor, true
}

func (t *MemberTable) take(name string, sid ComponentSID) (memory.Element, error) {
	m, ok := t.byName[name]
	if !ok {
		return memory.Element{}, fmt.Errorf("take %s.%s: %w", t.className, name, ErrUnknownMember)
	}
	if m.accessor == nil {
		return memory.Element{}, fmt.Errorf("take %s.%s: %w", t.className, name, ErrNotSubmitted)
	}
	if sid < 0 || int(sid) >= t.count {
		return memory.Element{}, fmt.Errorf("take %s.%s row %d: %w", t.className, name, sid, ErrComponentLimit)
	}
	e := m.accessor.Element(int(sid))
	e.SetValues(m.initValues)
	return e, nil
}

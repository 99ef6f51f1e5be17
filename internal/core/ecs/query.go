package ecs

// Each1 visits every live instance of a class in SID order.
func Each1[A Component](r *ComponentRepository, ta ComponentTID, fn func(A)) {
	for _, c := range r.ComponentsWithType(ta) {
		if a, ok := c.(A); ok && c.IsAlive() {
			fn(a)
		}
	}
}

// Each2 visits every live entity holding both classes. It walks the class
// with fewer instances and probes the entity for the other.
func Each2[A, B Component](w *World, ta, tb ComponentTID, fn func(*Entity, A, B)) {
	ca, cb := w.components.ComponentsWithType(ta), w.components.ComponentsWithType(tb)
	if len(ca) <= len(cb) {
		for _, c := range ca {
			if c == nil {
				continue
			}
			e, ok := w.entities.Entity(c.EntityUID())
			if !ok {
				continue
			}
			other, ok := e.Component(tb)
			if !ok {
				continue
			}
			a, okA := c.(A)
			b, okB := other.(B)
			if okA && okB {
				fn(e, a, b)
			}
		}
		return
	}
	for _, c := range cb {
		if c == nil {
			continue
		}
		e, ok := w.entities.Entity(c.EntityUID())
		if !ok {
			continue
		}
		other, ok := e.Component(ta)
		if !ok {
			continue
		}
		a, okA := other.(A)
		b, okB := c.(B)
		if okA && okB {
			fn(e, a, b)
		}
	}
}

// Each3 visits every live entity holding all three classes, walking the
// smallest class.
func Each3[A, B, C Component](w *World, ta, tb, tc ComponentTID, fn func(*Entity, A, B, C)) {
	smallest := ta
	for _, tid := range []ComponentTID{tb, tc} {
		if w.components.Count(tid) < w.components.Count(smallest) {
			smallest = tid
		}
	}
	for _, c := range w.components.ComponentsWithType(smallest) {
		if c == nil {
			continue
		}
		e, ok := w.entities.Entity(c.EntityUID())
		if !ok {
			continue
		}
		a, okA := componentAs[A](e, ta)
		b, okB := componentAs[B](e, tb)
		cc, okC := componentAs[C](e, tc)
		if okA && okB && okC {
			fn(e, a, b, cc)
		}
	}
}

// ComponentAs fetches a component of an entity and asserts its concrete type.
func ComponentAs[T Component](e *Entity, tid ComponentTID) (T, bool) {
	return componentAs[T](e, tid)
}

func componentAs[T Component](e *Entity, tid ComponentTID) (T, bool) {
	var zero T
	c, ok := e.Component(tid)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

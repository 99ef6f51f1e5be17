package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during frame N are
// delivered by DispatchAll in frame N+1, after SwapBuffers.
type Bus struct {
	mu       sync.Mutex // guards handler registration only
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues an event for the next dispatch.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeFor[T]()
	b.back[t] = append(b.back[t], ev)
}

// Subscribe registers a handler for events of type T. Handlers run in
// subscription order.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeFor[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers makes everything emitted so far dispatchable and starts a
// fresh back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers the front buffer and returns the number of events.
func (b *Bus) DispatchAll() int {
	n := 0
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h(ev)
			}
		}
		n += len(events)
		b.front[t] = events[:0]
	}
	return n
}

// Pending counts events waiting in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, events := range b.back {
		n += len(events)
	}
	return n
}

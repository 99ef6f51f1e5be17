package event

import "testing"

type ping struct{ n int }
type pong struct{}

func TestDoubleBuffering(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(p ping) { got = append(got, p.n) })

	Emit(b, ping{1})
	Emit(b, ping{2})
	if b.Pending() != 2 {
		t.Fatalf("Expected 2 pending, got %d", b.Pending())
	}
	if n := b.DispatchAll(); n != 0 || len(got) != 0 {
		t.Fatal("events delivered before swap")
	}

	b.SwapBuffers()
	Emit(b, ping{3})
	if n := b.DispatchAll(); n != 2 {
		t.Errorf("Expected 2 dispatched, got %d", n)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v", got)
	}

	// Front buffer is drained by dispatch.
	if n := b.DispatchAll(); n != 0 {
		t.Errorf("Expected nothing on redispatch, got %d", n)
	}
	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 3 || got[2] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestHandlersByType(t *testing.T) {
	b := NewBus()
	var pings, pongs, order []int
	Subscribe(b, func(ping) { pings = append(pings, 1); order = append(order, 1) })
	Subscribe(b, func(ping) { order = append(order, 2) })
	Subscribe(b, func(pong) { pongs = append(pongs, 1) })

	Emit(b, ping{})
	Emit(b, ping{})
	Emit(b, pong{})
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 3 {
		t.Errorf("Expected 3, got %d", n)
	}
	if len(pings) != 2 || len(pongs) != 1 {
		t.Errorf("pings=%d pongs=%d", len(pings), len(pongs))
	}
	if len(order) != 4 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handlers out of order: %v", order)
	}
}

func TestEventsWithoutHandlersAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, pong{})
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Errorf("Expected 1, got %d", n)
	}
	if b.Pending() != 0 {
		t.Error("Expected empty back buffer")
	}
}

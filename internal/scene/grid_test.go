package scene

import (
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSpatialGridPlaceAndQuery(t *testing.T) {
	g := NewSpatialGrid(10)
	g.Place(1, mgl32.Vec3{1, 1, 1})
	g.Place(2, mgl32.Vec3{15, 0, 0})
	g.Place(3, mgl32.Vec3{-1, 0, 0}) // negative side lands in cell -1
	g.Place(4, mgl32.Vec3{100, 0, 0})

	got := g.Nearby(mgl32.Vec3{0, 0, 0}, 5)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Expected [1 3], got %v", got)
	}
	if n := len(g.Nearby(mgl32.Vec3{10, 0, 0}, 6)); n != 2 {
		t.Errorf("Expected 2 near x=10, got %d", n)
	}
}

func TestSpatialGridMoveAndRemove(t *testing.T) {
	g := NewSpatialGrid(4)
	if !g.Place(7, mgl32.Vec3{0, 0, 0}) {
		t.Error("first place should report a cell change")
	}
	if g.Place(7, mgl32.Vec3{1, 1, 1}) {
		t.Error("move inside a cell should not report a change")
	}
	if !g.Place(7, mgl32.Vec3{9, 0, 0}) {
		t.Error("move across cells should report a change")
	}
	if n := len(g.Nearby(mgl32.Vec3{0, 0, 0}, 1)); n != 0 {
		t.Errorf("old cell still holds %d", n)
	}
	g.Remove(7)
	g.Remove(7)
	if g.Len() != 0 || len(g.cells) != 0 {
		t.Errorf("grid not empty: %d entities, %d cells", g.Len(), len(g.cells))
	}
}

package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box. The zero value is not empty; use
// NewAABB for a box that grows from nothing.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsVanilla reports whether nothing has been added to the box yet.
func (b AABB) IsVanilla() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// AddPosition grows the box to contain p.
func (b *AABB) AddPosition(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Merge grows the box to contain other.
func (b *AABB) Merge(other AABB) {
	if other.IsVanilla() {
		return
	}
	b.AddPosition(other.Min)
	b.AddPosition(other.Max)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// LengthCenterToCorner is the radius of the box's bounding sphere.
func (b AABB) LengthCenterToCorner() float32 {
	return b.Size().Len() * 0.5
}

// Transform returns the box enclosing all eight corners of b after m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	out := NewAABB()
	if b.IsVanilla() {
		return out
	}
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out.AddPosition(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}

package memory

import "github.com/go-gl/mathgl/mgl32"

// Element is one row of an Accessor. Components hold Elements instead of
// their own fields so every instance's state lives in the shared columns.
type Element struct {
	acc   *Accessor
	index int
}

func (e Element) Accessor() *Accessor { return e.acc }
func (e Element) Index() int          { return e.index }
func (e Element) Valid() bool         { return e.acc != nil }

func (e Element) Scalar() float32     { return e.acc.Scalar(e.index) }
func (e Element) SetScalar(v float32) { e.acc.SetScalar(e.index, v) }

func (e Element) Vec3() mgl32.Vec3     { return e.acc.Vec3(e.index) }
func (e Element) SetVec3(v mgl32.Vec3) { e.acc.SetVec3(e.index, v[0], v[1], v[2]) }

func (e Element) Vec4() mgl32.Vec4     { return e.acc.Vec4(e.index) }
func (e Element) SetVec4(v mgl32.Vec4) { e.acc.SetVec4(e.index, v[0], v[1], v[2], v[3]) }

// Quat reads a Vec4 element stored as (x, y, z, w).
func (e Element) Quat() mgl32.Quat {
	v := e.acc.Vec4(e.index)
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

func (e Element) SetQuat(q mgl32.Quat) {
	e.acc.SetVec4(e.index, q.V[0], q.V[1], q.V[2], q.W)
}

func (e Element) Mat3() mgl32.Mat3     { return e.acc.Mat3(e.index) }
func (e Element) SetMat3(m mgl32.Mat3) { e.acc.SetMat3(e.index, m) }

func (e Element) Mat4() mgl32.Mat4     { return e.acc.Mat4(e.index) }
func (e Element) SetMat4(m mgl32.Mat4) { e.acc.SetMat4(e.index, m) }

// SetValues writes raw component values, as used for member init values.
func (e Element) SetValues(values []float64) {
	n := e.acc.compositionType.NumberOfComponents()
	for c := 0; c < n && c < len(values); c++ {
		e.acc.SetComponent(e.index, c, values[c])
	}
}

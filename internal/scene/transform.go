package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
)

// source is the representation a transform was last written through. It is
// always fresh; every other representation is derived from it on demand.
type source uint8

const (
	sourceTRS source = iota
	sourceMatrix
)

// fresh flags memoised representations.
type fresh uint8

const (
	freshTranslate fresh = 1 << iota
	freshRotate
	freshScale
	freshQuaternion
	freshMatrix
	freshInverse
	freshNormal

	freshRotation = freshRotate | freshQuaternion
	freshDerived  = freshMatrix | freshInverse | freshNormal
)

// TransformValues sets several representations at once. Nil fields are left
// alone.
type TransformValues struct {
	Translate  *mgl32.Vec3
	Rotate     *mgl32.Vec3
	Scale      *mgl32.Vec3
	Quaternion *mgl32.Quat
	Matrix     *mgl32.Mat4
}

// TransformComponent is an entity's local transform, kept as translate,
// Euler rotate, scale, quaternion and matrix. Each is stored in CPU memory
// and recomputed from the source representation when read while stale.
type TransformComponent struct {
	ecs.Base
	scene *Scene

	translate     memory.Element
	rotate        memory.Element
	scale         memory.Element
	quaternion    memory.Element
	matrix        memory.Element
	inverseMatrix memory.Element
	normalMatrix  memory.Element

	source source
	fresh  fresh

	updateCount            uint64
	updateCountAtLastLogic uint64
	sceneGraph             *SceneGraphComponent
}

func transformMembers(m *ecs.MemberTable) error {
	ident4 := []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	ident3 := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	regs := []struct {
		name string
		comp memory.CompositionType
		init []float64
	}{
		{"translate", memory.Vec3, []float64{0, 0, 0}},
		{"rotate", memory.Vec3, []float64{0, 0, 0}},
		{"scale", memory.Vec3, []float64{1, 1, 1}},
		{"quaternion", memory.Vec4, []float64{0, 0, 0, 1}},
		{"matrix", memory.Mat4, ident4},
		{"inverseMatrix", memory.Mat4, ident4},
		{"normalMatrix", memory.Mat3, ident3},
	}
	for _, r := range regs {
		if err := m.Register(memory.CPUGeneric, r.name, r.comp, memory.Float, r.init...); err != nil {
			return err
		}
	}
	return nil
}

func newTransform(s *Scene, base ecs.Base) (ecs.Component, error) {
	t := &TransformComponent{
		Base:   base,
		scene:  s,
		source: sourceTRS,
		fresh:  freshTranslate | freshRotation | freshScale | freshDerived,
	}
	for _, m := range []struct {
		el   *memory.Element
		name string
	}{
		{&t.translate, "translate"},
		{&t.rotate, "rotate"},
		{&t.scale, "scale"},
		{&t.quaternion, "quaternion"},
		{&t.matrix, "matrix"},
		{&t.inverseMatrix, "inverseMatrix"},
		{&t.normalMatrix, "normalMatrix"},
	} {
		el, err := t.Take(m.name)
		if err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
		*m.el = el
	}
	return t, nil
}

// Create moves the transform into Logic, where it forwards changes to the
// scene graph.
func (t *TransformComponent) Create(*ecs.ProcessContext) {
	t.MoveStageTo(ecs.Logic)
}

// Logic marks the sibling scene graph dirty once if anything was written
// since the previous frame.
func (t *TransformComponent) Logic(*ecs.ProcessContext) {
	t.syncSceneGraph()
}

// syncSceneGraph forwards unseen writes to the scene graph. The scene graph
// calls it again in PreRender so writes made by Logic hooks that ran after
// this one still land in the same frame.
func (t *TransformComponent) syncSceneGraph() {
	if t.updateCount == t.updateCountAtLastLogic {
		return
	}
	t.updateCountAtLastLogic = t.updateCount
	if sg := t.SceneGraph(); sg != nil {
		sg.SetWorldMatrixDirty()
	}
}

// SceneGraph returns the scene graph component on the same entity, if any.
func (t *TransformComponent) SceneGraph() *SceneGraphComponent {
	if t.sceneGraph == nil || !t.sceneGraph.IsAlive() {
		t.sceneGraph = t.scene.SceneGraph(t.EntityUID())
	}
	return t.sceneGraph
}

// UpdateCount increases on every write.
func (t *TransformComponent) UpdateCount() uint64 { return t.updateCount }

// toTRS switches the source to translate/rotation/scale, deriving any part
// that is not yet memoised from the matrix.
func (t *TransformComponent) toTRS() {
	if t.source == sourceTRS {
		return
	}
	t.Translate()
	t.Scale()
	t.Quaternion()
	t.source = sourceTRS
}

func (t *TransformComponent) updateTransform() {
	t.fresh &^= freshInverse | freshNormal
	t.updateCount++
}

func (t *TransformComponent) SetTranslate(v mgl32.Vec3) {
	t.toTRS()
	t.translate.SetVec3(v)
	t.fresh = t.fresh&^freshMatrix | freshTranslate
	t.updateTransform()
}

// SetRotate sets the rotation as XYZ Euler angles in radians.
func (t *TransformComponent) SetRotate(v mgl32.Vec3) {
	t.toTRS()
	t.rotate.SetVec3(v)
	t.fresh = t.fresh&^(freshMatrix|freshQuaternion) | freshRotate
	t.updateTransform()
}

func (t *TransformComponent) SetScale(v mgl32.Vec3) {
	t.toTRS()
	t.scale.SetVec3(v)
	t.fresh = t.fresh&^freshMatrix | freshScale
	t.updateTransform()
}

func (t *TransformComponent) SetQuaternion(q mgl32.Quat) {
	t.toTRS()
	t.quaternion.SetQuat(q.Normalize())
	t.fresh = t.fresh&^(freshMatrix|freshRotate) | freshQuaternion
	t.updateTransform()
}

func (t *TransformComponent) SetMatrix(m mgl32.Mat4) {
	t.matrix.SetMat4(m)
	t.source = sourceMatrix
	t.fresh = freshMatrix
	t.updateTransform()
}

// SetTransform writes several representations with a single update. When a
// matrix is supplied it becomes the source and the other supplied values
// are taken as already derived from it; keeping them consistent is up to
// the caller.
func (t *TransformComponent) SetTransform(v TransformValues) {
	if v.Matrix != nil {
		t.matrix.SetMat4(*v.Matrix)
		t.source = sourceMatrix
		t.fresh = freshMatrix
	} else {
		t.toTRS()
		t.fresh &^= freshMatrix
		if v.Rotate != nil || v.Quaternion != nil {
			t.fresh &^= freshRotation
		}
	}
	if v.Translate != nil {
		t.translate.SetVec3(*v.Translate)
		t.fresh |= freshTranslate
	}
	if v.Scale != nil {
		t.scale.SetVec3(*v.Scale)
		t.fresh |= freshScale
	}
	if v.Rotate != nil {
		t.rotate.SetVec3(*v.Rotate)
		t.fresh |= freshRotate
	}
	if v.Quaternion != nil {
		t.quaternion.SetQuat(v.Quaternion.Normalize())
		t.fresh |= freshQuaternion
	}
	if memory.DebugChecks {
		t.assertConsistent()
	}
	t.updateTransform()
}

func (t *TransformComponent) Translate() mgl32.Vec3 {
	if t.fresh&freshTranslate != 0 {
		return t.translate.Vec3()
	}
	v := t.matrix.Mat4().Col(3).Vec3()
	t.translate.SetVec3(v)
	t.fresh |= freshTranslate
	return v
}

func (t *TransformComponent) Scale() mgl32.Vec3 {
	if t.fresh&freshScale != 0 {
		return t.scale.Vec3()
	}
	v := scaleOf(t.matrix.Mat4())
	t.scale.SetVec3(v)
	t.fresh |= freshScale
	return v
}

func (t *TransformComponent) Quaternion() mgl32.Quat {
	if t.fresh&freshQuaternion != 0 {
		return t.quaternion.Quat()
	}
	var q mgl32.Quat
	if t.source == sourceTRS && t.fresh&freshRotate != 0 {
		q = eulerToQuat(t.rotate.Vec3())
	} else {
		q = rotationOf(t.matrix.Mat4(), t.Scale())
	}
	t.quaternion.SetQuat(q)
	t.fresh |= freshQuaternion
	return q
}

// Rotate returns the rotation as XYZ Euler angles in radians.
func (t *TransformComponent) Rotate() mgl32.Vec3 {
	if t.fresh&freshRotate != 0 {
		return t.rotate.Vec3()
	}
	v := quatToEuler(t.Quaternion())
	t.rotate.SetVec3(v)
	t.fresh |= freshRotate
	return v
}

// Matrix returns the local matrix, T * R * S.
func (t *TransformComponent) Matrix() mgl32.Mat4 {
	if t.fresh&freshMatrix != 0 {
		return t.matrix.Mat4()
	}
	m := composeTRS(t.Translate(), t.Quaternion(), t.Scale())
	t.matrix.SetMat4(m)
	t.fresh |= freshMatrix
	return m
}

func (t *TransformComponent) InverseMatrix() mgl32.Mat4 {
	if t.fresh&freshInverse != 0 {
		return t.inverseMatrix.Mat4()
	}
	m := t.Matrix().Inv()
	t.inverseMatrix.SetMat4(m)
	t.fresh |= freshInverse
	return m
}

// NormalMatrix is the inverse transpose of the local matrix's upper 3x3.
func (t *TransformComponent) NormalMatrix() mgl32.Mat3 {
	if t.fresh&freshNormal != 0 {
		return t.normalMatrix.Mat3()
	}
	m := t.Matrix().Mat3().Inv().Transpose()
	t.normalMatrix.SetMat3(m)
	t.fresh |= freshNormal
	return m
}

var freshByName = map[string]fresh{
	"translate":     freshTranslate,
	"rotate":        freshRotate,
	"scale":         freshScale,
	"quaternion":    freshQuaternion,
	"matrix":        freshMatrix,
	"inverseMatrix": freshInverse,
	"normalMatrix":  freshNormal,
}

// IsFresh reports whether a representation is currently memoised. Names
// match the member names.
func (t *TransformComponent) IsFresh(name string) bool {
	return t.fresh&freshByName[name] != 0
}

func (t *TransformComponent) assertConsistent() {
	if t.source != sourceMatrix {
		return
	}
	m := t.matrix.Mat4()
	if t.fresh&freshTranslate != 0 && !nearVec3(t.translate.Vec3(), m.Col(3).Vec3(), 1e-4) {
		panic(fmt.Sprintf("scene: transform %d: translate disagrees with matrix", t.SID()))
	}
	if t.fresh&freshScale != 0 && !nearVec3(t.scale.Vec3(), scaleOf(m), 1e-4) {
		panic(fmt.Sprintf("scene: transform %d: scale disagrees with matrix", t.SID()))
	}
}

func composeTRS(tr mgl32.Vec3, q mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(tr[0], tr[1], tr[2]).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// scaleOf reads scale as the column lengths of m. A mirrored basis is
// reported as a negative x scale.
func scaleOf(m mgl32.Mat4) mgl32.Vec3 {
	s := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}
	return s
}

func rotationOf(m mgl32.Mat4, s mgl32.Vec3) mgl32.Quat {
	var r mgl32.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if s[c] != 0 {
			col = col.Mul(1 / s[c])
		}
		r.SetCol(c, col.Vec4(0))
	}
	r.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
	return mgl32.Mat4ToQuat(r).Normalize()
}

// Euler angles are applied X first, then Y, then Z: R = Rz * Ry * Rx.

func eulerToQuat(e mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(e[0], mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(e[1], mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(e[2], mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

func quatToEuler(q mgl32.Quat) mgl32.Vec3 {
	r := q.Mat4()
	sy := float64(-r.At(2, 0))
	switch {
	case sy >= 0.99999:
		return mgl32.Vec3{float32(math.Atan2(float64(r.At(0, 1)), float64(r.At(0, 2)))), math.Pi / 2, 0}
	case sy <= -0.99999:
		return mgl32.Vec3{float32(math.Atan2(float64(-r.At(0, 1)), float64(-r.At(0, 2)))), -math.Pi / 2, 0}
	}
	return mgl32.Vec3{
		float32(math.Atan2(float64(r.At(2, 1)), float64(r.At(2, 2)))),
		float32(math.Asin(sy)),
		float32(math.Atan2(float64(r.At(1, 0)), float64(r.At(0, 0)))),
	}
}

func nearVec3(a, b mgl32.Vec3, tol float32) bool {
	for i := range a {
		if d := a[i] - b[i]; d > tol || d < -tol {
			return false
		}
	}
	return true
}

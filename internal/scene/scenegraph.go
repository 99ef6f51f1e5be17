package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/scenekit/engine/internal/core/ecs"
	"github.com/scenekit/engine/internal/core/memory"
)

var ErrHierarchyCycle = errors.New("scene graph cycle")

// SceneGraphComponent places an entity in the hierarchy and caches its world
// matrix in GPU instance memory.
//
// Invalidation is lazy. SetWorldMatrixDirty only clears this node's flag;
// descendants notice on their next read because a cached matrix is only
// trusted while every ancestor is fresh and still at the version the child
// last multiplied with.
type SceneGraphComponent struct {
	ecs.Base
	scene *Scene

	parent   *SceneGraphComponent
	children []*SceneGraphComponent

	worldMatrix memory.Element
	isVisible   memory.Element

	isWorldMatrixUpToDate bool
	worldVersion          uint64
	parentVersionSeen     uint64

	normalMatrix      mgl32.Mat3
	normalVersionSeen uint64
	localAABB         AABB
	worldAABB         AABB
	isWorldAABBDirty  bool
	aabbVersionSeen   uint64
	isJoint           bool
	transform         *TransformComponent
}

func sceneGraphMembers(m *ecs.MemberTable) error {
	if err := m.Register(memory.GPUInstanceData, "worldMatrix", memory.Mat4, memory.Float,
		1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1); err != nil {
		return err
	}
	return m.Register(memory.CPUGeneric, "isVisible", memory.Scalar, memory.Float, 1)
}

func newSceneGraph(s *Scene, base ecs.Base) (ecs.Component, error) {
	sg := &SceneGraphComponent{
		Base:             base,
		scene:            s,
		localAABB:        NewAABB(),
		worldAABB:        NewAABB(),
		isWorldAABBDirty: true,
	}
	var err error
	if sg.worldMatrix, err = sg.Take("worldMatrix"); err != nil {
		return nil, fmt.Errorf("scene graph: %w", err)
	}
	if sg.isVisible, err = sg.Take("isVisible"); err != nil {
		return nil, fmt.Errorf("scene graph: %w", err)
	}
	return sg, nil
}

// Create moves the node to PreRender, where its world matrix is brought up
// to date for upload.
func (sg *SceneGraphComponent) Create(*ecs.ProcessContext) {
	sg.MoveStageTo(ecs.PreRender)
}

// PreRender picks up late transform writes along the ancestor chain, then
// refreshes the instance slot.
func (sg *SceneGraphComponent) PreRender(*ecs.ProcessContext) {
	for n := sg; n != nil; n = n.parent {
		if t := n.Transform(); t != nil {
			t.syncSceneGraph()
		}
	}
	sg.WorldMatrixInner()
}

func (sg *SceneGraphComponent) Parent() *SceneGraphComponent { return sg.parent }
func (sg *SceneGraphComponent) IsRoot() bool                 { return sg.parent == nil }

// Children returns a copy of the child list.
func (sg *SceneGraphComponent) Children() []*SceneGraphComponent {
	return append([]*SceneGraphComponent(nil), sg.children...)
}

func (sg *SceneGraphComponent) IsJoint() bool         { return sg.isJoint }
func (sg *SceneGraphComponent) SetJoint(isJoint bool) { sg.isJoint = isJoint }
func (sg *SceneGraphComponent) IsVisible() bool       { return sg.isVisible.Scalar() != 0 }
func (sg *SceneGraphComponent) SetVisible(visible bool) {
	if visible {
		sg.isVisible.SetScalar(1)
	} else {
		sg.isVisible.SetScalar(0)
	}
}

// Transform returns the transform on the same entity, if any.
func (sg *SceneGraphComponent) Transform() *TransformComponent {
	if sg.transform == nil || !sg.transform.IsAlive() {
		sg.transform = sg.scene.Transform(sg.EntityUID())
	}
	return sg.transform
}

// AddChild moves child under sg, detaching it from any previous parent.
// Attaching a node below itself fails with ErrHierarchyCycle.
func (sg *SceneGraphComponent) AddChild(child *SceneGraphComponent) error {
	for n := sg; n != nil; n = n.parent {
		if n == child {
			return fmt.Errorf("add child %d to %d: %w", child.EntityUID(), sg.EntityUID(), ErrHierarchyCycle)
		}
	}
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = sg
	sg.children = append(sg.children, child)
	child.SetWorldMatrixDirty()
	return nil
}

// RemoveChild detaches child, which becomes a root.
func (sg *SceneGraphComponent) RemoveChild(child *SceneGraphComponent) bool {
	if child.parent != sg || !sg.removeChild(child) {
		return false
	}
	child.parent = nil
	child.SetWorldMatrixDirty()
	return true
}

func (sg *SceneGraphComponent) removeChild(child *SceneGraphComponent) bool {
	for i, c := range sg.children {
		if c == child {
			sg.children = append(sg.children[:i], sg.children[i+1:]...)
			return true
		}
	}
	return false
}

// SetWorldMatrixDirty invalidates this node's cached world matrix. It does
// not touch the children.
func (sg *SceneGraphComponent) SetWorldMatrixDirty() {
	sg.isWorldMatrixUpToDate = false
	sg.isWorldAABBDirty = true
}

// IsWorldMatrixUpToDate reports whether the cached world matrix can be
// returned without recomputation. The check walks to the root.
func (sg *SceneGraphComponent) IsWorldMatrixUpToDate() bool {
	if !sg.isWorldMatrixUpToDate {
		return false
	}
	if sg.parent == nil {
		return true
	}
	return sg.parentVersionSeen == sg.parent.worldVersion && sg.parent.IsWorldMatrixUpToDate()
}

func (sg *SceneGraphComponent) localMatrix() mgl32.Mat4 {
	if t := sg.Transform(); t != nil {
		return t.Matrix()
	}
	return mgl32.Ident4()
}

// WorldMatrix returns parent world * local, recomputing up the chain only
// where a cached value is stale.
func (sg *SceneGraphComponent) WorldMatrix() mgl32.Mat4 {
	return sg.calcWorldMatrixRecursively()
}

// WorldMatrixInner refreshes the world matrix and returns its slot in GPU
// instance memory.
func (sg *SceneGraphComponent) WorldMatrixInner() memory.Element {
	sg.calcWorldMatrixRecursively()
	return sg.worldMatrix
}

func (sg *SceneGraphComponent) calcWorldMatrixRecursively() mgl32.Mat4 {
	if sg.IsWorldMatrixUpToDate() {
		return sg.worldMatrix.Mat4()
	}
	m := sg.localMatrix()
	if sg.parent != nil {
		m = sg.parent.calcWorldMatrixRecursively().Mul4(m)
		sg.parentVersionSeen = sg.parent.worldVersion
	}
	sg.worldMatrix.SetMat4(m)
	sg.isWorldMatrixUpToDate = true
	sg.worldVersion++
	return sg.worldMatrix.Mat4()
}

// NormalMatrix is the inverse transpose of the world matrix's upper 3x3.
func (sg *SceneGraphComponent) NormalMatrix() mgl32.Mat3 {
	wm := sg.WorldMatrix()
	if sg.normalVersionSeen != sg.worldVersion {
		sg.normalMatrix = wm.Mat3().Inv().Transpose()
		sg.normalVersionSeen = sg.worldVersion
	}
	return sg.normalMatrix
}

func (sg *SceneGraphComponent) WorldPosition() mgl32.Vec3 {
	return sg.WorldMatrix().Col(3).Vec3()
}

func (sg *SceneGraphComponent) LocalAABB() AABB { return sg.localAABB }

// SetLocalAABB sets the node's own bounds in local space, e.g. from a mesh.
func (sg *SceneGraphComponent) SetLocalAABB(b AABB) {
	sg.localAABB = b
	sg.isWorldAABBDirty = true
}

// WorldAABB is the local box carried into world space. It is recomputed
// only when the box or the world matrix changed.
func (sg *SceneGraphComponent) WorldAABB() AABB {
	wm := sg.WorldMatrix()
	if sg.isWorldAABBDirty || sg.aabbVersionSeen != sg.worldVersion {
		sg.worldAABB = sg.localAABB.Transform(wm)
		sg.aabbVersionSeen = sg.worldVersion
		sg.isWorldAABBDirty = false
	}
	return sg.worldAABB
}

// WorldMergedAABB merges the world boxes of the whole subtree.
func (sg *SceneGraphComponent) WorldMergedAABB() AABB {
	out := sg.WorldAABB()
	for _, c := range sg.children {
		out.Merge(c.WorldMergedAABB())
	}
	return out
}

// detach unlinks the node from its parent and turns its children into
// roots.
func (sg *SceneGraphComponent) detach() {
	if sg.parent != nil {
		sg.parent.RemoveChild(sg)
	}
	for _, c := range sg.children {
		c.parent = nil
		c.SetWorldMatrixDirty()
	}
	sg.children = nil
}

// FlattenHierarchy lists root's subtree in pre-order. In joint mode only
// joints are listed, but non-joint nodes are still descended into.
func FlattenHierarchy(root *SceneGraphComponent, jointMode bool) []*SceneGraphComponent {
	var out []*SceneGraphComponent
	var walk func(n *SceneGraphComponent)
	walk = func(n *SceneGraphComponent) {
		if !jointMode || n.isJoint {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

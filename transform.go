package arbor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// Transform is a handle to an entity's transform record. It holds the entity,
// not the record, and looks the record up on every call because relocation
// moves records around the arena.
type Transform struct {
	e *Entity
}

// Entity returns the owning entity.
func (t Transform) Entity() *Entity {
	return t.e
}

// slot returns the record's arena slot. Reading a destroyed entity's
// transform panics with ErrDestroyed.
func (t Transform) slot() int {
	if t.e.destroyed {
		panic(fmt.Errorf("%w: %q", ErrDestroyed, t.e.name))
	}
	return t.e.transform
}

func (t Transform) rec() *record {
	return t.e.scene.arena.at(t.slot())
}

// --- Local state ---

// LocalPosition returns the position relative to the parent.
func (t Transform) LocalPosition() mgl64.Vec3 {
	return t.rec().localPosition
}

// LocalRotation returns the rotation relative to the parent.
func (t Transform) LocalRotation() mgl64.Quat {
	return t.rec().localRotation
}

// LocalScale returns the scale relative to the parent.
func (t Transform) LocalScale() mgl64.Vec3 {
	return t.rec().localScale
}

// LocalMatrix returns Translate * Rotate * Scale of the local state.
func (t Transform) LocalMatrix() mgl64.Mat4 {
	return localMatrix(t.rec())
}

// SetLocalPosition sets the local position and dirties the subtree.
func (t Transform) SetLocalPosition(p mgl64.Vec3) {
	if t.e.scene.checkLive(t.e, "SetLocalPosition") {
		return
	}
	r := t.rec()
	r.localPosition = p
	t.touch(r, PositionChanged)
}

// SetLocalRotation sets the local rotation (normalized) and dirties the subtree.
func (t Transform) SetLocalRotation(q mgl64.Quat) {
	if t.e.scene.checkLive(t.e, "SetLocalRotation") {
		return
	}
	r := t.rec()
	r.localRotation = q.Normalize()
	t.touch(r, RotationChanged)
}

// SetLocalScale sets the local scale and dirties the subtree.
func (t Transform) SetLocalScale(s mgl64.Vec3) {
	if t.e.scene.checkLive(t.e, "SetLocalScale") {
		return
	}
	r := t.rec()
	r.localScale = s
	t.touch(r, ScaleChanged)
}

// SetLocal sets position, rotation and scale in one subtree scan.
func (t Transform) SetLocal(p mgl64.Vec3, q mgl64.Quat, s mgl64.Vec3) {
	if t.e.scene.checkLive(t.e, "SetLocal") {
		return
	}
	r := t.rec()
	r.localPosition = p
	r.localRotation = q.Normalize()
	r.localScale = s
	t.touch(r, ChangedMask)
}

// Translate adds d to the local position.
func (t Transform) Translate(d mgl64.Vec3) {
	t.SetLocalPosition(t.LocalPosition().Add(d))
}

// Rotate applies q after the current local rotation.
func (t Transform) Rotate(q mgl64.Quat) {
	t.SetLocalRotation(q.Mul(t.LocalRotation()))
}

// touch records a local change: sets the change flags, refreshes the identity
// bit and dirties every record in the subtree, since all of their world
// matrices depend on this one.
func (t Transform) touch(r *record, changed Flags) {
	r.flags |= changed
	if isIdentityLocal(r) {
		r.flags |= IsIdentity
	} else {
		r.flags &^= IsIdentity
	}
	t.e.scene.markRangeDirty(t.e.transform, t.e.subtreeSize)
}

// Changed returns the position/rotation/scale change flags.
func (t Transform) Changed() Flags {
	return t.rec().flags & ChangedMask
}

// Flags returns the record's full flag set.
func (t Transform) Flags() Flags {
	return t.rec().flags
}

// IsDirty reports whether the cached world matrix is stale.
func (t Transform) IsDirty() bool {
	return t.rec().flags&WorldMatrixDirty != 0
}

// --- World state ---

// WorldMatrix returns parentWorld * local, recomputing only when dirty.
// The record is never dirty on return.
func (t Transform) WorldMatrix() mgl64.Mat4 {
	return t.e.scene.resolve(t.slot())
}

// InverseWorldMatrix returns the inverse of the world matrix.
func (t Transform) InverseWorldMatrix() mgl64.Mat4 {
	return t.WorldMatrix().Inv()
}

// Position returns the world-space position.
func (t Transform) Position() mgl64.Vec3 {
	return t.WorldMatrix().Col(3).Vec3()
}

// Rotation returns the world-space rotation.
func (t Transform) Rotation() mgl64.Quat {
	_, q, _ := decompose(t.WorldMatrix())
	return q
}

// Scale returns the world-space scale (column lengths, always positive).
func (t Transform) Scale() mgl64.Vec3 {
	x, y, z := mgl64.Extract3DScale(t.WorldMatrix())
	return mgl64.Vec3{x, y, z}
}

// LocalToWorld converts a point in this transform's space to world space.
func (t Transform) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.WorldMatrix())
}

// WorldToLocal converts a world-space point to this transform's space.
func (t Transform) WorldToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p, t.InverseWorldMatrix())
}

// GeoM projects the world matrix onto the XY plane as an ebiten.GeoM, for 2D
// renderers that draw the hierarchy with Ebitengine.
func (t Transform) GeoM() ebiten.GeoM {
	m := t.WorldMatrix()
	var g ebiten.GeoM
	g.SetElement(0, 0, m.At(0, 0))
	g.SetElement(0, 1, m.At(0, 1))
	g.SetElement(0, 2, m.At(0, 3))
	g.SetElement(1, 0, m.At(1, 0))
	g.SetElement(1, 1, m.At(1, 1))
	g.SetElement(1, 2, m.At(1, 3))
	return g
}

// resolve returns the world matrix of slot i, recomputing it (and any dirty
// ancestors) when dirty.
func (s *Scene) resolve(i int) mgl64.Mat4 {
	r := s.arena.at(i)
	if r.flags&WorldMatrixDirty == 0 {
		return r.worldMatrix
	}
	var w mgl64.Mat4
	switch {
	case r.parent == noParent && r.flags&IsIdentity != 0:
		w = mgl64.Ident4()
	case r.parent == noParent:
		w = localMatrix(r)
	case r.flags&IsIdentity != 0:
		w = s.resolve(int(r.parent))
	default:
		w = s.resolve(int(r.parent)).Mul4(localMatrix(r))
	}
	r.worldMatrix = w
	r.flags &^= WorldMatrixDirty
	return w
}

func localMatrix(r *record) mgl64.Mat4 {
	if r.flags&IsIdentity != 0 {
		return mgl64.Ident4()
	}
	p, s := r.localPosition, r.localScale
	return mgl64.Translate3D(p[0], p[1], p[2]).
		Mul4(r.localRotation.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

func isIdentityLocal(r *record) bool {
	return r.localPosition == (mgl64.Vec3{}) &&
		r.localScale == (mgl64.Vec3{1, 1, 1}) &&
		r.localRotation == mgl64.QuatIdent()
}

// decompose splits an affine matrix into translation, rotation and positive
// scale. Reflections and shear are not recovered.
func decompose(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat, mgl64.Vec3) {
	pos := m.Col(3).Vec3()
	sx, sy, sz := mgl64.Extract3DScale(m)
	rm := mgl64.Ident4()
	for col, sc := range [3]float64{sx, sy, sz} {
		if sc != 0 {
			rm.SetCol(col, m.Col(col).Mul(1/sc))
		}
	}
	rm.SetCol(3, mgl64.Vec4{0, 0, 0, 1})
	return pos, mgl64.Mat4ToQuat(rm).Normalize(), mgl64.Vec3{sx, sy, sz}
}

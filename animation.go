package arbor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 scalar channels of an entity's local transform
// simultaneously. Create one via the convenience constructors (TweenPosition,
// TweenScale, TweenRotation) and call Update(dt) each frame. Values are
// written through the Transform setters, so the subtree is dirtied as usual.
// If the target entity is destroyed, the group stops immediately.
//
// There is no global animation manager. Callers run Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	values [4]float64
	count  int
	apply  func(t Transform, v [4]float64)
	target *Entity
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target. If the target has been destroyed, Done is set and nothing is written.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsDestroyed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.target.Transform(), g.values)
}

// TweenPosition animates the local position to `to`.
func TweenPosition(e *Entity, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := e.Transform().LocalPosition()
	g := &TweenGroup{count: 3, target: e}
	for i := 0; i < 3; i++ {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
	}
	g.apply = func(t Transform, v [4]float64) {
		t.SetLocalPosition(mgl64.Vec3{v[0], v[1], v[2]})
	}
	return g
}

// TweenScale animates the local scale to `to`.
func TweenScale(e *Entity, to mgl64.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := e.Transform().LocalScale()
	g := &TweenGroup{count: 3, target: e}
	for i := 0; i < 3; i++ {
		g.tweens[i] = gween.New(float32(from[i]), float32(to[i]), duration, fn)
	}
	g.apply = func(t Transform, v [4]float64) {
		t.SetLocalScale(mgl64.Vec3{v[0], v[1], v[2]})
	}
	return g
}

// TweenRotation animates the local rotation towards `to` by easing the
// interpolation parameter of a spherical lerp.
func TweenRotation(e *Entity, to mgl64.Quat, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := e.Transform().LocalRotation()
	to = to.Normalize()
	g := &TweenGroup{count: 1, target: e}
	g.tweens[0] = gween.New(0, 1, duration, fn)
	g.apply = func(t Transform, v [4]float64) {
		t.SetLocalRotation(mgl64.QuatSlerp(from, to, v[0]))
	}
	return g
}

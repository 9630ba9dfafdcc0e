// Package arbor is the transform-hierarchy core of a real-time engine.
//
// Every entity's transform lives in one fixed-capacity arena of records,
// stored as a forest in depth-first order: the records of an entity and all of
// its descendants always occupy one unbroken range that starts at the
// entity's own record. Reparenting relocates that range in place, and
// destroying a root subtree at the arena tail is a single shrink of the
// high-water mark.
//
// # Quick start
//
//	scene := arbor.NewScene(arbor.Config{Capacity: 1024})
//
//	ship := scene.NewEntity("ship")
//	turret := scene.NewEntity("turret")
//	turret.SetParent(ship)
//	turret.Transform().SetLocalPosition(mgl64.Vec3{0, 2, 0})
//
//	scene.Update() // resolve dirty world matrices once per frame
//	world := turret.Transform().WorldMatrix()
//
// # Hierarchy
//
// [Scene.NewEntity] appends a new root at the arena tail. [Entity.SetParent]
// moves an entity and its subtree directly after the new parent's existing
// descendants; passing nil makes it a root at the tail. Making an entity a
// child of itself or of one of its descendants panics before anything is
// changed. [Entity.Destroy] releases the entity and its whole subtree.
//
// Entities are referred to from outside the scene by [EntityID], an
// index/generation handle that goes stale when the entity is destroyed.
// [Transform] is likewise a handle: it resolves the record's current arena
// slot on every call.
//
// # World matrices
//
// Each record caches its world matrix (parentWorld * local, using
// [github.com/go-gl/mathgl/mgl64]). Writing a local position, rotation or
// scale marks the record and its whole subtree range dirty; reads recompute
// lazily. [Scene.Update] resolves everything in one forward pass.
//
// # Threading
//
// A Scene is single-threaded. All mutation happens on one goroutine per
// frame, and readers of world matrices run after mutation has finished.
//
// # Errors
//
// Arena exhaustion, cycles and (in debug mode) invariant violations are
// programming errors and panic with [ErrCapacity], [ErrCycle] or
// [ErrInvariant]. [Scene.SetDebugMode] turns on a full [Scene.Validate]
// after every mutation.
package arbor

package arbor

// Entity owns one transform record and, through its children, the contiguous
// range of records that make up its subtree. Entities are created by
// Scene.NewEntity and are never copied; the *Entity stays valid (but reports
// IsDestroyed) after Destroy.
type Entity struct {
	id    EntityID
	name  string
	scene *Scene

	// transform is the arena slot of this entity's record, always the first
	// slot of its subtree range.
	transform   int
	subtreeSize int

	parent   *Entity
	children []*Entity

	destroyed bool
}

// ID returns the entity's stable handle.
func (e *Entity) ID() EntityID {
	return e.id
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// SetName renames the entity.
func (e *Entity) SetName(name string) {
	e.name = name
}

// Scene returns the scene that owns the entity.
func (e *Entity) Scene() *Scene {
	return e.scene
}

// Parent returns the parent entity, or nil for a root.
func (e *Entity) Parent() *Entity {
	return e.parent
}

// Children returns the child list in depth-first order. The returned slice
// MUST NOT be mutated by the caller.
func (e *Entity) Children() []*Entity {
	return e.children
}

// NumChildren returns the number of direct children.
func (e *Entity) NumChildren() int {
	return len(e.children)
}

// ChildAt returns the child at the given index.
func (e *Entity) ChildAt(index int) *Entity {
	return e.children[index]
}

// FindChild returns the first direct child with the given name, or nil.
func (e *Entity) FindChild(name string) *Entity {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// SubtreeSize returns the number of records owned by this entity and all of
// its descendants. It is always at least 1 for a live entity.
func (e *Entity) SubtreeSize() int {
	return e.subtreeSize
}

// Root returns the topmost ancestor, or e itself when it has no parent.
func (e *Entity) Root() *Entity {
	r := e
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// IsAncestorOf reports whether e is a strict ancestor of other. Because every
// subtree is contiguous this is a range test, not a walk.
func (e *Entity) IsAncestorOf(other *Entity) bool {
	if other == nil || other == e || other.scene != e.scene || e.destroyed || other.destroyed {
		return false
	}
	return other.transform > e.transform && other.transform < e.transform+e.subtreeSize
}

// Descendants returns every descendant in depth-first order by scanning the
// subtree range.
func (e *Entity) Descendants() []*Entity {
	if e.destroyed || e.subtreeSize <= 1 {
		return nil
	}
	out := make([]*Entity, 0, e.subtreeSize-1)
	for i := e.transform + 1; i < e.transform+e.subtreeSize; i++ {
		out = append(out, e.scene.owner(i))
	}
	return out
}

// IsDestroyed returns true if the entity has been destroyed.
func (e *Entity) IsDestroyed() bool {
	return e.destroyed
}

// Transform returns a handle to the entity's transform record. The handle
// resolves the record's arena slot on every call, so it stays valid across
// reparenting.
func (e *Entity) Transform() Transform {
	return Transform{e: e}
}

// AddChild makes child a child of e. Same as child.SetParent(e).
func (e *Entity) AddChild(child *Entity) {
	if child == nil {
		panic("arbor: cannot add nil child")
	}
	child.SetParent(e)
}

// RemoveFromParent makes e a root. No-op if e has no parent.
func (e *Entity) RemoveFromParent() {
	if e.parent == nil {
		return
	}
	e.SetParent(nil)
}

// removeChildByPtr removes child from e.children without touching counts.
func (e *Entity) removeChildByPtr(child *Entity) int {
	for i, c := range e.children {
		if c == child {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = nil
			e.children = e.children[:len(e.children)-1]
			return i
		}
	}
	return -1
}

// insertChildAt inserts child at index without touching counts.
func (e *Entity) insertChildAt(child *Entity, index int) {
	e.children = append(e.children, nil)
	copy(e.children[index+1:], e.children[index:])
	e.children[index] = child
}

// addToAncestors adds delta to the subtree size of e and every ancestor.
func (e *Entity) addToAncestors(delta int) {
	for p := e; p != nil; p = p.parent {
		p.subtreeSize += delta
	}
}

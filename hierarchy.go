package arbor

import "fmt"

// SetParent moves e (with its whole subtree) under p, or makes it a root when
// p is nil. The subtree is relocated inside the arena so that it sits directly
// after p's existing descendants; roots are relocated to the tail.
//
// Panics with ErrCycle if p is e or one of e's descendants, and with ErrScratch
// if the scratch region cannot hold the subtree; both before any change is
// made. No-op if p is
// already e's parent.
func (e *Entity) SetParent(p *Entity) {
	s := e.scene
	if s.checkLive(e, "SetParent") || (p != nil && s.checkLive(p, "SetParent (parent)")) {
		return
	}
	if p != nil && p.scene != s {
		panic("arbor: parent belongs to a different scene")
	}
	if p == e || e.IsAncestorOf(p) {
		panic(fmt.Errorf("%w: %q under %q", ErrCycle, e.name, p.name))
	}
	if p == e.parent {
		return
	}

	t := s.insertionAfter(e, p)
	s.requireScratch(e, t)

	old := e.parent
	s.detach(e)
	s.relocate(e, t)
	s.attach(e, p, -1)

	s.emit(HierarchyEvent{
		Type:      EventReparented,
		Entity:    e.id,
		Name:      e.name,
		Parent:    idOf(p),
		OldParent: idOf(old),
	})
	s.afterMutation("SetParent", e)
}

// SetParentKeepWorld reparents like SetParent, then rewrites e's local
// position, rotation and scale so its world matrix is unchanged. Shear that a
// non-uniformly scaled ancestor introduces cannot be represented and is lost.
func (e *Entity) SetParentKeepWorld(p *Entity) {
	if e.destroyed {
		e.SetParent(p) // reports through the debug path
		return
	}
	if p == e.parent {
		return
	}
	world := e.Transform().WorldMatrix()
	e.SetParent(p)
	if e.parent != p {
		return
	}
	local := world
	if p != nil {
		local = p.Transform().WorldMatrix().Inv().Mul4(world)
	}
	pos, rot, scale := decompose(local)
	e.Transform().SetLocal(pos, rot, scale)
}

// SetSiblingIndex moves e to position index among its parent's children,
// relocating its subtree inside the parent's range. World matrices are not
// affected.
func (e *Entity) SetSiblingIndex(index int) {
	s := e.scene
	if s.checkLive(e, "SetSiblingIndex") {
		return
	}
	p := e.parent
	if p == nil {
		panic("arbor: SetSiblingIndex on a root entity")
	}
	if index < 0 || index >= len(p.children) {
		panic("arbor: sibling index out of range")
	}
	if p.children[index] == e {
		return
	}
	// A different index always moves the block.
	s.requireScratch(e, -1)

	p.removeChildByPtr(e)
	n := e.subtreeSize
	var t int
	if index < len(p.children) {
		t = s.compacted(e, p.children[index].transform)
	} else {
		// p's range still counts e, so its compacted end is n shorter.
		t = p.transform + p.subtreeSize - n
	}
	s.relocate(e, t)
	p.insertChildAt(e, index)
	s.arena.at(e.transform).parent = int32(p.transform)
	s.afterMutation("SetSiblingIndex", e)
}

// Destroy releases e and its whole subtree. The subtree is first moved to the
// arena tail (a no-op for a root that already ends at the high-water mark),
// then the high-water mark shrinks by the subtree size in one step. Every
// entity in the subtree is retired and its ID becomes invalid.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	s := e.scene
	n := e.subtreeSize
	s.requireScratch(e, s.arena.top-n)

	if e.parent != nil {
		old := e.parent
		s.detach(e)
		s.relocate(e, s.arena.top-n)
		s.attach(e, nil, -1)
		s.emit(HierarchyEvent{Type: EventReparented, Entity: e.id, Name: e.name, OldParent: old.id})
	} else if e.transform+n != s.arena.top {
		s.relocate(e, s.arena.top-n)
	}

	start := e.transform
	for i := start + n - 1; i >= start; i-- {
		d := s.owner(i)
		s.emit(HierarchyEvent{Type: EventDestroyed, Entity: d.id, Name: d.name, Parent: idOf(d.parent)})
		s.retire(d)
	}
	s.arena.release(n)
	s.afterMutation("Destroy", nil)
}

// detach unlinks e from its parent and shrinks every ancestor's count. The
// arena is not touched.
func (s *Scene) detach(e *Entity) {
	old := e.parent
	if old == nil {
		return
	}
	old.removeChildByPtr(e)
	old.addToAncestors(-e.subtreeSize)
	e.parent = nil
}

// attach links e under p (nil for root) at child index (-1 for last), grows
// the ancestor counts and dirties e's whole range. e must already sit where
// the new parent's range will cover it.
func (s *Scene) attach(e, p *Entity, index int) {
	r := s.arena.at(e.transform)
	if p == nil {
		r.parent = noParent
	} else {
		r.parent = int32(p.transform)
		e.parent = p
		if index < 0 {
			p.children = append(p.children, e)
		} else {
			p.insertChildAt(e, index)
		}
		p.addToAncestors(e.subtreeSize)
	}
	s.markRangeDirty(e.transform, e.subtreeSize)
}

// compacted maps a slot index to where it would be if e's range were removed.
func (s *Scene) compacted(e *Entity, slot int) int {
	if slot > e.transform {
		return slot - e.subtreeSize
	}
	return slot
}

// insertionAfter returns the start slot e's range must take so that it
// follows p's range (or the tail, for p == nil) once e is detached. p's count
// excludes e after detaching only when p is currently an ancestor of e. The
// result is in compacted coordinates, which is exactly the final start slot.
func (s *Scene) insertionAfter(e, p *Entity) int {
	if p == nil {
		return s.arena.top - e.subtreeSize
	}
	size := p.subtreeSize
	if p.IsAncestorOf(e) {
		size -= e.subtreeSize
	}
	return s.compacted(e, p.transform) + size
}

// requireScratch panics with ErrScratch, before anything is mutated, when
// moving e's range to slot t would overflow the scratch region. t equal to
// e's current slot means no move and needs no scratch.
func (s *Scene) requireScratch(e *Entity, t int) {
	if t == e.transform || s.arena.canSave(e.subtreeSize) {
		return
	}
	panic(fmt.Errorf("%w: moving %q needs %d slots beyond %d, have %d",
		ErrScratch, e.name, e.subtreeSize, s.arena.top, len(s.arena.records)-s.arena.top))
}

// relocate moves e's range so it starts at slot t. The records between the old
// and new positions shift by e.subtreeSize to close the hole and open the
// target, then every moved record has its owner and parent slots refreshed.
func (s *Scene) relocate(e *Entity, t int) {
	a := s.arena
	from, n := e.transform, e.subtreeSize
	if t == from {
		a.noteMove(0)
		return
	}

	scratch := a.save(from, n)
	var lo, hi int
	if t > from {
		// [from+n, t+n) slides down onto [from, t).
		a.shift(from+n, from, t-from)
		lo, hi = from, t+n
	} else {
		// [t, from) slides up onto [t+n, from+n).
		a.shift(t, t+n, from-t)
		lo, hi = t, from+n
	}
	a.restore(scratch, t, n)
	s.fixup(lo, hi)
	a.noteMove(hi - lo)

	if s.debug {
		s.logger.Debug("relocated", "entity", e.name, "from", from, "to", t, "moved", hi-lo)
	}
}

// fixup refreshes back-references for every record in [lo, hi). Owners get
// their new slot first; then each record's parent slot and the parent slot of
// each of its owner's children (which may lie outside the window) is rewritten.
func (s *Scene) fixup(lo, hi int) {
	for i := lo; i < hi; i++ {
		s.owner(i).transform = i
	}
	for i := lo; i < hi; i++ {
		e := s.owner(i)
		r := s.arena.at(i)
		if e.parent != nil {
			r.parent = int32(e.parent.transform)
		} else {
			r.parent = noParent
		}
		for _, c := range e.children {
			s.arena.at(c.transform).parent = int32(i)
		}
	}
}

// markRangeDirty flags every record in [start, start+n) for recomputation.
func (s *Scene) markRangeDirty(start, n int) {
	recs := s.arena.records[start : start+n]
	for i := range recs {
		recs[i].flags |= WorldMatrixDirty
	}
}

func idOf(e *Entity) EntityID {
	if e == nil {
		return EntityID{}
	}
	return e.id
}

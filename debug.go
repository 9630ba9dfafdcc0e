package arbor

import (
	"fmt"
)

// debugCheckDestroyed panics with a descriptive message when a destroyed
// entity is used in a hierarchy operation. Only called in debug mode; in
// release mode callers skip the operation instead.
func debugCheckDestroyed(e *Entity, op string) {
	if e.destroyed {
		panic(fmt.Errorf("%w: %s on %q (ID was %v)", ErrDestroyed, op, e.name, e.id))
	}
}

// debugMaxTreeDepth is the depth beyond which a warning is logged.
const debugMaxTreeDepth = 64

func (s *Scene) debugCheckTreeDepth(e *Entity) {
	depth := 0
	for p := e; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.logger.Warn("tree depth exceeds threshold", "entity", e.name, "depth", depth, "threshold", debugMaxTreeDepth)
	}
}

// debugMaxChildCount is the child count beyond which a warning is logged.
const debugMaxChildCount = 1000

func (s *Scene) debugCheckChildCount(e *Entity) {
	if len(e.children) > debugMaxChildCount {
		s.logger.Warn("child count exceeds threshold", "entity", e.name, "children", len(e.children), "threshold", debugMaxChildCount)
	}
}

// Validate walks the whole arena and checks the hierarchy invariants:
//
//   - roots tile [0, HighWater) back to back;
//   - every record's owner is live and points back at the record;
//   - every record's parent slot is the owner's parent's record;
//   - every subtree size is 1 plus the children's sizes;
//   - children are laid out depth-first, each directly after the previous
//     sibling's range, filling the parent's range exactly.
//
// It returns the first violation found, wrapped in ErrInvariant.
func (s *Scene) Validate() error {
	a := s.arena
	if a.top > a.capacity {
		return fmt.Errorf("%w: high-water %d exceeds capacity %d", ErrInvariant, a.top, a.capacity)
	}
	if s.live != a.top {
		return fmt.Errorf("%w: %d live entities but %d records in use", ErrInvariant, s.live, a.top)
	}
	for i := 0; i < a.top; i++ {
		r := &a.records[i]
		e, ok := s.Entity(r.owner)
		if !ok {
			return fmt.Errorf("%w: slot %d owned by stale entity %v", ErrInvariant, i, r.owner)
		}
		if e.transform != i {
			return fmt.Errorf("%w: %q has transform %d but owns slot %d", ErrInvariant, e.name, e.transform, i)
		}
		want := int32(noParent)
		if e.parent != nil {
			want = int32(e.parent.transform)
		}
		if r.parent != want {
			return fmt.Errorf("%w: slot %d (%q) parent slot %d, want %d", ErrInvariant, i, e.name, r.parent, want)
		}
		if err := s.validateChildren(e); err != nil {
			return err
		}
	}
	for i := 0; i < a.top; {
		e := s.owner(i)
		if e.parent != nil {
			return fmt.Errorf("%w: slot %d starts a root range but %q has parent %q", ErrInvariant, i, e.name, e.parent.name)
		}
		if e.subtreeSize < 1 || i+e.subtreeSize > a.top {
			return fmt.Errorf("%w: root %q range [%d, %d) outside [0, %d)", ErrInvariant, e.name, i, i+e.subtreeSize, a.top)
		}
		i += e.subtreeSize
	}
	return nil
}

func (s *Scene) validateChildren(e *Entity) error {
	next := e.transform + 1
	sum := 1
	for _, c := range e.children {
		if c.parent != e {
			return fmt.Errorf("%w: %q listed as child of %q but parent is %v", ErrInvariant, c.name, e.name, idOf(c.parent))
		}
		if c.transform != next {
			return fmt.Errorf("%w: child %q of %q at slot %d, want %d", ErrInvariant, c.name, e.name, c.transform, next)
		}
		next += c.subtreeSize
		sum += c.subtreeSize
	}
	if sum != e.subtreeSize {
		return fmt.Errorf("%w: %q subtree size %d, children sum to %d", ErrInvariant, e.name, e.subtreeSize, sum)
	}
	return nil
}

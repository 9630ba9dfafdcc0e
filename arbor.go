package arbor

import (
	"errors"
	"fmt"
)

// EntityID is a stable handle to an Entity. Index selects the slot in the
// scene's entity table and Generation guards against a recycled slot being
// mistaken for the entity that used to live there.
type EntityID struct {
	Index      uint32
	Generation uint32
}

// String returns "index:generation".
func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index, id.Generation)
}

// IsZero reports whether id is the zero handle. Generations start at 1, so the
// zero handle never refers to a live entity.
func (id EntityID) IsZero() bool {
	return id.Generation == 0
}

// Flags is the per-record state bitset.
type Flags uint8

const (
	PositionChanged  Flags = 1 << iota // local position written since the last ClearChanged
	RotationChanged                    // local rotation written since the last ClearChanged
	ScaleChanged                       // local scale written since the last ClearChanged
	WorldMatrixDirty                   // cached world matrix is stale
	IsIdentity                         // local transform is the identity
)

// ChangedMask covers the three per-frame change flags.
const ChangedMask = PositionChanged | RotationChanged | ScaleChanged

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// EventType identifies a kind of hierarchy event.
type EventType uint8

const (
	EventCreated    EventType = iota // entity constructed as a new root
	EventReparented                  // entity moved under a different parent (or made root)
	EventDestroyed                   // entity released together with its subtree
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventReparented:
		return "reparented"
	case EventDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// HierarchyEvent carries a structural change for the EntityStore bridge.
// Parent and OldParent are zero when there is no parent.
type HierarchyEvent struct {
	Type      EventType
	Entity    EntityID
	Name      string
	Parent    EntityID
	OldParent EntityID
}

// Sentinel causes carried by the panics the hierarchy raises. Callers that
// recover can match them with errors.Is.
var (
	ErrCapacity  = errors.New("arbor: transform arena exhausted")
	ErrScratch   = errors.New("arbor: relocation scratch exhausted")
	ErrCycle     = errors.New("arbor: reparenting would create a cycle")
	ErrDestroyed = errors.New("arbor: entity is destroyed")
	ErrInvariant = errors.New("arbor: hierarchy invariant violated")
)

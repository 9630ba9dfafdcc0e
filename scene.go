package arbor

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// EntityStore is the interface for optional component-registry integration.
// When set on a Scene, hierarchy events are forwarded to the store.
type EntityStore interface {
	EmitEvent(event HierarchyEvent)
}

// entitySlot maps an EntityID index to the live entity. generation is bumped
// each time the slot is retired.
type entitySlot struct {
	entity     *Entity
	generation uint32
}

// Scene owns the transform arena and the entity table. All methods must be
// called from one goroutine; the scene does no locking.
type Scene struct {
	arena *arena
	slots []entitySlot
	free  []uint32
	live  int

	store  EntityStore
	debug  bool
	logger *log.Logger
}

// NewScene creates a scene with a preallocated arena sized from cfg.
func NewScene(cfg Config) *Scene {
	cfg = cfg.withDefaults()
	s := &Scene{
		arena:  newArena(cfg.Capacity, cfg.ScratchReserve),
		slots:  make([]entitySlot, 0, cfg.Capacity),
		logger: newLogger(cfg.LogLevel),
	}
	s.SetDebugMode(cfg.Debug)
	return s
}

// NewEntity creates an entity with an identity transform as a new root at the
// arena tail. Panics with ErrCapacity when the arena is full.
func (s *Scene) NewEntity(name string) *Entity {
	slot := s.arena.alloc()
	e := &Entity{
		name:        name,
		scene:       s,
		transform:   slot,
		subtreeSize: 1,
	}
	e.id = s.register(e)
	s.arena.at(slot).owner = e.id
	s.emit(HierarchyEvent{Type: EventCreated, Entity: e.id, Name: name})
	s.afterMutation("NewEntity", e)
	return e
}

// Entity resolves a handle. ok is false for stale or unknown IDs.
func (s *Scene) Entity(id EntityID) (*Entity, bool) {
	if int(id.Index) >= len(s.slots) {
		return nil, false
	}
	slot := s.slots[id.Index]
	if slot.entity == nil || slot.generation != id.Generation {
		return nil, false
	}
	return slot.entity, true
}

// Valid reports whether id refers to a live entity.
func (s *Scene) Valid(id EntityID) bool {
	_, ok := s.Entity(id)
	return ok
}

// Roots returns every parentless entity in arena order. The scan hops from
// root to root using subtree sizes.
func (s *Scene) Roots() []*Entity {
	var out []*Entity
	for i := 0; i < s.arena.top; {
		e := s.owner(i)
		out = append(out, e)
		i += e.subtreeSize
	}
	return out
}

// Len returns the number of live entities.
func (s *Scene) Len() int {
	return s.live
}

// HighWater returns the number of arena slots in use.
func (s *Scene) HighWater() int {
	return s.arena.top
}

// Capacity returns the fixed number of usable arena slots.
func (s *Scene) Capacity() int {
	return s.arena.capacity
}

// Stats returns a snapshot of the arena counters.
func (s *Scene) Stats() ArenaStats {
	st := s.arena.stats
	st.HighWater = s.arena.top
	return st
}

// Update resolves every dirty world matrix in one forward pass. Parents always
// precede their children in the arena, so each record finds its parent
// already resolved.
func (s *Scene) Update() {
	for i := 0; i < s.arena.top; i++ {
		if s.arena.records[i].flags&WorldMatrixDirty != 0 {
			s.resolve(i)
		}
	}
}

// ClearChanged clears the position, rotation and scale change flags of every
// record. Call it once per frame after consumers have read them.
func (s *Scene) ClearChanged() {
	recs := s.arena.records[:s.arena.top]
	for i := range recs {
		recs[i].flags &^= ChangedMask
	}
}

// SetEntityStore sets the optional component-registry bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, every mutation
// is followed by a full invariant check that panics on violation, use of a
// destroyed entity panics, and depth and child-count warnings are logged.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// DebugMode reports whether debug mode is on.
func (s *Scene) DebugMode() bool {
	return s.debug
}

// SetLogger replaces the debug logger.
func (s *Scene) SetLogger(l *log.Logger) {
	s.logger = l
}

// Logger returns the scene's debug logger.
func (s *Scene) Logger() *log.Logger {
	return s.logger
}

// register assigns e a handle, reusing a retired slot when one is free.
func (s *Scene) register(e *Entity) EntityID {
	s.live++
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		slot := &s.slots[idx]
		slot.entity = e
		return EntityID{Index: idx, Generation: slot.generation}
	}
	s.slots = append(s.slots, entitySlot{entity: e, generation: 1})
	return EntityID{Index: uint32(len(s.slots) - 1), Generation: 1}
}

// retire invalidates e's handle and clears its links. Its record is released
// separately by the caller.
func (s *Scene) retire(e *Entity) {
	slot := &s.slots[e.id.Index]
	slot.entity = nil
	slot.generation++
	s.free = append(s.free, e.id.Index)
	s.live--

	e.destroyed = true
	e.parent = nil
	e.children = nil
	e.transform = -1
	e.subtreeSize = 0
}

// owner returns the entity that owns arena slot i.
func (s *Scene) owner(i int) *Entity {
	id := s.arena.records[i].owner
	e, ok := s.Entity(id)
	if !ok {
		panic(fmt.Errorf("%w: slot %d owned by stale entity %v", ErrInvariant, i, id))
	}
	return e
}

// checkLive reports whether e is destroyed. In debug mode a destroyed entity
// panics instead.
func (s *Scene) checkLive(e *Entity, op string) bool {
	if !e.destroyed {
		return false
	}
	if s != nil && s.debug {
		debugCheckDestroyed(e, op)
	}
	return true
}

func (s *Scene) emit(ev HierarchyEvent) {
	if s.store != nil {
		s.store.EmitEvent(ev)
	}
}

// afterMutation runs the debug-mode checks. e may be nil.
func (s *Scene) afterMutation(op string, e *Entity) {
	if !s.debug {
		return
	}
	if err := s.Validate(); err != nil {
		s.logger.Error("invariant check failed", "op", op, "err", err)
		panic(err)
	}
	if e != nil && !e.destroyed {
		s.debugCheckTreeDepth(e)
		if e.parent != nil {
			s.debugCheckChildCount(e.parent)
		}
	}
}

func newLogger(level string) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "arbor"})
	if lvl, err := log.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

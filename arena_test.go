package arbor

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocBumpsHighWater(t *testing.T) {
	a := newArena(4, 4)
	assert.Equal(t, 0, a.alloc())
	assert.Equal(t, 1, a.alloc())
	assert.Equal(t, 2, a.top)
	assert.Equal(t, 2, a.stats.Peak)

	r := a.at(1)
	assert.Equal(t, mgl64.QuatIdent(), r.localRotation)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, r.localScale)
	assert.Equal(t, int32(noParent), r.parent)
	assert.True(t, r.flags.Has(WorldMatrixDirty|IsIdentity))
}

func TestArenaAllocPanicsWhenFull(t *testing.T) {
	a := newArena(2, 2)
	a.alloc()
	a.alloc()
	requirePanicIs(t, ErrCapacity, func() { a.alloc() })
	assert.Equal(t, 2, a.top)
}

func TestArenaRejectsBadCapacity(t *testing.T) {
	assert.Panics(t, func() { newArena(0, 0) })
}

func TestArenaReleaseClearsSlots(t *testing.T) {
	a := newArena(4, 0)
	for i := 0; i < 3; i++ {
		a.alloc()
		a.at(i).owner = EntityID{Index: uint32(i), Generation: 1}
	}
	a.release(2)
	assert.Equal(t, 1, a.top)
	assert.Equal(t, record{}, *a.at(1))
	assert.Equal(t, record{}, *a.at(2))
	assert.Equal(t, 3, a.stats.Peak)
	assert.Panics(t, func() { a.release(2) })
}

func TestArenaSaveShiftRestore(t *testing.T) {
	a := newArena(6, 6)
	for i := 0; i < 6; i++ {
		a.alloc()
		a.at(i).owner = EntityID{Index: uint32(i), Generation: 1}
	}
	owners := func() []uint32 {
		out := make([]uint32, a.top)
		for i := range out {
			out[i] = a.at(i).owner.Index
		}
		return out
	}

	// Move block [1,3) to start at 4: gap [3,6) slides down by 2.
	scratch := a.save(1, 2)
	assert.Equal(t, 6, scratch)
	a.shift(3, 1, 3)
	a.restore(scratch, 4, 2)
	assert.Equal(t, []uint32{0, 3, 4, 5, 1, 2}, owners())
	assert.Equal(t, record{}, a.records[6], "scratch must be cleared after restore")
	assert.Equal(t, 2, a.stats.ScratchPeak)
}

func TestArenaSavePanicsWithoutScratch(t *testing.T) {
	a := newArena(4, 1)
	for i := 0; i < 4; i++ {
		a.alloc()
	}
	a.save(0, 1)
	requirePanicIs(t, ErrScratch, func() { a.save(0, 2) })
}

func TestArenaNoteMove(t *testing.T) {
	a := newArena(2, 2)
	a.noteMove(0)
	assert.Equal(t, 0, a.stats.Relocations)
	a.noteMove(3)
	a.noteMove(2)
	require.Equal(t, 2, a.stats.Relocations)
	assert.Equal(t, 5, a.stats.TotalMoved)
	assert.Equal(t, 2, a.stats.LastMoved)
}

func TestSceneScratchExhaustionFailsFast(t *testing.T) {
	s := NewScene(Config{Capacity: 4, ScratchReserve: 1})
	r := s.NewEntity("R")
	s.NewEntity("X")
	b := s.NewEntity("B")
	c := s.NewEntity("C")
	c.SetParent(b)

	requirePanicIs(t, ErrScratch, func() { b.SetParent(r) })
	require.NoError(t, s.Validate())
}

// fullScene builds P{E{C}} Q in an arena with one spare scratch slot, so any
// move of E's two-record range cannot be staged.
func fullScene(t *testing.T) (s *Scene, p, e, c, q *Entity) {
	t.Helper()
	s = NewScene(Config{Capacity: 4, ScratchReserve: 1})
	s.SetLogger(log.New(io.Discard))
	p = s.NewEntity("P")
	e = s.NewEntity("E")
	c = s.NewEntity("C")
	q = s.NewEntity("Q")
	e.SetParent(p)
	c.SetParent(e)
	require.NoError(t, s.Validate())
	return s, p, e, c, q
}

func assertUntouched(t *testing.T, s *Scene, p, e, c *Entity) {
	t.Helper()
	require.NoError(t, s.Validate())
	assert.Same(t, p, e.Parent())
	assert.Same(t, e, c.Parent())
	assert.Equal(t, []*Entity{e}, p.Children())
	assert.Equal(t, 3, p.SubtreeSize())
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 0, s.Stats().Relocations)
}

func TestScratchExhaustionLeavesChildAttached(t *testing.T) {
	s, p, e, c, q := fullScene(t)
	requirePanicIs(t, ErrScratch, func() { e.SetParent(q) })
	assertUntouched(t, s, p, e, c)

	requirePanicIs(t, ErrScratch, func() { e.SetParent(nil) })
	assertUntouched(t, s, p, e, c)
}

func TestScratchExhaustionOnDestroyLeavesChildAttached(t *testing.T) {
	s, p, e, c, _ := fullScene(t)
	requirePanicIs(t, ErrScratch, func() { e.Destroy() })
	assertUntouched(t, s, p, e, c)
	assert.False(t, e.IsDestroyed())
}

func TestScratchExhaustionOnSiblingIndex(t *testing.T) {
	s := NewScene(Config{Capacity: 4, ScratchReserve: 1})
	p := s.NewEntity("P")
	a := s.NewEntity("A")
	b := s.NewEntity("B")
	c := s.NewEntity("C")
	a.SetParent(p)
	b.SetParent(p)
	c.SetParent(b)

	requirePanicIs(t, ErrScratch, func() { b.SetSiblingIndex(0) })
	require.NoError(t, s.Validate())
	assert.Equal(t, []*Entity{a, b}, p.Children())
}

func TestMovesWithoutShiftNeedNoScratch(t *testing.T) {
	s, _, e, c, q := fullScene(t)
	// Q already ends at the tail, so making it a child of C is a no-move.
	q.SetParent(c)
	assert.Same(t, c, q.Parent())
	assert.Equal(t, 4, e.SubtreeSize())
	require.NoError(t, s.Validate())
}

func TestArenaRejectsOversizedCapacity(t *testing.T) {
	requirePanicIs(t, ErrCapacity, func() { newArena(math.MaxInt32+1, 0) })
}

func TestSceneCapacityExhaustion(t *testing.T) {
	s := NewScene(Config{Capacity: 2})
	s.NewEntity("a")
	s.NewEntity("b")
	requirePanicIs(t, ErrCapacity, func() { s.NewEntity("c") })
	assert.Equal(t, 2, s.Len())
	require.NoError(t, s.Validate())
}

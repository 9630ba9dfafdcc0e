package arbor

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// noParent marks a record whose owner is a root.
const noParent = -1

// record is one transform slot in the arena. Records never hold pointers into
// the arena; parent is a slot index refreshed whenever records move.
type record struct {
	localPosition mgl64.Vec3
	localRotation mgl64.Quat
	localScale    mgl64.Vec3
	worldMatrix   mgl64.Mat4
	flags         Flags
	owner         EntityID
	parent        int32
}

// identityRecord is the state of a freshly allocated record.
var identityRecord = record{
	localRotation: mgl64.QuatIdent(),
	localScale:    mgl64.Vec3{1, 1, 1},
	worldMatrix:   mgl64.Ident4(),
	flags:         WorldMatrixDirty | IsIdentity,
	parent:        noParent,
}

// ArenaStats reports allocation and relocation counters.
type ArenaStats struct {
	HighWater     int // slots in use
	Peak          int // highest HighWater seen
	Capacity      int // usable slots
	Relocations   int // relocations that moved at least one record
	LastMoved     int // records moved by the most recent relocation
	TotalMoved    int // records moved by all relocations
	ScratchPeak   int // largest block saved to scratch
	ScratchLength int // slots reserved beyond Capacity
}

// arena is a fixed-capacity bump allocator of transform records. The slice is
// allocated once; slots [0, top) are in use, [top, len) is scratch.
type arena struct {
	records  []record
	capacity int
	top      int
	stats    ArenaStats
}

func newArena(capacity, scratch int) *arena {
	if capacity <= 0 {
		panic(fmt.Sprintf("arbor: arena capacity must be positive, got %d", capacity))
	}
	if capacity > math.MaxInt32 {
		panic(fmt.Errorf("%w: %d slots do not fit a 32-bit parent slot", ErrCapacity, capacity))
	}
	if scratch < 0 {
		scratch = 0
	}
	return &arena{
		records:  make([]record, capacity+scratch),
		capacity: capacity,
		stats:    ArenaStats{Capacity: capacity, ScratchLength: scratch},
	}
}

// alloc claims the slot at the high-water mark.
func (a *arena) alloc() int {
	if a.top >= a.capacity {
		panic(fmt.Errorf("%w: capacity %d", ErrCapacity, a.capacity))
	}
	i := a.top
	a.records[i] = identityRecord
	a.top++
	if a.top > a.stats.Peak {
		a.stats.Peak = a.top
	}
	return i
}

// release drops the last n slots. The caller guarantees they form whole,
// tail-positioned subtrees.
func (a *arena) release(n int) {
	if n < 0 || n > a.top {
		panic(fmt.Sprintf("arbor: release of %d records with %d in use", n, a.top))
	}
	a.top -= n
	clear(a.records[a.top : a.top+n])
}

// canSave reports whether a block of n records fits between the high-water
// mark and the end of the backing slice. Unused capacity counts as scratch.
func (a *arena) canSave(n int) bool {
	return a.top+n <= len(a.records)
}

// save copies [start, start+n) into the scratch region at the tail and returns
// the scratch start.
func (a *arena) save(start, n int) int {
	if !a.canSave(n) {
		panic(fmt.Errorf("%w: need %d slots beyond %d, have %d",
			ErrScratch, n, a.top, len(a.records)-a.top))
	}
	copy(a.records[a.top:a.top+n], a.records[start:start+n])
	if n > a.stats.ScratchPeak {
		a.stats.ScratchPeak = n
	}
	return a.top
}

// shift moves n records from src to dst. The ranges may overlap.
func (a *arena) shift(src, dst, n int) {
	copy(a.records[dst:dst+n], a.records[src:src+n])
}

// restore copies a saved block back from scratch and clears the scratch slots.
func (a *arena) restore(scratch, dst, n int) {
	copy(a.records[dst:dst+n], a.records[scratch:scratch+n])
	clear(a.records[scratch : scratch+n])
}

// noteMove records a completed relocation of moved records.
func (a *arena) noteMove(moved int) {
	a.stats.LastMoved = moved
	if moved == 0 {
		return
	}
	a.stats.Relocations++
	a.stats.TotalMoved += moved
}

// at returns the record in slot i.
func (a *arena) at(i int) *record {
	return &a.records[i]
}

package engine

// noSlot marks the absence of an arena slot reference. Slot 0 is a
// legitimate arena index, so -1 (not 0) is the sentinel.
const noSlot = -1

// restingOrder is one arena record: a resting order's remaining size and
// its position in the ladder's per-level FIFO.
type restingOrder struct {
	id         uint64
	priceIndex int
	size       int64
	prev       int
	next       int
}

// orderPool is the arena-plus-free-list that backs a single HalfBook. It
// is never used outside this package: HalfBook is the only caller of its
// three contracts (acquire, release, lookup).
type orderPool struct {
	arena []restingOrder
	free  []int
	ids   map[uint64]int
}

// newOrderPool pre-allocates warm arena space sized to the ladder so the
// common case of a mostly-full book never grows the backing slice. This
// is a convenience, not a correctness requirement: acquire() grows the
// arena on demand regardless.
func newOrderPool(prealloc int) *orderPool {
	p := &orderPool{
		arena: make([]restingOrder, prealloc),
		free:  make([]int, prealloc),
		ids:   make(map[uint64]int, prealloc),
	}
	for i := range p.free {
		p.free[i] = i
	}
	return p
}

// acquire returns a free slot index, preferring the most recently
// released slot (LIFO) before growing the arena.
func (p *orderPool) acquire() int {
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		return slot
	}
	p.arena = append(p.arena, restingOrder{})
	return len(p.arena) - 1
}

// release returns a slot to the free list. The caller must have already
// unlinked it from any level FIFO and removed its id from ids.
func (p *orderPool) release(slot int) {
	p.free = append(p.free, slot)
}

// lookup translates a caller-visible id to its current arena slot.
func (p *orderPool) lookup(id uint64) (int, bool) {
	slot, ok := p.ids[id]
	return slot, ok
}

func (p *orderPool) bind(id uint64, slot int) { p.ids[id] = slot }
func (p *orderPool) unbind(id uint64)          { delete(p.ids, id) }

func (p *orderPool) at(slot int) *restingOrder { return &p.arena[slot] }

package engine

import "fmt"

// noTOB marks an empty half-book: no level currently holds resting size.
const noTOB = -1

// priceLevel is one slot of the ladder: the FIFO endpoints of the orders
// resting at this price, plus a running sum of their sizes.
type priceLevel struct {
	head, tail int
	totalSize  int64
}

// HalfBook is one side (buy or sell) of an Orderbook: a direct-indexed
// price ladder over an arena of order records, with a cached pointer to
// the best populated level. It has no notion of the opposing side; an
// Orderbook composes two HalfBooks and decides when a ticket crosses.
type HalfBook struct {
	side      Side
	minPrice  int64
	maxPrice  int64
	tickSize  int64
	levels    []priceLevel
	pool      *orderPool
	topOfBook int
	liquidity int64
}

// NewHalfBook builds an empty half-book over [minPrice, maxPrice] at the
// given tick granularity. The ladder and its backing arena are
// pre-allocated to the full level count.
func NewHalfBook(side Side, minPrice, maxPrice, tickSize int64) (*HalfBook, error) {
	if tickSize <= 0 {
		return nil, fmt.Errorf("%w: tick size must be positive, got %d", ErrInvalidOrder, tickSize)
	}
	if minPrice <= 0 {
		return nil, fmt.Errorf("%w: min price must be positive, got %d", ErrInvalidOrder, minPrice)
	}
	if maxPrice < minPrice {
		return nil, fmt.Errorf("%w: max price %d below min price %d", ErrInvalidOrder, maxPrice, minPrice)
	}
	if (maxPrice-minPrice)%tickSize != 0 {
		return nil, fmt.Errorf("%w: price range not a whole number of ticks", ErrInvalidOrder)
	}

	levelCount := int((maxPrice-minPrice)/tickSize) + 1
	levels := make([]priceLevel, levelCount)
	for i := range levels {
		levels[i] = priceLevel{head: noSlot, tail: noSlot}
	}

	return &HalfBook{
		side:      side,
		minPrice:  minPrice,
		maxPrice:  maxPrice,
		tickSize:  tickSize,
		levels:    levels,
		pool:      newOrderPool(levelCount),
		topOfBook: noTOB,
	}, nil
}

// priceIndex maps a price to its ladder slot, validating range and tick
// alignment along the way.
func (hb *HalfBook) priceIndex(price int64) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("%w: price must be positive, got %d", ErrInvalidOrder, price)
	}
	if price < hb.minPrice || price > hb.maxPrice {
		return 0, fmt.Errorf("%w: price %d outside [%d, %d]", ErrInvalidOrder, price, hb.minPrice, hb.maxPrice)
	}
	if (price-hb.minPrice)%hb.tickSize != 0 {
		return 0, fmt.Errorf("%w: price %d not aligned to tick size %d", ErrInvalidOrder, price, hb.tickSize)
	}
	return int((price - hb.minPrice) / hb.tickSize), nil
}

func (hb *HalfBook) priceFromIndex(idx int) int64 {
	return hb.minPrice + int64(idx)*hb.tickSize
}

// better reports whether ladder index a is a strictly better price than
// b for this side: higher on the buy side, lower on the sell side.
func (hb *HalfBook) better(a, b int) bool {
	if hb.side == Buy {
		return a > b
	}
	return a < b
}

// Insert rests a new order of the given id, price and size at the tail
// of its price level's FIFO. A duplicate id is rejected rather than
// silently displacing the order already bound to it.
func (hb *HalfBook) Insert(id uint64, price, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOrder, size)
	}
	idx, err := hb.priceIndex(price)
	if err != nil {
		return err
	}
	if _, exists := hb.pool.lookup(id); exists {
		return fmt.Errorf("%w: order id %d already resting", ErrInvalidOrder, id)
	}

	slot := hb.pool.acquire()
	level := &hb.levels[idx]
	oldTail := level.tail
	if level.head == noSlot {
		level.head = slot
	}
	if oldTail != noSlot {
		hb.pool.at(oldTail).next = slot
	}
	level.tail = slot
	level.totalSize += size
	hb.liquidity += size

	o := hb.pool.at(slot)
	o.id = id
	o.priceIndex = idx
	o.size = size
	o.prev = oldTail
	o.next = noSlot
	hb.pool.bind(id, slot)

	if hb.topOfBook == noTOB || hb.better(idx, hb.topOfBook) {
		hb.topOfBook = idx
	}
	return nil
}

// Remove takes a resting order off the book entirely, relinking its
// level's FIFO neighbors and releasing its arena slot.
func (hb *HalfBook) Remove(id uint64) error {
	slot, ok := hb.pool.lookup(id)
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownID, id)
	}
	o := hb.pool.at(slot)
	idx := o.priceIndex
	level := &hb.levels[idx]

	if level.head == slot {
		level.head = o.next
	}
	if level.tail == slot {
		level.tail = o.prev
	}
	if o.prev != noSlot {
		hb.pool.at(o.prev).next = o.next
	}
	if o.next != noSlot {
		hb.pool.at(o.next).prev = o.prev
	}
	level.totalSize -= o.size
	hb.liquidity -= o.size

	if hb.topOfBook == idx && level.totalSize == 0 {
		hb.topOfBook = hb.scanNextBest(idx)
	}

	hb.pool.unbind(id)
	hb.pool.release(slot)
	return nil
}

// Modify changes a resting order's price and/or size. A same-price
// modify is in place and preserves FIFO priority; a price change is a
// cancel-and-reinsert and loses priority, matching ordinary exchange
// convention.
func (hb *HalfBook) Modify(id uint64, price, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOrder, size)
	}
	idx, err := hb.priceIndex(price)
	if err != nil {
		return err
	}
	slot, ok := hb.pool.lookup(id)
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownID, id)
	}

	o := hb.pool.at(slot)
	if o.priceIndex == idx {
		delta := size - o.size
		hb.levels[idx].totalSize += delta
		hb.liquidity += delta
		o.size = size
		return nil
	}

	if err := hb.Remove(id); err != nil {
		return err
	}
	return hb.Insert(id, price, size)
}

// MatchSize consumes resting liquidity from the best level downward
// (best-first, then FIFO within a level) until size is satisfied or the
// book is drained. Draining the book is not an error: the caller
// distinguishes an under-fill by comparing the returned filled amount
// against the requested size.
func (hb *HalfBook) MatchSize(size int64) (notional int64, filled int64, err error) {
	if size <= 0 {
		return 0, 0, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOrder, size)
	}

	remaining := size
	for remaining > 0 && hb.topOfBook != noTOB {
		idx := hb.topOfBook
		level := &hb.levels[idx]

		for remaining > 0 && level.totalSize > 0 {
			headSlot := level.head
			if headSlot == noSlot {
				return notional, filled, fmt.Errorf("%w: level %d has size but no head", ErrInternalInvariant, idx)
			}
			o := hb.pool.at(headSlot)

			traded := remaining
			if o.size < traded {
				traded = o.size
			}
			o.size -= traded
			level.totalSize -= traded
			hb.liquidity -= traded
			remaining -= traded
			notional += traded * hb.priceFromIndex(idx)
			filled += traded

			if o.size == 0 {
				next := o.next
				level.head = next
				if next != noSlot {
					hb.pool.at(next).prev = noSlot
				} else {
					level.tail = noSlot
				}
				hb.pool.unbind(o.id)
				hb.pool.release(headSlot)
			}
		}

		if level.totalSize == 0 {
			hb.topOfBook = hb.scanNextBest(idx)
		}
	}

	return notional, filled, nil
}

// scanNextBest looks for the next populated level strictly beyond from,
// moving away from the best price for this side (downward on the buy
// side, upward on the sell side). It is the only place a best-level
// update costs more than O(1).
func (hb *HalfBook) scanNextBest(from int) int {
	if hb.side == Buy {
		for i := from - 1; i >= 0; i-- {
			if hb.levels[i].totalSize > 0 {
				return i
			}
		}
		return noTOB
	}
	for i := from + 1; i < len(hb.levels); i++ {
		if hb.levels[i].totalSize > 0 {
			return i
		}
	}
	return noTOB
}

// TopOfBook returns the best populated level, or ok=false if the
// half-book is empty.
func (hb *HalfBook) TopOfBook() (PriceSize, bool) {
	if hb.topOfBook == noTOB {
		return PriceSize{}, false
	}
	level := hb.levels[hb.topOfBook]
	return PriceSize{Price: hb.priceFromIndex(hb.topOfBook), Size: level.totalSize}, true
}

// TotalLiquidity returns the sum of resting size across every level,
// maintained incrementally rather than recomputed on each call.
func (hb *HalfBook) TotalLiquidity() int64 {
	return hb.liquidity
}

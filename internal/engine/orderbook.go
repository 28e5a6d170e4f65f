package engine

import "fmt"

// Orderbook composes the two sides of a single instrument's book and
// interprets incoming tickets: classifying market vs. limit, deciding
// whether a limit crosses, and assigning the identifiers makers are
// given back for later cancel/modify.
//
// Orderbook assumes single-threaded, synchronous callers, same as the
// HalfBooks it wraps. Concurrent transports must serialize their calls
// above this type (see matchbook/internal/exchange).
type Orderbook struct {
	bids   *HalfBook
	asks   *HalfBook
	nextID uint64
	idSide map[uint64]Side
}

// NewOrderbook builds an empty book over the given price range and tick
// size, shared by both sides.
func NewOrderbook(minPrice, maxPrice, tickSize int64) (*Orderbook, error) {
	bids, err := NewHalfBook(Buy, minPrice, maxPrice, tickSize)
	if err != nil {
		return nil, err
	}
	asks, err := NewHalfBook(Sell, minPrice, maxPrice, tickSize)
	if err != nil {
		return nil, err
	}
	return &Orderbook{
		bids:   bids,
		asks:   asks,
		idSide: make(map[uint64]Side),
	}, nil
}

func (ob *Orderbook) halfBook(side Side) *HalfBook {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

// crosses reports whether a limit ticket on side at price would take
// liquidity from the opposite side immediately.
func (ob *Orderbook) crosses(side Side, price int64) bool {
	opposite, ok := ob.halfBook(side.opposite()).TopOfBook()
	if !ok {
		return false
	}
	if side == Buy {
		return opposite.Price <= price
	}
	return opposite.Price >= price
}

// AcceptOrder classifies and applies a single ticket. Market tickets,
// and limit tickets that cross the book, always return a
// MarketOrderResponse and never rest. A non-crossing limit ticket rests
// and returns a LimitOrderResponse carrying the id assigned to it.
func (ob *Orderbook) AcceptOrder(ticket OrderTicket) (OrderResponse, error) {
	if ticket.Size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidOrder, ticket.Size)
	}

	switch ticket.Type {
	case MarketTicket:
		return ob.takeLiquidity(ticket.Side, ticket.Size)
	case LimitTicket:
		if ob.crosses(ticket.Side, ticket.Price) {
			return ob.takeLiquidity(ticket.Side, ticket.Size)
		}
		return ob.rest(ticket.Side, ticket.Price, ticket.Size)
	default:
		return nil, fmt.Errorf("%w: unrecognized ticket type %d", ErrInvalidOrder, ticket.Type)
	}
}

func (ob *Orderbook) takeLiquidity(side Side, size int64) (OrderResponse, error) {
	notional, filled, err := ob.halfBook(side.opposite()).MatchSize(size)
	if err != nil {
		return nil, err
	}
	return MarketOrderResponse{Notional: notional, Size: size, Filled: filled}, nil
}

func (ob *Orderbook) rest(side Side, price, size int64) (OrderResponse, error) {
	id := ob.nextID
	if err := ob.halfBook(side).Insert(id, price, size); err != nil {
		return nil, err
	}
	ob.nextID++
	ob.idSide[id] = side
	return LimitOrderResponse{ID: id}, nil
}

// CancelOrder removes a resting order by id.
func (ob *Orderbook) CancelOrder(id uint64) error {
	side, ok := ob.idSide[id]
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownID, id)
	}
	if err := ob.halfBook(side).Remove(id); err != nil {
		return err
	}
	delete(ob.idSide, id)
	return nil
}

// ModifyOrder changes the price and/or size of a resting order. See
// HalfBook.Modify for priority semantics.
func (ob *Orderbook) ModifyOrder(id uint64, price, size int64) error {
	side, ok := ob.idSide[id]
	if !ok {
		return fmt.Errorf("%w: order %d", ErrUnknownID, id)
	}
	return ob.halfBook(side).Modify(id, price, size)
}

// BestBid returns the best resting buy level, if any.
func (ob *Orderbook) BestBid() (PriceSize, bool) { return ob.bids.TopOfBook() }

// BestAsk returns the best resting sell level, if any.
func (ob *Orderbook) BestAsk() (PriceSize, bool) { return ob.asks.TopOfBook() }

// TotalLiquidity returns the resting size on the given side.
func (ob *Orderbook) TotalLiquidity(side Side) int64 {
	return ob.halfBook(side).TotalLiquidity()
}

// Package exchange wraps a single engine.Orderbook with the bookkeeping
// the core intentionally has no notion of: who owns a resting order,
// structured log output, a correlation id per call, and an append-only
// journal of outcomes. It is the only caller of the core from outside
// matchbook/internal/engine, and it is the seam where the core's
// single-threaded-caller assumption is actually satisfied: every public
// method here takes a mutex before touching the book, so any number of
// concurrent transport workers can call in safely.
package exchange

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"matchbook/internal/engine"
	"matchbook/internal/journal"
)

// Service is the single entry point a transport should hold onto.
type Service struct {
	mu      sync.Mutex
	book    *engine.Orderbook
	journal *journal.Journal
	owners  map[uint64]string
	sides   map[uint64]engine.Side
	log     zerolog.Logger
}

// New constructs a Service over a freshly built order book spanning
// [minPrice, maxPrice] at the given tick size.
func New(minPrice, maxPrice, tickSize int64, log zerolog.Logger) (*Service, error) {
	book, err := engine.NewOrderbook(minPrice, maxPrice, tickSize)
	if err != nil {
		return nil, fmt.Errorf("building order book: %w", err)
	}
	return &Service{
		book:    book,
		journal: journal.New(),
		owners:  make(map[uint64]string),
		sides:   make(map[uint64]engine.Side),
		log:     log,
	}, nil
}

// PlaceOrder submits a ticket on behalf of owner, journals the outcome,
// and logs it. The returned response is exactly what engine.AcceptOrder
// produced; the error, if any, is the engine's error returned unchanged.
func (s *Service) PlaceOrder(ticket engine.OrderTicket, owner string) (engine.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqID := uuid.New().String()
	s.log.Debug().
		Str("request_id", reqID).
		Str("owner", owner).
		Str("side", ticket.Side.String()).
		Int64("size", ticket.Size).
		Msg("accepting order ticket")

	resp, err := s.book.AcceptOrder(ticket)
	if err != nil {
		s.log.Warn().
			Str("request_id", reqID).
			Str("owner", owner).
			Err(err).
			Msg("order ticket rejected")
		return nil, err
	}

	now := time.Now()
	switch r := resp.(type) {
	case engine.MarketOrderResponse:
		s.journal.Append(journal.Filled, ticket.Side, r.Filled, 0, r.Notional, 0, false, owner, now)
		s.log.Info().
			Str("request_id", reqID).
			Str("owner", owner).
			Int64("requested", r.Size).
			Int64("filled", r.Filled).
			Int64("notional", r.Notional).
			Msg("order executed as taker")
	case engine.LimitOrderResponse:
		s.owners[r.ID] = owner
		s.sides[r.ID] = ticket.Side
		s.journal.Append(journal.Rested, ticket.Side, ticket.Size, ticket.Price, 0, r.ID, true, owner, now)
		s.log.Info().
			Str("request_id", reqID).
			Str("owner", owner).
			Uint64("order_id", r.ID).
			Int64("price", ticket.Price).
			Msg("order rested on book")
	}
	return resp, nil
}

// CancelOrder removes a resting order by id, recording who owned it.
func (s *Service) CancelOrder(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.owners[id]
	side := s.sides[id]
	if err := s.book.CancelOrder(id); err != nil {
		s.log.Warn().Uint64("order_id", id).Err(err).Msg("cancel rejected")
		return err
	}
	delete(s.owners, id)
	delete(s.sides, id)
	s.journal.Append(journal.Cancelled, side, 0, 0, 0, id, true, owner, time.Now())
	s.log.Info().Uint64("order_id", id).Str("owner", owner).Msg("order cancelled")
	return nil
}

// ModifyOrder changes the price and/or size of a resting order.
func (s *Service) ModifyOrder(id uint64, price, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.ModifyOrder(id, price, size); err != nil {
		s.log.Warn().Uint64("order_id", id).Err(err).Msg("modify rejected")
		return err
	}
	s.log.Info().Uint64("order_id", id).Int64("price", price).Int64("size", size).Msg("order modified")
	return nil
}

// LogBook emits a snapshot of the best bid/ask and per-side liquidity —
// handy as the response to an operator heartbeat over the wire.
func (s *Service) LogBook() {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := s.log.Info()
	if bid, ok := s.book.BestBid(); ok {
		event = event.Int64("best_bid_price", bid.Price).Int64("best_bid_size", bid.Size)
	}
	if ask, ok := s.book.BestAsk(); ok {
		event = event.Int64("best_ask_price", ask.Price).Int64("best_ask_size", ask.Size)
	}
	event.
		Int64("bid_liquidity", s.book.TotalLiquidity(engine.Buy)).
		Int64("ask_liquidity", s.book.TotalLiquidity(engine.Sell)).
		Msg("order book snapshot")
}

// Journal exposes the underlying event log for diagnostics or replay.
func (s *Service) Journal() *journal.Journal {
	return s.journal
}

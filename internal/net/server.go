package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/tomb.v2"
	"matchbook/internal/engine"
	"matchbook/internal/workerpool"
)

// Exchange is the surface net.Server needs from the order book service.
// It is satisfied by *exchange.Service; defined here (rather than
// imported from that package) so this package only depends on engine's
// value types, not on exchange's concrete type.
type Exchange interface {
	PlaceOrder(ticket engine.OrderTicket, owner string) (engine.OrderResponse, error)
	CancelOrder(id uint64) error
	ModifyOrder(id uint64, price, size int64) error
	LogBook()
}

const (
	defaultWorkers    = 8
	defaultQueueDepth = 64
)

// Server accepts TCP connections, hands each one to a worker, and on
// that worker decodes one request, calls into the Exchange, and writes
// back one Report, looping until the connection closes.
type Server struct {
	host     string
	port     int
	exchange Exchange
	pool     *workerpool.Pool

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server bound to host:port, backed by exchange.
func New(host string, port int, exchange Exchange) *Server {
	s := &Server{host: host, port: port, exchange: exchange}
	s.pool = workerpool.New(defaultWorkers, defaultQueueDepth, func(t *tomb.Tomb, task workerpool.Task) error {
		conn := task.(net.Conn)
		s.handleConnection(t, conn)
		return nil
	})
	return s
}

// Run listens and serves until t is killed (typically via a parent
// context cancellation). It blocks until the accept loop exits.
func (s *Server) Run(t *tomb.Tomb) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("listening on %s:%d: %w", s.host, s.port, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.pool.Run(t)

	t.Go(func() error {
		<-t.Dying()
		return listener.Close()
	})

	log.Info().Str("addr", listener.Addr().String()).Msg("exchange server listening")
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-t.Dying():
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				log.Error().Err(err).Msg("accept failed")
				continue
			}
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")
		s.pool.Submit(conn)
	}
}

// handleConnection reads one request at a time from conn, processes it,
// and writes back a Report, until the connection errors out or closes.
func (s *Server) handleConnection(t *tomb.Tomb, conn net.Conn) {
	defer conn.Close()
	for {
		select {
		case <-t.Dying():
			return
		default:
		}

		req, err := ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Debug().Str("remote", conn.RemoteAddr().String()).Err(err).Msg("connection closed")
			}
			return
		}

		report := s.process(req)
		if err := WriteReport(conn, report); err != nil {
			log.Warn().Str("remote", conn.RemoteAddr().String()).Err(err).Msg("failed to write report")
			return
		}
	}
}

func (s *Server) process(req Request) Report {
	switch r := req.(type) {
	case NewOrderRequest:
		return s.processNewOrder(r)
	case CancelOrderRequest:
		if err := s.exchange.CancelOrder(r.OrderID); err != nil {
			return rejection(err)
		}
		return Report{Kind: ReportRested, HasOrderID: true, OrderID: r.OrderID}
	case ModifyOrderRequest:
		if err := s.exchange.ModifyOrder(r.OrderID, r.Price, r.Size); err != nil {
			return rejection(err)
		}
		return Report{Kind: ReportRested, HasOrderID: true, OrderID: r.OrderID, Price: r.Price, Size: r.Size}
	default:
		return rejection(fmt.Errorf("unhandled request type %T", req))
	}
}

func (s *Server) processNewOrder(r NewOrderRequest) Report {
	ticket := engine.OrderTicket{Side: r.Side, Size: r.Size, Type: r.Type, Price: r.Price}
	resp, err := s.exchange.PlaceOrder(ticket, r.Owner)
	if err != nil {
		return rejection(err)
	}

	switch m := resp.(type) {
	case engine.MarketOrderResponse:
		return Report{Kind: ReportFilled, Side: r.Side, Size: m.Filled, Notional: m.Notional}
	case engine.LimitOrderResponse:
		return Report{Kind: ReportRested, Side: r.Side, Price: r.Price, Size: r.Size, HasOrderID: true, OrderID: m.ID}
	default:
		return rejection(fmt.Errorf("unrecognized order response %T", resp))
	}
}

func rejection(err error) Report {
	return Report{Kind: ReportRejected, Err: err.Error()}
}

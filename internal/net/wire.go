// Package net implements the binary wire protocol and TCP server that
// expose a single exchange.Service over the network. Every frame is a
// 4-byte big-endian length prefix followed by a fixed-layout body; the
// core engine package never sees bytes — it only sees
// engine.OrderTicket and friends, decoded here.
package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"matchbook/internal/engine"
)

// Request message type tags.
const (
	MsgNewOrder byte = iota + 1
	MsgCancelOrder
	MsgModifyOrder
)

// Report kind tags.
const (
	ReportFilled byte = iota + 1
	ReportRested
	ReportRejected
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrFrameTooShort      = errors.New("frame too short for its message type")
)

const maxOwnerLen = 255
const maxFrameLen = 1 << 16

// Request is the set of messages a client may send. Concrete types are
// NewOrderRequest, CancelOrderRequest, and ModifyOrderRequest.
type Request interface {
	isRequest()
}

type NewOrderRequest struct {
	Side  engine.Side
	Type  engine.TicketType
	Price int64
	Size  int64
	Owner string
}

func (NewOrderRequest) isRequest() {}

type CancelOrderRequest struct {
	OrderID uint64
}

func (CancelOrderRequest) isRequest() {}

type ModifyOrderRequest struct {
	OrderID uint64
	Price   int64
	Size    int64
}

func (ModifyOrderRequest) isRequest() {}

// Report is the single message type a server sends back.
type Report struct {
	Kind       byte
	Side       engine.Side
	Price      int64
	Size       int64
	Notional   int64
	HasOrderID bool
	OrderID    uint64
	Err        string
}

// ReadRequest reads one length-prefixed frame from r and decodes it.
func ReadRequest(r io.Reader) (Request, error) {
	body, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	if len(body) < 1 {
		return nil, ErrFrameTooShort
	}

	switch body[0] {
	case MsgNewOrder:
		return decodeNewOrder(body)
	case MsgCancelOrder:
		return decodeCancelOrder(body)
	case MsgModifyOrder:
		return decodeModifyOrder(body)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, body[0])
	}
}

func decodeNewOrder(body []byte) (Request, error) {
	const fixedLen = 1 + 1 + 1 + 8 + 8 + 1
	if len(body) < fixedLen {
		return nil, ErrFrameTooShort
	}
	side := engine.Side(body[1])
	ticketType := engine.TicketType(body[2])
	price := int64(binary.BigEndian.Uint64(body[3:11]))
	size := int64(binary.BigEndian.Uint64(body[11:19]))
	ownerLen := int(body[19])
	if len(body) < fixedLen+ownerLen {
		return nil, ErrFrameTooShort
	}
	owner := string(body[fixedLen : fixedLen+ownerLen])
	return NewOrderRequest{Side: side, Type: ticketType, Price: price, Size: size, Owner: owner}, nil
}

func decodeCancelOrder(body []byte) (Request, error) {
	const fixedLen = 1 + 8
	if len(body) < fixedLen {
		return nil, ErrFrameTooShort
	}
	return CancelOrderRequest{OrderID: binary.BigEndian.Uint64(body[1:9])}, nil
}

func decodeModifyOrder(body []byte) (Request, error) {
	const fixedLen = 1 + 8 + 8 + 8
	if len(body) < fixedLen {
		return nil, ErrFrameTooShort
	}
	return ModifyOrderRequest{
		OrderID: binary.BigEndian.Uint64(body[1:9]),
		Price:   int64(binary.BigEndian.Uint64(body[9:17])),
		Size:    int64(binary.BigEndian.Uint64(body[17:25])),
	}, nil
}

// EncodeNewOrder frames a NewOrderRequest for the wire. Exported so the
// CLI client can build requests without duplicating the layout.
func EncodeNewOrder(req NewOrderRequest) ([]byte, error) {
	if len(req.Owner) > maxOwnerLen {
		return nil, fmt.Errorf("owner name too long: %d bytes", len(req.Owner))
	}
	body := make([]byte, 1+1+1+8+8+1+len(req.Owner))
	body[0] = MsgNewOrder
	body[1] = byte(req.Side)
	body[2] = byte(req.Type)
	binary.BigEndian.PutUint64(body[3:11], uint64(req.Price))
	binary.BigEndian.PutUint64(body[11:19], uint64(req.Size))
	body[19] = byte(len(req.Owner))
	copy(body[20:], req.Owner)
	return frame(body), nil
}

// EncodeCancelOrder frames a CancelOrderRequest for the wire.
func EncodeCancelOrder(req CancelOrderRequest) []byte {
	body := make([]byte, 1+8)
	body[0] = MsgCancelOrder
	binary.BigEndian.PutUint64(body[1:9], req.OrderID)
	return frame(body)
}

// EncodeModifyOrder frames a ModifyOrderRequest for the wire.
func EncodeModifyOrder(req ModifyOrderRequest) []byte {
	body := make([]byte, 1+8+8+8)
	body[0] = MsgModifyOrder
	binary.BigEndian.PutUint64(body[1:9], req.OrderID)
	binary.BigEndian.PutUint64(body[9:17], uint64(req.Price))
	binary.BigEndian.PutUint64(body[17:25], uint64(req.Size))
	return frame(body)
}

// WriteReport frames and writes a Report to w.
func WriteReport(w io.Writer, rep Report) error {
	errBytes := []byte(rep.Err)
	if len(errBytes) > maxFrameLen {
		errBytes = errBytes[:maxFrameLen]
	}
	body := make([]byte, 1+1+8+8+8+1+8+2+len(errBytes))
	body[0] = rep.Kind
	body[1] = byte(rep.Side)
	binary.BigEndian.PutUint64(body[2:10], uint64(rep.Price))
	binary.BigEndian.PutUint64(body[10:18], uint64(rep.Size))
	binary.BigEndian.PutUint64(body[18:26], uint64(rep.Notional))
	if rep.HasOrderID {
		body[26] = 1
	}
	binary.BigEndian.PutUint64(body[27:35], rep.OrderID)
	binary.BigEndian.PutUint16(body[35:37], uint16(len(errBytes)))
	copy(body[37:], errBytes)

	_, err := w.Write(frame(body))
	return err
}

// ReadReport reads and decodes one Report frame from r.
func ReadReport(r io.Reader) (Report, error) {
	body, err := readFrame(r)
	if err != nil {
		return Report{}, err
	}
	const fixedLen = 1 + 1 + 8 + 8 + 8 + 1 + 8 + 2
	if len(body) < fixedLen {
		return Report{}, ErrFrameTooShort
	}
	errLen := int(binary.BigEndian.Uint16(body[35:37]))
	if len(body) < fixedLen+errLen {
		return Report{}, ErrFrameTooShort
	}
	return Report{
		Kind:       body[0],
		Side:       engine.Side(body[1]),
		Price:      int64(binary.BigEndian.Uint64(body[2:10])),
		Size:       int64(binary.BigEndian.Uint64(body[10:18])),
		Notional:   int64(binary.BigEndian.Uint64(body[18:26])),
		HasOrderID: body[26] == 1,
		OrderID:    binary.BigEndian.Uint64(body[27:35]),
		Err:        string(body[fixedLen : fixedLen+errLen]),
	}, nil
}

// frame prepends a 4-byte big-endian length to body.
func frame(body []byte) []byte {
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

// readFrame reads a 4-byte length prefix followed by that many bytes.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("frame of %d bytes exceeds maximum %d", n, maxFrameLen)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

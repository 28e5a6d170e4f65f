// Package journal keeps an in-memory, sequence-ordered record of every
// accepted order ticket's outcome. It is the in-memory analogue of what
// a production exchange would flush to durable storage; this package
// never persists to disk and is bounded only by process lifetime.
package journal

import (
	"fmt"
	"time"

	"github.com/tidwall/btree"
	"matchbook/internal/engine"
)

// Kind tags what happened to a ticket.
type Kind int

const (
	Rested Kind = iota
	Filled
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Rested:
		return "rested"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Record is one journal entry. OrderID and Price/Notional are zero when
// not meaningful for the entry's Kind.
type Record struct {
	Seq       uint64
	Kind      Kind
	Side      engine.Side
	Size      int64
	Price     int64
	Notional  int64
	OrderID   uint64
	HasOrder  bool
	Owner     string
	Timestamp time.Time
}

func (r Record) String() string {
	return fmt.Sprintf(
		"seq=%d kind=%s side=%s size=%d price=%d notional=%d owner=%q at=%s",
		r.Seq, r.Kind, r.Side, r.Size, r.Price, r.Notional, r.Owner,
		r.Timestamp.Format(time.RFC3339),
	)
}

// Journal is an append-only log ordered by sequence number, backed by a
// btree so that range queries ("everything since sequence N") run in
// O(log n + k) instead of a linear scan of the whole history.
type Journal struct {
	seq     uint64
	records *btree.BTreeG[Record]
}

func New() *Journal {
	return &Journal{
		records: btree.NewBTreeG(func(a, b Record) bool {
			return a.Seq < b.Seq
		}),
	}
}

// Append assigns the next sequence number and stores a new record. The
// orderID/hasOrder pair lets callers omit an id for records that have
// none (a market fill with no resting counterpart to name).
func (j *Journal) Append(kind Kind, side engine.Side, size, price, notional int64, orderID uint64, hasOrder bool, owner string, at time.Time) Record {
	j.seq++
	rec := Record{
		Seq:       j.seq,
		Kind:      kind,
		Side:      side,
		Size:      size,
		Price:     price,
		Notional:  notional,
		OrderID:   orderID,
		HasOrder:  hasOrder,
		Owner:     owner,
		Timestamp: at,
	}
	j.records.Set(rec)
	return rec
}

// Len returns the number of records currently held.
func (j *Journal) Len() int {
	return j.records.Len()
}

// Since returns every record with Seq > fromSeq, in sequence order.
func (j *Journal) Since(fromSeq uint64) []Record {
	var out []Record
	j.records.Ascend(Record{Seq: fromSeq + 1}, func(item Record) bool {
		out = append(out, item)
		return true
	})
	return out
}

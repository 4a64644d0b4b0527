package model

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BookSide selects bids or asks.
type BookSide uint8

const (
	BookSideBid BookSide = iota + 1
	BookSideAsk
)

func (s BookSide) String() string {
	switch s {
	case BookSideBid:
		return "BID"
	case BookSideAsk:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// BookAction is the mutation a delta applies to one price level.
type BookAction uint8

const (
	BookActionAdd BookAction = iota + 1
	BookActionUpdate
	BookActionDelete
	BookActionClear
)

// BookLevel is the aggregated size resting at one price.
type BookLevel struct {
	Price decimal.Decimal `json:"price" msgpack:"price"`
	Size  decimal.Decimal `json:"size" msgpack:"size"`
}

// BookUpdate is either a BookDelta or a BookSnapshot. The set is closed.
type BookUpdate interface {
	Instrument() InstrumentID
	bookUpdate()
}

// BookDelta changes a single level in place.
type BookDelta struct {
	InstrumentID InstrumentID
	Action       BookAction
	Side         BookSide
	Price        decimal.Decimal
	Size         decimal.Decimal
	Sequence     uint64
	TsEvent      int64
}

// BookSnapshot replaces both sides of the book.
type BookSnapshot struct {
	InstrumentID InstrumentID
	Bids         []BookLevel
	Asks         []BookLevel
	Sequence     uint64
	TsEvent      int64
}

func (d BookDelta) Instrument() InstrumentID    { return d.InstrumentID }
func (s BookSnapshot) Instrument() InstrumentID { return s.InstrumentID }
func (BookDelta) bookUpdate()                   {}
func (BookSnapshot) bookUpdate()                {}

// IsNilBookUpdate reports whether update is nil or a nil *BookDelta or
// *BookSnapshot.
func IsNilBookUpdate(update BookUpdate) bool {
	switch u := update.(type) {
	case nil:
		return true
	case *BookDelta:
		return u == nil
	case *BookSnapshot:
		return u == nil
	}
	return false
}

// OrderBook is an aggregated price-level book for one instrument.
// Not thread-safe.
type OrderBook struct {
	InstrumentID InstrumentID
	bids         map[string]BookLevel
	asks         map[string]BookLevel
	sequence     uint64
	tsLast       int64
	updateCount  uint64
}

func NewOrderBook(instrumentID InstrumentID) *OrderBook {
	return &OrderBook{
		InstrumentID: instrumentID,
		bids:         make(map[string]BookLevel),
		asks:         make(map[string]BookLevel),
	}
}

// Apply mutates the book from a delta, or replaces it from a snapshot.
func (b *OrderBook) Apply(update BookUpdate) error {
	if IsNilBookUpdate(update) {
		return &ValidationError{Param: "book_update", Reason: "nil update"}
	}
	if update.Instrument() != b.InstrumentID {
		return &ValidationError{
			Param:  "book_update",
			Reason: fmt.Sprintf("instrument %s does not match book %s", update.Instrument(), b.InstrumentID),
		}
	}

	switch u := update.(type) {
	case BookDelta:
		if err := b.applyDelta(u); err != nil {
			return err
		}
		b.sequence = u.Sequence
		b.tsLast = u.TsEvent
	case *BookDelta:
		if err := b.applyDelta(*u); err != nil {
			return err
		}
		b.sequence = u.Sequence
		b.tsLast = u.TsEvent
	case BookSnapshot:
		b.applySnapshot(u)
	case *BookSnapshot:
		b.applySnapshot(*u)
	}

	b.updateCount++
	return nil
}

func (b *OrderBook) applyDelta(d BookDelta) error {
	if d.Action == BookActionClear {
		clear(b.bids)
		clear(b.asks)
		return nil
	}

	var levels map[string]BookLevel
	switch d.Side {
	case BookSideBid:
		levels = b.bids
	case BookSideAsk:
		levels = b.asks
	default:
		return &ValidationError{Param: "book_delta.side", Reason: fmt.Sprintf("unknown side %d", d.Side)}
	}

	key := d.Price.String()
	switch d.Action {
	case BookActionAdd, BookActionUpdate:
		// A zero size update is a removal.
		if d.Size.Sign() <= 0 {
			delete(levels, key)
			return nil
		}
		levels[key] = BookLevel{Price: d.Price, Size: d.Size}
	case BookActionDelete:
		delete(levels, key)
	default:
		return &ValidationError{Param: "book_delta.action", Reason: fmt.Sprintf("unknown action %d", d.Action)}
	}
	return nil
}

func (b *OrderBook) applySnapshot(s BookSnapshot) {
	b.bids = make(map[string]BookLevel, len(s.Bids))
	b.asks = make(map[string]BookLevel, len(s.Asks))
	for _, lvl := range s.Bids {
		if lvl.Size.Sign() > 0 {
			b.bids[lvl.Price.String()] = lvl
		}
	}
	for _, lvl := range s.Asks {
		if lvl.Size.Sign() > 0 {
			b.asks[lvl.Price.String()] = lvl
		}
	}
	b.sequence = s.Sequence
	b.tsLast = s.TsEvent
}

// Bids returns bid levels, highest price first.
func (b *OrderBook) Bids() []BookLevel {
	levels := collectLevels(b.bids)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price.GreaterThan(levels[j].Price) })
	return levels
}

// Asks returns ask levels, lowest price first.
func (b *OrderBook) Asks() []BookLevel {
	levels := collectLevels(b.asks)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price.LessThan(levels[j].Price) })
	return levels
}

func (b *OrderBook) BestBid() (BookLevel, bool) {
	var best BookLevel
	found := false
	for _, lvl := range b.bids {
		if !found || lvl.Price.GreaterThan(best.Price) {
			best, found = lvl, true
		}
	}
	return best, found
}

func (b *OrderBook) BestAsk() (BookLevel, bool) {
	var best BookLevel
	found := false
	for _, lvl := range b.asks {
		if !found || lvl.Price.LessThan(best.Price) {
			best, found = lvl, true
		}
	}
	return best, found
}

// Spread returns best ask minus best bid when both sides are populated.
func (b *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

func (b *OrderBook) Sequence() uint64    { return b.sequence }
func (b *OrderBook) TsLast() int64       { return b.tsLast }
func (b *OrderBook) UpdateCount() uint64 { return b.updateCount }

// Clone returns a deep copy so callers never hold the cache's instance.
func (b *OrderBook) Clone() *OrderBook {
	out := &OrderBook{
		InstrumentID: b.InstrumentID,
		bids:         make(map[string]BookLevel, len(b.bids)),
		asks:         make(map[string]BookLevel, len(b.asks)),
		sequence:     b.sequence,
		tsLast:       b.tsLast,
		updateCount:  b.updateCount,
	}
	for k, v := range b.bids {
		out.bids[k] = v
	}
	for k, v := range b.asks {
		out.asks[k] = v
	}
	return out
}

func collectLevels(m map[string]BookLevel) []BookLevel {
	levels := make([]BookLevel, 0, len(m))
	for _, lvl := range m {
		levels = append(levels, lvl)
	}
	return levels
}

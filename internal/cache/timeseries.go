package cache

import (
	"StateCache/internal/model"
)

// ring is a bounded FIFO. It grows by append until full, then overwrites
// the oldest slot.
type ring[T any] struct {
	buf      []T
	head     int // index of the oldest element once full
	capacity int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{capacity: capacity}
}

// push appends v, evicting the oldest element first when full.
func (r *ring[T]) push(v T) (evicted bool) {
	if len(r.buf) < r.capacity {
		r.buf = append(r.buf, v)
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % r.capacity
	return true
}

func (r *ring[T]) count() int { return len(r.buf) }

func (r *ring[T]) latest() (T, bool) {
	var zero T
	if len(r.buf) == 0 {
		return zero, false
	}
	if len(r.buf) < r.capacity || r.head == 0 {
		return r.buf[len(r.buf)-1], true
	}
	return r.buf[r.head-1], true
}

// items returns a copy in insertion order, oldest first.
func (r *ring[T]) items() []T {
	out := make([]T, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)
	out = append(out, r.buf[:r.head]...)
	return out
}

// Stream kinds reported to the eviction hook.
const (
	StreamQuotes = "quotes"
	StreamTrades = "trades"
	StreamBars   = "bars"
)

// TimeSeriesStore keeps bounded per-key histories of quotes, trades and bars,
// plus one order book per instrument and the latest bid/ask bar per bar type.
//
// Not thread-safe.
type TimeSeriesStore struct {
	tickCapacity int
	barCapacity  int

	quotes  map[model.InstrumentID]*ring[model.QuoteTick]
	trades  map[model.InstrumentID]*ring[model.TradeTick]
	bars    map[model.BarType]*ring[model.Bar]
	books   map[model.InstrumentID]*model.OrderBook
	bidBars map[model.BarType]model.Bar
	askBars map[model.BarType]model.Bar

	onEvict func(stream string)
}

func NewTimeSeriesStore(tickCapacity, barCapacity int) *TimeSeriesStore {
	s := &TimeSeriesStore{
		tickCapacity: tickCapacity,
		barCapacity:  barCapacity,
	}
	s.Clear()
	return s
}

func (s *TimeSeriesStore) Clear() {
	s.quotes = make(map[model.InstrumentID]*ring[model.QuoteTick])
	s.trades = make(map[model.InstrumentID]*ring[model.TradeTick])
	s.bars = make(map[model.BarType]*ring[model.Bar])
	s.books = make(map[model.InstrumentID]*model.OrderBook)
	s.bidBars = make(map[model.BarType]model.Bar)
	s.askBars = make(map[model.BarType]model.Bar)
}

func (s *TimeSeriesStore) evicted(stream string) {
	if s.onEvict != nil {
		s.onEvict(stream)
	}
}

func checkInstrument(id model.InstrumentID) error {
	if id.IsZero() {
		return &model.ValidationError{Param: "instrument_id", Reason: "zero instrument id"}
	}
	return nil
}

// === Quotes ===

func (s *TimeSeriesStore) AddQuote(q model.QuoteTick) error {
	if err := checkInstrument(q.InstrumentID); err != nil {
		return err
	}
	r, ok := s.quotes[q.InstrumentID]
	if !ok {
		r = newRing[model.QuoteTick](s.tickCapacity)
		s.quotes[q.InstrumentID] = r
	}
	if r.push(q) {
		s.evicted(StreamQuotes)
	}
	return nil
}

func (s *TimeSeriesStore) Quote(id model.InstrumentID) (model.QuoteTick, bool) {
	if r, ok := s.quotes[id]; ok {
		return r.latest()
	}
	return model.QuoteTick{}, false
}

func (s *TimeSeriesStore) Quotes(id model.InstrumentID) []model.QuoteTick {
	if r, ok := s.quotes[id]; ok {
		return r.items()
	}
	return nil
}

func (s *TimeSeriesStore) QuoteCount(id model.InstrumentID) int {
	if r, ok := s.quotes[id]; ok {
		return r.count()
	}
	return 0
}

// === Trades ===

func (s *TimeSeriesStore) AddTrade(t model.TradeTick) error {
	if err := checkInstrument(t.InstrumentID); err != nil {
		return err
	}
	r, ok := s.trades[t.InstrumentID]
	if !ok {
		r = newRing[model.TradeTick](s.tickCapacity)
		s.trades[t.InstrumentID] = r
	}
	if r.push(t) {
		s.evicted(StreamTrades)
	}
	return nil
}

func (s *TimeSeriesStore) Trade(id model.InstrumentID) (model.TradeTick, bool) {
	if r, ok := s.trades[id]; ok {
		return r.latest()
	}
	return model.TradeTick{}, false
}

func (s *TimeSeriesStore) Trades(id model.InstrumentID) []model.TradeTick {
	if r, ok := s.trades[id]; ok {
		return r.items()
	}
	return nil
}

func (s *TimeSeriesStore) TradeCount(id model.InstrumentID) int {
	if r, ok := s.trades[id]; ok {
		return r.count()
	}
	return 0
}

// === Bars ===

// AddBar appends to the bar type's history. Bid and ask bars also replace
// the latest-bar slot for their side, keyed without the price type.
func (s *TimeSeriesStore) AddBar(b model.Bar) error {
	if err := checkInstrument(b.BarType.InstrumentID); err != nil {
		return err
	}
	r, ok := s.bars[b.BarType]
	if !ok {
		r = newRing[model.Bar](s.barCapacity)
		s.bars[b.BarType] = r
	}
	if r.push(b) {
		s.evicted(StreamBars)
	}

	slot := b.BarType.WithPriceType(model.PriceTypeUnspecified)
	switch b.BarType.PriceType {
	case model.PriceTypeBid:
		s.bidBars[slot] = b
	case model.PriceTypeAsk:
		s.askBars[slot] = b
	}
	return nil
}

func (s *TimeSeriesStore) Bar(bt model.BarType) (model.Bar, bool) {
	if r, ok := s.bars[bt]; ok {
		return r.latest()
	}
	return model.Bar{}, false
}

func (s *TimeSeriesStore) Bars(bt model.BarType) []model.Bar {
	if r, ok := s.bars[bt]; ok {
		return r.items()
	}
	return nil
}

func (s *TimeSeriesStore) BarCount(bt model.BarType) int {
	if r, ok := s.bars[bt]; ok {
		return r.count()
	}
	return 0
}

// LatestBidBar ignores bt's price type.
func (s *TimeSeriesStore) LatestBidBar(bt model.BarType) (model.Bar, bool) {
	b, ok := s.bidBars[bt.WithPriceType(model.PriceTypeUnspecified)]
	return b, ok
}

// LatestAskBar ignores bt's price type.
func (s *TimeSeriesStore) LatestAskBar(bt model.BarType) (model.Bar, bool) {
	b, ok := s.askBars[bt.WithPriceType(model.PriceTypeUnspecified)]
	return b, ok
}

// === Order books ===

// ApplyBookUpdate creates the instrument's book on first use. A rejected
// update leaves the store unchanged, including for unseen instruments.
func (s *TimeSeriesStore) ApplyBookUpdate(update model.BookUpdate) error {
	if model.IsNilBookUpdate(update) {
		return &model.ValidationError{Param: "book_update", Reason: "nil update"}
	}
	id := update.Instrument()
	if err := checkInstrument(id); err != nil {
		return err
	}
	if book, ok := s.books[id]; ok {
		return book.Apply(update)
	}
	book := model.NewOrderBook(id)
	if err := book.Apply(update); err != nil {
		return err
	}
	s.books[id] = book
	return nil
}

// Book returns a copy of the instrument's order book.
func (s *TimeSeriesStore) Book(id model.InstrumentID) (*model.OrderBook, bool) {
	book, ok := s.books[id]
	if !ok {
		return nil, false
	}
	return book.Clone(), true
}

func (s *TimeSeriesStore) BookCount() int { return len(s.books) }

package cache

import (
	"StateCache/internal/model"
)

func (c *Cache) added(stream string) {
	if c.metrics != nil {
		c.metrics.TimeSeriesAdds.WithLabelValues(stream).Inc()
	}
}

// AddQuote appends to the instrument's quote history, evicting the oldest
// quote at capacity.
func (c *Cache) AddQuote(q model.QuoteTick) error {
	if err := c.series.AddQuote(q); err != nil {
		return err
	}
	c.added(StreamQuotes)
	return nil
}

// AddQuotes appends in slice order.
func (c *Cache) AddQuotes(qs []model.QuoteTick) error {
	for _, q := range qs {
		if err := c.AddQuote(q); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Quote(id model.InstrumentID) (model.QuoteTick, bool) { return c.series.Quote(id) }

func (c *Cache) Quotes(id model.InstrumentID) []model.QuoteTick { return c.series.Quotes(id) }

func (c *Cache) QuoteCount(id model.InstrumentID) int { return c.series.QuoteCount(id) }

func (c *Cache) HasQuotes(id model.InstrumentID) bool { return c.series.QuoteCount(id) > 0 }

func (c *Cache) AddTrade(t model.TradeTick) error {
	if err := c.series.AddTrade(t); err != nil {
		return err
	}
	c.added(StreamTrades)
	return nil
}

func (c *Cache) AddTrades(ts []model.TradeTick) error {
	for _, t := range ts {
		if err := c.AddTrade(t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Trade(id model.InstrumentID) (model.TradeTick, bool) { return c.series.Trade(id) }

func (c *Cache) Trades(id model.InstrumentID) []model.TradeTick { return c.series.Trades(id) }

func (c *Cache) TradeCount(id model.InstrumentID) int { return c.series.TradeCount(id) }

func (c *Cache) HasTrades(id model.InstrumentID) bool { return c.series.TradeCount(id) > 0 }

func (c *Cache) AddBar(b model.Bar) error {
	if err := c.series.AddBar(b); err != nil {
		return err
	}
	c.added(StreamBars)
	return nil
}

func (c *Cache) AddBars(bs []model.Bar) error {
	for _, b := range bs {
		if err := c.AddBar(b); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) Bar(bt model.BarType) (model.Bar, bool) { return c.series.Bar(bt) }

func (c *Cache) Bars(bt model.BarType) []model.Bar { return c.series.Bars(bt) }

func (c *Cache) BarCount(bt model.BarType) int { return c.series.BarCount(bt) }

func (c *Cache) HasBars(bt model.BarType) bool { return c.series.BarCount(bt) > 0 }

func (c *Cache) LatestBidBar(bt model.BarType) (model.Bar, bool) { return c.series.LatestBidBar(bt) }

func (c *Cache) LatestAskBar(bt model.BarType) (model.Bar, bool) { return c.series.LatestAskBar(bt) }

// UpdateOrderBook applies a delta in place or replaces the book on a
// snapshot, creating the book on first use.
func (c *Cache) UpdateOrderBook(update model.BookUpdate) error {
	if err := c.series.ApplyBookUpdate(update); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.BookUpdates.Inc()
	}
	return nil
}

// OrderBook returns a copy of the instrument's book.
func (c *Cache) OrderBook(id model.InstrumentID) (*model.OrderBook, bool) { return c.series.Book(id) }

func (c *Cache) BookCount() int { return c.series.BookCount() }

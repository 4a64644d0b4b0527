package cache

import (
	"context"
	"fmt"

	"StateCache/internal/model"
)

// === Reference data ===

func (c *Cache) AddCurrency(ctx context.Context, currency model.Currency) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if err := c.refdata.AddCurrency(currency); err != nil {
		return err
	}
	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SaveCurrency(ctx, currency))
}

func (c *Cache) AddInstrument(ctx context.Context, instrument model.Instrument) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if err := c.refdata.AddInstrument(instrument); err != nil {
		return err
	}
	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SaveInstrument(ctx, instrument))
}

func (c *Cache) AddSynthetic(ctx context.Context, synthetic model.SyntheticInstrument) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if err := c.refdata.AddSynthetic(synthetic); err != nil {
		return err
	}
	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SaveSynthetic(ctx, synthetic))
}

func (c *Cache) saved(err error) error {
	if err != nil {
		c.backendError(StepSave)
		return persistErr(StepSave, err)
	}
	return nil
}

func (c *Cache) Currency(code string) (model.Currency, bool) { return c.refdata.Currency(code) }

func (c *Cache) CurrencyCodes() []string { return c.refdata.CurrencyCodes() }

func (c *Cache) Instrument(id model.InstrumentID) (model.Instrument, bool) {
	return c.refdata.Instrument(id)
}

// InstrumentIDs lists instruments, restricted to venue when non-empty.
func (c *Cache) InstrumentIDs(venue model.Venue) []model.InstrumentID {
	return c.refdata.InstrumentIDs(venue)
}

func (c *Cache) Synthetic(id model.InstrumentID) (model.SyntheticInstrument, bool) {
	return c.refdata.Synthetic(id)
}

// === Registration ===

func (c *Cache) LinkVenueAccount(venue model.Venue, accountID model.AccountID) error {
	return c.index.LinkVenueAccount(venue, accountID)
}

func (c *Cache) VenueAccount(venue model.Venue) (model.AccountID, bool) {
	return c.index.VenueAccount(venue)
}

func (c *Cache) RegisterStrategy(id model.StrategyID) error { return c.index.RegisterStrategy(id) }

func (c *Cache) RegisterActor(id model.ComponentID) error { return c.index.RegisterActor(id) }

func (c *Cache) RegisterExecAlgorithm(id model.ExecAlgorithmID) error {
	return c.index.RegisterExecAlgorithm(id)
}

func (c *Cache) Strategies() []model.StrategyID          { return c.index.Strategies() }
func (c *Cache) Actors() []model.ComponentID             { return c.index.Actors() }
func (c *Cache) ExecAlgorithms() []model.ExecAlgorithmID { return c.index.ExecAlgorithms() }

// === Orders ===

// AddOrder caches a new order, links it under positionID and clientID when
// given, and writes it to the backend.
func (c *Cache) AddOrder(ctx context.Context, order *model.Order, positionID model.PositionID, clientID model.ClientID) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if order == nil {
		return &model.ValidationError{Param: "order", Reason: "nil"}
	}
	if err := order.Validate(); err != nil {
		return err
	}
	if _, exists := c.orders[order.ClientOrderID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ClientOrderID)
	}

	stored := order.Clone()
	if positionID != "" && stored.PositionID == "" {
		stored.PositionID = positionID
	}
	if err := c.index.LinkOrder(orderLink(stored, clientID)); err != nil {
		return err
	}
	c.orders[stored.ClientOrderID] = stored
	if err := c.markOrder(stored); err != nil {
		return err
	}
	c.publishIndexSizes()

	c.logger.Debug().
		Str("order_id", string(stored.ClientOrderID)).
		Str("status", stored.Status.String()).
		Msg("added order")

	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SaveOrder(ctx, stored.Clone()))
}

// UpdateOrder replaces a cached order and moves it between partitions to
// match its status. New venue order ids, position ids and exec links are
// added; existing links are kept.
func (c *Cache) UpdateOrder(ctx context.Context, order *model.Order) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if order == nil {
		return &model.ValidationError{Param: "order", Reason: "nil"}
	}
	if err := order.Validate(); err != nil {
		return err
	}
	prev, exists := c.orders[order.ClientOrderID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, order.ClientOrderID)
	}

	stored := order.Clone()
	if stored.PositionID == "" {
		stored.PositionID = prev.PositionID
	}
	if err := c.index.LinkOrder(orderLink(stored, "")); err != nil {
		return err
	}
	c.orders[stored.ClientOrderID] = stored
	if err := c.markOrder(stored); err != nil {
		return err
	}
	c.publishIndexSizes()

	if prev.Status != stored.Status && !prev.Status.CanTransitionTo(stored.Status) {
		c.logger.Warn().
			Str("order_id", string(stored.ClientOrderID)).
			Str("from", prev.Status.String()).
			Str("to", stored.Status.String()).
			Msg("unexpected order status transition")
	}

	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SaveOrder(ctx, stored.Clone()))
}

// Order returns a copy of the cached order.
func (c *Cache) Order(id model.ClientOrderID) (*model.Order, bool) {
	o, ok := c.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

func (c *Cache) ordersFor(ids []model.ClientOrderID) []*model.Order {
	out := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := c.orders[id]; ok {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (c *Cache) OrderIDs(f Filter) []model.ClientOrderID { return c.index.OrderIDs(f) }

func (c *Cache) Orders(f Filter) []*model.Order { return c.ordersFor(c.index.OrderIDs(f)) }

func (c *Cache) OrdersOpen(f Filter) []*model.Order { return c.ordersFor(c.index.OrderIDsOpen(f)) }

func (c *Cache) OrdersClosed(f Filter) []*model.Order {
	return c.ordersFor(c.index.OrderIDsClosed(f))
}

func (c *Cache) OrdersEmulated(f Filter) []*model.Order {
	return c.ordersFor(c.index.OrderIDsEmulated(f))
}

func (c *Cache) OrdersInflight(f Filter) []*model.Order {
	return c.ordersFor(c.index.OrderIDsInflight(f))
}

func (c *Cache) OrdersPendingCancel(f Filter) []*model.Order {
	return c.ordersFor(c.index.OrderIDsPendingCancel(f))
}

func (c *Cache) OrdersOpenCount(f Filter) int   { return len(c.index.OrderIDsOpen(f)) }
func (c *Cache) OrdersClosedCount(f Filter) int { return len(c.index.OrderIDsClosed(f)) }
func (c *Cache) OrdersTotalCount(f Filter) int  { return len(c.index.OrderIDs(f)) }

func (c *Cache) OrderExists(id model.ClientOrderID) bool { return c.index.HasOrder(id) }
func (c *Cache) IsOrderOpen(id model.ClientOrderID) bool { return c.index.IsOrderOpen(id) }
func (c *Cache) IsOrderClosed(id model.ClientOrderID) bool {
	return c.index.IsOrderClosed(id)
}

func (c *Cache) ClientOrderIDForVenueOrderID(id model.VenueOrderID) (model.ClientOrderID, bool) {
	return c.index.ClientOrderIDForVenueOrderID(id)
}

func (c *Cache) VenueOrderIDForClientOrderID(id model.ClientOrderID) (model.VenueOrderID, bool) {
	return c.index.VenueOrderIDForClientOrderID(id)
}

func (c *Cache) PositionIDForOrder(id model.ClientOrderID) (model.PositionID, bool) {
	return c.index.PositionIDForOrder(id)
}

func (c *Cache) StrategyIDForOrder(id model.ClientOrderID) (model.StrategyID, bool) {
	return c.index.StrategyIDForOrder(id)
}

func (c *Cache) ClientIDForOrder(id model.ClientOrderID) (model.ClientID, bool) {
	return c.index.ClientIDForOrder(id)
}

func (c *Cache) ExecAlgorithmOrders(id model.ExecAlgorithmID) []*model.Order {
	return c.ordersFor(c.index.ExecAlgorithmOrders(id))
}

// ExecSpawnOrders returns the orders spawned from the primary order id.
func (c *Cache) ExecSpawnOrders(id model.ClientOrderID) []*model.Order {
	return c.ordersFor(c.index.ExecSpawnOrders(id))
}

// === Positions ===

func (c *Cache) AddPosition(ctx context.Context, position *model.Position) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if position == nil {
		return &model.ValidationError{Param: "position", Reason: "nil"}
	}
	if err := position.Validate(); err != nil {
		return err
	}
	if _, exists := c.positions[position.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, position.ID)
	}

	stored := position.Clone()
	if err := c.linkPosition(stored); err != nil {
		return err
	}
	c.positions[stored.ID] = stored
	c.publishIndexSizes()

	c.logger.Debug().
		Str("position_id", string(stored.ID)).
		Str("side", stored.Side.String()).
		Msg("added position")

	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SavePosition(ctx, stored.Clone()))
}

func (c *Cache) UpdatePosition(ctx context.Context, position *model.Position) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if position == nil {
		return &model.ValidationError{Param: "position", Reason: "nil"}
	}
	if err := position.Validate(); err != nil {
		return err
	}
	if _, exists := c.positions[position.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, position.ID)
	}

	stored := position.Clone()
	if err := c.linkPosition(stored); err != nil {
		return err
	}
	c.positions[stored.ID] = stored
	c.publishIndexSizes()

	if c.db == nil {
		return nil
	}
	return c.saved(c.db.SavePosition(ctx, stored.Clone()))
}

// Position returns a copy of the cached position.
func (c *Cache) Position(id model.PositionID) (*model.Position, bool) {
	p, ok := c.positions[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// PositionForOrder returns the position the order is linked to, if cached.
func (c *Cache) PositionForOrder(id model.ClientOrderID) (*model.Position, bool) {
	pid, ok := c.index.PositionIDForOrder(id)
	if !ok {
		return nil, false
	}
	return c.Position(pid)
}

func (c *Cache) positionsFor(ids []model.PositionID) []*model.Position {
	out := make([]*model.Position, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.positions[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (c *Cache) PositionIDs(f Filter) []model.PositionID { return c.index.PositionIDs(f) }

func (c *Cache) Positions(f Filter) []*model.Position {
	return c.positionsFor(c.index.PositionIDs(f))
}

func (c *Cache) PositionsOpen(f Filter) []*model.Position {
	return c.positionsFor(c.index.PositionIDsOpen(f))
}

func (c *Cache) PositionsClosed(f Filter) []*model.Position {
	return c.positionsFor(c.index.PositionIDsClosed(f))
}

func (c *Cache) PositionsOpenCount(f Filter) int   { return len(c.index.PositionIDsOpen(f)) }
func (c *Cache) PositionsClosedCount(f Filter) int { return len(c.index.PositionIDsClosed(f)) }
func (c *Cache) PositionsTotalCount(f Filter) int  { return len(c.index.PositionIDs(f)) }

func (c *Cache) PositionExists(id model.PositionID) bool { return c.index.HasPosition(id) }

func (c *Cache) OrderIDsForPosition(id model.PositionID) []model.ClientOrderID {
	return c.index.OrderIDsForPosition(id)
}

func (c *Cache) StrategyIDForPosition(id model.PositionID) (model.StrategyID, bool) {
	return c.index.StrategyIDForPosition(id)
}

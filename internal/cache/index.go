package cache

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"StateCache/internal/model"
)

type set[T comparable] map[T]struct{}

func (s set[T]) has(v T) bool {
	_, ok := s[v]
	return ok
}

func addTo[K, V comparable](m map[K]set[V], key K, v V) {
	s, ok := m[key]
	if !ok {
		s = make(set[V])
		m[key] = s
	}
	s[v] = struct{}{}
}

func sortedKeys[T cmp.Ordered](s set[T]) []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Filter narrows index queries. Zero-valued fields do not filter.
type Filter struct {
	Venue        model.Venue
	InstrumentID model.InstrumentID
	StrategyID   model.StrategyID
}

// OrderLink describes one order's relationships. PositionID, ClientID,
// ExecAlgorithmID, ExecSpawnID and VenueOrderID are optional.
type OrderLink struct {
	OrderID         model.ClientOrderID
	StrategyID      model.StrategyID
	InstrumentID    model.InstrumentID
	ClientID        model.ClientID
	PositionID      model.PositionID
	ExecAlgorithmID model.ExecAlgorithmID
	ExecSpawnID     model.ClientOrderID
	VenueOrderID    model.VenueOrderID
}

func (l OrderLink) validate() error {
	if err := model.CheckValidString(string(l.OrderID), "order_id"); err != nil {
		return err
	}
	if err := model.CheckValidString(string(l.StrategyID), "strategy_id"); err != nil {
		return err
	}
	if l.InstrumentID.IsZero() {
		return &model.ValidationError{Param: "instrument_id", Reason: "zero instrument id"}
	}
	optional := []struct {
		value string
		param string
	}{
		{string(l.ClientID), "client_id"},
		{string(l.PositionID), "position_id"},
		{string(l.ExecAlgorithmID), "exec_algorithm_id"},
		{string(l.ExecSpawnID), "exec_spawn_id"},
		{string(l.VenueOrderID), "venue_order_id"},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		if err := model.CheckValidString(o.value, o.param); err != nil {
			return err
		}
	}
	return nil
}

// RelationalIndex links venues, accounts, orders, positions, strategies,
// execution algorithms and instruments. Links are additive; only Clear
// removes them.
//
// Every order seen by LinkOrder joins the orders umbrella set and starts in
// the open partition. Open and closed partition the umbrella exhaustively;
// the emulated, inflight and pending-cancel sets are orthogonal tags.
// Order-to-position links may name a position that has not been linked yet.
//
// Not thread-safe.
type RelationalIndex struct {
	venueAccount        map[model.Venue]model.AccountID
	venueOrders         map[model.Venue]set[model.ClientOrderID]
	venuePositions      map[model.Venue]set[model.PositionID]
	venueOrderIDs       map[model.VenueOrderID]model.ClientOrderID
	clientOrderIDs      map[model.ClientOrderID]model.VenueOrderID
	orderPosition       map[model.ClientOrderID]model.PositionID
	orderStrategy       map[model.ClientOrderID]model.StrategyID
	orderClient         map[model.ClientOrderID]model.ClientID
	orderInstrument     map[model.ClientOrderID]model.InstrumentID
	positionStrategy    map[model.PositionID]model.StrategyID
	positionInstrument  map[model.PositionID]model.InstrumentID
	positionOrders      map[model.PositionID]set[model.ClientOrderID]
	instrumentOrders    map[model.InstrumentID]set[model.ClientOrderID]
	instrumentPositions map[model.InstrumentID]set[model.PositionID]
	strategyOrders      map[model.StrategyID]set[model.ClientOrderID]
	strategyPositions   map[model.StrategyID]set[model.PositionID]
	execAlgorithmOrders map[model.ExecAlgorithmID]set[model.ClientOrderID]
	execSpawnOrders     map[model.ClientOrderID]set[model.ClientOrderID]

	orders              set[model.ClientOrderID]
	ordersOpen          set[model.ClientOrderID]
	ordersClosed        set[model.ClientOrderID]
	ordersEmulated      set[model.ClientOrderID]
	ordersInflight      set[model.ClientOrderID]
	ordersPendingCancel set[model.ClientOrderID]
	positions           set[model.PositionID]
	positionsOpen       set[model.PositionID]
	positionsClosed     set[model.PositionID]

	actors         set[model.ComponentID]
	strategies     set[model.StrategyID]
	execAlgorithms set[model.ExecAlgorithmID]
}

func NewRelationalIndex() *RelationalIndex {
	ix := &RelationalIndex{}
	ix.Clear()
	return ix
}

// Clear empties every map and set.
func (ix *RelationalIndex) Clear() {
	ix.venueAccount = make(map[model.Venue]model.AccountID)
	ix.venueOrders = make(map[model.Venue]set[model.ClientOrderID])
	ix.venuePositions = make(map[model.Venue]set[model.PositionID])
	ix.venueOrderIDs = make(map[model.VenueOrderID]model.ClientOrderID)
	ix.clientOrderIDs = make(map[model.ClientOrderID]model.VenueOrderID)
	ix.orderPosition = make(map[model.ClientOrderID]model.PositionID)
	ix.orderStrategy = make(map[model.ClientOrderID]model.StrategyID)
	ix.orderClient = make(map[model.ClientOrderID]model.ClientID)
	ix.orderInstrument = make(map[model.ClientOrderID]model.InstrumentID)
	ix.positionStrategy = make(map[model.PositionID]model.StrategyID)
	ix.positionInstrument = make(map[model.PositionID]model.InstrumentID)
	ix.positionOrders = make(map[model.PositionID]set[model.ClientOrderID])
	ix.instrumentOrders = make(map[model.InstrumentID]set[model.ClientOrderID])
	ix.instrumentPositions = make(map[model.InstrumentID]set[model.PositionID])
	ix.strategyOrders = make(map[model.StrategyID]set[model.ClientOrderID])
	ix.strategyPositions = make(map[model.StrategyID]set[model.PositionID])
	ix.execAlgorithmOrders = make(map[model.ExecAlgorithmID]set[model.ClientOrderID])
	ix.execSpawnOrders = make(map[model.ClientOrderID]set[model.ClientOrderID])

	ix.orders = make(set[model.ClientOrderID])
	ix.ordersOpen = make(set[model.ClientOrderID])
	ix.ordersClosed = make(set[model.ClientOrderID])
	ix.ordersEmulated = make(set[model.ClientOrderID])
	ix.ordersInflight = make(set[model.ClientOrderID])
	ix.ordersPendingCancel = make(set[model.ClientOrderID])
	ix.positions = make(set[model.PositionID])
	ix.positionsOpen = make(set[model.PositionID])
	ix.positionsClosed = make(set[model.PositionID])

	ix.actors = make(set[model.ComponentID])
	ix.strategies = make(set[model.StrategyID])
	ix.execAlgorithms = make(set[model.ExecAlgorithmID])
}

// LinkOrder registers an order and its relationships. The strategy, client
// and position of an order are fixed by the first link that sets them.
func (ix *RelationalIndex) LinkOrder(l OrderLink) error {
	if err := l.validate(); err != nil {
		return err
	}

	if !ix.orders.has(l.OrderID) {
		ix.orders[l.OrderID] = struct{}{}
		ix.ordersOpen[l.OrderID] = struct{}{}
	}

	if _, ok := ix.orderStrategy[l.OrderID]; !ok {
		ix.orderStrategy[l.OrderID] = l.StrategyID
	}
	if _, ok := ix.orderInstrument[l.OrderID]; !ok {
		ix.orderInstrument[l.OrderID] = l.InstrumentID
	}
	ix.strategies[l.StrategyID] = struct{}{}
	addTo(ix.strategyOrders, l.StrategyID, l.OrderID)
	addTo(ix.instrumentOrders, l.InstrumentID, l.OrderID)
	addTo(ix.venueOrders, l.InstrumentID.Venue, l.OrderID)

	if l.ClientID != "" {
		if _, ok := ix.orderClient[l.OrderID]; !ok {
			ix.orderClient[l.OrderID] = l.ClientID
		}
	}
	if l.PositionID != "" {
		ix.linkOrderPosition(l.OrderID, l.PositionID)
	}
	if l.ExecAlgorithmID != "" {
		ix.execAlgorithms[l.ExecAlgorithmID] = struct{}{}
		addTo(ix.execAlgorithmOrders, l.ExecAlgorithmID, l.OrderID)
	}
	if l.ExecSpawnID != "" {
		addTo(ix.execSpawnOrders, l.ExecSpawnID, l.OrderID)
	}
	if l.VenueOrderID != "" {
		ix.venueOrderIDs[l.VenueOrderID] = l.OrderID
		ix.clientOrderIDs[l.OrderID] = l.VenueOrderID
	}
	return nil
}

// LinkOrderPosition attaches a registered order to a position.
func (ix *RelationalIndex) LinkOrderPosition(orderID model.ClientOrderID, positionID model.PositionID) error {
	if err := ix.checkOrder(orderID); err != nil {
		return err
	}
	if err := model.CheckValidString(string(positionID), "position_id"); err != nil {
		return err
	}
	ix.linkOrderPosition(orderID, positionID)
	return nil
}

func (ix *RelationalIndex) linkOrderPosition(orderID model.ClientOrderID, positionID model.PositionID) {
	if _, ok := ix.orderPosition[orderID]; !ok {
		ix.orderPosition[orderID] = positionID
	}
	addTo(ix.positionOrders, positionID, orderID)
}

// LinkVenueOrderID maps a venue-assigned id to a registered order.
func (ix *RelationalIndex) LinkVenueOrderID(orderID model.ClientOrderID, venueOrderID model.VenueOrderID) error {
	if err := ix.checkOrder(orderID); err != nil {
		return err
	}
	if err := model.CheckValidString(string(venueOrderID), "venue_order_id"); err != nil {
		return err
	}
	ix.venueOrderIDs[venueOrderID] = orderID
	ix.clientOrderIDs[orderID] = venueOrderID
	return nil
}

// LinkPosition registers a position; new positions start open.
func (ix *RelationalIndex) LinkPosition(positionID model.PositionID, strategyID model.StrategyID, instrumentID model.InstrumentID) error {
	if err := model.CheckValidString(string(positionID), "position_id"); err != nil {
		return err
	}
	if err := model.CheckValidString(string(strategyID), "strategy_id"); err != nil {
		return err
	}
	if instrumentID.IsZero() {
		return &model.ValidationError{Param: "instrument_id", Reason: "zero instrument id"}
	}

	if !ix.positions.has(positionID) {
		ix.positions[positionID] = struct{}{}
		ix.positionsOpen[positionID] = struct{}{}
	}
	if _, ok := ix.positionStrategy[positionID]; !ok {
		ix.positionStrategy[positionID] = strategyID
	}
	if _, ok := ix.positionInstrument[positionID]; !ok {
		ix.positionInstrument[positionID] = instrumentID
	}
	ix.strategies[strategyID] = struct{}{}
	addTo(ix.strategyPositions, strategyID, positionID)
	addTo(ix.instrumentPositions, instrumentID, positionID)
	addTo(ix.venuePositions, instrumentID.Venue, positionID)
	return nil
}

// LinkVenueAccount sets the venue's current account; last write wins.
func (ix *RelationalIndex) LinkVenueAccount(venue model.Venue, accountID model.AccountID) error {
	if err := model.CheckValidString(string(venue), "venue"); err != nil {
		return err
	}
	if err := model.CheckValidString(string(accountID), "account_id"); err != nil {
		return err
	}
	ix.venueAccount[venue] = accountID
	return nil
}

func (ix *RelationalIndex) RegisterActor(id model.ComponentID) error {
	if err := model.CheckValidString(string(id), "component_id"); err != nil {
		return err
	}
	ix.actors[id] = struct{}{}
	return nil
}

func (ix *RelationalIndex) RegisterStrategy(id model.StrategyID) error {
	if err := model.CheckValidString(string(id), "strategy_id"); err != nil {
		return err
	}
	ix.strategies[id] = struct{}{}
	return nil
}

func (ix *RelationalIndex) RegisterExecAlgorithm(id model.ExecAlgorithmID) error {
	if err := model.CheckValidString(string(id), "exec_algorithm_id"); err != nil {
		return err
	}
	ix.execAlgorithms[id] = struct{}{}
	return nil
}

// === Partition transitions ===

func (ix *RelationalIndex) checkOrder(id model.ClientOrderID) error {
	if err := model.CheckValidString(string(id), "order_id"); err != nil {
		return err
	}
	if !ix.orders.has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, id)
	}
	return nil
}

func (ix *RelationalIndex) checkPosition(id model.PositionID) error {
	if err := model.CheckValidString(string(id), "position_id"); err != nil {
		return err
	}
	if !ix.positions.has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, id)
	}
	return nil
}

func toggle[T comparable](s set[T], v T, on bool) {
	if on {
		s[v] = struct{}{}
	} else {
		delete(s, v)
	}
}

func (ix *RelationalIndex) MarkOrderOpen(id model.ClientOrderID) error {
	if err := ix.checkOrder(id); err != nil {
		return err
	}
	delete(ix.ordersClosed, id)
	ix.ordersOpen[id] = struct{}{}
	return nil
}

func (ix *RelationalIndex) MarkOrderClosed(id model.ClientOrderID) error {
	if err := ix.checkOrder(id); err != nil {
		return err
	}
	delete(ix.ordersOpen, id)
	ix.ordersClosed[id] = struct{}{}
	return nil
}

func (ix *RelationalIndex) MarkOrderEmulated(id model.ClientOrderID, emulated bool) error {
	if err := ix.checkOrder(id); err != nil {
		return err
	}
	toggle(ix.ordersEmulated, id, emulated)
	return nil
}

func (ix *RelationalIndex) MarkOrderInflight(id model.ClientOrderID, inflight bool) error {
	if err := ix.checkOrder(id); err != nil {
		return err
	}
	toggle(ix.ordersInflight, id, inflight)
	return nil
}

func (ix *RelationalIndex) MarkOrderPendingCancel(id model.ClientOrderID, pending bool) error {
	if err := ix.checkOrder(id); err != nil {
		return err
	}
	toggle(ix.ordersPendingCancel, id, pending)
	return nil
}

func (ix *RelationalIndex) MarkPositionOpen(id model.PositionID) error {
	if err := ix.checkPosition(id); err != nil {
		return err
	}
	delete(ix.positionsClosed, id)
	ix.positionsOpen[id] = struct{}{}
	return nil
}

func (ix *RelationalIndex) MarkPositionClosed(id model.PositionID) error {
	if err := ix.checkPosition(id); err != nil {
		return err
	}
	delete(ix.positionsOpen, id)
	ix.positionsClosed[id] = struct{}{}
	return nil
}

// === Lookups ===

func (ix *RelationalIndex) VenueAccount(venue model.Venue) (model.AccountID, bool) {
	id, ok := ix.venueAccount[venue]
	return id, ok
}

func (ix *RelationalIndex) ClientOrderIDForVenueOrderID(id model.VenueOrderID) (model.ClientOrderID, bool) {
	v, ok := ix.venueOrderIDs[id]
	return v, ok
}

func (ix *RelationalIndex) VenueOrderIDForClientOrderID(id model.ClientOrderID) (model.VenueOrderID, bool) {
	v, ok := ix.clientOrderIDs[id]
	return v, ok
}

func (ix *RelationalIndex) PositionIDForOrder(id model.ClientOrderID) (model.PositionID, bool) {
	v, ok := ix.orderPosition[id]
	return v, ok
}

func (ix *RelationalIndex) StrategyIDForOrder(id model.ClientOrderID) (model.StrategyID, bool) {
	v, ok := ix.orderStrategy[id]
	return v, ok
}

func (ix *RelationalIndex) ClientIDForOrder(id model.ClientOrderID) (model.ClientID, bool) {
	v, ok := ix.orderClient[id]
	return v, ok
}

func (ix *RelationalIndex) InstrumentIDForOrder(id model.ClientOrderID) (model.InstrumentID, bool) {
	v, ok := ix.orderInstrument[id]
	return v, ok
}

func (ix *RelationalIndex) StrategyIDForPosition(id model.PositionID) (model.StrategyID, bool) {
	v, ok := ix.positionStrategy[id]
	return v, ok
}

func (ix *RelationalIndex) OrderIDsForPosition(id model.PositionID) []model.ClientOrderID {
	return sortedKeys(ix.positionOrders[id])
}

func (ix *RelationalIndex) ExecAlgorithmOrders(id model.ExecAlgorithmID) []model.ClientOrderID {
	return sortedKeys(ix.execAlgorithmOrders[id])
}

func (ix *RelationalIndex) ExecSpawnOrders(id model.ClientOrderID) []model.ClientOrderID {
	return sortedKeys(ix.execSpawnOrders[id])
}

func (ix *RelationalIndex) Actors() []model.ComponentID    { return sortedKeys(ix.actors) }
func (ix *RelationalIndex) Strategies() []model.StrategyID { return sortedKeys(ix.strategies) }
func (ix *RelationalIndex) ExecAlgorithms() []model.ExecAlgorithmID {
	return sortedKeys(ix.execAlgorithms)
}

func (ix *RelationalIndex) HasOrder(id model.ClientOrderID) bool      { return ix.orders.has(id) }
func (ix *RelationalIndex) HasPosition(id model.PositionID) bool      { return ix.positions.has(id) }
func (ix *RelationalIndex) IsOrderOpen(id model.ClientOrderID) bool   { return ix.ordersOpen.has(id) }
func (ix *RelationalIndex) IsOrderClosed(id model.ClientOrderID) bool { return ix.ordersClosed.has(id) }
func (ix *RelationalIndex) IsOrderEmulated(id model.ClientOrderID) bool {
	return ix.ordersEmulated.has(id)
}
func (ix *RelationalIndex) IsOrderInflight(id model.ClientOrderID) bool {
	return ix.ordersInflight.has(id)
}
func (ix *RelationalIndex) IsOrderPendingCancel(id model.ClientOrderID) bool {
	return ix.ordersPendingCancel.has(id)
}
func (ix *RelationalIndex) IsPositionOpen(id model.PositionID) bool { return ix.positionsOpen.has(id) }
func (ix *RelationalIndex) IsPositionClosed(id model.PositionID) bool {
	return ix.positionsClosed.has(id)
}

// === Filtered queries ===

func (ix *RelationalIndex) orderFilters(f Filter) []set[model.ClientOrderID] {
	var filters []set[model.ClientOrderID]
	if f.Venue != "" {
		filters = append(filters, ix.venueOrders[f.Venue])
	}
	if !f.InstrumentID.IsZero() {
		filters = append(filters, ix.instrumentOrders[f.InstrumentID])
	}
	if f.StrategyID != "" {
		filters = append(filters, ix.strategyOrders[f.StrategyID])
	}
	return filters
}

func (ix *RelationalIndex) positionFilters(f Filter) []set[model.PositionID] {
	var filters []set[model.PositionID]
	if f.Venue != "" {
		filters = append(filters, ix.venuePositions[f.Venue])
	}
	if !f.InstrumentID.IsZero() {
		filters = append(filters, ix.instrumentPositions[f.InstrumentID])
	}
	if f.StrategyID != "" {
		filters = append(filters, ix.strategyPositions[f.StrategyID])
	}
	return filters
}

// intersect returns the members of base present in every filter, sorted.
func intersect[T cmp.Ordered](base set[T], filters []set[T]) []T {
	out := make([]T, 0, len(base))
outer:
	for v := range base {
		for _, f := range filters {
			if !f.has(v) {
				continue outer
			}
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (ix *RelationalIndex) OrderIDs(f Filter) []model.ClientOrderID {
	return intersect(ix.orders, ix.orderFilters(f))
}

func (ix *RelationalIndex) OrderIDsOpen(f Filter) []model.ClientOrderID {
	return intersect(ix.ordersOpen, ix.orderFilters(f))
}

func (ix *RelationalIndex) OrderIDsClosed(f Filter) []model.ClientOrderID {
	return intersect(ix.ordersClosed, ix.orderFilters(f))
}

func (ix *RelationalIndex) OrderIDsEmulated(f Filter) []model.ClientOrderID {
	return intersect(ix.ordersEmulated, ix.orderFilters(f))
}

func (ix *RelationalIndex) OrderIDsInflight(f Filter) []model.ClientOrderID {
	return intersect(ix.ordersInflight, ix.orderFilters(f))
}

func (ix *RelationalIndex) OrderIDsPendingCancel(f Filter) []model.ClientOrderID {
	return intersect(ix.ordersPendingCancel, ix.orderFilters(f))
}

func (ix *RelationalIndex) PositionIDs(f Filter) []model.PositionID {
	return intersect(ix.positions, ix.positionFilters(f))
}

func (ix *RelationalIndex) PositionIDsOpen(f Filter) []model.PositionID {
	return intersect(ix.positionsOpen, ix.positionFilters(f))
}

func (ix *RelationalIndex) PositionIDsClosed(f Filter) []model.PositionID {
	return intersect(ix.positionsClosed, ix.positionFilters(f))
}

// IndexSizes reports the partition set sizes, keyed by set name.
func (ix *RelationalIndex) IndexSizes() map[string]int {
	return map[string]int{
		"orders":                len(ix.orders),
		"orders_open":           len(ix.ordersOpen),
		"orders_closed":         len(ix.ordersClosed),
		"orders_emulated":       len(ix.ordersEmulated),
		"orders_inflight":       len(ix.ordersInflight),
		"orders_pending_cancel": len(ix.ordersPendingCancel),
		"positions":             len(ix.positions),
		"positions_open":        len(ix.positionsOpen),
		"positions_closed":      len(ix.positionsClosed),
	}
}

// === Integrity ===

// CheckIntegrity verifies umbrella membership of every indexed order and
// position and that open/closed partition each umbrella set. All violations
// are returned joined.
func (ix *RelationalIndex) CheckIntegrity() error {
	var errs []error

	orderSubsets := map[string]set[model.ClientOrderID]{
		"orders_open":           ix.ordersOpen,
		"orders_closed":         ix.ordersClosed,
		"orders_emulated":       ix.ordersEmulated,
		"orders_inflight":       ix.ordersInflight,
		"orders_pending_cancel": ix.ordersPendingCancel,
	}
	for _, name := range sortedMapKeys(orderSubsets) {
		for _, id := range sortedKeys(orderSubsets[name]) {
			if !ix.orders.has(id) {
				errs = append(errs, fmt.Errorf("%s contains %s missing from orders", name, id))
			}
		}
	}

	orderKeyed := map[string][]model.ClientOrderID{
		"order_strategy":    mapKeys(ix.orderStrategy),
		"order_client":      mapKeys(ix.orderClient),
		"order_position":    mapKeys(ix.orderPosition),
		"order_instrument":  mapKeys(ix.orderInstrument),
		"client_order_ids":  mapKeys(ix.clientOrderIDs),
		"exec_spawn_orders": flatten(ix.execSpawnOrders),
		"venue_orders":      flatten(ix.venueOrders),
		"position_orders":   flatten(ix.positionOrders),
		"instrument_orders": flatten(ix.instrumentOrders),
		"strategy_orders":   flatten(ix.strategyOrders),
		"exec_algo_orders":  flatten(ix.execAlgorithmOrders),
	}
	for _, name := range sortedMapKeys(orderKeyed) {
		for _, id := range orderKeyed[name] {
			if !ix.orders.has(id) {
				errs = append(errs, fmt.Errorf("%s references %s missing from orders", name, id))
			}
		}
	}

	positionKeyed := map[string][]model.PositionID{
		"positions_open":       sortedKeys(ix.positionsOpen),
		"positions_closed":     sortedKeys(ix.positionsClosed),
		"position_strategy":    mapKeys(ix.positionStrategy),
		"position_instrument":  mapKeys(ix.positionInstrument),
		"venue_positions":      flatten(ix.venuePositions),
		"instrument_positions": flatten(ix.instrumentPositions),
		"strategy_positions":   flatten(ix.strategyPositions),
	}
	for _, name := range sortedMapKeys(positionKeyed) {
		for _, id := range positionKeyed[name] {
			if !ix.positions.has(id) {
				errs = append(errs, fmt.Errorf("%s references %s missing from positions", name, id))
			}
		}
	}

	for _, id := range sortedKeys(ix.orders) {
		open, closed := ix.ordersOpen.has(id), ix.ordersClosed.has(id)
		if open == closed {
			errs = append(errs, fmt.Errorf("order %s open=%t closed=%t", id, open, closed))
		}
	}
	for _, id := range sortedKeys(ix.positions) {
		open, closed := ix.positionsOpen.has(id), ix.positionsClosed.has(id)
		if open == closed {
			errs = append(errs, fmt.Errorf("position %s open=%t closed=%t", id, open, closed))
		}
	}

	return errors.Join(errs...)
}

func mapKeys[K cmp.Ordered, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedMapKeys[V any](m map[string]V) []string {
	return mapKeys(m)
}

func flatten[K comparable, V cmp.Ordered](m map[K]set[V]) []V {
	all := make(set[V])
	for _, s := range m {
		for v := range s {
			all[v] = struct{}{}
		}
	}
	return sortedKeys(all)
}

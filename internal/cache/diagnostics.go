package cache

import (
	"errors"
	"fmt"

	"StateCache/internal/model"
)

// Residuals lists orders and positions still open.
type Residuals struct {
	OpenOrders    []model.ClientOrderID
	OpenPositions []model.PositionID
}

func (r Residuals) Empty() bool {
	return len(r.OpenOrders) == 0 && len(r.OpenPositions) == 0
}

// CheckResiduals reports open orders and positions, logging a warning for
// each. It is a pre-shutdown diagnostic and never fails.
func (c *Cache) CheckResiduals() Residuals {
	r := Residuals{
		OpenOrders:    c.index.OrderIDsOpen(Filter{}),
		OpenPositions: c.index.PositionIDsOpen(Filter{}),
	}

	for _, id := range r.OpenOrders {
		c.logger.Warn().Str("order_id", string(id)).Msg("residual open order")
	}
	for _, id := range r.OpenPositions {
		c.logger.Warn().Str("position_id", string(id)).Msg("residual open position")
	}

	if c.metrics != nil {
		c.metrics.ResidualsFound.WithLabelValues("orders").Set(float64(len(r.OpenOrders)))
		c.metrics.ResidualsFound.WithLabelValues("positions").Set(float64(len(r.OpenPositions)))
	}
	return r
}

// CheckIntegrity verifies the relational index and that every indexed order
// and position is cached. All violations are returned joined.
func (c *Cache) CheckIntegrity() error {
	errs := []error{c.index.CheckIntegrity()}
	for _, id := range c.index.OrderIDs(Filter{}) {
		if _, ok := c.orders[id]; !ok {
			errs = append(errs, fmt.Errorf("indexed order %s not cached", id))
		}
	}
	for _, id := range c.index.PositionIDs(Filter{}) {
		if _, ok := c.positions[id]; !ok {
			errs = append(errs, fmt.Errorf("indexed position %s not cached", id))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error().Err(err).Msg("integrity check failed")
	}
	return err
}

package reconcile

import "main/internal/schema"

// Static replays fixed positions and orders during the warm-up gate.
// Used for backtests seeded from a known state and in tests.
type Static struct {
	Positions []schema.Position
	Orders    []schema.Order
}

func (s Static) ReconcilePositions() ([]schema.Position, error) {
	return s.Positions, nil
}

func (s Static) ReconcileOrders() ([]schema.Order, error) {
	return s.Orders, nil
}

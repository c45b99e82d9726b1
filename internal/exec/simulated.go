package exec

import (
	"main/internal/bus"
	"main/internal/clock"
	"main/internal/schema"
)

// Engine is the execution layer bound to an order-routing bus. The
// simulated engine is the only implementation; a live broker adapter
// would satisfy the same shape.
type Engine interface {
	Close()
}

// Simulated acknowledges then fills every order at its limit price. The
// two-step report sequence mirrors a real broker handshake and is what
// advances the order lifecycle New → Accepted → Filled. Timestamps come
// from the injected clock, so fills carry simulated time in backtests.
type Simulated struct {
	bus   *bus.Bus
	clock clock.TimeProvider
	sub   bus.SubscriptionID
}

// NewSimulated subscribes a simulated execution engine to order events
// on the given bus.
func NewSimulated(b *bus.Bus, tp clock.TimeProvider) *Simulated {
	e := &Simulated{bus: b, clock: tp}
	e.sub = bus.Subscribe(b, e.onOrder)
	return e
}

// Close returns the engine's subscription to the bus.
func (e *Simulated) Close() { e.bus.Unsubscribe(e.sub) }

func (e *Simulated) onOrder(ev schema.OrderEvent) {
	meta := schema.EventMeta{
		Timestamp:  clock.FromMillis(e.clock.NowMillis()),
		SequenceID: ev.SequenceID,
	}

	e.bus.Publish(schema.ExecutionReportEvent{
		EventMeta: meta,
		OrderID:   ev.Order.ID,
		Status:    schema.ExecutionAccepted,
	})
	e.bus.Publish(schema.ExecutionReportEvent{
		EventMeta:      meta,
		OrderID:        ev.Order.ID,
		Status:         schema.ExecutionFilled,
		FilledQuantity: ev.Order.Quantity,
		FillPrice:      ev.Order.Price,
	})
}

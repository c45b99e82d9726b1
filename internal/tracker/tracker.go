package tracker

import (
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

// Tracker holds the authoritative copy of every active order and
// advances its lifecycle from execution reports. All handlers run on the
// owning loop's goroutine, so the order map needs no lock.
type Tracker struct {
	bus    *bus.Bus
	active map[uint64]schema.Order

	orderSub bus.SubscriptionID
	execSub  bus.SubscriptionID
}

// New subscribes a tracker to order and execution-report events on the
// given bus, in that order.
func New(b *bus.Bus) *Tracker {
	t := &Tracker{bus: b, active: make(map[uint64]schema.Order)}
	t.orderSub = bus.Subscribe(b, t.onOrder)
	t.execSub = bus.Subscribe(b, t.onExecutionReport)
	return t
}

// Close returns the tracker's subscriptions to the bus.
func (t *Tracker) Close() {
	t.bus.Unsubscribe(t.execSub)
	t.bus.Unsubscribe(t.orderSub)
}

// Hydrate installs a pre-existing order, accepting the exchange's status
// as authoritative, without publishing an update. Only legal during the
// warm-up gate, before the owning loop starts.
func (t *Tracker) Hydrate(o schema.Order) {
	t.active[o.ID] = o
}

// Active returns a copy of the active order with the given id.
func (t *Tracker) Active(id uint64) (schema.Order, bool) {
	o, ok := t.active[id]
	return o, ok
}

// ActiveCount reports the number of non-terminal orders held.
func (t *Tracker) ActiveCount() int { return len(t.active) }

func (t *Tracker) onOrder(e schema.OrderEvent) {
	o := e.Order
	o.Status = schema.OrderStatusNew
	o.FilledQuantity = 0
	t.active[o.ID] = o

	t.bus.Publish(schema.OrderUpdateEvent{
		EventMeta:      e.EventMeta,
		Order:          o,
		PreviousStatus: schema.OrderStatusNew,
	})
}

func (t *Tracker) onExecutionReport(e schema.ExecutionReportEvent) {
	o, ok := t.active[e.OrderID]
	if !ok {
		logs.Warnf("execution report for unknown order id %d, dropped", e.OrderID)
		return
	}

	proposed, ok := statusFromExecution(e.Status)
	if !ok {
		logs.Warnf("execution report with unknown status %d for order id %d, dropped", e.Status, e.OrderID)
		return
	}

	previous := o.Status
	if !legalTransition(previous, proposed) {
		logs.Warnf("illegal order transition %s -> %s for order id %d, dropped", previous, proposed, e.OrderID)
		return
	}

	o.Status = proposed
	if proposed == schema.OrderStatusFilled {
		o.FilledQuantity = e.FilledQuantity
	}
	t.active[e.OrderID] = o

	t.bus.Publish(schema.OrderUpdateEvent{
		EventMeta:      e.EventMeta,
		Order:          o,
		PreviousStatus: previous,
	})

	if proposed.Terminal() {
		delete(t.active, e.OrderID)
	}
}

// statusFromExecution maps the wire-level execution outcome onto the
// order lifecycle status it proposes.
func statusFromExecution(s schema.ExecutionStatus) (schema.OrderStatus, bool) {
	switch s {
	case schema.ExecutionAccepted:
		return schema.OrderStatusAccepted, true
	case schema.ExecutionFilled:
		return schema.OrderStatusFilled, true
	case schema.ExecutionRejected:
		return schema.OrderStatusRejected, true
	default:
		return schema.OrderStatusNew, false
	}
}

// legalTransition encodes the lifecycle graph. Terminal states have no
// outgoing edges.
func legalTransition(from, to schema.OrderStatus) bool {
	switch from {
	case schema.OrderStatusNew:
		return to == schema.OrderStatusPendingNew ||
			to == schema.OrderStatusAccepted ||
			to == schema.OrderStatusRejected
	case schema.OrderStatusPendingNew:
		return to == schema.OrderStatusAccepted ||
			to == schema.OrderStatusRejected
	case schema.OrderStatusAccepted:
		return to == schema.OrderStatusPartiallyFilled ||
			to == schema.OrderStatusFilled ||
			to == schema.OrderStatusCanceled ||
			to == schema.OrderStatusRejected
	case schema.OrderStatusPartiallyFilled:
		return to == schema.OrderStatusPartiallyFilled ||
			to == schema.OrderStatusFilled ||
			to == schema.OrderStatusCanceled
	default:
		return false
	}
}

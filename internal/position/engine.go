package position

import (
	"math"
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

// Engine maintains per-symbol positions with weighted average cost and
// realized PnL, and publishes a risk violation when realized PnL falls
// below the drawdown floor.
//
// The positions map takes a reader-writer lock because snapshot readers
// run on other goroutines; the order cache is touched only on the owning
// loop's goroutine.
type Engine struct {
	bus    *bus.Bus
	limits schema.RiskLimits

	mu        sync.RWMutex
	positions map[string]schema.Position

	orders map[uint64]orderInfo

	orderSub bus.SubscriptionID
	fillSub  bus.SubscriptionID
}

type orderInfo struct {
	symbol string
	side   schema.Side
}

// New subscribes a position engine to order and execution-report events
// on the given bus, in that order. The {order id → symbol, side} cache is
// filled by the order event, so a fill is only applied when its order
// event was published on this bus before it.
func New(b *bus.Bus, limits schema.RiskLimits) *Engine {
	e := &Engine{
		bus:       b,
		limits:    limits,
		positions: make(map[string]schema.Position),
		orders:    make(map[uint64]orderInfo),
	}
	e.orderSub = bus.Subscribe(b, e.onOrder)
	e.fillSub = bus.Subscribe(b, e.onFill)
	return e
}

// Close returns the engine's subscriptions to the bus.
func (e *Engine) Close() {
	e.bus.Unsubscribe(e.fillSub)
	e.bus.Unsubscribe(e.orderSub)
}

// Hydrate installs a pre-existing position without publishing an update.
// Only legal during the warm-up gate, before the owning loop starts.
func (e *Engine) Hydrate(pos schema.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions[pos.Symbol] = pos
}

// Position returns a snapshot copy of the position for a symbol.
func (e *Engine) Position(symbol string) (schema.Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.positions[symbol]
	return pos, ok
}

// Snapshots returns copies of every tracked position.
func (e *Engine) Snapshots() []schema.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]schema.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		out = append(out, pos)
	}
	return out
}

func (e *Engine) onOrder(ev schema.OrderEvent) {
	e.orders[ev.Order.ID] = orderInfo{symbol: ev.Order.Symbol, side: ev.Order.Side}
}

func (e *Engine) onFill(ev schema.ExecutionReportEvent) {
	if ev.Status != schema.ExecutionFilled {
		return
	}

	info, ok := e.orders[ev.OrderID]
	if !ok {
		logs.Warnf("fill for unknown order id %d, dropped", ev.OrderID)
		return
	}

	signed := ev.FilledQuantity
	if info.side == schema.SideSell {
		signed = -signed
	}

	var update schema.PositionUpdateEvent
	var violation *schema.RiskViolationEvent

	e.mu.Lock()
	pos := e.positions[info.symbol]
	if pos.Symbol == "" {
		pos.Symbol = info.symbol
	}
	applyFill(&pos, signed, ev.FillPrice)
	e.positions[info.symbol] = pos

	update = schema.PositionUpdateEvent{EventMeta: ev.EventMeta, Position: pos}
	if pos.RealizedPnL < e.limits.MaxDrawdown {
		violation = &schema.RiskViolationEvent{
			EventMeta:    ev.EventMeta,
			Symbol:       info.symbol,
			Reason:       "Max Drawdown Exceeded",
			CurrentValue: pos.RealizedPnL,
			LimitValue:   e.limits.MaxDrawdown,
		}
	}
	e.mu.Unlock()

	e.bus.Publish(update)
	if violation != nil {
		e.bus.Publish(*violation)
	}

	delete(e.orders, ev.OrderID)
}

// applyFill mutates pos with a signed fill quantity at a price.
//
// Three cases: a fill in the direction of the position (or from flat)
// re-weights the average price; an opposite fill within the position
// realizes PnL on the closed quantity; an opposite fill beyond the
// position closes it entirely and opens the remainder at the fill price.
func applyFill(pos *schema.Position, signedQty, price float64) {
	current := pos.NetQuantity

	if current == 0 {
		pos.NetQuantity = signedQty
		pos.AveragePrice = price
		return
	}

	if (current > 0) == (signedQty > 0) {
		total := current + signedQty
		pos.AveragePrice = (current*pos.AveragePrice + signedQty*price) / total
		pos.NetQuantity = total
		return
	}

	absCurrent := math.Abs(current)
	absFill := math.Abs(signedQty)
	direction := 1.0
	if current < 0 {
		direction = -1.0
	}

	if absFill <= absCurrent {
		pos.RealizedPnL += absFill * (price - pos.AveragePrice) * direction
		pos.NetQuantity = current + signedQty
		// AveragePrice keeps its last value; it is not consulted again
		// until the position leaves flat through one of the cases above.
		return
	}

	pos.RealizedPnL += absCurrent * (price - pos.AveragePrice) * direction

	open := absFill - absCurrent
	if signedQty > 0 {
		pos.NetQuantity = open
	} else {
		pos.NetQuantity = -open
	}
	pos.AveragePrice = price
}

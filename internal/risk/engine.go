package risk

import (
	"math"
	"sync/atomic"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/oid"
	"main/internal/schema"
)

// orderQuantity is the fixed size of every order produced from a signal.
// A richer mapping from signal strength to size is future work.
const orderQuantity = 1.0

// PositionReader is the read-only view the engine needs for pre-trade
// checks.
type PositionReader interface {
	Position(symbol string) (schema.Position, bool)
}

// Engine screens signals through pre-trade checks and converts approved
// ones into orders. A latching kill switch drops every signal once set;
// there is no reset, the process restarts to resume trading.
type Engine struct {
	bus       *bus.Bus
	positions PositionReader
	ids       *oid.Generator
	limits    schema.RiskLimits
	clock     clock.TimeProvider

	halted atomic.Bool

	signalSub    bus.SubscriptionID
	violationSub bus.SubscriptionID
}

// New subscribes a risk engine to signal and risk-violation events on
// the given bus, in that order.
func New(b *bus.Bus, positions PositionReader, ids *oid.Generator, limits schema.RiskLimits, tp clock.TimeProvider) *Engine {
	e := &Engine{
		bus:       b,
		positions: positions,
		ids:       ids,
		limits:    limits,
		clock:     tp,
	}
	e.signalSub = bus.Subscribe(b, e.onSignal)
	e.violationSub = bus.Subscribe(b, e.onViolation)
	return e
}

// Close returns the engine's subscriptions to the bus.
func (e *Engine) Close() {
	e.bus.Unsubscribe(e.violationSub)
	e.bus.Unsubscribe(e.signalSub)
}

// Halt latches the kill switch. Safe from any goroutine.
func (e *Engine) Halt() { e.halted.Store(true) }

// Halted reports whether the kill switch is latched.
func (e *Engine) Halted() bool { return e.halted.Load() }

func (e *Engine) onSignal(ev schema.SignalEvent) {
	if e.halted.Load() {
		return
	}

	var current float64
	if pos, ok := e.positions.Position(ev.Symbol); ok {
		current = pos.NetQuantity
	}
	if math.Abs(current)+orderQuantity > e.limits.MaxPositionPerSymbol {
		logs.Warnf("signal for %s dropped: net %v + %v exceeds position limit %v",
			ev.Symbol, current, orderQuantity, e.limits.MaxPositionPerSymbol)
		return
	}

	order := schema.Order{
		ID:         e.ids.Next(),
		StrategyID: ev.StrategyID,
		Symbol:     ev.Symbol,
		Side:       ev.Side,
		Quantity:   orderQuantity,
		Price:      ev.Price,
		Status:     schema.OrderStatusNew,
	}

	e.bus.Publish(schema.OrderEvent{
		EventMeta: schema.EventMeta{
			Timestamp:  clock.FromMillis(e.clock.NowMillis()),
			SequenceID: ev.SequenceID,
		},
		Order: order,
	})
}

func (e *Engine) onViolation(ev schema.RiskViolationEvent) {
	logs.Warnf("risk violation on %s: %s (%v vs limit %v), trading halted",
		ev.Symbol, ev.Reason, ev.CurrentValue, ev.LimitValue)
	e.halted.Store(true)
}

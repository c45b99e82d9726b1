package risk

import (
	"testing"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/oid"
	"main/internal/schema"
)

type stubPositions map[string]schema.Position

func (s stubPositions) Position(symbol string) (schema.Position, bool) {
	pos, ok := s[symbol]
	return pos, ok
}

func newEngine(t *testing.T, positions stubPositions, limits schema.RiskLimits) (*bus.Bus, *Engine, *[]schema.OrderEvent) {
	t.Helper()
	b := bus.NewBus()
	orders := &[]schema.OrderEvent{}
	bus.Subscribe(b, func(ev schema.OrderEvent) { *orders = append(*orders, ev) })

	e := New(b, positions, &oid.Generator{}, limits, clock.NewSimulated(1700000000000))
	t.Cleanup(e.Close)
	return b, e, orders
}

func buySignal(symbol string, price float64) schema.SignalEvent {
	return schema.SignalEvent{
		EventMeta:  schema.EventMeta{SequenceID: 9},
		StrategyID: "threshold",
		Symbol:     symbol,
		Side:       schema.SideBuy,
		Strength:   1.0,
		Price:      price,
	}
}

func TestSignalProducesOrder(t *testing.T) {
	b, _, orders := newEngine(t, stubPositions{}, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	b.Publish(buySignal("AAPL", 150.25))

	if len(*orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(*orders))
	}
	o := (*orders)[0].Order
	if o.ID != 1 || o.Symbol != "AAPL" || o.Side != schema.SideBuy {
		t.Fatalf("order %+v", o)
	}
	if o.Quantity != 1 || o.Price != 150.25 || o.Status != schema.OrderStatusNew || o.FilledQuantity != 0 {
		t.Fatalf("order %+v", o)
	}
	if (*orders)[0].SequenceID != 9 {
		t.Fatalf("sequence id %d not propagated", (*orders)[0].SequenceID)
	}
}

func TestPositionLimitExactCapIsAccepted(t *testing.T) {
	positions := stubPositions{"AAPL": {Symbol: "AAPL", NetQuantity: 999, AveragePrice: 50}}
	b, _, orders := newEngine(t, positions, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	b.Publish(buySignal("AAPL", 100))

	if len(*orders) != 1 {
		t.Fatalf("order hitting the cap exactly should pass, got %d", len(*orders))
	}
}

func TestPositionLimitAboveCapIsDropped(t *testing.T) {
	positions := stubPositions{"AAPL": {Symbol: "AAPL", NetQuantity: 1000, AveragePrice: 50}}
	b, _, orders := newEngine(t, positions, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	b.Publish(buySignal("AAPL", 100))

	if len(*orders) != 0 {
		t.Fatalf("order above the cap should drop, got %d", len(*orders))
	}
}

func TestShortPositionCountsTowardCap(t *testing.T) {
	positions := stubPositions{"AAPL": {Symbol: "AAPL", NetQuantity: -1000, AveragePrice: 50}}
	b, _, orders := newEngine(t, positions, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	b.Publish(buySignal("AAPL", 100))

	if len(*orders) != 0 {
		t.Fatalf("absolute net is at the cap, got %d orders", len(*orders))
	}
}

func TestViolationLatchesKillSwitch(t *testing.T) {
	b, e, orders := newEngine(t, stubPositions{}, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	if e.Halted() {
		t.Fatal("halted before any violation")
	}
	b.Publish(schema.RiskViolationEvent{Symbol: "AAPL", Reason: "Max Drawdown Exceeded", CurrentValue: -510, LimitValue: -500})

	if !e.Halted() {
		t.Fatal("kill switch not latched")
	}
	b.Publish(buySignal("AAPL", 100))
	if len(*orders) != 0 {
		t.Fatalf("signal after latch produced %d orders", len(*orders))
	}
}

func TestHaltDropsSubsequentSignals(t *testing.T) {
	b, e, orders := newEngine(t, stubPositions{}, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	e.Halt()
	if !e.Halted() {
		t.Fatal("Halt did not latch")
	}
	b.Publish(buySignal("AAPL", 100))
	if len(*orders) != 0 {
		t.Fatalf("signal after halt produced %d orders", len(*orders))
	}
}

func TestOrderIDsIncrease(t *testing.T) {
	b, _, orders := newEngine(t, stubPositions{}, schema.RiskLimits{MaxPositionPerSymbol: 1000, MaxDrawdown: -500})

	b.Publish(buySignal("AAPL", 100))
	b.Publish(buySignal("MSFT", 200))

	if len(*orders) != 2 {
		t.Fatalf("got %d orders", len(*orders))
	}
	if (*orders)[0].Order.ID >= (*orders)[1].Order.ID {
		t.Fatalf("ids not increasing: %d then %d", (*orders)[0].Order.ID, (*orders)[1].Order.ID)
	}
}

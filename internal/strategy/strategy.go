package strategy

import (
	"main/internal/bus"
	"main/internal/clock"
	"main/internal/schema"
)

// Strategy consumes market data on its loop's bus and publishes signals
// back onto the same bus. It never talks to execution directly.
type Strategy interface {
	Close()
}

// Threshold emits a buy signal with strength 1.0 whenever the price is
// above a fixed threshold. It exists to exercise the pipeline; real
// strategies follow the same shape.
type Threshold struct {
	bus       *bus.Bus
	id        string
	threshold float64
	clock     clock.TimeProvider
	sub       bus.SubscriptionID
}

// NewThreshold subscribes a threshold strategy to market-data events on
// the given bus.
func NewThreshold(b *bus.Bus, id string, threshold float64, tp clock.TimeProvider) *Threshold {
	s := &Threshold{bus: b, id: id, threshold: threshold, clock: tp}
	s.sub = bus.Subscribe(b, s.onMarketData)
	return s
}

// Close returns the strategy's subscription to the bus.
func (s *Threshold) Close() { s.bus.Unsubscribe(s.sub) }

func (s *Threshold) onMarketData(ev schema.MarketDataEvent) {
	if ev.Price <= s.threshold {
		return
	}

	s.bus.Publish(schema.SignalEvent{
		EventMeta: schema.EventMeta{
			Timestamp:  clock.FromMillis(s.clock.NowMillis()),
			SequenceID: ev.SequenceID,
		},
		StrategyID: s.id,
		Symbol:     ev.Symbol,
		Side:       schema.SideBuy,
		Strength:   1.0,
		Price:      ev.Price,
	})
}

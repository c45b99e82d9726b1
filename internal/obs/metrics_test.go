package obs

import (
	"strings"
	"sync"
	"testing"

	"main/internal/schema"
)

func TestCountersObserve(t *testing.T) {
	c := NewCounters()

	c.Observe(schema.MarketDataEvent{Symbol: "AAPL"})
	c.Observe(schema.MarketDataEvent{Symbol: "AAPL"})
	c.Observe(schema.SignalEvent{Symbol: "AAPL"})

	if n := c.Count(schema.KindMarketData); n != 2 {
		t.Fatalf("market data count %d, want 2", n)
	}
	if n := c.Count(schema.KindSignal); n != 1 {
		t.Fatalf("signal count %d, want 1", n)
	}
	if n := c.Count(schema.KindOrder); n != 0 {
		t.Fatalf("order count %d, want 0", n)
	}
}

func TestCountersConcurrentObserve(t *testing.T) {
	c := NewCounters()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Observe(schema.HeartbeatEvent{})
			}
		}()
	}
	wg.Wait()

	if n := c.Count(schema.KindHeartbeat); n != 8000 {
		t.Fatalf("heartbeat count %d, want 8000", n)
	}
}

func TestCountersString(t *testing.T) {
	c := NewCounters()
	if s := c.String(); s != "none" {
		t.Fatalf("empty counters render %q", s)
	}

	c.Observe(schema.SignalEvent{})
	if s := c.String(); !strings.Contains(s, "Signal=1") {
		t.Fatalf("render %q", s)
	}
}

package network

import (
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/clock"
	"main/internal/gateway"
)

// MarketDataThread owns the market-data gateway and the goroutine
// running its receive loop.
type MarketDataThread struct {
	clock    *clock.Simulated
	sink     gateway.Sink
	endpoint string

	mu   sync.Mutex
	gw   *gateway.Gateway
	done sync.WaitGroup
}

// NewMarketDataThread stores the parameters for deferred gateway
// construction; no socket is opened until Start.
func NewMarketDataThread(sim *clock.Simulated, sink gateway.Sink, endpoint string) *MarketDataThread {
	return &MarketDataThread{clock: sim, sink: sink, endpoint: endpoint}
}

// Start connects the gateway and spawns its receive goroutine. Idempotent.
func (t *MarketDataThread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gw != nil {
		return nil
	}
	gw, err := gateway.New(t.clock, t.sink, t.endpoint)
	if err != nil {
		return err
	}
	t.gw = gw

	t.done.Add(1)
	go func() {
		defer t.done.Done()
		logs.Infof("market data thread listening on %s", t.endpoint)
		gw.Run()
		logs.Info("market data receive loop exited")
	}()
	return nil
}

// Stop signals the gateway and joins the goroutine. Idempotent.
func (t *MarketDataThread) Stop() {
	t.mu.Lock()
	gw := t.gw
	t.gw = nil
	t.mu.Unlock()

	if gw == nil {
		return
	}
	gw.Stop()
	t.done.Wait()
}

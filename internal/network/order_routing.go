package network

import (
	"sync"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/exec"
	"main/internal/schema"
)

// OrderRoutingThread owns its event loop and the execution engine bound
// to that loop's bus. Orders forwarded here are acknowledged and filled
// on the routing goroutine; reports flow back over a bridge.
type OrderRoutingThread struct {
	loop  *bus.Loop
	clock clock.TimeProvider

	mu      sync.Mutex
	running bool
	engine  exec.Engine
}

// NewOrderRoutingThread creates a stopped routing thread. The execution
// engine is constructed at Start against the loop's bus.
func NewOrderRoutingThread(tp clock.TimeProvider) *OrderRoutingThread {
	return &OrderRoutingThread{loop: bus.NewLoop(), clock: tp}
}

// Start spawns the loop worker and constructs the execution engine.
// Idempotent.
func (t *OrderRoutingThread) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.loop.Start()
	t.engine = exec.NewSimulated(t.loop.Bus(), t.clock)
	t.running = true
}

// Stop tears down the execution engine and joins the loop worker.
// Idempotent.
func (t *OrderRoutingThread) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.engine.Close()
	t.engine = nil
	t.loop.Stop()
	t.running = false
}

// Push enqueues an event for the routing loop; safe from any goroutine.
func (t *OrderRoutingThread) Push(e schema.Event) { t.loop.Push(e) }

// Bus returns the routing loop's bus for bridge subscriptions.
func (t *OrderRoutingThread) Bus() *bus.Bus { return t.loop.Bus() }

package engine

import (
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/clock"
	"main/internal/network"
	"main/internal/obs"
	"main/internal/oid"
	"main/internal/position"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/strategy"
	"main/internal/tracker"
)

// Reconciler hydrates pre-existing exchange state during the warm-up
// gate, before any worker thread starts. Implementations may block.
type Reconciler interface {
	ReconcilePositions() ([]schema.Position, error)
	ReconcileOrders() ([]schema.Order, error)
}

// StrategyFactory builds the strategy bound to the strategy bus.
type StrategyFactory func(b *bus.Bus, tp clock.TimeProvider) strategy.Strategy

// Config wires the engine's collaborators and endpoints.
type Config struct {
	// Clock drives tick, fill and signal timestamps. Owned by the
	// caller; the engine and its threads only borrow it.
	Clock *clock.Simulated

	Limits schema.RiskLimits

	// Endpoints. An empty market-data endpoint disables the ingress
	// thread; an empty command or telemetry endpoint disables the IPC
	// server. Useful for tests driving PushEvent directly.
	MarketDataEndpoint string
	CommandEndpoint    string
	TelemetryEndpoint  string

	// NewStrategy defaults to the threshold strategy built from
	// StrategyID (default "threshold") and StrategyThreshold.
	NewStrategy StrategyFactory

	StrategyID        string
	StrategyThreshold float64
}

// Engine constructs and wires the whole pipeline: two core loops, the
// order-routing and market-data threads, the IPC server and the three
// cross-thread bridges between them.
type Engine struct {
	cfg    Config
	ids    oid.Generator
	limits schema.RiskLimits
	clock  *clock.Simulated

	strategyLoop *bus.Loop
	riskLoop     *bus.Loop
	routing      *network.OrderRoutingThread
	marketData   *network.MarketDataThread
	ipc          *network.IPCServer

	orders    *tracker.Tracker
	positions *position.Engine
	riskEng   *risk.Engine
	strat     strategy.Strategy

	strategyCounts *obs.Counters
	riskCounts     *obs.Counters

	bridges []bridgeSub

	mu      sync.Mutex
	running bool
}

type bridgeSub struct {
	bus *bus.Bus
	id  bus.SubscriptionID
}

// New creates a stopped engine. No goroutine runs and no socket is open
// until Start.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSimulated(0)
	}
	if cfg.NewStrategy == nil {
		id := cfg.StrategyID
		if id == "" {
			id = "threshold"
		}
		threshold := cfg.StrategyThreshold
		cfg.NewStrategy = func(b *bus.Bus, tp clock.TimeProvider) strategy.Strategy {
			return strategy.NewThreshold(b, id, threshold, tp)
		}
	}
	return &Engine{
		cfg:            cfg,
		limits:         cfg.Limits,
		clock:          cfg.Clock,
		strategyLoop:   bus.NewLoop(),
		riskLoop:       bus.NewLoop(),
		strategyCounts: obs.NewCounters(),
		riskCounts:     obs.NewCounters(),
	}
}

// Start brings the engine to a running state. The reconciler, when
// non-nil, runs synchronously on the caller's goroutine before any
// worker starts. Idempotent; a second call returns nil without effect.
//
// The construction order is load-bearing. The tracker subscribes before
// the position engine, so an order is admitted before any position
// update can be attributed to it; every subscriber is live before the
// market-data thread lets the first tick in.
func (e *Engine) Start(rec Reconciler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	// Stateful components on the risk bus, tracker first.
	e.orders = tracker.New(e.riskLoop.Bus())
	e.positions = position.New(e.riskLoop.Bus(), e.limits)

	// Warm-up gate: hydrate prior state while no worker is running.
	if rec != nil {
		if err := e.reconcile(rec); err != nil {
			e.positions.Close()
			e.orders.Close()
			e.positions, e.orders = nil, nil
			return err
		}
	}

	e.strategyLoop.Start()
	e.riskLoop.Start()

	// Bridge 1: signals cross from the strategy thread to the risk thread.
	e.bridge(e.strategyLoop.Bus(), bus.Subscribe(e.strategyLoop.Bus(), func(ev schema.SignalEvent) {
		e.riskLoop.Push(ev)
	}))

	e.routing = network.NewOrderRoutingThread(e.clock)
	e.routing.Start()

	// Bridge 2: approved orders cross to the order-routing thread.
	e.bridge(e.riskLoop.Bus(), bus.Subscribe(e.riskLoop.Bus(), func(ev schema.OrderEvent) {
		e.routing.Push(ev)
	}))

	// Bridge 3: execution reports cross back to the risk thread.
	e.bridge(e.routing.Bus(), bus.Subscribe(e.routing.Bus(), func(ev schema.ExecutionReportEvent) {
		e.riskLoop.Push(ev)
	}))

	e.strat = e.cfg.NewStrategy(e.strategyLoop.Bus(), e.clock)
	e.riskEng = risk.New(e.riskLoop.Bus(), e.positions, &e.ids, e.limits, e.clock)

	// Event counters observe everything that flows through either bus.
	e.bridge(e.strategyLoop.Bus(), e.strategyLoop.Bus().SubscribeAny(e.strategyCounts.Observe))
	e.bridge(e.riskLoop.Bus(), e.riskLoop.Bus().SubscribeAny(e.riskCounts.Observe))

	if e.cfg.CommandEndpoint != "" && e.cfg.TelemetryEndpoint != "" {
		e.ipc = network.NewIPCServer(e.handleCommand, e.cfg.CommandEndpoint, e.cfg.TelemetryEndpoint)
		if err := e.ipc.Start(); err != nil {
			e.ipc = nil
			e.teardownLocked()
			return err
		}
		e.bridge(e.riskLoop.Bus(), bus.Subscribe(e.riskLoop.Bus(), func(ev schema.OrderUpdateEvent) {
			e.ipc.PushTelemetry(ev)
		}))
		e.bridge(e.riskLoop.Bus(), bus.Subscribe(e.riskLoop.Bus(), func(ev schema.PositionUpdateEvent) {
			e.ipc.PushTelemetry(ev)
		}))
		e.bridge(e.riskLoop.Bus(), bus.Subscribe(e.riskLoop.Bus(), func(ev schema.RiskViolationEvent) {
			e.ipc.PushTelemetry(ev)
		}))
	}

	// Market data comes up last, once every subscriber is live.
	if e.cfg.MarketDataEndpoint != "" {
		e.marketData = network.NewMarketDataThread(e.clock, e.strategyLoop.Push, e.cfg.MarketDataEndpoint)
		if err := e.marketData.Start(); err != nil {
			e.marketData = nil
			e.teardownLocked()
			return err
		}
	}

	e.running = true
	logs.Info("trading engine started")
	return nil
}

// Stop tears the engine down in reverse of Start: sources before sinks,
// components before the buses they reference. Idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.teardownLocked()
	e.running = false

	logs.Infof("trading engine stopped; strategy bus events: %s", e.strategyCounts)
	logs.Infof("risk bus events: %s", e.riskCounts)
}

func (e *Engine) teardownLocked() {
	if e.marketData != nil {
		e.marketData.Stop()
		e.marketData = nil
	}
	if e.ipc != nil {
		e.ipc.Stop()
		e.ipc = nil
	}

	for i := len(e.bridges) - 1; i >= 0; i-- {
		e.bridges[i].bus.Unsubscribe(e.bridges[i].id)
	}
	e.bridges = nil

	if e.riskEng != nil {
		e.riskEng.Close()
		e.riskEng = nil
	}
	if e.positions != nil {
		e.positions.Close()
		e.positions = nil
	}
	if e.orders != nil {
		e.orders.Close()
		e.orders = nil
	}
	if e.strat != nil {
		e.strat.Close()
		e.strat = nil
	}

	if e.routing != nil {
		e.routing.Stop()
		e.routing = nil
	}
	e.riskLoop.Stop()
	e.strategyLoop.Stop()
}

func (e *Engine) reconcile(rec Reconciler) error {
	positions, err := rec.ReconcilePositions()
	if err != nil {
		return err
	}
	for _, pos := range positions {
		e.positions.Hydrate(pos)
	}

	orders, err := rec.ReconcileOrders()
	if err != nil {
		return err
	}
	for _, o := range orders {
		e.orders.Hydrate(o)
	}

	logs.Infof("reconciled %d positions and %d open orders", len(positions), len(orders))
	return nil
}

func (e *Engine) bridge(b *bus.Bus, id bus.SubscriptionID) {
	e.bridges = append(e.bridges, bridgeSub{bus: b, id: id})
}

// PushEvent enqueues an event on the strategy loop; the entry point for
// tests and embedded feeds that bypass the market-data thread.
func (e *Engine) PushEvent(ev schema.Event) { e.strategyLoop.Push(ev) }

// StrategyBus returns the strategy loop's bus for observers.
func (e *Engine) StrategyBus() *bus.Bus { return e.strategyLoop.Bus() }

// RiskBus returns the risk loop's bus for observers.
func (e *Engine) RiskBus() *bus.Bus { return e.riskLoop.Bus() }

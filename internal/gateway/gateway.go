package gateway

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/clock"
	"main/internal/schema"
)

var ErrEmptyEndpoint = errors.New("market data endpoint is empty")

// Sink receives each decoded market-data event by value.
type Sink func(schema.Event)

// tick mirrors the JSON wire layout of one market-data message. Pointer
// fields distinguish a missing key from a zero value.
type tick struct {
	TimestampMillis *int64   `json:"timestamp_ms"`
	Symbol          *string  `json:"symbol"`
	Price           *float64 `json:"price"`
	Volume          *float64 `json:"volume"`
}

// Gateway subscribes to a market-data publisher, advances the simulation
// clock to each tick's timestamp and hands the tick to the sink. The
// clock advance strictly precedes the sink call, so any component that
// reads "now" while handling the tick sees the tick's own time.
type Gateway struct {
	clock  *clock.Simulated
	sink   Sink
	socket zmq4.Socket
	cancel context.CancelFunc
	ctx    context.Context
	seq    atomic.Uint64
}

// New connects a gateway to the given publisher endpoint.
func New(sim *clock.Simulated, sink Sink, endpoint string) (*Gateway, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	ctx, cancel := context.WithCancel(context.Background())
	socket := zmq4.NewSub(ctx)
	if err := socket.Dial(endpoint); err != nil {
		cancel()
		return nil, errors.Wrap(err, "dial market data endpoint").With("endpoint", endpoint)
	}
	// Empty prefix: accept everything the publisher sends.
	if err := socket.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		_ = socket.Close()
		cancel()
		return nil, errors.Wrap(err, "subscribe market data")
	}

	return &Gateway{clock: sim, sink: sink, socket: socket, cancel: cancel, ctx: ctx}, nil
}

// Run receives ticks until Stop is called. Call from a dedicated
// goroutine. A malformed message is logged and skipped; any other
// transport error ends the loop.
func (g *Gateway) Run() {
	for {
		msg, err := g.socket.Recv()
		if err != nil {
			if g.ctx.Err() != nil {
				return
			}
			logs.Errorf("market data receive failed: %+v", err)
			return
		}
		g.handle(msg.Bytes())
	}
}

// Stop ends the receive loop. Safe from any goroutine; idempotent.
func (g *Gateway) Stop() {
	g.cancel()
	_ = g.socket.Close()
}

func (g *Gateway) handle(payload []byte) {
	var t tick
	if err := json.Unmarshal(payload, &t); err != nil {
		logs.Warnf("malformed market data message, skipped: %+v", err)
		return
	}
	if t.TimestampMillis == nil || t.Symbol == nil || t.Price == nil || t.Volume == nil {
		logs.Warnf("market data message missing fields, skipped: %s", payload)
		return
	}

	g.clock.Advance(*t.TimestampMillis)

	g.sink(schema.MarketDataEvent{
		EventMeta: schema.EventMeta{
			Timestamp:  clock.FromMillis(*t.TimestampMillis),
			SequenceID: g.seq.Add(1),
		},
		Symbol:   *t.Symbol,
		Price:    *t.Price,
		Quantity: *t.Volume,
	})
}

package network

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestIPCServerServesCommands(t *testing.T) {
	s := NewIPCServer(func(cmd string) string {
		return fmt.Sprintf(`{"echo":%q}`, cmd)
	}, "tcp://127.0.0.1:0", "tcp://127.0.0.1:0")

	require.NoError(t, s.Start())
	defer s.Stop()

	endpoint := fmt.Sprintf("tcp://%s", s.cmd.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := zmq4.NewReq(ctx)
	require.NoError(t, req.Dial(endpoint))
	defer req.Close()

	require.NoError(t, req.Send(zmq4.NewMsgString("PING")))
	reply, err := req.Recv()
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"PING"}`, string(reply.Bytes()))
}

func TestIPCServerPublishesTelemetry(t *testing.T) {
	s := NewIPCServer(func(string) string { return "{}" }, "tcp://127.0.0.1:0", "tcp://127.0.0.1:0")
	require.NoError(t, s.Start())
	defer s.Stop()

	endpoint := fmt.Sprintf("tcp://%s", s.pub.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := zmq4.NewSub(ctx)
	require.NoError(t, sub.Dial(endpoint))
	require.NoError(t, sub.SetOption(zmq4.OptionSubscribe, ""))
	defer sub.Close()

	// Publishes before the subscription is live are dropped, so keep
	// pushing until one comes through.
	go func() {
		for ctx.Err() == nil {
			s.PushTelemetry(schema.RiskViolationEvent{
				Symbol:       "AAPL",
				Reason:       "Max Drawdown Exceeded",
				CurrentValue: -510,
				LimitValue:   -500,
			})
			time.Sleep(10 * time.Millisecond)
		}
	}()

	msg, err := sub.Recv()
	require.NoError(t, err)
	assert.Contains(t, string(msg.Bytes()), `"type":"risk_violation"`)
}

func TestIPCServerStartStopIdempotent(t *testing.T) {
	s := NewIPCServer(func(string) string { return "{}" }, "tcp://127.0.0.1:0", "tcp://127.0.0.1:0")

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}

func TestIPCServerPushBeforeStartDoesNotBlock(t *testing.T) {
	s := NewIPCServer(func(string) string { return "{}" }, "tcp://127.0.0.1:0", "tcp://127.0.0.1:0")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.PushTelemetry(schema.HeartbeatEvent{Source: "test"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PushTelemetry blocked without a running server")
	}
}

package network

import (
	"context"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

// telemetryIdleWait bounds how long the telemetry worker sleeps on an
// empty queue so the stop signal is observed promptly.
const telemetryIdleWait = 50 * time.Millisecond

// CommandHandler turns one command payload into a reply payload. It is
// invoked on the IPC worker goroutine and must be safe for concurrent
// use with the rest of the engine.
type CommandHandler func(cmd string) string

// IPCServer exposes the engine over two sockets: a reply socket serving
// operator commands and a publish socket streaming telemetry. Telemetry
// is enqueued from the risk loop and published by a dedicated worker, so
// pushing never blocks the pipeline.
type IPCServer struct {
	handler     CommandHandler
	cmdEndpoint string
	pubEndpoint string

	queue *bus.Queue[schema.Event]

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	cmd     zmq4.Socket
	pub     zmq4.Socket
	done    sync.WaitGroup
}

// NewIPCServer stores the parameters for deferred socket creation; no
// socket is bound until Start.
func NewIPCServer(handler CommandHandler, cmdEndpoint, pubEndpoint string) *IPCServer {
	return &IPCServer{
		handler:     handler,
		cmdEndpoint: cmdEndpoint,
		pubEndpoint: pubEndpoint,
		queue:       bus.NewQueue[schema.Event](),
	}
}

// PushTelemetry enqueues an event for publication without blocking; safe
// from any goroutine.
func (s *IPCServer) PushTelemetry(e schema.Event) { s.queue.Push(e) }

// Start binds both sockets and spawns the worker goroutines. Idempotent.
func (s *IPCServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	cmd := zmq4.NewRep(ctx)
	if err := cmd.Listen(s.cmdEndpoint); err != nil {
		cancel()
		return errors.Wrap(err, "bind command socket").With("endpoint", s.cmdEndpoint)
	}
	pub := zmq4.NewPub(ctx)
	if err := pub.Listen(s.pubEndpoint); err != nil {
		_ = cmd.Close()
		cancel()
		return errors.Wrap(err, "bind telemetry socket").With("endpoint", s.pubEndpoint)
	}

	s.running = true
	s.cancel = cancel
	s.cmd = cmd
	s.pub = pub

	s.done.Add(2)
	go s.serveCommands(ctx, cmd)
	go s.publishTelemetry(ctx, pub)

	logs.Infof("ipc server started, cmd=%s pub=%s", s.cmdEndpoint, s.pubEndpoint)
	return nil
}

// Stop cancels the workers, joins them and closes both sockets.
// Idempotent.
func (s *IPCServer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, cmd, pub := s.cancel, s.cmd, s.pub
	s.cmd, s.pub, s.cancel = nil, nil, nil
	s.mu.Unlock()

	cancel()
	// Closing the command socket unblocks a receive in progress; the
	// publish socket stays open until the telemetry worker has drained.
	_ = cmd.Close()
	s.done.Wait()
	_ = pub.Close()

	logs.Info("ipc server stopped")
}

func (s *IPCServer) serveCommands(ctx context.Context, cmd zmq4.Socket) {
	defer s.done.Done()

	for {
		msg, err := cmd.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logs.Errorf("command receive failed: %+v", err)
			return
		}

		reply := s.handler(string(msg.Bytes()))
		if err := cmd.Send(zmq4.NewMsgString(reply)); err != nil {
			if ctx.Err() != nil {
				return
			}
			logs.Errorf("command reply failed: %+v", err)
			return
		}
	}
}

func (s *IPCServer) publishTelemetry(ctx context.Context, pub zmq4.Socket) {
	defer s.done.Done()

	for {
		s.drain(pub)

		select {
		case <-ctx.Done():
			// Final drain so telemetry already queued at shutdown is
			// published before the socket closes.
			s.drain(pub)
			return
		default:
		}
		s.queue.Wait(telemetryIdleWait)
	}
}

func (s *IPCServer) drain(pub zmq4.Socket) {
	for {
		e, ok := s.queue.TryPop()
		if !ok {
			return
		}
		payload, ok := formatTelemetry(e)
		if !ok {
			continue
		}
		if err := pub.Send(zmq4.NewMsg(payload)); err != nil {
			logs.Warnf("telemetry publish failed: %+v", err)
		}
	}
}

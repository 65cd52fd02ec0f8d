package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples session lifecycle operations from sink latency: the
// controller emits events into a buffered channel and a single background
// goroutine forwards them to the sink. A nil *Dispatcher is valid and
// discards everything, which is how a controller with audit disabled runs.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	events  chan Event
	quit    chan struct{}
	drained sync.WaitGroup
	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once
}

// NewDispatcher describes the newdispatcher operation and its observable behavior.
//
// NewDispatcher may return an error when input validation, dependency calls, or security checks fail.
// NewDispatcher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:    cfg,
		sink:   sink,
		events: make(chan Event, cfg.BufferSize),
		quit:   make(chan struct{}),
	}

	d.drained.Add(1)
	go d.forward()

	return d
}

// forward is the single consumer of the event channel. After Close it keeps
// draining whatever is already buffered, so session events recorded before
// shutdown still reach the sink.
func (d *Dispatcher) forward() {
	defer d.drained.Done()

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues an event for the sink. With DropIfFull set a full buffer drops
// the event and bumps the dropped counter instead of stalling the session
// operation that produced it; otherwise Emit waits until the buffer accepts
// the event, the context is done, or the dispatcher shuts down.
//
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.events <- event:
		case <-d.quit:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops the dispatcher and blocks until buffered events are flushed to
// the sink. Emit calls after Close are discarded. Close is idempotent.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.quit)
		d.drained.Wait()
	})
}

// Dropped reports how many events were discarded because the buffer was full.
//
// Dropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

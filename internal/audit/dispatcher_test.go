package audit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	entered chan struct{}
	release chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, Event) {
	s.entered <- struct{}{}
	<-s.release
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled config produced a live dispatcher")
	}

	// nil receivers must be safe on every method.
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestDispatcherDrainsBufferOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 32, DropIfFull: true}, sink)

	const emitted = 10
	for i := 0; i < emitted; i++ {
		d.Emit(context.Background(), Event{EventType: "session.restore"})
	}
	d.Close()

	if got := sink.count.Load(); got != emitted {
		t.Fatalf("sink received %d events, want %d", got, emitted)
	}
	if d.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", d.Dropped())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := newGateSink()
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	d.Emit(context.Background(), Event{EventType: "e1"})
	<-sink.entered // forwarder is now blocked inside the sink

	d.Emit(context.Background(), Event{EventType: "e2"}) // fills the buffer
	d.Emit(context.Background(), Event{EventType: "e3"}) // must drop, not block

	if got := d.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}

	close(sink.release)
	d.Close()
}

func TestCloseIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, &countingSink{})
	d.Close()
	d.Close()

	// Emit after Close is discarded, not delivered and not a panic.
	d.Emit(context.Background(), Event{EventType: "late"})
}

func TestFullChannelSinkDoesNotStallShutdown(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	// Nobody reads the sink; overflow past its capacity and shut down.
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "session.state_transition"})
	}

	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on an unread channel sink")
	}

	select {
	case <-sink.Events():
	default:
		t.Fatal("sink buffer empty, expected one retained event")
	}
}

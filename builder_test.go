package sessionkit

import (
	"context"
	"testing"
	"time"

	"github.com/learnstack/sessionkit/storage"
)

func TestBuildRequiresGateway(t *testing.T) {
	_, err := New().WithStorage(storage.NewMemoryStore()).Build()
	if err == nil {
		t.Fatal("Build succeeded without a gateway")
	}
}

func TestBuildRequiresStorage(t *testing.T) {
	_, err := New().WithGateway(&fakeGateway{}).Build()
	if err == nil {
		t.Fatal("Build succeeded without storage")
	}
}

func TestBuildRejectsInvalidLeeway(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Leeway = -time.Second

	_, err := New().
		WithConfig(cfg).
		WithGateway(&fakeGateway{}).
		WithStorage(storage.NewMemoryStore()).
		Build()
	if err == nil {
		t.Fatal("Build succeeded with negative leeway")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := New().
		WithGateway(&fakeGateway{}).
		WithStorage(storage.NewMemoryStore())

	first, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer first.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("second Build succeeded, want error")
	}
}

func TestWithAuditSinkEnablesAudit(t *testing.T) {
	sink := NewChannelSink(8)
	controller, err := New().
		WithGateway(&fakeGateway{identity: testIdentity()}).
		WithStorage(storage.NewMemoryStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer controller.Close()

	if err := controller.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	_ = controller.Close()

	timeout := time.After(time.Second)
	for {
		select {
		case event := <-sink.Events():
			if event.EventType == auditEventRestore {
				return
			}
		case <-timeout:
			t.Fatal("no restore audit event observed")
		}
	}
}

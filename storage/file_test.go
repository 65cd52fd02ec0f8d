package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return s, path
}

func TestFileStoreRoundTripAcrossInstances(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	want := Record{Credential: "access-1", RefreshCredential: "refresh-1"}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A fresh instance over the same path simulates a process restart.
	restarted, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := restarted.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != want {
		t.Fatalf("load mismatch: got %+v want %+v", got, want)
	}
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear on missing file failed: %v", err)
	}

	if err := s.Save(ctx, Record{Credential: "a", RefreshCredential: "r"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected record file removed, stat err = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear failed: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("expected empty record, got %+v", got)
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	s, path := newFileStore(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	// A half-written record is corruption too, even when it is valid JSON.
	if err := os.WriteFile(path, []byte(`{"credential":"only-access"}`), 0o600); err != nil {
		t.Fatalf("write partial file: %v", err)
	}
	if _, err := s.Load(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt for partial record, got %v", err)
	}
}

func TestFileStoreRejectsPartialRecord(t *testing.T) {
	s, path := newFileStore(t)

	err := s.Save(context.Background(), Record{RefreshCredential: "only-refresh"})
	if !errors.Is(err, ErrPartialRecord) {
		t.Fatalf("expected ErrPartialRecord, got %v", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("partial save must not create the record file")
	}
}

func TestFileStoreUnavailableDirectory(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "missing", "deep", "session.json"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	saveErr := s.Save(context.Background(), Record{Credential: "a", RefreshCredential: "r"})
	if !errors.Is(saveErr, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", saveErr)
	}
}

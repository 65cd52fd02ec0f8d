package storage

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is an exported constant or variable used by the session controller.
	ErrUnavailable = errors.New("session storage unavailable")
	// ErrCorrupt is an exported constant or variable used by the session controller.
	ErrCorrupt = errors.New("session record corrupt")
	// ErrPartialRecord is an exported constant or variable used by the session controller.
	ErrPartialRecord = errors.New("session record must carry both credentials or neither")
)

// Record is the only state that survives a process restart: the credential
// pair issued by the identity backend. Either both fields are set or both are
// empty.
type Record struct {
	Credential        string `json:"credential"`
	RefreshCredential string `json:"refresh_credential"`
}

// Empty describes the empty operation and its observable behavior.
//
// Empty may return an error when input validation, dependency calls, or security checks fail.
// Empty does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Record) Empty() bool {
	return r.Credential == "" && r.RefreshCredential == ""
}

func (r Record) partial() bool {
	return (r.Credential == "") != (r.RefreshCredential == "")
}

// Store defines a public type used by sessionkit APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store interface {
	// Save overwrites the persisted record with both fields at once.
	// A record carrying exactly one credential is rejected with
	// ErrPartialRecord before anything is written.
	Save(ctx context.Context, record Record) error

	// Load returns the persisted record, or the empty record when nothing
	// has been saved or a previous Clear ran.
	Load(ctx context.Context) (Record, error)

	// Clear removes both fields. Clearing an already-empty store succeeds.
	Clear(ctx context.Context) error
}

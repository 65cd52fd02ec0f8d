// Package sessionkit implements a client-side authentication session
// lifecycle: credential pair management, persisted session restore, a refresh
// state machine with a strict single-retry policy, and route gating built on
// top of the resulting session state.
//
// The entry point is the [Builder]:
//
//	controller, err := sessionkit.New().
//		WithGateway(gateway).
//		WithStorage(store).
//		Build()
//	if err != nil {
//		// handle
//	}
//	defer controller.Close()
//
//	if err := controller.Initialize(ctx); err != nil {
//		// handle
//	}
//
// A [Controller] settles in exactly one phase at a time and is the single
// writer for the credential pair, the in-memory identity, and the persisted
// record. Mutating operations are serialized; a second concurrent mutation is
// rejected with [ErrSessionBusy] rather than queued.
//
// Subpackages provide the pieces the controller composes: token holds the
// credential codec, storage the persistence backends, gateway the HTTP
// identity backend client, and middleware the net/http route guard.
package sessionkit

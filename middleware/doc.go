// Package middleware exposes net/http adapters that gate routes on the
// session controller's state.
//
// # Guards
//
//   - [Guard] — requires an authenticated session.
//   - [RequireProfile] — requires an authenticated session with a completed
//     learner profile.
//
// Each guard evaluates the controller's current state snapshot and either
// passes the request through with the identity injected into the request
// context, or responds with the HTTP status matching the gate outcome.
//
// # Architecture boundaries
//
// This package translates session state into HTTP responses. It does NOT
// drive the session lifecycle — restore, refresh, and sign-out decisions
// belong to the controller.
package middleware

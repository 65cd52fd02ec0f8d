// Package token interprets and validates the bearer credentials issued by the
// identity backend without calling the network.
//
// Credentials are JWT-shaped but issuer-opaque on the client: the codec checks
// structure and time bounds, never the signature. Verification is the backend's
// responsibility; a client that cannot decode a token treats it as expired.
//
// # Architecture boundaries
//
// This package owns credential parsing and validity math. Session state,
// persistence, and network calls live in the root package and its siblings.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Read the wall clock implicitly; callers supply the current time.
//   - Import the root package or any sibling package.
package token

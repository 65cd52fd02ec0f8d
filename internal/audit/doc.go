// Package audit defines the session audit event model, delivery sinks, and
// the asynchronous dispatcher that decouples controller operations from sink
// latency.
//
// # Architecture boundaries
//
// This package owns event buffering and delivery only. Event vocabulary
// (which transitions emit what) belongs to the root package.
//
// # What this package must NOT do
//
//   - Block controller operations on a slow sink unless configured to.
//   - Import the root package or any sibling package.
package audit

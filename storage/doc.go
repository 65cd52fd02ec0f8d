// Package storage provides the durable key-value persistence contract for the
// session credential pair, plus in-memory, file-backed, and Redis-backed
// implementations.
//
// # Design
//
// Exactly one record is persisted: the credential and refresh credential,
// both present or both absent. Every implementation makes Save atomic from a
// reader's perspective; a loader never observes only one of the two fields
// updated.
//
// # Architecture boundaries
//
// This package owns persistence only. It never inspects token contents and
// never changes session state; the controller reacts to the tagged outcomes
// returned here.
//
// # What this package must NOT do
//
//   - Panic across the package boundary; failures are sentinel errors.
//   - Persist identity, profile, or preference data.
//   - Import the root package or any sibling package.
package storage

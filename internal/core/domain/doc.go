// Package domain defines the core domain models for objhost.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Class: a creatable class exposed to external callers and its factory
//   - Object: a live object issued to a caller, with its lease
//   - IDs: ULID-based identifiers for objects, registrations and runs
//   - Errors: domain error codes shared by services and transports
package domain

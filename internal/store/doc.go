// Package store defines the persistence interfaces consumed by the service
// and task layers, together with the sentinel errors and transaction helpers
// shared by every implementation. Concrete stores live in
// internal/platform/postgres.
package store

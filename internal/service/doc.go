// Package service implements the synchronization and reconciliation logic
// of the event tracker.
//
// All writers (the scheduled sync, manual pulls and the CSV backfill) go
// through ReconciliationService and the shared repository primitives, so
// the membership and participation invariants hold no matter where a write
// originates. Each service declares the narrow repository interfaces it
// needs; concrete repositories from internal/repository satisfy them.
package service

// Package database provides the storage abstraction for the event tracker.
//
// The Database interface abstracts SurrealDB operations so repositories and
// services stay independent of the driver. Three query methods are exposed:
//   - Query: returns multiple results (SELECT returning lists)
//   - QueryOne: returns a single result (SELECT by record id)
//   - Execute: no return value (CREATE/UPSERT/DELETE mutations)
//
// # Transactions
//
// Transactions are BATCH-BASED, not connection-level. Statements accumulate
// in a TxBuilder and are wrapped in BEGIN TRANSACTION / COMMIT TRANSACTION
// at execution time, so they succeed or fail as one unit. One guild
// reconciliation pass is exactly one such batch: on failure nothing of the
// pass is applied and the guild can be retried later.
//
// # Error Handling
//
// Standard errors cover the common failure cases. Use errors.Is():
//
//	if errors.Is(err, database.ErrConnection) {
//	    // transient - pause and retry
//	}
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with
	// the database. Callers treat this as transient.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

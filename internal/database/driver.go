package database

import (
	"context"
	"errors"
)

// ErrTableNotFound is returned by schema and index lookups when the table
// does not exist in the public schema. Callers treat it as a soft failure.
var ErrTableNotFound = errors.New("table not found")

// Driver defines the interface for read-only database operations.
// All implementations must be safe for concurrent use.
type Driver interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, dsn string) error

	// Close closes the database connection.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// ListTables returns all table names in the public schema, ordered.
	ListTables(ctx context.Context) ([]string, error)

	// GetSchema returns column and constraint metadata for a table.
	// Returns ErrTableNotFound if the table does not exist.
	GetSchema(ctx context.Context, table string) (*TableSchema, error)

	// GetIndexes returns index metadata for a table.
	// Returns ErrTableNotFound if the table does not exist.
	GetIndexes(ctx context.Context, table string) (*IndexInfo, error)

	// ExecuteQuery runs a SQL query and returns at most maxRows rows.
	// A maxRows of 0 or less means no cap.
	ExecuteQuery(ctx context.Context, query string, maxRows int) (*QueryResult, error)

	// DatabaseName returns the name of the connected database.
	DatabaseName() string
}

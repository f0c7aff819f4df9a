package gateway

import (
	"fmt"

	"github.com/joacominatel/floatgate/internal/database"
)

// ErrValidation represents a statement or identifier rejected by the
// safety policy before reaching the database. Always recoverable by the
// caller: rephrase the query.
type ErrValidation struct {
	Reason error
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %v", e.Reason)
}

func (e *ErrValidation) Unwrap() error {
	return e.Reason
}

// ErrConnection represents a database connection error: the configured
// target is unreachable, credentials are invalid, or the connection was
// lost. The caller may retry EnsureConnection.
type ErrConnection struct {
	Cause error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error: %v", e.Cause)
}

func (e *ErrConnection) Unwrap() error {
	return e.Cause
}

// ErrDatabase represents an engine rejection of a policy-allowed statement
// (unknown column, malformed SQL). The engine message is preserved
// verbatim for debuggability.
type ErrDatabase struct {
	Query string
	Cause error
}

func (e *ErrDatabase) Error() string {
	return fmt.Sprintf("database error: %v", e.Cause)
}

func (e *ErrDatabase) Unwrap() error {
	return e.Cause
}

// ErrNotFound represents a schema or index lookup for a table that does
// not exist. It is an expected outcome during exploratory querying, so
// the tool layer renders it as soft {error} data rather than a protocol
// failure.
type ErrNotFound struct {
	Table string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *ErrNotFound) Unwrap() error {
	return database.ErrTableNotFound
}

// Package gateway is the read-only SQL gateway core: it owns the shared
// database connection, applies the statement safety policy, and exposes the
// query and introspection operations consumed by the tool layer.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/joacominatel/floatgate/internal/database"
	"github.com/joacominatel/floatgate/internal/validate"
)

// Defaults for the per-query execution limits, overridable via config.
const (
	DefaultQueryTimeout = 30 * time.Second
	DefaultMaxRows      = 10000
)

// TableList is the result of ListTables.
type TableList struct {
	TableCount int      `json:"table_count"`
	TableNames []string `json:"table_names"`
}

// Gateway coordinates the connection lifecycle, validation and execution.
// The connection is created lazily on first use and shared by all callers;
// the mutex serializes lifecycle changes so exactly one connect attempt
// proceeds under a concurrent first call.
//
// Cleanup may run concurrently with in-flight queries: those either
// complete on the pool that existed when they started or fail with a
// connection error if it was torn down mid-flight.
type Gateway struct {
	driver       database.Driver
	dsn          string
	logger       *slog.Logger
	queryTimeout time.Duration
	maxRows      int

	mu        sync.Mutex
	connected bool
}

// New creates a gateway over the given driver. The connection is not
// opened until the first operation needs it. A nil logger discards logs.
func New(driver database.Driver, dsn string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{
		driver:       driver,
		dsn:          dsn,
		logger:       logger,
		queryTimeout: DefaultQueryTimeout,
		maxRows:      DefaultMaxRows,
	}
}

// SetLimits overrides the per-query timeout and row cap. Zero values keep
// the current setting.
func (g *Gateway) SetLimits(timeout time.Duration, maxRows int) {
	if timeout > 0 {
		g.queryTimeout = timeout
	}
	if maxRows > 0 {
		g.maxRows = maxRows
	}
}

// EnsureConnection opens the shared connection if it does not exist and
// verifies liveness if it does. Idempotent; safe for concurrent use.
func (g *Gateway) EnsureConnection(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		if err := g.driver.Ping(ctx); err == nil {
			return nil
		}
		// Stale connection: tear down and reopen.
		g.logger.Warn("connection unhealthy, reconnecting")
		if err := g.driver.Close(); err != nil {
			g.logger.Warn("close stale connection", "error", err)
		}
		g.connected = false
	}

	if err := g.driver.Connect(ctx, g.dsn); err != nil {
		return &ErrConnection{Cause: err}
	}
	g.connected = true
	g.logger.Info("database connection established", "database", g.driver.DatabaseName())
	return nil
}

// Cleanup closes the connection if open. Idempotent, and never fails the
// caller: close errors are logged, not propagated, so teardown cannot
// block shutdown.
func (g *Gateway) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return
	}
	if err := g.driver.Close(); err != nil {
		g.logger.Warn("close connection", "error", err)
	}
	g.connected = false
	g.logger.Info("database connection closed")
}

// RunQuery validates sqlText against the safety policy and executes it.
// Rejected statements never reach the database.
func (g *Gateway) RunQuery(ctx context.Context, sqlText string) (*database.QueryResult, error) {
	if err := g.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	if err := validate.CheckQuery(sqlText); err != nil {
		return nil, &ErrValidation{Reason: err}
	}

	ctx, cancel := g.opContext(ctx)
	defer cancel()

	result, err := g.driver.ExecuteQuery(ctx, sqlText, g.maxRows)
	if err != nil {
		return nil, &ErrDatabase{Query: sqlText, Cause: err}
	}
	g.logger.Debug("query executed",
		"rows", result.RowCount,
		"truncated", result.Truncated,
		"duration", result.Duration,
	)
	return result, nil
}

// ListTables returns all table names in the public schema.
func (g *Gateway) ListTables(ctx context.Context) (*TableList, error) {
	if err := g.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := g.opContext(ctx)
	defer cancel()

	tables, err := g.driver.ListTables(ctx)
	if err != nil {
		return nil, &ErrConnection{Cause: err}
	}
	if tables == nil {
		tables = []string{}
	}
	return &TableList{
		TableCount: len(tables),
		TableNames: tables,
	}, nil
}

// GetSchema returns column and constraint metadata for one table. The
// table name is validated as an identifier before any query is built.
func (g *Gateway) GetSchema(ctx context.Context, table string) (*database.TableSchema, error) {
	if err := g.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	if err := validate.CheckIdentifier(table); err != nil {
		return nil, &ErrValidation{Reason: err}
	}

	ctx, cancel := g.opContext(ctx)
	defer cancel()

	schema, err := g.driver.GetSchema(ctx, table)
	if err != nil {
		if errors.Is(err, database.ErrTableNotFound) {
			return nil, &ErrNotFound{Table: table}
		}
		return nil, &ErrDatabase{Cause: err}
	}
	return schema, nil
}

// GetIndexes returns index metadata for one table, with the same
// identifier validation as GetSchema.
func (g *Gateway) GetIndexes(ctx context.Context, table string) (*database.IndexInfo, error) {
	if err := g.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	if err := validate.CheckIdentifier(table); err != nil {
		return nil, &ErrValidation{Reason: err}
	}

	ctx, cancel := g.opContext(ctx)
	defer cancel()

	info, err := g.driver.GetIndexes(ctx, table)
	if err != nil {
		if errors.Is(err, database.ErrTableNotFound) {
			return nil, &ErrNotFound{Table: table}
		}
		return nil, &ErrDatabase{Cause: err}
	}
	return info, nil
}

// DescribeDatabase aggregates per-table column counts over the whole
// catalog. Aggregation is best-effort: a table whose introspection fails is
// skipped and recorded, so one broken table does not blank the summary.
func (g *Gateway) DescribeDatabase(ctx context.Context) (*database.DatabaseStructure, error) {
	list, err := g.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	structure := &database.DatabaseStructure{
		Tables: make(map[string]database.TableSummary, list.TableCount),
	}
	for _, table := range list.TableNames {
		schema, err := g.GetSchema(ctx, table)
		if err != nil {
			g.logger.Warn("skipping table in catalog summary", "table", table, "error", err)
			structure.Skipped = append(structure.Skipped, table)
			continue
		}
		structure.Tables[table] = database.TableSummary{ColumnCount: schema.ColumnCount}
		structure.TotalColumns += schema.ColumnCount
	}
	structure.TableCount = len(structure.Tables)
	return structure, nil
}

// DatabaseName returns the connected database name, empty before the
// first successful connect.
func (g *Gateway) DatabaseName() string {
	return g.driver.DatabaseName()
}

func (g *Gateway) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.queryTimeout)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joacominatel/floatgate/internal/database"
)

// errNotConnected is returned by operations issued before Connect or
// after Close.
var errNotConnected = errors.New("not connected")

// Driver implements the database.Driver interface for PostgreSQL.
// Every pooled session is forced into read-only transactions, so even a
// statement that slips past the text-level validator cannot write.
//
// The pool pointer is guarded by a mutex: Close can run concurrently with
// an in-flight query, which then holds its own pool reference and fails
// with a pool-closed error rather than touching freed state.
type Driver struct {
	mu     sync.RWMutex
	pool   *pgxpool.Pool
	dbName string
}

// New creates a new PostgreSQL driver.
func New() *Driver {
	return &Driver{}
}

// getPool snapshots the current pool for one operation.
func (d *Driver) getPool() (*pgxpool.Pool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.pool == nil {
		return nil, errNotConnected
	}
	return d.pool, nil
}

// Connect establishes a connection pool to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET default_transaction_read_only = on")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.mu.Lock()
	d.pool = pool
	d.dbName = cfg.ConnConfig.Database
	d.mu.Unlock()
	return nil
}

// Close closes the connection pool. In-flight queries complete on the
// pool they snapshotted, or fail with a pool-closed error.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	pool, err := d.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// ListTables returns all table names in the public schema, ordered by name.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	pool, err := d.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetSchema returns column and constraint metadata for a table.
func (d *Driver) GetSchema(ctx context.Context, table string) (*database.TableSchema, error) {
	columns, err := d.getColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, database.ErrTableNotFound
	}

	constraints, err := d.getConstraints(ctx, table)
	if err != nil {
		return nil, err
	}

	return &database.TableSchema{
		Table:       table,
		Columns:     columns,
		ColumnCount: len(columns),
		Constraints: constraints,
	}, nil
}

func (d *Driver) getColumns(ctx context.Context, table string) ([]database.Column, error) {
	pool, err := d.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, queryGetColumns, table)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer rows.Close()

	var columns []database.Column
	for rows.Next() {
		var col database.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default, &col.OrdinalPos); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (d *Driver) getConstraints(ctx context.Context, table string) ([]database.Constraint, error) {
	pool, err := d.getPool()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, queryGetConstraints, table)
	if err != nil {
		return nil, fmt.Errorf("get constraints: %w", err)
	}
	defer rows.Close()

	constraints := []database.Constraint{}
	for rows.Next() {
		var con database.Constraint
		var contype string
		if err := rows.Scan(&con.Name, &contype, &con.Definition); err != nil {
			return nil, fmt.Errorf("scan constraint: %w", err)
		}
		con.Type = constraintTypeName(contype)
		constraints = append(constraints, con)
	}
	return constraints, rows.Err()
}

// constraintTypeName decodes pg_constraint.contype into a readable word.
func constraintTypeName(contype string) string {
	switch contype {
	case "p":
		return "PRIMARY KEY"
	case "f":
		return "FOREIGN KEY"
	case "u":
		return "UNIQUE"
	case "c":
		return "CHECK"
	case "x":
		return "EXCLUDE"
	default:
		return contype
	}
}

// GetIndexes returns index metadata for a table. Existence is checked
// separately so a table with zero indexes is a valid empty result.
func (d *Driver) GetIndexes(ctx context.Context, table string) (*database.IndexInfo, error) {
	pool, err := d.getPool()
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := pool.QueryRow(ctx, queryTableExists, table).Scan(&exists); err != nil {
		return nil, fmt.Errorf("table exists: %w", err)
	}
	if !exists {
		return nil, database.ErrTableNotFound
	}

	rows, err := pool.Query(ctx, queryGetIndexes, table)
	if err != nil {
		return nil, fmt.Errorf("get indexes: %w", err)
	}
	defer rows.Close()

	indexes := []database.Index{}
	for rows.Next() {
		var idx database.Index
		if err := rows.Scan(&idx.Name, &idx.IsUnique, &idx.Definition); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &database.IndexInfo{
		Table:      table,
		Indexes:    indexes,
		IndexCount: len(indexes),
	}, nil
}

// ExecuteQuery runs a SQL query and returns the results. Rows beyond
// maxRows are dropped and the result is marked truncated.
func (d *Driver) ExecuteQuery(ctx context.Context, query string, maxRows int) (*database.QueryResult, error) {
	pool, err := d.getPool()
	if err != nil {
		return nil, err
	}

	start := time.Now()

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var resultRows [][]database.Value
	truncated := false
	for rows.Next() {
		if maxRows > 0 && len(resultRows) >= maxRows {
			truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]database.Value, len(values))
		for i, v := range values {
			row[i] = convertValue(v)
		}
		resultRows = append(resultRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &database.QueryResult{
		Columns:   columns,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

// DatabaseName returns the name of the connected database.
func (d *Driver) DatabaseName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dbName
}

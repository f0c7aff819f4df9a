package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joacominatel/floatgate/internal/database"
)

func TestConstraintTypeName(t *testing.T) {
	tests := map[string]string{
		"p": "PRIMARY KEY",
		"f": "FOREIGN KEY",
		"u": "UNIQUE",
		"c": "CHECK",
		"x": "EXCLUDE",
		"t": "t", // unknown types pass through
	}
	for contype, want := range tests {
		assert.Equal(t, want, constraintTypeName(contype))
	}
}

// Operations on a driver that was never connected, or whose pool was torn
// down by Close, must return a connection error instead of dereferencing a
// nil pool. Close may race with an in-flight query via the gateway.
func TestDriverClosedReturnsError(t *testing.T) {
	ctx := context.Background()

	driver := New()
	require.NoError(t, driver.Close())

	assert.ErrorIs(t, driver.Ping(ctx), errNotConnected)

	_, err := driver.ExecuteQuery(ctx, "SELECT 1", 0)
	assert.ErrorIs(t, err, errNotConnected)

	_, err = driver.ListTables(ctx)
	assert.ErrorIs(t, err, errNotConnected)

	_, err = driver.GetSchema(ctx, "argo_floats")
	assert.ErrorIs(t, err, errNotConnected)

	_, err = driver.GetIndexes(ctx, "argo_floats")
	assert.ErrorIs(t, err, errNotConnected)

	assert.Empty(t, driver.DatabaseName())
}

// TestDriverIntegration runs against a real database when
// FLOATGATE_TEST_DB_URL is set; otherwise it is skipped.
func TestDriverIntegration(t *testing.T) {
	dsn := os.Getenv("FLOATGATE_TEST_DB_URL")
	if dsn == "" {
		t.Skip("FLOATGATE_TEST_DB_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	driver := New()
	require.NoError(t, driver.Connect(ctx, dsn))
	defer func() { _ = driver.Close() }()

	require.NoError(t, driver.Ping(ctx))

	t.Run("read-only session", func(t *testing.T) {
		_, err := driver.ExecuteQuery(ctx, "CREATE TABLE floatgate_smoke (id int)", 0)
		assert.Error(t, err, "sessions must refuse writes even without the validator")
	})

	t.Run("probe query", func(t *testing.T) {
		result, err := driver.ExecuteQuery(ctx, "SELECT current_database(), current_user, version()", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.RowCount)
		assert.Len(t, result.Rows, 1)
		assert.Len(t, result.Columns, 3)
	})

	t.Run("introspection invariants", func(t *testing.T) {
		tables, err := driver.ListTables(ctx)
		require.NoError(t, err)

		for _, table := range tables {
			schema, err := driver.GetSchema(ctx, table)
			require.NoError(t, err)
			assert.Equal(t, schema.ColumnCount, len(schema.Columns), table)

			info, err := driver.GetIndexes(ctx, table)
			require.NoError(t, err)
			assert.Equal(t, info.IndexCount, len(info.Indexes), table)
		}
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := driver.GetSchema(ctx, "floatgate_no_such_table")
		assert.ErrorIs(t, err, database.ErrTableNotFound)

		_, err = driver.GetIndexes(ctx, "floatgate_no_such_table")
		assert.ErrorIs(t, err, database.ErrTableNotFound)
	})

	t.Run("row cap", func(t *testing.T) {
		result, err := driver.ExecuteQuery(ctx, "SELECT generate_series(1, 100)", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, result.RowCount)
		assert.True(t, result.Truncated)
	})
}

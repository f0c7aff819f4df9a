package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuery_Allowed(t *testing.T) {
	queries := []string{
		"SELECT * FROM argo_profiles",
		"SELECT id, temperature FROM argo_profiles WHERE id = 1",
		"select current_database(), current_user, version()",
		"  SELECT 1  ",
		"SELECT 1;",
		"WITH t AS (SELECT tablename FROM pg_tables) SELECT COUNT(*) FROM t",
		"with t as (select 1) select * from t",
		"-- leading comment\nSELECT 1",
		"/* block comment */ SELECT 1",
		// Substrings of forbidden keywords inside identifiers are fine.
		"SELECT created_at FROM floats",
		"SELECT updated_at, deleted FROM floats",
		"SELECT * FROM inserts_log",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			assert.NoError(t, CheckQuery(q))
		})
	}
}

func TestCheckQuery_Rejected(t *testing.T) {
	tests := []struct {
		query  string
		reason string
	}{
		{"DROP TABLE argo_profiles", "only SELECT and WITH"},
		{"DELETE FROM argo_profiles", "only SELECT and WITH"},
		{"UPDATE argo_profiles SET temperature = 0", "only SELECT and WITH"},
		{"INSERT INTO argo_profiles VALUES (1, 2, 3)", "only SELECT and WITH"},
		{"ALTER TABLE argo_profiles ADD COLUMN test TEXT", "only SELECT and WITH"},
		{"TRUNCATE TABLE argo_profiles", "only SELECT and WITH"},
		{"EXPLAIN SELECT 1", "only SELECT and WITH"},
		{"", "empty"},
		{"   ", "empty"},
		{"-- just a comment", "empty"},
		// Statement separators must not smuggle a second statement.
		{"SELECT 1; DROP TABLE argo_profiles", "multiple statements"},
		{"SELECT 1; SELECT 2", "multiple statements"},
		{"SELECT * FROM floats WHERE note = 'x' AND 1=1; DROP TABLE floats", "multiple statements"},
		// Modifying keywords anywhere in the text, even behind an allowed prefix.
		{"WITH d AS (DELETE FROM floats RETURNING *) SELECT * FROM d", "forbidden keyword"},
		{"SELECT 1 UNION SELECT 2 FROM grant_log CROSS JOIN GRANT", "forbidden keyword"},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			err := CheckQuery(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.reason)
		})
	}
}

func TestCheckQuery_KeywordInStringLiteralIsRejected(t *testing.T) {
	// Known limitation of the keyword-scan policy: a forbidden keyword
	// inside a string literal is falsely rejected.
	err := CheckQuery("SELECT * FROM notes WHERE body = 'please DROP me a line'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DROP")
}

func TestCheckIdentifier(t *testing.T) {
	valid := []string{"argo_profiles", "floats", "t1", "A_B_2", "_hidden"}
	for _, name := range valid {
		assert.NoError(t, CheckIdentifier(name), name)
	}

	invalid := []string{
		"",
		"'; DROP TABLE users; --",
		"argo-profiles",
		"argo profiles",
		"floats;",
		`"floats"`,
		"public.floats",
	}
	for _, name := range invalid {
		assert.Error(t, CheckIdentifier(name), name)
	}
}

package postgres

// SQL queries for PostgreSQL metadata introspection. All of them are
// read-only catalog lookups scoped to the public schema and take the table
// name as a bind parameter, never interpolated.
const (
	queryListTables = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	queryGetColumns = `
		SELECT
			column_name,
			data_type,
			is_nullable,
			COALESCE(column_default, ''),
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = $1
		ORDER BY ordinal_position`

	queryGetConstraints = `
		SELECT
			con.conname,
			con.contype::text,
			pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
		WHERE nsp.nspname = 'public'
		  AND rel.relname = $1
		ORDER BY con.conname`

	queryGetIndexes = `
		SELECT
			i.indexname,
			ix.indisunique,
			i.indexdef
		FROM pg_indexes i
		JOIN pg_class c ON c.relname = i.indexname
		JOIN pg_index ix ON ix.indexrelid = c.oid
		JOIN pg_namespace nsp ON nsp.oid = c.relnamespace
		WHERE i.schemaname = 'public'
		  AND nsp.nspname = 'public'
		  AND i.tablename = $1
		ORDER BY i.indexname`

	queryTableExists = `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			  AND table_name = $1
		)`
)

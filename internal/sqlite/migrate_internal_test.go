package sqlite

import (
	"context"
	"github.com/myrjola/faqforge/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"testing"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		schemaDefinitions []string
		testQueries       []string
		wantErr           bool
	}{
		{
			name:              "empty schema",
			schemaDefinitions: []string{""},
			testQueries:       []string{"SELECT * FROM sqlite_schema"},
		},
		{
			name:              "create table",
			schemaDefinitions: []string{"CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB)"},
			testQueries:       []string{"INSERT INTO entries (key, value) VALUES ('topics', '[]')"},
		},
		{
			name: "drop table",
			schemaDefinitions: []string{
				"CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB)",
				"",
			},
			testQueries: []string{"SELECT * FROM entries"},
			wantErr:     true,
		},
		{
			name: "add column keeps rows",
			schemaDefinitions: []string{
				"CREATE TABLE entries (key TEXT PRIMARY KEY)",
				"CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB NOT NULL DEFAULT '')",
			},
			testQueries: []string{"INSERT INTO entries (key, value) VALUES ('faqs', '[]')"},
		},
		{
			name: "remove column",
			schemaDefinitions: []string{
				"CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB)",
				"CREATE TABLE entries (key TEXT PRIMARY KEY)",
			},
			testQueries: []string{"INSERT INTO entries (key, value) VALUES ('faqs', '[]')"},
			wantErr:     true,
		},
		{
			name: "drop index",
			schemaDefinitions: []string{
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, expiry REAL); CREATE INDEX sessions_expiry ON sessions (expiry)",
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, expiry REAL)",
			},
			testQueries: []string{"DROP INDEX sessions_expiry"},
			wantErr:     true,
		},
		{
			name: "update index",
			schemaDefinitions: []string{
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, expiry REAL); CREATE INDEX sessions_expiry ON sessions (expiry)",
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, expiry REAL); CREATE INDEX sessions_expiry ON sessions (expiry, token)",
			},
			testQueries: []string{"DROP INDEX sessions_expiry"},
		},
		{
			name: "index survives table rebuild",
			schemaDefinitions: []string{
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, expiry REAL); CREATE INDEX sessions_expiry ON sessions (expiry)",
				"CREATE TABLE sessions (token TEXT PRIMARY KEY, data BLOB, expiry REAL); CREATE INDEX sessions_expiry ON sessions (expiry)",
			},
			testQueries: []string{"DROP INDEX sessions_expiry"},
		},
		{
			name: "create trigger",
			schemaDefinitions: []string{
				`CREATE TABLE entries (key TEXT PRIMARY KEY);
                 CREATE TRIGGER entries_guard AFTER INSERT ON entries BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
			},
			testQueries: []string{"INSERT INTO entries (key) VALUES ('topics')"},
			wantErr:     true,
		},
		{
			name: "delete trigger",
			schemaDefinitions: []string{
				`CREATE TABLE entries (key TEXT PRIMARY KEY);
                 CREATE TRIGGER entries_guard AFTER INSERT ON entries BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
				"CREATE TABLE entries (key TEXT PRIMARY KEY)",
			},
			testQueries: []string{"INSERT INTO entries (key) VALUES ('topics')"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			db, err := connect(":memory:", testhelpers.NewLogger(io.Discard))
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })
			for _, schemaDefinition := range tt.schemaDefinitions {
				require.NoError(t, db.migrateTo(ctx, schemaDefinition))
			}
			for _, query := range tt.testQueries {
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr {
					require.Error(t, err)
				} else {
					require.NoError(t, err)
				}
			}
		})
	}
}

func TestDatabase_migrateToPreservesData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := connect(":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.migrateTo(ctx, "CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB)"))
	_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO entries (key, value) VALUES ('topics', '[\"go\"]')")
	require.NoError(t, err)

	require.NoError(t, db.migrateTo(ctx, "CREATE TABLE entries (key TEXT PRIMARY KEY, value BLOB, updated TEXT)"))
	var value string
	require.NoError(t, db.ReadWrite.QueryRowContext(ctx, "SELECT value FROM entries WHERE key = 'topics'").Scan(&value))
	require.Equal(t, `["go"]`, value)
}

func TestNewDatabase(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	db, err := NewDatabase(ctx, ":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO state_entries (key, value) VALUES ('faqs', '[]')")
	require.NoError(t, err)
	var count int
	require.NoError(t, db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM state_entries").Scan(&count))
	require.Equal(t, 1, count)

	_, err = db.ReadOnly.ExecContext(ctx, "DELETE FROM state_entries")
	require.Error(t, err, "read-only pool must reject writes")
}

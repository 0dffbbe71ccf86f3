package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/solatis/pactkeeper/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := Open("sqlite://" + filepath.Join(t.TempDir(), "pactkeeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "leading comment does not swallow statement",
			sql:  "-- header\n\nCREATE TABLE a (id INT);\n",
			want: []string{"CREATE TABLE a (id INT)"},
		},
		{
			name: "comment between statements",
			sql:  "CREATE TABLE a (id INT);\n-- next\nCREATE INDEX i ON a (id);",
			want: []string{"CREATE TABLE a (id INT)", "CREATE INDEX i ON a (id)"},
		},
		{
			name: "only comments",
			sql:  "-- nothing here\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.sql))
		})
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openSQLite(t)

	require.NoError(t, MigrateUp(database))
	require.NoError(t, MigrateUp(database))

	statuses, err := MigrateStatus(database)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "001_initial_schema.sql", statuses[0].ID)
	assert.True(t, statuses[0].Applied)
	require.NotNil(t, statuses[0].AppliedAt)
}

func TestMigrateStatus_Pending(t *testing.T) {
	database := openSQLite(t)

	statuses, err := MigrateStatus(database)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].Applied)
	assert.Nil(t, statuses[0].AppliedAt)
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	database := openSQLite(t)
	require.NoError(t, MigrateUp(database))

	_, err := database.Exec("UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = MigrateUp(database)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch for migration 001_initial_schema.sql")
}

func TestRunStore_SQLite(t *testing.T) {
	database := openSQLite(t)
	require.NoError(t, MigrateUp(database))

	queries, err := LoadQueries(database)
	require.NoError(t, err)
	store := NewRunStore(queries)

	base := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	runs := []types.RunRecord{
		{ID: types.NewRunID(), Consumer: "web", Provider: "users", Outcome: "ok", Description: "Ok",
			StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: types.NewRunID(), Consumer: "web", Provider: "orders", Outcome: "expected_but_not_received",
			Description: "The following requests were not received:", Mismatches: 2,
			StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second)},
	}
	for _, r := range runs {
		require.NoError(t, store.Record(t.Context(), r))
	}

	got, err := store.Get(t.Context(), runs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "orders", got.Provider)
	assert.Equal(t, 2, got.Mismatches)
	assert.True(t, got.StartedAt.Equal(runs[1].StartedAt), "started_at = %v, want %v", got.StartedAt, runs[1].StartedAt)

	all, err := store.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, runs[1].ID, all[0].ID, "newest run first")

	pair, err := store.ListFor(t.Context(), "web", "users", 10)
	require.NoError(t, err)
	require.Len(t, pair, 1)
	assert.Equal(t, runs[0].ID, pair[0].ID)

	_, err = store.Get(t.Context(), types.NewRunID())
	assert.ErrorIs(t, err, types.ErrRunNotFound)

	err = store.Record(t.Context(), types.RunRecord{ID: types.NewRunID(), Outcome: "bogus", StartedAt: base, FinishedAt: base})
	assert.Error(t, err, "outcome check constraint")
}

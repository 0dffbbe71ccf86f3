package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSourceFor(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantDriver string
		wantDSN    string
		wantErr    string
	}{
		{
			name:       "relative sqlite",
			url:        "sqlite://runs.db",
			wantDriver: "sqlite3",
			wantDSN:    "runs.db?_busy_timeout=5000",
		},
		{
			name:       "absolute sqlite",
			url:        "sqlite:///var/lib/pactkeeper/runs.db",
			wantDriver: "sqlite3",
			wantDSN:    "/var/lib/pactkeeper/runs.db?_busy_timeout=5000",
		},
		{
			name:       "sqlite keeps explicit busy timeout",
			url:        "sqlite://runs.db?_busy_timeout=10",
			wantDriver: "sqlite3",
			wantDSN:    "runs.db?_busy_timeout=10",
		},
		{
			name:       "postgres passes through",
			url:        "postgres://ci:secret@db:5432/pacts?sslmode=disable",
			wantDriver: "postgres",
			wantDSN:    "postgres://ci:secret@db:5432/pacts?sslmode=disable",
		},
		{
			name:    "empty sqlite path",
			url:     "sqlite://",
			wantErr: "sqlite path is empty",
		},
		{
			name:    "unknown scheme",
			url:     "mysql://localhost/pacts",
			wantErr: "unsupported database scheme: mysql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := dataSourceFor(tt.url)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestOpen_SQLiteSingleWriter(t *testing.T) {
	database, err := Open("sqlite://" + filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer database.Close()

	assert.Equal(t, "sqlite3", database.DriverName())
	assert.Equal(t, 1, database.Stats().MaxOpenConnections)
}

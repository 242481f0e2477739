package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	names := tables(t, db)
	assert.Contains(t, names, "cache_entries")
	assert.Contains(t, names, "queued_builds")
}

func TestOpenFileIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sysbot.db")

	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cache_entries (cache_key, payload, updated_at) VALUES ('k', 'v', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&n))
	assert.Equal(t, 1, n)

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "sysbot.db?_txlock=immediate&_busy_timeout=5000", dsn("sysbot.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_txlock=immediate&_busy_timeout=5000", dsn("file:x.db?mode=rwc"))
}

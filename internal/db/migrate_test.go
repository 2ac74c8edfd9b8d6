package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name))
	return n == 1
}

func TestMigrateUpDown(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp())
	assert.True(t, tableExists(t, db, "variant_observations"))
	assert.True(t, tableExists(t, db, "region_coverage"))

	version, dirty, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Already at latest.
	require.NoError(t, db.MigrateUp())

	require.NoError(t, db.MigrateDown())
	assert.False(t, tableExists(t, db, "variant_observations"))
	assert.False(t, tableExists(t, db, "region_coverage"))
}

func TestMigrateForce(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.MigrateForce(1))
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

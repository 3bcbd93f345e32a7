package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLegacyFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "migrations.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestImportLegacyLedger(t *testing.T) {
	t.Run("Imports all names into an empty ledger and deletes the file", func(t *testing.T) {
		db := setupTestDB(t)
		path := writeLegacyFile(t, "0001_create_widgets\n0002_seed_rows\n")

		require.NoError(t, ImportLegacyLedger(db, path, testLogger()))

		ledger := NewLedgerStore(db)
		for _, name := range []string{"0001_create_widgets", "0002_seed_rows"} {
			applied, err := ledger.IsApplied(name)
			require.NoError(t, err)
			assert.True(t, applied, name)
		}

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "legacy file should be deleted")
	})

	t.Run("Second import is a no-op", func(t *testing.T) {
		db := setupTestDB(t)
		path := writeLegacyFile(t, "0001_create_widgets\n")

		require.NoError(t, ImportLegacyLedger(db, path, testLogger()))
		// File is gone after the first import, so the re-run sees nothing
		require.NoError(t, ImportLegacyLedger(db, path, testLogger()))

		count, err := NewLedgerStore(db).Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Non-empty ledger leaves the legacy file untouched", func(t *testing.T) {
		db := setupTestDB(t)
		ledger := NewLedgerStore(db)
		require.NoError(t, ledger.EnsureTable())
		require.NoError(t, ledger.RecordApplied("0001_already_here"))

		path := writeLegacyFile(t, "0002_from_legacy\n")

		require.NoError(t, ImportLegacyLedger(db, path, testLogger()))

		applied, err := ledger.IsApplied("0002_from_legacy")
		require.NoError(t, err)
		assert.False(t, applied, "legacy names must not be imported into a non-empty ledger")

		_, err = os.Stat(path)
		assert.NoError(t, err, "legacy file should remain on disk")
	})

	t.Run("Missing file is not an error", func(t *testing.T) {
		db := setupTestDB(t)
		err := ImportLegacyLedger(db, filepath.Join(t.TempDir(), "absent.txt"), testLogger())
		assert.NoError(t, err)
	})

	t.Run("Blank lines and comments are skipped", func(t *testing.T) {
		db := setupTestDB(t)
		path := writeLegacyFile(t, "# applied migrations\n\n0001_create_widgets\n\n")

		require.NoError(t, ImportLegacyLedger(db, path, testLogger()))

		count, err := NewLedgerStore(db).Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

package backup

import (
	"archive/zip"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Archive holds the store file and the photo tree", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		env.writePhoto(t, "weddings/smith-001.jpg", "jpeg-bytes-1")
		env.writePhoto(t, "weddings/smith-002.jpg", "jpeg-bytes-2")
		env.writePhoto(t, "portraits/jones-001.jpg", "jpeg-bytes-3")

		archive, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)
		require.NotNil(t, archive)
		assert.True(t, ValidArchiveName(archive.Name))
		assert.Positive(t, archive.SizeBytes)

		zr, err := zip.OpenReader(filepath.Join(env.backupDir, archive.Name))
		require.NoError(t, err)
		defer zr.Close()

		members := make(map[string]bool)
		for _, f := range zr.File {
			members[f.Name] = true
		}
		assert.True(t, members["gallery.db"])
		assert.True(t, members["images/weddings/smith-001.jpg"])
		assert.True(t, members["images/weddings/smith-002.jpg"])
		assert.True(t, members["images/portraits/jones-001.jpg"])
	})

	t.Run("Snapshot without photos still archives the store", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		archive, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)

		zr, err := zip.OpenReader(filepath.Join(env.backupDir, archive.Name))
		require.NoError(t, err)
		defer zr.Close()

		found := false
		for _, f := range zr.File {
			if f.Name == StoreMember {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Concurrent snapshots get distinct names", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		first, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)
		second, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)

		assert.NotEqual(t, first.Name, second.Name)
		assert.True(t, ValidArchiveName(second.Name))
	})

	t.Run("Listing shows newest first", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		first, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)
		second, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)

		names := env.archiveNames(t)
		require.Len(t, names, 2)
		assert.Contains(t, names, first.Name)
		assert.Equal(t, second.Name, names[0])
	})
}

func TestValidArchiveName(t *testing.T) {
	valid := []string{
		"backup-20240101-120000.zip",
		"backup-20240101-120000-2.zip",
	}
	for _, name := range valid {
		assert.True(t, ValidArchiveName(name), name)
	}

	invalid := []string{
		"../../etc/passwd",
		"backup-20240101-120000.zip/../escape",
		"backup.zip",
		"backup-20240101-120000.tar",
		"backup-2024-120000.zip",
		"",
	}
	for _, name := range invalid {
		assert.False(t, ValidArchiveName(name), name)
	}
}

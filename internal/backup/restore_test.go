package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lenskeep/lenskeep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// makeZip builds an in-memory zip from member name to contents
func makeZip(t *testing.T, members map[string][]byte) *bytes.Reader {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(contents)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

// sqliteWithoutUsers produces the bytes of a valid sqlite database that lacks
// the users table
func sqliteWithoutUsers(t *testing.T) []byte {
	path := filepath.Join(t.TempDir(), "foreign.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY)`).Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	return contents
}

// snapshotDirState captures photo file contents and the user count so tests
// can assert live state was or was not touched
func snapshotDirState(t *testing.T, env *testEnv) (map[string]string, int64) {
	photos := make(map[string]string)
	err := filepath.WalkDir(env.photosDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(env.photosDir, path)
		if err != nil {
			return err
		}
		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		photos[rel] = string(contents)
		return nil
	})
	require.NoError(t, err)
	return photos, countUsers(t, env.db)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("Build then restore is an identity transformation", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		env.writePhoto(t, "weddings/smith-001.jpg", "original-1")
		env.writePhoto(t, "portraits/jones-001.jpg", "original-2")

		beforePhotos, beforeUsers := snapshotDirState(t, env)

		archive, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)

		// Mutate everything after the snapshot
		env.writePhoto(t, "weddings/smith-001.jpg", "overwritten")
		require.NoError(t, os.Remove(filepath.Join(env.photosDir, "portraits/jones-001.jpg")))
		env.writePhoto(t, "events/new-001.jpg", "added later")
		extra := &models.User{Email: "second@lenskeep.local", Password: "x"}
		require.NoError(t, env.db.DB().Create(extra).Error)

		require.NoError(t, env.manager.RestoreFromStored(ctx, archive.Name))

		afterPhotos, afterUsers := snapshotDirState(t, env)
		assert.Equal(t, beforePhotos, afterPhotos)
		assert.Equal(t, beforeUsers, afterUsers)
	})

	t.Run("Upload lacking the store member is rejected and live state untouched", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		env.writePhoto(t, "weddings/smith-001.jpg", "original")
		beforePhotos, beforeUsers := snapshotDirState(t, env)

		upload := makeZip(t, map[string][]byte{
			"images/rogue.jpg": []byte("not a store"),
		})

		err := env.manager.RestoreFromUpload(ctx, upload)
		require.Error(t, err)
		assert.True(t, IsInvalidBackup(err))

		afterPhotos, afterUsers := snapshotDirState(t, env)
		assert.Equal(t, beforePhotos, afterPhotos)
		assert.Equal(t, beforeUsers, afterUsers)
	})

	t.Run("Upload that is not a zip is rejected as invalid backup", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		err := env.manager.RestoreFromUpload(ctx, strings.NewReader("plain text, not an archive"))
		require.Error(t, err)
		assert.True(t, IsInvalidBackup(err))
	})

	t.Run("Store file without the users table fails validation", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		beforeUsers := countUsers(t, env.db)

		upload := makeZip(t, map[string][]byte{
			StoreMember: sqliteWithoutUsers(t),
		})

		err := env.manager.RestoreFromUpload(ctx, upload)
		require.Error(t, err)
		assert.True(t, IsInvalidBackup(err))
		assert.Equal(t, beforeUsers, countUsers(t, env.db))
	})

	t.Run("Member path escaping the archive is rejected", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		upload := makeZip(t, map[string][]byte{
			"../escape.txt": []byte("zip slip"),
		})

		err := env.manager.RestoreFromUpload(ctx, upload)
		require.Error(t, err)
		assert.True(t, IsInvalidBackup(err))

		_, err = os.Stat(filepath.Join(env.backupDir, "..", "escape.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Failed restore leaves no staging directory or temp upload behind", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		upload := makeZip(t, map[string][]byte{
			"images/rogue.jpg": []byte("missing store member"),
		})
		err := env.manager.RestoreFromUpload(ctx, upload)
		require.Error(t, err)

		entries, err := os.ReadDir(env.backupDir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), "restore-"), "staging dir left behind: %s", entry.Name())
			assert.False(t, strings.HasPrefix(entry.Name(), "upload-"), "temp upload left behind: %s", entry.Name())
		}
	})

	t.Run("Successful restore leaves no staging directory behind", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		env.writePhoto(t, "weddings/smith-001.jpg", "original")

		archive, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)
		require.NoError(t, env.manager.RestoreFromStored(ctx, archive.Name))

		entries, err := os.ReadDir(env.backupDir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), "restore-"), "staging dir left behind: %s", entry.Name())
		}
	})

	t.Run("Store connection is reopened after a swap failure", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		beforeUsers := countUsers(t, env.db)

		// A staging dir with no store member makes the store copy fail
		// after the live connection has been closed
		staging := t.TempDir()
		err := env.manager.swap(staging)
		require.Error(t, err)
		assert.True(t, IsSwapFailure(err))

		require.NotNil(t, env.db.DB(), "store connection must be reopened")
		assert.Equal(t, beforeUsers, countUsers(t, env.db))
	})

	t.Run("RestoreFromStored rejects traversal names outright", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		err := env.manager.RestoreFromStored(ctx, "../../etc/passwd")
		require.Error(t, err)
		assert.True(t, IsUnsafeName(err))
	})

	t.Run("RestoreFromStored on a missing archive reports not found", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)

		err := env.manager.RestoreFromStored(ctx, "backup-20240101-120000.zip")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Restore works from a manual upload of a stored archive", func(t *testing.T) {
		env := setupTestEnv(t, 1<<30)
		env.writePhoto(t, "weddings/smith-001.jpg", "original")

		archive, err := env.manager.CreateSnapshot(ctx)
		require.NoError(t, err)

		contents, err := os.ReadFile(filepath.Join(env.backupDir, archive.Name))
		require.NoError(t, err)

		env.writePhoto(t, "weddings/smith-001.jpg", "mutated")

		require.NoError(t, env.manager.RestoreFromUpload(ctx, bytes.NewReader(contents)))

		restored, err := os.ReadFile(filepath.Join(env.photosDir, "weddings/smith-001.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "original", string(restored))
	})
}

package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lenskeep/lenskeep/internal/database"
	"github.com/lenskeep/lenskeep/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testEnv is one self-contained installation: a real sqlite store file, a
// photo tree, and a backup directory, all under a temp root
type testEnv struct {
	manager   *Manager
	db        *database.Database
	storePath string
	photosDir string
	backupDir string
}

func setupTestEnv(t *testing.T, budget int64) *testEnv {
	root := t.TempDir()

	storePath := filepath.Join(root, "data", "gallery.db")
	db := database.NewDatabase(storePath, "silent")
	require.NoError(t, db.Connect())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunBaselineMigrations(db.DB()))

	photosDir := filepath.Join(root, "images")
	require.NoError(t, os.MkdirAll(photosDir, 0755))

	backupDir := filepath.Join(root, "backups")
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	return &testEnv{
		manager:   NewManager(db, photosDir, backupDir, budget, logger),
		db:        db,
		storePath: storePath,
		photosDir: photosDir,
		backupDir: backupDir,
	}
}

// writePhoto puts a file into the photo tree, creating subdirectories
func (e *testEnv) writePhoto(t *testing.T, rel, contents string) {
	path := filepath.Join(e.photosDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

// writeFakeArchive creates a file with a valid archive name, given size and
// mod time, for retention tests that don't need real zip contents
func (e *testEnv) writeFakeArchive(t *testing.T, name string, size int64, modTime time.Time) {
	require.NoError(t, os.MkdirAll(e.backupDir, 0755))
	path := filepath.Join(e.backupDir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func (e *testEnv) archiveNames(t *testing.T) []string {
	archives, err := e.manager.ListSnapshots()
	require.NoError(t, err)
	names := make([]string, 0, len(archives))
	for _, a := range archives {
		names = append(names, a.Name)
	}
	return names
}

func countUsers(t *testing.T, db *database.Database) int64 {
	var count int64
	require.NoError(t, db.DB().Model(&models.User{}).Count(&count).Error)
	return count
}

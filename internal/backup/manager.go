package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/lenskeep/lenskeep/internal/database"
	"github.com/lenskeep/lenskeep/internal/models"
	"github.com/rs/zerolog"
)

const (
	// StoreMember is the fixed archive member name for the store file
	StoreMember = "gallery.db"
	// AssetsMember is the fixed archive member directory for the photo tree
	AssetsMember = "images"
)

// archiveNameRe is the strict filename pattern for stored archives. Every
// operator-supplied name is checked against it before any filesystem access.
var archiveNameRe = regexp.MustCompile(`^backup-\d{8}-\d{6}(-\d+)?\.zip$`)

// ValidArchiveName reports whether name matches the backup filename pattern
func ValidArchiveName(name string) bool {
	return archiveNameRe.MatchString(name)
}

// Manager owns the snapshot and restore lifecycle for one installation: the
// sqlite store, the photos directory, and the archive directory with its
// retention budget. All public operations are serialized by one mutex, so at
// most one lifecycle operation touches the store or photo tree at a time.
type Manager struct {
	db        *database.Database
	photosDir string
	backupDir string
	budget    int64
	logger    zerolog.Logger
	mu        sync.Mutex
}

// NewManager creates a backup manager
func NewManager(db *database.Database, photosDir, backupDir string, retentionBytes int64, logger zerolog.Logger) *Manager {
	return &Manager{
		db:        db,
		photosDir: photosDir,
		backupDir: backupDir,
		budget:    retentionBytes,
		logger:    logger,
	}
}

// CreateSnapshot builds a new archive of the store file and photo tree, then
// enforces the retention budget against it
func (m *Manager) CreateSnapshot(ctx context.Context) (*models.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	archive, err := m.buildArchive(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.enforceRetention(archive.Name, archive.SizeBytes); err != nil {
		return archive, fmt.Errorf("archive %s created but retention enforcement failed: %w", archive.Name, err)
	}

	m.logger.Info().
		Str("name", archive.Name).
		Int64("size_bytes", archive.SizeBytes).
		Msg("Snapshot created")

	return archive, nil
}

// ListSnapshots returns all stored archives, newest first
func (m *Manager) ListSnapshots() ([]models.Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	archives, err := m.listArchives()
	if err != nil {
		return nil, err
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.After(archives[j].CreatedAt)
	})
	return archives, nil
}

// DeleteSnapshot removes one stored archive by name
func (m *Manager) DeleteSnapshot(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ValidArchiveName(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}

	if err := os.Remove(filepath.Join(m.backupDir, name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArchiveNotFound, name)
		}
		return fmt.Errorf("failed to delete archive %s: %w", name, err)
	}

	m.logger.Info().Str("name", name).Msg("Snapshot deleted")
	return nil
}

// RestoreFromStored restores the live store and photo tree from a stored
// archive
func (m *Manager) RestoreFromStored(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !ValidArchiveName(name) {
		return fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}

	path := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArchiveNotFound, name)
		}
		return fmt.Errorf("failed to stat archive %s: %w", name, err)
	}

	return m.restore(ctx, path)
}

// RestoreFromUpload restores from an operator-uploaded archive. The upload is
// spooled to a temporary file which is removed on every path out.
func (m *Manager) RestoreFromUpload(ctx context.Context, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(m.backupDir, "upload-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temporary upload file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to spool uploaded archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary upload file: %w", err)
	}

	return m.restore(ctx, tmp.Name())
}

// listArchives reads the backup directory and returns every file matching the
// archive filename pattern
func (m *Manager) listArchives() ([]models.Archive, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var archives []models.Archive
	for _, entry := range entries {
		if entry.IsDir() || !ValidArchiveName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat archive %s: %w", entry.Name(), err)
		}
		archives = append(archives, models.Archive{
			Name:      entry.Name(),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	return archives, nil
}

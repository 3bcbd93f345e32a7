package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BulkDeleteSnapshots deletes the named archives best-effort and returns how
// many were removed. Names failing the filename pattern and names with no
// archive on disk are skipped individually; they never abort the batch.
func (m *Manager) BulkDeleteSnapshots(names []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for _, name := range names {
		if !ValidArchiveName(name) {
			m.logger.Warn().Str("name", name).Msg("Rejected unsafe archive name in bulk delete")
			continue
		}
		if err := os.Remove(filepath.Join(m.backupDir, name)); err != nil {
			if !os.IsNotExist(err) {
				m.logger.Error().Err(err).Str("name", name).Msg("Failed to delete archive in bulk delete")
			}
			continue
		}
		deleted++
	}

	m.logger.Info().
		Int("requested", len(names)).
		Int("deleted", deleted).
		Msg("Bulk delete finished")

	return deleted, nil
}

// BulkDownloadSnapshots streams one combined zip containing the named
// archives as members. Every name is validated before any file is touched;
// an unsafe name fails the whole download rather than producing a partial
// container.
func (m *Manager) BulkDownloadSnapshots(names []string, w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range names {
		if !ValidArchiveName(name) {
			return fmt.Errorf("%w: %q", ErrUnsafeName, name)
		}
	}

	zw := zip.NewWriter(w)
	for _, name := range names {
		path := filepath.Join(m.backupDir, name)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				m.logger.Warn().Str("name", name).Msg("Skipping missing archive in bulk download")
				continue
			}
			zw.Close()
			return fmt.Errorf("failed to stat archive %s: %w", name, err)
		}
		if err := addFileToZip(zw, path, name); err != nil {
			zw.Close()
			return fmt.Errorf("failed to add archive %s to download: %w", name, err)
		}
	}

	return zw.Close()
}

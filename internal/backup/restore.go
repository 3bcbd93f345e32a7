package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// restore runs the full restore sequence against one archive file: extract
// into a fresh staging directory, validate the staged store, then swap live
// state. The staging directory is removed on every path out, success or
// failure, so a failed restore leaves nothing behind.
func (m *Manager) restore(ctx context.Context, archivePath string) error {
	staging := filepath.Join(m.backupDir, "restore-"+uuid.NewString())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			m.logger.Error().Err(err).Str("staging", staging).Msg("Failed to clean up staging directory")
		}
	}()

	if err := m.extractArchive(ctx, archivePath, staging); err != nil {
		return err
	}
	if err := m.validateStaged(staging); err != nil {
		return err
	}
	if err := m.swap(staging); err != nil {
		return err
	}

	m.logger.Info().Str("archive", filepath.Base(archivePath)).Msg("Restore complete")
	return nil
}

// extractArchive unpacks the archive into the staging directory. Member paths
// are checked against traversal before anything is written.
func (m *Manager) extractArchive(ctx context.Context, archivePath, staging string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return &InvalidBackupError{Reason: "not a zip archive"}
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Clean(filepath.FromSlash(member.Name))
		if filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) {
			return &InvalidBackupError{Reason: fmt.Sprintf("member path escapes archive: %q", member.Name)}
		}
		target := filepath.Join(staging, name)

		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		if err := extractMember(member, target); err != nil {
			return err
		}
	}

	return nil
}

func extractMember(member *zip.File, target string) error {
	in, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", member.Name, err)
	}
	return out.Close()
}

// validateStaged confirms the staged store file is a well-formed gallery
// database before any live state is touched. The probe is structural: the
// file must open as sqlite and contain the users table.
func (m *Manager) validateStaged(staging string) error {
	stagedStore := filepath.Join(staging, StoreMember)
	if _, err := os.Stat(stagedStore); err != nil {
		if os.IsNotExist(err) {
			return &InvalidBackupError{Reason: fmt.Sprintf("archive has no %s member", StoreMember)}
		}
		return fmt.Errorf("failed to stat staged store: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(stagedStore), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return &InvalidBackupError{Reason: fmt.Sprintf("store file does not open as sqlite: %v", err)}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return &InvalidBackupError{Reason: fmt.Sprintf("store file does not open as sqlite: %v", err)}
	}
	defer sqlDB.Close()

	var count int64
	err = db.Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&count).Error
	if err != nil {
		return &InvalidBackupError{Reason: fmt.Sprintf("store file is not a gallery database: %v", err)}
	}
	if count == 0 {
		return &InvalidBackupError{Reason: "store file has no users table"}
	}

	return nil
}

// swap replaces live state with the staged content: first the store file,
// then the photo tree. A failure here can leave store and photos mismatched,
// which is why every error is wrapped as a swap failure. The store connection
// is reopened even when a step fails, so a failed swap does not also take the
// application offline.
func (m *Manager) swap(staging string) error {
	if err := m.db.Close(); err != nil {
		return &SwapError{Step: "store close", Cause: err}
	}

	if err := m.swapContents(staging); err != nil {
		if rerr := m.db.Reconnect(); rerr != nil {
			m.logger.Error().Err(rerr).Msg("Failed to reopen store after swap failure")
		}
		return err
	}

	if err := m.db.Reconnect(); err != nil {
		return &SwapError{Step: "store reopen", Cause: err}
	}

	return nil
}

func (m *Manager) swapContents(staging string) error {
	if err := copyFile(filepath.Join(staging, StoreMember), m.db.Path()); err != nil {
		return &SwapError{Step: "store copy", Cause: err}
	}

	stagedAssets := filepath.Join(staging, AssetsMember)
	if info, err := os.Stat(stagedAssets); err == nil && info.IsDir() {
		if err := os.RemoveAll(m.photosDir); err != nil {
			return &SwapError{Step: "photos remove", Cause: err}
		}
		if err := atomicReplace(stagedAssets, m.photosDir); err != nil {
			return &SwapError{Step: "photos replace", Cause: err}
		}
	} else if err != nil && !os.IsNotExist(err) {
		return &SwapError{Step: "photos stat", Cause: err}
	}

	return nil
}

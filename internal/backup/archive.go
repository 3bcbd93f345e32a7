package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lenskeep/lenskeep/internal/models"
)

// buildArchive streams the store file and the photo tree into a new zip
// written directly at its final location. A failed build is removed so a
// truncated archive is never visible to listing.
func (m *Manager) buildArchive(ctx context.Context) (*models.Archive, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name, err := m.allocateName(time.Now())
	if err != nil {
		return nil, err
	}
	path := filepath.Join(m.backupDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive %s: %w", name, err)
	}

	zw := zip.NewWriter(f)
	err = m.writeArchiveContents(ctx, zw)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to build archive %s: %w", name, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive %s: %w", name, err)
	}

	return &models.Archive{
		Name:      name,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// writeArchiveContents writes the two top-level members: the store file under
// its fixed name and the photo tree under the fixed directory name
func (m *Manager) writeArchiveContents(ctx context.Context, zw *zip.Writer) error {
	if err := addFileToZip(zw, m.db.Path(), StoreMember); err != nil {
		return err
	}
	return addTreeToZip(ctx, zw, m.photosDir, AssetsMember)
}

// allocateName derives a collision-free archive name from the timestamp
func (m *Manager) allocateName(now time.Time) (string, error) {
	base := now.Format("20060102-150405")
	name := fmt.Sprintf("backup-%s.zip", base)
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(m.backupDir, name)); os.IsNotExist(err) {
			return name, nil
		} else if err != nil {
			return "", fmt.Errorf("failed to allocate archive name: %w", err)
		}
		name = fmt.Sprintf("backup-%s-%d.zip", base, i)
	}
}

// addFileToZip copies one file into the zip under the given member name
func addFileToZip(zw *zip.Writer, path, member string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = member
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return nil
}

// addTreeToZip walks root and writes its contents under the prefix directory,
// preserving structure. A missing root is not an error: an installation may
// have no photos yet.
func addTreeToZip(ctx context.Context, zw *zip.Writer, root, prefix string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		member := prefix
		if rel != "." {
			member = filepath.ToSlash(filepath.Join(prefix, rel))
		}

		if d.IsDir() {
			// Directory entry keeps empty galleries in the archive
			_, err := zw.Create(member + "/")
			return err
		}
		return addFileToZip(zw, path, member)
	})
}

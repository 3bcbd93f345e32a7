package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies src to dst, truncating dst if it exists. The write is
// synced before returning.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync %s: %w", dst, err)
	}
	return out.Close()
}

// copyDir recursively copies the tree rooted at src into dst
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

// atomicReplace moves src to dst, preferring a native rename. When rename is
// unavailable (cross-volume moves, locked files) it falls back to a recursive
// copy and removes the source afterwards.
func atomicReplace(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyDir(src, dst); err != nil {
		return fmt.Errorf("copy fallback failed: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("failed to remove copy source %s: %w", src, err)
	}
	return nil
}

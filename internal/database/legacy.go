package database

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ImportLegacyLedger converts the old flat-file migration ledger into
// schema_migrations rows, then deletes the file. It runs once: if the ledger
// already has entries the file is left untouched, which keeps a re-run after
// a partial prior import from doubling up.
func ImportLegacyLedger(db *gorm.DB, path string, logger zerolog.Logger) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to stat legacy ledger %s: %w", path, err)
	}

	ledger := NewLedgerStore(db)
	if err := ledger.EnsureTable(); err != nil {
		return err
	}

	count, err := ledger.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warn().
			Str("path", path).
			Int64("ledger_entries", count).
			Msg("Ledger is not empty, ignoring legacy ledger file")
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open legacy ledger %s: %w", path, err)
	}
	defer file.Close()

	imported := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if err := ledger.RecordApplied(name); err != nil {
			return err
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read legacy ledger %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close legacy ledger %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove legacy ledger %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("imported", imported).
		Msg("Imported legacy migration ledger")

	return nil
}

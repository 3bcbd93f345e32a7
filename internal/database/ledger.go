package database

import (
	"fmt"
	"time"

	"github.com/lenskeep/lenskeep/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerStore is the durable record of applied migrations, backed by the
// schema_migrations table in the store it governs. There is no fallback
// ledger: if the store is unavailable every operation fails.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore creates a ledger store over the given connection. Passing a
// transaction handle groups ledger writes with the schema writes they record.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// EnsureTable creates the schema_migrations table if it does not exist
func (l *LedgerStore) EnsureTable() error {
	if err := l.db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// RecordApplied marks a migration as applied. Recording an already-applied
// name is a no-op, not an error.
func (l *LedgerStore) RecordApplied(name string) error {
	record := &models.SchemaMigration{
		Name:      name,
		AppliedAt: time.Now(),
	}
	if err := l.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(record).Error; err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return nil
}

// IsApplied reports whether a migration name is present in the ledger
func (l *LedgerStore) IsApplied(name string) (bool, error) {
	var count int64
	if err := l.db.Model(&models.SchemaMigration{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to query migration %s: %w", name, err)
	}
	return count > 0, nil
}

// AppliedNames returns all applied migration names in ascending order
func (l *LedgerStore) AppliedNames() ([]string, error) {
	var names []string
	if err := l.db.Model(&models.SchemaMigration{}).Order("name asc").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return names, nil
}

// Count returns the number of ledger entries
func (l *LedgerStore) Count() (int64, error) {
	var count int64
	if err := l.db.Model(&models.SchemaMigration{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

// Remove deletes a ledger entry. Only an explicit revert removes entries.
func (l *LedgerStore) Remove(name string) error {
	if err := l.db.Where("name = ?", name).Delete(&models.SchemaMigration{}).Error; err != nil {
		return fmt.Errorf("failed to remove ledger entry %s: %w", name, err)
	}
	return nil
}

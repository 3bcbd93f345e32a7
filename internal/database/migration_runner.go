package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lenskeep/lenskeep/internal/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrRevertUnsupported is returned when the most recent migration has no
// revert. Some schema changes are one-way (sqlite cannot drop columns on all
// deployed versions), so callers treat this as a normal outcome.
var ErrRevertUnsupported = errors.New("migration has no revert")

// MigrationFunc is a function that performs a migration step
type MigrationFunc func(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error

// Migration represents one named schema transformation. Names sort
// lexicographically and sort order is apply order, so names carry a numeric
// prefix. Revert may be nil for transformations that cannot be undone.
type Migration struct {
	Name   string
	Apply  MigrationFunc
	Revert MigrationFunc
}

// MigrationRunner applies registered migrations in name order, consulting the
// ledger to skip those already applied
type MigrationRunner struct {
	db         *gorm.DB
	logger     zerolog.Logger
	migrations []Migration
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *gorm.DB, logger zerolog.Logger) *MigrationRunner {
	return &MigrationRunner{
		db:         db,
		logger:     logger,
		migrations: []Migration{},
	}
}

// Register adds a migration to the runner
func (r *MigrationRunner) Register(migration Migration) {
	r.migrations = append(r.migrations, migration)
}

// Run executes all pending migrations in name order. It stops at the first
// failure: later migrations are not attempted and the store is left at the
// last successfully applied one.
func (r *MigrationRunner) Run(ctx context.Context) error {
	ledger := NewLedgerStore(r.db)
	if err := ledger.EnsureTable(); err != nil {
		return err
	}

	// Registration order is irrelevant; names define apply order
	sort.Slice(r.migrations, func(i, j int) bool {
		return r.migrations[i].Name < r.migrations[j].Name
	})

	applied, err := ledger.AppliedNames()
	if err != nil {
		return err
	}

	appliedMap := make(map[string]bool)
	for _, name := range applied {
		appliedMap[name] = true
	}

	for _, migration := range r.migrations {
		if appliedMap[migration.Name] {
			r.logger.Debug().
				Str("name", migration.Name).
				Msg("Migration already applied, skipping")
			continue
		}

		r.logger.Info().
			Str("name", migration.Name).
			Msg("Running migration")

		tx := r.db.Begin()
		if tx.Error != nil {
			return fmt.Errorf("failed to start transaction: %w", tx.Error)
		}

		if err := migration.Apply(ctx, tx, r.logger); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		if err := NewLedgerStore(tx).RecordApplied(migration.Name); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit().Error; err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", migration.Name, err)
		}

		r.logger.Info().
			Str("name", migration.Name).
			Msg("Migration completed successfully")
	}

	return nil
}

// Pending returns the migrations that have not been applied yet, in apply order
func (r *MigrationRunner) Pending() ([]Migration, error) {
	ledger := NewLedgerStore(r.db)
	if err := ledger.EnsureTable(); err != nil {
		return nil, err
	}

	applied, err := ledger.AppliedNames()
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[string]bool)
	for _, name := range applied {
		appliedMap[name] = true
	}

	sort.Slice(r.migrations, func(i, j int) bool {
		return r.migrations[i].Name < r.migrations[j].Name
	})

	var pending []Migration
	for _, migration := range r.migrations {
		if !appliedMap[migration.Name] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// RevertLast reverts the most recently applied migration and removes its
// ledger entry. Only single-step rollback is supported. Returns the reverted
// name, or ErrRevertUnsupported when the migration is one-way.
func (r *MigrationRunner) RevertLast(ctx context.Context) (string, error) {
	var last models.SchemaMigration
	if err := r.db.Order("name desc").First(&last).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("no migrations have been applied")
		}
		return "", fmt.Errorf("failed to read ledger: %w", err)
	}

	var target *Migration
	for i := range r.migrations {
		if r.migrations[i].Name == last.Name {
			target = &r.migrations[i]
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("migration %s is recorded but not registered", last.Name)
	}
	if target.Revert == nil {
		return last.Name, ErrRevertUnsupported
	}

	r.logger.Info().
		Str("name", target.Name).
		Msg("Reverting migration")

	tx := r.db.Begin()
	if tx.Error != nil {
		return "", fmt.Errorf("failed to start transaction: %w", tx.Error)
	}

	if err := target.Revert(ctx, tx, r.logger); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("revert of %s failed: %w", target.Name, err)
	}

	if err := NewLedgerStore(tx).Remove(target.Name); err != nil {
		tx.Rollback()
		return "", err
	}

	if err := tx.Commit().Error; err != nil {
		return "", fmt.Errorf("failed to commit revert of %s: %w", target.Name, err)
	}

	r.logger.Info().
		Str("name", target.Name).
		Msg("Migration reverted")

	return target.Name, nil
}

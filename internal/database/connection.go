package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database manages the sqlite connection and exposes the backing file path.
// The backup subsystem copies the file into archives and swaps it out during
// restore, which is why the path is part of the public surface.
type Database struct {
	db       *gorm.DB
	path     string
	logLevel string
	mu       sync.RWMutex
}

// NewDatabase creates a new Database instance for the given sqlite file
func NewDatabase(path, logLevel string) *Database {
	return &Database{
		path:     path,
		logLevel: logLevel,
	}
}

// Connect opens the sqlite database, creating the parent directory if needed
func (d *Database) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connectLocked()
}

func (d *Database) connectLocked() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(d.getLogLevel()),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", d.path)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to open store at %s: %w", d.path, err)
	}

	d.db = db
	return nil
}

// Reconnect closes the current connection and reopens the backing file.
// Restore calls this after swapping the store file.
func (d *Database) Reconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.closeLocked(); err != nil {
		return err
	}
	return d.connectLocked()
}

// Health checks the database connection health
func (d *Database) Health(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return fmt.Errorf("database not connected")
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *Database) closeLocked() error {
	if d.db == nil {
		return nil
	}

	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	d.db = nil
	return nil
}

// DB returns the underlying gorm.DB instance
func (d *Database) DB() *gorm.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// SetDB sets the underlying gorm.DB instance (for testing)
func (d *Database) SetDB(db *gorm.DB) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.db = db
}

// Path returns the filesystem path of the backing store file
func (d *Database) Path() string {
	return d.path
}

// WithTransaction executes a function within a database transaction
func (d *Database) WithTransaction(fn func(*gorm.DB) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return fmt.Errorf("database not connected")
	}

	return d.db.Transaction(fn)
}

// getLogLevel returns the GORM log level from config
func (d *Database) getLogLevel() logger.LogLevel {
	switch d.logLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Error
	}
}

package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddClientAccessIndex indexes client access codes for the gallery login path
func AddClientAccessIndex(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Creating client access code index")

	return db.WithContext(ctx).Exec(`
		CREATE INDEX IF NOT EXISTS idx_clients_access_code
		ON clients(access_code)
	`).Error
}

// DropClientAccessIndex removes the client access code index
func DropClientAccessIndex(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Dropping client access code index")

	return db.WithContext(ctx).Exec(`DROP INDEX IF EXISTS idx_clients_access_code`).Error
}

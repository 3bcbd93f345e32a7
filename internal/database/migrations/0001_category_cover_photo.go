package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddCategoryCoverPhoto adds the cover photo reference to categories so a
// gallery can pin one image as its thumbnail
func AddCategoryCoverPhoto(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Adding cover photo column to categories table")

	if !db.Migrator().HasColumn("categories", "cover_photo_id") {
		if err := db.Exec(`
			ALTER TABLE categories
			ADD COLUMN cover_photo_id INTEGER
		`).Error; err != nil {
			return err
		}
		logger.Info().Msg("Added cover_photo_id column")
	}

	return nil
}

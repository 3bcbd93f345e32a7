package migrations

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// BackfillPhotoPositions assigns an explicit position to photos that still
// have the zero default, ordered by upload time within each gallery
func BackfillPhotoPositions(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Backfilling photo positions")

	return db.WithContext(ctx).Exec(`
		UPDATE photos
		SET position = (
			SELECT COUNT(*)
			FROM photos AS earlier
			WHERE earlier.category_id = photos.category_id
			  AND earlier.id < photos.id
		)
		WHERE position = 0
	`).Error
}

// RevertPhotoPositions resets all photo positions to the zero default
func RevertPhotoPositions(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	logger.Info().Msg("Resetting photo positions")

	return db.WithContext(ctx).Exec(`UPDATE photos SET position = 0`).Error
}

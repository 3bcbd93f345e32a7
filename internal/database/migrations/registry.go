package migrations

import (
	"github.com/lenskeep/lenskeep/internal/database"
)

// GetMigrations returns all registered migrations. The runner sorts by name,
// so registration order here does not matter.
func GetMigrations() []database.Migration {
	return []database.Migration{
		{
			Name:  "0001_category_cover_photo",
			Apply: AddCategoryCoverPhoto,
			// Column drop is unavailable on older sqlite, so this
			// migration is one-way.
		},
		{
			Name:   "0002_photo_position_backfill",
			Apply:  BackfillPhotoPositions,
			Revert: RevertPhotoPositions,
		},
		{
			Name:   "0003_client_access_index",
			Apply:  AddClientAccessIndex,
			Revert: DropClientAccessIndex,
		},
	}
}

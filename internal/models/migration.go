package models

import (
	"time"
)

// SchemaMigration is the ledger row recording one applied migration. A
// migration is applied if and only if a row with its name exists; the ledger
// lives in the same store it governs so the apply and the record can share a
// transaction.
type SchemaMigration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// TableName ensures consistent table naming
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

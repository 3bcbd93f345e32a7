package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is a gallery of photos shown on the public site
type Category struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	DisplayOrder int            `gorm:"default:0;index" json:"display_order"`
	Photos       []Photo        `gorm:"foreignKey:CategoryID" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Client is a customer with password-protected access to selected galleries
type Client struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Name       string         `gorm:"not null" json:"name"`
	AccessCode string         `gorm:"not null" json:"-"`
	CategoryID *uint          `gorm:"index" json:"category_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Photo is one image in a gallery. The binary payload lives on disk under the
// photos directory; the row only records metadata.
type Photo struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CategoryID uint           `gorm:"not null;index" json:"category_id"`
	Category   Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Filename   string         `gorm:"not null" json:"filename"`
	Caption    string         `json:"caption"`
	Position   int            `gorm:"default:0" json:"position"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

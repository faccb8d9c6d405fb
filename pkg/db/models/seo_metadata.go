package models

import (
	"time"

	"github.com/google/uuid"
)

// SEOMetadata stores meta tags for a storefront path.
type SEOMetadata struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Path        string    `gorm:"column:path;not null;uniqueIndex"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description"`
	Keywords    *string   `gorm:"column:keywords"`
	OGImage     *string   `gorm:"column:og_image"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SEOMetadata) TableName() string {
	return "seo_metadata"
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductSEO carries per-product meta tags for the storefront.
type ProductSEO struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	MetaTitle       *string   `gorm:"column:meta_title"`
	MetaDescription *string   `gorm:"column:meta_description"`
	MetaKeywords    *string   `gorm:"column:meta_keywords"`
	OGImage         *string   `gorm:"column:og_image"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

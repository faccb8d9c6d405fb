package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Product represents the canonical catalog listing. Rating aggregates are
// recomputed from approved reviews during moderation.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID      *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Name            string              `gorm:"column:name;not null"`
	Slug            string              `gorm:"column:slug;not null;uniqueIndex"`
	Description     *string             `gorm:"column:description"`
	Status          enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	Badge           *string             `gorm:"column:badge"`
	AvgRating       float64             `gorm:"column:avg_rating;not null;default:0"`
	ReviewCount     int                 `gorm:"column:review_count;not null;default:0"`
	HasVideoReviews bool                `gorm:"column:has_video_reviews;not null;default:false"`
	Category        *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Variations      []ProductVariation  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images          []ProductImage      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	SEO             *ProductSEO         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/types"
)

// ProductVariation is a purchasable SKU of a product. PriceCents must be
// positive; Attributes holds the validated key/values bag (color, size).
type ProductVariation struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	SKU               string             `gorm:"column:sku;not null;uniqueIndex"`
	PriceCents        int                `gorm:"column:price_cents;not null"`
	ComparePriceCents *int               `gorm:"column:compare_price_cents"`
	Stock             int                `gorm:"column:stock;not null;default:0"`
	Attributes        types.AttributeBag `gorm:"column:attributes;type:jsonb;serializer:json"`
	WeightGrams       *int               `gorm:"column:weight_grams"`
	Dimensions        *string            `gorm:"column:dimensions"`
	IsDefault         bool               `gorm:"column:is_default;not null;default:false"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

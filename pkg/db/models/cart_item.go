package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line of a cart. PriceCents snapshots the unit price at the
// time the line was added. One line exists per (cart, product, variation).
type CartItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:uq_cart_items_line,priority:1"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_cart_items_line,priority:2"`
	VariationID *uuid.UUID        `gorm:"column:variation_id;type:uuid;uniqueIndex:uq_cart_items_line,priority:3"`
	Quantity    int               `gorm:"column:quantity;not null"`
	PriceCents  int               `gorm:"column:price_cents;not null"`
	Product     *Product          `gorm:"foreignKey:ProductID"`
	Variation   *ProductVariation `gorm:"foreignKey:VariationID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a priced line of an order. Name and SKU are copied from the
// catalog at creation so later catalog edits do not rewrite history.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariationID    *uuid.UUID `gorm:"column:variation_id;type:uuid"`
	ProductName    string     `gorm:"column:product_name;not null"`
	SKU            string     `gorm:"column:sku;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	SubtotalCents  int        `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// ShippingFee is the fee table row for one order kind (cod or prepaid).
type ShippingFee struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind        enums.ShippingFeeKind `gorm:"column:kind;not null;uniqueIndex"`
	AmountCents int                   `gorm:"column:amount_cents;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

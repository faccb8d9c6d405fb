package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/velora-labs/velora-backend/pkg/enums"
	"github.com/velora-labs/velora-backend/pkg/types"
)

// Coupon is a discount code. Code is stored upper-cased. Nil applicable
// lists mean the coupon applies to the whole catalog; a nil PerUserLimit
// means single use per user.
type Coupon struct {
	ID                   uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string           `gorm:"column:code;not null;uniqueIndex"`
	Type                 enums.CouponType `gorm:"column:type;not null"`
	Value                decimal.Decimal  `gorm:"column:value;type:numeric(10,2);not null"`
	MinPurchaseCents     int              `gorm:"column:min_purchase_cents;not null;default:0"`
	MaxDiscountCents     *int             `gorm:"column:max_discount_cents"`
	StartDate            time.Time        `gorm:"column:start_date;not null"`
	EndDate              time.Time        `gorm:"column:end_date;not null"`
	UsageLimit           *int             `gorm:"column:usage_limit"`
	UsageCount           int              `gorm:"column:usage_count;not null;default:0"`
	PerUserLimit         *int             `gorm:"column:per_user_limit"`
	ApplicableProducts   types.UUIDList   `gorm:"column:applicable_products;type:jsonb;serializer:json"`
	ApplicableCategories types.UUIDList   `gorm:"column:applicable_categories;type:jsonb;serializer:json"`
	IsActive             bool             `gorm:"column:is_active;not null;default:true"`
	Usages               []CouponUsage    `gorm:"foreignKey:CouponID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Order is the persisted purchase. FinalCents always equals
// TotalCents + ShippingFeeCents; any coupon discount is subtracted from
// TotalCents before the row is written.
type Order struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	OrderNumber       string               `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number"`
	TotalCents        int                  `gorm:"column:total_cents;not null"`
	DiscountCents     int                  `gorm:"column:discount_cents;not null;default:0"`
	ShippingFeeCents  int                  `gorm:"column:shipping_fee_cents;not null;default:0"`
	FinalCents        int                  `gorm:"column:final_cents;not null"`
	PaymentType       enums.PaymentType    `gorm:"column:payment_type;not null"`
	PaymentStatus     enums.PaymentStatus  `gorm:"column:payment_status;not null;default:'pending'"`
	Status            enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	ShippingAddressID uuid.UUID            `gorm:"column:shipping_address_id;type:uuid;not null"`
	CouponCode        *string              `gorm:"column:coupon_code"`
	Items             []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment           *Payment             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress   *ShippingAddress     `gorm:"foreignKey:ShippingAddressID"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Payment is the single payment row of an order. Refunds live in their own
// table and reference the payment they reverse.
type Payment struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	PaymentType    enums.PaymentType   `gorm:"column:payment_type;not null"`
	TransactionID  *string             `gorm:"column:transaction_id"`
	GatewayOrderID *string             `gorm:"column:gateway_order_id"`
	AmountCents    int                 `gorm:"column:amount_cents;not null"`
	Status         enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Refunds        []Refund            `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

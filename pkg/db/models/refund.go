package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Refund reverses (part of) a Payment. Amounts are positive; the sign-based
// negative-payment convention is not used.
type Refund struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID     uuid.UUID          `gorm:"column:payment_id;type:uuid;not null"`
	OrderID       uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	AmountCents   int                `gorm:"column:amount_cents;not null"`
	Reason        *string            `gorm:"column:reason"`
	TransactionID string             `gorm:"column:transaction_id;not null"`
	Status        enums.RefundStatus `gorm:"column:status;not null;default:'pending'"`
	InitiatedBy   *uuid.UUID         `gorm:"column:initiated_by;type:uuid"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

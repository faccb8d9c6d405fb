package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of an order. Rows are
// never updated or deleted.
type OrderStatusHistory struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	UpdatedBy *uuid.UUID        `gorm:"column:updated_by;type:uuid"`
	Notes     *string           `gorm:"column:notes"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

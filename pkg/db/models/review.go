package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// Review is a product review from an account holder (UserID set) or a guest
// (GuestName/GuestEmail set). Reviews are created pending and only count
// toward product aggregates once approved.
type Review struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID        uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	UserID           *uuid.UUID         `gorm:"column:user_id;type:uuid"`
	GuestName        *string            `gorm:"column:guest_name"`
	GuestEmail       *string            `gorm:"column:guest_email"`
	Rating           int                `gorm:"column:rating;not null"`
	Title            *string            `gorm:"column:title"`
	Body             *string            `gorm:"column:body"`
	Status           enums.ReviewStatus `gorm:"column:status;not null;default:'pending'"`
	VerifiedPurchase bool               `gorm:"column:verified_purchase;not null;default:false"`
	IsFeatured       bool               `gorm:"column:is_featured;not null;default:false"`
	Images           []ReviewImage      `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/velora-backend/pkg/enums"
)

// User represents a storefront consumer or dashboard admin. PasswordHash is
// nil for accounts created through OAuth.
type User struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username      string            `gorm:"column:username;not null"`
	Email         string            `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash  *string           `gorm:"column:password_hash"`
	Role          enums.UserRole    `gorm:"column:role;not null;default:'consumer'"`
	OAuthProvider *string           `gorm:"column:oauth_provider"`
	OAuthID       *string           `gorm:"column:oauth_id"`
	ProfileImage  *string           `gorm:"column:profile_image"`
	Addresses     []ShippingAddress `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

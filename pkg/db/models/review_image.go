package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewImage is an uploaded media file attached to a review.
type ReviewImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewID  uuid.UUID `gorm:"column:review_id;type:uuid;not null"`
	FilePath  string    `gorm:"column:file_path;not null"`
	IsVideo   bool      `gorm:"column:is_video;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

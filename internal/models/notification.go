package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is materialized by the notification bridge. ContentHash is
// computed over the marker-encoded (message, link) text, so the composite
// unique index makes duplicate inserts fail fast instead of relying on a
// read-then-write existence check.
type Notification struct {
	BaseModel
	UserID      string `gorm:"not null;index;uniqueIndex:idx_notifications_user_content"`
	ContentHash string `gorm:"not null;uniqueIndex:idx_notifications_user_content"`
	Message     string `gorm:"not null"`
	Link        string
	Data        datatypes.JSON // {"payment_id": "...", "reference": "..."}
	IsRead      bool           `gorm:"default:false"`
	ReadAt      *time.Time
}

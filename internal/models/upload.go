package models

import "time"

type Upload struct {
	BaseModel
	UserID     string `gorm:"not null;index"`
	EntityType string // "payment", "support_message", "profile"
	EntityID   string
	FileType   string // "image", "document"
	Usage      string // "receipt", "proof_of_payment", "attachment"
	Path       string `gorm:"not null"`
	MimeType   string
	Size       int64
	IsPublic   bool `gorm:"default:false"`

	OriginalName    string     `gorm:"column:original_name"`
	URL             string     `gorm:"column:url"`
	StorageProvider string     `gorm:"column:storage_provider;default:'local'"` // 'local', 's3'
	ExpiresAt       *time.Time `gorm:"column:expires_at"`
}

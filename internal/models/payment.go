package models

import "time"

type Payment struct {
	BaseModel
	StudentID   string        `gorm:"not null;index"`
	Amount      float64       `gorm:"not null"`
	Status      PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Method      PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference   string        `gorm:"uniqueIndex;not null"` // invoice id passed to the checkout provider
	Description string
	Term        string `gorm:"index"` // e.g. "2025-2026 1st Semester"
	RecordedBy  string // cashier user id for over-the-counter payments
	PaidAt      *time.Time
}

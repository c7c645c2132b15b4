package models

import "time"

// SupportMessage is a student-to-cashier inquiry. A cashier answering the
// message sets Response and flips the status; students get an unread marker
// until they open the answer.
type SupportMessage struct {
	BaseModel
	StudentID   string        `gorm:"not null;index"`
	CashierID   string        `gorm:"index"` // assigned on response
	Subject     string        `gorm:"not null"`
	Body        string        `gorm:"not null"`
	Response    string
	Status      MessageStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	StudentRead bool          `gorm:"default:true"` // false once answered, true after the student opens it
	RespondedAt *time.Time
}

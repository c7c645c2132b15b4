package models

import "time"

type User struct {
	BaseModel
	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"type:varchar(20);not null"`
	Status       UserStatus `gorm:"type:varchar(20);default:'pending'"`
	StudentNo    string     `gorm:"index"` // empty for staff accounts
	Program      string
	YearLevel    int

	// Relations
	Payments      []Payment        `gorm:"foreignKey:StudentID"`
	Messages      []SupportMessage `gorm:"foreignKey:StudentID"`
	Notifications []Notification   `gorm:"foreignKey:UserID"`
	RefreshTokens []RefreshToken   `gorm:"foreignKey:UserID"`
}

type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}

package models

import "strings"

type UserStatus string
type UserRole string
type PaymentStatus string
type PaymentMethod string
type MessageStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleStudent        UserRole = "student"
	UserRoleCashier        UserRole = "cashier"
	UserRoleBusinessOffice UserRole = "business_office"
	UserRoleAdmin          UserRole = "admin"

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"

	PaymentMethodOnline      PaymentMethod = "online"
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodBankDeposit PaymentMethod = "bank_deposit"

	MessageStatusOpen     MessageStatus = "open"
	MessageStatusAnswered MessageStatus = "answered"
	MessageStatusClosed   MessageStatus = "closed"
)

// NormalizeRole maps role strings from external sources (legacy exports used
// "business-office", "businessOffice" and "business_office" interchangeably)
// to the canonical UserRole. Unknown spellings return false.
func NormalizeRole(raw string) (UserRole, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	switch s {
	case "student":
		return UserRoleStudent, true
	case "cashier":
		return UserRoleCashier, true
	case "business_office", "businessoffice":
		return UserRoleBusinessOffice, true
	case "admin", "administrator":
		return UserRoleAdmin, true
	default:
		return "", false
	}
}

// IsCollected reports whether a payment in this status counts toward the
// collected total. The legacy gateway wrote "Completed" and the current one
// writes "Succeeded"; both mean money in.
func (s PaymentStatus) IsCollected() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusSucceeded
}

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusSucceeded,
		PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodOnline, PaymentMethodCash, PaymentMethodBankDeposit:
		return true
	}
	return false
}

package auth

import "schoolpay_backend/internal/models"

// Role-based permissions for the portal. Students see only their own money;
// cashiers work the counter; the business office reads everything but writes
// nothing financial; admins administer.
var Permissions = map[models.UserRole][]string{
	models.UserRoleAdmin: {
		"users:read",
		"users:write",
		"payments:read",
		"payments:write",
		"reports:read",
		"system:admin",
	},
	models.UserRoleBusinessOffice: {
		"users:read",
		"payments:read",
		"reports:read",
		"reports:export",
	},
	models.UserRoleCashier: {
		"payments:read",
		"payments:record",
		"messages:respond",
		"reports:read:daily",
	},
	models.UserRoleStudent: {
		"payments:read:self",
		"payments:pay:self",
		"messages:write:self",
	},
}

func HasPermission(role models.UserRole, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func IsAdmin(claims *Claims) bool {
	return claims.Role == models.UserRoleAdmin
}

// IsStaff reports whether the role belongs to a school employee account.
func IsStaff(role models.UserRole) bool {
	return role == models.UserRoleCashier ||
		role == models.UserRoleBusinessOffice ||
		role == models.UserRoleAdmin
}

package validator

import (
	"schoolpay_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules installs portal-specific validation tags.
func registerCustomRules(v *validator.Validate) error {
	if err := v.RegisterValidation("portal_role", validPortalRole); err != nil {
		return err
	}
	return v.RegisterValidation("payment_method", validPaymentMethod)
}

// validPortalRole accepts any spelling NormalizeRole understands, so legacy
// clients sending "business-office" still pass.
func validPortalRole(fl validator.FieldLevel) bool {
	_, ok := models.NormalizeRole(fl.Field().String())
	return ok
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	return models.ValidPaymentMethod(models.PaymentMethod(fl.Field().String()))
}

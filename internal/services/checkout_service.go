package services

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"schoolpay_backend/internal/config"
)

// CheckoutService builds hosted-checkout URLs and verifies result callbacks
// for the school's payment gateway. The gateway signs requests with an MD5
// digest over merchant login, amount, invoice id and a shared password; the
// result callback uses a second password so a leaked page URL cannot forge
// confirmations.
type CheckoutService struct {
	MerchantLogin string
	Password1     string
	Password2     string
	BaseURL       string
	Currency      string
}

func NewCheckoutService(cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		MerchantLogin: cfg.Checkout.MerchantLogin,
		Password1:     cfg.Checkout.Password1,
		Password2:     cfg.Checkout.Password2,
		BaseURL:       cfg.Checkout.BaseURL,
		Currency:      cfg.Checkout.Currency,
	}
}

// GenerateCheckoutURL creates the hosted payment page link for an invoice.
func (c *CheckoutService) GenerateCheckoutURL(reference string, amount float64, description, email string) (string, error) {
	signature := c.generateSignature(reference, amount)
	params := url.Values{}

	params.Set("MrchLogin", c.MerchantLogin)
	params.Set("OutSum", fmt.Sprintf("%.2f", amount))
	params.Set("InvId", reference)
	params.Set("Desc", description)
	params.Set("SignatureValue", signature)
	params.Set("Email", email)
	params.Set("IncCurrLabel", c.Currency)

	return fmt.Sprintf("%s?%s", c.BaseURL, params.Encode()), nil
}

func (c *CheckoutService) generateSignature(reference string, amount float64) string {
	plain := fmt.Sprintf("%s:%.2f:%s:%s", c.MerchantLogin, amount, reference, c.Password1)
	hash := md5.Sum([]byte(plain))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

// VerifyResultSignature checks the signature on the gateway's result
// callback.
func (c *CheckoutService) VerifyResultSignature(amount float64, reference, receivedSig string) bool {
	plain := fmt.Sprintf("%.2f:%s:%s", amount, reference, c.Password2)
	hash := md5.Sum([]byte(plain))
	expectedSig := strings.ToUpper(hex.EncodeToString(hash[:]))
	return strings.EqualFold(expectedSig, receivedSig)
}

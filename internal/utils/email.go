package utils

import (
	"fmt"

	"schoolpay_backend/internal/config"

	"gopkg.in/gomail.v2"
)

type EmailSender struct {
	cfg *config.Config
}

func NewEmailSender(cfg *config.Config) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (e *EmailSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.Email.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		e.cfg.Email.SMTPHost,
		e.cfg.Email.SMTPPort,
		e.cfg.Email.SMTPUsername,
		e.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(m)
}

// SendPaymentReceipt mails a short confirmation after a payment settles.
func (e *EmailSender) SendPaymentReceipt(to, studentName, reference string, amount float64) error {
	subject := fmt.Sprintf("Payment %s confirmed", reference)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your tuition payment <b>%s</b> of <b>%.2f</b> has been received.</p><p>%s Business Office</p>",
		studentName, reference, amount, e.cfg.School.Name,
	)
	return e.Send(to, subject, body)
}

// SendMessageAnswered tells a student their inquiry has a response.
func (e *EmailSender) SendMessageAnswered(to, studentName, subject string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>The cashier has responded to your inquiry \"%s\". Log in to the portal to read it.</p>",
		studentName, subject,
	)
	return e.Send(to, "Your inquiry has a response", body)
}

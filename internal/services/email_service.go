package services

// EmailSender is the outbound mail surface the services need. The gomail
// implementation lives in internal/utils; tests swap in a fake.
type EmailSender interface {
	Send(to, subject, body string) error
	SendPaymentReceipt(to, studentName, reference string, amount float64) error
	SendMessageAnswered(to, studentName, subject string) error
}

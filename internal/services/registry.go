package services

// ServiceContainer holds every service the handlers depend on.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	PaymentService      PaymentService
	MessageService      MessageService
	NotificationService NotificationService
	ReportService       ReportService
	UploadService       UploadService
	NotificationBridge  *NotificationBridge
	CheckoutService     *CheckoutService
}

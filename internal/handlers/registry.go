package handlers

// AppHandlers holds every HTTP handler in the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	PaymentHandler      *PaymentHandler
	MessageHandler      *MessageHandler
	NotificationHandler *NotificationHandler
	ReportHandler       *ReportHandler
	UploadHandler       *UploadHandler
	FileHandler         *FileHandler
}

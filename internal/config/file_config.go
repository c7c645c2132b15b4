package config

// ReceiptFileConfig bounds what students and cashiers may attach to payments
// and inquiries. Populated from the main config at load time.
type FileConfig struct {
	MaxSize        int64
	MaxUserStorage int64
	AllowedTypes   []string
	AllowedUsages  map[string][]string
	StoragePath    string
}

var ReceiptFileConfig = FileConfig{
	MaxSize:      10 * 1024 * 1024, // 10MB
	AllowedTypes: []string{"image/jpeg", "image/png", "application/pdf"},
	AllowedUsages: map[string][]string{
		"payment":         {"receipt", "proof_of_payment"},
		"support_message": {"attachment"},
		"profile":         {"photo"},
	},
	StoragePath:    "./uploads",
	MaxUserStorage: 100 * 1024 * 1024, // 100MB per user
}

func initReceiptFileConfig() {
	if AppConfig == nil {
		return
	}
	if AppConfig.Upload.MaxSize > 0 {
		ReceiptFileConfig.MaxSize = AppConfig.Upload.MaxSize
	}
	if AppConfig.Upload.MaxUserStorage > 0 {
		ReceiptFileConfig.MaxUserStorage = AppConfig.Upload.MaxUserStorage
	}
	if len(AppConfig.Upload.AllowedTypes) > 0 {
		ReceiptFileConfig.AllowedTypes = AppConfig.Upload.AllowedTypes
	}
	if AppConfig.Storage.BasePath != "" {
		ReceiptFileConfig.StoragePath = AppConfig.Storage.BasePath
	}
}

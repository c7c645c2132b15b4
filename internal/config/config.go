package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	School struct {
		Name          string `yaml:"name"`
		PortalBaseURL string `yaml:"portal_base_url"`
	} `yaml:"school"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Checkout struct {
		MerchantLogin string `yaml:"merchant_login"`
		Password1     string `yaml:"password1"` // signs outgoing checkout URLs
		Password2     string `yaml:"password2"` // verifies result callbacks
		BaseURL       string `yaml:"base_url"`
		Currency      string `yaml:"currency"`
	} `yaml:"checkout"`

	Storage struct {
		Type       string `yaml:"type"`        // local, s3
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For S3
		Region     string `yaml:"region"`      // For S3
		AccessKey  string `yaml:"access_key"`  // For S3
		SecretKey  string `yaml:"secret_key"`  // For S3
		Endpoint   string `yaml:"endpoint"`    // For S3-compatible stores
		UseSSL     bool   `yaml:"use_ssl"`     // For S3
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Upload struct {
		MaxSize        int64    `yaml:"max_size"`         // Max file size in bytes
		MaxUserStorage int64    `yaml:"max_user_storage"` // Max storage per user
		AllowedTypes   []string `yaml:"allowed_types"`    // Allowed MIME types
	} `yaml:"upload"`

	Notifications struct {
		CleanupAfterDays int `yaml:"cleanup_after_days"` // read rows older than this are purged
	} `yaml:"notifications"`

	FirstAdminEmail    string `yaml:"-"`
	FirstAdminPassword string `yaml:"-"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		// Environment-driven configuration, used by tests and containers.
		cfg.Database.DSN = dbURL
		cfg.Database.Driver = envOr("DATABASE_DRIVER", "postgres")
		cfg.Server.Env = os.Getenv("SERVER_ENV")
		cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		cfg.JWT.TTL = 60

		cfg.School.Name = "SchoolPay"
		cfg.School.PortalBaseURL = "http://localhost:3000"

		cfg.Email.SMTPHost = "smtp.test.com"
		cfg.Email.SMTPPort = 587
		cfg.Email.FromEmail = "no-reply@schoolpay.test"

		cfg.Storage.Type = "local"
		cfg.Storage.BasePath = "./uploads"
		cfg.Storage.BaseURL = "/api/v1/files"

		cfg.Upload.MaxSize = 10 * 1024 * 1024
		cfg.Upload.MaxUserStorage = 100 * 1024 * 1024
		cfg.Upload.AllowedTypes = []string{
			"image/jpeg", "image/png", "application/pdf",
		}
	}

	if cfg.Checkout.MerchantLogin == "" {
		cfg.Checkout.MerchantLogin = os.Getenv("CHECKOUT_MERCHANT_LOGIN")
		cfg.Checkout.Password1 = os.Getenv("CHECKOUT_PASSWORD1")
		cfg.Checkout.Password2 = os.Getenv("CHECKOUT_PASSWORD2")
	}
	if cfg.Checkout.Currency == "" {
		cfg.Checkout.Currency = "PHP"
	}
	if cfg.Notifications.CleanupAfterDays <= 0 {
		cfg.Notifications.CleanupAfterDays = 30
	}

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	AppConfig = &cfg
	initReceiptFileConfig()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

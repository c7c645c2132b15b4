package app

import (
	"context"
	"errors"
	"fmt"

	"schoolpay_backend/database"
	"schoolpay_backend/internal/config"
	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/handlers"
	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/routes"
	"schoolpay_backend/internal/services"
	"schoolpay_backend/internal/storage"
	"schoolpay_backend/internal/utils"
	"schoolpay_backend/internal/validator"
	"schoolpay_backend/internal/workers"
	"schoolpay_backend/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected", "driver", cfg.Database.Driver)

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database migrated")

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(context.Background(), cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the full application graph and returns the configured
// gin engine. The context bounds the background workers.
func SetupRouter(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	wsManager := ws.NewWebSocketManager()
	go wsManager.Run()
	wsHandler := ws.NewWebSocketHandler(wsManager)

	bus := events.NewBus()

	serviceContainer := initializeServices(cfg, gormDB, storageInstance, bus, wsManager)

	notificationRepo := repositories.NewNotificationRepository(gormDB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(gormDB)
	worker := workers.NewNotificationWorker(
		serviceContainer.NotificationBridge,
		notificationRepo,
		refreshTokenRepo,
		cfg,
	)
	worker.Start(ctx)

	appHandlers := initializeHandlers(serviceContainer)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter
}

func initializeServices(
	cfg *config.Config,
	gormDB *gorm.DB,
	storageInstance storage.Storage,
	bus *events.Bus,
	wsManager *ws.WebSocketManager,
) *services.ServiceContainer {
	emailSender := utils.NewEmailSender(cfg)

	userRepo := repositories.NewUserRepository(gormDB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)
	messageRepo := repositories.NewMessageRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	uploadRepo := repositories.NewUploadRepository(gormDB)

	checkoutService := services.NewCheckoutService(cfg)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, emailSender)
	userService := services.NewUserService(userRepo)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, checkoutService, emailSender, bus)
	messageService := services.NewMessageService(messageRepo, userRepo, emailSender, bus)
	notificationService := services.NewNotificationService(notificationRepo)
	reportService := services.NewReportService(paymentRepo)
	uploadService := services.NewUploadService(uploadRepo, storageInstance)

	bridge := services.NewNotificationBridge(notificationRepo, paymentRepo, messageRepo, userRepo, wsManager)
	bridge.RegisterSubscriptions(bus)

	return &services.ServiceContainer{
		AuthService:         authService,
		UserService:         userService,
		PaymentService:      paymentService,
		MessageService:      messageService,
		NotificationService: notificationService,
		ReportService:       reportService,
		UploadService:       uploadService,
		NotificationBridge:  bridge,
		CheckoutService:     checkoutService,
	}
}

func initializeHandlers(services *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, services.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, services.UserService),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, services.PaymentService),
		MessageHandler:      handlers.NewMessageHandler(baseHandler, services.MessageService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, services.NotificationService),
		ReportHandler:       handlers.NewReportHandler(baseHandler, services.ReportService),
		UploadHandler:       handlers.NewUploadHandler(baseHandler, services.UploadService),
		FileHandler:         handlers.NewFileHandler(baseHandler, services.UploadService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}

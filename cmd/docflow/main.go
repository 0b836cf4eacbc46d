package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docflow/internal/api"
	"docflow/internal/api/handlers"
	"docflow/internal/ocr"
	"docflow/internal/repository"
	"docflow/internal/service"
	"docflow/pkg/auth"
	"docflow/pkg/config"
	"docflow/pkg/logger"
	"docflow/pkg/postgres"

	"go.uber.org/zap"
)

// @title docflow API
// @version 1.0
// @description OCR processing, audit and conversion of financial documents

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting docflow service")

	if cfg.Database.RunMigrations {
		if err := postgres.Migrate(&cfg.Database, appLogger); err != nil {
			appLogger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, logger.Component("user_repository"))
	fileRepo := repository.NewIncomingFileRepository(db, logger.Component("incoming_file_repository"))
	billRepo := repository.NewBillRepository(db, logger.Component("bill_repository"))
	receiptRepo := repository.NewReceiptRepository(db, logger.Component("receipt_repository"))
	attemptRepo := repository.NewOCRAttemptRepository(db, logger.Component("ocr_attempt_repository"))
	txRunner := repository.NewTxRunner(db)

	engines, closeEngines := ocr.BuildEngines(cfg, logger.Component("ocr"))
	defer closeEngines()

	users := service.NewUserResolver(userRepo, cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL, logger.Component("users"))
	attemptService := service.NewOCRAttemptService(attemptRepo, users, logger.Component("ocr_attempts"))
	ocrService := service.NewOCRService(engines, attemptService, cfg.OCR.EngineTimeout, logger.Component("ocr_service"))
	incomingService := service.NewIncomingFileOCRService(fileRepo, ocrService, users, cfg.OCR.UploadDir, logger.Component("incoming_files"))
	conversionService := service.NewEntityConversionService(txRunner, fileRepo, billRepo, receiptRepo, attemptService, users, logger.Component("conversion"))
	dispatchService := service.NewFileDispatchService(txRunner, fileRepo, billRepo, attemptService, users, logger.Component("dispatch"))

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	app := api.SetupRouter(api.Handlers{
		Documents: handlers.NewDocumentHandler(conversionService, appLogger),
		OCR:       handlers.NewOCRHandler(incomingService, ocrService, attemptService, appLogger),
		Dispatch:  handlers.NewDispatchHandler(dispatchService, appLogger),
	}, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

// Command dispatch turns every ready incoming file into an approved bill and
// exits. It is meant to be run from cron.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"docflow/internal/repository"
	"docflow/internal/service"
	"docflow/pkg/config"
	"docflow/pkg/logger"
	"docflow/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	runLogger := logger.Component("dispatch").With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPool(ctx, &cfg.Database, runLogger)
	if err != nil {
		runLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	fileRepo := repository.NewIncomingFileRepository(db, runLogger)
	billRepo := repository.NewBillRepository(db, runLogger)
	attemptRepo := repository.NewOCRAttemptRepository(db, runLogger)
	userRepo := repository.NewUserRepository(db, runLogger)

	users := service.NewUserResolver(userRepo, cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL, runLogger)
	attempts := service.NewOCRAttemptService(attemptRepo, users, runLogger)
	dispatcher := service.NewFileDispatchService(repository.NewTxRunner(db), fileRepo, billRepo, attempts, users, runLogger)

	stats, err := dispatcher.DispatchStatistics(ctx)
	if err != nil {
		runLogger.Fatal("Failed to collect dispatch statistics", zap.Error(err))
	}
	runLogger.Info("Starting dispatch run",
		zap.Int("approved", stats.TotalApprovedFiles),
		zap.Int("ready", stats.ReadyForDispatch),
		zap.Int("manual_review", stats.NeedsManualReview),
	)

	bills, err := dispatcher.DispatchAllReadyFiles(ctx)
	if err != nil {
		runLogger.Fatal("Dispatch run failed", zap.Error(err))
	}

	runLogger.Info("Dispatch run completed", zap.Int("bills_created", len(bills)))
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/sangkips/collection-desk/internal/application/service"
	"github.com/sangkips/collection-desk/internal/config"
	domainRepo "github.com/sangkips/collection-desk/internal/domain/repository"
	"github.com/sangkips/collection-desk/internal/infrastructure/database"
	"github.com/sangkips/collection-desk/internal/infrastructure/ledger"
	"github.com/sangkips/collection-desk/internal/infrastructure/lock"
	"github.com/sangkips/collection-desk/internal/infrastructure/logger"
	"github.com/sangkips/collection-desk/internal/infrastructure/metrics"
	"github.com/sangkips/collection-desk/internal/infrastructure/notifier"
	"github.com/sangkips/collection-desk/internal/infrastructure/repository"
	"github.com/sangkips/collection-desk/internal/presentation/http/handler"
	"github.com/sangkips/collection-desk/internal/presentation/http/routes"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.NewForEnvironment(cfg.App.Env, logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	bookRepo := repository.NewBookRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	entryRepo := repository.NewPostedEntryRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Infrastructure
	locker := newLocker(cfg, log)
	ledgerClient := ledger.NewClient(cfg.Ledger, log)
	postingNotifier := notifier.New(cfg.Email)
	collector := metrics.New()

	// Initialize services
	validator := service.NewEntryValidator()
	allocator := service.NewBookAllocator(bookRepo, collector, log)
	cycleService := service.NewCycleService(bookRepo, summaryRepo, entryRepo, locker, collector, log)
	summaryService := service.NewSummaryService(bookRepo, summaryRepo, validator, locker, log)
	postingService := service.NewPostingService(service.PostingDeps{
		BookRepo:  bookRepo,
		EntryRepo: entryRepo,
		Completer: cycleService,
		Ledger:    ledgerClient,
		Notifier:  postingNotifier,
		Locker:    locker,
		Validator: validator,
		Metrics:   collector,
		Logger:    log,
		Workers:   cfg.Posting.Workers,
	})
	partyService := service.NewPartyService(partyRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Book:    handler.NewBookHandler(allocator, cycleService),
		Summary: handler.NewSummaryHandler(summaryService),
		Posting: handler.NewPostingHandler(postingService, cfg.Posting.BatchTimeout),
		Party:   handler.NewPartyHandler(partyService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		Logger:          log,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         collector.Handler(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go purgeIdempotencyKeys(ctx, idempotencyRepo, log)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting",
			zap.String("service", cfg.App.Name),
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("lock_driver", cfg.Lock.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// In-flight submissions finish their dispatched ledger calls
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Posting.BatchTimeout+30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Server exited gracefully")
}

func newLocker(cfg *config.Config, log *zap.Logger) service.Locker {
	if cfg.Lock.Driver != "redis" {
		return lock.NewLocalLocker()
	}

	client := goredislib.NewClient(&goredislib.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
	}

	opts := lock.DefaultOptions()
	if cfg.Lock.Expiry > 0 {
		opts.Expiry = cfg.Lock.Expiry
	}
	return lock.NewRedisLocker(client, opts, log)
}

func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				log.Warn("failed to purge idempotency keys", zap.Error(err))
			}
		}
	}
}

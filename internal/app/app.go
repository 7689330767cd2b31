package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"classifieds_backend/internal/auth"
	"classifieds_backend/internal/config"
	"classifieds_backend/internal/handlers"
	"classifieds_backend/internal/imageprocessor"
	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/metrics"
	"classifieds_backend/internal/middleware"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/routes"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/storage"
	"classifieds_backend/internal/validator"
	"classifieds_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sweepLockKey = "classifieds:expiry-sweep"

// App - собранное приложение: БД, сервисы, воркер истечения и HTTP-роутер
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	services *services.ServiceContainer
	worker   *workers.ExpiryWorker
	router   *gin.Engine
	closers  []func() error
}

// OpenDB подключается к Postgres. Все времена - UTC, дубликаты уникальных
// ключей приходят как gorm.ErrDuplicatedKey.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Env == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func New(cfg *config.Config) (*App, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		logger.Info("Database schema migrated")
	}

	a := &App{cfg: cfg, db: db}

	images, err := a.initializeImages()
	if err != nil {
		a.Close()
		return nil, err
	}

	notifier, err := a.initializeNotifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.services = services.NewServiceContainer(services.Dependencies{
		Images:   images,
		Notifier: notifier,
		Ads: services.AdServiceConfig{
			FreeAdLimit: cfg.Quota.FreeAdLimit,
			MaxImages:   cfg.Upload.MaxFiles,
		},
		Clock: services.SystemClock,
	})

	locker, err := a.initializeLocker()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.worker = workers.NewExpiryWorker(db, a.services.ExpiryService, locker, workers.ExpiryWorkerConfig{
		Interval:   cfg.Scheduler.Interval.Std(),
		RunOnStart: cfg.Scheduler.RunOnStart,
	})

	metrics.Register()
	a.router = NewRouter(cfg, db, a.services, a.worker)
	return a, nil
}

func (a *App) initializeImages() (*storage.ImageStore, error) {
	cfg := a.cfg
	backend, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	if cfg.Storage.Breaker.Enabled {
		backend = storage.NewBreakerStorage(backend, storage.BreakerConfig{
			MaxFailures: cfg.Storage.Breaker.MaxFailures,
			OpenTimeout: cfg.Storage.Breaker.OpenTimeout.Std(),
		})
	}

	processor := imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.MaxDimension)
	return storage.NewImageStore(backend, processor, storage.ImageOptions{
		MaxSize:       cfg.Upload.MaxSize,
		AllowedTypes:  cfg.Upload.AllowedTypes,
		RetryAttempts: cfg.Upload.RetryAttempts,
		RetryDelay:    cfg.Upload.RetryDelay.Std(),
	}), nil
}

// initializeNotifier - отправка всегда асинхронная, запрос её не ждёт
func (a *App) initializeNotifier() (notify.Dispatcher, error) {
	cfg := a.cfg.Notifications

	var next notify.Dispatcher
	switch cfg.Driver {
	case "email":
		next = notify.NewEmailDispatcher(notify.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			FromName:  cfg.SMTP.FromName,
		})
	case "rabbitmq":
		publisher, err := notify.NewRabbitMQDispatcher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		next = publisher
	default:
		next = notify.LogDispatcher{}
	}
	logger.Info("Notifications initialized", "driver", cfg.Driver)

	async := notify.NewAsyncDispatcher(next, cfg.Timeout.Std())
	a.closers = append(a.closers, func() error {
		async.Wait()
		return nil
	})
	return async, nil
}

// initializeLocker - при нескольких репликах проход истечения берёт блокировку в Redis
func (a *App) initializeLocker() (workers.Locker, error) {
	cfg := a.cfg
	if cfg.Scheduler.LockDriver != "redis" {
		return workers.NewLocalLocker(), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	logger.Info("Redis sweep lock initialized", "key", sweepLockKey)
	return workers.NewRedisLocker(client, sweepLockKey, cfg.Scheduler.LockTTL.Std()), nil
}

// NewRouter собирает gin-движок: общие middleware, группы доступа и маршруты
func NewRouter(cfg *config.Config, db *gorm.DB, svc *services.ServiceContainer, sweeper handlers.SweepRunner) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL.Std())
	authenticated := []gin.HandlerFunc{
		middleware.AuthMiddleware(tokens),
		middleware.ExpireOnTouch(svc.ExpiryService),
	}
	guards := handlers.Guards{
		Authenticated: authenticated,
		Admin:         append(append([]gin.HandlerFunc{}, authenticated...), middleware.RoleMiddleware(models.UserRoleAdmin)),
		Webhook:       []gin.HandlerFunc{middleware.WebhookSecret(cfg.Payments.WebhookSecret)},
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		guards.Public = []gin.HandlerFunc{limiter}
		guards.Authenticated = append([]gin.HandlerFunc{limiter}, guards.Authenticated...)
	}

	base := handlers.NewBaseHandler(validator.New(), guards, cfg.Upload.MaxSize)
	appHandlers := handlers.NewAppHandlers(base, svc, sweeper)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))

	opts := routes.Options{Metrics: true}
	if cfg.Storage.Type == "local" {
		opts.UploadsURL = cfg.Storage.BaseURL
		opts.UploadsDir = cfg.Storage.BasePath
	}
	routes.RegisterRoutes(router, db, appHandlers, opts)
	return router
}

// Run поднимает HTTP-сервер и воркер истечения; останавливается по ctx
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		a.worker.Start(ctx)
		logger.Info("Expiry worker started", "interval", a.cfg.Scheduler.Interval.Std().String())
	}
	defer a.worker.Stop()

	srv := &http.Server{
		Addr:              a.cfg.Address(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Sweep - один глобальный проход истечения (для cron вне процесса сервера)
func (a *App) Sweep(ctx context.Context) (services.SweepResult, error) {
	return a.worker.RunOnce(ctx)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

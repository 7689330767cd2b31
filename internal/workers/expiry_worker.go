package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/metrics"
	"classifieds_backend/internal/services"

	"gorm.io/gorm"
)

// ErrSweepInProgress - другой проход держит замок
var ErrSweepInProgress = errors.New("expiry sweep already in progress")

type Sweeper interface {
	SweepAll(db *gorm.DB) (services.SweepResult, error)
}

type ExpiryWorkerConfig struct {
	Interval   time.Duration
	RunOnStart bool
}

// ExpiryWorker раз в Interval гасит истёкшие промо и подписки
type ExpiryWorker struct {
	db      *gorm.DB
	sweeper Sweeper
	locker  Locker
	cfg     ExpiryWorkerConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewExpiryWorker(db *gorm.DB, sweeper Sweeper, locker Locker, cfg ExpiryWorkerConfig) *ExpiryWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &ExpiryWorker{
		db:      db,
		sweeper: sweeper,
		locker:  locker,
		cfg:     cfg,
	}
}

// Start запускает тикер в отдельной горутине. Повторный Start - no-op.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	logger.Info("expiry worker started", "interval", w.cfg.Interval.String())
}

// Stop останавливает тикер и ждёт текущий проход
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	logger.Info("expiry worker stopped")
}

func (w *ExpiryWorker) loop(ctx context.Context) {
	defer w.wg.Done()

	if w.cfg.RunOnStart {
		w.tick(ctx)
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick никогда не роняет цикл: ошибки только логируются
func (w *ExpiryWorker) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SweepErrors.Inc()
			logger.Error("expiry sweep panicked", "panic", r)
		}
	}()

	if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
		logger.WorkerLog("expiry", "sweep", err)
	}
}

// RunOnce - один глобальный проход под замком.
// Если замок занят, возвращает ErrSweepInProgress и ничего не делает.
func (w *ExpiryWorker) RunOnce(ctx context.Context) (services.SweepResult, error) {
	release, ok, err := w.locker.TryLock(ctx)
	if err != nil {
		return services.SweepResult{}, err
	}
	if !ok {
		metrics.SweepsSkipped.Inc()
		logger.Warn("expiry sweep skipped, previous run still in progress")
		return services.SweepResult{}, ErrSweepInProgress
	}
	defer release()

	return w.sweeper.SweepAll(w.db.WithContext(ctx))
}

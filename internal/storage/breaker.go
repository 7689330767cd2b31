package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrStorageUnavailable - брейкер открыт, хранилище временно не дёргаем
var ErrStorageUnavailable = errors.New("object storage unavailable")

type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// BreakerStorage отсекает запросы к хранилищу после серии отказов подряд,
// чтобы создание объявлений не висело на таймаутах S3/R2.
type BreakerStorage struct {
	next    Storage
	breaker *gobreaker.CircuitBreaker[bool]
}

func NewBreakerStorage(next Storage, cfg BreakerConfig) *BreakerStorage {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "object-storage",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		// Отмена запроса клиентом - не отказ хранилища
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	}

	return &BreakerStorage{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[bool](settings),
	}
}

func (s *BreakerStorage) State() gobreaker.State {
	return s.breaker.State()
}

func (s *BreakerStorage) execute(fn func() error) error {
	_, err := s.breaker.Execute(func() (bool, error) {
		return true, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return err
}

func (s *BreakerStorage) Save(ctx context.Context, key string, reader io.Reader, contentType string) error {
	return s.execute(func() error {
		return s.next.Save(ctx, key, reader, contentType)
	})
}

func (s *BreakerStorage) Delete(ctx context.Context, key string) error {
	return s.execute(func() error {
		return s.next.Delete(ctx, key)
	})
}

func (s *BreakerStorage) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.execute(func() error {
		var err error
		exists, err = s.next.Exists(ctx, key)
		return err
	})
	return exists, err
}

func (s *BreakerStorage) GetURL(ctx context.Context, key string) (string, error) {
	return s.next.GetURL(ctx, key)
}

func (s *BreakerStorage) KeyFromURL(url string) (string, bool) {
	return s.next.KeyFromURL(url)
}

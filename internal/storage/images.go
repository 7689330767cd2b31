package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"classifieds_backend/internal/imageprocessor"
	"classifieds_backend/pkg/apperrors"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
)

// File - загруженная клиентом картинка, уже прочитанная в память
type File struct {
	Name string
	Data []byte
}

type ImageOptions struct {
	MaxSize       int64
	AllowedTypes  []string
	RetryAttempts uint
	RetryDelay    time.Duration
}

// ImageStore - фотографии объявлений поверх Storage
type ImageStore struct {
	storage   Storage
	processor *imageprocessor.Processor
	opts      ImageOptions
	allowed   map[string]bool
	now       func() time.Time
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

func NewImageStore(st Storage, processor *imageprocessor.Processor, opts ImageOptions) *ImageStore {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 10 << 20
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 3
	}

	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[t] = true
	}

	return &ImageStore{
		storage:   st,
		processor: processor,
		opts:      opts,
		allowed:   allowed,
		now:       time.Now,
	}
}

// Validate проверяет размер и реальный тип по содержимому (заголовку клиента не верим)
func (s *ImageStore) Validate(f File) error {
	if int64(len(f.Data)) > s.opts.MaxSize {
		return apperrors.ErrFileTooLarge(f.Name, s.opts.MaxSize)
	}
	mimeType := http.DetectContentType(f.Data)
	if !s.allowed[mimeType] {
		return apperrors.ErrInvalidFileType(f.Name, mimeType)
	}
	return nil
}

// Upload кладёт картинку под ключом ads/YYYY/MM/<uuid>.<ext> и возвращает публичный URL
func (s *ImageStore) Upload(ctx context.Context, f File) (string, error) {
	if err := s.Validate(f); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(f.Data)
	data := f.Data
	if s.processor != nil && (mimeType == "image/jpeg" || mimeType == "image/png") {
		resized, changed, err := s.processor.Downscale(data)
		switch {
		case err != nil:
			slog.Warn("image downscale failed, uploading original", "file", f.Name, "error", err)
		case changed:
			data = resized
		}
	}

	ext := extensions[mimeType]
	key := fmt.Sprintf("ads/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.NewString(), ext)

	err := retry.Do(
		func() error {
			return s.storage.Save(ctx, key, bytes.NewReader(data), mimeType)
		},
		retry.Attempts(s.opts.RetryAttempts),
		retry.Delay(s.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrStorageUnavailable) && !errors.Is(err, context.Canceled)
		}),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("image upload retry", "attempt", n+1, "key", key, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}

	return s.storage.GetURL(ctx, key)
}

// Delete удаляет картинки по их URL, по одному запросу на файл.
// Чужие URL (не из нашего хранилища) пропускаются. Первая ошибка прерывает удаление.
func (s *ImageStore) Delete(ctx context.Context, urls []string) error {
	for _, url := range urls {
		key, ok := s.storage.KeyFromURL(url)
		if !ok {
			slog.Warn("skipping image outside of storage", "url", url)
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", url, err)
		}
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage - операции объектного хранилища, которые нужны объявлениям
type Storage interface {
	// Save кладёт объект по ключу
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete удаляет объект. Отсутствующий ключ - не ошибка.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// GetURL - публичный URL объекта
	GetURL(ctx context.Context, key string) (string, error)

	// KeyFromURL - обратное к GetURL; false, если URL не из этого хранилища
	KeyFromURL(url string) (string, bool)
}

// Config - настройки хранилища
type Config struct {
	Type       string // local, s3, cloudflare_r2
	BasePath   string // для local
	BaseURL    string // публичный префикс
	Bucket     string // S3/R2
	Region     string // S3
	AccessKey  string // S3/R2
	SecretKey  string // S3/R2
	Endpoint   string // R2 или свой S3
	UseSSL     bool   // S3/R2
	PublicRead bool   // публичные объекты
}

// NewStorage выбирает реализацию по cfg.Type
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func trimKey(baseURL, url string) (string, bool) {
	prefix := baseURL + "/"
	if baseURL == "" || len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

package services

import (
	"errors"
	"math"
	"time"

	"classifieds_backend/internal/repositories"
	"classifieds_backend/pkg/apperrors"
)

// Clock - источник "сейчас". В тестах подменяется, чтобы двигать время.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// NormalizePagination - page с 1, limit по умолчанию 10 и не больше 100.
// Слишком большой page прижимается, offset остаётся неотрицательным.
func NormalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// (page-1)*limit не должен переполнять int
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func offset(page, limit int) int {
	return (page - 1) * limit
}

// mapRepoError переводит ошибки репозиториев в AppError
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrAdNotFound):
		return apperrors.ErrAdNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		return apperrors.ErrSubscriptionNotFound
	case errors.Is(err, repositories.ErrInvalidFilter):
		return apperrors.NewBadRequestError(err.Error())
	default:
		return apperrors.InternalError(err)
	}
}

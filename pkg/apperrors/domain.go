package apperrors

import (
	"fmt"
	"net/http"
)

// =========================================================================
// Объявления
// =========================================================================

var ErrAdNotFound = New(CodeNotFound, "ad", "Ad not found", http.StatusNotFound)

var ErrAdForbidden = New(CodeForbidden, "ad", "You can only modify your own ads", http.StatusForbidden)

var ErrCannotReportOwnAd = New(CodeForbidden, "ad", "You cannot report your own ad", http.StatusForbidden)

// ErrAdQuotaExceeded - бесплатный лимит объявлений исчерпан (премиум не ограничен)
var ErrAdQuotaExceeded = New(
	CodeLimitExceeded,
	"ad",
	"Free ad limit reached, subscribe to post more ads",
	http.StatusConflict,
)

var ErrImagesRequired = New(CodeValidationFailed, "ad", "At least one image is required", http.StatusBadRequest)

var ErrReportNotFound = New(CodeNotFound, "report", "Report not found", http.StatusNotFound)

// =========================================================================
// Пользователи, подписки, платежи
// =========================================================================

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

var ErrSubscriptionNotFound = New(CodeNotFound, "subscription", "Subscription not found", http.StatusNotFound)

var ErrPaymentNotConfirmed = New(
	CodeInvalidStatus,
	"payment",
	"Only confirmed payments can be recorded in the ledger",
	http.StatusBadRequest,
)

var ErrInvalidWebhookSecret = New(CodeUnauthorized, "payment", "Invalid webhook secret", http.StatusUnauthorized)

// ErrUnknownPlan - неизвестный код тарифа. Молча подставлять дефолт нельзя.
func ErrUnknownPlan(plan string) *AppError {
	return New(CodeInvalidPlan, "ledger", fmt.Sprintf("Unknown plan code: %q", plan), http.StatusBadRequest)
}

func ErrUnknownPaymentType(paymentType string) *AppError {
	return New(CodeValidationFailed, "payment", fmt.Sprintf("Unknown payment type: %q", paymentType), http.StatusBadRequest)
}

// =========================================================================
// Файлы и хранилище
// =========================================================================

func ErrFileTooLarge(name string, maxBytes int64) *AppError {
	return New(CodeFileTooLarge, "upload",
		fmt.Sprintf("File %s exceeds the maximum size of %d bytes", name, maxBytes),
		http.StatusRequestEntityTooLarge)
}

func ErrInvalidFileType(name, mimeType string) *AppError {
	return New(CodeInvalidFileType, "upload",
		fmt.Sprintf("File %s has unsupported type %s", name, mimeType),
		http.StatusUnsupportedMediaType)
}

// ErrStorageFailure - объектное хранилище не ответило или вернуло ошибку
func ErrStorageFailure(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "storage", "Object storage request failed", http.StatusBadGateway)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

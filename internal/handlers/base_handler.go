package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"classifieds_backend/internal/auth"
	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/middleware"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/storage"
	"classifieds_backend/internal/validator"
	"classifieds_backend/pkg/apperrors"
	"classifieds_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

// Guards - цепочки middleware для групп маршрутов
type Guards struct {
	Public        []gin.HandlerFunc // rate limit
	Authenticated []gin.HandlerFunc // JWT + expire-on-touch
	Admin         []gin.HandlerFunc // JWT + роль admin
	Webhook       []gin.HandlerFunc // общий секрет платёжной границы
}

type BaseHandler struct {
	validator     *validator.Validator
	guards        Guards
	maxUploadSize int64
}

func NewBaseHandler(v *validator.Validator, guards Guards, maxUploadSize int64) *BaseHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &BaseHandler{
		validator:     v,
		guards:        guards,
		maxUploadSize: maxUploadSize,
	}
}

// GetDB извлекает *gorm.DB (пул или транзакцию) из gin.Context.
// Без DBMiddleware приложение сконфигурировано неверно.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// ============================================================================
// 2. Привязка и валидация
// ============================================================================

// BindAndValidate_JSON - тело запроса (JSON или multipart-форма)
func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBind(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind request body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindQuery(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind query params", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid query parameters: "+err.Error()))
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ============================================================================
// 3. Ошибки
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		logger.CtxWarn(ctx, "Service error",
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Пользователь и файлы
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return nil, false
	}
	return identity, true
}

// ReadImages читает файлы multipart-поля. Каждый файл читается не больше
// чем на maxUploadSize+1 байт, чтобы слишком большой отсёк валидатор.
func (h *BaseHandler) ReadImages(c *gin.Context, field string) ([]storage.File, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		// запрос без multipart - значит, без файлов
		return nil, true
	}

	headers := form.File[field]
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		data, err := h.readFile(fh)
		if err != nil {
			logger.CtxWithError(c.Request.Context(), "Failed to read uploaded file", err, "file", fh.Filename)
			apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read file "+fh.Filename))
			return nil, false
		}
		files = append(files, storage.File{Name: fh.Filename, Data: data})
	}
	return files, true
}

func (h *BaseHandler) readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.maxUploadSize+1))
}

// ============================================================================
// 5. Парсинг
// ============================================================================

func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// ParsePagination - page с 1, limit по умолчанию 10, не больше 100
func ParsePagination(c *gin.Context) (page int, limit int) {
	return services.NormalizePagination(
		ParseQueryInt(c, "page", services.DefaultPage),
		ParseQueryInt(c, "limit", services.DefaultLimit),
	)
}

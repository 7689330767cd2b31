package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classifieds_backend/internal/auth"
	"classifieds_backend/internal/middleware"
	"classifieds_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": middleware.GetUserID(c)})
	})
	r.GET("/ping", handlers...)
	return r
}

func do(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookSecret(t *testing.T) {
	r := newEngine(middleware.WebhookSecret("s3cret"))

	assert.Equal(t, http.StatusUnauthorized, do(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{middleware.WebhookSecretHeader: "wrong"}).Code)
	assert.Equal(t, http.StatusOK, do(r, map[string]string{middleware.WebhookSecretHeader: "s3cret"}).Code)
}

func TestWebhookSecret_EmptySecretRejectsAll(t *testing.T) {
	r := newEngine(middleware.WebhookSecret(""))

	assert.Equal(t, http.StatusUnauthorized, do(r, map[string]string{middleware.WebhookSecretHeader: ""}).Code)
}

func TestAuthAndRole(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newEngine(middleware.AuthMiddleware(tokens), middleware.RoleMiddleware(models.UserRoleAdmin))

	userToken, err := tokens.IssueToken(auth.Identity{UserID: "u-1", Role: models.UserRoleUser})
	require.NoError(t, err)
	adminToken, err := tokens.IssueToken(auth.Identity{UserID: "a-1", Role: models.UserRoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"без заголовка", "", http.StatusUnauthorized},
		{"не bearer", "Token abc", http.StatusUnauthorized},
		{"мусорный токен", "Bearer abc", http.StatusUnauthorized},
		{"обычный пользователь", "Bearer " + userToken, http.StatusForbidden},
		{"админ", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := do(r, headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuth_ForeignSecretRejected(t *testing.T) {
	other := auth.NewTokenManager("other", time.Hour)
	token, err := other.IssueToken(auth.Identity{UserID: "u-1", Role: models.UserRoleUser})
	require.NoError(t, err)

	r := newEngine(middleware.AuthMiddleware(auth.NewTokenManager("secret", time.Hour)))
	rec := do(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := middleware.NewIPRateLimiter(0.001, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	// у другого адреса своё ведро
	assert.True(t, limiter.Allow("10.0.0.2"))

	r := newEngine(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(0.001, 1)))
	assert.Equal(t, http.StatusOK, do(r, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, nil).Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine(middleware.RequestIDMiddleware())

	rec := do(r, map[string]string{middleware.RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))

	rec = do(r, nil)
	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)
}

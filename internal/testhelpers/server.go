package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"classifieds_backend/internal/app"
	"classifieds_backend/internal/auth"
	"classifieds_backend/internal/config"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	TestJWTSecret     = "test-jwt-secret"
	TestWebhookSecret = "test-webhook-secret"
)

// TestServer - роутер приложения поверх тестовой БД и фейкового хранилища
type TestServer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Services *services.ServiceContainer
	Images   *FakeImageStore
	Events   *RecordingDispatcher
	Clock    *Clock
	Tokens   *auth.TokenManager
	Sweeper  *StubSweeper
}

// StubSweeper отвечает на ручной запуск истечения заданным результатом
type StubSweeper struct {
	Result services.SweepResult
	Err    error
}

func (s *StubSweeper) RunOnce(ctx context.Context) (services.SweepResult, error) {
	return s.Result, s.Err
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := NewTestDB(t)
	clock := NewClock(time.Now())
	images := NewFakeImageStore()
	events := &RecordingDispatcher{}

	svc := services.NewServiceContainer(services.Dependencies{
		Images:   images,
		Notifier: events,
		Ads:      services.AdServiceConfig{FreeAdLimit: 3, MaxImages: 10},
		Clock:    clock.Now,
	})

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.JWT.Secret = TestJWTSecret
	cfg.JWT.TTL = config.Duration(time.Hour)
	cfg.Payments.WebhookSecret = TestWebhookSecret
	cfg.Upload.MaxSize = 1 << 20

	sweeper := &StubSweeper{}
	return &TestServer{
		Router:   app.NewRouter(cfg, db, svc, sweeper),
		DB:       db,
		Services: svc,
		Images:   images,
		Events:   events,
		Clock:    clock,
		Tokens:   auth.NewTokenManager(TestJWTSecret, time.Hour),
		Sweeper:  sweeper,
	}
}

// TokenFor выпускает JWT для пользователя
func (ts *TestServer) TokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := ts.Tokens.IssueToken(auth.Identity{
		UserID:    user.ID,
		Role:      user.Role,
		IsPremium: user.IsPremiumUser,
	})
	require.NoError(t, err)
	return token
}

// SendJSON выполняет запрос; body == nil - без тела
func (ts *TestServer) SendJSON(t *testing.T, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	return rec
}

func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "тело ответа: %s", rec.Body.String())
	return out
}

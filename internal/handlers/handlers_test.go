package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/middleware"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/testhelpers"
	"classifieds_backend/internal/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAdForm(t *testing.T, ts *testhelpers.TestServer, token, title string, images int) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"category": "Cars for Sale",
		"titleEn":  title,
		"price":    "25000",
		"currency": "USD",
		"city":     "Almaty",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for i := 0; i < images; i++ {
		part, err := w.CreateFormFile("images", "car.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	return rec
}

func TestAds_CreateAndFetch(t *testing.T) {
	// 1. Подготовка
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	token := ts.TokenFor(t, user)

	// 2. Действие: создаём объявление с двумя фото
	rec := createAdForm(t, ts, token, "Toyota Camry", 2)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := testhelpers.DecodeJSON[dto.AdView](t, rec)
	assert.Len(t, created.Images, 2)

	// 3. Проверка: объявление видно всем по id и в каталоге
	rec = ts.SendJSON(t, http.MethodGet, "/api/v1/ads/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := testhelpers.DecodeJSON[dto.AdView](t, rec)
	assert.Equal(t, "Toyota Camry", fetched.TitleEn)
	assert.Equal(t, []string(created.Images), []string(fetched.Images))

	rec = ts.SendJSON(t, http.MethodGet, "/api/v1/ads?category=sale&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := testhelpers.DecodeJSON[dto.AdListResponse](t, rec)
	assert.Equal(t, int64(1), list.TotalAds)
	assert.Equal(t, 5, list.Limit)
}

func TestAds_CreateRequiresAuth(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	rec := ts.SendJSON(t, http.MethodPost, "/api/v1/ads", "", map[string]string{"titleEn": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.SendJSON(t, http.MethodGet, "/api/v1/ads/my", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAds_QuotaReturnsConflict(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	token := ts.TokenFor(t, user)

	for i := 0; i < 3; i++ {
		rec := createAdForm(t, ts, token, "Ad", 1)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := createAdForm(t, ts, token, "Ad", 1)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "LIMIT_EXCEEDED")
}

func TestAds_UnknownIDIsNotFound(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/ads/00000000-0000-0000-0000-000000000000", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAds_InvalidFilterIsBadRequest(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/ads?postedWithin=Yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAds_MyAdsExpiresStalePromotionOnTouch(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	ad := testhelpers.CreateAd(t, ts.DB, user, nil)
	testhelpers.Promote(t, ts.DB, ad, models.Plan7Days, ts.Clock.Now().Add(-time.Minute))

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/ads/my", ts.TokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := testhelpers.DecodeJSON[dto.AdListResponse](t, rec)
	require.Len(t, list.Ads, 1)
	assert.False(t, list.Ads[0].IsPromoted, "истёкшее промо не должно быть видно владельцу")
}

func TestAds_BulkDelete(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	owner := testhelpers.CreateUser(t, ts.DB, nil)
	other := testhelpers.CreateUser(t, ts.DB, nil)
	mine := testhelpers.CreateAd(t, ts.DB, owner, nil)
	theirs := testhelpers.CreateAd(t, ts.DB, other, nil)

	rec := ts.SendJSON(t, http.MethodDelete, "/api/v1/ads", ts.TokenFor(t, owner),
		dto.DeleteAdsRequest{AdIDs: []string{mine.ID, theirs.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), testhelpers.DecodeJSON[dto.BulkDeleteResponse](t, rec).Deleted)
}

func TestPayments_RequireWebhookSecret(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	payment := dto.PaymentConfirmation{
		Status:        "paid",
		TransactionID: "txn-http-1",
		Amount:        10,
		Plan:          models.PlanMonth,
		UserID:        user.ID,
		PaymentType:   "subscription",
	}

	rec := ts.SendJSON(t, http.MethodPost, "/api/v1/payments/confirm", "", payment)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.SendJSON(t, http.MethodPost, "/api/v1/payments/confirm", "", payment,
		middleware.WebhookSecretHeader, testhelpers.TestWebhookSecret)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, testhelpers.Reload[models.User](t, ts.DB, user.ID).IsPremiumUser)

	// повтор вебхука - 200 и duplicate
	rec = ts.SendJSON(t, http.MethodPost, "/api/v1/payments/confirm", "", payment,
		middleware.WebhookSecretHeader, testhelpers.TestWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, testhelpers.DecodeJSON[dto.PaymentResult](t, rec).Duplicate)
}

func TestPayments_UnknownStatusIsNoOp(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)

	rec := ts.SendJSON(t, http.MethodPost, "/api/v1/payments/confirm", "", dto.PaymentConfirmation{
		Status:        "refunded",
		TransactionID: "txn-x",
		Plan:          models.PlanDay,
		UserID:        user.ID,
		PaymentType:   "subscription",
	}, middleware.WebhookSecretHeader, testhelpers.TestWebhookSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := testhelpers.DecodeJSON[dto.PaymentResult](t, rec)
	assert.False(t, result.Applied)
	assert.Equal(t, "refunded", result.Status)
	assert.False(t, testhelpers.Reload[models.User](t, ts.DB, user.ID).IsPremiumUser)
}

func TestPayments_MissingStatusRejected(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	rec := ts.SendJSON(t, http.MethodPost, "/api/v1/payments/confirm", "", dto.PaymentConfirmation{
		TransactionID: "txn-y",
		Plan:          models.PlanDay,
		UserID:        "u",
		PaymentType:   "subscription",
	}, middleware.WebhookSecretHeader, testhelpers.TestWebhookSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_ExpiryRun(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	admin := testhelpers.CreateUser(t, ts.DB, func(u *models.User) { u.Role = models.UserRoleAdmin })

	rec := ts.SendJSON(t, http.MethodPost, "/api/v1/admin/expiry/run", ts.TokenFor(t, user), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.Sweeper.Result = services.SweepResult{ExpiredAds: 2, ExpiredSubscriptions: 1}
	rec = ts.SendJSON(t, http.MethodPost, "/api/v1/admin/expiry/run", ts.TokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := testhelpers.DecodeJSON[dto.SweepResponse](t, rec)
	assert.Equal(t, int64(2), resp.ExpiredAds)
	assert.Equal(t, int64(1), resp.ExpiredSubscriptions)

	ts.Sweeper.Err = workers.ErrSweepInProgress
	rec = ts.SendJSON(t, http.MethodPost, "/api/v1/admin/expiry/run", ts.TokenFor(t, admin), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdmin_SearchIncludesInactive(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	admin := testhelpers.CreateUser(t, ts.DB, func(u *models.User) { u.Role = models.UserRoleAdmin })
	owner := testhelpers.CreateUser(t, ts.DB, nil)
	testhelpers.CreateAd(t, ts.DB, owner, nil)
	testhelpers.CreateAd(t, ts.DB, owner, func(a *models.Ad) { a.IsActive = false })

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/admin/ads?userId="+owner.ID, ts.TokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2), testhelpers.DecodeJSON[dto.AdListResponse](t, rec).TotalAds)

	rec = ts.SendJSON(t, http.MethodGet, "/api/v1/admin/ads?isActive=false", ts.TokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), testhelpers.DecodeJSON[dto.AdListResponse](t, rec).TotalAds)
}

func TestAdmin_SubscriptionsPlanFilter(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	admin := testhelpers.CreateUser(t, ts.DB, func(u *models.User) { u.Role = models.UserRoleAdmin })
	user := testhelpers.CreateUser(t, ts.DB, nil)
	testhelpers.Subscribe(t, ts.DB, user, models.PlanYear, ts.Clock.Now().AddDate(1, 0, 0))

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/admin/subscriptions?plan=year", ts.TokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), testhelpers.DecodeJSON[dto.SubscriptionListResponse](t, rec).Total)

	rec = ts.SendJSON(t, http.MethodGet, "/api/v1/admin/subscriptions?plan=decade", ts.TokenFor(t, admin), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptions_My(t *testing.T) {
	ts := testhelpers.NewTestServer(t)
	user := testhelpers.CreateUser(t, ts.DB, nil)
	testhelpers.Subscribe(t, ts.DB, user, models.PlanMonth, ts.Clock.Now().AddDate(0, 1, 0))

	rec := ts.SendJSON(t, http.MethodGet, "/api/v1/subscriptions/my", ts.TokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	subs := testhelpers.DecodeJSON[[]models.Subscription](t, rec)
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusActive, subs[0].Status)
}

func TestHealth(t *testing.T) {
	ts := testhelpers.NewTestServer(t)

	rec := ts.SendJSON(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

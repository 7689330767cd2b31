package services_test

import (
	"context"
	"testing"
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/testhelpers"
	"classifieds_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

type serviceFixture struct {
	db     *gorm.DB
	svc    *services.ServiceContainer
	clock  *testhelpers.Clock
	images *testhelpers.FakeImageStore
	events *testhelpers.RecordingDispatcher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		db:     testhelpers.NewTestDB(t),
		clock:  testhelpers.NewClock(testNow),
		images: testhelpers.NewFakeImageStore(),
		events: &testhelpers.RecordingDispatcher{},
	}
	f.svc = services.NewServiceContainer(services.Dependencies{
		Images:   f.images,
		Notifier: f.events,
		Ads:      services.AdServiceConfig{FreeAdLimit: 3, MaxImages: 10},
		Clock:    f.clock.Now,
	})
	return f
}

func (f *serviceFixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func subscriptionPayment(userID, txnID, status string) *dto.PaymentConfirmation {
	return &dto.PaymentConfirmation{
		Status:         status,
		TransactionID:  txnID,
		Amount:         9.99,
		Currency:       "USD",
		Plan:           models.PlanMonth,
		UserID:         userID,
		PaymentType:    string(models.PaymentTypeSubscription),
		PaymentCompany: "stripe",
	}
}

func promotionPayment(userID, adID, txnID, status string) *dto.PaymentConfirmation {
	return &dto.PaymentConfirmation{
		Status:        status,
		TransactionID: txnID,
		Amount:        5,
		Currency:      "USD",
		Plan:          models.Plan7Days,
		UserID:        userID,
		AdID:          adID,
		PaymentType:   string(models.PaymentTypePromotion),
	}
}

func TestPayment_NotPaidIsNoOp(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	for _, status := range []string{"pending", "failed"} {
		result, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db,
			subscriptionPayment(user.ID, "txn-"+status, status))
		require.NoError(t, err)
		assert.False(t, result.Applied, "статус %s не должен ничего менять", status)
	}

	assert.Zero(t, f.count(t, &models.PaymentTransaction{}), "в журнале платежей не должно быть записей")
	assert.Zero(t, f.count(t, &models.Subscription{}))
	assert.False(t, testhelpers.Reload[models.User](t, f.db, user.ID).IsPremiumUser)
	assert.Empty(t, f.events.Events())
}

func TestPayment_NotPaidPromotionIsNoOp(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	ad := testhelpers.CreateAd(t, f.db, user, nil)
	before := testhelpers.Reload[models.Ad](t, f.db, ad.ID)

	for _, status := range []string{"pending", "failed", "refunded"} {
		result, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db,
			promotionPayment(user.ID, ad.ID, "txn-promo-"+status, status))
		require.NoError(t, err)
		assert.False(t, result.Applied, "статус %s не должен ничего менять", status)
	}

	assert.Zero(t, f.count(t, &models.PaymentTransaction{}))
	assert.Zero(t, f.count(t, &models.AdPromotion{}))

	after := testhelpers.Reload[models.Ad](t, f.db, ad.ID)
	assert.False(t, after.IsPromoted)
	assert.Nil(t, after.PromotionEndDate)
	assert.Empty(t, after.PaymentTransactionID)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt), "строка объявления не должна переписываться")
	assert.Empty(t, f.events.Events())
}

func TestPayment_PromotionLifecycleEndsWithExpiry(t *testing.T) {
	f := newServiceFixture(t)
	promoRepo := repositories.NewPromotionRepository()
	user := testhelpers.CreateUser(t, f.db, nil)
	ad := testhelpers.CreateAd(t, f.db, user, nil)

	// 1. Оплата промо на 7 дней
	result, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db,
		promotionPayment(user.ID, ad.ID, "txn-lifecycle", "paid"))
	require.NoError(t, err)
	require.True(t, result.Applied)
	assert.True(t, testhelpers.Reload[models.Ad](t, f.db, ad.ID).PromotionActiveAt(f.clock.Now()))

	// 2. Через 6 дней промо ещё действует
	f.clock.Advance(6 * 24 * time.Hour)
	n, err := f.svc.ExpiryService.ExpireUserAds(f.db, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, testhelpers.Reload[models.Ad](t, f.db, ad.ID).IsPromoted)

	// 3. После окончания глобальный проход снимает промо
	f.clock.Advance(2 * 24 * time.Hour)
	n, err = f.svc.ExpiryService.ExpireAllAds(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored := testhelpers.Reload[models.Ad](t, f.db, ad.ID)
	assert.False(t, stored.IsPromoted)
	assert.False(t, stored.PromotionActiveAt(f.clock.Now()))
	assert.Equal(t, result.Transaction.ID, stored.PaymentTransactionID, "связь с платежом сохраняется")

	promos, err := promoRepo.FindByAd(f.db, ad.ID)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, models.PromotionStatusExpired, promos[0].Status)

	// 4. Повтор ничего не меняет
	n, err = f.svc.ExpiryService.ExpireUserAds(f.db, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPayment_SubscriptionActivatesPremium(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	result, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db,
		subscriptionPayment(user.ID, "txn-sub-1", "paid"))
	require.NoError(t, err)
	require.True(t, result.Applied)
	require.NotNil(t, result.Subscription)

	assert.True(t, testNow.AddDate(0, 1, 0).Equal(result.Subscription.EndDate))
	assert.Equal(t, models.SubscriptionStatusActive, result.Subscription.Status)
	assert.True(t, testhelpers.Reload[models.User](t, f.db, user.ID).IsPremiumUser, "пользователь должен стать премиум")

	txn := testhelpers.Reload[models.PaymentTransaction](t, f.db, result.Transaction.ID)
	require.NotNil(t, txn.SubscriptionID)
	assert.Equal(t, result.Subscription.ID, *txn.SubscriptionID)
	assert.Equal(t, models.PaymentStatusPaid, txn.Status)

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventSubscriptionActivated, events[0].Type)
	assert.Equal(t, user.Email, events[0].Recipient)
}

func TestPayment_ReplayedTransactionIsDuplicate(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	payment := subscriptionPayment(user.ID, "txn-replay", "paid")

	first, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, payment)
	require.NoError(t, err)
	require.True(t, first.Applied)

	f.clock.Advance(time.Hour)
	second, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, payment)
	require.NoError(t, err)

	assert.False(t, second.Applied)
	assert.True(t, second.Duplicate)
	assert.Equal(t, int64(1), f.count(t, &models.Subscription{}), "повтор вебхука не должен продлевать подписку")
	assert.Equal(t, int64(1), f.count(t, &models.PaymentTransaction{}))
}

func TestPayment_PromotionSevenDays(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)
	ad := testhelpers.CreateAd(t, f.db, user, nil)

	result, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, &dto.PaymentConfirmation{
		Status:        "paid",
		TransactionID: "txn-promo-1",
		Amount:        5,
		Plan:          models.Plan7Days,
		UserID:        user.ID,
		AdID:          ad.ID,
		PaymentType:   string(models.PaymentTypePromotion),
	})
	require.NoError(t, err)
	require.True(t, result.Applied)

	stored := testhelpers.Reload[models.Ad](t, f.db, ad.ID)
	assert.True(t, stored.IsPromoted)
	assert.Equal(t, models.Plan7Days, stored.PromotionPlan)
	require.NotNil(t, stored.PromotionEndDate)
	assert.WithinDuration(t, testNow.Add(7*24*time.Hour), *stored.PromotionEndDate, time.Second)
	assert.Equal(t, result.Transaction.ID, stored.PaymentTransactionID)

	assert.Equal(t, int64(1), f.count(t, &models.AdPromotion{}))
	assert.False(t, testhelpers.Reload[models.User](t, f.db, user.ID).IsPremiumUser, "промо не делает пользователя премиум")

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventAdPromoted, events[0].Type)
}

func TestPayment_PromotionOfForeignAdIsNotFound(t *testing.T) {
	f := newServiceFixture(t)
	owner := testhelpers.CreateUser(t, f.db, nil)
	payer := testhelpers.CreateUser(t, f.db, nil)
	ad := testhelpers.CreateAd(t, f.db, owner, nil)

	_, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, &dto.PaymentConfirmation{
		Status:        "paid",
		TransactionID: "txn-foreign",
		Plan:          models.Plan7Days,
		UserID:        payer.ID,
		AdID:          ad.ID,
		PaymentType:   string(models.PaymentTypePromotion),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	assert.Zero(t, f.count(t, &models.PaymentTransaction{}), "транзакция должна откатиться целиком")
	assert.False(t, testhelpers.Reload[models.Ad](t, f.db, ad.ID).IsPromoted)
}

func TestPayment_UnknownPlanRejected(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	payment := subscriptionPayment(user.ID, "txn-bad-plan", "paid")
	payment.Plan = "decade"

	_, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, payment)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidPlan))
	assert.Zero(t, f.count(t, &models.Subscription{}))
}

func TestPayment_UnknownPaymentType(t *testing.T) {
	f := newServiceFixture(t)
	user := testhelpers.CreateUser(t, f.db, nil)

	payment := subscriptionPayment(user.ID, "txn-type", "paid")
	payment.PaymentType = "donation"

	_, err := f.svc.PaymentService.HandleConfirmation(context.Background(), f.db, payment)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"classifieds_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// CreateUser создаёт пользователя. mutate может поправить поля до вставки.
func CreateUser(t *testing.T, db *gorm.DB, mutate func(u *models.User)) *models.User {
	t.Helper()

	id := uuid.NewString()
	user := &models.User{
		BaseModel:  models.BaseModel{ID: id},
		Name:       "User " + id[:8],
		Email:      id[:8] + "@example.com",
		City:       "Almaty",
		Role:       models.UserRoleUser,
		IsVerified: true,
	}
	if mutate != nil {
		mutate(user)
	}
	require.NoError(t, db.Create(user).Error, "создание тестового пользователя")
	return user
}

var adSeq atomic.Int64

// CreateAd создаёт активное объявление владельца. CreatedAt можно задать в mutate.
func CreateAd(t *testing.T, db *gorm.DB, owner *models.User, mutate func(a *models.Ad)) *models.Ad {
	t.Helper()

	n := adSeq.Add(1)
	ad := &models.Ad{
		AdNumber:  fmt.Sprintf("AD-T%08d", n),
		UserID:    owner.ID,
		Category:  "Sale",
		Condition: "Used",
		TitleEn:   fmt.Sprintf("Test ad %d", n),
		Price:     "1000",
		Currency:  "USD",
		City:      "Almaty",
		Images:    []string{fmt.Sprintf("https://cdn.test/ads/seed-%d.jpg", n)},
		IsActive:  true,
	}
	if mutate != nil {
		mutate(ad)
	}
	require.NoError(t, db.Create(ad).Error, "создание тестового объявления")
	return ad
}

// Promote - объявление с действующим (или уже истёкшим) промо до endDate
func Promote(t *testing.T, db *gorm.DB, ad *models.Ad, plan string, endDate time.Time) {
	t.Helper()

	start := endDate.Add(-24 * time.Hour)
	require.NoError(t, db.Model(ad).Updates(map[string]interface{}{
		"is_promoted":          true,
		"promotion_plan":       plan,
		"promotion_start_date": start,
		"promotion_end_date":   endDate,
	}).Error)
	require.NoError(t, db.Create(&models.AdPromotion{
		AdID:      ad.ID,
		UserID:    ad.UserID,
		Plan:      plan,
		StartDate: start,
		EndDate:   endDate,
		Status:    models.PromotionStatusActive,
	}).Error)
	ad.IsPromoted = true
	ad.PromotionEndDate = &endDate
}

// Subscribe - активная подписка с заданной датой окончания, пользователь становится премиум
func Subscribe(t *testing.T, db *gorm.DB, user *models.User, plan string, endDate time.Time) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		UserID:    user.ID,
		Plan:      plan,
		Duration:  plan,
		StartDate: endDate.Add(-24 * time.Hour),
		EndDate:   endDate,
		Status:    models.SubscriptionStatusActive,
	}
	require.NoError(t, db.Create(sub).Error)
	require.NoError(t, db.Model(user).Update("is_premium_user", true).Error)
	user.IsPremiumUser = true
	return sub
}

// Reload перечитывает запись из БД
func Reload[T any](t *testing.T, db *gorm.DB, id string) *T {
	t.Helper()

	var out T
	require.NoError(t, db.First(&out, "id = ?", id).Error)
	return &out
}

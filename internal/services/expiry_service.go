package services

import (
	"errors"
	"fmt"
	"time"

	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/metrics"
	"classifieds_backend/internal/repositories"

	"gorm.io/gorm"
)

// SweepResult - сколько записей перевёл один проход истечения
type SweepResult struct {
	ExpiredAds           int64
	ExpiredPromotions    int64
	ExpiredSubscriptions int64
	DemotedUsers         int64
}

func (r SweepResult) Changed() int64 {
	return r.ExpiredAds + r.ExpiredPromotions + r.ExpiredSubscriptions + r.DemotedUsers
}

// ExpiryService переводит active -> expired по дате окончания.
// Все пути - условные массовые UPDATE, повторный запуск ничего не меняет.
type ExpiryService interface {
	ExpireUserAds(db *gorm.DB, userID string) (int64, error)
	ExpireAllAds(db *gorm.DB) (int64, error)
	ExpireUserSubscriptions(db *gorm.DB, userID string) (int64, error)
	ExpireAllSubscriptions(db *gorm.DB) (int64, error)

	// SweepUser - оба пути для одного пользователя (expire-on-touch)
	SweepUser(db *gorm.DB, userID string) (SweepResult, error)
	// SweepAll - оба глобальных пути; сбой одного не останавливает другой
	SweepAll(db *gorm.DB) (SweepResult, error)
}

type expiryService struct {
	adRepo           repositories.AdRepository
	promotionRepo    repositories.PromotionRepository
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	now              Clock
}

func NewExpiryService(
	adRepo repositories.AdRepository,
	promotionRepo repositories.PromotionRepository,
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	now Clock,
) ExpiryService {
	if now == nil {
		now = SystemClock
	}
	return &expiryService{
		adRepo:           adRepo,
		promotionRepo:    promotionRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		now:              now,
	}
}

func (s *expiryService) ExpireUserAds(db *gorm.DB, userID string) (int64, error) {
	res, err := s.expireAds(db, userID, s.now())
	return res.ExpiredAds, err
}

func (s *expiryService) ExpireAllAds(db *gorm.DB) (int64, error) {
	res, err := s.expireAds(db, "", s.now())
	return res.ExpiredAds, err
}

func (s *expiryService) ExpireUserSubscriptions(db *gorm.DB, userID string) (int64, error) {
	res, err := s.expireSubscriptions(db, userID, s.now())
	return res.ExpiredSubscriptions, err
}

func (s *expiryService) ExpireAllSubscriptions(db *gorm.DB) (int64, error) {
	res, err := s.expireSubscriptions(db, "", s.now())
	return res.ExpiredSubscriptions, err
}

func (s *expiryService) SweepUser(db *gorm.DB, userID string) (SweepResult, error) {
	return s.sweep(db, userID)
}

func (s *expiryService) SweepAll(db *gorm.DB) (SweepResult, error) {
	start := time.Now()
	result, err := s.sweep(db, "")

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	metrics.ExpiredAds.Add(float64(result.ExpiredAds))
	metrics.ExpiredSubscriptions.Add(float64(result.ExpiredSubscriptions))

	logger.SweepLog("expiry", "global", result.ExpiredAds, result.ExpiredSubscriptions, time.Since(start), err)
	return result, err
}

// sweep запускает оба пути независимо и собирает ошибки
func (s *expiryService) sweep(db *gorm.DB, userID string) (SweepResult, error) {
	now := s.now()

	ads, adsErr := s.expireAds(db, userID, now)
	if adsErr != nil {
		metrics.SweepErrors.Inc()
	}

	subs, subsErr := s.expireSubscriptions(db, userID, now)
	if subsErr != nil {
		metrics.SweepErrors.Inc()
	}

	return SweepResult{
		ExpiredAds:           ads.ExpiredAds,
		ExpiredPromotions:    ads.ExpiredPromotions,
		ExpiredSubscriptions: subs.ExpiredSubscriptions,
		DemotedUsers:         subs.DemotedUsers,
	}, errors.Join(adsErr, subsErr)
}

// expireAds снимает is_promoted и закрывает записи промо в одной транзакции
func (s *expiryService) expireAds(db *gorm.DB, userID string, now time.Time) (SweepResult, error) {
	var result SweepResult

	tx := db.Begin()
	if tx.Error != nil {
		return result, tx.Error
	}
	defer tx.Rollback()

	ads, err := s.adRepo.ExpirePromotions(tx, userID, now)
	if err != nil {
		return result, fmt.Errorf("expire ad promotions: %w", err)
	}
	promos, err := s.promotionRepo.ExpireOverdue(tx, userID, now)
	if err != nil {
		return result, fmt.Errorf("expire promotion records: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return result, err
	}

	result.ExpiredAds = ads
	result.ExpiredPromotions = promos
	return result, nil
}

// expireSubscriptions: подписки active -> inactive, затем снимаем премиум у тех,
// у кого не осталось ни одной активной. Одна транзакция.
func (s *expiryService) expireSubscriptions(db *gorm.DB, userID string, now time.Time) (SweepResult, error) {
	var result SweepResult

	tx := db.Begin()
	if tx.Error != nil {
		return result, tx.Error
	}
	defer tx.Rollback()

	subs, err := s.subscriptionRepo.ExpireOverdue(tx, userID, now)
	if err != nil {
		return result, fmt.Errorf("expire subscriptions: %w", err)
	}
	demoted, err := s.userRepo.ClearLapsedPremium(tx, userID, now)
	if err != nil {
		return result, fmt.Errorf("clear lapsed premium: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return result, err
	}

	result.ExpiredSubscriptions = subs
	result.DemotedUsers = demoted
	return result, nil
}

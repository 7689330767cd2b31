package repositories

import (
	"errors"
	"time"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionFilter struct {
	Status string
	UserID string
	Plan   string
}

type SubscriptionRepository interface {
	Create(db *gorm.DB, sub *models.Subscription) error
	FindByID(db *gorm.DB, id string) (*models.Subscription, error)
	FindByUser(db *gorm.DB, userID string) ([]models.Subscription, error)
	FindWithFilter(db *gorm.DB, filter SubscriptionFilter, offset, limit int) ([]models.Subscription, int64, error)
	Update(db *gorm.DB, sub *models.Subscription) error
	// ExpireOverdue - active -> inactive для всех, чей end_date прошёл.
	// Повторный вызов на тех же данных ничего не меняет.
	ExpireOverdue(db *gorm.DB, userID string, now time.Time) (int64, error)
}

type SubscriptionRepositoryImpl struct{}

func NewSubscriptionRepository() SubscriptionRepository {
	return &SubscriptionRepositoryImpl{}
}

func (r *SubscriptionRepositoryImpl) Create(db *gorm.DB, sub *models.Subscription) error {
	return db.Create(sub).Error
}

func (r *SubscriptionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Where("user_id = ?", userID).Order("start_date DESC").Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) FindWithFilter(db *gorm.DB, filter SubscriptionFilter, offset, limit int) ([]models.Subscription, int64, error) {
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Plan != "" {
			q = q.Where("plan = ?", filter.Plan)
		}
		return q
	}

	var total int64
	if err := apply(db.Model(&models.Subscription{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var subs []models.Subscription
	err := apply(db.Model(&models.Subscription{})).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error
	return subs, total, err
}

func (r *SubscriptionRepositoryImpl) Update(db *gorm.DB, sub *models.Subscription) error {
	result := db.Model(sub).Updates(map[string]interface{}{
		"status":   sub.Status,
		"end_date": sub.EndDate,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) ExpireOverdue(db *gorm.DB, userID string, now time.Time) (int64, error) {
	query := db.Model(&models.Subscription{}).
		Where("status = ?", models.SubscriptionStatusActive).
		Where("end_date < ?", now)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Updates(map[string]interface{}{
		"status":     models.SubscriptionStatusInactive,
		"updated_at": now,
	})
	return result.RowsAffected, result.Error
}

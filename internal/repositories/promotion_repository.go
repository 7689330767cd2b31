package repositories

import (
	"time"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

type PromotionRepository interface {
	Create(db *gorm.DB, promo *models.AdPromotion) error
	FindByAd(db *gorm.DB, adID string) ([]models.AdPromotion, error)
	ExpireOverdue(db *gorm.DB, userID string, now time.Time) (int64, error)
}

type PromotionRepositoryImpl struct{}

func NewPromotionRepository() PromotionRepository {
	return &PromotionRepositoryImpl{}
}

func (r *PromotionRepositoryImpl) Create(db *gorm.DB, promo *models.AdPromotion) error {
	return db.Create(promo).Error
}

func (r *PromotionRepositoryImpl) FindByAd(db *gorm.DB, adID string) ([]models.AdPromotion, error) {
	var promos []models.AdPromotion
	err := db.Where("ad_id = ?", adID).Order("start_date DESC").Find(&promos).Error
	return promos, err
}

func (r *PromotionRepositoryImpl) ExpireOverdue(db *gorm.DB, userID string, now time.Time) (int64, error) {
	query := db.Model(&models.AdPromotion{}).
		Where("status = ?", models.PromotionStatusActive).
		Where("end_date < ?", now)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Updates(map[string]interface{}{
		"status":     models.PromotionStatusExpired,
		"updated_at": now,
	})
	return result.RowsAffected, result.Error
}

package repositories

import (
	"errors"
	"time"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAdNotFound    = errors.New("ad not found")
	ErrInvalidFilter = errors.New("invalid ad filter")
)

type AdRepository interface {
	Create(db *gorm.DB, ad *models.Ad) error

	FindByID(db *gorm.DB, id string) (*models.Ad, error)
	FindByIDWithOwner(db *gorm.DB, id string) (*models.Ad, error)
	FindByIDAndOwner(db *gorm.DB, id, ownerID string) (*models.Ad, error)
	// ownerID == "" - без ограничения по владельцу (админ)
	FindByIDs(db *gorm.DB, ids []string, ownerID string) ([]models.Ad, error)

	FindPage(db *gorm.DB, q *AdQuery, offset, limit int) ([]models.Ad, error)
	Count(db *gorm.DB, q *AdQuery) (int64, error)
	CountByOwner(db *gorm.DB, ownerID string) (int64, error)

	// UpdateOwned меняет поля одного объявления, найденного по id и владельцу
	UpdateOwned(db *gorm.DB, id, ownerID string, fields map[string]interface{}) error
	IncrementViews(db *gorm.DB, id string) error
	DeleteByIDs(db *gorm.DB, ids []string, ownerID string) (int64, error)

	// ExpirePromotions - условный массовый UPDATE: снимает is_promoted только
	// с тех, у кого он ещё стоит и дата окончания прошла. userID == "" - по всем.
	ExpirePromotions(db *gorm.DB, userID string, now time.Time) (int64, error)
}

type AdRepositoryImpl struct{}

func NewAdRepository() AdRepository {
	return &AdRepositoryImpl{}
}

func (r *AdRepositoryImpl) Create(db *gorm.DB, ad *models.Ad) error {
	return db.Create(ad).Error
}

func (r *AdRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Ad, error) {
	var ad models.Ad
	if err := db.First(&ad, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepositoryImpl) FindByIDWithOwner(db *gorm.DB, id string) (*models.Ad, error) {
	var ad models.Ad
	if err := db.Preload("User").First(&ad, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepositoryImpl) FindByIDAndOwner(db *gorm.DB, id, ownerID string) (*models.Ad, error) {
	var ad models.Ad
	err := db.Where("id = ? AND user_id = ?", id, ownerID).First(&ad).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *AdRepositoryImpl) FindByIDs(db *gorm.DB, ids []string, ownerID string) ([]models.Ad, error) {
	var ads []models.Ad
	if len(ids) == 0 {
		return ads, nil
	}
	query := db.Where("id IN ?", ids)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}
	err := query.Find(&ads).Error
	return ads, err
}

func (r *AdRepositoryImpl) FindPage(db *gorm.DB, q *AdQuery, offset, limit int) ([]models.Ad, error) {
	var ads []models.Ad
	err := q.Apply(db.Model(&models.Ad{})).
		Preload("User").
		Offset(offset).
		Limit(limit).
		Find(&ads).Error
	return ads, err
}

func (r *AdRepositoryImpl) Count(db *gorm.DB, q *AdQuery) (int64, error) {
	var total int64
	err := q.ApplyFilters(db.Model(&models.Ad{})).Count(&total).Error
	return total, err
}

func (r *AdRepositoryImpl) CountByOwner(db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.Model(&models.Ad{}).Where("user_id = ?", ownerID).Count(&total).Error
	return total, err
}

func (r *AdRepositoryImpl) UpdateOwned(db *gorm.DB, id, ownerID string, fields map[string]interface{}) error {
	result := db.Model(&models.Ad{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *AdRepositoryImpl) IncrementViews(db *gorm.DB, id string) error {
	return db.Model(&models.Ad{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *AdRepositoryImpl) DeleteByIDs(db *gorm.DB, ids []string, ownerID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := db.Where("id IN ?", ids)
	if ownerID != "" {
		query = query.Where("user_id = ?", ownerID)
	}
	result := query.Delete(&models.Ad{})
	return result.RowsAffected, result.Error
}

func (r *AdRepositoryImpl) ExpirePromotions(db *gorm.DB, userID string, now time.Time) (int64, error) {
	query := db.Model(&models.Ad{}).
		Where("is_promoted = ?", true).
		Where("promotion_end_date IS NOT NULL AND promotion_end_date < ?", now)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Updates(map[string]interface{}{
		"is_promoted": false,
		"updated_at":  now,
	})
	return result.RowsAffected, result.Error
}

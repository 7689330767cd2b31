package repositories

import (
	"errors"
	"time"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	SetPremium(db *gorm.DB, userID string, premium bool) error
	// SyncPremium выставляет флаг по факту наличия активной подписки
	SyncPremium(db *gorm.DB, userID string) (bool, error)
	// ClearLapsedPremium снимает премиум у подписчиков, у которых не осталось
	// ни одной активной подписки. userID == "" - по всем пользователям.
	ClearLapsedPremium(db *gorm.DB, userID string, now time.Time) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if user.Email != "" {
		var existing int64
		if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrUserAlreadyExists
		}
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	return db.Create(user).Error
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) SetPremium(db *gorm.DB, userID string, premium bool) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("is_premium_user", premium)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SyncPremium(db *gorm.DB, userID string) (bool, error) {
	var active int64
	err := db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Count(&active).Error
	if err != nil {
		return false, err
	}
	premium := active > 0
	return premium, r.SetPremium(db, userID, premium)
}

func (r *UserRepositoryImpl) ClearLapsedPremium(db *gorm.DB, userID string, now time.Time) (int64, error) {
	lapsed := db.Model(&models.Subscription{}).
		Select("user_id").
		Where("status = ?", models.SubscriptionStatusInactive)
	active := db.Model(&models.Subscription{}).
		Select("user_id").
		Where("status = ?", models.SubscriptionStatusActive)

	query := db.Model(&models.User{}).
		Where("is_premium_user = ?", true).
		Where("id IN (?)", lapsed).
		Where("id NOT IN (?)", active)
	if userID != "" {
		query = query.Where("id = ?", userID)
	}

	result := query.Updates(map[string]interface{}{
		"is_premium_user": false,
		"updated_at":      now,
	})
	return result.RowsAffected, result.Error
}

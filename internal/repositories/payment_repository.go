package repositories

import (
	"errors"

	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound  = errors.New("payment transaction not found")
	ErrPaymentDuplicate = errors.New("payment transaction already recorded")
)

type PaymentRepository interface {
	Create(db *gorm.DB, txn *models.PaymentTransaction) error
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.PaymentTransaction, error)
	FindByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error)
	LinkSubscription(db *gorm.DB, id, subscriptionID string) error
	LinkPromotion(db *gorm.DB, id, promotionID string) error
}

type PaymentRepositoryImpl struct{}

func NewPaymentRepository() PaymentRepository {
	return &PaymentRepositoryImpl{}
}

// Create переводит нарушение уникальности transaction_id в ErrPaymentDuplicate
// (нужно TranslateError: true в gorm.Config)
func (r *PaymentRepositoryImpl) Create(db *gorm.DB, txn *models.PaymentTransaction) error {
	if err := db.Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPaymentDuplicate
		}
		return err
	}
	return nil
}

func (r *PaymentRepositoryImpl) FindByTransactionID(db *gorm.DB, transactionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := db.Where("transaction_id = ?", transactionID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &txn, nil
}

func (r *PaymentRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

func (r *PaymentRepositoryImpl) LinkSubscription(db *gorm.DB, id, subscriptionID string) error {
	return db.Model(&models.PaymentTransaction{}).Where("id = ?", id).Update("subscription_id", subscriptionID).Error
}

func (r *PaymentRepositoryImpl) LinkPromotion(db *gorm.DB, id, promotionID string) error {
	return db.Model(&models.PaymentTransaction{}).Where("id = ?", id).Update("ad_promotion_id", promotionID).Error
}

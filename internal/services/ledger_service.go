package services

import (
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// ComputeEndDate: day/week/month/year - календарно, 7days/15days/30days - ровно N суток
func ComputeEndDate(plan string, start time.Time) (time.Time, error) {
	switch plan {
	case models.PlanDay:
		return start.AddDate(0, 0, 1), nil
	case models.PlanWeek:
		return start.AddDate(0, 0, 7), nil
	case models.PlanMonth:
		return start.AddDate(0, 1, 0), nil
	case models.PlanYear:
		return start.AddDate(1, 0, 0), nil
	case models.Plan7Days:
		return start.Add(7 * 24 * time.Hour), nil
	case models.Plan15Days:
		return start.Add(15 * 24 * time.Hour), nil
	case models.Plan30Days:
		return start.Add(30 * 24 * time.Hour), nil
	default:
		return time.Time{}, apperrors.ErrUnknownPlan(plan)
	}
}

// LedgerService создаёт подписки и промо только из уже подтверждённых платежей.
// Проверка статуса у шлюза - забота вызывающего.
type LedgerService interface {
	ComputeEndDate(plan string, start time.Time) (time.Time, error)
	CreateSubscription(db *gorm.DB, payment *dto.PaymentConfirmation, txn *models.PaymentTransaction, start time.Time) (*models.Subscription, error)
	CreatePromotion(db *gorm.DB, payment *dto.PaymentConfirmation, ad *models.Ad, txn *models.PaymentTransaction, start time.Time) (*models.AdPromotion, error)
}

type ledgerService struct {
	subscriptionRepo repositories.SubscriptionRepository
	promotionRepo    repositories.PromotionRepository
}

func NewLedgerService(
	subscriptionRepo repositories.SubscriptionRepository,
	promotionRepo repositories.PromotionRepository,
) LedgerService {
	return &ledgerService{
		subscriptionRepo: subscriptionRepo,
		promotionRepo:    promotionRepo,
	}
}

func (s *ledgerService) ComputeEndDate(plan string, start time.Time) (time.Time, error) {
	return ComputeEndDate(plan, start)
}

func (s *ledgerService) CreateSubscription(
	db *gorm.DB,
	payment *dto.PaymentConfirmation,
	txn *models.PaymentTransaction,
	start time.Time,
) (*models.Subscription, error) {
	if models.PaymentStatus(payment.Status) != models.PaymentStatusPaid {
		return nil, apperrors.ErrPaymentNotConfirmed
	}

	end, err := ComputeEndDate(payment.Plan, start)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:    payment.UserID,
		Plan:      payment.Plan,
		Price:     payment.Amount,
		Currency:  payment.Currency,
		Duration:  payment.Plan,
		StartDate: start,
		EndDate:   end,
		Status:    models.SubscriptionStatusActive,
	}
	if txn != nil {
		sub.PaymentTransactionID = txn.ID
	}

	if err := s.subscriptionRepo.Create(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return sub, nil
}

func (s *ledgerService) CreatePromotion(
	db *gorm.DB,
	payment *dto.PaymentConfirmation,
	ad *models.Ad,
	txn *models.PaymentTransaction,
	start time.Time,
) (*models.AdPromotion, error) {
	if models.PaymentStatus(payment.Status) != models.PaymentStatusPaid {
		return nil, apperrors.ErrPaymentNotConfirmed
	}

	end, err := ComputeEndDate(payment.Plan, start)
	if err != nil {
		return nil, err
	}

	promo := &models.AdPromotion{
		AdID:      ad.ID,
		UserID:    ad.UserID,
		Plan:      payment.Plan,
		StartDate: start,
		EndDate:   end,
		Status:    models.PromotionStatusActive,
	}
	if txn != nil {
		promo.PaymentTransactionID = txn.ID
	}

	if err := s.promotionRepo.Create(db, promo); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return promo, nil
}

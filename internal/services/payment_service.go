package services

import (
	"context"
	"errors"
	"time"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/metrics"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// PaymentService применяет подтверждённые платежи: подписка + премиум либо продвижение объявления.
// Повтор вебхука с тем же transactionId ничего не меняет.
type PaymentService interface {
	HandleConfirmation(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error)
	CreateSubscription(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error)
	PromoteAd(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error)
}

type paymentService struct {
	ledger      LedgerService
	adRepo      repositories.AdRepository
	userRepo    repositories.UserRepository
	paymentRepo repositories.PaymentRepository
	notifier    notify.Dispatcher
	now         Clock
}

func NewPaymentService(
	ledger LedgerService,
	adRepo repositories.AdRepository,
	userRepo repositories.UserRepository,
	paymentRepo repositories.PaymentRepository,
	notifier notify.Dispatcher,
	now Clock,
) PaymentService {
	if now == nil {
		now = SystemClock
	}
	if notifier == nil {
		notifier = notify.LogDispatcher{}
	}
	return &paymentService{
		ledger:      ledger,
		adRepo:      adRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		notifier:    notifier,
		now:         now,
	}
}

func (s *paymentService) HandleConfirmation(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error) {
	switch models.PaymentType(payment.PaymentType) {
	case models.PaymentTypeSubscription:
		return s.CreateSubscription(ctx, db, payment)
	case models.PaymentTypePromotion:
		return s.PromoteAd(ctx, db, payment)
	default:
		return nil, apperrors.ErrUnknownPaymentType(payment.PaymentType)
	}
}

func (s *paymentService) CreateSubscription(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error) {
	if result := s.precheck(db, payment); result != nil {
		return result, nil
	}
	if !models.IsKnownPlan(payment.Plan) {
		return nil, apperrors.ErrUnknownPlan(payment.Plan)
	}

	now := s.now()
	var (
		user *models.User
		txn  *models.PaymentTransaction
		sub  *models.Subscription
	)

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByID(tx, payment.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	txn = newTransaction(payment, models.PaymentTypeSubscription)
	if err := s.paymentRepo.Create(tx, txn); err != nil {
		if errors.Is(err, repositories.ErrPaymentDuplicate) {
			return s.duplicate(payment), nil
		}
		return nil, apperrors.InternalError(err)
	}

	sub, err = s.ledger.CreateSubscription(tx, payment, txn, now)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.LinkSubscription(tx, txn.ID, sub.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.userRepo.SetPremium(tx, user.ID, true); err != nil {
		return nil, mapRepoError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	txn.SubscriptionID = &sub.ID
	metrics.PaymentsApplied.WithLabelValues(string(models.PaymentTypeSubscription)).Inc()
	logger.CtxInfo(ctx, "subscription activated",
		"user_id", user.ID, "plan", sub.Plan, "end_date", sub.EndDate, "transaction_id", payment.TransactionID)

	_ = s.notifier.Dispatch(ctx, notify.Event{
		Type:      notify.EventSubscriptionActivated,
		UserID:    user.ID,
		Recipient: user.Email,
		Data: map[string]string{
			"plan":    sub.Plan,
			"endDate": sub.EndDate.Format(time.DateOnly),
		},
	})

	return &dto.PaymentResult{
		Applied:      true,
		Status:       payment.Status,
		Message:      "Subscription activated",
		Transaction:  txn,
		Subscription: sub,
	}, nil
}

func (s *paymentService) PromoteAd(ctx context.Context, db *gorm.DB, payment *dto.PaymentConfirmation) (*dto.PaymentResult, error) {
	if result := s.precheck(db, payment); result != nil {
		return result, nil
	}
	if payment.AdID == "" {
		return nil, apperrors.NewBadRequestError("adId is required for promotion payments")
	}
	if !models.IsKnownPlan(payment.Plan) {
		return nil, apperrors.ErrUnknownPlan(payment.Plan)
	}

	now := s.now()

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	// Объявление ищем только среди объявлений плательщика
	ad, err := s.adRepo.FindByIDAndOwner(tx, payment.AdID, payment.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	txn := newTransaction(payment, models.PaymentTypePromotion)
	if err := s.paymentRepo.Create(tx, txn); err != nil {
		if errors.Is(err, repositories.ErrPaymentDuplicate) {
			return s.duplicate(payment), nil
		}
		return nil, apperrors.InternalError(err)
	}

	promo, err := s.ledger.CreatePromotion(tx, payment, ad, txn, now)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.LinkPromotion(tx, txn.ID, promo.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	err = s.adRepo.UpdateOwned(tx, ad.ID, ad.UserID, map[string]interface{}{
		"is_promoted":            true,
		"promotion_plan":         promo.Plan,
		"promotion_start_date":   promo.StartDate,
		"promotion_end_date":     promo.EndDate,
		"payment_transaction_id": txn.ID,
		"updated_at":             now,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	ad, err = s.adRepo.FindByID(tx, ad.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	txn.AdPromotionID = &promo.ID
	metrics.PaymentsApplied.WithLabelValues(string(models.PaymentTypePromotion)).Inc()
	logger.CtxInfo(ctx, "ad promoted",
		"ad_id", ad.ID, "plan", promo.Plan, "end_date", promo.EndDate, "transaction_id", payment.TransactionID)

	event := notify.Event{
		Type:   notify.EventAdPromoted,
		UserID: ad.UserID,
		Data: map[string]string{
			"adId":     ad.ID,
			"adNumber": ad.AdNumber,
			"endDate":  promo.EndDate.Format(time.DateOnly),
		},
	}
	if owner, err := s.userRepo.FindByID(db, ad.UserID); err == nil {
		event.Recipient = owner.Email
	}
	_ = s.notifier.Dispatch(ctx, event)

	return &dto.PaymentResult{
		Applied:     true,
		Status:      payment.Status,
		Message:     "Ad promoted",
		Transaction: txn,
		Promotion:   promo,
		Ad:          ad,
	}, nil
}

// precheck возвращает no-op результат, если платёж не оплачен или уже применён.
// nil - можно применять.
func (s *paymentService) precheck(db *gorm.DB, payment *dto.PaymentConfirmation) *dto.PaymentResult {
	if models.PaymentStatus(payment.Status) != models.PaymentStatusPaid {
		metrics.PaymentsIgnored.WithLabelValues("not_paid").Inc()
		return &dto.PaymentResult{
			Applied: false,
			Status:  payment.Status,
			Message: "Payment is not confirmed, nothing changed",
		}
	}

	if _, err := s.paymentRepo.FindByTransactionID(db, payment.TransactionID); err == nil {
		return s.duplicate(payment)
	}
	return nil
}

func (s *paymentService) duplicate(payment *dto.PaymentConfirmation) *dto.PaymentResult {
	metrics.PaymentsIgnored.WithLabelValues("duplicate").Inc()
	logger.Warn("payment confirmation replayed", "transaction_id", payment.TransactionID)
	return &dto.PaymentResult{
		Applied:   false,
		Duplicate: true,
		Status:    payment.Status,
		Message:   "Transaction already applied, nothing changed",
	}
}

func newTransaction(payment *dto.PaymentConfirmation, paymentType models.PaymentType) *models.PaymentTransaction {
	return &models.PaymentTransaction{
		TransactionID: payment.TransactionID,
		UserID:        payment.UserID,
		Type:          paymentType,
		Company:       payment.PaymentCompany,
		Currency:      payment.Currency,
		Price:         payment.Amount,
		Status:        models.PaymentStatusPaid,
	}
}

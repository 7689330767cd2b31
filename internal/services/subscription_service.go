package services

import (
	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type SubscriptionService interface {
	GetUserSubscriptions(db *gorm.DB, userID string) ([]models.Subscription, error)

	// Admin operations
	ListSubscriptions(db *gorm.DB, query *dto.SubscriptionListQuery, page, limit int) (*dto.SubscriptionListResponse, error)
	UpdateSubscription(db *gorm.DB, id string, req *dto.UpdateSubscriptionRequest) (*models.Subscription, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
	}
}

func (s *subscriptionService) GetUserSubscriptions(db *gorm.DB, userID string) ([]models.Subscription, error) {
	subs, err := s.subscriptionRepo.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return subs, nil
}

func (s *subscriptionService) ListSubscriptions(
	db *gorm.DB,
	query *dto.SubscriptionListQuery,
	page, limit int,
) (*dto.SubscriptionListResponse, error) {
	page, limit = NormalizePagination(page, limit)

	var filter repositories.SubscriptionFilter
	if query != nil {
		filter.Status = query.Status
		filter.UserID = query.UserID
		filter.Plan = query.Plan
	}

	subs, total, err := s.subscriptionRepo.FindWithFilter(db, filter, offset(page, limit), limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.SubscriptionListResponse{
		Total:         total,
		Subscriptions: subs,
		Page:          page,
		Limit:         limit,
	}, nil
}

// UpdateSubscription - правка админом. Флаг премиума пользователя
// пересчитывается в той же транзакции.
func (s *subscriptionService) UpdateSubscription(
	db *gorm.DB,
	id string,
	req *dto.UpdateSubscriptionRequest,
) (*models.Subscription, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	sub, err := s.subscriptionRepo.FindByID(tx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if req.Status != nil {
		sub.Status = models.SubscriptionStatus(*req.Status)
	}
	if req.EndDate != nil {
		sub.EndDate = req.EndDate.UTC()
	}

	if err := s.subscriptionRepo.Update(tx, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if _, err := s.userRepo.SyncPremium(tx, sub.UserID); err != nil {
		return nil, mapRepoError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}
	return sub, nil
}

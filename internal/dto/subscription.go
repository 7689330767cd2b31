package dto

import (
	"time"

	"classifieds_backend/internal/models"
)

type SubscriptionListQuery struct {
	Status string `form:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	UserID string `form:"userId" json:"userId" validate:"omitempty,uuid"`
	Plan   string `form:"plan" json:"plan" validate:"omitempty,is-plan"`
}

type SubscriptionListResponse struct {
	Total         int64                 `json:"total"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

// UpdateSubscriptionRequest - правка админом. После неё флаг премиума
// пользователя синхронизируется с наличием активных подписок.
type UpdateSubscriptionRequest struct {
	Status  *string    `json:"status" validate:"omitempty,oneof=active inactive"`
	EndDate *time.Time `json:"endDate"`
}

type SweepResponse struct {
	ExpiredAds           int64 `json:"expiredAds"`
	ExpiredPromotions    int64 `json:"expiredPromotions"`
	ExpiredSubscriptions int64 `json:"expiredSubscriptions"`
	DemotedUsers         int64 `json:"demotedUsers"`
}

package models

type UserRole string
type SubscriptionStatus string
type PromotionStatus string
type PaymentStatus string
type PaymentType string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"

	PromotionStatusActive  PromotionStatus = "active"
	PromotionStatusExpired PromotionStatus = "expired"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"

	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypePromotion    PaymentType = "promotion"
)

// Коды тарифов. Подписки - day/week/month/year, продвижение - 7days/15days/30days,
// но леджер принимает любой из них для обоих путей.
const (
	PlanDay    = "day"
	PlanWeek   = "week"
	PlanMonth  = "month"
	PlanYear   = "year"
	Plan7Days  = "7days"
	Plan15Days = "15days"
	Plan30Days = "30days"
)

// Фильтр "дата публикации" в каталоге
const (
	PostedAll        = "All"
	PostedLastDay    = "Last 1 day"
	PostedLast30Days = "Last 30 days"
	PostedLastMonth  = "Last month"
	PostedLastYear   = "Last year"
)

func IsKnownPlan(plan string) bool {
	switch plan {
	case PlanDay, PlanWeek, PlanMonth, PlanYear, Plan7Days, Plan15Days, Plan30Days:
		return true
	}
	return false
}

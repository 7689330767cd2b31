package services

import (
	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/repositories"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	CatalogService      CatalogService
	AdService           AdService
	LedgerService       LedgerService
	PaymentService      PaymentService
	ExpiryService       ExpiryService
	SubscriptionService SubscriptionService
}

// Dependencies - всё, что сервисам нужно снаружи
type Dependencies struct {
	Images   ImageStore
	Notifier notify.Dispatcher
	Ads      AdServiceConfig
	Clock    Clock
}

// NewServiceContainer собирает репозитории и сервисы
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	adRepo := repositories.NewAdRepository()
	userRepo := repositories.NewUserRepository()
	subscriptionRepo := repositories.NewSubscriptionRepository()
	promotionRepo := repositories.NewPromotionRepository()
	paymentRepo := repositories.NewPaymentRepository()
	reportRepo := repositories.NewReportRepository()

	ledger := NewLedgerService(subscriptionRepo, promotionRepo)

	return &ServiceContainer{
		CatalogService: NewCatalogService(adRepo, deps.Clock),
		AdService: NewAdService(
			adRepo, userRepo, reportRepo,
			deps.Images, deps.Notifier, deps.Ads, deps.Clock,
		),
		LedgerService: ledger,
		PaymentService: NewPaymentService(
			ledger, adRepo, userRepo, paymentRepo,
			deps.Notifier, deps.Clock,
		),
		ExpiryService: NewExpiryService(
			adRepo, promotionRepo, subscriptionRepo, userRepo, deps.Clock,
		),
		SubscriptionService: NewSubscriptionService(subscriptionRepo, userRepo),
	}
}

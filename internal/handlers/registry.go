package handlers

import (
	"classifieds_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AdHandler           *AdHandler
	AdminHandler        *AdminHandler
	PaymentHandler      *PaymentHandler
	SubscriptionHandler *SubscriptionHandler
}

func NewAppHandlers(base *BaseHandler, svc *services.ServiceContainer, sweeper SweepRunner) *AppHandlers {
	return &AppHandlers{
		AdHandler:           NewAdHandler(base, svc.CatalogService, svc.AdService, svc.ExpiryService),
		AdminHandler:        NewAdminHandler(base, svc.CatalogService, svc.AdService, sweeper),
		PaymentHandler:      NewPaymentHandler(base, svc.PaymentService),
		SubscriptionHandler: NewSubscriptionHandler(base, svc.SubscriptionService),
	}
}

func (h *AppHandlers) RegisterRoutes(r *gin.RouterGroup) {
	h.AdHandler.RegisterRoutes(r)
	h.AdminHandler.RegisterRoutes(r)
	h.PaymentHandler.RegisterRoutes(r)
	h.SubscriptionHandler.RegisterRoutes(r)
}

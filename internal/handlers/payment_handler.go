package handlers

import (
	"net/http"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// PaymentHandler принимает подтверждения от платёжной границы.
// Сам шлюз сюда не входит: он присылает уже проверенный результат.
type PaymentHandler struct {
	*BaseHandler
	payments services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, payments services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: base,
		payments:    payments,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	payments.Use(h.guards.Webhook...)
	{
		payments.POST("/confirm", h.Confirm)
	}
}

// Confirm POST /payments/confirm. Повтор той же транзакции - 200 с duplicate=true.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.PaymentConfirmation
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.payments.HandleConfirmation(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if result.Applied {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

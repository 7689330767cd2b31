package handlers

import (
	"net/http"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptions services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptions services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:   base,
		subscriptions: subscriptions,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	my := r.Group("/subscriptions")
	my.Use(h.guards.Authenticated...)
	{
		my.GET("/my", h.GetMySubscriptions)
	}

	admin := r.Group("/admin/subscriptions")
	admin.Use(h.guards.Admin...)
	{
		admin.GET("", h.ListSubscriptions)
		admin.PUT("/:subscriptionId", h.UpdateSubscription)
	}
}

func (h *SubscriptionHandler) GetMySubscriptions(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subs, err := h.subscriptions.GetUserSubscriptions(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	var query dto.SubscriptionListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, limit := ParsePagination(c)

	resp, err := h.subscriptions.ListSubscriptions(h.GetDB(c), &query, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	var req dto.UpdateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.UpdateSubscription(h.GetDB(c), c.Param("subscriptionId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

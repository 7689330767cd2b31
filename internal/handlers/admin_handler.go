package handlers

import (
	"context"
	"errors"
	"net/http"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/services"
	"classifieds_backend/internal/workers"
	"classifieds_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// SweepRunner - ручной запуск глобального прохода истечения
type SweepRunner interface {
	RunOnce(ctx context.Context) (services.SweepResult, error)
}

type AdminHandler struct {
	*BaseHandler
	catalog services.CatalogService
	ads     services.AdService
	sweeper SweepRunner
}

func NewAdminHandler(base *BaseHandler, catalog services.CatalogService, ads services.AdService, sweeper SweepRunner) *AdminHandler {
	return &AdminHandler{
		BaseHandler: base,
		catalog:     catalog,
		ads:         ads,
		sweeper:     sweeper,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(h.guards.Admin...)
	{
		admin.GET("/ads", h.SearchAds)
		admin.DELETE("/ads", h.DeleteAds)
		admin.GET("/reports", h.ListReports)
		admin.POST("/expiry/run", h.RunExpiry)
	}
}

func (h *AdminHandler) SearchAds(c *gin.Context) {
	var query dto.AdminAdQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, limit := ParsePagination(c)

	resp, err := h.catalog.AdminSearchAds(h.GetDB(c), &query, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) DeleteAds(c *gin.Context) {
	var req dto.DeleteAdsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	deleted, err := h.ads.AdminDeleteAds(c.Request.Context(), h.GetDB(c), req.AdIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted})
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	page, limit := ParsePagination(c)

	resp, err := h.ads.ListReports(h.GetDB(c), page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunExpiry POST /admin/expiry/run - проход вне расписания.
// Если плановый проход ещё идёт, отвечаем 409.
func (h *AdminHandler) RunExpiry(c *gin.Context) {
	result, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		if errors.Is(err, workers.ErrSweepInProgress) {
			h.HandleServiceError(c, apperrors.ErrConflict(err, "expiry", "Expiry sweep already in progress"))
			return
		}
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SweepResponse{
		ExpiredAds:           result.ExpiredAds,
		ExpiredPromotions:    result.ExpiredPromotions,
		ExpiredSubscriptions: result.ExpiredSubscriptions,
		DemotedUsers:         result.DemotedUsers,
	})
}

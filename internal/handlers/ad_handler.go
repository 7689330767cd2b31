package handlers

import (
	"net/http"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AdHandler struct {
	*BaseHandler
	catalog services.CatalogService
	ads     services.AdService
	expiry  services.ExpiryService
}

func NewAdHandler(base *BaseHandler, catalog services.CatalogService, ads services.AdService, expiry services.ExpiryService) *AdHandler {
	return &AdHandler{
		BaseHandler: base,
		catalog:     catalog,
		ads:         ads,
		expiry:      expiry,
	}
}

func (h *AdHandler) RegisterRoutes(r *gin.RouterGroup) {
	public := r.Group("/ads")
	public.Use(h.guards.Public...)
	{
		public.GET("", h.ListAds)
		public.GET("/home", h.ListHomeAds)
		public.GET("/:adId", h.GetAd)
	}

	owner := r.Group("/ads")
	owner.Use(h.guards.Authenticated...)
	{
		owner.GET("/my", h.ListMyAds)
		owner.POST("", h.CreateAd)
		owner.PUT("/:adId", h.UpdateAd)
		owner.POST("/:adId/repost", h.RepostAd)
		owner.POST("/:adId/sold", h.MarkSold)
		owner.POST("/:adId/report", h.ReportAd)
		owner.DELETE("/:adId", h.DeleteAd)
		owner.DELETE("", h.DeleteAds)
		owner.POST("/expire", h.ExpireMyAds)
	}
}

// ListAds GET /ads - каталог с фильтрами, продвигаемые первыми
func (h *AdHandler) ListAds(c *gin.Context) {
	var query dto.AdListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}
	page, limit := ParsePagination(c)

	resp, err := h.catalog.ListAds(h.GetDB(c), &query, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListHomeAds GET /ads/home - витрина главной
func (h *AdHandler) ListHomeAds(c *gin.Context) {
	var query dto.AdListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.catalog.ListHomeAds(h.GetDB(c), &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdHandler) GetAd(c *gin.Context) {
	db := h.GetDB(c)
	adID := c.Param("adId")

	view, err := h.catalog.GetAdByID(db, adID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.catalog.RecordView(db, adID)
	c.JSON(http.StatusOK, view)
}

func (h *AdHandler) ListMyAds(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	page, limit := ParsePagination(c)

	resp, err := h.catalog.ListMyAds(h.GetDB(c), userID, page, limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateAd POST /ads - multipart: поля объявления + файлы "images"
func (h *AdHandler) CreateAd(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateAdRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	images, ok := h.ReadImages(c, "images")
	if !ok {
		return
	}

	view, err := h.ads.CreateAd(c.Request.Context(), h.GetDB(c), userID, &req, images)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateAd PUT /ads/:adId - keptImages задаёт, какие старые фото остаются
func (h *AdHandler) UpdateAd(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateAdRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	images, ok := h.ReadImages(c, "images")
	if !ok {
		return
	}

	view, err := h.ads.UpdateAd(c.Request.Context(), h.GetDB(c), userID, c.Param("adId"), &req, images)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AdHandler) RepostAd(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ad, err := h.ads.RepostAd(h.GetDB(c), userID, c.Param("adId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (h *AdHandler) MarkSold(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	ad, err := h.ads.MarkSold(h.GetDB(c), userID, c.Param("adId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (h *AdHandler) ReportAd(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ReportAdRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	report, err := h.ads.ReportAd(c.Request.Context(), h.GetDB(c), c.Param("adId"), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *AdHandler) DeleteAd(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.ads.DeleteAd(c.Request.Context(), h.GetDB(c), userID, c.Param("adId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAds DELETE /ads - массовое удаление своих объявлений, чужие id пропускаются
func (h *AdHandler) DeleteAds(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.DeleteAdsRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	deleted, err := h.ads.DeleteAds(c.Request.Context(), h.GetDB(c), userID, req.AdIDs)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkDeleteResponse{Deleted: deleted})
}

// ExpireMyAds POST /ads/expire - явная проверка промо вызывающего
func (h *AdHandler) ExpireMyAds(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	expired, err := h.expiry.ExpireUserAds(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SweepResponse{ExpiredAds: expired})
}

package services

import (
	"log/slog"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Размер каждой подборки на главной
const HomeSectionSize = 4

// Категории подборок главной (подстрока, без учёта регистра)
const (
	HomeCategorySale   = "sale"
	HomeCategoryRent   = "rent"
	HomeCategoryDemand = "demand"
)

// CatalogService - только чтение каталога. Ничего не меняет, кроме счётчика просмотров.
type CatalogService interface {
	ListAds(db *gorm.DB, query *dto.AdListQuery, page, limit int) (*dto.AdListResponse, error)
	ListHomeAds(db *gorm.DB, query *dto.AdListQuery) (*dto.HomeAdsResponse, error)
	GetAdByID(db *gorm.DB, id string) (*dto.AdView, error)
	RecordView(db *gorm.DB, id string)
	ListMyAds(db *gorm.DB, ownerID string, page, limit int) (*dto.AdListResponse, error)
	AdminSearchAds(db *gorm.DB, query *dto.AdminAdQuery, page, limit int) (*dto.AdListResponse, error)
}

type catalogService struct {
	adRepo repositories.AdRepository
	now    Clock
}

func NewCatalogService(adRepo repositories.AdRepository, now Clock) CatalogService {
	if now == nil {
		now = SystemClock
	}
	return &catalogService{adRepo: adRepo, now: now}
}

// FilterFromQuery собирает фильтр каталога из query-параметров
func FilterFromQuery(q *dto.AdListQuery) repositories.AdFilter {
	if q == nil {
		return repositories.AdFilter{}
	}
	return repositories.AdFilter{
		Categories:   dto.SplitMulti(q.Category),
		Conditions:   dto.SplitMulti(q.Condition),
		FuelTypes:    dto.SplitMulti(q.FuelType),
		Search:       q.Search,
		City:         q.City,
		PostedWithin: q.PostedWithin,
		IsPromoted:   q.IsPromoted,
		PriceSort:    q.PriceSort,
		DateSort:     q.DateSort,
	}
}

func (s *catalogService) ListAds(db *gorm.DB, query *dto.AdListQuery, page, limit int) (*dto.AdListResponse, error) {
	filter := FilterFromQuery(query)
	// публичный каталог: неактивные не показываем никогда
	filter.IncludeInactive = false
	filter.IsActive = nil
	return s.page(db, filter, page, limit)
}

func (s *catalogService) ListMyAds(db *gorm.DB, ownerID string, page, limit int) (*dto.AdListResponse, error) {
	return s.page(db, repositories.AdFilter{OwnerID: ownerID, IncludeInactive: true}, page, limit)
}

func (s *catalogService) AdminSearchAds(db *gorm.DB, query *dto.AdminAdQuery, page, limit int) (*dto.AdListResponse, error) {
	var filter repositories.AdFilter
	if query != nil {
		filter = FilterFromQuery(&query.AdListQuery)
		filter.OwnerID = query.UserID
		filter.IsActive = query.IsActive
		filter.IsSold = query.IsSold
	}
	filter.IncludeInactive = true
	return s.page(db, filter, page, limit)
}

func (s *catalogService) page(db *gorm.DB, filter repositories.AdFilter, page, limit int) (*dto.AdListResponse, error) {
	page, limit = NormalizePagination(page, limit)

	q, err := repositories.BuildAdQuery(filter, s.now())
	if err != nil {
		return nil, mapRepoError(err)
	}

	total, err := s.adRepo.Count(db, q)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ads, err := s.adRepo.FindPage(db, q, offset(page, limit), limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AdListResponse{
		TotalAds: total,
		Ads:      dto.NewAdViews(ads),
		Page:     page,
		Limit:    limit,
	}, nil
}

type homeSection struct {
	query *repositories.AdQuery
	out   *[]dto.AdView
}

// ListHomeAds - четыре независимые подборки по одному и тому же отфильтрованному набору
func (s *catalogService) ListHomeAds(db *gorm.DB, query *dto.AdListQuery) (*dto.HomeAdsResponse, error) {
	filter := FilterFromQuery(query)
	filter.IncludeInactive = false
	filter.IsActive = nil

	base, err := repositories.BuildAdQuery(filter, s.now())
	if err != nil {
		return nil, mapRepoError(err)
	}

	total, err := s.adRepo.Count(db, base)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.HomeAdsResponse{TotalAds: total}
	sections := []homeSection{
		{base.WithPromoted(), &resp.PromotedAds},
		{base.WithCategoryLike(HomeCategorySale), &resp.SaleAds},
		{base.WithCategoryLike(HomeCategoryRent), &resp.RentAds},
		{base.WithCategoryLike(HomeCategoryDemand), &resp.DemandAds},
	}

	for _, section := range sections {
		ads, err := s.adRepo.FindPage(db, section.query, 0, HomeSectionSize)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		*section.out = dto.NewAdViews(ads)
	}
	return resp, nil
}

// GetAdByID - прямой доступ по id, в том числе к неактивным
func (s *catalogService) GetAdByID(db *gorm.DB, id string) (*dto.AdView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrAdNotFound
	}

	ad, err := s.adRepo.FindByIDWithOwner(db, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	view := dto.NewAdView(*ad)
	return &view, nil
}

// RecordView - ошибки только логируются, просмотр объявления от них не ломается
func (s *catalogService) RecordView(db *gorm.DB, id string) {
	if err := s.adRepo.IncrementViews(db, id); err != nil {
		slog.Warn("failed to record ad view", "ad_id", id, "error", err)
	}
}


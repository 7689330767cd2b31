package services

import (
	"context"
	"fmt"

	"classifieds_backend/internal/dto"
	"classifieds_backend/internal/logger"
	"classifieds_backend/internal/models"
	"classifieds_backend/internal/notify"
	"classifieds_backend/internal/repositories"
	"classifieds_backend/internal/storage"
	"classifieds_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImageStore - внешнее хранилище фотографий объявлений
type ImageStore interface {
	Validate(f storage.File) error
	Upload(ctx context.Context, f storage.File) (string, error)
	Delete(ctx context.Context, urls []string) error
}

type AdServiceConfig struct {
	FreeAdLimit int64
	MaxImages   int
}

type AdService interface {
	CreateAd(ctx context.Context, db *gorm.DB, ownerID string, req *dto.CreateAdRequest, images []storage.File) (*dto.AdView, error)
	UpdateAd(ctx context.Context, db *gorm.DB, ownerID, adID string, req *dto.UpdateAdRequest, newImages []storage.File) (*dto.AdView, error)
	RepostAd(db *gorm.DB, ownerID, adID string) (*models.Ad, error)
	MarkSold(db *gorm.DB, ownerID, adID string) (*models.Ad, error)
	ReportAd(ctx context.Context, db *gorm.DB, adID, reporterID string, req *dto.ReportAdRequest) (*models.Report, error)

	DeleteAd(ctx context.Context, db *gorm.DB, ownerID, adID string) error
	DeleteAds(ctx context.Context, db *gorm.DB, ownerID string, adIDs []string) (int64, error)
	AdminDeleteAds(ctx context.Context, db *gorm.DB, adIDs []string) (int64, error)

	ListReports(db *gorm.DB, page, limit int) (*dto.ReportListResponse, error)
}

type adService struct {
	adRepo     repositories.AdRepository
	userRepo   repositories.UserRepository
	reportRepo repositories.ReportRepository
	images     ImageStore
	notifier   notify.Dispatcher
	cfg        AdServiceConfig
	now        Clock
}

func NewAdService(
	adRepo repositories.AdRepository,
	userRepo repositories.UserRepository,
	reportRepo repositories.ReportRepository,
	images ImageStore,
	notifier notify.Dispatcher,
	cfg AdServiceConfig,
	now Clock,
) AdService {
	if cfg.FreeAdLimit <= 0 {
		cfg.FreeAdLimit = 3
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 10
	}
	if now == nil {
		now = SystemClock
	}
	if notifier == nil {
		notifier = notify.LogDispatcher{}
	}
	return &adService{
		adRepo:     adRepo,
		userRepo:   userRepo,
		reportRepo: reportRepo,
		images:     images,
		notifier:   notifier,
		cfg:        cfg,
		now:        now,
	}
}

// =======================
// Создание и изменение
// =======================

func (s *adService) CreateAd(
	ctx context.Context,
	db *gorm.DB,
	ownerID string,
	req *dto.CreateAdRequest,
	images []storage.File,
) (*dto.AdView, error) {
	// Вся валидация - до первой записи куда-либо
	if len(images) == 0 {
		return nil, apperrors.ErrImagesRequired
	}
	if err := s.validateImages(images); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.FindByID(db, ownerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !owner.IsPremiumUser {
		count, err := s.adRepo.CountByOwner(db, ownerID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if count >= s.cfg.FreeAdLimit {
			return nil, apperrors.ErrAdQuotaExceeded.WithDetails(map[string]int64{
				"limit": s.cfg.FreeAdLimit,
				"owned": count,
			})
		}
	}

	// Сначала загрузка, потом запись в БД
	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	adNumber, err := models.NewAdNumber()
	if err != nil {
		s.logOrphans(ctx, "create", urls)
		return nil, apperrors.InternalError(err)
	}

	ad := &models.Ad{
		AdNumber:    adNumber,
		UserID:      ownerID,
		Category:    req.Category,
		Condition:   req.Condition,
		FuelType:    req.FuelType,
		TitleEn:     req.TitleEn,
		TitleLocal:  req.TitleLocal,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Year:        req.Year,
		City:        req.City,
		Images:      urls,
		IsActive:    true,
	}

	if err := s.adRepo.Create(db, ad); err != nil {
		s.logOrphans(ctx, "create", urls)
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "ad created", "ad_id", ad.ID, "ad_number", ad.AdNumber, "images", len(urls))

	ad.User = owner
	view := dto.NewAdView(*ad)
	return &view, nil
}

// UpdateAd: итоговый список картинок = оставленные клиентом (в его порядке) + новые.
// Всё, что было у объявления и не попало в оставленные, удаляется из хранилища.
func (s *adService) UpdateAd(
	ctx context.Context,
	db *gorm.DB,
	ownerID, adID string,
	req *dto.UpdateAdRequest,
	newImages []storage.File,
) (*dto.AdView, error) {
	ad, err := s.adRepo.FindByIDWithOwner(db, adID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if ad.UserID != ownerID {
		return nil, apperrors.ErrAdForbidden
	}

	if err := s.validateImages(newImages); err != nil {
		return nil, err
	}

	kept, removed := ImageDelta(ad.Images, req.KeptImages)
	if len(kept)+len(newImages) > s.cfg.MaxImages {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("An ad can have at most %d images", s.cfg.MaxImages))
	}

	uploaded, err := s.uploadAll(ctx, newImages)
	if err != nil {
		return nil, err
	}

	// Ошибка удаления прерывает операцию до сохранения
	if len(removed) > 0 {
		if err := s.images.Delete(ctx, removed); err != nil {
			s.logOrphans(ctx, "update", uploaded)
			return nil, apperrors.ErrStorageFailure(err)
		}
	}

	fields := adPatchFields(req)
	images := append(kept, uploaded...)
	fields["images"] = datatypes.JSONSlice[string](images)
	fields["updated_at"] = s.now()

	// Пишем только свои колонки: промо и флаги могли поменяться,
	// пока шли загрузки (оплата, истечение).
	if err := s.adRepo.UpdateOwned(db, adID, ownerID, fields); err != nil {
		s.logOrphans(ctx, "update", uploaded)
		return nil, mapRepoError(err)
	}

	updated, err := s.adRepo.FindByIDWithOwner(db, adID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	view := dto.NewAdView(*updated)
	return &view, nil
}

// ImageDelta делит текущие URL объявления на оставленные и удаляемые.
// Оставленные - в порядке клиента, без повторов; URL, которых у объявления
// не было, игнорируются.
func ImageDelta(current, keep []string) (kept, removed []string) {
	have := make(map[string]bool, len(current))
	for _, url := range current {
		have[url] = true
	}

	seen := make(map[string]bool, len(keep))
	kept = make([]string, 0, len(keep))
	for _, url := range keep {
		if have[url] && !seen[url] {
			seen[url] = true
			kept = append(kept, url)
		}
	}

	for _, url := range current {
		if !seen[url] {
			removed = append(removed, url)
		}
	}
	return kept, removed
}

// adPatchFields - колонки, которые клиент прислал в запросе
func adPatchFields(req *dto.UpdateAdRequest) map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(column string, value *string) {
		if value != nil {
			fields[column] = *value
		}
	}
	set("category", req.Category)
	set("condition", req.Condition)
	set("fuel_type", req.FuelType)
	set("title_en", req.TitleEn)
	set("title_local", req.TitleLocal)
	set("description", req.Description)
	set("currency", req.Currency)
	set("city", req.City)
	if req.Price != nil {
		fields["price"] = *req.Price
		fields["price_value"] = models.ParsePrice(*req.Price)
	}
	if req.Year != nil {
		fields["year"] = *req.Year
	}
	return fields
}

func (s *adService) RepostAd(db *gorm.DB, ownerID, adID string) (*models.Ad, error) {
	err := s.adRepo.UpdateOwned(db, adID, ownerID, map[string]interface{}{
		"is_renew":   true,
		"is_active":  true,
		"updated_at": s.now(),
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	ad, err := s.adRepo.FindByID(db, adID)
	return ad, mapRepoError(err)
}

func (s *adService) MarkSold(db *gorm.DB, ownerID, adID string) (*models.Ad, error) {
	err := s.adRepo.UpdateOwned(db, adID, ownerID, map[string]interface{}{
		"is_sold":    true,
		"updated_at": s.now(),
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	ad, err := s.adRepo.FindByID(db, adID)
	return ad, mapRepoError(err)
}

func (s *adService) ReportAd(
	ctx context.Context,
	db *gorm.DB,
	adID, reporterID string,
	req *dto.ReportAdRequest,
) (*models.Report, error) {
	ad, err := s.adRepo.FindByID(db, adID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if ad.UserID == reporterID {
		return nil, apperrors.ErrCannotReportOwnAd
	}

	reporter, err := s.userRepo.FindByID(db, reporterID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	report := &models.Report{
		AdID:          ad.ID,
		AdNumber:      ad.AdNumber,
		ReporterID:    reporter.ID,
		ReporterName:  reporter.Name,
		ReporterEmail: reporter.Email,
		Reason:        req.Reason,
		Message:       req.Message,
	}
	if err := s.reportRepo.Create(db, report); err != nil {
		return nil, apperrors.InternalError(err)
	}

	_ = s.notifier.Dispatch(ctx, notify.Event{
		Type:   notify.EventAdReported,
		UserID: ad.UserID,
		Data:   map[string]string{"adId": ad.ID, "adNumber": ad.AdNumber, "reason": req.Reason},
	})
	return report, nil
}

// =======================
// Удаление
// =======================

func (s *adService) DeleteAd(ctx context.Context, db *gorm.DB, ownerID, adID string) error {
	ad, err := s.adRepo.FindByID(db, adID)
	if err != nil {
		return mapRepoError(err)
	}
	if ad.UserID != ownerID {
		return apperrors.ErrAdForbidden
	}

	_, err = s.deleteAds(ctx, db, []models.Ad{*ad}, ownerID)
	return err
}

// DeleteAds удаляет только объявления вызывающего; чужие id молча пропускаются
func (s *adService) DeleteAds(ctx context.Context, db *gorm.DB, ownerID string, adIDs []string) (int64, error) {
	ads, err := s.adRepo.FindByIDs(db, adIDs, ownerID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return s.deleteAds(ctx, db, ads, ownerID)
}

func (s *adService) AdminDeleteAds(ctx context.Context, db *gorm.DB, adIDs []string) (int64, error) {
	ads, err := s.adRepo.FindByIDs(db, adIDs, "")
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return s.deleteAds(ctx, db, ads, "")
}

// deleteAds: сначала картинки, потом строки. Сбой хранилища - строки не трогаем.
func (s *adService) deleteAds(ctx context.Context, db *gorm.DB, ads []models.Ad, ownerID string) (int64, error) {
	if len(ads) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(ads))
	var urls []string
	for _, ad := range ads {
		ids = append(ids, ad.ID)
		urls = append(urls, ad.Images...)
	}

	if len(urls) > 0 {
		if err := s.images.Delete(ctx, urls); err != nil {
			return 0, apperrors.ErrStorageFailure(err)
		}
	}

	deleted, err := s.adRepo.DeleteByIDs(db, ids, ownerID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "ads deleted", "count", deleted, "images", len(urls))
	return deleted, nil
}

func (s *adService) ListReports(db *gorm.DB, page, limit int) (*dto.ReportListResponse, error) {
	page, limit = NormalizePagination(page, limit)

	reports, total, err := s.reportRepo.FindPage(db, offset(page, limit), limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.ReportListResponse{
		Total:   total,
		Reports: reports,
		Page:    page,
		Limit:   limit,
	}, nil
}

// =======================
// Картинки
// =======================

func (s *adService) validateImages(images []storage.File) error {
	if len(images) > s.cfg.MaxImages {
		return apperrors.NewBadRequestError(fmt.Sprintf("An ad can have at most %d images", s.cfg.MaxImages))
	}
	for _, img := range images {
		if err := s.images.Validate(img); err != nil {
			return err
		}
	}
	return nil
}

// uploadAll грузит по порядку; на первой ошибке останавливается.
// Уже загруженные файлы остаются в хранилище (логируются как осиротевшие).
func (s *adService) uploadAll(ctx context.Context, images []storage.File) ([]string, error) {
	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.images.Upload(ctx, img)
		if err != nil {
			s.logOrphans(ctx, "upload", urls)
			if _, ok := apperrors.AsAppError(err); ok {
				return nil, err
			}
			return nil, apperrors.ErrStorageFailure(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *adService) logOrphans(ctx context.Context, op string, urls []string) {
	if len(urls) == 0 {
		return
	}
	logger.CtxWarn(ctx, "uploaded images left without an ad", "operation", op, "urls", urls)
}

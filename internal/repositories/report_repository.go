package repositories

import (
	"classifieds_backend/internal/models"

	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(db *gorm.DB, report *models.Report) error
	FindPage(db *gorm.DB, offset, limit int) ([]models.Report, int64, error)
}

type ReportRepositoryImpl struct{}

func NewReportRepository() ReportRepository {
	return &ReportRepositoryImpl{}
}

func (r *ReportRepositoryImpl) Create(db *gorm.DB, report *models.Report) error {
	return db.Create(report).Error
}

func (r *ReportRepositoryImpl) FindPage(db *gorm.DB, offset, limit int) ([]models.Report, int64, error) {
	var total int64
	if err := db.Model(&models.Report{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reports).Error
	return reports, total, err
}

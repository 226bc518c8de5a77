package repository

import (
	"context"
	"presence-tracker/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HolidayRepository interface {
	Create(ctx context.Context, holiday *models.HolidayPeriod) error
	BulkCreate(ctx context.Context, holidays []models.HolidayPeriod) (int, error)
	GetByYears(ctx context.Context, years ...int) ([]models.HolidayPeriod, error)
	GetAll(ctx context.Context) ([]models.HolidayPeriod, error)
}

type GormHolidayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormHolidayRepository(db *gorm.DB, logger *logrus.Logger) (*GormHolidayRepository, error) {
	// Автомиграция для таблицы holiday_periods
	if err := db.AutoMigrate(&models.HolidayPeriod{}); err != nil {
		return nil, err
	}

	return &GormHolidayRepository{db: db, logger: defaultLogger(logger)}, nil
}

// Create сохраняет праздник; такой же праздник с теми же датами уже есть - ValidationError
func (r *GormHolidayRepository) Create(ctx context.Context, holiday *models.HolidayPeriod) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(holiday)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create holiday period")
		return models.NewStorageError("create holiday", result.Error)
	}
	if result.RowsAffected == 0 {
		return &models.ValidationError{Field: "holiday", Message: "already exists"}
	}

	r.logger.WithFields(logrus.Fields{
		"description": holiday.Description,
		"date_debut":  holiday.DateDebut,
		"date_fin":    holiday.DateFin,
	}).Info("Holiday period created")
	return nil
}

// BulkCreate пропускает уже сохраненные праздники и возвращает число новых строк
func (r *GormHolidayRepository) BulkCreate(ctx context.Context, holidays []models.HolidayPeriod) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&holidays)
	if result.Error != nil {
		return 0, models.NewStorageError("bulk create holidays", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *GormHolidayRepository) GetByYears(ctx context.Context, years ...int) ([]models.HolidayPeriod, error) {
	var holidays []models.HolidayPeriod
	err := r.db.WithContext(ctx).
		Where("year IN ?", years).
		Order("date_debut ASC").
		Find(&holidays).Error
	if err != nil {
		return nil, models.NewStorageError("get holidays", err)
	}
	return holidays, nil
}

func (r *GormHolidayRepository) GetAll(ctx context.Context) ([]models.HolidayPeriod, error) {
	var holidays []models.HolidayPeriod
	if err := r.db.WithContext(ctx).Order("date_debut ASC").Find(&holidays).Error; err != nil {
		return nil, models.NewStorageError("get all holidays", err)
	}
	return holidays, nil
}

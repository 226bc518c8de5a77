package repository

import (
	"context"
	"presence-tracker/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AbsencePeriodRepository interface {
	Create(ctx context.Context, period *models.AbsencePeriod) error
	BulkCreate(ctx context.Context, periods []models.AbsencePeriod) (int, error)
	GetByMatricule(ctx context.Context, matricule string) ([]models.AbsencePeriod, error)
	GetByKindAndMatricule(ctx context.Context, kind, matricule string) ([]models.AbsencePeriod, error)
	GetByKindAndMatriculeInYears(ctx context.Context, kind, matricule string, years ...int) ([]models.AbsencePeriod, error)
	GetByKindInYears(ctx context.Context, kind string, years ...int) ([]models.AbsencePeriod, error)
}

type GormAbsencePeriodRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAbsencePeriodRepository(db *gorm.DB, logger *logrus.Logger) (*GormAbsencePeriodRepository, error) {
	if err := db.AutoMigrate(&models.AbsencePeriod{}); err != nil {
		return nil, err
	}
	return &GormAbsencePeriodRepository{db: db, logger: defaultLogger(logger)}, nil
}

func (r *GormAbsencePeriodRepository) Create(ctx context.Context, period *models.AbsencePeriod) error {
	if err := r.db.WithContext(ctx).Create(period).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create absence period")
		return models.NewStorageError("create absence period", err)
	}

	r.logger.WithFields(logrus.Fields{
		"kind":       period.Kind,
		"matricule":  period.Matricule,
		"date_debut": period.DateDebut,
		"date_fin":   period.DateFin,
	}).Info("Absence period created")
	return nil
}

// BulkCreate пропускает уже сохраненные периоды и возвращает число новых строк
func (r *GormAbsencePeriodRepository) BulkCreate(ctx context.Context, periods []models.AbsencePeriod) (int, error) {
	if len(periods) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&periods)
	if result.Error != nil {
		return 0, models.NewStorageError("bulk create absence periods", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (r *GormAbsencePeriodRepository) GetByMatricule(ctx context.Context, matricule string) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).Where("matricule = ?", matricule).
		Order("date_debut DESC").
		Find(&periods).Error
	if err != nil {
		return nil, models.NewStorageError("get absence periods", err)
	}
	return periods, nil
}

func (r *GormAbsencePeriodRepository) GetByKindAndMatricule(ctx context.Context, kind, matricule string) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).Where("kind = ? AND matricule = ?", kind, matricule).
		Order("date_debut DESC").
		Find(&periods).Error
	if err != nil {
		return nil, models.NewStorageError("get absence periods", err)
	}
	return periods, nil
}

func (r *GormAbsencePeriodRepository) GetByKindAndMatriculeInYears(ctx context.Context, kind, matricule string, years ...int) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).
		Where("kind = ? AND matricule = ? AND year IN ?", kind, matricule, years).
		Order("date_debut ASC").
		Find(&periods).Error
	if err != nil {
		return nil, models.NewStorageError("get absence periods", err)
	}
	return periods, nil
}

func (r *GormAbsencePeriodRepository) GetByKindInYears(ctx context.Context, kind string, years ...int) ([]models.AbsencePeriod, error) {
	var periods []models.AbsencePeriod
	err := r.db.WithContext(ctx).
		Where("kind = ? AND year IN ?", kind, years).
		Order("matricule ASC, date_debut ASC").
		Find(&periods).Error
	if err != nil {
		return nil, models.NewStorageError("get absence periods", err)
	}
	return periods, nil
}

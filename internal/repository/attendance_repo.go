package repository

import (
	"context"
	"errors"
	"presence-tracker/internal/models"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceLedger журнал присутствия, разбитый на месячные партиции, ключ (matricule, date)
type AttendanceLedger interface {
	EnsurePartition(ctx context.Context, day time.Time) error
	FindToday(ctx context.Context, matricule string, day time.Time) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	AllInPartition(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error)
	ListPartition(ctx context.Context, period string) ([]models.AttendanceRecord, error)
	AllPartitions(ctx context.Context) ([]string, error)
	FindByDate(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error)
	FindByMatricule(ctx context.Context, matricule string) ([]models.AttendanceRecord, error)
	// WithPartition выполняет fn атомарно: запись в партицию сериализуется, изменения идут одной транзакцией
	WithPartition(ctx context.Context, day time.Time, fn func(tx AttendanceLedger) error) error
}

// partitionLocks по одному мьютексу на партицию
type partitionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (p *partitionLocks) get(period string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[period]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[period] = lock
	}
	return lock
}

type GormAttendanceLedger struct {
	db     *gorm.DB
	logger *logrus.Logger
	locks  *partitionLocks
	inTx   bool
}

func NewGormAttendanceLedger(db *gorm.DB, logger *logrus.Logger) (*GormAttendanceLedger, error) {
	logger = defaultLogger(logger)

	// Автомиграция
	if err := db.AutoMigrate(&models.AttendancePartition{}, &models.AttendanceRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance tables")
		return nil, err
	}

	logger.Info("Attendance ledger initialized")

	return &GormAttendanceLedger{
		db:     db,
		logger: logger,
		locks:  &partitionLocks{locks: make(map[string]*sync.Mutex)},
	}, nil
}

func (r *GormAttendanceLedger) WithPartition(ctx context.Context, day time.Time, fn func(tx AttendanceLedger) error) error {
	if r.inTx {
		return fn(r)
	}

	period := models.PartitionOf(day)
	lock := r.locks.get(period)
	lock.Lock()
	defer lock.Unlock()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormAttendanceLedger{
			db:     tx,
			logger: r.logger,
			locks:  r.locks,
			inTx:   true,
		})
	})
}

func (r *GormAttendanceLedger) EnsurePartition(ctx context.Context, day time.Time) error {
	partition := models.AttendancePartition{Period: models.PartitionOf(day)}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&partition)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("partition", partition.Period).Error("Failed to ensure partition")
		return models.NewStorageError("ensure partition", result.Error)
	}

	if result.RowsAffected > 0 {
		r.logger.WithField("partition", partition.Period).Info("Attendance partition created")
	}
	return nil
}

func (r *GormAttendanceLedger) FindToday(ctx context.Context, matricule string, day time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	result := r.db.WithContext(ctx).
		Where("matricule = ? AND date = ?", matricule, models.FormatDate(day)).
		First(&record)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"matricule": matricule,
			"date":      models.FormatDate(day),
		}).Debug("Attendance record not found for matricule/date")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance record")
		return nil, models.NewStorageError("find attendance", result.Error)
	}

	return &record, nil
}

func (r *GormAttendanceLedger) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	fields := logrus.Fields{
		"matricule": record.Matricule,
		"date":      record.Date,
		"state":     record.DepartureState,
	}

	if !record.IsValid() {
		r.logger.WithFields(fields).Warn("Invalid attendance record data")
		return &models.ValidationError{Field: "attendance", Message: "invalid attendance record"}
	}

	db := r.db.WithContext(ctx)

	if record.ID != 0 {
		result := db.Model(&models.AttendanceRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"nom_complet":         record.NomComplet,
				"departement":         record.Departement,
				"signature":           record.Signature,
				"heure_arrivee":       record.HeureArrivee,
				"heure_depart_prevue": record.HeureDepartPrevue,
				"heure_depart":        record.HeureDepart,
				"departure_state":     record.DepartureState,
			})
		if result.Error != nil {
			r.logger.WithError(result.Error).WithFields(fields).Error("Failed to update attendance record")
			return models.NewStorageError("update attendance", result.Error)
		}
		if result.RowsAffected == 0 {
			return &models.NotFoundError{Entity: "attendance record", Key: record.Matricule + "@" + record.Date}
		}

		r.logger.WithFields(fields).Info("Attendance record updated")
		return nil
	}

	result := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "matricule"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"heure_depart_prevue",
			"heure_depart",
			"departure_state",
			"updated_at",
		}),
	}).Create(record)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithFields(fields).Error("Failed to upsert attendance record")
		return models.NewStorageError("upsert attendance", result.Error)
	}

	r.logger.WithFields(fields).Info("Attendance record stored")
	return nil
}

func (r *GormAttendanceLedger) AllInPartition(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	return r.ListPartition(ctx, models.PartitionOf(day))
}

func (r *GormAttendanceLedger) ListPartition(ctx context.Context, period string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord

	result := r.db.WithContext(ctx).
		Where("period = ?", period).
		Order("date DESC, matricule ASC").
		Find(&records)
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("partition", period).Error("Failed to list partition")
		return nil, models.NewStorageError("list partition", result.Error)
	}

	r.logger.WithFields(logrus.Fields{
		"partition": period,
		"count":     len(records),
	}).Debug("Retrieved attendance partition")

	return records, nil
}

func (r *GormAttendanceLedger) AllPartitions(ctx context.Context) ([]string, error) {
	var periods []string

	result := r.db.WithContext(ctx).
		Model(&models.AttendancePartition{}).
		Order("period DESC").
		Pluck("period", &periods)
	if result.Error != nil {
		return nil, models.NewStorageError("list partitions", result.Error)
	}

	return periods, nil
}

func (r *GormAttendanceLedger) FindByDate(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord

	result := r.db.WithContext(ctx).
		Where("period = ? AND date = ?", models.PartitionOf(day), models.FormatDate(day)).
		Order("heure_arrivee ASC").
		Find(&records)
	if result.Error != nil {
		return nil, models.NewStorageError("find by date", result.Error)
	}

	return records, nil
}

func (r *GormAttendanceLedger) FindByMatricule(ctx context.Context, matricule string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord

	result := r.db.WithContext(ctx).
		Where("matricule = ?", matricule).
		Order("date DESC").
		Find(&records)
	if result.Error != nil {
		return nil, models.NewStorageError("find by matricule", result.Error)
	}

	return records, nil
}

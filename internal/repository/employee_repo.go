package repository

import (
	"context"
	"errors"
	"presence-tracker/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EmployeeRepository кадровый реестр (внешний по отношению к ядру, только чтение + регистрация)
type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByMatricule(ctx context.Context, matricule string) (*models.Employee, error)
	GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error)
	List(ctx context.Context) ([]models.Employee, error)
	LinkChat(ctx context.Context, matricule string, chatID int64) error
}

type GormEmployeeRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormEmployeeRepository(db *gorm.DB, logger *logrus.Logger) (*GormEmployeeRepository, error) {
	// Автомиграция - создает таблицу если ее нет
	if err := db.AutoMigrate(&models.Employee{}); err != nil {
		return nil, err
	}

	return &GormEmployeeRepository{db: db, logger: defaultLogger(logger)}, nil
}

func (r *GormEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if !employee.IsValid() {
		return &models.ValidationError{Field: "employee", Message: "matricule, nom, prenom and departement are required"}
	}

	existing, err := r.GetByMatricule(ctx, employee.Matricule)
	if err != nil {
		return err
	}
	if existing != nil {
		return &models.ValidationError{Field: "matricule", Message: "employee already exists"}
	}

	if err := r.db.WithContext(ctx).Create(employee).Error; err != nil {
		r.logger.WithError(err).WithField("matricule", employee.Matricule).Error("Failed to create employee")
		return models.NewStorageError("create employee", err)
	}

	r.logger.WithField("matricule", employee.Matricule).Info("Employee registered")
	return nil
}

func (r *GormEmployeeRepository) GetByMatricule(ctx context.Context, matricule string) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Where("matricule = ?", matricule).First(&employee)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, models.NewStorageError("get employee", result.Error)
	}

	return &employee, nil
}

func (r *GormEmployeeRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Where("chat_id = ?", chatID).First(&employee)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, models.NewStorageError("get employee by chat", result.Error)
	}

	return &employee, nil
}

func (r *GormEmployeeRepository) List(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	if err := r.db.WithContext(ctx).Order("matricule ASC").Find(&employees).Error; err != nil {
		return nil, models.NewStorageError("list employees", err)
	}
	return employees, nil
}

func (r *GormEmployeeRepository) LinkChat(ctx context.Context, matricule string, chatID int64) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("matricule = ?", matricule).
		Update("chat_id", chatID)

	if result.Error != nil {
		return models.NewStorageError("link chat", result.Error)
	}
	if result.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "employee", Key: matricule}
	}

	r.logger.WithFields(logrus.Fields{
		"matricule": matricule,
		"chat_id":   chatID,
	}).Info("Employee linked to chat")
	return nil
}

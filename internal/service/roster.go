package service

import (
	"context"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"strings"

	"github.com/sirupsen/logrus"
)

// RegisterRequest регистрация сотрудника администратором
type RegisterRequest struct {
	Matricule      string `validate:"required,max=32"`
	Nom            string `validate:"required,max=100"`
	Prenom         string `validate:"required,max=100"`
	Telephone      string `validate:"omitempty,max=32"`
	Departement    string `validate:"required,max=100"`
	LieuHabitation string `validate:"omitempty,max=200"`
}

// RosterService кадровый реестр
type RosterService struct {
	repo   repository.EmployeeRepository
	logger *logrus.Logger
}

func NewRosterService(repo repository.EmployeeRepository, logger *logrus.Logger) *RosterService {
	return &RosterService{repo: repo, logger: defaultLogger(logger)}
}

// Register создает сотрудника
func (s *RosterService) Register(ctx context.Context, req RegisterRequest) (*models.Employee, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Matricule:      strings.TrimSpace(req.Matricule),
		Nom:            strings.TrimSpace(req.Nom),
		Prenom:         strings.TrimSpace(req.Prenom),
		Telephone:      strings.TrimSpace(req.Telephone),
		Departement:    strings.TrimSpace(req.Departement),
		LieuHabitation: strings.TrimSpace(req.LieuHabitation),
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// LinkChat привязывает чат Telegram к сотруднику
func (s *RosterService) LinkChat(ctx context.Context, matricule string, chatID int64) (*models.Employee, error) {
	matricule = strings.TrimSpace(matricule)
	if matricule == "" {
		return nil, &models.ValidationError{Field: "matricule", Message: "is required"}
	}

	current, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Matricule != matricule {
		return nil, &models.ValidationError{Field: "chat_id", Message: "already linked to " + current.Matricule}
	}

	if err := s.repo.LinkChat(ctx, matricule, chatID); err != nil {
		return nil, err
	}
	return s.repo.GetByMatricule(ctx, matricule)
}

// GetByChatID сотрудник, привязанный к чату
func (s *RosterService) GetByChatID(ctx context.Context, chatID int64) (*models.Employee, error) {
	employee, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, &models.NotFoundError{Entity: "employee", Key: "chat"}
	}
	return employee, nil
}

// GetByMatricule сотрудник по табельному номеру
func (s *RosterService) GetByMatricule(ctx context.Context, matricule string) (*models.Employee, error) {
	employee, err := s.repo.GetByMatricule(ctx, strings.TrimSpace(matricule))
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, &models.NotFoundError{Entity: "employee", Key: matricule}
	}
	return employee, nil
}

// List реестр, отфильтрованный по отделу
func (s *RosterService) List(ctx context.Context, department string) ([]models.Employee, error) {
	employees, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if models.MatchesDepartment(e.Departement, department) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Identify превращает привязанный чат в результат идентификации
func (s *RosterService) Identify(ctx context.Context, chatID int64) (*models.Identity, error) {
	employee, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, &models.IdentityRejection{Reason: "Employé non reconnu. Utilisez /link <matricule> pour lier votre compte."}
	}
	return &models.Identity{
		EmployeeID: employee.Matricule,
		FullName:   employee.FullName(),
		Department: employee.Departement,
	}, nil
}

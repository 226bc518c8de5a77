package service

import (
	"context"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"presence-tracker/pkg/calendarcsv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HolidayRequest новый праздничный период
type HolidayRequest struct {
	Description string `validate:"required,max=200"`
	DateDebut   string `validate:"required,datetime=2006-01-02"`
	DateFin     string `validate:"required,datetime=2006-01-02"`
}

// PeriodRequest новый отпуск или командировка
type PeriodRequest struct {
	Matricule  string `validate:"required,max=32"`
	NomComplet string
	NomMission string
	DateDebut  string `validate:"required,datetime=2006-01-02"`
	DateFin    string `validate:"required,datetime=2006-01-02"`
}

// PeriodService административная запись календаря исключений
type PeriodService struct {
	holidayRepo repository.HolidayRepository
	absenceRepo repository.AbsencePeriodRepository
	roster      repository.EmployeeRepository
	calendar    *CalendarService
	strict      bool
	loc         *time.Location
	logger      *logrus.Logger

	// mu сериализует проверку пересечений и запись периода
	mu sync.Mutex
}

func NewPeriodService(
	holidayRepo repository.HolidayRepository,
	absenceRepo repository.AbsencePeriodRepository,
	roster repository.EmployeeRepository,
	calendar *CalendarService,
	strict bool,
	loc *time.Location,
	logger *logrus.Logger,
) *PeriodService {
	if loc == nil {
		loc = time.Local
	}
	return &PeriodService{
		holidayRepo: holidayRepo,
		absenceRepo: absenceRepo,
		roster:      roster,
		calendar:    calendar,
		strict:      strict,
		loc:         loc,
		logger:      defaultLogger(logger),
	}
}

// AddHoliday добавляет праздничный период
func (s *PeriodService) AddHoliday(ctx context.Context, req HolidayRequest) (*models.HolidayPeriod, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	r, err := s.parseRange(req.DateDebut, req.DateFin)
	if err != nil {
		return nil, err
	}

	holiday := &models.HolidayPeriod{
		Description: strings.TrimSpace(req.Description),
		DateDebut:   models.FormatDate(r.Start),
		DateFin:     models.FormatDate(r.End),
		Year:        r.Start.Year(),
	}
	if err := s.holidayRepo.Create(ctx, holiday); err != nil {
		return nil, err
	}
	return holiday, nil
}

// AddLeave добавляет отпуск
func (s *PeriodService) AddLeave(ctx context.Context, req PeriodRequest) (*models.AbsencePeriod, error) {
	return s.addPeriod(ctx, models.PeriodKindLeave, req)
}

// AddMission добавляет командировку; название обязательно
func (s *PeriodService) AddMission(ctx context.Context, req PeriodRequest) (*models.AbsencePeriod, error) {
	if strings.TrimSpace(req.NomMission) == "" {
		return nil, &models.ValidationError{Field: "nom_mission", Message: "is required"}
	}
	return s.addPeriod(ctx, models.PeriodKindMission, req)
}

// addPeriod общий метод: проверка, пересечения, сохранение
func (s *PeriodService) addPeriod(ctx context.Context, kind string, req PeriodRequest) (*models.AbsencePeriod, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	r, err := s.parseRange(req.DateDebut, req.DateFin)
	if err != nil {
		return nil, err
	}

	matricule := strings.TrimSpace(req.Matricule)
	employee, err := s.roster.GetByMatricule(ctx, matricule)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, &models.NotFoundError{Entity: "employee", Key: matricule}
	}

	name := strings.TrimSpace(req.NomComplet)
	if name == "" {
		name = employee.FullName()
	}

	period := &models.AbsencePeriod{
		Kind:       kind,
		Matricule:  matricule,
		NomComplet: name,
		NomMission: strings.TrimSpace(req.NomMission),
		DateDebut:  models.FormatDate(r.Start),
		DateFin:    models.FormatDate(r.End),
		Year:       r.Start.Year(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkConflicts(ctx, kind, matricule, r); err != nil {
		return nil, err
	}
	if err := s.absenceRepo.Create(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// checkConflicts пересечения с сохраненными периодами; в строгом режиме и с периодами другого вида
func (s *PeriodService) checkConflicts(ctx context.Context, kind, matricule string, r models.DateRange) error {
	if err := s.calendar.ValidateNewPeriod(ctx, kind, matricule, r.Start, r.End); err != nil {
		return err
	}
	if s.strict {
		return s.calendar.ValidateNewPeriod(ctx, otherKind(kind), matricule, r.Start, r.End)
	}
	return nil
}

// ListHolidays праздники, начинающиеся в году
func (s *PeriodService) ListHolidays(ctx context.Context, year int) ([]models.HolidayPeriod, error) {
	return s.holidayRepo.GetByYears(ctx, year)
}

// ListPeriods отпуска и командировки сотрудника
func (s *PeriodService) ListPeriods(ctx context.Context, matricule string) ([]models.AbsencePeriod, error) {
	matricule = strings.TrimSpace(matricule)
	if matricule == "" {
		return nil, &models.ValidationError{Field: "matricule", Message: "is required"}
	}
	return s.absenceRepo.GetByMatricule(ctx, matricule)
}

// ImportResult итог загрузки исторического календаря
type ImportResult struct {
	Holidays int
	Periods  int
	Skipped  int
}

// Import загружает исторические данные. Повторная загрузка тех же строк ничего не меняет:
// периоды, пересекающиеся с уже сохраненными или с ранее принятыми строками, пропускаются.
func (s *PeriodService) Import(ctx context.Context, holidays []models.HolidayPeriod, periods []models.AbsencePeriod) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.holidayRepo.BulkCreate(ctx, holidays)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Holidays: stored}

	accepted := make([]models.AbsencePeriod, 0, len(periods))
	ranges := make([]models.DateRange, 0, len(periods))
	for _, period := range periods {
		fields := logrus.Fields{
			"kind":       period.Kind,
			"matricule":  period.Matricule,
			"date_debut": period.DateDebut,
			"date_fin":   period.DateFin,
		}

		r, err := period.Range(s.loc)
		if err != nil || r.End.Before(r.Start) || !models.IsValidKind(period.Kind) {
			s.logger.WithFields(fields).Warn("Skipping imported period with invalid data")
			result.Skipped++
			continue
		}

		err = s.checkConflicts(ctx, period.Kind, period.Matricule, r)
		if err == nil {
			err = s.batchConflict(accepted, ranges, period, r)
		}
		if err != nil {
			if models.IsRetryable(err) {
				return nil, err
			}
			s.logger.WithError(err).WithFields(fields).Warn("Skipping conflicting imported period")
			result.Skipped++
			continue
		}

		accepted = append(accepted, period)
		ranges = append(ranges, r)
	}

	result.Periods, err = s.absenceRepo.BulkCreate(ctx, accepted)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"holidays": result.Holidays,
		"periods":  result.Periods,
		"skipped":  result.Skipped,
	}).Info("Calendar imported")
	return result, nil
}

// batchConflict пересечение с периодами, уже принятыми в этой загрузке
func (s *PeriodService) batchConflict(accepted []models.AbsencePeriod, ranges []models.DateRange, period models.AbsencePeriod, r models.DateRange) error {
	for i, other := range accepted {
		if other.Matricule != period.Matricule {
			continue
		}
		if other.Kind != period.Kind && !s.strict {
			continue
		}
		if ranges[i].Overlaps(r) {
			return &models.OverlapError{Kind: other.Kind, Existing: ranges[i]}
		}
	}
	return nil
}

// ImportLegacy переводит строки CSV-календаря в модели и загружает их через Import
func (s *PeriodService) ImportLegacy(ctx context.Context, cal *calendarcsv.Calendar) (*ImportResult, error) {
	holidays := make([]models.HolidayPeriod, 0, len(cal.Holidays))
	for _, h := range cal.Holidays {
		holidays = append(holidays, models.HolidayPeriod{
			Description: strings.TrimSpace(h.Description),
			DateDebut:   h.Start,
			DateFin:     h.End,
			Year:        yearOf(h.Start),
		})
	}

	periods := make([]models.AbsencePeriod, 0, len(cal.Leaves)+len(cal.Missions))
	for _, group := range []struct {
		kind string
		rows []calendarcsv.Period
	}{
		{models.PeriodKindLeave, cal.Leaves},
		{models.PeriodKindMission, cal.Missions},
	} {
		for _, p := range group.rows {
			periods = append(periods, models.AbsencePeriod{
				Kind:       group.kind,
				Matricule:  strings.TrimSpace(p.Matricule),
				NomComplet: p.FullName,
				NomMission: p.MissionName,
				DateDebut:  p.Start,
				DateFin:    p.End,
				Year:       yearOf(p.Start),
			})
		}
	}

	return s.Import(ctx, holidays, periods)
}

func yearOf(date string) int {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

func (s *PeriodService) parseRange(start, end string) (models.DateRange, error) {
	r, err := models.ParseRange(start, end, s.loc)
	if err != nil {
		return models.DateRange{}, &models.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	if r.End.Before(r.Start) {
		return models.DateRange{}, &models.ValidationError{Field: "date_fin", Message: "must not be before date_debut"}
	}
	return r, nil
}

func otherKind(kind string) string {
	if kind == models.PeriodKindLeave {
		return models.PeriodKindMission
	}
	return models.PeriodKindLeave
}

package service

import (
	"context"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// CalendarService календарь исключений: праздники, отпуска, командировки.
// Только чтение; некорректные даты в хранилище логируются и считаются "нет совпадения".
type CalendarService struct {
	holidayRepo repository.HolidayRepository
	absenceRepo repository.AbsencePeriodRepository
	loc         *time.Location
	logger      *logrus.Logger
}

func NewCalendarService(
	holidayRepo repository.HolidayRepository,
	absenceRepo repository.AbsencePeriodRepository,
	loc *time.Location,
	logger *logrus.Logger,
) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{
		holidayRepo: holidayRepo,
		absenceRepo: absenceRepo,
		loc:         loc,
		logger:      defaultLogger(logger),
	}
}

// yearBuckets год даты и предыдущий: период, начатый в декабре, продолжает действовать в январе
func yearBuckets(day time.Time) []int {
	return []int{day.Year() - 1, day.Year()}
}

// HolidayFor возвращает праздник, покрывающий дату, или nil
func (s *CalendarService) HolidayFor(ctx context.Context, day time.Time) (*models.HolidayPeriod, error) {
	holidays, err := s.holidayRepo.GetByYears(ctx, yearBuckets(day)...)
	if err != nil {
		return nil, err
	}
	return s.matchHoliday(holidays, day), nil
}

// IsHoliday true если дата попадает в праздничный период
func (s *CalendarService) IsHoliday(ctx context.Context, day time.Time) (bool, error) {
	holiday, err := s.HolidayFor(ctx, day)
	return holiday != nil, err
}

// HolidayName название праздника; ok=false если праздника нет
func (s *CalendarService) HolidayName(ctx context.Context, day time.Time) (string, bool, error) {
	holiday, err := s.HolidayFor(ctx, day)
	if err != nil || holiday == nil {
		return "", false, err
	}
	return holiday.Description, true, nil
}

// LeavePeriodFor отпуск сотрудника на дату или nil
func (s *CalendarService) LeavePeriodFor(ctx context.Context, matricule string, day time.Time) (*models.AbsencePeriod, error) {
	return s.periodFor(ctx, models.PeriodKindLeave, matricule, day)
}

// IsOnLeave сотрудник в отпуске на дату
func (s *CalendarService) IsOnLeave(ctx context.Context, matricule string, day time.Time) (bool, error) {
	period, err := s.LeavePeriodFor(ctx, matricule, day)
	return period != nil, err
}

// MissionPeriodFor командировка сотрудника на дату или nil
func (s *CalendarService) MissionPeriodFor(ctx context.Context, matricule string, day time.Time) (*models.AbsencePeriod, error) {
	return s.periodFor(ctx, models.PeriodKindMission, matricule, day)
}

// IsOnMission сотрудник в командировке на дату
func (s *CalendarService) IsOnMission(ctx context.Context, matricule string, day time.Time) (bool, error) {
	period, err := s.MissionPeriodFor(ctx, matricule, day)
	return period != nil, err
}

func (s *CalendarService) periodFor(ctx context.Context, kind, matricule string, day time.Time) (*models.AbsencePeriod, error) {
	periods, err := s.absenceRepo.GetByKindAndMatriculeInYears(ctx, kind, matricule, yearBuckets(day)...)
	if err != nil {
		return nil, err
	}
	return s.matchPeriod(periods, day), nil
}

// ValidateNewPeriod проверяет новый период на пересечение с периодами того же вида у сотрудника.
// Только проверка: сохранение выполняет вызывающий.
func (s *CalendarService) ValidateNewPeriod(ctx context.Context, kind, matricule string, start, end time.Time) error {
	if !models.IsValidKind(kind) {
		return &models.ValidationError{Field: "kind", Message: "must be leave or mission"}
	}
	if matricule == "" {
		return &models.ValidationError{Field: "matricule", Message: "is required"}
	}

	candidate := models.DateRange{Start: models.DateIn(start, s.loc), End: models.DateIn(end, s.loc)}
	if candidate.End.Before(candidate.Start) {
		return &models.ValidationError{Field: "date_fin", Message: "must not be before date_debut"}
	}

	// Проверка не ограничена годом: просматриваем все периоды сотрудника
	existing, err := s.absenceRepo.GetByKindAndMatricule(ctx, kind, matricule)
	if err != nil {
		return err
	}

	for _, period := range existing {
		r, err := period.Range(s.loc)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"kind":      kind,
				"matricule": matricule,
				"period_id": period.ID,
			}).Warn("Skipping period with malformed dates")
			continue
		}
		if candidate.Overlaps(r) {
			s.logger.WithFields(logrus.Fields{
				"kind":      kind,
				"matricule": matricule,
				"existing":  r.String(),
				"candidate": candidate.String(),
			}).Info("Period overlap detected")
			return &models.OverlapError{Kind: kind, Existing: r}
		}
	}

	return nil
}

// Snapshot загружает календарь для набора лет одним запросом на вид
func (s *CalendarService) Snapshot(ctx context.Context, years ...int) (*CalendarSnapshot, error) {
	buckets := make([]int, 0, len(years)*2)
	seen := make(map[int]bool)
	for _, y := range years {
		for _, b := range []int{y - 1, y} {
			if !seen[b] {
				seen[b] = true
				buckets = append(buckets, b)
			}
		}
	}

	holidays, err := s.holidayRepo.GetByYears(ctx, buckets...)
	if err != nil {
		return nil, err
	}
	leaves, err := s.absenceRepo.GetByKindInYears(ctx, models.PeriodKindLeave, buckets...)
	if err != nil {
		return nil, err
	}
	missions, err := s.absenceRepo.GetByKindInYears(ctx, models.PeriodKindMission, buckets...)
	if err != nil {
		return nil, err
	}

	snapshot := &CalendarSnapshot{
		service:  s,
		holidays: holidays,
		periods: map[string]map[string][]models.AbsencePeriod{
			models.PeriodKindLeave:   groupByMatricule(leaves),
			models.PeriodKindMission: groupByMatricule(missions),
		},
	}
	return snapshot, nil
}

func groupByMatricule(periods []models.AbsencePeriod) map[string][]models.AbsencePeriod {
	grouped := make(map[string][]models.AbsencePeriod)
	for _, p := range periods {
		grouped[p.Matricule] = append(grouped[p.Matricule], p)
	}
	return grouped
}

func (s *CalendarService) matchHoliday(holidays []models.HolidayPeriod, day time.Time) *models.HolidayPeriod {
	for i := range holidays {
		r, err := holidays[i].Range(s.loc)
		if err != nil {
			s.logger.WithError(err).WithField("holiday_id", holidays[i].ID).Warn("Skipping holiday with malformed dates")
			continue
		}
		if r.Contains(day) {
			return &holidays[i]
		}
	}
	return nil
}

func (s *CalendarService) matchPeriod(periods []models.AbsencePeriod, day time.Time) *models.AbsencePeriod {
	for i := range periods {
		r, err := periods[i].Range(s.loc)
		if err != nil {
			s.logger.WithError(err).WithField("period_id", periods[i].ID).Warn("Skipping period with malformed dates")
			continue
		}
		if r.Contains(day) {
			return &periods[i]
		}
	}
	return nil
}

// CalendarSnapshot неизменяемый срез календаря для отчетов
type CalendarSnapshot struct {
	service  *CalendarService
	holidays []models.HolidayPeriod
	periods  map[string]map[string][]models.AbsencePeriod
}

// Holiday праздник на дату или nil
func (c *CalendarSnapshot) Holiday(day time.Time) *models.HolidayPeriod {
	return c.service.matchHoliday(c.holidays, day)
}

// Period период вида kind у сотрудника на дату или nil
func (c *CalendarSnapshot) Period(kind, matricule string, day time.Time) *models.AbsencePeriod {
	return c.service.matchPeriod(c.periods[kind][matricule], day)
}

// IsExcused сотрудник в отпуске или командировке
func (c *CalendarSnapshot) IsExcused(matricule string, day time.Time) bool {
	return c.Period(models.PeriodKindLeave, matricule, day) != nil ||
		c.Period(models.PeriodKindMission, matricule, day) != nil
}

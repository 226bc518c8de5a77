package service

import (
	"context"
	"math"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TrackingService отчеты по журналу. Только чтение; каждый вызов считает заново.
type TrackingService struct {
	ledger     repository.AttendanceLedger
	calendar   *CalendarService
	roster     repository.EmployeeRepository
	classifier *StatusClassifier
	loc        *time.Location
	logger     *logrus.Logger
}

func NewTrackingService(
	ledger repository.AttendanceLedger,
	calendar *CalendarService,
	roster repository.EmployeeRepository,
	classifier *StatusClassifier,
	loc *time.Location,
	logger *logrus.Logger,
) *TrackingService {
	if loc == nil {
		loc = time.Local
	}
	return &TrackingService{
		ledger:     ledger,
		calendar:   calendar,
		roster:     roster,
		classifier: classifier,
		loc:        loc,
		logger:     defaultLogger(logger),
	}
}

// GetEmployeeTracking классифицированные записи за месяц (или за все месяцы), по убыванию даты.
// Праздники и дни отпуска/командировки сотрудника исключаются.
func (s *TrackingService) GetEmployeeTracking(ctx context.Context, filter models.TrackingFilter) ([]models.TrackingEntry, error) {
	periods, err := s.periodsFor(ctx, filter.Month)
	if err != nil {
		return nil, err
	}

	var records []models.AttendanceRecord
	years := make(map[int]bool)
	for _, period := range periods {
		partition, err := s.ledger.ListPartition(ctx, period)
		if err != nil {
			return nil, err
		}
		for _, record := range partition {
			if filter.Matricule != "" && !strings.EqualFold(record.Matricule, strings.TrimSpace(filter.Matricule)) {
				continue
			}
			if !models.MatchesDepartment(record.Departement, filter.Department) {
				continue
			}
			day, err := models.ParseDate(record.Date, s.loc)
			if err != nil {
				s.logger.WithError(err).WithField("record_id", record.ID).Warn("Skipping record with malformed date")
				continue
			}
			years[day.Year()] = true
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return []models.TrackingEntry{}, nil
	}

	snapshot, err := s.calendar.Snapshot(ctx, keys(years)...)
	if err != nil {
		return nil, err
	}

	entries := make([]models.TrackingEntry, 0, len(records))
	for _, record := range records {
		day, _ := models.ParseDate(record.Date, s.loc)
		if snapshot.Holiday(day) != nil || snapshot.IsExcused(record.Matricule, day) {
			continue
		}
		entries = append(entries, s.entry(record))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].Matricule < entries[j].Matricule
	})

	s.logger.WithFields(logrus.Fields{
		"month":      filter.Month,
		"matricule":  filter.Matricule,
		"department": filter.Department,
		"entries":    len(entries),
	}).Debug("Tracking computed")

	return entries, nil
}

// GetAbsentEmployees реестр минус пришедшие, минус отпуск, минус командировка
func (s *TrackingService) GetAbsentEmployees(ctx context.Context, day time.Time, department, matricule string) (*models.AbsenceReport, error) {
	report := &models.AbsenceReport{Date: models.FormatDate(day), Employees: []models.AbsentEmployee{}}

	holiday, err := s.calendar.HolidayFor(ctx, day)
	if err != nil {
		return nil, err
	}
	if holiday != nil {
		report.Holiday = holiday.Description
		return report, nil
	}

	roster, err := s.filteredRoster(ctx, department, matricule)
	if err != nil {
		return nil, err
	}

	present, err := s.presentSet(ctx, day)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.calendar.Snapshot(ctx, day.Year())
	if err != nil {
		return nil, err
	}

	for _, employee := range roster {
		if present[employee.Matricule] || snapshot.IsExcused(employee.Matricule, day) {
			continue
		}
		report.Employees = append(report.Employees, models.AbsentEmployee{
			Matricule:   employee.Matricule,
			Nom:         employee.Nom,
			Prenom:      employee.Prenom,
			Telephone:   employee.Telephone,
			Departement: employee.Departement,
			Status:      models.StatusAbsent,
			Duration:    models.FormatWorked(0),
		})
	}

	return report, nil
}

// GetAdvancedReports дневная сводка по отделу
func (s *TrackingService) GetAdvancedReports(ctx context.Context, day time.Time, department string) (*models.AdvancedReport, error) {
	report := &models.AdvancedReport{Date: models.FormatDate(day)}
	if !models.MatchesDepartment("", department) {
		report.Department = strings.TrimSpace(department)
	}

	holiday, err := s.calendar.HolidayFor(ctx, day)
	if err != nil {
		return nil, err
	}
	if holiday != nil {
		report.Holiday = holiday.Description
		return report, nil
	}

	roster, err := s.filteredRoster(ctx, department, "")
	if err != nil {
		return nil, err
	}

	records, err := s.ledger.FindByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	byMatricule := make(map[string]*models.AttendanceRecord, len(records))
	for i := range records {
		byMatricule[records[i].Matricule] = &records[i]
	}

	snapshot, err := s.calendar.Snapshot(ctx, day.Year())
	if err != nil {
		return nil, err
	}

	report.TotalEmployees = len(roster)
	for _, employee := range roster {
		switch {
		case snapshot.Period(models.PeriodKindLeave, employee.Matricule, day) != nil:
			report.OnLeave++
			continue
		case snapshot.Period(models.PeriodKindMission, employee.Matricule, day) != nil:
			report.OnMission++
			continue
		}

		record, ok := byMatricule[employee.Matricule]
		if !ok || !record.HasArrival() {
			report.AbsentToday++
			continue
		}

		report.PresentToday++
		if s.classifier.IsLateArrival(record) {
			report.LateArrivals++
		}
		if s.classifier.IsEarlyDeparture(record) && record.Worked(s.loc) > models.ReservedSlot {
			report.EarlyDepartures++
		}
		if record.AwaitingDeparture() {
			report.MissingDepartures++
		}
	}

	return report, nil
}

// GetDailyAttendance все записи за дату
func (s *TrackingService) GetDailyAttendance(ctx context.Context, day time.Time) ([]models.AttendanceRecord, error) {
	return s.ledger.FindByDate(ctx, day)
}

// GetPresentNow пришедшие и еще не ушедшие, с данными из реестра
func (s *TrackingService) GetPresentNow(ctx context.Context, day time.Time) ([]models.PresentEmployee, error) {
	records, err := s.ledger.FindByDate(ctx, day)
	if err != nil {
		return nil, err
	}

	employees, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	byMatricule := make(map[string]models.Employee, len(employees))
	for _, e := range employees {
		byMatricule[e.Matricule] = e
	}

	present := make([]models.PresentEmployee, 0)
	for _, record := range records {
		if !record.AwaitingDeparture() {
			continue
		}
		item := models.PresentEmployee{
			Matricule:    record.Matricule,
			NomComplet:   record.NomComplet,
			Departement:  record.Departement,
			HeureArrivee: *record.HeureArrivee,
			Date:         record.Date,
		}
		if e, ok := byMatricule[record.Matricule]; ok {
			item.Nom = e.Nom
			item.Prenom = e.Prenom
		}
		present = append(present, item)
	}

	sort.Slice(present, func(i, j int) bool {
		return present[i].HeureArrivee < present[j].HeureArrivee
	})
	return present, nil
}

// GetEmployeeStats дни присутствия и часы по подтвержденным уходам; границы включительно, nil без ограничения
func (s *TrackingService) GetEmployeeStats(ctx context.Context, matricule string, from, to *time.Time) (*models.EmployeeStats, error) {
	matricule = strings.TrimSpace(matricule)
	if matricule == "" {
		return nil, &models.ValidationError{Field: "matricule", Message: "is required"}
	}

	records, err := s.ledger.FindByMatricule(ctx, matricule)
	if err != nil {
		return nil, err
	}

	stats := &models.EmployeeStats{Matricule: matricule}
	days := make(map[string]bool)
	var worked time.Duration
	for _, record := range records {
		if from != nil && record.Date < models.FormatDate(*from) {
			continue
		}
		if to != nil && record.Date > models.FormatDate(*to) {
			continue
		}
		days[record.Date] = true
		worked += record.Worked(s.loc)
	}

	stats.TotalDays = len(days)
	stats.TotalHours = round2(worked.Hours())
	if stats.TotalDays > 0 {
		stats.AverageHoursPerDay = round2(worked.Hours() / float64(stats.TotalDays))
	}

	s.logger.WithField("stats", stats.String()).Debug("Employee stats computed")
	return stats, nil
}

func (s *TrackingService) entry(record models.AttendanceRecord) models.TrackingEntry {
	entry := models.TrackingEntry{
		AttendanceRecord: record,
		Classification:   s.classifier.Classify(&record),
	}
	if record.IsDeparted() {
		entry.Worked = models.FormatWorked(record.Worked(s.loc))
	}
	return entry
}

// periodsFor одна партиция для month или все существующие
func (s *TrackingService) periodsFor(ctx context.Context, month string) ([]string, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return s.ledger.AllPartitions(ctx)
	}
	parsed, err := models.ParsePartition(month)
	if err != nil {
		return nil, &models.ValidationError{Field: "month", Message: "expected YYYY-MM"}
	}
	return []string{models.PartitionOf(parsed)}, nil
}

func (s *TrackingService) filteredRoster(ctx context.Context, department, matricule string) ([]models.Employee, error) {
	employees, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}
	matricule = strings.TrimSpace(matricule)

	filtered := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if !models.MatchesDepartment(e.Departement, department) {
			continue
		}
		if matricule != "" && !strings.EqualFold(e.Matricule, matricule) {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

func (s *TrackingService) presentSet(ctx context.Context, day time.Time) (map[string]bool, error) {
	records, err := s.ledger.FindByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(records))
	for _, record := range records {
		if record.HasArrival() {
			present[record.Matricule] = true
		}
	}
	return present, nil
}

func keys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

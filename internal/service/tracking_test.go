package service

import (
	"context"
	"errors"
	"presence-tracker/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDay заполняет журнал для 2025-06-02 (понедельник)
func seedDay(t *testing.T, f *fixture) {
	t.Helper()

	f.employee(t, "E1", "Diop", "Awa", "Finance")
	f.employee(t, "E2", "Ndiaye", "Moussa", "Finance")
	f.employee(t, "E3", "Fall", "Fatou", "IT")
	f.employee(t, "E4", "Sarr", "Cheikh", "IT")
	f.employee(t, "E5", "Ba", "Mariama", "finance")

	f.rawPeriod(t, models.PeriodKindLeave, "E4", "2025-06-01", "2025-06-05")

	// E1: вовремя, ушел поздно
	require.Equal(t, models.ActionArrivee, f.scan(t, "E1", "2025-06-02", "08:00:00").Action)
	require.Equal(t, models.ActionDepart, f.scan(t, "E1", "2025-06-02", "18:00:00").Action)
	// E2: опоздал, ушел рано
	require.Equal(t, models.ActionArrivee, f.scan(t, "E2", "2025-06-02", "08:20:00").Action)
	require.Equal(t, models.ActionDepart, f.scan(t, "E2", "2025-06-02", "16:40:00").Action)
	// E3: пришел, не ушел
	require.Equal(t, models.ActionArrivee, f.scan(t, "E3", "2025-06-02", "09:00:00").Action)
}

func TestTrackingService_GetAdvancedReports(t *testing.T) {
	f := newFixture(t)
	seedDay(t, f)
	ctx := context.Background()
	day := f.at(t, "2025-06-02", "00:00:00")

	all, err := f.tracking.GetAdvancedReports(ctx, day, "all")
	require.NoError(t, err)
	assert.False(t, all.IsHoliday())
	assert.Equal(t, "", all.Department)
	assert.Equal(t, 5, all.TotalEmployees)
	assert.Equal(t, 3, all.PresentToday)
	assert.Equal(t, 1, all.OnLeave)
	assert.Equal(t, 0, all.OnMission)
	assert.Equal(t, 1, all.AbsentToday)
	assert.Equal(t, 2, all.LateArrivals)
	assert.Equal(t, 1, all.EarlyDepartures)
	assert.Equal(t, 1, all.MissingDepartures)

	finance, err := f.tracking.GetAdvancedReports(ctx, day, "FINANCE")
	require.NoError(t, err)
	assert.Equal(t, "FINANCE", finance.Department)
	assert.Equal(t, 3, finance.TotalEmployees)
	assert.Equal(t, 2, finance.PresentToday)
	assert.Equal(t, 1, finance.AbsentToday)
	assert.Equal(t, 1, finance.LateArrivals)
	assert.Equal(t, 0, finance.MissingDepartures)
}

func TestTrackingService_EarlyDepartureIgnoresOneHourSpan(t *testing.T) {
	f := newFixture(t)
	f.employee(t, "E1", "Diop", "Awa", "Finance")

	require.Equal(t, models.ActionArrivee, f.scan(t, "E1", "2025-06-02", "08:00:00").Action)
	require.Equal(t, models.ActionDepart, f.scan(t, "E1", "2025-06-02", "09:00:00").Action)

	report, err := f.tracking.GetAdvancedReports(context.Background(), f.at(t, "2025-06-02", "00:00:00"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.PresentToday)
	assert.Equal(t, 0, report.EarlyDepartures)
	assert.Equal(t, 0, report.MissingDepartures)
}

func TestTrackingService_GetAbsentEmployees(t *testing.T) {
	f := newFixture(t)
	seedDay(t, f)
	ctx := context.Background()
	day := f.at(t, "2025-06-02", "00:00:00")

	report, err := f.tracking.GetAbsentEmployees(ctx, day, "", "")
	require.NoError(t, err)
	require.Len(t, report.Employees, 1)
	absent := report.Employees[0]
	assert.Equal(t, "E5", absent.Matricule)
	assert.Equal(t, "Mariama", absent.Prenom)
	assert.Equal(t, models.StatusAbsent, absent.Status)
	assert.Equal(t, "0h00min", absent.Duration)

	it, err := f.tracking.GetAbsentEmployees(ctx, day, "it", "")
	require.NoError(t, err)
	assert.Empty(t, it.Employees)

	single, err := f.tracking.GetAbsentEmployees(ctx, day, "", "E1")
	require.NoError(t, err)
	assert.Empty(t, single.Employees)

	nobody, err := f.tracking.GetAbsentEmployees(ctx, f.at(t, "2025-06-03", "00:00:00"), "", "")
	require.NoError(t, err)
	assert.Len(t, nobody.Employees, 4)
}

func TestTrackingService_HolidayShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.employee(t, "E1", "Diop", "Awa", "Finance")
	f.holiday(t, "Tabaski", "2025-06-06", "2025-06-07")
	ctx := context.Background()
	day := f.at(t, "2025-06-06", "00:00:00")

	absent, err := f.tracking.GetAbsentEmployees(ctx, day, "", "")
	require.NoError(t, err)
	assert.True(t, absent.IsHoliday())
	assert.Equal(t, "Tabaski", absent.Holiday)
	assert.Empty(t, absent.Employees)

	report, err := f.tracking.GetAdvancedReports(ctx, day, "")
	require.NoError(t, err)
	assert.True(t, report.IsHoliday())
	assert.Equal(t, 0, report.TotalEmployees)
}

func TestTrackingService_GetEmployeeTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scan(t, "E1", "2025-06-02", "08:00:00")
	f.scan(t, "E1", "2025-06-02", "17:00:00")
	f.scan(t, "E1", "2025-06-03", "08:30:00")
	f.scan(t, "E1", "2025-06-04", "08:00:00")
	f.scan(t, "E2", "2025-06-03", "08:00:00")
	f.scan(t, "E1", "2025-05-30", "08:00:00")

	// праздник и отпуск, добавленные после факта, исключают записи
	f.holiday(t, "Jour férié", "2025-06-04", "2025-06-04")
	f.rawPeriod(t, models.PeriodKindLeave, "E2", "2025-06-03", "2025-06-03")

	entries, err := f.tracking.GetEmployeeTracking(ctx, models.TrackingFilter{Month: "2025-06"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-06-03", entries[0].Date)
	assert.Equal(t, models.StatusMissingDeparture, entries[0].Status)
	assert.Equal(t, "", entries[0].Worked)
	assert.Equal(t, "2025-06-02", entries[1].Date)
	assert.Equal(t, models.StatusNormal, entries[1].Status)
	assert.Equal(t, "9h00min", entries[1].Worked)

	everything, err := f.tracking.GetEmployeeTracking(ctx, models.TrackingFilter{Matricule: "E1"})
	require.NoError(t, err)
	require.Len(t, everything, 3)
	assert.Equal(t, "2025-05-30", everything[2].Date)

	none, err := f.tracking.GetEmployeeTracking(ctx, models.TrackingFilter{Month: "2025-06", Department: "IT"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.tracking.GetEmployeeTracking(ctx, models.TrackingFilter{Month: "juin"})
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestTrackingService_PresentNowAndDaily(t *testing.T) {
	f := newFixture(t)
	seedDay(t, f)
	ctx := context.Background()
	day := f.at(t, "2025-06-02", "00:00:00")

	daily, err := f.tracking.GetDailyAttendance(ctx, day)
	require.NoError(t, err)
	assert.Len(t, daily, 3)

	present, err := f.tracking.GetPresentNow(ctx, day)
	require.NoError(t, err)
	require.Len(t, present, 1)
	assert.Equal(t, "E3", present[0].Matricule)
	assert.Equal(t, "Fatou", present[0].Prenom)
	assert.Equal(t, "Fall", present[0].Nom)
	assert.Equal(t, "09:00:00", present[0].HeureArrivee)
}

func TestTrackingService_GetEmployeeStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scan(t, "E1", "2025-06-02", "08:00:00")
	f.scan(t, "E1", "2025-06-02", "17:00:00")
	f.scan(t, "E1", "2025-06-03", "08:00:00")
	f.scan(t, "E1", "2025-06-03", "16:20:00")
	f.scan(t, "E1", "2025-06-04", "08:00:00")

	stats, err := f.tracking.GetEmployeeStats(ctx, "E1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDays)
	assert.Equal(t, 17.33, stats.TotalHours)
	assert.Equal(t, 5.78, stats.AverageHoursPerDay)

	from := f.at(t, "2025-06-03", "00:00:00")
	ranged, err := f.tracking.GetEmployeeStats(ctx, "E1", &from, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ranged.TotalDays)
	assert.Equal(t, 8.33, ranged.TotalHours)

	_, err = f.tracking.GetEmployeeStats(ctx, "", nil, nil)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

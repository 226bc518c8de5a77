package service

import (
	"context"
	"fmt"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLoc = time.UTC

type fixture struct {
	db         *gorm.DB
	ledger     *repository.GormAttendanceLedger
	holidays   *repository.GormHolidayRepository
	absences   *repository.GormAbsencePeriodRepository
	employees  *repository.GormEmployeeRepository
	calendar   *CalendarService
	classifier *StatusClassifier
	attendance *AttendanceService
	tracking   *TrackingService
	periods    *PeriodService
	roster     *RosterService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{db: db}
	f.ledger, err = repository.NewGormAttendanceLedger(db, log)
	require.NoError(t, err)
	f.holidays, err = repository.NewGormHolidayRepository(db, log)
	require.NoError(t, err)
	f.absences, err = repository.NewGormAbsencePeriodRepository(db, log)
	require.NoError(t, err)
	f.employees, err = repository.NewGormEmployeeRepository(db, log)
	require.NoError(t, err)

	f.calendar = NewCalendarService(f.holidays, f.absences, testLoc, log)
	f.classifier = NewStatusClassifier(models.DefaultThresholds())
	f.attendance = NewAttendanceService(f.ledger, f.calendar, testLoc, "DB_CARBA", log).
		WithClock(func() time.Time { return f.now })
	f.tracking = NewTrackingService(f.ledger, f.calendar, f.employees, f.classifier, testLoc, log)
	f.periods = NewPeriodService(f.holidays, f.absences, f.employees, f.calendar, true, testLoc, log)
	f.roster = NewRosterService(f.employees, log)

	return f
}

func (f *fixture) at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	day, err := models.ParseDate(date, testLoc)
	require.NoError(t, err)
	return models.At(day, models.MustClock(clock))
}

// scan выполняет сканирование в заданный момент
func (f *fixture) scan(t *testing.T, matricule, date, clock string) models.ScanOutcome {
	t.Helper()
	f.now = f.at(t, date, clock)
	return f.attendance.RecordAttendance(context.Background(), matricule, "Awa Diop", "Finance")
}

func (f *fixture) employee(t *testing.T, matricule, nom, prenom, department string) {
	t.Helper()
	_, err := f.roster.Register(context.Background(), RegisterRequest{
		Matricule:   matricule,
		Nom:         nom,
		Prenom:      prenom,
		Departement: department,
		Telephone:   "770000000",
	})
	require.NoError(t, err)
}

func (f *fixture) holiday(t *testing.T, description, start, end string) {
	t.Helper()
	_, err := f.periods.AddHoliday(context.Background(), HolidayRequest{
		Description: description, DateDebut: start, DateFin: end,
	})
	require.NoError(t, err)
}

func (f *fixture) rawPeriod(t *testing.T, kind, matricule, start, end string) {
	t.Helper()
	day, err := models.ParseDate(start, testLoc)
	require.NoError(t, err)
	require.NoError(t, f.absences.Create(context.Background(), &models.AbsencePeriod{
		Kind:       kind,
		Matricule:  matricule,
		NomComplet: "Awa Diop",
		NomMission: "Audit",
		DateDebut:  start,
		DateFin:    end,
		Year:       day.Year(),
	}))
}

func strptr(s string) *string { return &s }

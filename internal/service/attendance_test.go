package service

import (
	"context"
	"errors"
	"presence-tracker/internal/models"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceService_FullDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	arrival := f.scan(t, "E1", "2025-06-02", "08:02:00")
	assert.Equal(t, models.OutcomeSuccess, arrival.Status)
	assert.Equal(t, models.ActionArrivee, arrival.Action)
	assert.Contains(t, arrival.Message, "08:02:00")
	assert.Contains(t, arrival.Message, "09:02:00")
	assert.Equal(t, "08:02:00", arrival.Time)

	record, err := f.ledger.FindToday(ctx, "E1", f.now)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "08:02:00", *record.HeureArrivee)
	assert.Equal(t, "09:02:00", *record.HeureDepartPrevue)
	assert.Nil(t, record.HeureDepart)
	assert.Equal(t, models.DepartureReserved, record.DepartureState)
	assert.Len(t, record.Signature, 8)
	assert.Equal(t, "2025-06", record.Period)

	dup := f.scan(t, "E1", "2025-06-02", "08:30:00")
	assert.Equal(t, models.OutcomeError, dup.Status)
	assert.Equal(t, models.ActionDejaPresent, dup.Action)

	unchanged, err := f.ledger.FindToday(ctx, "E1", f.now)
	require.NoError(t, err)
	assert.Equal(t, models.DepartureReserved, unchanged.DepartureState)
	assert.Nil(t, unchanged.HeureDepart)

	departure := f.scan(t, "E1", "2025-06-02", "17:10:00")
	assert.Equal(t, models.OutcomeSuccess, departure.Status)
	assert.Equal(t, models.ActionDepart, departure.Action)
	assert.Contains(t, departure.Message, "9h08min")

	record, err = f.ledger.FindToday(ctx, "E1", f.now)
	require.NoError(t, err)
	require.NotNil(t, record.HeureDepart)
	assert.Equal(t, "17:10:00", *record.HeureDepart)
	assert.Equal(t, models.DepartureConfirmed, record.DepartureState)

	again := f.scan(t, "E1", "2025-06-02", "17:30:00")
	assert.Equal(t, models.OutcomeError, again.Status)
	assert.Equal(t, models.ActionDejaSorti, again.Action)
}

func TestAttendanceService_DepartureExactlyAtReservedSlot(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, models.ActionArrivee, f.scan(t, "E1", "2025-06-02", "08:00:00").Action)

	departure := f.scan(t, "E1", "2025-06-02", "09:00:00")
	assert.Equal(t, models.ActionDepart, departure.Action)
	assert.Contains(t, departure.Message, "1h00min")

	assert.Equal(t, models.ActionDejaSorti, f.scan(t, "E1", "2025-06-02", "09:30:00").Action)
}

func TestAttendanceService_SignatureIsDeterministic(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, f.attendance.signature("E1", "2025-06-02", "08:02:00"),
		f.attendance.signature("E1", "2025-06-02", "08:02:00"))
	assert.NotEqual(t, f.attendance.signature("E1", "2025-06-02", "08:02:00"),
		f.attendance.signature("E1", "2025-06-02", "08:02:01"))
	assert.Regexp(t, "^[0-9A-F]{8}$", f.attendance.signature("E1", "2025-06-02", "08:02:00"))
}

func TestAttendanceService_BlockedScansDoNotWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.holiday(t, "Tabaski", "2025-06-06", "2025-06-07")
	f.rawPeriod(t, models.PeriodKindLeave, "E2", "2025-06-09", "2025-06-13")
	f.rawPeriod(t, models.PeriodKindMission, "E3", "2025-06-09", "2025-06-13")

	tests := []struct {
		name      string
		matricule string
		date      string
		action    string
		contains  string
	}{
		{"holiday", "E1", "2025-06-06", models.ActionHoliday, "Tabaski"},
		{"holiday last day", "E2", "2025-06-07", models.ActionHoliday, "Tabaski"},
		{"leave", "E2", "2025-06-10", models.ActionOnLeave, "2025-06-09 au 2025-06-13"},
		{"mission", "E3", "2025-06-13", models.ActionOnMission, "Audit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := f.scan(t, tt.matricule, tt.date, "08:05:00")
			assert.Equal(t, models.OutcomeError, outcome.Status)
			assert.Equal(t, tt.action, outcome.Action)
			assert.Contains(t, outcome.Message, tt.contains)

			record, err := f.ledger.FindToday(ctx, tt.matricule, f.now)
			require.NoError(t, err)
			assert.Nil(t, record)
		})
	}

	// после окончания отпуска сканирование снова работает
	assert.Equal(t, models.ActionArrivee, f.scan(t, "E2", "2025-06-16", "08:05:00").Action)
}

func TestAttendanceService_HolidayTakesPriorityOverLeave(t *testing.T) {
	f := newFixture(t)

	f.holiday(t, "Korité", "2025-03-31", "2025-03-31")
	f.rawPeriod(t, models.PeriodKindLeave, "E1", "2025-03-24", "2025-04-04")

	assert.Equal(t, models.ActionHoliday, f.scan(t, "E1", "2025-03-31", "08:00:00").Action)
	assert.Equal(t, models.ActionOnLeave, f.scan(t, "E1", "2025-04-01", "08:00:00").Action)
}

func TestAttendanceService_LeaveFromPreviousYearStillBlocks(t *testing.T) {
	f := newFixture(t)

	f.rawPeriod(t, models.PeriodKindLeave, "E1", "2024-12-23", "2025-01-03")

	assert.Equal(t, models.ActionOnLeave, f.scan(t, "E1", "2025-01-02", "08:00:00").Action)
}

func TestAttendanceService_ConcurrentScansProduceOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = f.at(t, "2025-06-02", "08:02:00")

	const workers = 8
	outcomes := make([]models.ScanOutcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = f.attendance.RecordAttendance(ctx, "E1", "Awa Diop", "Finance")
		}(i)
	}
	wg.Wait()

	arrivals := 0
	for _, o := range outcomes {
		switch o.Action {
		case models.ActionArrivee:
			arrivals++
		default:
			assert.Equal(t, models.ActionDejaPresent, o.Action)
		}
	}
	assert.Equal(t, 1, arrivals)

	records, err := f.ledger.FindByDate(ctx, f.now)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestAttendanceService_ConcurrentEmployeesSamePartition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = f.at(t, "2025-06-02", "08:02:00")

	matricules := []string{"E1", "E2", "E3", "E4", "E5"}
	var wg sync.WaitGroup
	for _, m := range matricules {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			outcome := f.attendance.RecordAttendance(ctx, m, "Employé "+m, "Finance")
			assert.Equal(t, models.ActionArrivee, outcome.Action)
		}(m)
	}
	wg.Wait()

	records, err := f.ledger.FindByDate(ctx, f.now)
	require.NoError(t, err)
	assert.Len(t, records, len(matricules))
}

func TestAttendanceService_RejectsEmptyMatricule(t *testing.T) {
	f := newFixture(t)

	outcome := f.scan(t, "  ", "2025-06-02", "08:00:00")
	assert.Equal(t, models.OutcomeError, outcome.Status)
	assert.Equal(t, models.ActionErreur, outcome.Action)
}

func TestAttendanceService_RecordIdentified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.now = f.at(t, "2025-06-02", "08:00:00")

	rejected := f.attendance.RecordIdentified(ctx, nil, &models.IdentityRejection{Reason: "Visage non reconnu"})
	assert.Equal(t, models.ActionErreur, rejected.Action)
	assert.Equal(t, "Visage non reconnu", rejected.Message)

	failed := f.attendance.RecordIdentified(ctx, nil, errors.New("camera offline"))
	assert.Equal(t, models.ActionErreur, failed.Action)

	accepted := f.attendance.RecordIdentified(ctx, &models.Identity{
		EmployeeID: "E9", FullName: "Moussa Ndiaye", Department: "IT",
	}, nil)
	assert.Equal(t, models.ActionArrivee, accepted.Action)
	assert.Contains(t, accepted.Message, "Moussa Ndiaye")
}

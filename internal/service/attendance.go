package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// AttendanceService машина состояний сканирования на пару (сотрудник, день):
// нет записи -> пришел (уход зарезервирован) -> ушел.
// Праздник, отпуск и командировка проверяются до обращения к журналу, в этом порядке.
type AttendanceService struct {
	ledger   repository.AttendanceLedger
	calendar *CalendarService
	clock    models.Clock
	loc      *time.Location
	salt     string
	logger   *logrus.Logger
}

func NewAttendanceService(
	ledger repository.AttendanceLedger,
	calendar *CalendarService,
	loc *time.Location,
	salt string,
	logger *logrus.Logger,
) *AttendanceService {
	if loc == nil {
		loc = time.Local
	}
	return &AttendanceService{
		ledger:   ledger,
		calendar: calendar,
		clock:    time.Now,
		loc:      loc,
		salt:     salt,
		logger:   defaultLogger(logger),
	}
}

// WithClock подменяет источник времени
func (s *AttendanceService) WithClock(clock models.Clock) *AttendanceService {
	s.clock = clock
	return s
}

// RecordIdentified обрабатывает результат внешней идентификации.
// Отказ идентификации окончателен и в журнал не попадает.
func (s *AttendanceService) RecordIdentified(ctx context.Context, identity *models.Identity, identErr error) models.ScanOutcome {
	now := s.clock().In(s.loc)

	if identErr != nil || identity == nil {
		reason := "identification impossible"
		var rejection *models.IdentityRejection
		if errors.As(identErr, &rejection) {
			reason = rejection.Reason
		} else if identErr != nil {
			reason = identErr.Error()
		}
		s.logger.WithField("reason", reason).Warn("Identity rejected")
		return errorOutcome(models.ActionErreur, reason, now)
	}

	return s.RecordAttendance(ctx, identity.EmployeeID, identity.FullName, identity.Department)
}

// RecordAttendance решает, что означает сканирование: приход, уход, дубликат или блокировка
func (s *AttendanceService) RecordAttendance(ctx context.Context, matricule, fullName, department string) models.ScanOutcome {
	now := s.clock().In(s.loc)
	matricule = strings.TrimSpace(matricule)

	log := s.logger.WithFields(logrus.Fields{
		"matricule": matricule,
		"date":      models.FormatDate(now),
		"time":      models.FormatClock(now),
	})

	if matricule == "" {
		err := &models.ValidationError{Field: "matricule", Message: "is required"}
		log.WithError(err).Warn("Scan rejected")
		return errorOutcome(models.ActionErreur, "Erreur lors de l'enregistrement: "+err.Error(), now)
	}

	if outcome, blocked := s.checkCalendar(ctx, matricule, fullName, now); blocked {
		log.WithField("action", outcome.Action).Info("Scan blocked by calendar exception")
		return outcome
	}

	var outcome models.ScanOutcome
	err := s.ledger.WithPartition(ctx, now, func(tx repository.AttendanceLedger) error {
		if err := tx.EnsurePartition(ctx, now); err != nil {
			return err
		}

		record, err := tx.FindToday(ctx, matricule, now)
		if err != nil {
			return err
		}

		if record == nil || !record.HasArrival() {
			outcome, err = s.arrive(ctx, tx, record, matricule, fullName, department, now)
			return err
		}

		outcome, err = s.depart(ctx, tx, record, fullName, now)
		return err
	})
	if err != nil {
		log.WithError(err).Error("Failed to record attendance")
		return errorOutcome(models.ActionErreur, fmt.Sprintf("Erreur lors de l'enregistrement: %v", err), now)
	}

	log.WithField("action", outcome.Action).Info("Scan processed")
	return outcome
}

// checkCalendar праздник, затем отпуск, затем командировка
func (s *AttendanceService) checkCalendar(ctx context.Context, matricule, fullName string, now time.Time) (models.ScanOutcome, bool) {
	holiday, err := s.calendar.HolidayFor(ctx, now)
	if err != nil {
		return s.storageOutcome(err, now), true
	}
	if holiday != nil {
		blocked := &models.BlockedError{
			Action: models.ActionHoliday,
			Reason: fmt.Sprintf("Aujourd'hui est un jour férié (%s). Aucun pointage n'est nécessaire.", holiday.Description),
		}
		return blockedOutcome(blocked, now), true
	}

	leave, err := s.calendar.LeavePeriodFor(ctx, matricule, now)
	if err != nil {
		return s.storageOutcome(err, now), true
	}
	if leave != nil {
		blocked := &models.BlockedError{
			Action: models.ActionOnLeave,
			Reason: fmt.Sprintf("%s, vous êtes en congé du %s au %s.", fullName, leave.DateDebut, leave.DateFin),
		}
		return blockedOutcome(blocked, now), true
	}

	mission, err := s.calendar.MissionPeriodFor(ctx, matricule, now)
	if err != nil {
		return s.storageOutcome(err, now), true
	}
	if mission != nil {
		blocked := &models.BlockedError{
			Action: models.ActionOnMission,
			Reason: fmt.Sprintf("%s, vous êtes en mission « %s » du %s au %s.",
				fullName, mission.NomMission, mission.DateDebut, mission.DateFin),
		}
		return blockedOutcome(blocked, now), true
	}

	return models.ScanOutcome{}, false
}

// arrive создает запись дня и резервирует слот ухода
func (s *AttendanceService) arrive(
	ctx context.Context,
	tx repository.AttendanceLedger,
	record *models.AttendanceRecord,
	matricule, fullName, department string,
	now time.Time,
) (models.ScanOutcome, error) {
	if record == nil {
		record = &models.AttendanceRecord{Matricule: matricule}
	}
	record.NomComplet = fullName
	record.Departement = department
	record.MarkArrival(now)
	record.Signature = s.signature(matricule, record.Date, *record.HeureArrivee)

	if err := tx.Upsert(ctx, record); err != nil {
		return models.ScanOutcome{}, err
	}

	message := fmt.Sprintf("Bonjour %s, vous venez d'arriver à %s. Heure de sortie prévue: %s",
		fullName, *record.HeureArrivee, *record.HeureDepartPrevue)
	return successOutcome(models.ActionArrivee, message, now), nil
}

// depart решает по состоянию ухода: дубликат прихода, уход или повторный уход
func (s *AttendanceService) depart(
	ctx context.Context,
	tx repository.AttendanceLedger,
	record *models.AttendanceRecord,
	fullName string,
	now time.Time,
) (models.ScanOutcome, error) {
	reservedUntil, err := record.ReservedUntil(s.loc)
	if err != nil {
		return models.ScanOutcome{}, &models.ValidationError{Field: "heure_arrivee", Message: err.Error()}
	}

	if now.Before(reservedUntil) {
		dup := &models.DuplicateError{
			Action: models.ActionDejaPresent,
			Reason: fmt.Sprintf("%s, votre arrivée est déjà enregistrée à %s. Veuillez scanner après %s pour votre départ.",
				fullName, *record.HeureArrivee, models.FormatClock(reservedUntil)),
		}
		return duplicateOutcome(dup, now), nil
	}

	if record.IsDeparted() {
		dup := &models.DuplicateError{
			Action: models.ActionDejaSorti,
			Reason: fmt.Sprintf("Désolé %s, vous avez déjà enregistré votre départ aujourd'hui à %s.",
				fullName, *record.HeureDepart),
		}
		return duplicateOutcome(dup, now), nil
	}

	arrival, _ := record.ArrivalAt(s.loc)
	record.ConfirmDeparture(now)
	if err := tx.Upsert(ctx, record); err != nil {
		return models.ScanOutcome{}, err
	}

	message := fmt.Sprintf("Au revoir %s, vous partez à %s. Temps de travail: %s.",
		fullName, *record.HeureDepart, models.FormatWorked(now.Sub(arrival)))
	return successOutcome(models.ActionDepart, message, now), nil
}

// signature детерминированный токен matricule+date+время+соль
func (s *AttendanceService) signature(matricule, date, clock string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s_%s", matricule, date, clock, s.salt)))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

func (s *AttendanceService) storageOutcome(err error, now time.Time) models.ScanOutcome {
	s.logger.WithError(err).Error("Calendar lookup failed")
	return errorOutcome(models.ActionErreur, fmt.Sprintf("Erreur lors de l'enregistrement: %v", err), now)
}

func successOutcome(action, message string, now time.Time) models.ScanOutcome {
	return models.ScanOutcome{
		Status:  models.OutcomeSuccess,
		Action:  action,
		Message: message,
		Time:    models.FormatClock(now),
	}
}

func errorOutcome(action, message string, now time.Time) models.ScanOutcome {
	return models.ScanOutcome{
		Status:  models.OutcomeError,
		Action:  action,
		Message: message,
		Time:    models.FormatClock(now),
	}
}

func blockedOutcome(err *models.BlockedError, now time.Time) models.ScanOutcome {
	return errorOutcome(err.Action, err.Reason, now)
}

func duplicateOutcome(err *models.DuplicateError, now time.Time) models.ScanOutcome {
	return errorOutcome(err.Action, err.Reason, now)
}

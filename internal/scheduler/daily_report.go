package scheduler

import (
	"context"
	"fmt"
	"presence-tracker/internal/models"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reporter источник дневной сводки
type Reporter interface {
	GetAdvancedReports(ctx context.Context, day time.Time, department string) (*models.AdvancedReport, error)
}

// Notifier доставка текста в чат
type Notifier interface {
	Notify(chatID int64, text string) error
}

// DailyReport по расписанию отправляет сводку дня в чат администратора
type DailyReport struct {
	cron     *cron.Cron
	reporter Reporter
	notifier Notifier
	format   func(*models.AdvancedReport) string
	chatID   int64
	loc      *time.Location
	clock    models.Clock
	logger   *logrus.Logger
}

func NewDailyReport(
	spec string,
	reporter Reporter,
	notifier Notifier,
	format func(*models.AdvancedReport) string,
	chatID int64,
	loc *time.Location,
	logger *logrus.Logger,
) (*DailyReport, error) {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logrus.New()
	}

	cronLogger := cron.PrintfLogger(logger)
	r := &DailyReport{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
		reporter: reporter,
		notifier: notifier,
		format:   format,
		chatID:   chatID,
		loc:      loc,
		clock:    time.Now,
		logger:   logger,
	}

	if _, err := r.cron.AddFunc(spec, func() {
		if err := r.Run(context.Background()); err != nil {
			r.logger.WithError(err).Error("Daily report failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}

	return r, nil
}

// WithClock подменяет источник времени
func (r *DailyReport) WithClock(clock models.Clock) *DailyReport {
	r.clock = clock
	return r
}

// Start запускает планировщик в фоне
func (r *DailyReport) Start() {
	r.cron.Start()
	r.logger.WithField("entries", len(r.cron.Entries())).Info("Report scheduler started")
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (r *DailyReport) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.logger.Warn("Report scheduler stop timed out")
	}
}

// Run строит сводку за сегодня и отправляет ее
func (r *DailyReport) Run(ctx context.Context) error {
	today := models.StartOfDay(r.clock().In(r.loc))

	report, err := r.reporter.GetAdvancedReports(ctx, today, models.DepartmentAll)
	if err != nil {
		return err
	}

	if err := r.notifier.Notify(r.chatID, r.format(report)); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"date":    report.Date,
		"present": report.PresentToday,
		"absent":  report.AbsentToday,
	}).Info("Daily report sent")
	return nil
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presence-tracker/internal/config"
	"presence-tracker/internal/handler"
	"presence-tracker/internal/repository"
	"presence-tracker/internal/scheduler"
	"presence-tracker/internal/service"
	"presence-tracker/pkg/calendarcsv"
	"presence-tracker/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logger := cfg.Logger()
	logger.Info("Config initialized...")

	loc, err := cfg.Location()
	if err != nil {
		logger.WithError(err).Fatal("Invalid timezone")
	}
	thresholds, err := cfg.Thresholds()
	if err != nil {
		logger.WithError(err).Fatal("Invalid thresholds")
	}

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
	})
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database instance:", err)
	}

	// SQLite: один писатель; запись в журнал сериализуется по партициям
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Infof("Warning: Failed to enable WAL: %v", err)
	}

	ledger, err := repository.NewGormAttendanceLedger(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create attendance ledger")
	}

	holidayRepo, err := repository.NewGormHolidayRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create holiday repository")
	}

	absenceRepo, err := repository.NewGormAbsencePeriodRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create absence period repository")
	}

	employeeRepo, err := repository.NewGormEmployeeRepository(db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create employee repository")
	}

	calendarService := service.NewCalendarService(holidayRepo, absenceRepo, loc, logger)
	attendanceService := service.NewAttendanceService(ledger, calendarService, loc, cfg.SignatureSalt, logger)
	trackingService := service.NewTrackingService(
		ledger,
		calendarService,
		employeeRepo,
		service.NewStatusClassifier(thresholds),
		loc,
		logger,
	)
	periodService := service.NewPeriodService(holidayRepo, absenceRepo, employeeRepo, calendarService, cfg.StrictPeriods, loc, logger)
	rosterService := service.NewRosterService(employeeRepo, logger)

	// Импорт исторического календаря из CSV
	if cfg.CalendarDir != "" {
		cal, err := calendarcsv.LoadDir(cfg.CalendarDir)
		if err != nil {
			logger.WithError(err).Fatal("Failed to read calendar import directory")
		}
		imported, err := periodService.ImportLegacy(context.Background(), cal)
		if err != nil {
			logger.WithError(err).Fatal("Failed to import calendar")
		}
		logger.WithFields(logrus.Fields{
			"holidays": imported.Holidays,
			"periods":  imported.Periods,
			"skipped":  imported.Skipped,
		}).Info("Legacy calendar loaded")
	}

	// Создаем клиент Telegram
	client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
	if err != nil {
		logger.Fatal("Failed to create Telegram client:", err)
	}

	logger.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(
		client.Bot,
		attendanceService,
		trackingService,
		periodService,
		rosterService,
		cfg,
		loc,
		logger,
	)

	dailyReport, err := scheduler.NewDailyReport(
		cfg.ReportCron,
		trackingService,
		client,
		handler.FormatAdvancedReport,
		cfg.BaseAdminChatID,
		loc,
		logger,
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create report scheduler")
	}
	dailyReport.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// Запускаем обработку сообщений
	go func() {
		defer close(done)
		botHandler.HandleUpdates(ctx, client.Updates())
	}()

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bot started. Press Ctrl+C to stop.")
	<-stop

	client.Stop()
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	dailyReport.Stop(shutdownCtx)

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		logger.Infof("Error closing database: %v", err)
	}

	logger.Info("Bot stopped gracefully")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"presence-tracker/internal/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string
	TelegramDebug   bool
	BaseAdminChatID int64
	DatabaseURL     string
	Timezone        string
	SignatureSalt   string
	ReportCron      string
	StrictPeriods   bool
	LogLevel        string
	CalendarDir     string

	EarlyArrival  string
	MaxArrival    string
	MinDeparture  string
	LateThreshold string
}

var instance *BotConfig
var once sync.Once

// GetBotConfig конфигурация процесса; ошибки фатальны
func GetBotConfig() *BotConfig {
	once.Do(func() {
		// .env необязателен: в контейнере переменные приходят из окружения
		if err := godotenv.Load(); err != nil {
			logrus.WithError(err).Debug("no .env file loaded")
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает конфигурацию из переменных окружения
func Load() (*BotConfig, error) {
	cfg := &BotConfig{
		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDebug:   getEnvAsBool("TELEGRAM_DEBUG", false),
		BaseAdminChatID: getEnvAsInt("BASE_ADMIN_CHAT_ID", -2),
		DatabaseURL:     getEnv("DATABASE_URL", "presence.db"),
		Timezone:        getEnv("TIMEZONE", "Africa/Dakar"),
		SignatureSalt:   getEnv("SIGNATURE_SALT", "DB_CARBA"),
		ReportCron:      getEnv("REPORT_CRON", "0 18 * * 1-5"),
		StrictPeriods:   getEnvAsBool("STRICT_PERIOD_EXCLUSIVITY", true),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CalendarDir:     getEnv("CALENDAR_IMPORT_DIR", ""),
		EarlyArrival:    getEnv("EARLY_ARRIVAL", "07:15"),
		MaxArrival:      getEnv("MAX_ARRIVAL", "08:15"),
		MinDeparture:    getEnv("MIN_DEPARTURE", "16:45"),
		LateThreshold:   getEnv("LATE_THRESHOLD", "17:45"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("could not get bot token")
	}
	if cfg.BaseAdminChatID == -2 {
		return nil, fmt.Errorf("could not get admin chat id")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("could not get db url")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Thresholds(); err != nil {
		return nil, err
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Location часовой пояс, в котором считаются даты журнала
func (c *BotConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Thresholds пороги классификации
func (c *BotConfig) Thresholds() (models.Thresholds, error) {
	var t models.Thresholds
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"EARLY_ARRIVAL", c.EarlyArrival, &t.EarlyArrival},
		{"MAX_ARRIVAL", c.MaxArrival, &t.MaxArrival},
		{"MIN_DEPARTURE", c.MinDeparture, &t.MinDeparture},
		{"LATE_THRESHOLD", c.LateThreshold, &t.LateThreshold},
	}
	for _, f := range fields {
		d, err := models.ParseClock(f.value)
		if err != nil {
			return models.Thresholds{}, fmt.Errorf("invalid %s %q: %w", f.name, f.value, err)
		}
		*f.dst = d
	}
	if err := t.Validate(); err != nil {
		return models.Thresholds{}, err
	}
	return t, nil
}

// Logger логгер в формате, общем для всего процесса
func (c *BotConfig) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// IsAdmin чат администратора
func (c *BotConfig) IsAdmin(chatID int64) bool {
	return chatID == c.BaseAdminChatID
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

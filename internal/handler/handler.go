package handler

import (
	"context"
	"errors"
	"presence-tracker/internal/config"
	"presence-tracker/internal/models"
	"presence-tracker/internal/service"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender отправка сообщений; *tgbotapi.BotAPI удовлетворяет интерфейсу
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// maxMessageLen лимит Telegram на длину сообщения с запасом
const maxMessageLen = 4000

type Handler struct {
	bot        Sender
	attendance *service.AttendanceService
	tracking   *service.TrackingService
	periods    *service.PeriodService
	roster     *service.RosterService
	config     *config.BotConfig
	loc        *time.Location
	clock      models.Clock
	logger     *logrus.Logger
}

func NewHandler(
	bot Sender,
	attendance *service.AttendanceService,
	tracking *service.TrackingService,
	periods *service.PeriodService,
	roster *service.RosterService,
	cfg *config.BotConfig,
	loc *time.Location,
	logger *logrus.Logger,
) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		bot:        bot,
		attendance: attendance,
		tracking:   tracking,
		periods:    periods,
		roster:     roster,
		config:     cfg,
		loc:        loc,
		clock:      time.Now,
		logger:     logger,
	}
}

// WithClock подменяет источник времени для команд с датой по умолчанию
func (h *Handler) WithClock(clock models.Clock) *Handler {
	h.clock = clock
	return h
}

// HandleUpdates читает обновления до закрытия канала или отмены ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			h.HandleMessage(ctx, update.Message)
		}
	}
}

// HandleMessage обрабатывает одно сообщение
func (h *Handler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	fields := logrus.Fields{"chat_id": message.Chat.ID}
	if message.From != nil {
		fields["user"] = message.From.UserName
	}
	h.logger.WithFields(fields).Infof("%s", message.Text)

	if !message.IsCommand() {
		h.reply(message, "ℹ️ Utilisez /help pour la liste des commandes.")
		return
	}

	h.handleCommand(ctx, message)
}

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)
	case "scan", "in", "out":
		h.scan(ctx, message)
	case "link":
		h.linkChat(ctx, message, args)
	default:
		if h.handleAdminCommand(ctx, message, command, args) {
			return
		}
		h.sendUnknownCommand(message)
	}
}

// handleAdminCommand false если команда не административная
func (h *Handler) handleAdminCommand(ctx context.Context, message *tgbotapi.Message, command, args string) bool {
	admin := map[string]func(){
		"addemployee": func() { h.addEmployee(ctx, message, args) },
		"employees":   func() { h.listEmployees(ctx, message, args) },
		"today":       func() { h.dailyAttendance(ctx, message, args) },
		"present":     func() { h.presentNow(ctx, message) },
		"absents":     func() { h.absentEmployees(ctx, message, args) },
		"report":      func() { h.advancedReport(ctx, message, args) },
		"tracking":    func() { h.employeeTracking(ctx, message, args) },
		"stats":       func() { h.employeeStats(ctx, message, args) },
		"holiday":     func() { h.addHoliday(ctx, message, args) },
		"holidays":    func() { h.listHolidays(ctx, message, args) },
		"leave":       func() { h.addLeave(ctx, message, args) },
		"mission":     func() { h.addMission(ctx, message, args) },
		"periods":     func() { h.listPeriods(ctx, message, args) },
	}

	run, ok := admin[command]
	if !ok {
		return false
	}
	if !h.requireAdmin(message) {
		return true
	}
	run()
	return true
}

func (h *Handler) requireAdmin(message *tgbotapi.Message) bool {
	if h.config.IsAdmin(message.Chat.ID) {
		return true
	}
	h.logger.WithField("chat_id", message.Chat.ID).Warn("Unauthorized access to admin command")
	h.reply(message, "❌ Accès refusé. Cette commande est réservée à l'administrateur.")
	return false
}

func (h *Handler) today() time.Time {
	return models.StartOfDay(h.clock().In(h.loc))
}

// reply отправляет текст, разбивая длинные сообщения по строкам
func (h *Handler) reply(message *tgbotapi.Message, text string) {
	h.send(message.Chat.ID, text)
}

func (h *Handler) send(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
			return
		}
	}
}

// replyError переводит доменную ошибку в сообщение пользователю
func (h *Handler) replyError(message *tgbotapi.Message, err error) {
	h.logger.WithError(err).WithField("chat_id", message.Chat.ID).Warn("Command failed")
	h.reply(message, errorText(err))
}

func errorText(err error) string {
	var notFound *models.NotFoundError
	switch {
	case errors.Is(err, models.ErrOverlap):
		return "❌ Période en conflit: " + err.Error()
	case errors.As(err, &notFound):
		return "❌ Introuvable: " + notFound.Entity + " " + notFound.Key
	case errors.Is(err, models.ErrValidation):
		return "❌ Données invalides: " + err.Error()
	case models.IsRetryable(err):
		return "⚠️ Erreur temporaire de stockage, veuillez réessayer."
	default:
		return "❌ Erreur: " + err.Error()
	}
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		// строка длиннее лимита режется по границе руны
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}

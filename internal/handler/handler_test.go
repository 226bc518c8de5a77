package handler

import (
	"context"
	"fmt"
	"presence-tracker/internal/config"
	"presence-tracker/internal/models"
	"presence-tracker/internal/repository"
	"presence-tracker/internal/service"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminChat    int64 = -1001
	employeeChat int64 = 555
)

type fakeSender struct {
	texts []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type botFixture struct {
	handler *Handler
	sender  *fakeSender
	now     time.Time
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ledger, err := repository.NewGormAttendanceLedger(db, log)
	require.NoError(t, err)
	holidays, err := repository.NewGormHolidayRepository(db, log)
	require.NoError(t, err)
	absences, err := repository.NewGormAbsencePeriodRepository(db, log)
	require.NoError(t, err)
	employees, err := repository.NewGormEmployeeRepository(db, log)
	require.NoError(t, err)

	f := &botFixture{sender: &fakeSender{}, now: time.Date(2025, 6, 2, 8, 2, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	calendar := service.NewCalendarService(holidays, absences, time.UTC, log)
	attendance := service.NewAttendanceService(ledger, calendar, time.UTC, "DB_CARBA", log).WithClock(clock)
	tracking := service.NewTrackingService(ledger, calendar, employees,
		service.NewStatusClassifier(models.DefaultThresholds()), time.UTC, log)
	periods := service.NewPeriodService(holidays, absences, employees, calendar, true, time.UTC, log)
	roster := service.NewRosterService(employees, log)

	cfg := &config.BotConfig{BaseAdminChatID: adminChat}
	f.handler = NewHandler(f.sender, attendance, tracking, periods, roster, cfg, time.UTC, log).WithClock(clock)
	return f
}

func command(chatID int64, text string) *tgbotapi.Message {
	cmd := strings.SplitN(text, " ", 2)[0]
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, FirstName: "Awa", UserName: "awa"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func (f *botFixture) run(chatID int64, text string) string {
	f.handler.HandleMessage(context.Background(), command(chatID, text))
	return f.sender.last()
}

func (f *botFixture) setup(t *testing.T) {
	t.Helper()
	require.Contains(t, f.run(adminChat, "/addemployee E1;Diop;Awa;Finance;770000000"), "Employé enregistré")
	require.Contains(t, f.run(adminChat, "/addemployee E2;Fall;Fatou;IT"), "Employé enregistré")
	require.Contains(t, f.run(employeeChat, "/link E1"), "Compte lié")
}

func TestHandler_ScanLifecycle(t *testing.T) {
	f := newBotFixture(t)
	f.setup(t)

	text := f.run(employeeChat, "/scan")
	assert.Contains(t, text, "Bonjour Awa Diop")
	assert.Contains(t, text, "08:02:00")
	assert.Contains(t, text, "09:02:00")

	f.now = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)
	assert.Contains(t, f.run(employeeChat, "/in"), "Veuillez scanner après 09:02:00")

	f.now = time.Date(2025, 6, 2, 17, 10, 0, 0, time.UTC)
	assert.Contains(t, f.run(employeeChat, "/out"), "9h08min")

	f.now = time.Date(2025, 6, 2, 17, 30, 0, 0, time.UTC)
	assert.Contains(t, f.run(employeeChat, "/scan"), "déjà enregistré")
}

func TestHandler_ScanRequiresLinkedChat(t *testing.T) {
	f := newBotFixture(t)

	assert.Contains(t, f.run(999, "/scan"), "/link")
}

func TestHandler_AdminScanBypass(t *testing.T) {
	f := newBotFixture(t)

	assert.Contains(t, f.run(adminChat, "/scan"), "Bonjour Administrateur Awa")
}

func TestHandler_AdminCommandsAreProtected(t *testing.T) {
	f := newBotFixture(t)

	for _, cmd := range []string{"/report", "/absents", "/holiday 2025-06-06 2025-06-06 Tabaski", "/employees"} {
		assert.Contains(t, f.run(employeeChat, cmd), "Accès refusé", cmd)
	}
}

func TestHandler_CalendarCommands(t *testing.T) {
	f := newBotFixture(t)
	f.setup(t)

	assert.Contains(t, f.run(adminChat, "/holiday 06.06.2025 07.06.2025 Tabaski"), "Jour férié ajouté: Tabaski (2025-06-06 → 2025-06-07)")
	assert.Contains(t, f.run(adminChat, "/holidays 2025"), "Tabaski")
	assert.Contains(t, f.run(adminChat, "/holiday 2025-06-06 2025-06-07 Tabaski"), "Données invalides")
	assert.Contains(t, f.run(adminChat, "/leave E1 2025-06-12 2025-06-20"), "Congé ajouté pour Awa Diop")
	assert.Contains(t, f.run(adminChat, "/leave E1 2025-06-10 2025-06-15"), "Période en conflit")
	assert.Contains(t, f.run(adminChat, "/mission E1 2025-06-18 2025-06-25 Audit"), "Période en conflit")
	assert.Contains(t, f.run(adminChat, "/mission E1 2025-07-01 2025-07-02 Audit Thiès"), "Mission « Audit Thiès »")
	assert.Contains(t, f.run(adminChat, "/leave E404 2025-06-12 2025-06-20"), "Introuvable")
	assert.Contains(t, f.run(adminChat, "/leave E1 12/06/2025 2025-06-20"), "Données invalides")

	periods := f.run(adminChat, "/periods E1")
	assert.Contains(t, periods, "Congé: 2025-06-12 → 2025-06-20")
	assert.Contains(t, periods, "Mission « Audit Thiès »")

	f.now = time.Date(2025, 6, 6, 8, 0, 0, 0, time.UTC)
	assert.Contains(t, f.run(employeeChat, "/scan"), "jour férié (Tabaski)")
}

func TestHandler_Reports(t *testing.T) {
	f := newBotFixture(t)
	f.setup(t)

	f.run(employeeChat, "/scan")

	report := f.run(adminChat, "/report")
	assert.Contains(t, report, "Rapport du 2025-06-02")
	assert.Contains(t, report, "Effectif: 2")
	assert.Contains(t, report, "Présents: 1")
	assert.Contains(t, report, "Absents: 1")

	assert.Contains(t, f.run(adminChat, "/report 02.06.2025 it"), "Effectif: 1")
	assert.Contains(t, f.run(adminChat, "/report 2025-13-40"), "Données invalides")

	absents := f.run(adminChat, "/absents")
	assert.Contains(t, absents, "E2 - Fatou Fall (IT)")
	assert.NotContains(t, absents, "E1 -")

	assert.Contains(t, f.run(adminChat, "/present"), "E1 - Awa Diop (Finance) depuis 08:02:00")
	assert.Contains(t, f.run(adminChat, "/today"), "(prévu 09:02:00)")
	assert.Contains(t, f.run(adminChat, "/tracking 2025-06 E1"), "2025-06-02 E1 08:02:00 → - [départ non pointé]")
	assert.Contains(t, f.run(adminChat, "/tracking Finance"), "Suivi 2025-06 - Finance (1)")
	assert.Contains(t, f.run(adminChat, "/stats E1"), "Jours de présence: 1")
	assert.Contains(t, f.run(adminChat, "/employees it"), "E2 - Fatou Fall (IT)")
}

func TestHandler_HelpAndUnknown(t *testing.T) {
	f := newBotFixture(t)

	assert.NotContains(t, f.run(employeeChat, "/help"), "Administration")
	assert.Contains(t, f.run(adminChat, "/help"), "Administration")
	assert.Contains(t, f.run(employeeChat, "/nope"), "Commande inconnue")
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("ligne\n", 10)

	chunks := splitMessage(text, 20)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
	assert.Equal(t, []string{"court"}, splitMessage("court", 20))
}

func TestSplitMessage_LongLine(t *testing.T) {
	text := "en-tête\n" + strings.Repeat("é", 30) + "\nfin"

	chunks := splitMessage(text, 16)
	assert.Equal(t, text, strings.Join(chunks, ""))
	require.Greater(t, len(chunks), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 16)
		assert.True(t, utf8.ValidString(c), c)
	}
}

package handler

import (
	"context"
	"fmt"
	"presence-tracker/internal/models"
	"presence-tracker/internal/service"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// addEmployee /addemployee matricule;nom;prenom;departement[;telephone]
func (h *Handler) addEmployee(ctx context.Context, message *tgbotapi.Message, args string) {
	parts := strings.Split(args, ";")
	if len(parts) < 4 {
		h.reply(message, "❌ Format: /addemployee matricule;nom;prénom;département[;téléphone]")
		return
	}

	req := service.RegisterRequest{
		Matricule:   parts[0],
		Nom:         parts[1],
		Prenom:      parts[2],
		Departement: parts[3],
	}
	if len(parts) > 4 {
		req.Telephone = parts[4]
	}

	employee, err := h.roster.Register(ctx, req)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Employé enregistré: %s (%s, %s)", employee.FullName(), employee.Matricule, employee.Departement))
}

// listEmployees /employees [département]
func (h *Handler) listEmployees(ctx context.Context, message *tgbotapi.Message, args string) {
	employees, err := h.roster.List(ctx, args)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if len(employees) == 0 {
		h.reply(message, "👥 Aucun employé enregistré.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 Personnel (%d):\n\n", len(employees))
	for _, e := range employees {
		linked := ""
		if e.ChatID != nil {
			linked = " 🔗"
		}
		fmt.Fprintf(&b, "• %s - %s (%s)%s\n", e.Matricule, e.FullName(), e.Departement, linked)
	}
	h.reply(message, b.String())
}

// dailyAttendance /today [date]
func (h *Handler) dailyAttendance(ctx context.Context, message *tgbotapi.Message, args string) {
	day, err := h.dayArg(args)
	if err != nil {
		h.replyError(message, err)
		return
	}

	records, err := h.tracking.GetDailyAttendance(ctx, day)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if len(records) == 0 {
		h.reply(message, fmt.Sprintf("📅 Aucun pointage le %s.", models.FormatDate(day)))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Pointages du %s (%d):\n\n", models.FormatDate(day), len(records))
	for i := range records {
		b.WriteString(formatRecordLine(&records[i]))
	}
	h.reply(message, b.String())
}

// presentNow /present
func (h *Handler) presentNow(ctx context.Context, message *tgbotapi.Message) {
	present, err := h.tracking.GetPresentNow(ctx, h.today())
	if err != nil {
		h.replyError(message, err)
		return
	}
	if len(present) == 0 {
		h.reply(message, "🏢 Personne n'est présent actuellement.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏢 Présents (%d):\n\n", len(present))
	for _, p := range present {
		fmt.Fprintf(&b, "• %s - %s (%s) depuis %s\n", p.Matricule, p.NomComplet, p.Departement, p.HeureArrivee)
	}
	h.reply(message, b.String())
}

// absentEmployees /absents [date] [département]
func (h *Handler) absentEmployees(ctx context.Context, message *tgbotapi.Message, args string) {
	day, department, err := h.dayAndDepartment(args)
	if err != nil {
		h.replyError(message, err)
		return
	}

	report, err := h.tracking.GetAbsentEmployees(ctx, day, department, "")
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, FormatAbsenceReport(report))
}

// advancedReport /report [date] [département]
func (h *Handler) advancedReport(ctx context.Context, message *tgbotapi.Message, args string) {
	day, department, err := h.dayAndDepartment(args)
	if err != nil {
		h.replyError(message, err)
		return
	}

	report, err := h.tracking.GetAdvancedReports(ctx, day, department)
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, FormatAdvancedReport(report))
}

// employeeTracking /tracking [AAAA-MM] [matricule|département]
func (h *Handler) employeeTracking(ctx context.Context, message *tgbotapi.Message, args string) {
	parts := strings.Fields(args)
	filter := models.TrackingFilter{Month: models.PartitionOf(h.today())}

	if len(parts) > 0 {
		if _, err := models.ParsePartition(parts[0]); err == nil {
			filter.Month = parts[0]
			parts = parts[1:]
		}
	}
	if len(parts) > 0 {
		target := strings.Join(parts, " ")
		if _, err := h.roster.GetByMatricule(ctx, target); err == nil {
			filter.Matricule = target
		} else {
			filter.Department = target
		}
	}

	entries, err := h.tracking.GetEmployeeTracking(ctx, filter)
	if err != nil {
		h.replyError(message, err)
		return
	}
	h.reply(message, FormatTracking(filter, entries))
}

// employeeStats /stats matricule
func (h *Handler) employeeStats(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		h.reply(message, "❌ Format: /stats [matricule]")
		return
	}

	stats, err := h.tracking.GetEmployeeStats(ctx, args, nil, nil)
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf(`📊 Statistiques de %s:

📅 Jours de présence: %d
⏱ Heures totales: %.2f
📈 Moyenne par jour: %.2f h`,
		stats.Matricule, stats.TotalDays, stats.TotalHours, stats.AverageHoursPerDay))
}

func (h *Handler) dayArg(arg string) (time.Time, error) {
	if strings.TrimSpace(arg) == "" {
		return h.today(), nil
	}
	return parseDay(arg, h.loc)
}

// dayAndDepartment первый аргумент - дата, если разбирается; остальное - отдел
func (h *Handler) dayAndDepartment(args string) (time.Time, string, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return h.today(), "", nil
	}
	if day, err := parseDay(parts[0], h.loc); err == nil {
		return day, strings.Join(parts[1:], " "), nil
	}
	if looksLikeDate(parts[0]) {
		_, err := parseDay(parts[0], h.loc)
		return time.Time{}, "", err
	}
	return h.today(), strings.Join(parts, " "), nil
}

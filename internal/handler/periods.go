package handler

import (
	"context"
	"fmt"
	"presence-tracker/internal/models"
	"presence-tracker/internal/service"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// addHoliday /holiday начало конец описание
func (h *Handler) addHoliday(ctx context.Context, message *tgbotapi.Message, args string) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		h.reply(message, "❌ Format: /holiday [début] [fin] [description]\nExemple: /holiday 06.06.2025 07.06.2025 Tabaski")
		return
	}

	start, end, err := h.parseRangeArgs(parts[0], parts[1])
	if err != nil {
		h.replyError(message, err)
		return
	}

	holiday, err := h.periods.AddHoliday(ctx, service.HolidayRequest{
		Description: strings.Join(parts[2:], " "),
		DateDebut:   start,
		DateFin:     end,
	})
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Jour férié ajouté: %s (%s → %s)", holiday.Description, holiday.DateDebut, holiday.DateFin))
}

// listHolidays /holidays [année]
func (h *Handler) listHolidays(ctx context.Context, message *tgbotapi.Message, args string) {
	year := h.today().Year()
	if args != "" {
		y, err := strconv.Atoi(args)
		if err != nil {
			h.reply(message, "❌ Année invalide. Exemple: /holidays 2025")
			return
		}
		year = y
	}

	holidays, err := h.periods.ListHolidays(ctx, year)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if len(holidays) == 0 {
		h.reply(message, fmt.Sprintf("📅 Aucun jour férié enregistré pour %d.", year))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 Jours fériés %d:\n\n", year)
	for _, holiday := range holidays {
		fmt.Fprintf(&b, "• %s: %s → %s\n", holiday.Description, holiday.DateDebut, holiday.DateFin)
	}
	h.reply(message, b.String())
}

// addLeave /leave matricule начало конец
func (h *Handler) addLeave(ctx context.Context, message *tgbotapi.Message, args string) {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		h.reply(message, "❌ Format: /leave [matricule] [début] [fin]\nExemple: /leave E042 12.06.2025 20.06.2025")
		return
	}

	start, end, err := h.parseRangeArgs(parts[1], parts[2])
	if err != nil {
		h.replyError(message, err)
		return
	}

	period, err := h.periods.AddLeave(ctx, service.PeriodRequest{Matricule: parts[0], DateDebut: start, DateFin: end})
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Congé ajouté pour %s (%s): %s → %s",
		period.NomComplet, period.Matricule, period.DateDebut, period.DateFin))
}

// addMission /mission matricule начало конец название
func (h *Handler) addMission(ctx context.Context, message *tgbotapi.Message, args string) {
	parts := strings.Fields(args)
	if len(parts) < 4 {
		h.reply(message, "❌ Format: /mission [matricule] [début] [fin] [nom]\nExemple: /mission E042 01.03.2025 05.03.2025 Audit Thiès")
		return
	}

	start, end, err := h.parseRangeArgs(parts[1], parts[2])
	if err != nil {
		h.replyError(message, err)
		return
	}

	period, err := h.periods.AddMission(ctx, service.PeriodRequest{
		Matricule:  parts[0],
		NomMission: strings.Join(parts[3:], " "),
		DateDebut:  start,
		DateFin:    end,
	})
	if err != nil {
		h.replyError(message, err)
		return
	}

	h.reply(message, fmt.Sprintf("✅ Mission « %s » ajoutée pour %s (%s): %s → %s",
		period.NomMission, period.NomComplet, period.Matricule, period.DateDebut, period.DateFin))
}

// listPeriods /periods matricule
func (h *Handler) listPeriods(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		h.reply(message, "❌ Format: /periods [matricule]")
		return
	}

	periods, err := h.periods.ListPeriods(ctx, args)
	if err != nil {
		h.replyError(message, err)
		return
	}
	if len(periods) == 0 {
		h.reply(message, fmt.Sprintf("📋 Aucun congé ni mission pour %s.", args))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Congés et missions de %s:\n\n", args)
	for _, p := range periods {
		switch p.Kind {
		case models.PeriodKindMission:
			fmt.Fprintf(&b, "✈️ Mission « %s »: %s → %s\n", p.NomMission, p.DateDebut, p.DateFin)
		default:
			fmt.Fprintf(&b, "🏖️ Congé: %s → %s\n", p.DateDebut, p.DateFin)
		}
	}
	h.reply(message, b.String())
}

func (h *Handler) parseRangeArgs(start, end string) (string, string, error) {
	s, err := parseDay(start, h.loc)
	if err != nil {
		return "", "", err
	}
	e, err := parseDay(end, h.loc)
	if err != nil {
		return "", "", err
	}
	return models.FormatDate(s), models.FormatDate(e), nil
}

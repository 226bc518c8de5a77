package handler

import (
	"fmt"
	"presence-tracker/internal/models"
	"strings"
	"time"
)

var dayLayouts = []string{models.DateLayout, "02.01.2006"}

// parseDay принимает AAAA-MM-JJ или JJ.MM.AAAA
func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &models.ValidationError{Field: "date", Message: fmt.Sprintf("%q: expected AAAA-MM-JJ or JJ.MM.AAAA", s)}
}

func looksLikeDate(s string) bool {
	return strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, "-.")
}

var outcomeIcons = map[string]string{
	models.ActionArrivee:     "✅",
	models.ActionDepart:      "👋",
	models.ActionHoliday:     "🎉",
	models.ActionOnLeave:     "🏖️",
	models.ActionOnMission:   "✈️",
	models.ActionDejaPresent: "⚠️",
	models.ActionDejaSorti:   "⚠️",
	models.ActionErreur:      "❌",
}

func formatOutcome(o models.ScanOutcome) string {
	icon, ok := outcomeIcons[o.Action]
	if !ok {
		icon = "ℹ️"
	}
	return fmt.Sprintf("%s %s\n🕐 %s", icon, o.Message, o.Time)
}

func formatRecordLine(r *models.AttendanceRecord) string {
	arrival, departure := "-", "-"
	if r.HasArrival() {
		arrival = *r.HeureArrivee
	}
	if r.IsDeparted() {
		departure = *r.HeureDepart
	} else if r.HeureDepartPrevue != nil {
		departure = "(prévu " + *r.HeureDepartPrevue + ")"
	}
	return fmt.Sprintf("• %s - %s: %s → %s\n", r.Matricule, r.NomComplet, arrival, departure)
}

// FormatAdvancedReport текст сводки дня; используется и планировщиком
func FormatAdvancedReport(r *models.AdvancedReport) string {
	title := "📊 Rapport du " + r.Date
	if r.Department != "" {
		title += " - " + r.Department
	}
	if r.IsHoliday() {
		return fmt.Sprintf("%s\n\n🎉 Jour férié: %s", title, r.Holiday)
	}

	return fmt.Sprintf(`%s

👥 Effectif: %d
✅ Présents: %d
❌ Absents: %d
🏖️ En congé: %d
✈️ En mission: %d
⏰ Retards: %d
🚪 Départs anticipés: %d
❓ Départs non pointés: %d`,
		title,
		r.TotalEmployees, r.PresentToday, r.AbsentToday, r.OnLeave, r.OnMission,
		r.LateArrivals, r.EarlyDepartures, r.MissingDepartures)
}

// FormatAbsenceReport список отсутствующих
func FormatAbsenceReport(r *models.AbsenceReport) string {
	if r.IsHoliday() {
		return fmt.Sprintf("🎉 %s est un jour férié: %s", r.Date, r.Holiday)
	}
	if len(r.Employees) == 0 {
		return fmt.Sprintf("✅ Aucun absent le %s.", r.Date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "❌ Absents du %s (%d):\n\n", r.Date, len(r.Employees))
	for _, e := range r.Employees {
		fmt.Fprintf(&b, "• %s - %s %s (%s)", e.Matricule, e.Prenom, e.Nom, e.Departement)
		if e.Telephone != "" {
			fmt.Fprintf(&b, " 📞 %s", e.Telephone)
		}
		b.WriteString("\n")
	}
	return b.String()
}

var statusLabels = map[string]string{
	models.StatusAbsent:           "absent",
	models.StatusMissingDeparture: "départ non pointé",
	models.StatusOvertime:         "heures sup.",
	models.StatusIrregular:        "irrégulier",
	models.StatusLate:             "retard",
	models.StatusEarly:            "départ anticipé",
	models.StatusNormal:           "normal",
}

// FormatTracking суточные записи за месяц
func FormatTracking(filter models.TrackingFilter, entries []models.TrackingEntry) string {
	title := "📈 Suivi " + filter.Month
	if filter.Month == "" {
		title = "📈 Suivi complet"
	}
	switch {
	case filter.Matricule != "":
		title += " - " + filter.Matricule
	case filter.Department != "":
		title += " - " + filter.Department
	}
	if len(entries) == 0 {
		return title + "\n\nAucun pointage."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n\n", title, len(entries))
	for _, e := range entries {
		arrival, departure := "-", "-"
		if e.HasArrival() {
			arrival = *e.HeureArrivee
		}
		if e.IsDeparted() {
			departure = *e.HeureDepart
		}
		fmt.Fprintf(&b, "%s %s %s → %s", e.Date, e.Matricule, arrival, departure)
		if e.Worked != "" {
			fmt.Fprintf(&b, " (%s)", e.Worked)
		}
		fmt.Fprintf(&b, " [%s]\n", statusLabels[e.Status])
	}
	return b.String()
}
